package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер сообщения
	maxMessageSize = 512 * 1024 // 512KB
)

// ConnState состояние соединения: Unauthenticated -> Authenticated -> Disconnected
type ConnState int

const (
	StateUnauthenticated ConnState = iota
	StateAuthenticated
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Identity пользователь, привязанный к соединению
type Identity struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

// EventHandler обрабатывает события клиента. Вызовы для одного соединения
// идут строго последовательно.
type EventHandler interface {
	HandleEvent(ctx context.Context, client *Client, env *Envelope) error
}

type Client struct {
	ID   uuid.UUID
	Conn *websocket.Conn
	Send chan []byte

	hub *Hub

	mu       sync.RWMutex
	identity Identity
	state    ConnState
	rooms    map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		ID:    uuid.New(),
		Conn:  conn,
		Send:  make(chan []byte, buffer),
		hub:   hub,
		state: StateUnauthenticated,
		rooms: make(map[string]struct{}),
	}
}

func (c *Client) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Identity возвращает привязанного пользователя, если соединение аутентифицировано
func (c *Client) Identity() (Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity, c.state == StateAuthenticated
}

func (c *Client) UserID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity.UserID
}

func (c *Client) InRoom(roomID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.rooms[roomID]
	return ok
}

func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]string, 0, len(c.rooms))
	for roomID := range c.rooms {
		rooms = append(rooms, roomID)
	}
	return rooms
}

func (c *Client) bind(id Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateDisconnected:
		return ErrClientClosed
	case StateAuthenticated:
		if c.identity.UserID != id.UserID {
			return ErrIdentityChanged
		}
	}
	c.identity = id
	c.state = StateAuthenticated
	return nil
}

// close переводит соединение в Disconnected и закрывает очередь отправки.
// Возвращает false, если соединение уже было закрыто.
func (c *Client) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisconnected {
		return false
	}
	c.state = StateDisconnected
	close(c.Send)
	return true
}

// enqueue кладет кадр в очередь не блокируясь. Переполненная очередь
// означает потерю кадра для этого получателя.
func (c *Client) enqueue(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state == StateDisconnected {
		return ErrClientClosed
	}

	select {
	case c.Send <- data:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) Emit(event EventType, payload any) error {
	data, err := Encode(event, payload)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

// EmitError сообщает клиенту об ошибке, соединение остается открытым
func (c *Client) EmitError(event EventType, err error) {
	payload := ErrorPayload{
		Event: event,
		Code:  apperrors.Code(err),
		Error: err.Error(),
	}
	if emitErr := c.Emit(EventError, payload); emitErr != nil {
		c.hub.log.Debug("Failed to emit error", "conn_id", c.ID, "error", emitErr)
	}
}

// ReadPump читает события клиента и передает их обработчику по одному
func (c *Client) ReadPump(handler EventHandler) {
	defer func() {
		c.hub.Unbind(c.ID)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("WebSocket read error", "conn_id", c.ID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			c.EmitError("", ErrInvalidMessage)
			continue
		}

		c.dispatch(handler, &env)
	}
}

func (c *Client) dispatch(handler EventHandler, env *Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), c.hub.eventTimeout)
	defer cancel()

	if err := handler.HandleEvent(ctx, c, env); err != nil {
		c.hub.log.Debug("Event rejected", "conn_id", c.ID, "event", env.Event, "error", err)
		c.EmitError(env.Event, err)
	}
}

// WritePump отправляет сообщения клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Отправляем все накопившиеся сообщения
			n := len(c.Send)
			for i := 0; i < n; i++ {
				queued, ok := <-c.Send
				if !ok {
					c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.Conn.WriteMessage(websocket.TextMessage, queued); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
