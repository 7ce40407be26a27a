package websocket

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

type Options struct {
	SendBuffer    int
	EventTimeout  time.Duration
	TypingTTL     time.Duration
	SweepInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.EventTimeout <= 0 {
		o.EventTimeout = 10 * time.Second
	}
	if o.TypingTTL <= 0 {
		o.TypingTTL = 3 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = 1500 * time.Millisecond
	}
	return o
}

// Hub владеет реестром сессий, комнатами и трекером набора текста
type Hub struct {
	registry *SessionRegistry
	rooms    *RoomManager
	typing   *TypingTracker

	sendBuffer   int
	eventTimeout time.Duration
	log          logger.Logger
}

// NewHub создает новый Hub
func NewHub(opts Options, log logger.Logger) *Hub {
	opts = opts.withDefaults()
	rooms := NewRoomManager(log)
	return &Hub{
		registry:     NewSessionRegistry(),
		rooms:        rooms,
		typing:       NewTypingTracker(rooms, opts.TypingTTL, opts.SweepInterval, log),
		sendBuffer:   opts.SendBuffer,
		eventTimeout: opts.EventTimeout,
		log:          log,
	}
}

// Run запускает очистку набора текста и при остановке закрывает все соединения
func (h *Hub) Run(ctx context.Context) {
	h.typing.Run(ctx)

	for _, client := range h.registry.all() {
		h.Unbind(client.ID)
	}
	h.log.Info("Hub stopped")
}

// Connect регистрирует новое соединение
func (h *Hub) Connect(conn *websocket.Conn) *Client {
	client := newClient(h, conn, h.sendBuffer)
	h.registry.Register(client)
	h.log.Debug("Client connected", "conn_id", client.ID)
	return client
}

func (h *Hub) Bind(connID uuid.UUID, id Identity) error {
	if err := h.registry.Bind(connID, id); err != nil {
		return err
	}
	h.log.Info("Client bound", "conn_id", connID, "user_id", id.UserID)
	return nil
}

// Unbind синхронно убирает соединение: закрывает очередь, выводит из всех
// комнат, снимает набор текста и удаляет из реестра. Повторный вызов ничего
// не делает.
func (h *Hub) Unbind(connID uuid.UUID) {
	client := h.registry.Get(connID)
	if client == nil {
		return
	}
	if !client.close() {
		return
	}

	id, _ := client.Identity()
	left := h.rooms.LeaveAll(client)
	h.typing.DropConnection(connID)
	h.registry.Remove(connID)

	for _, d := range left {
		if d.LastForUser {
			h.announcePresence(d.RoomID, id, false, connID)
		}
	}

	h.log.Info("Client unbound", "conn_id", connID, "user_id", id.UserID, "rooms", len(left))
}

// Join вводит соединение в комнату проекта. Проверка прав на проект
// выполняется вызывающим кодом.
func (h *Hub) Join(client *Client, projectID uuid.UUID) (*JoinedPayload, error) {
	id, ok := client.Identity()
	if !ok {
		if client.State() == StateDisconnected {
			return nil, ErrClientClosed
		}
		return nil, apperrors.ErrAuthenticationRequired
	}

	roomID := RoomID(projectID)
	added, firstForUser, err := h.rooms.Join(client, roomID)
	if err != nil {
		return nil, err
	}
	if added {
		h.log.Debug("Client joined room", "conn_id", client.ID, "room", roomID)
		if firstForUser {
			h.announcePresence(roomID, id, true, client.ID)
		}
	}

	return &JoinedPayload{
		ProjectID:   projectID,
		OnlineUsers: h.rooms.Users(roomID),
		Typing:      h.typing.Typing(projectID),
	}, nil
}

// Leave выводит соединение из комнаты проекта
func (h *Hub) Leave(client *Client, projectID uuid.UUID) bool {
	roomID := RoomID(projectID)
	d, ok := h.rooms.Leave(client, roomID)
	if !ok {
		return false
	}
	h.typing.DropRoom(client.ID, projectID)

	if d.LastForUser {
		id, _ := client.Identity()
		h.announcePresence(roomID, id, false, client.ID)
	}
	h.log.Debug("Client left room", "conn_id", client.ID, "room", roomID)
	return true
}

// Evict выводит соединение из комнаты без его участия (например, после отзыва роли)
func (h *Hub) Evict(connID, projectID uuid.UUID) bool {
	client := h.registry.Get(connID)
	if client == nil {
		return false
	}
	if !h.Leave(client, projectID) {
		return false
	}
	if err := client.Emit(EventLeft, ProjectPayload{ProjectID: projectID}); err != nil {
		h.log.Debug("Failed to notify evicted client", "conn_id", connID, "error", err)
	}
	return true
}

// announcePresence сообщает комнате о появлении или уходе пользователя
func (h *Hub) announcePresence(roomID string, id Identity, online bool, exclude uuid.UUID) {
	projectID, ok := ProjectFromRoom(roomID)
	if !ok || id.UserID == uuid.Nil {
		return
	}

	payload := PresencePayload{ProjectID: projectID, UserID: id.UserID, Name: id.Name, Online: online}
	if _, err := h.rooms.Broadcast(roomID, EventPresence, payload, exclude); err != nil {
		h.log.Error("Failed to broadcast presence", "room", roomID, "error", err)
	}
}

func (h *Hub) IsMember(connID, projectID uuid.UUID) bool {
	return h.rooms.IsMember(connID, RoomID(projectID))
}

// Broadcast рассылает событие в комнату проекта, кроме соединения exclude
func (h *Hub) Broadcast(projectID uuid.UUID, event EventType, payload any, exclude uuid.UUID) (int, error) {
	return h.rooms.Broadcast(RoomID(projectID), event, payload, exclude)
}

// SendToUser отправляет событие во все соединения пользователя
func (h *Hub) SendToUser(userID uuid.UUID, event EventType, payload any, exclude uuid.UUID) (int, error) {
	data, err := Encode(event, payload)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, client := range h.registry.ConnectionsFor(userID) {
		if client.ID == exclude {
			continue
		}
		if err := client.enqueue(data); err != nil {
			h.log.Warn("Dropped user frame", "user_id", userID, "conn_id", client.ID, "error", err)
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (h *Hub) SetTyping(client *Client, projectID uuid.UUID, name string, isTyping bool) error {
	return h.typing.Set(client, projectID, name, isTyping)
}

func (h *Hub) UserFor(connID uuid.UUID) (uuid.UUID, bool) {
	return h.registry.UserFor(connID)
}

func (h *Hub) Client(connID uuid.UUID) *Client {
	return h.registry.Get(connID)
}

// ConnectionsFor возвращает идентификаторы живых соединений пользователя
func (h *Hub) ConnectionsFor(userID uuid.UUID) []uuid.UUID {
	clients := h.registry.ConnectionsFor(userID)
	ids := make([]uuid.UUID, 0, len(clients))
	for _, client := range clients {
		ids = append(ids, client.ID)
	}
	return ids
}

// ProjectsOf проекты, в комнатах которых сейчас соединение
func (h *Hub) ProjectsOf(connID uuid.UUID) []uuid.UUID {
	client := h.registry.Get(connID)
	if client == nil {
		return nil
	}

	var projects []uuid.UUID
	for _, roomID := range client.Rooms() {
		if projectID, ok := ProjectFromRoom(roomID); ok {
			projects = append(projects, projectID)
		}
	}
	return projects
}

// OnlineIn возвращает пользователей, подключенных к комнате проекта
func (h *Hub) OnlineIn(projectID uuid.UUID) []uuid.UUID {
	return h.rooms.Users(RoomID(projectID))
}

func (h *Hub) TypingIn(projectID uuid.UUID) []TypingUser {
	return h.typing.Typing(projectID)
}

// GetOnlineUsers возвращает список онлайн пользователей
func (h *Hub) GetOnlineUsers() []uuid.UUID {
	return h.registry.OnlineUsers()
}

func (h *Hub) ConnectionCount() int {
	return h.registry.Count()
}

func (h *Hub) RoomCount() int {
	return h.rooms.Count()
}
