package websocket

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/models"
)

// EventType имя события в конверте
type EventType string

const (
	// От клиента
	EventJoin  EventType = "project:join"
	EventLeave EventType = "project:leave"

	// Ответы на join/leave
	EventJoined EventType = "project:joined"
	EventLeft   EventType = "project:left"

	// Рассылки в комнату
	EventMessage  EventType = "project:message"
	EventTyping   EventType = "project:typing"
	EventPresence EventType = "project:presence"

	// Персональные
	EventConnected           EventType = "connected"
	EventNotification        EventType = "notification"
	EventNotificationRead    EventType = "notification:read"
	EventNotificationDeleted EventType = "notification:deleted"
	EventError               EventType = "error"
)

type Envelope struct {
	Event     EventType       `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Encode собирает конверт с payload и сериализует его
func Encode(event EventType, payload any) ([]byte, error) {
	env := Envelope{Event: event, Timestamp: time.Now().UTC()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Decode разбирает data конверта в v
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return ErrInvalidMessage
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return ErrInvalidMessage
	}
	return nil
}

const roomPrefix = "project:"

// RoomID имя комнаты проекта
func RoomID(projectID uuid.UUID) string {
	return roomPrefix + projectID.String()
}

func ProjectFromRoom(roomID string) (uuid.UUID, bool) {
	if !strings.HasPrefix(roomID, roomPrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(roomID, roomPrefix))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ConnectedPayload первое событие после handshake. ConnectionID клиент
// передает в X-Socket-ID при отправке через HTTP.
type ConnectedPayload struct {
	ConnectionID uuid.UUID `json:"connectionId"`
	UserID       uuid.UUID `json:"userId"`
}

type ProjectPayload struct {
	ProjectID uuid.UUID `json:"projectId"`
}

type JoinedPayload struct {
	ProjectID   uuid.UUID    `json:"projectId"`
	OnlineUsers []uuid.UUID  `json:"onlineUsers"`
	Typing      []TypingUser `json:"typing"`
}

type PresencePayload struct {
	ProjectID uuid.UUID `json:"projectId"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name,omitempty"`
	Online    bool      `json:"online"`
}

// TypingPayload входящий и исходящий project:typing. UserID во входящем
// игнорируется: личность берется из сессии.
type TypingPayload struct {
	ProjectID uuid.UUID `json:"projectId"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name,omitempty"`
	IsTyping  bool      `json:"isTyping"`
}

type SendMessagePayload struct {
	ProjectID   uuid.UUID           `json:"projectId"`
	Content     string              `json:"content"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

// NotificationReadPayload либо одно уведомление, либо все (All)
type NotificationReadPayload struct {
	ID  *uuid.UUID `json:"id,omitempty"`
	All bool       `json:"all,omitempty"`
}

// NotificationDeletedPayload Unread подсказывает вкладкам, уменьшать ли счетчик
type NotificationDeletedPayload struct {
	ID     uuid.UUID `json:"id"`
	Unread bool      `json:"unread"`
}

type ErrorPayload struct {
	Event EventType `json:"event,omitempty"`
	Code  string    `json:"code"`
	Error string    `json:"error"`
}
