package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/services"
	"github.com/thereayou/zenlist-realtime/internal/websocket"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

// SocketEvents обрабатывает события, пришедшие по сокету. Вызывается из
// ReadPump последовательно для каждого соединения.
type SocketEvents struct {
	gate          *services.Gate
	hub           *websocket.Hub
	router        *services.MessageRouter
	notifications *services.Dispatcher
	log           logger.Logger
}

func NewSocketEvents(gate *services.Gate, hub *websocket.Hub, router *services.MessageRouter, notifications *services.Dispatcher, log logger.Logger) *SocketEvents {
	return &SocketEvents{
		gate:          gate,
		hub:           hub,
		router:        router,
		notifications: notifications,
		log:           log,
	}
}

func (h *SocketEvents) HandleEvent(ctx context.Context, client *websocket.Client, env *websocket.Envelope) error {
	switch env.Event {
	case websocket.EventJoin:
		return h.handleJoin(ctx, client, env)

	case websocket.EventLeave:
		return h.handleLeave(client, env)

	case websocket.EventMessage:
		return h.handleMessage(ctx, client, env)

	case websocket.EventTyping:
		return h.handleTyping(client, env)

	case websocket.EventNotificationRead:
		return h.handleNotificationRead(ctx, client, env)

	default:
		return fmt.Errorf("%w: %s", websocket.ErrUnknownEvent, env.Event)
	}
}

func decodeProject(env *websocket.Envelope) (uuid.UUID, error) {
	var payload websocket.ProjectPayload
	if err := env.Decode(&payload); err != nil {
		return uuid.Nil, err
	}
	if payload.ProjectID == uuid.Nil {
		return uuid.Nil, websocket.ErrInvalidMessage
	}
	return payload.ProjectID, nil
}

func (h *SocketEvents) handleJoin(ctx context.Context, client *websocket.Client, env *websocket.Envelope) error {
	projectID, err := decodeProject(env)
	if err != nil {
		return err
	}

	if err := h.gate.AuthorizeJoin(ctx, client.UserID(), projectID); err != nil {
		return err
	}

	joined, err := h.hub.Join(client, projectID)
	if err != nil {
		return err
	}
	return client.Emit(websocket.EventJoined, joined)
}

// handleLeave идемпотентен: project:left приходит и если соединения не было в комнате
func (h *SocketEvents) handleLeave(client *websocket.Client, env *websocket.Envelope) error {
	projectID, err := decodeProject(env)
	if err != nil {
		return err
	}

	h.hub.Leave(client, projectID)
	return client.Emit(websocket.EventLeft, websocket.ProjectPayload{ProjectID: projectID})
}

// handleMessage рассылает сообщение остальным участникам комнаты, а
// отправителю возвращает сохраненную версию как подтверждение
func (h *SocketEvents) handleMessage(ctx context.Context, client *websocket.Client, env *websocket.Envelope) error {
	var payload websocket.SendMessagePayload
	if err := env.Decode(&payload); err != nil {
		return err
	}
	if payload.ProjectID == uuid.Nil {
		return websocket.ErrInvalidMessage
	}

	msg, err := h.router.Send(ctx, client.ID, payload.ProjectID, payload.Content, payload.Attachments)
	if err != nil {
		return err
	}
	return client.Emit(websocket.EventMessage, msg)
}

func (h *SocketEvents) handleTyping(client *websocket.Client, env *websocket.Envelope) error {
	var payload websocket.TypingPayload
	if err := env.Decode(&payload); err != nil {
		return err
	}
	if payload.ProjectID == uuid.Nil {
		return websocket.ErrInvalidMessage
	}

	return h.hub.SetTyping(client, payload.ProjectID, payload.Name, payload.IsTyping)
}

func (h *SocketEvents) handleNotificationRead(ctx context.Context, client *websocket.Client, env *websocket.Envelope) error {
	var payload websocket.NotificationReadPayload
	if err := env.Decode(&payload); err != nil {
		return err
	}

	userID := client.UserID()
	if userID == uuid.Nil {
		return apperrors.ErrAuthenticationRequired
	}

	switch {
	case payload.All:
		_, err := h.notifications.MarkAllRead(ctx, userID)
		return err
	case payload.ID != nil:
		_, err := h.notifications.MarkRead(ctx, *payload.ID, userID)
		return err
	default:
		return websocket.ErrInvalidMessage
	}
}
