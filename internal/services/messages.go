package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/models"
	"github.com/thereayou/zenlist-realtime/internal/websocket"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

const (
	MaxAttachments     = 5
	DefaultHistorySize = 50
	MaxHistorySize     = 100
)

// ChatMessage сообщение в том виде, в каком его получают участники комнаты
type ChatMessage struct {
	ID          uuid.UUID           `json:"id"`
	ProjectID   uuid.UUID           `json:"projectId"`
	UserID      uuid.UUID           `json:"userId"`
	Content     string              `json:"content"`
	Attachments []models.Attachment `json:"attachments"`
	CreatedAt   time.Time           `json:"createdAt"`
	User        models.PublicUser   `json:"user"`
}

func newChatMessage(m *models.ProjectMessage, author *models.User) (*ChatMessage, error) {
	attachments, err := m.AttachmentList()
	if err != nil {
		return nil, err
	}
	return &ChatMessage{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		UserID:      m.UserID,
		Content:     m.Content,
		Attachments: attachments,
		CreatedAt:   m.CreatedAt,
		User:        author.Public(),
	}, nil
}

// SendLimiter ограничение частоты отправки (cache.SendLimiter)
type SendLimiter interface {
	Allow(ctx context.Context, userID uuid.UUID) (bool, error)
}

// MessageRouter сохраняет сообщения и рассылает их в комнату проекта.
// Рассылка происходит только после успешной записи.
type MessageRouter struct {
	gate     *Gate
	users    UserStore
	messages MessageStore
	rooms    Rooms
	limiter  SendLimiter
	log      logger.Logger
}

func NewMessageRouter(gate *Gate, users UserStore, messages MessageStore, rooms Rooms, log logger.Logger) *MessageRouter {
	return &MessageRouter{gate: gate, users: users, messages: messages, rooms: rooms, log: log}
}

func (r *MessageRouter) WithLimiter(limiter SendLimiter) *MessageRouter {
	r.limiter = limiter
	return r
}

// ValidateContent проверяет текст и форму вложений
func ValidateContent(content string, attachments []models.Attachment) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: message content is empty", apperrors.ErrInvalidContent)
	}
	if len(attachments) > MaxAttachments {
		return fmt.Errorf("%w: at most %d attachments allowed", apperrors.ErrInvalidContent, MaxAttachments)
	}
	for i, a := range attachments {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("%w: attachment %d has no name", apperrors.ErrInvalidContent, i)
		}
		if !validAttachmentURL(a.URL) {
			return fmt.Errorf("%w: attachment %d has an invalid url", apperrors.ErrInvalidContent, i)
		}
	}
	return nil
}

func validAttachmentURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Send отправка из сокета: соединение должно быть аутентифицировано и
// находиться в комнате. Права перепроверяются при каждой отправке; при
// отзыве роли соединение выводится из комнаты.
func (r *MessageRouter) Send(ctx context.Context, connID, projectID uuid.UUID, content string, attachments []models.Attachment) (*ChatMessage, error) {
	userID, ok := r.rooms.UserFor(connID)
	if !ok {
		return nil, apperrors.ErrAuthenticationRequired
	}
	if err := ValidateContent(content, attachments); err != nil {
		return nil, err
	}
	if !r.rooms.IsMember(connID, projectID) {
		return nil, websocket.ErrNotInRoom
	}

	if err := r.gate.AuthorizeJoin(ctx, userID, projectID); err != nil {
		if errors.Is(err, apperrors.ErrForbidden) && r.rooms.Evict(connID, projectID) {
			r.log.Info("Evicted connection after role revocation", "conn_id", connID, "project_id", projectID)
		}
		return nil, err
	}

	return r.deliver(ctx, userID, projectID, content, attachments, connID)
}

// SendAs отправка через HTTP. excludeConn (X-Socket-ID) не получит эхо,
// если это сокет того же пользователя; чужой id игнорируется.
func (r *MessageRouter) SendAs(ctx context.Context, userID, projectID uuid.UUID, content string, attachments []models.Attachment, excludeConn uuid.UUID) (*ChatMessage, error) {
	if userID == uuid.Nil {
		return nil, apperrors.ErrAuthenticationRequired
	}
	if err := ValidateContent(content, attachments); err != nil {
		return nil, err
	}
	if err := r.gate.AuthorizeJoin(ctx, userID, projectID); err != nil {
		return nil, err
	}

	if excludeConn != uuid.Nil {
		if owner, ok := r.rooms.UserFor(excludeConn); !ok || owner != userID {
			excludeConn = uuid.Nil
		}
	}

	return r.deliver(ctx, userID, projectID, content, attachments, excludeConn)
}

func (r *MessageRouter) deliver(ctx context.Context, userID, projectID uuid.UUID, content string, attachments []models.Attachment, exclude uuid.UUID) (*ChatMessage, error) {
	if r.limiter != nil {
		allowed, err := r.limiter.Allow(ctx, userID)
		if err != nil {
			// Redis недоступен: не блокируем чат
			r.log.Warn("Rate limiter unavailable", "user_id", userID, "error", err)
		} else if !allowed {
			return nil, apperrors.ErrRateLimited
		}
	}

	author, err := r.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrAuthenticationRequired
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	msg := &models.ProjectMessage{
		ProjectID: projectID,
		UserID:    userID,
		Content:   content,
	}
	if err := msg.SetAttachments(attachments); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidContent, err)
	}

	if err := r.messages.SaveMessage(ctx, msg); err != nil {
		r.log.Error("Failed to save message", "project_id", projectID, "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	out, err := newChatMessage(msg, author)
	if err != nil {
		return nil, err
	}

	delivered, err := r.rooms.Broadcast(projectID, websocket.EventMessage, out, exclude)
	if err != nil {
		r.log.Error("Failed to broadcast message", "message_id", msg.ID, "error", err)
	}
	r.log.Debug("Message delivered", "message_id", msg.ID, "project_id", projectID, "recipients", delivered)

	return out, nil
}

// HistoryPage страница истории. HasMore считается по числу строк в хранилище,
// а не по числу сообщений, прошедших декодирование.
type HistoryPage struct {
	Messages []ChatMessage
	HasMore  bool
}

// History последние сообщения проекта, от старых к новым.
// Неизвестный или чужой before дает ErrNotFound.
func (r *MessageRouter) History(ctx context.Context, userID, projectID uuid.UUID, limit int, before *uuid.UUID) (*HistoryPage, error) {
	if err := r.gate.AuthorizeJoin(ctx, userID, projectID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultHistorySize
	}
	if limit > MaxHistorySize {
		limit = MaxHistorySize
	}

	stored, err := r.messages.GetProjectMessages(ctx, projectID, limit, before)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	page := &HistoryPage{
		Messages: make([]ChatMessage, 0, len(stored)),
		HasMore:  len(stored) == limit,
	}
	for i := range stored {
		msg, err := newChatMessage(&stored[i], &stored[i].User)
		if err != nil {
			r.log.Warn("Skipping message with unreadable attachments", "message_id", stored[i].ID, "error", err)
			continue
		}
		page.Messages = append(page.Messages, *msg)
	}
	return page, nil
}
