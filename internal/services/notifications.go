package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/models"
	"github.com/thereayou/zenlist-realtime/internal/websocket"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

const (
	DefaultNotificationPage = 50
	MaxNotificationPage     = 200
)

// Dispatcher сохраняет уведомления и доставляет их в живые соединения
// адресата. Сохраненная запись первична, push только ускоряет доставку.
type Dispatcher struct {
	store     NotificationStore
	directory ConnectionDirectory
	gate      *Gate
	log       logger.Logger
}

func NewDispatcher(store NotificationStore, directory ConnectionDirectory, gate *Gate, log logger.Logger) *Dispatcher {
	return &Dispatcher{store: store, directory: directory, gate: gate, log: log}
}

// Deliver сохраняет уведомление и отправляет его во все соединения адресата.
// Возвращает число соединений, получивших push.
func (d *Dispatcher) Deliver(ctx context.Context, n *models.Notification) (int, error) {
	if n.UserID == uuid.Nil {
		return 0, fmt.Errorf("%w: notification has no recipient", apperrors.ErrInvalidContent)
	}
	if !n.Type.Valid() {
		return 0, fmt.Errorf("%w: unknown notification type %q", apperrors.ErrInvalidContent, n.Type)
	}
	if strings.TrimSpace(n.Title) == "" {
		return 0, fmt.Errorf("%w: notification title is empty", apperrors.ErrInvalidContent)
	}
	n.Read = false

	if err := d.store.CreateNotification(ctx, n); err != nil {
		d.log.Error("Failed to save notification", "user_id", n.UserID, "type", n.Type, "error", err)
		return 0, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	pushed, err := d.directory.SendToUser(n.UserID, websocket.EventNotification, n, uuid.Nil)
	if err != nil {
		d.log.Error("Failed to push notification", "notification_id", n.ID, "error", err)
	}
	d.log.Debug("Notification delivered", "notification_id", n.ID, "user_id", n.UserID, "connections", pushed)
	return pushed, nil
}

// Notify собирает уведомление и доставляет его
func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, typ models.NotificationType, title, message string, data any) (*models.Notification, error) {
	n := &models.Notification{
		Type:    typ,
		Title:   title,
		Message: message,
		UserID:  userID,
	}
	if err := n.SetData(data); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidContent, err)
	}
	if _, err := d.Deliver(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// MarkRead помечает уведомление прочитанным. Повторный вызов успешен.
func (d *Dispatcher) MarkRead(ctx context.Context, id, requester uuid.UUID) (*models.Notification, error) {
	n, err := d.store.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	if !d.gate.CanReceiveNotification(requester, n) {
		return nil, apperrors.ErrForbidden
	}
	if n.Read {
		return n, nil
	}

	if err := d.store.MarkNotificationRead(ctx, id, requester); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	n.Read = true

	d.pushRead(requester, websocket.NotificationReadPayload{ID: &n.ID})
	return n, nil
}

// MarkAllRead помечает прочитанными все уведомления пользователя
func (d *Dispatcher) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := d.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	if updated > 0 {
		d.pushRead(userID, websocket.NotificationReadPayload{All: true})
	}
	return updated, nil
}

// Delete удаляет уведомление адресата и сообщает об этом его вкладкам
func (d *Dispatcher) Delete(ctx context.Context, id, requester uuid.UUID) error {
	n, err := d.store.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	if !d.gate.CanReceiveNotification(requester, n) {
		return apperrors.ErrForbidden
	}

	if err := d.store.DeleteNotification(ctx, id, requester); err != nil {
		// удалено параллельным запросом
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	payload := websocket.NotificationDeletedPayload{ID: n.ID, Unread: !n.Read}
	if _, err := d.directory.SendToUser(requester, websocket.EventNotificationDeleted, payload, uuid.Nil); err != nil {
		d.log.Warn("Failed to push notification removal", "user_id", requester, "error", err)
	}
	d.log.Debug("Notification deleted", "notification_id", id, "user_id", requester)
	return nil
}

// pushRead синхронизирует счетчик непрочитанных в других вкладках
func (d *Dispatcher) pushRead(userID uuid.UUID, payload websocket.NotificationReadPayload) {
	if _, err := d.directory.SendToUser(userID, websocket.EventNotificationRead, payload, uuid.Nil); err != nil {
		d.log.Warn("Failed to push read state", "user_id", userID, "error", err)
	}
}

func (d *Dispatcher) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationPage
	}
	if limit > MaxNotificationPage {
		limit = MaxNotificationPage
	}

	list, err := d.store.ListNotifications(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	return list, nil
}

func (d *Dispatcher) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := d.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	return count, nil
}
