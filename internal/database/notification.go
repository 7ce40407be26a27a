package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/models"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
)

func (d *Database) CreateNotification(ctx context.Context, n *models.Notification) error {
	return d.db.WithContext(ctx).Create(n).Error
}

func (d *Database) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	if err := d.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, translate(err, "notification")
	}
	return &n, nil
}

// ListNotifications возвращает уведомления пользователя, новые сначала
func (d *Database) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	var out []models.Notification
	query := d.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// MarkNotificationRead помечает уведомление прочитанным только у адресата
func (d *Database) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	return d.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true).Error
}

// DeleteNotification удаляет уведомление адресата. Чужое или несуществующее
// дает ErrNotFound.
func (d *Database) DeleteNotification(ctx context.Context, id, userID uuid.UUID) error {
	res := d.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (d *Database) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := d.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (d *Database) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}
