package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/models"
)

func (d *Database) SaveMessage(ctx context.Context, message *models.ProjectMessage) error {
	return d.db.WithContext(ctx).Omit("User").Create(message).Error
}

// GetProjectMessages возвращает до limit сообщений старше beforeID (если задан),
// от старых к новым, вместе с авторами. beforeID из чужого проекта или
// несуществующий дает ErrNotFound.
func (d *Database) GetProjectMessages(ctx context.Context, projectID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.ProjectMessage, error) {
	var messages []models.ProjectMessage

	db := d.db.WithContext(ctx)
	query := db.Where("project_id = ?", projectID)

	if beforeID != nil {
		var beforeMsg models.ProjectMessage
		if err := db.First(&beforeMsg, "id = ? AND project_id = ?", *beforeID, projectID).Error; err != nil {
			return nil, translate(err, "message")
		}
		query = query.Where("created_at < ?", beforeMsg.CreatedAt)
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Preload("User").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
