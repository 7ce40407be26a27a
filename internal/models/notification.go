package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationInviteWorkspace NotificationType = "invite_workspace"
	NotificationInviteProject   NotificationType = "invite_project"
	NotificationTaskAssigned    NotificationType = "task_assigned"
	NotificationTaskCompleted   NotificationType = "task_completed"
	NotificationTaskUpdated     NotificationType = "task_updated"
	NotificationCommentAdded    NotificationType = "comment_added"
	NotificationMention         NotificationType = "mention"
	NotificationSystem          NotificationType = "system"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInviteWorkspace, NotificationInviteProject,
		NotificationTaskAssigned, NotificationTaskCompleted, NotificationTaskUpdated,
		NotificationCommentAdded, NotificationMention, NotificationSystem:
		return true
	}
	return false
}

// Notification адресовано ровно одному пользователю. После создания
// меняется только Read, и только с false на true; удалить может лишь адресат.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Type      NotificationType `gorm:"not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index:idx_notifications_user_read" json:"userId"`
	Read      bool             `gorm:"not null;default:false;index:idx_notifications_user_read" json:"read"`
	Data      datatypes.JSON   `gorm:"type:json" json:"data"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// SetData кодирует произвольный payload в колонку data
func (n *Notification) SetData(v any) error {
	if v == nil {
		n.Data = nil
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	n.Data = datatypes.JSON(raw)
	return nil
}
