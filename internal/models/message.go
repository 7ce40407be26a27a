package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Attachment ссылка на файл, уже загруженный через pre-signed POST
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

type ProjectMessage struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_project_messages_created"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null"`
	Content     string         `gorm:"type:text;not null"`
	Attachments datatypes.JSON `gorm:"type:json"`
	CreatedAt   time.Time      `gorm:"index:idx_project_messages_created"`

	User User `gorm:"foreignKey:UserID"`
}

func (m *ProjectMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// SetAttachments сохраняет список как JSON, пустой как NULL
func (m *ProjectMessage) SetAttachments(attachments []Attachment) error {
	if len(attachments) == 0 {
		m.Attachments = nil
		return nil
	}
	raw, err := json.Marshal(attachments)
	if err != nil {
		return err
	}
	m.Attachments = datatypes.JSON(raw)
	return nil
}

func (m *ProjectMessage) AttachmentList() ([]Attachment, error) {
	if len(m.Attachments) == 0 || string(m.Attachments) == "null" {
		return nil, nil
	}
	var out []Attachment
	if err := json.Unmarshal(m.Attachments, &out); err != nil {
		return nil, err
	}
	return out, nil
}
