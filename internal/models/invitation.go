package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
)

type Invitation struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string           `gorm:"not null;index" json:"email"`
	Role            Role             `gorm:"not null" json:"role"`
	Token           string           `gorm:"uniqueIndex;not null" json:"-"`
	WorkspaceID     uuid.UUID        `gorm:"type:uuid;not null" json:"workspaceId"`
	ProjectID       *uuid.UUID       `gorm:"type:uuid" json:"projectId,omitempty"`
	InvitedByUserID uuid.UUID        `gorm:"type:uuid;not null" json:"invitedByUserId"`
	Status          InvitationStatus `gorm:"not null;default:'PENDING'" json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	AcceptedAt      *time.Time       `json:"acceptedAt,omitempty"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
