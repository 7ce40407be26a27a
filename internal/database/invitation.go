package database

import (
	"context"
	"time"

	"github.com/thereayou/zenlist-realtime/internal/models"
)

func (d *Database) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	return d.db.WithContext(ctx).Create(inv).Error
}

func (d *Database) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := d.db.WithContext(ctx).First(&inv, "token = ?", token).Error; err != nil {
		return nil, translate(err, "invitation")
	}
	return &inv, nil
}

func (d *Database) MarkInvitationAccepted(ctx context.Context, inv *models.Invitation) error {
	now := time.Now()
	inv.Status = models.InvitationAccepted
	inv.AcceptedAt = &now
	return d.db.WithContext(ctx).Model(inv).Updates(map[string]any{
		"status":      inv.Status,
		"accepted_at": inv.AcceptedAt,
	}).Error
}
