package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thereayou/zenlist-realtime/internal/models"
)

func (d *Database) CreateWorkspace(ctx context.Context, ws *models.Workspace) error {
	return d.db.WithContext(ctx).Create(ws).Error
}

func (d *Database) CreateProject(ctx context.Context, project *models.Project) error {
	return d.db.WithContext(ctx).Omit("Workspace").Create(project).Error
}

func (d *Database) GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	var ws models.Workspace
	if err := d.db.WithContext(ctx).First(&ws, "id = ?", id).Error; err != nil {
		return nil, translate(err, "workspace")
	}
	return &ws, nil
}

// GetProject загружает проект вместе с его workspace
func (d *Database) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := d.db.WithContext(ctx).Preload("Workspace").First(&project, "id = ?", id).Error; err != nil {
		return nil, translate(err, "project")
	}
	return &project, nil
}

func (d *Database) WorkspaceRole(ctx context.Context, userID, workspaceID uuid.UUID) (models.Role, bool, error) {
	var member models.WorkspaceMember
	err := d.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error
	return roleResult(member.Role, err)
}

func (d *Database) ProjectRole(ctx context.Context, userID, projectID uuid.UUID) (models.Role, bool, error) {
	var member models.ProjectMember
	err := d.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	return roleResult(member.Role, err)
}

func roleResult(role models.Role, err error) (models.Role, bool, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return role, true, nil
}

// UpsertWorkspaceMember выставляет роль, создавая членство при необходимости
func (d *Database) UpsertWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID, role models.Role) error {
	member := models.WorkspaceMember{WorkspaceID: workspaceID, UserID: userID, Role: role, JoinedAt: time.Now()}
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&member).Error
}

func (d *Database) UpsertProjectMember(ctx context.Context, projectID, userID uuid.UUID, role models.Role) error {
	member := models.ProjectMember{ProjectID: projectID, UserID: userID, Role: role, JoinedAt: time.Now()}
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&member).Error
}

func (d *Database) RemoveWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	return d.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&models.WorkspaceMember{}).Error
}

func (d *Database) RemoveProjectMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return d.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}
