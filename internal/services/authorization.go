package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/models"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

// Gate проверяет права по текущим ролям. Результаты не кешируются:
// изменение роли действует со следующего запроса.
type Gate struct {
	store MembershipStore
	log   logger.Logger
}

func NewGate(store MembershipStore, log logger.Logger) *Gate {
	return &Gate{store: store, log: log}
}

// CanJoinRoom true, если пользователь владелец workspace проекта, имеет
// любую роль в workspace или роль в самом проекте
func (g *Gate) CanJoinRoom(ctx context.Context, userID, projectID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}

	project, err := g.store.GetProject(ctx, projectID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if project.Workspace.OwnerID == userID {
		return true, nil
	}

	_, found, err := g.store.WorkspaceRole(ctx, userID, project.WorkspaceID)
	if err != nil {
		return false, err
	}
	if found {
		return true, nil
	}

	_, found, err = g.store.ProjectRole(ctx, userID, projectID)
	if err != nil {
		return false, err
	}
	return found, nil
}

// AuthorizeJoin то же, что CanJoinRoom, но в виде ошибки таксономии
func (g *Gate) AuthorizeJoin(ctx context.Context, userID, projectID uuid.UUID) error {
	if userID == uuid.Nil {
		return apperrors.ErrAuthenticationRequired
	}

	ok, err := g.CanJoinRoom(ctx, userID, projectID)
	if err != nil {
		g.log.Error("Membership lookup failed", "user_id", userID, "project_id", projectID, "error", err)
		return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	if !ok {
		return fmt.Errorf("%w: no access to project %s", apperrors.ErrForbidden, projectID)
	}
	return nil
}

// CanReceiveNotification уведомление видит только его адресат
func (g *Gate) CanReceiveNotification(userID uuid.UUID, n *models.Notification) bool {
	return n != nil && userID != uuid.Nil && n.UserID == userID
}

// CanManageWorkspace владелец или ADMIN workspace
func (g *Gate) CanManageWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) (bool, error) {
	ws, err := g.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return false, err
	}
	if ws.OwnerID == userID {
		return true, nil
	}

	role, found, err := g.store.WorkspaceRole(ctx, userID, workspaceID)
	if err != nil {
		return false, err
	}
	return found && role == models.RoleAdmin, nil
}

// CanManageProject управляющий workspace или ADMIN проекта
func (g *Gate) CanManageProject(ctx context.Context, userID, projectID uuid.UUID) (bool, error) {
	project, err := g.store.GetProject(ctx, projectID)
	if err != nil {
		return false, err
	}

	ok, err := g.CanManageWorkspace(ctx, userID, project.WorkspaceID)
	if err != nil || ok {
		return ok, err
	}

	role, found, err := g.store.ProjectRole(ctx, userID, projectID)
	if err != nil {
		return false, err
	}
	return found && role == models.RoleAdmin, nil
}
