package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

type MemberRemover interface {
	RemoveWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) error
	RemoveProjectMember(ctx context.Context, projectID, userID uuid.UUID) error
}

// LiveRooms живые соединения пользователя и их комнаты (Hub)
type LiveRooms interface {
	ConnectionsFor(userID uuid.UUID) []uuid.UUID
	ProjectsOf(connID uuid.UUID) []uuid.UUID
	Evict(connID, projectID uuid.UUID) bool
}

// MemberService снимает роли и сразу выводит соединения из комнат,
// доступ к которым пропал
type MemberService struct {
	store MemberRemover
	gate  *Gate
	rooms LiveRooms
	log   logger.Logger
}

func NewMemberService(store MemberRemover, gate *Gate, rooms LiveRooms, log logger.Logger) *MemberService {
	return &MemberService{store: store, gate: gate, rooms: rooms, log: log}
}

// RemoveFromWorkspace возвращает число соединений, выведенных из комнат
func (s *MemberService) RemoveFromWorkspace(ctx context.Context, actor, workspaceID, userID uuid.UUID) (int, error) {
	ok, err := s.gate.CanManageWorkspace(ctx, actor, workspaceID)
	if err != nil {
		return 0, lookupError(err)
	}
	if !ok {
		return 0, apperrors.ErrForbidden
	}

	if err := s.store.RemoveWorkspaceMember(ctx, workspaceID, userID); err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	s.log.Info("Workspace member removed", "workspace_id", workspaceID, "user_id", userID, "by", actor)

	return s.revalidate(ctx, userID), nil
}

func (s *MemberService) RemoveFromProject(ctx context.Context, actor, projectID, userID uuid.UUID) (int, error) {
	ok, err := s.gate.CanManageProject(ctx, actor, projectID)
	if err != nil {
		return 0, lookupError(err)
	}
	if !ok {
		return 0, apperrors.ErrForbidden
	}

	if err := s.store.RemoveProjectMember(ctx, projectID, userID); err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	s.log.Info("Project member removed", "project_id", projectID, "user_id", userID, "by", actor)

	return s.revalidate(ctx, userID), nil
}

// revalidate перепроверяет каждую комнату, где сидит пользователь. Если
// проверка не удалась, соединение остается: отправка все равно
// перепроверит права.
func (s *MemberService) revalidate(ctx context.Context, userID uuid.UUID) int {
	allowed := make(map[uuid.UUID]bool)
	evicted := 0

	for _, connID := range s.rooms.ConnectionsFor(userID) {
		for _, projectID := range s.rooms.ProjectsOf(connID) {
			ok, seen := allowed[projectID]
			if !seen {
				can, err := s.gate.CanJoinRoom(ctx, userID, projectID)
				if err != nil {
					s.log.Warn("Membership recheck failed", "user_id", userID, "project_id", projectID, "error", err)
					can = true
				}
				allowed[projectID] = can
				ok = can
			}
			if !ok && s.rooms.Evict(connID, projectID) {
				evicted++
			}
		}
	}

	if evicted > 0 {
		s.log.Info("Evicted connections after membership change", "user_id", userID, "connections", evicted)
	}
	return evicted
}
