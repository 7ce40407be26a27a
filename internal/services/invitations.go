package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/models"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

// InvitationService приглашения в workspace и проекты
type InvitationService struct {
	invitations InvitationStore
	members     MembershipStore
	users       UserStore
	gate        *Gate
	notifier    *Dispatcher
	log         logger.Logger
}

func NewInvitationService(invitations InvitationStore, members MembershipStore, users UserStore, gate *Gate, notifier *Dispatcher, log logger.Logger) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		members:     members,
		users:       users,
		gate:        gate,
		notifier:    notifier,
		log:         log,
	}
}

func normalizeInvite(email string, role models.Role) (string, models.Role, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", "", fmt.Errorf("%w: invalid email", apperrors.ErrInvalidContent)
	}
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return "", "", fmt.Errorf("%w: invalid role %q", apperrors.ErrInvalidContent, role)
	}
	return email, role, nil
}

// InviteToWorkspace создает приглашение; если адресат уже зарегистрирован,
// он получает уведомление invite_workspace
func (s *InvitationService) InviteToWorkspace(ctx context.Context, inviter, workspaceID uuid.UUID, email string, role models.Role) (*models.Invitation, error) {
	email, role, err := normalizeInvite(email, role)
	if err != nil {
		return nil, err
	}

	ok, err := s.gate.CanManageWorkspace(ctx, inviter, workspaceID)
	if err != nil {
		return nil, lookupError(err)
	}
	if !ok {
		return nil, apperrors.ErrForbidden
	}

	ws, err := s.members.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, lookupError(err)
	}

	inv := &models.Invitation{
		Email:           email,
		Role:            role,
		Token:           newInvitationToken(),
		WorkspaceID:     workspaceID,
		InvitedByUserID: inviter,
		Status:          models.InvitationPending,
	}
	if err := s.invitations.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	s.notifyInvitee(ctx, inv, models.NotificationInviteWorkspace,
		"Workspace invitation",
		fmt.Sprintf("%s invited you to join %s", s.inviterName(ctx, inviter), ws.Name),
		map[string]any{"token": inv.Token, "workspaceId": workspaceID, "role": role})

	return inv, nil
}

// InviteToProject то же для проекта; приглашение ссылается и на workspace
func (s *InvitationService) InviteToProject(ctx context.Context, inviter, projectID uuid.UUID, email string, role models.Role) (*models.Invitation, error) {
	email, role, err := normalizeInvite(email, role)
	if err != nil {
		return nil, err
	}

	ok, err := s.gate.CanManageProject(ctx, inviter, projectID)
	if err != nil {
		return nil, lookupError(err)
	}
	if !ok {
		return nil, apperrors.ErrForbidden
	}

	project, err := s.members.GetProject(ctx, projectID)
	if err != nil {
		return nil, lookupError(err)
	}

	pid := projectID
	inv := &models.Invitation{
		Email:           email,
		Role:            role,
		Token:           newInvitationToken(),
		WorkspaceID:     project.WorkspaceID,
		ProjectID:       &pid,
		InvitedByUserID: inviter,
		Status:          models.InvitationPending,
	}
	if err := s.invitations.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	s.notifyInvitee(ctx, inv, models.NotificationInviteProject,
		"Project invitation",
		fmt.Sprintf("%s invited you to join %s", s.inviterName(ctx, inviter), project.Name),
		map[string]any{"token": inv.Token, "projectId": projectID, "role": role})

	return inv, nil
}

// Accept принимает приглашение от имени userID. Роль начинает действовать
// сразу: следующий join проходит проверку.
func (s *InvitationService) Accept(ctx context.Context, token string, userID uuid.UUID) (*models.Invitation, error) {
	inv, err := s.invitations.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, lookupError(err)
	}
	if inv.Status != models.InvitationPending {
		return nil, fmt.Errorf("%w: invitation already accepted", apperrors.ErrConflict)
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrAuthenticationRequired
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	if !strings.EqualFold(user.Email, inv.Email) {
		return nil, fmt.Errorf("%w: invitation is addressed to another email", apperrors.ErrForbidden)
	}

	if inv.ProjectID != nil {
		err = s.members.UpsertProjectMember(ctx, *inv.ProjectID, userID, inv.Role)
	} else {
		err = s.members.UpsertWorkspaceMember(ctx, inv.WorkspaceID, userID, inv.Role)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	if err := s.invitations.MarkInvitationAccepted(ctx, inv); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	s.log.Info("Invitation accepted", "invitation_id", inv.ID, "user_id", userID)
	return inv, nil
}

func (s *InvitationService) notifyInvitee(ctx context.Context, inv *models.Invitation, typ models.NotificationType, title, message string, data map[string]any) {
	invitee, err := s.users.FindUserByEmail(ctx, inv.Email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.Warn("Failed to look up invitee", "email", inv.Email, "error", err)
		}
		return
	}

	if _, err := s.notifier.Notify(ctx, invitee.ID, typ, title, message, data); err != nil {
		s.log.Warn("Failed to notify invitee", "invitation_id", inv.ID, "error", err)
	}
}

func (s *InvitationService) inviterName(ctx context.Context, id uuid.UUID) string {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return "Someone"
	}
	return user.Name
}

func newInvitationToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// lookupError не трогает ErrNotFound, остальное считает сбоем хранилища
func lookupError(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
}
