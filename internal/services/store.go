package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/models"
	"github.com/thereayou/zenlist-realtime/internal/websocket"
)

// Хранилища, от которых зависят сервисы. *database.Database реализует их все.

type UserStore interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastSeen(ctx context.Context, id uuid.UUID) error
}

type MembershipStore interface {
	GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	WorkspaceRole(ctx context.Context, userID, workspaceID uuid.UUID) (models.Role, bool, error)
	ProjectRole(ctx context.Context, userID, projectID uuid.UUID) (models.Role, bool, error)
	UpsertWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID, role models.Role) error
	UpsertProjectMember(ctx context.Context, projectID, userID uuid.UUID, role models.Role) error
}

type MessageStore interface {
	SaveMessage(ctx context.Context, message *models.ProjectMessage) error
	GetProjectMessages(ctx context.Context, projectID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.ProjectMessage, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteNotification(ctx context.Context, id, userID uuid.UUID) error
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error)
}

type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
	MarkInvitationAccepted(ctx context.Context, inv *models.Invitation) error
}

// Rooms часть Hub, нужная маршрутизатору сообщений
type Rooms interface {
	UserFor(connID uuid.UUID) (uuid.UUID, bool)
	IsMember(connID, projectID uuid.UUID) bool
	Broadcast(projectID uuid.UUID, event websocket.EventType, payload any, exclude uuid.UUID) (int, error)
	Evict(connID, projectID uuid.UUID) bool
}

// ConnectionDirectory доставка событий во все соединения пользователя
type ConnectionDirectory interface {
	SendToUser(userID uuid.UUID, event websocket.EventType, payload any, exclude uuid.UUID) (int, error)
}
