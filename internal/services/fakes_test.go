package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/zenlist-realtime/internal/models"
	"github.com/thereayou/zenlist-realtime/internal/websocket"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

// memStore is an in-memory implementation of every store interface.
type memStore struct {
	mu sync.Mutex

	users         map[uuid.UUID]*models.User
	workspaces    map[uuid.UUID]*models.Workspace
	projects      map[uuid.UUID]*models.Project
	wsRoles       map[[2]uuid.UUID]models.Role
	projectRoles  map[[2]uuid.UUID]models.Role
	messages      []models.ProjectMessage
	notifications map[uuid.UUID]*models.Notification
	invitations   map[string]*models.Invitation

	saveMessageCalls int
	saveMessageErr   error
	roleErr          error
	notificationErr  error
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[uuid.UUID]*models.User),
		workspaces:    make(map[uuid.UUID]*models.Workspace),
		projects:      make(map[uuid.UUID]*models.Project),
		wsRoles:       make(map[[2]uuid.UUID]models.Role),
		projectRoles:  make(map[[2]uuid.UUID]models.Role),
		notifications: make(map[uuid.UUID]*models.Notification),
		invitations:   make(map[string]*models.Invitation),
	}
}

func (s *memStore) addUser(name string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: uuid.New(), Name: name, Email: name + "@example.com"}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addProject(owner uuid.UUID) *models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws := &models.Workspace{ID: uuid.New(), Name: "Acme", OwnerID: owner}
	s.workspaces[ws.ID] = ws
	p := &models.Project{ID: uuid.New(), Name: "Launch", WorkspaceID: ws.ID, Workspace: *ws}
	s.projects[p.ID] = p
	return p
}

func (s *memStore) setWorkspaceRole(userID, workspaceID uuid.UUID, role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if role == "" {
		delete(s.wsRoles, [2]uuid.UUID{userID, workspaceID})
		return
	}
	s.wsRoles[[2]uuid.UUID{userID, workspaceID}] = role
}

func (s *memStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = user
	return nil
}

func (s *memStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (s *memStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *memStore) UpdateLastSeen(ctx context.Context, id uuid.UUID) error { return nil }

func (s *memStore) GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ws, nil
}

func (s *memStore) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roleErr != nil {
		return nil, s.roleErr
	}
	p, ok := s.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (s *memStore) WorkspaceRole(ctx context.Context, userID, workspaceID uuid.UUID) (models.Role, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.wsRoles[[2]uuid.UUID{userID, workspaceID}]
	return role, ok, nil
}

func (s *memStore) ProjectRole(ctx context.Context, userID, projectID uuid.UUID) (models.Role, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.projectRoles[[2]uuid.UUID{userID, projectID}]
	return role, ok, nil
}

func (s *memStore) UpsertWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID, role models.Role) error {
	s.setWorkspaceRole(userID, workspaceID, role)
	return nil
}

func (s *memStore) UpsertProjectMember(ctx context.Context, projectID, userID uuid.UUID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectRoles[[2]uuid.UUID{userID, projectID}] = role
	return nil
}

func (s *memStore) RemoveWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	s.setWorkspaceRole(userID, workspaceID, "")
	return nil
}

func (s *memStore) RemoveProjectMember(ctx context.Context, projectID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projectRoles, [2]uuid.UUID{userID, projectID})
	return nil
}

func (s *memStore) SaveMessage(ctx context.Context, m *models.ProjectMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveMessageCalls++
	if s.saveMessageErr != nil {
		return s.saveMessageErr
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	stored := *m
	stored.User = *s.users[m.UserID]
	s.messages = append(s.messages, stored)
	return nil
}

func (s *memStore) GetProjectMessages(ctx context.Context, projectID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.ProjectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProjectMessage
	for _, m := range s.messages {
		if m.ProjectID != projectID {
			continue
		}
		if beforeID != nil && m.ID == *beforeID {
			break
		}
		out = append(out, m)
	}
	if beforeID != nil && len(out) == countProjectMessages(s.messages, projectID) {
		return nil, apperrors.ErrNotFound
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func countProjectMessages(messages []models.ProjectMessage, projectID uuid.UUID) int {
	n := 0
	for _, m := range messages {
		if m.ProjectID == projectID {
			n++
		}
	}
	return n
}

func (s *memStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notificationErr != nil {
		return s.notificationErr
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *memStore) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *memStore) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.notifications[id]; ok && n.UserID == userID {
		n.Read = true
	}
	return nil
}

func (s *memStore) DeleteNotification(ctx context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return apperrors.ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}

func (s *memStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, item := range s.notifications {
		if item.UserID == userID && !item.Read {
			item.Read = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, item := range s.notifications {
		if item.UserID == userID && !item.Read {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	cp := *inv
	s.invitations[inv.Token] = &cp
	return nil
}

func (s *memStore) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[token]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *memStore) MarkInvitationAccepted(ctx context.Context, inv *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	inv.Status = models.InvitationAccepted
	inv.AcceptedAt = &now
	cp := *inv
	s.invitations[inv.Token] = &cp
	return nil
}

func newTestHub() *websocket.Hub {
	return websocket.NewHub(websocket.Options{SendBuffer: 32}, logger.NewNop())
}

func connect(t *testing.T, hub *websocket.Hub, user *models.User) *websocket.Client {
	t.Helper()
	c := hub.Connect(nil)
	require.NoError(t, hub.Bind(c.ID, websocket.Identity{UserID: user.ID, Name: user.Name, Email: user.Email}))
	return c
}

func drain(t *testing.T, c *websocket.Client) []websocket.Envelope {
	t.Helper()
	var out []websocket.Envelope
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			var env websocket.Envelope
			require.NoError(t, json.Unmarshal(data, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func only(envs []websocket.Envelope, event websocket.EventType) []websocket.Envelope {
	var out []websocket.Envelope
	for _, e := range envs {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
