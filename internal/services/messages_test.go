package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/zenlist-realtime/internal/models"
	"github.com/thereayou/zenlist-realtime/internal/websocket"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

type routerFixture struct {
	store   *memStore
	hub     *websocket.Hub
	router  *MessageRouter
	project *models.Project
	ann     *models.User
	bob     *models.User
	annConn *websocket.Client
	bobConn *websocket.Client
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	store := newMemStore()
	hub := newTestHub()
	ann := store.addUser("ann")
	bob := store.addUser("bob")
	project := store.addProject(ann.ID)
	store.setWorkspaceRole(bob.ID, project.WorkspaceID, models.RoleMember)

	gate := NewGate(store, logger.NewNop())
	f := &routerFixture{
		store:   store,
		hub:     hub,
		router:  NewMessageRouter(gate, store, store, hub, logger.NewNop()),
		project: project,
		ann:     ann,
		bob:     bob,
		annConn: connect(t, hub, ann),
		bobConn: connect(t, hub, bob),
	}
	for _, c := range []*websocket.Client{f.annConn, f.bobConn} {
		_, err := hub.Join(c, project.ID)
		require.NoError(t, err)
	}
	drain(t, f.annConn)
	drain(t, f.bobConn)
	return f
}

func TestSendBroadcastsPersistedMessage(t *testing.T) {
	f := newRouterFixture(t)
	atts := []models.Attachment{{Name: "spec.pdf", URL: "https://cdn.example.com/chat/1-spec.pdf", Type: "application/pdf"}}

	msg, err := f.router.Send(context.Background(), f.annConn.ID, f.project.ID, "hello", atts)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.saveMessageCalls)

	got := only(drain(t, f.bobConn), websocket.EventMessage)
	require.Len(t, got, 1)

	var received ChatMessage
	require.NoError(t, json.Unmarshal(got[0].Data, &received))
	assert.Equal(t, msg.ID, received.ID)
	assert.Equal(t, "hello", received.Content)
	assert.Equal(t, f.ann.ID, received.UserID)
	assert.Equal(t, f.project.ID, received.ProjectID)
	assert.Equal(t, models.PublicUser{ID: f.ann.ID, Name: "ann", Email: "ann@example.com"}, received.User)
	assert.Equal(t, atts, received.Attachments)

	// the sending connection is excluded
	assert.Empty(t, only(drain(t, f.annConn), websocket.EventMessage))
}

func TestSendRejectsBlankContent(t *testing.T) {
	f := newRouterFixture(t)

	_, err := f.router.Send(context.Background(), f.annConn.ID, f.project.ID, "   ", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidContent)
	assert.Equal(t, 0, f.store.saveMessageCalls)
	assert.Empty(t, drain(t, f.bobConn))
}

func TestValidateContent(t *testing.T) {
	tooMany := make([]models.Attachment, MaxAttachments+1)
	for i := range tooMany {
		tooMany[i] = models.Attachment{Name: "f", URL: "https://x/f"}
	}

	tests := []struct {
		name        string
		content     string
		attachments []models.Attachment
		wantErr     bool
	}{
		{"plain", "hi", nil, false},
		{"untrimmed is kept", "  hi  ", nil, false},
		{"empty", "", nil, true},
		{"newlines only", "\n\t", nil, true},
		{"attachment ok", "see", []models.Attachment{{Name: "a.png", URL: "http://cdn/a.png"}}, false},
		{"attachment without name", "see", []models.Attachment{{URL: "https://cdn/a.png"}}, true},
		{"attachment without url", "see", []models.Attachment{{Name: "a.png"}}, true},
		{"attachment relative url", "see", []models.Attachment{{Name: "a.png", URL: "/a.png"}}, true},
		{"attachment bad scheme", "see", []models.Attachment{{Name: "a.png", URL: "javascript:alert(1)"}}, true},
		{"too many attachments", "see", tooMany, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent(tt.content, tt.attachments)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidContent)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSendRequiresBoundConnection(t *testing.T) {
	f := newRouterFixture(t)
	anon := f.hub.Connect(nil)

	_, err := f.router.Send(context.Background(), anon.ID, f.project.ID, "hi", nil)
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)

	_, err = f.router.Send(context.Background(), uuid.New(), f.project.ID, "hi", nil)
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)
}

func TestSendRequiresRoomMembership(t *testing.T) {
	f := newRouterFixture(t)
	other := f.store.addProject(f.ann.ID)

	_, err := f.router.Send(context.Background(), f.annConn.ID, other.ID, "hi", nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, 0, f.store.saveMessageCalls)
}

func TestSendAfterRevocationEvicts(t *testing.T) {
	f := newRouterFixture(t)
	f.store.setWorkspaceRole(f.bob.ID, f.project.WorkspaceID, "")

	_, err := f.router.Send(context.Background(), f.bobConn.ID, f.project.ID, "still here?", nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, 0, f.store.saveMessageCalls)
	assert.False(t, f.hub.IsMember(f.bobConn.ID, f.project.ID))
	assert.Len(t, only(drain(t, f.bobConn), websocket.EventLeft), 1)
	assert.Empty(t, only(drain(t, f.annConn), websocket.EventMessage))
}

func TestSendPersistenceFailureDoesNotBroadcast(t *testing.T) {
	f := newRouterFixture(t)
	f.store.saveMessageErr = errors.New("db down")

	_, err := f.router.Send(context.Background(), f.annConn.ID, f.project.ID, "hello", nil)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.Contains(t, err.Error(), "db down")
	assert.Empty(t, drain(t, f.bobConn))

	// membership survives the failure
	assert.True(t, f.hub.IsMember(f.annConn.ID, f.project.ID))
	assert.True(t, f.hub.IsMember(f.bobConn.ID, f.project.ID))
}

func TestSendAsExcludesSocket(t *testing.T) {
	f := newRouterFixture(t)
	annTab2 := connect(t, f.hub, f.ann)
	_, err := f.hub.Join(annTab2, f.project.ID)
	require.NoError(t, err)
	drain(t, f.bobConn)

	msg, err := f.router.SendAs(context.Background(), f.ann.ID, f.project.ID, "from http", nil, f.annConn.ID)
	require.NoError(t, err)
	assert.Nil(t, msg.Attachments)

	assert.Empty(t, only(drain(t, f.annConn), websocket.EventMessage))
	assert.Len(t, only(drain(t, annTab2), websocket.EventMessage), 1)
	assert.Len(t, only(drain(t, f.bobConn), websocket.EventMessage), 1)

	stranger := f.store.addUser("eve")
	_, err = f.router.SendAs(context.Background(), stranger.ID, f.project.ID, "hi", nil, uuid.Nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSendAsIgnoresForeignSocket(t *testing.T) {
	f := newRouterFixture(t)

	// ann cannot mute bob by passing bob's socket id
	_, err := f.router.SendAs(context.Background(), f.ann.ID, f.project.ID, "hi bob", nil, f.bobConn.ID)
	require.NoError(t, err)
	assert.Len(t, only(drain(t, f.bobConn), websocket.EventMessage), 1)
	assert.Len(t, only(drain(t, f.annConn), websocket.EventMessage), 1)

	// unknown socket id is ignored as well
	_, err = f.router.SendAs(context.Background(), f.ann.ID, f.project.ID, "again", nil, uuid.New())
	require.NoError(t, err)
	assert.Len(t, only(drain(t, f.bobConn), websocket.EventMessage), 1)
	assert.Len(t, only(drain(t, f.annConn), websocket.EventMessage), 1)
}

func TestLeftConnectionReceivesNothing(t *testing.T) {
	f := newRouterFixture(t)
	f.hub.Leave(f.bobConn, f.project.ID)
	drain(t, f.bobConn)

	_, err := f.router.Send(context.Background(), f.annConn.ID, f.project.ID, "hello", nil)
	require.NoError(t, err)
	assert.Empty(t, drain(t, f.bobConn))
}

type stubLimiter struct {
	allow bool
	err   error
}

func (s stubLimiter) Allow(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.allow, s.err
}

func TestSendRateLimited(t *testing.T) {
	f := newRouterFixture(t)

	f.router.WithLimiter(stubLimiter{allow: false})
	_, err := f.router.Send(context.Background(), f.annConn.ID, f.project.ID, "spam", nil)
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)
	assert.Equal(t, 0, f.store.saveMessageCalls)

	// a broken limiter does not block chat
	f.router.WithLimiter(stubLimiter{err: errors.New("redis down")})
	_, err = f.router.Send(context.Background(), f.annConn.ID, f.project.ID, "ok", nil)
	assert.NoError(t, err)
}

func TestHistory(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		_, err := f.router.Send(ctx, f.annConn.ID, f.project.ID, text, nil)
		require.NoError(t, err)
	}

	page, err := f.router.History(ctx, f.bob.ID, f.project.ID, 0, nil)
	require.NoError(t, err)
	require.Len(t, page.Messages, 3)
	assert.False(t, page.HasMore)
	assert.Equal(t, "one", page.Messages[0].Content)
	assert.Equal(t, "ann", page.Messages[0].User.Name)

	page, err = f.router.History(ctx, f.bob.ID, f.project.ID, 2, nil)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "two", page.Messages[0].Content)

	cursor := page.Messages[0].ID
	page, err = f.router.History(ctx, f.bob.ID, f.project.ID, 2, &cursor)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "one", page.Messages[0].Content)

	_, err = f.router.History(ctx, uuid.New(), f.project.ID, 10, nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestHistoryUnknownCursor(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()
	_, err := f.router.Send(ctx, f.annConn.ID, f.project.ID, "one", nil)
	require.NoError(t, err)

	missing := uuid.New()
	_, err = f.router.History(ctx, f.bob.ID, f.project.ID, 10, &missing)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NotErrorIs(t, err, apperrors.ErrPersistence)
}

func TestHistoryHasMoreCountsSkippedRows(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		_, err := f.router.Send(ctx, f.annConn.ID, f.project.ID, text, nil)
		require.NoError(t, err)
	}
	f.store.mu.Lock()
	f.store.messages[2].Attachments = []byte("{broken")
	f.store.mu.Unlock()

	page, err := f.router.History(ctx, f.bob.ID, f.project.ID, 2, nil)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "two", page.Messages[0].Content)
	assert.True(t, page.HasMore)
}
