package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/zenlist-realtime/internal/middleware"
	"github.com/thereayou/zenlist-realtime/internal/websocket"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func envelope(t *testing.T, event websocket.EventType, payload any) *websocket.Envelope {
	t.Helper()
	raw, err := websocket.Encode(event, payload)
	require.NoError(t, err)

	var env websocket.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return &env
}

func TestSocketEventsRejectsMalformedEvents(t *testing.T) {
	hub := websocket.NewHub(websocket.Options{}, logger.NewNop())
	events := NewSocketEvents(nil, hub, nil, nil, logger.NewNop())
	client := hub.Connect(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		env  *websocket.Envelope
		want error
	}{
		{
			name: "unknown event",
			env:  envelope(t, "project:delete", websocket.ProjectPayload{ProjectID: uuid.New()}),
			want: websocket.ErrUnknownEvent,
		},
		{
			name: "join without project",
			env:  envelope(t, websocket.EventJoin, map[string]string{}),
			want: websocket.ErrInvalidMessage,
		},
		{
			name: "join with garbage data",
			env:  &websocket.Envelope{Event: websocket.EventJoin, Data: json.RawMessage(`"nope"`)},
			want: apperrors.ErrInvalidContent,
		},
		{
			name: "typing without project",
			env:  envelope(t, websocket.EventTyping, websocket.TypingPayload{IsTyping: true}),
			want: websocket.ErrInvalidMessage,
		},
		{
			name: "message without project",
			env:  envelope(t, websocket.EventMessage, websocket.SendMessagePayload{Content: "hi"}),
			want: websocket.ErrInvalidMessage,
		},
		{
			name: "read before authentication",
			env:  envelope(t, websocket.EventNotificationRead, websocket.NotificationReadPayload{All: true}),
			want: apperrors.ErrAuthenticationRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := events.HandleEvent(ctx, client, tt.env)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	hub := websocket.NewHub(websocket.Options{}, logger.NewNop())
	events := NewSocketEvents(nil, hub, nil, nil, logger.NewNop())
	client := hub.Connect(nil)
	require.NoError(t, hub.Bind(client.ID, websocket.Identity{UserID: uuid.New(), Name: "ann"}))

	projectID := uuid.New()
	require.NoError(t, events.HandleEvent(context.Background(), client, envelope(t, websocket.EventLeave, websocket.ProjectPayload{ProjectID: projectID})))

	data := <-client.Send
	var env websocket.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, websocket.EventLeft, env.Event)
}

func TestUUIDParam(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ErrorHandler(logger.NewNop()))
	r.GET("/projects/:id", func(c *gin.Context) {
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		c.String(http.StatusOK, id.String())
	})

	id := uuid.New()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/"+id.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeInvalidContent)
}

func TestCheckOrigin(t *testing.T) {
	hub := websocket.NewHub(websocket.Options{}, logger.NewNop())

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no list allows all", origin: "https://evil.example", want: true},
		{name: "listed origin", allowed: []string{"https://app.zenlist.io"}, origin: "https://app.zenlist.io", want: true},
		{name: "unlisted origin", allowed: []string{"https://app.zenlist.io"}, origin: "https://evil.example", want: false},
		{name: "non-browser client", allowed: []string{"https://app.zenlist.io"}, origin: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWebSocketHandler(hub, nil, tt.allowed, logger.NewNop())
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, h.upgrader.CheckOrigin(req))
		})
	}
}
