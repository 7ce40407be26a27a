package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/zenlist-realtime/internal/websocket"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

type stubIdentifier map[string]websocket.Identity

func (s stubIdentifier) Identify(ctx context.Context, token string) (websocket.Identity, error) {
	id, ok := s[token]
	if !ok {
		return websocket.Identity{}, apperrors.ErrAuthenticationRequired
	}
	return id, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware(t *testing.T) {
	user := uuid.New()
	ids := stubIdentifier{"good": {UserID: user, Name: "ann"}}

	r := gin.New()
	r.GET("/me", AuthMiddleware(ids), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c).String())
	})
	r.GET("/ws", WSAuthMiddleware(ids), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentIdentity(c).Name)
	})

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"bearer ok", "/me", "Bearer good", http.StatusOK, user.String()},
		{"missing header", "/me", "", http.StatusUnauthorized, ""},
		{"bad token", "/me", "Bearer bad", http.StatusUnauthorized, ""},
		{"query ignored for http", "/me?token=good", "", http.StatusUnauthorized, ""},
		{"ws query token", "/ws?token=good", "", http.StatusOK, "ann"},
		{"ws header token", "/ws", "Bearer good", http.StatusOK, "ann"},
		{"ws missing", "/ws", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, w.Body.String())
				return
			}
			var body apperrors.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, apperrors.CodeAuthenticationRequired, body.Code)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(logger.NewNop()))
	r.GET("/forbidden", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("%w: no access", apperrors.ErrForbidden))
	})
	r.GET("/broken", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})
	r.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forbidden", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"forbidden: no access","code":"Forbidden"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"boom","code":"Internal"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
