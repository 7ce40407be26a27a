package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/websocket"
	"github.com/thereayou/zenlist-realtime/pkg/auth"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
)

const (
	UserIDKey   = "userID"
	IdentityKey = "identity"
	TokenKey    = "token"
)

// Identifier проверяет токен (services.Authenticator)
type Identifier interface {
	Identify(ctx context.Context, token string) (websocket.Identity, error)
}

// AuthMiddleware проверяет JWT токен из заголовка Authorization
func AuthMiddleware(identifier Identifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		authenticate(c, identifier, token)
	}
}

// WSAuthMiddleware специальный middleware для WebSocket: браузер не может
// передать заголовок, поэтому токен берется из query
func WSAuthMiddleware(identifier Identifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractWebSocketToken(c.Request)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		authenticate(c, identifier, token)
	}
}

func authenticate(c *gin.Context, identifier Identifier, token string) {
	id, err := identifier.Identify(c.Request.Context(), token)
	if err != nil {
		abortUnauthorized(c, err)
		return
	}

	c.Set(UserIDKey, id.UserID)
	c.Set(IdentityKey, id)
	c.Set(TokenKey, token)
	c.Next()
}

func abortUnauthorized(c *gin.Context, cause error) {
	apiErr := apperrors.NewAPIError(cause)
	apiErr.Code = apperrors.CodeAuthenticationRequired
	c.AbortWithStatusJSON(http.StatusUnauthorized, apiErr)
}

// CurrentUserID возвращает пользователя, установленного AuthMiddleware
func CurrentUserID(c *gin.Context) uuid.UUID {
	return c.MustGet(UserIDKey).(uuid.UUID)
}

func CurrentIdentity(c *gin.Context) websocket.Identity {
	return c.MustGet(IdentityKey).(websocket.Identity)
}
