package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/middleware"
	"github.com/thereayou/zenlist-realtime/internal/services"
)

type UserHandler struct {
	users services.UserStore
	hub   ConnectionCounter
}

// ConnectionCounter число живых соединений пользователя
type ConnectionCounter interface {
	ConnectionsFor(userID uuid.UUID) []uuid.UUID
}

func NewUserHandler(users services.UserStore, hub ConnectionCounter) *UserHandler {
	return &UserHandler{users: users, hub: hub}
}

// GetMe возвращает информацию о текущем пользователе
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"avatarUrl":   user.AvatarURL,
		"createdAt":   user.CreatedAt,
		"lastSeenAt":  user.LastSeenAt,
		"connections": len(h.hub.ConnectionsFor(userID)),
	})
}
