package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/zenlist-realtime/internal/handlers/dto"
	"github.com/thereayou/zenlist-realtime/internal/middleware"
	"github.com/thereayou/zenlist-realtime/internal/services"
)

type NotificationHandler struct {
	dispatcher *services.Dispatcher
}

func NewNotificationHandler(dispatcher *services.Dispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

// List уведомления текущего пользователя, новые первыми. ?unread=true
// оставляет только непрочитанные.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	notifications, err := h.dispatcher.List(ctx, userID, unreadOnly, limit)
	if err != nil {
		c.Error(err)
		return
	}
	unread, err := h.dispatcher.UnreadCount(ctx, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NotificationsResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	unread, err := h.dispatcher.UnreadCount(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	n, err := h.dispatcher.MarkRead(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.dispatcher.Delete(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.dispatcher.MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
