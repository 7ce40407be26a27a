package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/internal/handlers/dto"
	"github.com/thereayou/zenlist-realtime/internal/middleware"
	"github.com/thereayou/zenlist-realtime/internal/services"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
)

type HTTPMessageHandler struct {
	router *services.MessageRouter
}

func NewHTTPMessageHandler(router *services.MessageRouter) *HTTPMessageHandler {
	return &HTTPMessageHandler{router: router}
}

// GetProjectMessages получает историю сообщений проекта
func (h *HTTPMessageHandler) GetProjectMessages(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	// Параметры пагинации
	limit := services.DefaultHistorySize
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = min(parsed, services.MaxHistorySize)
		}
	}

	var beforeID *uuid.UUID
	if before := c.Query("before"); before != "" {
		id, err := uuid.Parse(before)
		if err != nil {
			c.Error(fmt.Errorf("%w: invalid before", apperrors.ErrInvalidContent))
			return
		}
		beforeID = &id
	}

	page, err := h.router.History(c.Request.Context(), userID, projectID, limit, beforeID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.MessagesResponse{
		Messages: page.Messages,
		HasMore:  page.HasMore,
	})
}

// SendMessage отправляет сообщение через HTTP (альтернатива WebSocket).
// Сокет из X-Socket-ID не получает эхо.
func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	exclude := uuid.Nil
	if raw := c.GetHeader(SocketIDHeader); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			exclude = id
		}
	}

	msg, err := h.router.SendAs(c.Request.Context(), userID, projectID, req.Content, req.Attachments, exclude)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}
