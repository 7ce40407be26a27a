package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/zenlist-realtime/internal/middleware"
	"github.com/thereayou/zenlist-realtime/internal/services"
	"github.com/thereayou/zenlist-realtime/internal/websocket"
)

type PresenceHandler struct {
	gate *services.Gate
	hub  *websocket.Hub
}

func NewPresenceHandler(gate *services.Gate, hub *websocket.Hub) *PresenceHandler {
	return &PresenceHandler{gate: gate, hub: hub}
}

// GetPresence кто сейчас в комнате проекта и кто печатает
func (h *PresenceHandler) GetPresence(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.gate.AuthorizeJoin(c.Request.Context(), middleware.CurrentUserID(c), projectID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, websocket.JoinedPayload{
		ProjectID:   projectID,
		OnlineUsers: h.hub.OnlineIn(projectID),
		Typing:      h.hub.TypingIn(projectID),
	})
}

func (h *PresenceHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.hub.ConnectionCount(),
		"online":      len(h.hub.GetOnlineUsers()),
		"rooms":       h.hub.RoomCount(),
	})
}
