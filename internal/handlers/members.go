package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/zenlist-realtime/internal/middleware"
	"github.com/thereayou/zenlist-realtime/internal/services"
)

type MemberHandler struct {
	members *services.MemberService
}

func NewMemberHandler(members *services.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

func (h *MemberHandler) RemoveWorkspaceMember(c *gin.Context) {
	workspaceID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	evicted, err := h.members.RemoveFromWorkspace(c.Request.Context(), middleware.CurrentUserID(c), workspaceID, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"evictedConnections": evicted})
}

func (h *MemberHandler) RemoveProjectMember(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	evicted, err := h.members.RemoveFromProject(c.Request.Context(), middleware.CurrentUserID(c), projectID, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"evictedConnections": evicted})
}
