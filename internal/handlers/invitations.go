package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/zenlist-realtime/internal/handlers/dto"
	"github.com/thereayou/zenlist-realtime/internal/middleware"
	"github.com/thereayou/zenlist-realtime/internal/models"
	"github.com/thereayou/zenlist-realtime/internal/services"
)

type InvitationHandler struct {
	invitations *services.InvitationService
}

func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

// invitationResponse токен отдается только пригласившему, чтобы он мог
// передать ссылку тем, у кого еще нет аккаунта
func invitationResponse(inv *models.Invitation) gin.H {
	return gin.H{
		"invitation": inv,
		"token":      inv.Token,
	}
}

func (h *InvitationHandler) InviteToWorkspace(c *gin.Context) {
	workspaceID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.InviteRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.invitations.InviteToWorkspace(c.Request.Context(), middleware.CurrentUserID(c), workspaceID, req.Email, req.Role)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, invitationResponse(inv))
}

func (h *InvitationHandler) InviteToProject(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.InviteRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.invitations.InviteToProject(c.Request.Context(), middleware.CurrentUserID(c), projectID, req.Email, req.Role)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, invitationResponse(inv))
}

// Accept принимает приглашение текущим пользователем
func (h *InvitationHandler) Accept(c *gin.Context) {
	inv, err := h.invitations.Accept(c.Request.Context(), c.Param("token"), middleware.CurrentUserID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, inv)
}
