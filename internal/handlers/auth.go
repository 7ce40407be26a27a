package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/zenlist-realtime/internal/handlers/dto"
	"github.com/thereayou/zenlist-realtime/internal/middleware"
	"github.com/thereayou/zenlist-realtime/internal/services"
)

type AuthHandler struct {
	auth *services.Authenticator
}

func NewAuthHandler(auth *services.Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Login выдаёт JWT и обновляет last_seen
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Logout ставит токен в черный список до истечения. Открытые сокеты
// с этим токеном продолжают работать до переподключения.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), c.GetString(middleware.TokenKey)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
