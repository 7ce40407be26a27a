package main

import (
	"github.com/gin-gonic/gin"

	"github.com/thereayou/zenlist-realtime/internal/middleware"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

func APIEndpoints(r *gin.Engine, h *Handlers, identifier middleware.Identifier, log logger.Logger) {
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.ErrorHandler(log))

	r.GET("/health", h.Presence.Health)

	// Auth endpoints
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", middleware.AuthMiddleware(identifier), h.Auth.Logout)
	}

	r.GET("/ws", middleware.WSAuthMiddleware(identifier), h.WebSocket.HandleWebSocket)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(identifier))
	{
		api.GET("/users/me", h.User.GetMe)

		projects := api.Group("/projects/:id")
		{
			projects.GET("/messages", h.Messages.GetProjectMessages)
			projects.POST("/messages", h.Messages.SendMessage)
			projects.GET("/presence", h.Presence.GetPresence)
			projects.POST("/invitations", h.Invitations.InviteToProject)
			projects.DELETE("/members/:userId", h.Members.RemoveProjectMember)
		}

		workspaces := api.Group("/workspaces/:id")
		{
			workspaces.POST("/invitations", h.Invitations.InviteToWorkspace)
			workspaces.DELETE("/members/:userId", h.Members.RemoveWorkspaceMember)
		}

		api.POST("/invitations/:token/accept", h.Invitations.Accept)

		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.Notifications.List)
			notifications.GET("/unread-count", h.Notifications.UnreadCount)
			notifications.POST("/read-all", h.Notifications.MarkAllRead)
			notifications.POST("/:id/read", h.Notifications.MarkRead)
			notifications.DELETE("/:id", h.Notifications.Delete)
		}

		api.POST("/uploads/presign", h.Uploads.Presign)
	}
}
