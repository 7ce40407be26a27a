package dto

import (
	"github.com/thereayou/zenlist-realtime/internal/models"
	"github.com/thereayou/zenlist-realtime/internal/services"
)

// SendMessageRequest тело POST /projects/:id/messages. Пустой content
// отсекает сервис, чтобы ответ был InvalidContent, а не ошибкой биндинга.
type SendMessageRequest struct {
	Content     string              `json:"content"`
	Attachments []models.Attachment `json:"attachments"`
}

type MessagesResponse struct {
	Messages []services.ChatMessage `json:"messages"`
	HasMore  bool                   `json:"hasMore"`
}

type InviteRequest struct {
	Email string      `json:"email" binding:"required,email"`
	Role  models.Role `json:"role"`
}

type PresignRequest struct {
	Folder string                   `json:"folder"`
	Files  []services.UploadRequest `json:"files" binding:"required"`
}

type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
}
