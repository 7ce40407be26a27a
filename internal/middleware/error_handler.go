package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

// ErrorHandler превращает ошибку, добавленную через c.Error, в JSON ответ
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperrors.HTTPStatusFromError(err)
		if status >= 500 {
			log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		}

		c.JSON(status, apperrors.NewAPIError(err))
	}
}
