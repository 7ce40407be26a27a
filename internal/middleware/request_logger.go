package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

// RequestLogger пишет строку лога на каждый запрос. Query не логируется:
// в нем может быть токен WebSocket.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.Info("HTTP request",
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
