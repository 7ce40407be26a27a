package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thereayou/zenlist-realtime/internal/middleware"
	ws "github.com/thereayou/zenlist-realtime/internal/websocket"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	hub      *ws.Hub
	events   ws.EventHandler
	upgrader websocket.Upgrader
	log      logger.Logger
}

// NewWebSocketHandler создает новый WebSocket handler. Пустой allowedOrigins
// разрешает любой origin.
func NewWebSocketHandler(hub *ws.Hub, events ws.EventHandler, allowedOrigins []string, log logger.Logger) *WebSocketHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &WebSocketHandler{
		hub:    hub,
		events: events,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// HandleWebSocket обрабатывает WebSocket соединения. Личность уже проверена
// WSAuthMiddleware и привязывается к соединению сразу после upgrade.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader сам ответил клиенту
		h.log.Warn("WebSocket upgrade failed", "user_id", identity.UserID, "error", err)
		return
	}

	client := h.hub.Connect(conn)
	if err := h.hub.Bind(client.ID, identity); err != nil {
		h.log.Error("Failed to bind connection", "conn_id", client.ID, "error", err)
		h.hub.Unbind(client.ID)
		conn.Close()
		return
	}

	// в очереди до запуска насосов, поэтому приходит первым
	if err := client.Emit(ws.EventConnected, ws.ConnectedPayload{ConnectionID: client.ID, UserID: identity.UserID}); err != nil {
		h.log.Debug("Failed to greet client", "conn_id", client.ID, "error", err)
	}

	go client.WritePump()
	go client.ReadPump(h.events)
}
