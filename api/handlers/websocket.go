package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebSocketHandler exposes the session WebSocket on the API router, next to
// the dedicated WebSocket listener.
type WebSocketHandler struct {
	wsHandler http.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(wsHandler http.Handler) *WebSocketHandler {
	return &WebSocketHandler{wsHandler: wsHandler}
}

// Attach handles GET /ws and upgrades the request into a broker session.
func (h *WebSocketHandler) Attach(c *gin.Context) {
	h.wsHandler.ServeHTTP(c.Writer, c.Request)
}

// RegisterRoutes registers the WebSocket handler routes on a Gin router.
func (h *WebSocketHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws", h.Attach)
}
