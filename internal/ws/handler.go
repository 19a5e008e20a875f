package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/review-sentiment/backend/internal/broker"
	"github.com/review-sentiment/backend/internal/model"
)

// SessionServer runs a broker session over a connection.
type SessionServer interface {
	Accepting() bool
	ServeConn(ctx context.Context, conn broker.Conn) error
}

// Handler upgrades HTTP requests to WebSocket sessions.
type Handler struct {
	server          SessionServer
	upgrader        websocket.Upgrader
	maxMessageBytes int64
	logger          *slog.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(server SessionServer, maxMessageBytes int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		server: server,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients are served from another origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		maxMessageBytes: maxMessageBytes,
		logger:          logger.With("component", "ws"),
	}
}

// SetCheckOrigin sets a custom origin checker for the upgrader.
func (h *Handler) SetCheckOrigin(fn func(r *http.Request) bool) {
	h.upgrader.CheckOrigin = fn
}

// AllowOrigins returns an origin checker admitting the listed origins.
// Requests without an Origin header come from non-browser clients and pass.
// An empty list admits everything.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(allowed) == 0 || origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// ServeHTTP implements http.Handler. It returns once the session has ended.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.server.Accepting() {
		http.Error(w, model.ErrNotAccepting.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		h.logger.Warn("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, h.maxMessageBytes)
	defer client.Close()

	if err := h.server.ServeConn(r.Context(), client); err != nil {
		if errors.Is(err, model.ErrNotAccepting) || errors.Is(err, model.ErrBrokerStopped) {
			h.logger.Info("Refused connection during shutdown", "remote_addr", r.RemoteAddr)
			return
		}
		h.logger.Warn("Session ended with error", "remote_addr", r.RemoteAddr, "error", err)
	}
}
