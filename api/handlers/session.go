package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/review-sentiment/backend/internal/broker"
)

// SessionLister reports the live broker sessions.
type SessionLister interface {
	Sessions() []broker.SessionInfo
	RecentlyClosed() []broker.ClosedSession
	Accepting() bool
}

// SessionHandler handles HTTP requests for session inspection.
type SessionHandler struct {
	sessions SessionLister
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionLister) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	ID          string `json:"id"`
	Awaiting    bool   `json:"awaiting"`
	ConnectedAt string `json:"connectedAt"`
	Connected   string `json:"connected"`
}

// SessionListResponse represents the response for listing sessions.
type SessionListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
	Total    int                `json:"total"`
}

// List handles GET /api/sessions.
func (h *SessionHandler) List(c *gin.Context) {
	infos := h.sessions.Sessions()
	now := time.Now()

	resp := make([]*SessionResponse, 0, len(infos))
	for _, s := range infos {
		resp = append(resp, &SessionResponse{
			ID:          s.ID,
			Awaiting:    s.Awaiting,
			ConnectedAt: s.ConnectedAt.Format(time.RFC3339),
			Connected:   formatDuration(now.Sub(s.ConnectedAt)),
		})
	}

	c.JSON(http.StatusOK, SessionListResponse{Sessions: resp, Total: len(resp)})
}

// ClosedSessionResponse represents a closed session in API responses.
type ClosedSessionResponse struct {
	ID          string `json:"id"`
	Reason      string `json:"reason"`
	ConnectedAt string `json:"connectedAt"`
	ClosedAt    string `json:"closedAt"`
	Lifetime    string `json:"lifetime"`
}

// ListClosed handles GET /api/sessions/closed, newest first.
func (h *SessionHandler) ListClosed(c *gin.Context) {
	closed := h.sessions.RecentlyClosed()

	resp := make([]*ClosedSessionResponse, 0, len(closed))
	for i := len(closed) - 1; i >= 0; i-- {
		s := closed[i]
		resp = append(resp, &ClosedSessionResponse{
			ID:          s.ID,
			Reason:      s.Reason,
			ConnectedAt: s.ConnectedAt.Format(time.RFC3339),
			ClosedAt:    s.ClosedAt.Format(time.RFC3339),
			Lifetime:    formatDuration(s.ClosedAt.Sub(s.ConnectedAt)),
		})
	}

	c.JSON(http.StatusOK, gin.H{"sessions": resp, "total": len(resp)})
}

// Health handles GET /health.
func (h *SessionHandler) Health(c *gin.Context) {
	status := http.StatusOK
	if !h.sessions.Accepting() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":    http.StatusText(status),
		"accepting": h.sessions.Accepting(),
	})
}

// RegisterRoutes registers the session routes on a Gin router group.
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sessions", h.List)
	rg.GET("/sessions/closed", h.ListClosed)
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}
