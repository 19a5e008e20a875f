package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/review-sentiment/backend/internal/analyzer"
	"github.com/review-sentiment/backend/internal/model"
)

// AnalysisSubmitter starts an analysis whose result goes to a session.
type AnalysisSubmitter interface {
	SubmitAnalysis(sessionID string, source model.JobSource, in analyzer.Input) string
}

// AnalysisHandler handles the HTTP analysis ingress.
type AnalysisHandler struct {
	submitter AnalysisSubmitter
	maxBytes  int64
}

// NewAnalysisHandler creates a new AnalysisHandler. Bodies larger than
// maxBytes are refused.
func NewAnalysisHandler(submitter AnalysisSubmitter, maxBytes int64) *AnalysisHandler {
	return &AnalysisHandler{submitter: submitter, maxBytes: maxBytes}
}

// AnalysisAccepted is returned once a job has been queued.
type AnalysisAccepted struct {
	JobID string `json:"jobId"`
}

// Submit handles POST /csv. The result is delivered over the session's
// WebSocket, not in the response.
func (h *AnalysisHandler) Submit(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(c, http.StatusRequestEntityTooLarge, CodeTooLarge, "Request body exceeds the message size limit")
			return
		}
		sendError(c, http.StatusBadRequest, CodeValidation, "Failed to read request body")
		return
	}

	req, err := decodeAnalysisRequest(body)
	if err != nil {
		sendError(c, http.StatusBadRequest, CodeValidation, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		sendError(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	jobID := h.submitter.SubmitAnalysis(req.ClientKey, model.JobSourceHTTP, analyzer.Input{
		CSV:          req.Data,
		Infer:        req.Infer,
		ProductField: req.ProductField,
		ReviewField:  req.ReviewField,
	})
	c.JSON(http.StatusAccepted, AnalysisAccepted{JobID: jobID})
}

// decodeAnalysisRequest accepts the request object itself or a JSON string
// containing it, which is what the browser client posts.
func decodeAnalysisRequest(body []byte) (*model.AnalysisRequest, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return nil, err
		}
		body = []byte(inner)
	}

	var req model.AnalysisRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// RegisterRoutes registers the ingress route. Extra middleware, such as
// the rate limiter, runs before the handler.
func (h *AnalysisHandler) RegisterRoutes(r gin.IRoutes, middleware ...gin.HandlerFunc) {
	r.POST("/csv", append(middleware, h.Submit)...)
}
