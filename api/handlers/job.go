package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/review-sentiment/backend/internal/model"
	"github.com/review-sentiment/backend/internal/repository"
)

// maxListLimit caps the limit query parameter.
const maxListLimit = 500

// JobStore reads the job audit log.
type JobStore interface {
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, filter repository.JobFilter) ([]*model.Job, error)
}

// JobHandler handles HTTP requests for the job audit log.
type JobHandler struct {
	jobs JobStore
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobs JobStore) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// JobResponse represents a job in API responses.
type JobResponse struct {
	ID          string `json:"id"`
	SessionID   string `json:"sessionId"`
	Source      string `json:"source"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	CSVBytes    int    `json:"csvBytes"`
	SubmittedAt string `json:"submittedAt"`
	CompletedAt string `json:"completedAt,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// JobListResponse represents the response for listing jobs.
type JobListResponse struct {
	Jobs  []*JobResponse `json:"jobs"`
	Total int            `json:"total"`
}

// List handles GET /api/jobs?session=<id>&limit=<n>.
func (h *JobHandler) List(c *gin.Context) {
	filter := repository.JobFilter{SessionID: c.Query("session")}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			sendError(c, http.StatusBadRequest, CodeValidation, "limit must be between 1 and "+strconv.Itoa(maxListLimit))
			return
		}
		filter.Limit = limit
	}

	jobs, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		sendError(c, http.StatusInternalServerError, CodeInternalError, "Failed to list jobs: "+err.Error())
		return
	}

	resp := make([]*JobResponse, 0, len(jobs))
	for _, j := range jobs {
		resp = append(resp, toJobResponse(j))
	}
	c.JSON(http.StatusOK, JobListResponse{Jobs: resp, Total: len(resp)})
}

// Get handles GET /api/jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	id := c.Param("id")

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			sendError(c, http.StatusNotFound, CodeJobNotFound, "Job "+id+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, CodeInternalError, "Failed to get job: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, toJobResponse(job))
}

// RegisterRoutes registers the job routes on a Gin router group.
func (h *JobHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.List)
	rg.GET("/jobs/:id", h.Get)
}

func toJobResponse(j *model.Job) *JobResponse {
	resp := &JobResponse{
		ID:          j.ID,
		SessionID:   j.SessionID,
		Source:      string(j.Source),
		Status:      string(j.Status),
		Error:       j.Error,
		CSVBytes:    j.CSVBytes,
		SubmittedAt: j.SubmittedAt.Format(time.RFC3339),
	}
	if j.CompletedAt != nil {
		resp.CompletedAt = j.CompletedAt.Format(time.RFC3339)
		resp.Duration = j.Duration().String()
	}
	return resp
}
