package model

import "time"

// JobStatus represents the status of an analysis job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusDropped   JobStatus = "dropped"
)

// JobSource identifies which entry point submitted a job.
type JobSource string

const (
	JobSourceWebSocket JobSource = "websocket"
	JobSourceHTTP      JobSource = "http"
)

// Job is the audit record of one analysis request.
type Job struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"sessionId"`
	Source      JobSource  `json:"source"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	CSVBytes    int        `json:"csvBytes"`
	SubmittedAt time.Time  `json:"submittedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Duration returns how long the job ran, or zero if it has not completed.
func (j *Job) Duration() time.Duration {
	if j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(j.SubmittedAt)
}

// AnalysisRequest is an analysis submission from either entry point.
type AnalysisRequest struct {
	ClientKey    string `json:"clientKey"`
	Data         string `json:"data"`
	Infer        bool   `json:"infer"`
	ProductField string `json:"prodName"`
	ReviewField  string `json:"revName"`
}

// Validate validates the analysis request.
func (r *AnalysisRequest) Validate() error {
	if r.ClientKey == "" {
		return ErrClientKeyRequired
	}
	if r.Data == "" {
		return ErrCSVRequired
	}
	return nil
}
