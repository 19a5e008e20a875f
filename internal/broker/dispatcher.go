package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/semaphore"

	"github.com/review-sentiment/backend/internal/analyzer"
	"github.com/review-sentiment/backend/internal/logging"
	"github.com/review-sentiment/backend/internal/metrics"
	"github.com/review-sentiment/backend/internal/model"
)

// DefaultMaxConcurrentJobs bounds simultaneous Analyzer calls.
const DefaultMaxConcurrentJobs = 4

// JobRequest is one analysis submission.
type JobRequest struct {
	SessionID string
	Source    model.JobSource
	Input     analyzer.Input
}

// JobResult is a finished analysis, addressed to the session that asked for it.
type JobResult struct {
	JobID     string
	SessionID string
	Payload   json.RawMessage
}

// JobRecorder keeps the audit trail of analysis jobs.
type JobRecorder interface {
	Create(ctx context.Context, job *model.Job) error
	Complete(ctx context.Context, id string, status model.JobStatus, errMsg string, completedAt time.Time) error
}

// deliverFunc hands a result to the owner of the session registry and
// reports whether the session was still there to receive it.
type deliverFunc func(JobResult) bool

// JobDispatcher runs the Analyzer asynchronously, one goroutine per job.
type JobDispatcher struct {
	analyzer analyzer.Analyzer
	recorder JobRecorder
	deliver  deliverFunc
	sem      *semaphore.Weighted
	clock    clockwork.Clock
	metrics  *metrics.JobMetrics
	logger   *slog.Logger

	wg sync.WaitGroup
}

func newJobDispatcher(a analyzer.Analyzer, recorder JobRecorder, maxConcurrent int, clock clockwork.Clock, m *metrics.JobMetrics, logger *slog.Logger, deliver deliverFunc) *JobDispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentJobs
	}
	return &JobDispatcher{
		analyzer: a,
		recorder: recorder,
		deliver:  deliver,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		clock:    clock,
		metrics:  m,
		logger:   logger,
	}
}

// Submit starts the job and returns its id without waiting for it.
func (d *JobDispatcher) Submit(req JobRequest) string {
	job := &model.Job{
		ID:          uuid.NewString(),
		SessionID:   req.SessionID,
		Source:      req.Source,
		Status:      model.JobStatusRunning,
		CSVBytes:    len(req.Input.CSV),
		SubmittedAt: d.clock.Now(),
	}

	d.metrics.Submitted.Inc()
	d.metrics.InFlight.Inc()

	d.wg.Add(1)
	go d.run(job, req.Input)
	return job.ID
}

// Wait blocks until every submitted job has finished or ctx is done.
func (d *JobDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *JobDispatcher) run(job *model.Job, in analyzer.Input) {
	defer d.wg.Done()
	defer d.metrics.InFlight.Dec()

	ctx := context.Background()
	log := logging.WithJob(d.logger, job.ID, job.SessionID)

	if d.recorder != nil {
		if err := d.recorder.Create(ctx, job); err != nil {
			log.Error("Failed to record job", "error", err)
		}
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		log.Error("Failed to acquire analyzer slot", "error", err)
		return
	}
	start := d.clock.Now()
	payload := d.analyze(ctx, in)
	d.sem.Release(1)
	d.metrics.Duration.Observe(d.clock.Since(start).Seconds())

	status, errMsg := model.JobStatusCompleted, ""
	if f, failed := analyzer.FailureOf(payload); failed {
		status, errMsg = model.JobStatusFailed, f.Error
	}

	if !d.deliver(JobResult{JobID: job.ID, SessionID: job.SessionID, Payload: payload}) {
		log.Info("Dropping analysis result, session is gone")
		status = model.JobStatusDropped
	}
	d.metrics.Completed.WithLabelValues(string(status)).Inc()

	if d.recorder != nil {
		if err := d.recorder.Complete(ctx, job.ID, status, errMsg, d.clock.Now()); err != nil {
			log.Error("Failed to record job completion", "error", err)
		}
	}
}

// analyze calls the Analyzer, turning a panic into a failure payload.
func (d *JobDispatcher) analyze(ctx context.Context, in analyzer.Input) (payload json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			payload = analyzer.EncodeFailure(fmt.Sprintf("analyzer panic: %v", r), false)
		}
	}()
	return d.analyzer.Analyze(ctx, in)
}
