package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/review-sentiment/backend/internal/model"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// JobRepository provides data access for the analysis job audit log.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// JobFilter narrows List.
type JobFilter struct {
	SessionID string
	Limit     int
}

// Create inserts a new job into the database.
func (r *JobRepository) Create(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO jobs (id, session_id, source, status, error, csv_bytes, submitted_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.SessionID,
		job.Source,
		job.Status,
		nullString(job.Error),
		job.CSVBytes,
		job.SubmittedAt.UTC(),
		nullTime(job.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// Complete records the final status of a job.
func (r *JobRepository) Complete(ctx context.Context, id string, status model.JobStatus, errMsg string, completedAt time.Time) error {
	query := `UPDATE jobs SET status = ?, error = ?, completed_at = ? WHERE id = ?`

	completedAt = completedAt.UTC()
	result, err := r.db.ExecContext(ctx, query, status, nullString(errMsg), completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrJobNotFound
	}

	return nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*model.Job, error) {
	query := `
		SELECT id, session_id, source, status, error, csv_bytes, submitted_at, completed_at
		FROM jobs
		WHERE id = ?
	`

	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// List retrieves the most recent jobs, newest first.
func (r *JobRepository) List(ctx context.Context, filter JobFilter) ([]*model.Job, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, session_id, source, status, error, csv_bytes, submitted_at, completed_at
		FROM jobs
	`
	args := []any{}
	if filter.SessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, filter.SessionID)
	}
	query += ` ORDER BY submitted_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*model.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}

	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	job := &model.Job{}
	var errMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.SessionID,
		&job.Source,
		&job.Status,
		&errMsg,
		&job.CSVBytes,
		&job.SubmittedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if errMsg.Valid {
		job.Error = errMsg.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
