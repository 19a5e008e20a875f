package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/review-sentiment/backend/internal/db"
	"github.com/review-sentiment/backend/internal/model"
)

func newTestRepo(t *testing.T) *JobRepository {
	t.Helper()
	testDB, err := db.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Close() })
	return NewJobRepository(testDB)
}

func newJob(sessionID string, submittedAt time.Time) *model.Job {
	return &model.Job{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Source:      model.JobSourceWebSocket,
		Status:      model.JobStatusRunning,
		CSVBytes:    42,
		SubmittedAt: submittedAt,
	}
}

func TestJobRepository_CreateCompleteGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	submitted := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	job := newJob("session-a", submitted)
	require.NoError(t, repo.Create(ctx, job))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.Zero(t, got.Duration())
	assert.True(t, submitted.Equal(got.SubmittedAt))

	completed := submitted.Add(1500 * time.Millisecond)
	require.NoError(t, repo.Complete(ctx, job.ID, model.JobStatusFailed, "Provided names not found.", completed))

	got, err = repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Equal(t, "Provided names not found.", got.Error)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, 1500*time.Millisecond, got.Duration())
}

func TestJobRepository_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrJobNotFound)

	err = repo.Complete(ctx, "missing", model.JobStatusCompleted, "", time.Now())
	assert.ErrorIs(t, err, model.ErrJobNotFound)
}

func TestJobRepository_DuplicateID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job := newJob("s", time.Now())
	require.NoError(t, repo.Create(ctx, job))
	assert.Error(t, repo.Create(ctx, job))
}

func TestJobRepository_List(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 5; i++ {
		session := "session-a"
		if i%2 == 1 {
			session = "session-b"
		}
		job := newJob(session, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, job))
		ids = append(ids, job.ID)
	}

	all, err := repo.List(ctx, JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, ids[4], all[0].ID, "newest first")
	assert.Equal(t, ids[0], all[4].ID)

	limited, err := repo.List(ctx, JobFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	bySession, err := repo.List(ctx, JobFilter{SessionID: "session-b"})
	require.NoError(t, err)
	require.Len(t, bySession, 2)
	for _, j := range bySession {
		assert.Equal(t, "session-b", j.SessionID)
	}

	none, err := repo.List(ctx, JobFilter{SessionID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

// Every recorded job reads back with the status and error it was completed with.
func TestJobRecordIntegrityProperty(t *testing.T) {
	testDB, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	defer testDB.Close()

	repo := NewJobRepository(testDB)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	final := []model.JobStatus{model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusDropped}
	statuses := gen.IntRange(0, len(final)-1).Map(func(i int) model.JobStatus { return final[i] })

	properties.Property("completed jobs round-trip through the store", prop.ForAll(
		func(sessionID string, csvBytes int, status model.JobStatus, errMsg string) bool {
			job := newJob(sessionID, time.Now())
			job.CSVBytes = csvBytes
			if err := repo.Create(ctx, job); err != nil {
				t.Logf("create: %v", err)
				return false
			}
			if err := repo.Complete(ctx, job.ID, status, errMsg, time.Now()); err != nil {
				t.Logf("complete: %v", err)
				return false
			}

			got, err := repo.GetByID(ctx, job.ID)
			if err != nil {
				t.Logf("get: %v", err)
				return false
			}
			return got.SessionID == sessionID &&
				got.CSVBytes == csvBytes &&
				got.Status == status &&
				got.Error == errMsg &&
				got.CompletedAt != nil
		},
		gen.Identifier(),
		gen.IntRange(0, 8<<20),
		statuses,
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestJobRepository_ClosedDB(t *testing.T) {
	testDB, err := db.NewTestDB()
	require.NoError(t, err)
	repo := NewJobRepository(testDB)
	require.NoError(t, testDB.Close())

	_, err = repo.List(context.Background(), JobFilter{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
	assert.Contains(t, fmt.Sprint(err), "failed to list jobs")
}
