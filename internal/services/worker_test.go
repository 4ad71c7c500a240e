package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/candidate-screener/internal/models"
	"alfredoptarigan/candidate-screener/internal/repositories"
	"alfredoptarigan/candidate-screener/internal/testutil"
)

type recordingBatch struct {
	mu        sync.Mutex
	processed []uuid.UUID
}

func (r *recordingBatch) Process(_ context.Context, jobID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, jobID)
	return nil
}

func (r *recordingBatch) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processed)
}

func TestWorker_ProcessesEnqueuedJobs(t *testing.T) {
	jobs := repositories.NewUploadJobRepository(testutil.NewTestDB(t))
	batch := &recordingBatch{}
	w := NewWorker(jobs, batch, nil, WorkerOptions{Concurrency: 2, PollInterval: time.Hour}, nil)

	w.Start(context.Background())
	t.Cleanup(w.Stop)

	w.EnqueueJob(uuid.New())
	w.EnqueueJob(uuid.New())

	assert.Eventually(t, func() bool { return batch.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestWorker_PollsQueuedAndInterruptedJobs(t *testing.T) {
	ctx := context.Background()
	jobs := repositories.NewUploadJobRepository(testutil.NewTestDB(t))

	queued := &models.UploadJob{RecruiterUsername: "alice"}
	require.NoError(t, jobs.Create(ctx, queued))
	interrupted := &models.UploadJob{RecruiterUsername: "alice"}
	require.NoError(t, jobs.Create(ctx, interrupted))
	_, err := jobs.Claim(ctx, interrupted.ID)
	require.NoError(t, err)

	batch := &recordingBatch{}
	w := NewWorker(jobs, batch, nil, WorkerOptions{Concurrency: 1, PollInterval: 10 * time.Millisecond}, nil)
	w.Start(ctx)
	t.Cleanup(w.Stop)

	assert.Eventually(t, func() bool { return batch.count() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_JanitorExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	candidate := f.seedCandidate(t, models.CandidateInterviewing, 60)
	require.NoError(t, f.sessions.Upsert(ctx, &models.InterviewSession{
		ID:          uuid.New(),
		CandidateID: &candidate.ID,
		IsActive:    true,
		UpdatedAt:   time.Now().Add(-48 * time.Hour),
	}))

	jobs := repositories.NewUploadJobRepository(testutil.NewTestDB(t))
	w := NewWorker(jobs, &recordingBatch{}, f.svc, WorkerOptions{
		Concurrency:     1,
		PollInterval:    time.Hour,
		JanitorInterval: 10 * time.Millisecond,
		IdleTimeout:     24 * time.Hour,
	}, nil)
	w.Start(ctx)
	t.Cleanup(w.Stop)

	assert.Eventually(t, func() bool {
		return f.candidateStatus(t, candidate.ID) == models.CandidateCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_StopIsIdempotent(t *testing.T) {
	jobs := repositories.NewUploadJobRepository(testutil.NewTestDB(t))
	w := NewWorker(jobs, &recordingBatch{}, nil, WorkerOptions{}, nil)
	w.Start(context.Background())

	w.Stop()
	w.Stop()
	w.EnqueueJob(uuid.New())
}
