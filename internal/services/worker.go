package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-screener/internal/logger"
	"alfredoptarigan/candidate-screener/internal/repositories"
)

const (
	jobQueueSize    = 100
	pendingJobBatch = 10
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	// EnqueueJob never blocks; a full queue is drained later by the poller.
	EnqueueJob(jobID uuid.UUID)
}

type WorkerOptions struct {
	Concurrency     int
	PollInterval    time.Duration
	JanitorInterval time.Duration
	IdleTimeout     time.Duration
}

type worker struct {
	jobRepo    repositories.UploadJobRepository
	batch      BatchCoordinator
	interviews InterviewService
	opts       WorkerOptions
	jobQueue   chan uuid.UUID
	wg         sync.WaitGroup
	stopChan   chan struct{}
	stopOnce   sync.Once
	log        *zap.Logger
}

// NewWorker builds the background pool. interviews may be nil, which
// disables the idle session janitor.
func NewWorker(
	jobRepo repositories.UploadJobRepository,
	batch BatchCoordinator,
	interviews InterviewService,
	opts WorkerOptions,
	log *zap.Logger,
) Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	return &worker{
		jobRepo:    jobRepo,
		batch:      batch,
		interviews: interviews,
		opts:       opts,
		jobQueue:   make(chan uuid.UUID, jobQueueSize),
		stopChan:   make(chan struct{}),
		log:        logger.OrNop(log),
	}
}

func (w *worker) Start(ctx context.Context) {
	w.log.Info("starting worker", zap.Int("concurrency", w.opts.Concurrency))

	if n, err := w.jobRepo.RequeueInterrupted(ctx); err != nil {
		w.log.Warn("failed to requeue interrupted jobs", zap.Error(err))
	} else if n > 0 {
		w.log.Info("requeued interrupted upload jobs", zap.Int64("count", n))
	}

	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	if w.interviews != nil && w.opts.JanitorInterval > 0 && w.opts.IdleTimeout > 0 {
		w.wg.Add(1)
		go w.expireIdleSessions(ctx)
	}
}

func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("stopping worker")
		close(w.stopChan)
	})
	w.wg.Wait()
	w.log.Info("worker stopped")
}

func (w *worker) EnqueueJob(jobID uuid.UUID) {
	select {
	case <-w.stopChan:
		w.log.Warn("worker stopped, job left for next start", zap.String("job_id", jobID.String()))
		return
	default:
	}

	select {
	case w.jobQueue <- jobID:
		w.log.Debug("job enqueued", zap.String("job_id", jobID.String()))
	default:
		w.log.Warn("job queue full, poller will pick the job up", zap.String("job_id", jobID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case jobID := <-w.jobQueue:
			log.Info("processing upload job", zap.String("job_id", jobID.String()))
			if err := w.batch.Process(ctx, jobID); err != nil {
				log.Error("upload job failed", zap.String("job_id", jobID.String()), zap.Error(err))
			}
		}
	}
}

// pollPendingJobs picks up queued jobs that were never enqueued in memory,
// such as those created before a restart.
func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.jobRepo.FindPendingJobs(ctx, pendingJobBatch)
			if err != nil {
				w.log.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.log.Debug("found pending jobs", zap.Int("count", len(pendingJobs)))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}

func (w *worker) expireIdleSessions(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.opts.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.interviews.ExpireIdle(ctx, w.opts.IdleTimeout); err != nil {
				w.log.Warn("idle session sweep failed", zap.Error(err))
			}
		}
	}
}
