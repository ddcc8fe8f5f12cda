package services

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"time"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
)

type JobKind string

const (
	JobEnsureUser     JobKind = "ensure_user"
	JobIncrementCount JobKind = "increment_analysis_count"
)

const (
	defaultQueueSize     = 100
	defaultBookkeepingTO = 5 * time.Second
)

// BookkeepingJob is a best-effort write tied to one caller.
type BookkeepingJob struct {
	Kind    JobKind
	Subject string
}

// BookkeepingWorker runs bookkeeping writes off the request path. Failures
// are logged and never reach the caller.
type BookkeepingWorker interface {
	Start()
	Stop()
	Enqueue(job BookkeepingJob) bool
}

type bookkeepingWorker struct {
	userRepo    repositories.UserRepository
	logger      *slog.Logger
	jobQueue    chan BookkeepingJob
	concurrency int
	jobTimeout  time.Duration
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once

	// guards stopped; held across the queue send so no job lands after the drain
	mu      sync.RWMutex
	stopped bool
}

func NewBookkeepingWorker(
	userRepo repositories.UserRepository,
	logger *slog.Logger,
	concurrency, queueSize int,
	jobTimeout time.Duration,
) BookkeepingWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	if queueSize < 1 {
		queueSize = defaultQueueSize
	}
	if jobTimeout <= 0 {
		jobTimeout = defaultBookkeepingTO
	}
	return &bookkeepingWorker{
		userRepo:    userRepo,
		logger:      logger,
		jobQueue:    make(chan BookkeepingJob, queueSize),
		concurrency: concurrency,
		jobTimeout:  jobTimeout,
		stopChan:    make(chan struct{}),
	}
}

// Start implements BookkeepingWorker.
func (w *bookkeepingWorker) Start() {
	log.Printf("🚀 Starting bookkeeping worker with %d concurrent workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(i + 1)
	}
}

// Stop implements BookkeepingWorker. Jobs already queued are drained first.
func (w *bookkeepingWorker) Stop() {
	w.stopOnce.Do(func() {
		log.Println("🛑 Stopping bookkeeping worker...")
		w.mu.Lock()
		w.stopped = true
		close(w.stopChan)
		w.mu.Unlock()
		w.wg.Wait()
		log.Println("✅ Bookkeeping worker stopped")
	})
}

// Enqueue implements BookkeepingWorker. It never blocks; a full queue or a
// stopped worker drops the job.
func (w *bookkeepingWorker) Enqueue(job BookkeepingJob) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		w.logger.Warn("bookkeeping worker stopped, dropping job", "kind", job.Kind, "subject", job.Subject)
		return false
	}

	select {
	case w.jobQueue <- job:
		return true
	default:
		w.logger.Warn("bookkeeping queue full, dropping job", "kind", job.Kind, "subject", job.Subject)
		return false
	}
}

func (w *bookkeepingWorker) processJobs(workerID int) {
	defer w.wg.Done()

	for {
		select {
		case job := <-w.jobQueue:
			w.run(workerID, job)
		case <-w.stopChan:
			for {
				select {
				case job := <-w.jobQueue:
					w.run(workerID, job)
				default:
					return
				}
			}
		}
	}
}

func (w *bookkeepingWorker) run(workerID int, job BookkeepingJob) {
	ctx, cancel := context.WithTimeout(context.Background(), w.jobTimeout)
	defer cancel()

	if err := w.handle(ctx, job); err != nil {
		w.logger.Error("bookkeeping job failed", "worker", workerID, "kind", job.Kind, "subject", job.Subject, "error", err)
		return
	}
	w.logger.Debug("bookkeeping job done", "worker", workerID, "kind", job.Kind, "subject", job.Subject)
}

func (w *bookkeepingWorker) handle(ctx context.Context, job BookkeepingJob) error {
	switch job.Kind {
	case JobEnsureUser:
		return w.userRepo.EnsureUser(ctx, job.Subject, models.DefaultUsername(job.Subject))
	case JobIncrementCount:
		// the ensure job may still be queued on another worker
		if err := w.userRepo.EnsureUser(ctx, job.Subject, models.DefaultUsername(job.Subject)); err != nil {
			return err
		}
		return w.userRepo.IncrementAnalysisCount(ctx, job.Subject)
	default:
		return fmt.Errorf("unknown bookkeeping job kind %q", job.Kind)
	}
}
