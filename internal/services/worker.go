package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/rag-candidates/internal/repositories"
)

const pendingJobsBatch = 10

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(runID uuid.UUID)
}

type worker struct {
	runRepo      repositories.IndexRunRepository
	indexer      Indexer
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	log          *zap.Logger
}

func NewWorker(
	runRepo repositories.IndexRunRepository,
	indexer Indexer,
	concurrency int,
	pollInterval time.Duration,
	log *zap.Logger,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &worker{
		runRepo:      runRepo,
		indexer:      indexer,
		jobQueue:     make(chan uuid.UUID, 100),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		log:          log,
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("Starting index worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("Stopping index worker")
		close(w.stopChan)
	})
	w.wg.Wait()
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(runID uuid.UUID) {
	select {
	case w.jobQueue <- runID:
		w.log.Debug("Index run enqueued", zap.Stringer("run_id", runID))
	case <-w.stopChan:
		w.log.Warn("Worker stopped, cannot enqueue index run", zap.Stringer("run_id", runID))
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
		case runID := <-w.jobQueue:
			if err := w.runIndex(ctx, runID); err != nil {
				log.Error("Index run failed", zap.Stringer("run_id", runID), zap.Error(err))
			}
		}
	}
}

// runIndex claims a queued run, builds the index and records the outcome. Runs that
// are no longer queued were picked up already and are skipped.
func (w *worker) runIndex(ctx context.Context, runID uuid.UUID) error {
	claimed, err := w.runRepo.Claim(runID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	info, buildErr := w.indexer.Build(ctx)

	if buildErr != nil {
		if err := w.runRepo.UpdateError(runID, buildErr.Error()); err != nil {
			w.log.Error("Failed to record index error", zap.Stringer("run_id", runID), zap.Error(err))
		}
		return buildErr
	}

	if err := w.runRepo.UpdateResult(runID, info); err != nil {
		return err
	}
	w.log.Info("Index run completed",
		zap.Stringer("run_id", runID),
		zap.Int("points", info.Points),
	)
	return nil
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pending, err := w.runRepo.FindPendingJobs(pendingJobsBatch)
			if err != nil {
				w.log.Warn("Failed to fetch pending index runs", zap.Error(err))
				continue
			}
			if len(pending) > 0 {
				w.log.Info("Found pending index runs", zap.Int("count", len(pending)))
			}
			for _, run := range pending {
				w.EnqueueJob(run.ID)
			}
		}
	}
}
