// Package queue runs the polling workers that drain the indexing job queue.
// Safety across concurrent workers comes entirely from the conditional
// status update inside JobStore.PickNext; workers hold no job state beyond
// the one claim they are currently processing.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"workspace-ai/internal/storage"
)

// Processor handles one claimed job.
type Processor interface {
	Process(ctx context.Context, job *storage.IndexingJob) error
}

// Worker polls the job queue and dispatches claimed jobs to a Processor.
type Worker struct {
	jobs         storage.JobStore
	processor    Processor
	workerCount  int
	pollInterval time.Duration
	reclaimAfter time.Duration
	logger       *slog.Logger
}

// NewWorker creates a worker pool over the given queue and processor.
func NewWorker(jobs storage.JobStore, processor Processor, workerCount int, pollInterval, reclaimAfter time.Duration) *Worker {
	if workerCount <= 0 {
		workerCount = 1
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Worker{
		jobs:         jobs,
		processor:    processor,
		workerCount:  workerCount,
		pollInterval: pollInterval,
		reclaimAfter: reclaimAfter,
		logger:       slog.Default(),
	}
}

// Run starts the pollers plus the stale-job reclaimer and blocks until ctx
// is canceled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			w.poll(ctx, worker)
		}(i)
	}

	if w.reclaimAfter > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.reclaimLoop(ctx)
		}()
	}

	wg.Wait()
}

func (w *Worker) poll(ctx context.Context, worker int) {
	logger := w.logger.With("worker", worker)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		// Drain everything available before going back to sleep.
		for {
			if ctx.Err() != nil {
				return
			}
			claimed, err := w.runOne(ctx, logger)
			if err != nil || !claimed {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runOne claims and processes at most one job. Returns whether a job was
// claimed so the caller knows to keep draining.
func (w *Worker) runOne(ctx context.Context, logger *slog.Logger) (bool, error) {
	job, err := w.jobs.PickNext(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to pick next job", "error", err)
		return false, err
	}
	if job == nil {
		// Queue empty, or another worker won the claim.
		return false, nil
	}

	logger.InfoContext(ctx, "processing job",
		"job_id", job.ID, "resource_type", job.ResourceType, "resource_id", job.ResourceID,
		"attempts", job.Attempts)

	if err := w.processor.Process(ctx, job); err != nil {
		logger.ErrorContext(ctx, "job failed", "job_id", job.ID, "error", err)
		if failErr := w.jobs.Fail(ctx, job.ID, err.Error()); failErr != nil {
			logger.ErrorContext(ctx, "failed to record job failure", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.jobs.Complete(ctx, job.ID); err != nil {
		logger.ErrorContext(ctx, "failed to record job completion", "job_id", job.ID, "error", err)
	}
	return true, nil
}

func (w *Worker) reclaimLoop(ctx context.Context) {
	ticker := time.NewTicker(w.reclaimAfter)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reclaimed, err := w.jobs.ReclaimStale(ctx, w.reclaimAfter)
			if err != nil {
				w.logger.ErrorContext(ctx, "failed to reclaim stale jobs", "error", err)
				continue
			}
			if reclaimed > 0 {
				w.logger.WarnContext(ctx, "reclaimed stale processing jobs", "count", reclaimed)
			}
		}
	}
}
