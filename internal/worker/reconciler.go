package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segevsig/careerOps/internal/coverletter"
)

// StaleJobStore finds pending jobs whose queue message is presumed lost.
type StaleJobStore interface {
	FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]coverletter.Message, error)
}

// Reconciler re-processes pending jobs that outlived the grace window.
// Publishing to the broker is best effort, so a crash between the database
// write and the publish leaves a pending row with no message; the scanner
// is the safety net that picks those up.
type Reconciler struct {
	store     StaleJobStore
	processor *Processor
	logger    *slog.Logger

	interval  time.Duration
	grace     time.Duration
	batchSize int

	sweeping atomic.Bool
}

// NewReconciler creates a new Reconciler instance
func NewReconciler(store StaleJobStore, processor *Processor, logger *slog.Logger, interval, grace time.Duration, batchSize int) *Reconciler {
	return &Reconciler{
		store:     store,
		processor: processor,
		logger:    logger,
		interval:  interval,
		grace:     grace,
		batchSize: batchSize,
	}
}

// Run sweeps once at startup, then on every tick until the context is
// canceled.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("Reconciliation scanner started",
		slog.Duration("interval", r.interval),
		slog.Duration("grace", r.grace),
		slog.Int("batch_size", r.batchSize),
	)

	r.Sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciliation scanner stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep finds one batch of stale pending jobs and runs each through the
// processor. A sweep that is still running when the next tick fires is not
// restarted.
func (r *Reconciler) Sweep(ctx context.Context) {
	if !r.sweeping.CompareAndSwap(false, true) {
		r.logger.Debug("Skipping sweep - previous sweep still running")
		return
	}
	defer r.sweeping.Store(false)

	messages, err := r.store.FindStalePending(ctx, r.grace, r.batchSize)
	if err != nil {
		r.logger.Error("Failed to scan for stale jobs",
			slog.String("error", err.Error()),
		)
		return
	}
	if len(messages) == 0 {
		return
	}

	r.logger.Info("Found stale pending jobs",
		slog.Int("count", len(messages)),
	)

	for _, msg := range messages {
		if ctx.Err() != nil {
			return
		}
		if err := r.processor.Process(ctx, msg); err != nil {
			// One broken job must not stop the rest of the batch.
			r.logger.Error("Failed to reconcile stale job",
				slog.String("job_id", msg.JobID),
				slog.String("error", err.Error()),
			)
		}
	}
}
