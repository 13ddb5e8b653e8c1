package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/segevsig/careerOps/internal/worker/storage"
	"github.com/segevsig/careerOps/shared/postgresql"
	"github.com/segevsig/careerOps/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger       *slog.Logger
	DBClient     *postgresql.Client
	RabbitClient *rabbitmq.Client
	Generator    TextGenerator

	QueueName     string
	PrefetchCount int

	JobTimeout          time.Duration
	ResubscribeInterval time.Duration

	ReconcileInterval  time.Duration
	ReconcileGrace     time.Duration
	ReconcileBatchSize int
}

// Worker consumes generation jobs from the queue, runs them through a
// bounded pool, and reconciles jobs whose messages never arrived.
type Worker struct {
	logger       *slog.Logger
	rabbitClient *rabbitmq.Client
	processor    *Processor
	reconciler   *Reconciler

	queueName           string
	prefetchCount       int
	resubscribeInterval time.Duration

	workerID string
	jobsChan chan jobDelivery
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	store := storage.NewStorage(cfg.DBClient.GetDB(), cfg.Logger)
	processor := NewProcessor(store, cfg.Generator, cfg.Logger, cfg.JobTimeout)
	reconciler := NewReconciler(store, processor, cfg.Logger,
		cfg.ReconcileInterval, cfg.ReconcileGrace, cfg.ReconcileBatchSize)

	return &Worker{
		logger:              cfg.Logger,
		rabbitClient:        cfg.RabbitClient,
		processor:           processor,
		reconciler:          reconciler,
		queueName:           cfg.QueueName,
		prefetchCount:       cfg.PrefetchCount,
		resubscribeInterval: cfg.ResubscribeInterval,
		workerID:            fmt.Sprintf("worker-%s", uuid.NewString()[:8]),
		jobsChan:            make(chan jobDelivery),
		stopChan:            make(chan struct{}),
	}
}

// Start begins processing jobs. It blocks until the context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.String("queue", w.queueName),
		slog.Int("concurrency", w.prefetchCount),
	)

	if err := w.rabbitClient.AssertQueue(w.queueName); err != nil {
		return fmt.Errorf("failed to assert queue: %w", err)
	}

	w.spawnWorkerPool(ctx)
	go w.reconciler.Run(ctx)

	w.consumeLoop(ctx)

	w.logger.Info("Worker context canceled, stopping...")
	return nil
}

// Stop gracefully stops the worker pool, letting in-flight jobs finish.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
