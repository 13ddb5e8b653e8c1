package worker

import (
	"context"
	"fmt"
	"log/slog"
)

// spawnWorkerPool spawns one goroutine per prefetch slot. Pool size equals
// the prefetch count so the broker never holds more unacked deliveries than
// we have workers to settle them.
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.prefetchCount),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.prefetchCount; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each worker goroutine
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case jd, ok := <-w.jobsChan:
			if !ok {
				w.logger.Info("Worker goroutine stopping - jobsChan closed",
					slog.String("worker_name", workerName),
				)
				return
			}

			w.logger.Debug("Worker received job",
				slog.String("worker_name", workerName),
				slog.String("job_id", jd.msg.JobID),
				slog.Uint64("delivery_tag", jd.delivery.DeliveryTag),
			)

			err := w.processor.Process(ctx, jd.msg)
			if err != nil {
				// Infrastructure error: requeue so the job is retried once
				// the database or broker recovers.
				w.logger.Error("Job processing failed",
					slog.String("worker_name", workerName),
					slog.String("job_id", jd.msg.JobID),
					slog.String("error", err.Error()),
				)

				if nackErr := jd.delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message",
						slog.String("worker_name", workerName),
						slog.String("job_id", jd.msg.JobID),
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if ackErr := jd.delivery.Ack(false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("worker_name", workerName),
					slog.String("job_id", jd.msg.JobID),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}
