package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/segevsig/careerOps/internal/coverletter"
)

// jobDelivery pairs a decoded message with the broker delivery it arrived
// on, so the worker that finishes the job can ack or nack it.
type jobDelivery struct {
	msg      coverletter.Message
	delivery amqp.Delivery
}

// consumeLoop subscribes to the work queue and dispatches deliveries until
// the context is canceled. When the delivery channel closes (broker restart,
// channel error) it re-subscribes after a pause; the lazy rabbitmq client
// redials underneath.
func (w *Worker) consumeLoop(ctx context.Context) {
	for {
		deliveries, err := w.rabbitClient.Consume(w.queueName, w.workerID, w.prefetchCount)
		if err != nil {
			w.logger.Error("Failed to start consuming, retrying",
				slog.String("queue", w.queueName),
				slog.String("error", err.Error()),
				slog.Duration("retry_in", w.resubscribeInterval),
			)

			select {
			case <-ctx.Done():
				return
			case <-time.After(w.resubscribeInterval):
				continue
			}
		}

		w.logger.Info("RabbitMQ consumer started",
			slog.String("queue", w.queueName),
			slog.String("consumer_tag", w.workerID),
			slog.Int("prefetch_count", w.prefetchCount),
		)

		if !w.dispatch(ctx, deliveries) {
			return
		}
	}
}

// dispatch feeds deliveries to the worker pool. It returns true when the
// delivery channel closed and the caller should re-subscribe, false when
// the context was canceled.
func (w *Worker) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return false

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return true
			}

			var msg coverletter.Message
			if err := json.Unmarshal(delivery.Body, &msg); err != nil {
				w.rejectMalformed(delivery, "Failed to parse message JSON", err.Error())
				continue
			}
			if msg.JobID == "" {
				w.rejectMalformed(delivery, "Message missing job id", "")
				continue
			}

			select {
			case w.jobsChan <- jobDelivery{msg: msg, delivery: delivery}:
				w.logger.Debug("Job dispatched to worker pool",
					slog.String("job_id", msg.JobID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching job")
				// NACK with requeue so another consumer picks it up.
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return false
			}
		}
	}
}

// rejectMalformed nacks a message that can never be processed. No requeue:
// a malformed payload will not parse any better on redelivery.
func (w *Worker) rejectMalformed(delivery amqp.Delivery, reason, detail string) {
	w.logger.Error(reason,
		slog.String("error", detail),
		slog.String("body", string(delivery.Body)),
	)
	if nackErr := delivery.Nack(false, false); nackErr != nil {
		w.logger.Error("Failed to NACK malformed message",
			slog.String("error", nackErr.Error()),
		)
	}
}
