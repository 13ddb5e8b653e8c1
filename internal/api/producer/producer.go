package producer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/segevsig/careerOps/internal/api/model"
	"github.com/segevsig/careerOps/internal/coverletter"
)

// Store persists job records.
type Store interface {
	CreateCoverLetterJob(ctx context.Context, job *model.CoverLetterJob) error
}

// Publisher hands messages to the broker.
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, v any) error
}

// Producer accepts generation requests. The durable row is written
// synchronously; the broker publish is best-effort and never fails a
// submission - the reconciliation scanner picks up jobs whose message was
// lost.
type Producer struct {
	store          Store
	publisher      Publisher
	logger         *slog.Logger
	queue          string
	publishTimeout time.Duration
}

func New(store Store, publisher Publisher, logger *slog.Logger, queue string) *Producer {
	return &Producer{
		store:          store,
		publisher:      publisher,
		logger:         logger,
		queue:          queue,
		publishTimeout: 10 * time.Second,
	}
}

// Submit validates the input, persists a pending job, and publishes the work
// message without waiting for the broker. It returns as soon as the row is
// durable; the caller never blocks on the AI call.
func (p *Producer) Submit(ctx context.Context, userID int64, input coverletter.Input, tone string) (*coverletter.Message, error) {
	if input.JobDescription == "" || input.CVText == "" {
		return nil, fmt.Errorf("%w: jobDescription and cvText are required", coverletter.ErrInvalidInput)
	}

	parsedTone, err := coverletter.ParseTone(tone)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &model.CoverLetterJob{
		JobID:          uuid.New().String(),
		UserID:         userID,
		Status:         string(coverletter.StatusPending),
		JobDescription: input.JobDescription,
		CVText:         input.CVText,
		Tone:           string(parsedTone),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := p.store.CreateCoverLetterJob(ctx, job); err != nil {
		return nil, err
	}

	msg := &coverletter.Message{
		JobID:     job.JobID,
		OwnerID:   userID,
		Input:     input,
		Tone:      parsedTone,
		CreatedAt: now,
	}

	go p.publish(*msg)

	return msg, nil
}

// publish runs detached from the request. A failure here only delays the
// job: the row is already pending and the scanner will find it.
func (p *Producer) publish(msg coverletter.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), p.publishTimeout)
	defer cancel()

	if err := p.publisher.PublishJSON(ctx, p.queue, msg); err != nil {
		p.logger.Error("Failed to publish cover letter job, scanner will pick it up",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
		return
	}

	p.logger.Debug("Cover letter job published",
		slog.String("job_id", msg.JobID),
		slog.String("queue", p.queue),
	)
}
