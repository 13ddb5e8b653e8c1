package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segevsig/careerOps/internal/ai"
	"github.com/segevsig/careerOps/internal/coverletter"
)

// JobStore is the subset of the worker storage the processor writes through.
type JobStore interface {
	MarkProcessing(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, jobID, result string) error
	MarkFailed(ctx context.Context, jobID, errorDetail string) error
}

// TextGenerator produces text from a prompt. The AI service client
// implements it.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Processor runs a single generation job end to end. It is shared by the
// queue consumer and the reconciliation scanner so both paths apply the
// same status transitions.
type Processor struct {
	store      JobStore
	generator  TextGenerator
	logger     *slog.Logger
	jobTimeout time.Duration
}

// NewProcessor creates a new Processor instance
func NewProcessor(store JobStore, generator TextGenerator, logger *slog.Logger, jobTimeout time.Duration) *Processor {
	return &Processor{
		store:      store,
		generator:  generator,
		logger:     logger,
		jobTimeout: jobTimeout,
	}
}

// Process executes one job. A nil return means the job reached a settled
// outcome (completed, failed, or already finished elsewhere) and its
// delivery can be acked. A non-nil return means an infrastructure error
// where retrying the same job may succeed.
func (p *Processor) Process(ctx context.Context, msg coverletter.Message) error {
	log := p.logger.With(slog.String("job_id", msg.JobID))

	err := p.store.MarkProcessing(ctx, msg.JobID)
	switch {
	case errors.Is(err, coverletter.ErrJobTerminal):
		// Duplicate delivery of a job that already finished. Nothing to do.
		log.Warn("Skipping job already in terminal state")
		return nil
	case errors.Is(err, coverletter.ErrJobNotFound):
		// A message without a backing row can never succeed, so requeueing
		// it would loop forever.
		log.Warn("Dropping message for unknown job")
		return nil
	case err != nil:
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	log.Info("Processing cover letter job", slog.String("tone", string(msg.Tone)))

	genCtx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	prompt := ai.CoverLetterPrompt(msg.Input, msg.Tone)
	text, genErr := p.generator.GenerateText(genCtx, prompt)
	if genErr != nil {
		// Generation failure is an outcome of the job, not an
		// infrastructure error: record it and settle the message.
		log.Error("Cover letter generation failed", slog.String("error", genErr.Error()))

		if err := p.store.MarkFailed(ctx, msg.JobID, genErr.Error()); err != nil {
			if errors.Is(err, coverletter.ErrJobTerminal) {
				return nil
			}
			return fmt.Errorf("failed to mark job failed: %w", err)
		}
		return nil
	}

	if err := p.store.MarkCompleted(ctx, msg.JobID, text); err != nil {
		if errors.Is(err, coverletter.ErrJobTerminal) {
			return nil
		}
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	log.Info("Cover letter job completed")
	return nil
}
