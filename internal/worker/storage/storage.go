package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/segevsig/careerOps/internal/coverletter"
)

// Storage handles all database operations for the worker. Every status
// write is guarded against the job already being terminal, so a duplicate
// delivery or a consumer/scanner race can never clobber a finished result.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// MarkProcessing moves a job to processing. Two workers both marking the
// same job processing is tolerated; marking a terminal job is not.
func (s *Storage) MarkProcessing(ctx context.Context, jobID string) error {
	query := `
		UPDATE cover_letter_jobs
		SET status = $1,
		    updated_at = NOW()
		WHERE job_id = $2
		  AND status NOT IN ($3, $4)
	`

	return s.guardedUpdate(ctx, jobID, query,
		coverletter.StatusProcessing, jobID, coverletter.StatusCompleted, coverletter.StatusFailed)
}

// MarkCompleted writes the terminal completed state together with the
// generated text and the completion timestamp.
func (s *Storage) MarkCompleted(ctx context.Context, jobID, result string) error {
	query := `
		UPDATE cover_letter_jobs
		SET status = $1,
		    cover_letter = $2,
		    error_message = NULL,
		    updated_at = NOW(),
		    completed_at = NOW()
		WHERE job_id = $3
		  AND status NOT IN ($4, $5)
	`

	return s.guardedUpdate(ctx, jobID, query,
		coverletter.StatusCompleted, result, jobID, coverletter.StatusCompleted, coverletter.StatusFailed)
}

// MarkFailed writes the terminal failed state together with the error detail.
func (s *Storage) MarkFailed(ctx context.Context, jobID, errorDetail string) error {
	query := `
		UPDATE cover_letter_jobs
		SET status = $1,
		    error_message = $2,
		    updated_at = NOW(),
		    completed_at = NOW()
		WHERE job_id = $3
		  AND status NOT IN ($4, $5)
	`

	return s.guardedUpdate(ctx, jobID, query,
		coverletter.StatusFailed, errorDetail, jobID, coverletter.StatusCompleted, coverletter.StatusFailed)
}

// guardedUpdate runs a status UPDATE and classifies a zero-row result as
// either an unknown job or a job already in a terminal state.
func (s *Storage) guardedUpdate(ctx context.Context, jobID, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var status string
	err = s.db.GetContext(ctx, &status, `SELECT status FROM cover_letter_jobs WHERE job_id = $1`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return coverletter.ErrJobNotFound
		}
		return fmt.Errorf("failed to check job status: %w", err)
	}

	s.logger.Warn("Refused status write for terminal job",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)
	return coverletter.ErrJobTerminal
}

type stalePendingRow struct {
	JobID          string    `db:"job_id"`
	UserID         int64     `db:"user_id"`
	JobDescription string    `db:"job_description"`
	CVText         string    `db:"cv_text"`
	Tone           string    `db:"tone"`
	CreatedAt      time.Time `db:"created_at"`
}

// FindStalePending returns pending jobs older than the grace window, oldest
// first, bounded to limit. These are jobs whose broker message is presumed
// lost.
func (s *Storage) FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]coverletter.Message, error) {
	query := `
		SELECT job_id, user_id, job_description, cv_text,
		       COALESCE(tone, 'professional') AS tone,
		       created_at
		FROM cover_letter_jobs
		WHERE status = $1
		  AND created_at < NOW() - ($2 * INTERVAL '1 second')
		ORDER BY created_at ASC
		LIMIT $3
	`

	var rows []stalePendingRow
	err := s.db.SelectContext(ctx, &rows, query, coverletter.StatusPending, olderThan.Seconds(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale pending jobs: %w", err)
	}

	messages := make([]coverletter.Message, len(rows))
	for i, row := range rows {
		messages[i] = coverletter.Message{
			JobID:   row.JobID,
			OwnerID: row.UserID,
			Input: coverletter.Input{
				JobDescription: row.JobDescription,
				CVText:         row.CVText,
			},
			Tone:      coverletter.Tone(row.Tone),
			CreatedAt: row.CreatedAt,
		}
	}

	return messages, nil
}
