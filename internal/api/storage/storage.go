package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segevsig/careerOps/internal/api/model"
	"github.com/segevsig/careerOps/internal/coverletter"
	"github.com/segevsig/careerOps/shared/postgresql"
)

// ErrNotFound is returned when a record does not exist or is owned by
// someone else.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("record already exists")

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// CreateCoverLetterJob persists a new job row. The insert is synchronous:
// the client-visible accept response must not outrun the durable record.
func (s *Storage) CreateCoverLetterJob(ctx context.Context, job *model.CoverLetterJob) error {
	query := `
		INSERT INTO cover_letter_jobs (
			job_id, user_id, status, job_description,
			cv_text, tone, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.UserID,
		job.Status,
		job.JobDescription,
		job.CVText,
		job.Tone,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create cover letter job: %w", err)
	}

	return nil
}

// GetCoverLetterJob fetches a job by its external id, scoped to the owner.
// A job owned by someone else is indistinguishable from a missing one.
func (s *Storage) GetCoverLetterJob(ctx context.Context, jobID string, userID int64) (*model.CoverLetterJob, error) {
	var job model.CoverLetterJob
	query := `
		SELECT id, job_id, user_id, status, job_description, cv_text,
		       COALESCE(tone, 'professional') AS tone,
		       cover_letter, error_message, created_at, updated_at, completed_at
		FROM cover_letter_jobs
		WHERE job_id = $1 AND user_id = $2
	`

	err := s.db.GetContext(ctx, &job, query, jobID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coverletter.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get cover letter job: %w", err)
	}

	return &job, nil
}

// Users

func (s *Storage) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
	).Scan(&id)
	if err != nil {
		// Two concurrent registrations can both pass the email lookup; the
		// unique constraint is the authority.
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	return id, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (error code 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `
		SELECT id, email, password_hash, first_name, last_name, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`

	err := s.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	query := `
		SELECT id, email, password_hash, first_name, last_name, created_at
		FROM users
		WHERE id = $1
	`

	err := s.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Applications

func (s *Storage) ListApplications(ctx context.Context, userID int64) ([]model.Application, error) {
	query := `
		SELECT id, user_id, company_name, position_title, status,
		       applied_date, applied_from, notes, created_at, updated_at
		FROM job_applications
		WHERE user_id = $1
		ORDER BY applied_date DESC, id DESC
	`

	var apps []model.Application
	if err := s.db.SelectContext(ctx, &apps, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return apps, nil
}

func (s *Storage) GetApplication(ctx context.Context, id, userID int64) (*model.Application, error) {
	query := `
		SELECT id, user_id, company_name, position_title, status,
		       applied_date, applied_from, notes, created_at, updated_at
		FROM job_applications
		WHERE id = $1 AND user_id = $2
	`

	var app model.Application
	err := s.db.GetContext(ctx, &app, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return &app, nil
}

func (s *Storage) CreateApplication(ctx context.Context, app *model.Application) (int64, error) {
	query := `
		INSERT INTO job_applications (
			user_id, company_name, position_title, status,
			applied_date, applied_from, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		app.UserID,
		app.CompanyName,
		app.PositionTitle,
		app.Status,
		app.AppliedDate,
		app.AppliedFrom,
		app.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create application: %w", err)
	}

	return id, nil
}

func (s *Storage) UpdateApplication(ctx context.Context, app *model.Application) error {
	query := `
		UPDATE job_applications
		SET company_name = $1,
		    position_title = $2,
		    status = $3,
		    applied_date = $4,
		    applied_from = $5,
		    notes = $6,
		    updated_at = NOW()
		WHERE id = $7 AND user_id = $8
	`

	result, err := s.db.ExecContext(ctx, query,
		app.CompanyName,
		app.PositionTitle,
		app.Status,
		app.AppliedDate,
		app.AppliedFrom,
		app.Notes,
		app.ID,
		app.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) DeleteApplication(ctx context.Context, id, userID int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM job_applications WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Dashboard

func (s *Storage) GetDashboardStats(ctx context.Context, userID int64) (*model.DashboardStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'applied') AS applied,
			COUNT(*) FILTER (WHERE status = 'interview') AS interviews,
			COUNT(*) FILTER (WHERE status = 'offer') AS offers,
			COUNT(*) FILTER (WHERE status = 'rejected') AS rejections,
			COUNT(*) AS total
		FROM job_applications
		WHERE user_id = $1
	`

	var stats model.DashboardStats
	if err := s.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}

	return &stats, nil
}
