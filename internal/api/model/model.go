package model

import (
	"database/sql"
	"time"
)

// CoverLetterJob is the durable record for one asynchronous generation job.
// The row, not the broker message, is the source of truth for job state.
type CoverLetterJob struct {
	ID             int64          `db:"id"`
	JobID          string         `db:"job_id"`
	UserID         int64          `db:"user_id"`
	Status         string         `db:"status"`
	JobDescription string         `db:"job_description"`
	CVText         string         `db:"cv_text"`
	Tone           string         `db:"tone"`
	CoverLetter    sql.NullString `db:"cover_letter"`
	ErrorMessage   sql.NullString `db:"error_message"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	CompletedAt    sql.NullTime   `db:"completed_at"`
}

// Application is a tracked job application.
type Application struct {
	ID            int64          `db:"id"`
	UserID        int64          `db:"user_id"`
	CompanyName   string         `db:"company_name"`
	PositionTitle string         `db:"position_title"`
	Status        string         `db:"status"`
	AppliedDate   time.Time      `db:"applied_date"`
	AppliedFrom   string         `db:"applied_from"`
	Notes         sql.NullString `db:"notes"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// User is a registered account.
type User struct {
	ID           int64          `db:"id"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	FirstName    sql.NullString `db:"first_name"`
	LastName     sql.NullString `db:"last_name"`
	CreatedAt    time.Time      `db:"created_at"`
}

// DashboardStats aggregates a user's application counts by status.
type DashboardStats struct {
	Applied    int `db:"applied"`
	Interviews int `db:"interviews"`
	Offers     int `db:"offers"`
	Rejections int `db:"rejections"`
	Total      int `db:"total"`
}
