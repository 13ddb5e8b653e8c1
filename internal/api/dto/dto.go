package dto

import "time"

// Auth

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserDTO struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// Cover letter jobs

type SubmitCoverLetterRequest struct {
	JobDescription string `json:"jobDescription"`
	CVText         string `json:"cvText"`
	Tone           string `json:"tone"`
}

type SubmitCoverLetterResponse struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type CoverLetterStatusResponse struct {
	JobID       string     `json:"jobId"`
	Status      string     `json:"status"`
	Result      *string    `json:"result,omitempty"`
	ErrorDetail *string    `json:"errorDetail,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Applications

type CreateApplicationRequest struct {
	CompanyName   string `json:"companyName" binding:"required"`
	PositionTitle string `json:"positionTitle" binding:"required"`
	Status        string `json:"status"`
	AppliedDate   string `json:"appliedDate" binding:"required"`
	AppliedFrom   string `json:"appliedFrom"`
	Notes         string `json:"notes"`
}

type UpdateApplicationRequest struct {
	CompanyName   *string `json:"companyName"`
	PositionTitle *string `json:"positionTitle"`
	Status        *string `json:"status"`
	AppliedDate   *string `json:"appliedDate"`
	AppliedFrom   *string `json:"appliedFrom"`
	Notes         *string `json:"notes"`
}

type ApplicationDTO struct {
	ID            int64  `json:"id"`
	CompanyName   string `json:"companyName"`
	PositionTitle string `json:"positionTitle"`
	Status        string `json:"status"`
	AppliedDate   string `json:"appliedDate"`
	AppliedFrom   string `json:"appliedFrom"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

// Dashboard

type DashboardStatsDTO struct {
	Applied    int `json:"applied"`
	Interviews int `json:"interviews"`
	Offers     int `json:"offers"`
	Rejections int `json:"rejections"`
	Total      int `json:"total"`
}

type DashboardResponse struct {
	User  UserDTO           `json:"user"`
	Stats DashboardStatsDTO `json:"stats"`
}

// Resume scoring

type ResumeScoringRequest struct {
	CVText         string `json:"cvText" binding:"required"`
	JobDescription string `json:"jobDescription" binding:"required"`
}
