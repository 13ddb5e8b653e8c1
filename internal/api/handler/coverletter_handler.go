package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/segevsig/careerOps/internal/api/dto"
	"github.com/segevsig/careerOps/internal/api/producer"
	"github.com/segevsig/careerOps/internal/api/storage"
	"github.com/segevsig/careerOps/internal/coverletter"
)

// CoverLetterHandler handles asynchronous cover letter generation requests
type CoverLetterHandler struct {
	logger   *slog.Logger
	storage  *storage.Storage
	producer *producer.Producer
}

// NewCoverLetterHandler creates a new CoverLetterHandler instance
func NewCoverLetterHandler(deps *Dependencies) *CoverLetterHandler {
	return &CoverLetterHandler{
		logger:   deps.Logger,
		storage:  deps.Storage,
		producer: deps.Producer,
	}
}

// Submit handles POST /api/v1/cover-letter
// Accepts the request immediately; generation happens in the worker.
func (h *CoverLetterHandler) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.SubmitCoverLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	input := coverletter.Input{
		JobDescription: req.JobDescription,
		CVText:         req.CVText,
	}

	msg, err := h.producer.Submit(c.Request.Context(), userID, input, req.Tone)
	if err != nil {
		if errors.Is(err, coverletter.ErrInvalidInput) || errors.Is(err, coverletter.ErrInvalidTone) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to submit cover letter job", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit cover letter job"})
		return
	}

	c.JSON(http.StatusAccepted, dto.SubmitCoverLetterResponse{
		JobID:   msg.JobID,
		Status:  string(coverletter.StatusPending),
		Message: "Cover letter generation started, poll the status endpoint for the result",
	})
}

// Status handles GET /api/v1/cover-letter/:job_id
// Returns 404 when the job does not exist or belongs to another user.
func (h *CoverLetterHandler) Status(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	jobID := c.Param("job_id")

	job, err := h.storage.GetCoverLetterJob(c.Request.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, coverletter.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logger.Error("Failed to get cover letter job",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job status"})
		return
	}

	resp := dto.CoverLetterStatusResponse{
		JobID:     job.JobID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if job.CoverLetter.Valid {
		resp.Result = &job.CoverLetter.String
	}
	if job.ErrorMessage.Valid {
		resp.ErrorDetail = &job.ErrorMessage.String
	}
	if job.CompletedAt.Valid {
		resp.CompletedAt = &job.CompletedAt.Time
	}

	c.JSON(http.StatusOK, resp)
}
