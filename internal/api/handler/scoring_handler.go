package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/segevsig/careerOps/internal/ai"
	"github.com/segevsig/careerOps/internal/api/dto"
)

// ScoringHandler serves synchronous resume scoring
type ScoringHandler struct {
	logger *slog.Logger
	ai     *ai.Client
}

// NewScoringHandler creates a new ScoringHandler instance
func NewScoringHandler(deps *Dependencies) *ScoringHandler {
	return &ScoringHandler{
		logger: deps.Logger,
		ai:     deps.AI,
	}
}

// Score handles POST /api/v1/resume-scoring
// Unlike cover letters this call is synchronous: the client waits for the
// model, bounded by the AI client timeout.
func (h *ScoringHandler) Score(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.ResumeScoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cvText and jobDescription are required"})
		return
	}

	prompt := ai.ResumeScoringPrompt(req.CVText, req.JobDescription)

	raw, err := h.ai.GenerateText(c.Request.Context(), prompt)
	if err != nil {
		h.logger.Error("Resume scoring generation failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to score resume"})
		return
	}

	result, err := ai.ParseScoringResult(raw)
	if err != nil {
		h.logger.Error("Resume scoring response invalid", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to score resume"})
		return
	}

	c.JSON(http.StatusOK, result)
}
