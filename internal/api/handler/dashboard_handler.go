package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/segevsig/careerOps/internal/api/dto"
	"github.com/segevsig/careerOps/internal/api/storage"
)

// DashboardHandler serves the user dashboard aggregate
type DashboardHandler struct {
	logger  *slog.Logger
	storage *storage.Storage
}

// NewDashboardHandler creates a new DashboardHandler instance
func NewDashboardHandler(deps *Dependencies) *DashboardHandler {
	return &DashboardHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
	}
}

// Get handles GET /api/v1/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx := c.Request.Context()

	user, err := h.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("Failed to get user", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	stats, err := h.storage.GetDashboardStats(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to get dashboard stats", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	c.JSON(http.StatusOK, dto.DashboardResponse{
		User: userDTO(user),
		Stats: dto.DashboardStatsDTO{
			Applied:    stats.Applied,
			Interviews: stats.Interviews,
			Offers:     stats.Offers,
			Rejections: stats.Rejections,
			Total:      stats.Total,
		},
	})
}
