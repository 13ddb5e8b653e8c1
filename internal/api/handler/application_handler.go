package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/segevsig/careerOps/internal/api/dto"
	"github.com/segevsig/careerOps/internal/api/model"
	"github.com/segevsig/careerOps/internal/api/storage"
)

const appliedDateLayout = "2006-01-02"

var applicationStatuses = map[string]bool{
	"applied":   true,
	"interview": true,
	"offer":     true,
	"rejected":  true,
}

// ApplicationHandler handles CRUD on job application records
type ApplicationHandler struct {
	logger  *slog.Logger
	storage *storage.Storage
}

// NewApplicationHandler creates a new ApplicationHandler instance
func NewApplicationHandler(deps *Dependencies) *ApplicationHandler {
	return &ApplicationHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
	}
}

// List handles GET /api/v1/applications
func (h *ApplicationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	apps, err := h.storage.ListApplications(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list applications", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list applications"})
		return
	}

	out := make([]dto.ApplicationDTO, len(apps))
	for i := range apps {
		out[i] = applicationDTO(&apps[i])
	}

	c.JSON(http.StatusOK, gin.H{"applications": out})
}

// Get handles GET /api/v1/applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	app, err := h.storage.GetApplication(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
		h.logger.Error("Failed to get application", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get application"})
		return
	}

	c.JSON(http.StatusOK, applicationDTO(app))
}

// Create handles POST /api/v1/applications
func (h *ApplicationHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "companyName, positionTitle and appliedDate are required",
		})
		return
	}

	status := req.Status
	if status == "" {
		status = "applied"
	}
	if !applicationStatuses[status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of applied, interview, offer, rejected"})
		return
	}

	appliedDate, err := time.Parse(appliedDateLayout, req.AppliedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "appliedDate must be formatted as YYYY-MM-DD"})
		return
	}

	appliedFrom := req.AppliedFrom
	if appliedFrom == "" {
		appliedFrom = "unknown"
	}

	app := &model.Application{
		UserID:        userID,
		CompanyName:   req.CompanyName,
		PositionTitle: req.PositionTitle,
		Status:        status,
		AppliedDate:   appliedDate,
		AppliedFrom:   appliedFrom,
		Notes:         sql.NullString{String: req.Notes, Valid: req.Notes != ""},
	}

	id, err := h.storage.CreateApplication(c.Request.Context(), app)
	if err != nil {
		h.logger.Error("Failed to create application", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create application"})
		return
	}
	app.ID = id
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt

	c.JSON(http.StatusCreated, applicationDTO(app))
}

// Update handles PUT /api/v1/applications/:id
func (h *ApplicationHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	var req dto.UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	app, err := h.storage.GetApplication(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
		h.logger.Error("Failed to get application", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update application"})
		return
	}

	if req.CompanyName != nil {
		app.CompanyName = *req.CompanyName
	}
	if req.PositionTitle != nil {
		app.PositionTitle = *req.PositionTitle
	}
	if req.Status != nil {
		if !applicationStatuses[*req.Status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of applied, interview, offer, rejected"})
			return
		}
		app.Status = *req.Status
	}
	if req.AppliedDate != nil {
		appliedDate, err := time.Parse(appliedDateLayout, *req.AppliedDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "appliedDate must be formatted as YYYY-MM-DD"})
			return
		}
		app.AppliedDate = appliedDate
	}
	if req.AppliedFrom != nil {
		app.AppliedFrom = *req.AppliedFrom
	}
	if req.Notes != nil {
		app.Notes = sql.NullString{String: *req.Notes, Valid: *req.Notes != ""}
	}

	if err := h.storage.UpdateApplication(c.Request.Context(), app); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
		h.logger.Error("Failed to update application", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update application"})
		return
	}

	app.UpdatedAt = time.Now()
	c.JSON(http.StatusOK, applicationDTO(app))
}

// Delete handles DELETE /api/v1/applications/:id
func (h *ApplicationHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	if err := h.storage.DeleteApplication(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
		h.logger.Error("Failed to delete application", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete application"})
		return
	}

	c.Status(http.StatusNoContent)
}

func applicationDTO(app *model.Application) dto.ApplicationDTO {
	return dto.ApplicationDTO{
		ID:            app.ID,
		CompanyName:   app.CompanyName,
		PositionTitle: app.PositionTitle,
		Status:        app.Status,
		AppliedDate:   app.AppliedDate.Format(appliedDateLayout),
		AppliedFrom:   app.AppliedFrom,
		Notes:         app.Notes.String,
		CreatedAt:     app.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     app.UpdatedAt.Format(time.RFC3339),
	}
}
