package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/segevsig/careerOps/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "careerops-api",
		})
	})

	authHandler := handler.NewAuthHandler(deps)
	coverLetterHandler := handler.NewCoverLetterHandler(deps)
	applicationHandler := handler.NewApplicationHandler(deps)
	dashboardHandler := handler.NewDashboardHandler(deps)
	scoringHandler := handler.NewScoringHandler(deps)

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(handler.AuthRequired(deps.JWTSecret))
	{
		coverLetter := v1.Group("/cover-letter")
		{
			// POST /api/v1/cover-letter - Submit a generation job, returns 202
			coverLetter.POST("", coverLetterHandler.Submit)

			// GET /api/v1/cover-letter/:job_id - Poll job status
			coverLetter.GET("/:job_id", coverLetterHandler.Status)
		}

		applications := v1.Group("/applications")
		{
			applications.GET("", applicationHandler.List)
			applications.POST("", applicationHandler.Create)
			applications.GET("/:id", applicationHandler.Get)
			applications.PUT("/:id", applicationHandler.Update)
			applications.DELETE("/:id", applicationHandler.Delete)
		}

		v1.GET("/dashboard", dashboardHandler.Get)
		v1.POST("/resume-scoring", scoringHandler.Score)
	}

	return r
}
