package handler

import (
	"log/slog"
	"time"

	"github.com/segevsig/careerOps/internal/ai"
	"github.com/segevsig/careerOps/internal/api/producer"
	"github.com/segevsig/careerOps/internal/api/storage"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Storage   *storage.Storage
	Producer  *producer.Producer
	AI        *ai.Client
	JWTSecret string
	TokenTTL  time.Duration
}
