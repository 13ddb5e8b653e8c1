package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/segevsig/careerOps/internal/ai"
	"github.com/segevsig/careerOps/internal/config"
	"github.com/segevsig/careerOps/internal/worker"
	"github.com/segevsig/careerOps/shared/logger"
	"github.com/segevsig/careerOps/shared/postgresql"
	"github.com/segevsig/careerOps/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	appLogger.Info("Database connection established")

	// Unlike the API, the worker is useless without a broker, so the first
	// connection is established up front, with retries, and startup fails
	// when they are exhausted.
	rabbitClient := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err := connectWithRetry(rabbitClient, &cfg.RabbitMQ.Connection, appLogger.Logger); err != nil {
		dbClient.Close()
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	appLogger.Info("RabbitMQ connection established")

	aiClient := ai.NewClient(cfg.AI.BaseURL, cfg.AI.RequestTimeout)

	// Create worker instance
	workerInstance := worker.NewWorker(&worker.Config{
		Logger:              appLogger.Logger,
		DBClient:            dbClient,
		RabbitClient:        rabbitClient,
		Generator:           aiClient,
		QueueName:           cfg.RabbitMQ.Queue.Name,
		PrefetchCount:       cfg.RabbitMQ.Consumer.PrefetchCount,
		JobTimeout:          cfg.Worker.JobTimeout,
		ResubscribeInterval: cfg.Worker.ResubscribeInterval,
		ReconcileInterval:   cfg.Worker.ReconcileInterval,
		ReconcileGrace:      cfg.Worker.ReconcileGrace,
		ReconcileBatchSize:  cfg.Worker.ReconcileBatchSize,
	})

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := workerInstance.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	appLogger.Info("Worker service started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Worker error",
			slog.Any("error", err),
		)
		return err
	}

	// Cancel context to stop worker
	cancel()

	// Give worker time to shutdown gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Stop worker
	done := make(chan struct{})
	go func() {
		workerInstance.Stop()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Worker stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	// Cleanup function to close all resources
	cleanup := func() {
		if dbClient != nil {
			dbClient.Close()
		}
		if rabbitClient != nil {
			rabbitClient.Close()
		}
	}
	cleanup()

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// connectWithRetry establishes the initial broker connection. The lazy
// client surfaces dial errors without retrying, so startup retry policy
// lives here.
func connectWithRetry(client *rabbitmq.Client, cfg *config.ConnectionConfig, logger *slog.Logger) error {
	var err error
	for attempt := 1; attempt <= cfg.RetryAttempts; attempt++ {
		if _, err = client.Channel(); err == nil {
			return nil
		}

		logger.Warn("RabbitMQ connection attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.RetryAttempts),
			slog.String("error", err.Error()),
		)

		if attempt < cfg.RetryAttempts {
			time.Sleep(cfg.RetryInterval)
		}
	}
	return err
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) *rabbitmq.Client {
	rabbitConfig := &rabbitmq.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		VHost:       cfg.VHost,
		Heartbeat:   cfg.Connection.Heartbeat,
		DialTimeout: cfg.Connection.DialTimeout,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}
