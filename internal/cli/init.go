// Package cli holds the initialization helpers shared by cmd/warchest and
// cmd/warchest-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"warchest/internal/amqp"
	"warchest/internal/config"
	"warchest/internal/export"
	gsheet "warchest/internal/export/google"
	mem "warchest/internal/export/memory"
	"warchest/internal/storage"
)

// SetupLogger installs a text slog handler on stdout as the default logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. Missing files are fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment, exiting
// the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the repository and runs migrations, exiting on failure.
func InitSQLite(logger *slog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// InitAMQP connects to the broker. A failed connection is logged and
// returns nil so callers can run without messaging.
func InitAMQP(logger *slog.Logger, cfg *config.Config) *amqp.Client {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, continuing without messaging", "error", err)
		return nil
	}
	return client
}

// InitExporter selects the run export backend from configuration. Backend
// "none" returns nil.
func InitExporter(logger *slog.Logger, cfg *config.Config) export.RunWriter {
	switch cfg.ExportBackend {
	case "sheets":
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets export", "error", err)
			os.Exit(1)
		}
		logger.Info("Initialized Google Sheets export backend")
		return client
	case "memory":
		logger.Info("Initialized in-memory export backend")
		return mem.New()
	default:
		return nil
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
