package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"warchest/internal/cli"
	apphttp "warchest/internal/http"
	"warchest/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting warchest server")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// The server runs without AMQP; the derive worker just won't be
	// notified until the broker is back.
	amqpClient := cli.InitAMQP(logger, cfg)

	planner := services.NewPlannerService(repo, amqpClient, cfg.GrowthLookback)
	defer func() {
		if err := planner.Close(); err != nil {
			logger.Error("Failed to close planner service", "error", err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, planner, cfg.DefaultWeekCount)

	ctx, stop := cli.SignalContext()
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Listening", "port", cfg.Port, "default_weeks", cfg.DefaultWeekCount)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
