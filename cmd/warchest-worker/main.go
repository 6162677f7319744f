package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"warchest/internal/amqp"
	"warchest/internal/cli"
	"warchest/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting warchest-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient := cli.InitAMQP(logger, cfg)
	if amqpClient == nil {
		logger.Error("AMQP is required for the derive worker")
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter := cli.InitExporter(logger, cfg)

	deriveWorker := worker.NewDeriveWorker(repo, exporter, cfg.GrowthLookback)

	ctx, stop := cli.SignalContext()
	defer stop()

	// Refresh once at startup so a fresh database gets derived values
	// without waiting for the first run.
	if err := deriveWorker.RefreshDerivedValues(ctx, time.Now()); err != nil {
		logger.Error("Initial derivation failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeRunChanged(gctx, func(msg *amqp.RunChangedMessage) error {
			return deriveWorker.HandleRunChanged(gctx, msg)
		})
	})

	// Periodic re-derivation keeps the rolling 7-day window moving even
	// when no runs are recorded.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RederiveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := deriveWorker.RefreshDerivedValues(gctx, time.Now()); err != nil {
					logger.Error("Scheduled derivation failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
