// Package services provides the orchestration layer between storage, the
// projection engine and AMQP.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"warchest/internal/amqp"
	"warchest/internal/core"
	"warchest/internal/storage"
	"warchest/internal/timeline"
)

// PlannerService loads snapshots, runs the projection engine and applies
// mutations with boundary validation. Run-log mutations additionally notify
// the derive worker over AMQP.
type PlannerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	lookback   core.Lookback
}

func NewPlannerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, lookback core.Lookback) *PlannerService {
	if !core.ValidLookback(lookback) {
		lookback = core.LookbackAll
	}
	return &PlannerService{
		storage:    storage,
		amqpClient: amqpClient,
		lookback:   lookback,
	}
}

// Timeline loads the current snapshot and computes the full projection.
func (s *PlannerService) Timeline(ctx context.Context, weeks int, now time.Time) (timeline.TimelineData, error) {
	if !core.ValidWeekCount(weeks) {
		return timeline.TimelineData{}, fmt.Errorf("%d is not a valid week count", weeks)
	}

	configs, err := s.storage.ListIncomeConfigs(ctx)
	if err != nil {
		return timeline.TimelineData{}, fmt.Errorf("load income configs: %w", err)
	}
	events, err := s.storage.ListEvents(ctx)
	if err != nil {
		return timeline.TimelineData{}, fmt.Errorf("load events: %w", err)
	}
	runs, err := s.storage.ListRuns(ctx)
	if err != nil {
		return timeline.TimelineData{}, fmt.Errorf("load runs: %w", err)
	}

	snap := timeline.Snapshot{
		Now:      now,
		Weeks:    weeks,
		Lookback: s.lookback,
		Configs:  MergeConfigs(configs),
		Events:   events,
		Runs:     runs,
	}
	return timeline.Assemble(snap), nil
}

// MergeConfigs fills in a default manual config for every registry currency
// missing from the stored set, so the timeline always covers the full
// currency table.
func MergeConfigs(stored []core.IncomeConfig) []core.IncomeConfig {
	byID := make(map[core.CurrencyID]core.IncomeConfig, len(stored))
	for _, cfg := range stored {
		byID[cfg.Currency] = cfg
	}

	out := make([]core.IncomeConfig, 0, len(core.AllCurrencies()))
	for _, cur := range core.AllCurrencies() {
		cfg, ok := byID[cur.ID]
		if !ok {
			cfg = core.IncomeConfig{Currency: cur.ID, Source: core.SourceManual}
		}
		out = append(out, cfg)
	}
	return out
}

// RecordRun validates and stores a play session, then notifies the derive
// worker. A failed publish does not fail the request; the run is saved.
func (s *PlannerService) RecordRun(ctx context.Context, run core.Run) (int64, error) {
	if err := run.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.AppendRun(ctx, run)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}

	s.publishRunChanged(ctx, id, amqp.RunCreated)
	return id, nil
}

// DeleteRun removes a run and notifies the derive worker.
func (s *PlannerService) DeleteRun(ctx context.Context, id int64) error {
	if err := s.storage.DeleteRun(ctx, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	s.publishRunChanged(ctx, id, amqp.RunDeleted)
	return nil
}

func (s *PlannerService) publishRunChanged(ctx context.Context, id int64, action string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping run changed message")
		return
	}
	if err := s.amqpClient.PublishRunChanged(ctx, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish run changed message",
			"run_id", id, "action", action, "error", err)
	}
}

// Runs returns the full run log.
func (s *PlannerService) Runs(ctx context.Context) ([]core.Run, error) {
	return s.storage.ListRuns(ctx)
}

// ScheduleEvent validates and stores a spending event.
func (s *PlannerService) ScheduleEvent(ctx context.Context, e core.SpendingEvent) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.CreateEvent(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save event: %w", err)
	}
	return id, nil
}

// RemoveEvent drops one event from the queue.
func (s *PlannerService) RemoveEvent(ctx context.Context, id int64) error {
	return s.storage.DeleteEvent(ctx, id)
}

// ClearEvents empties the event queue.
func (s *PlannerService) ClearEvents(ctx context.Context) error {
	return s.storage.ClearEvents(ctx)
}

// Events returns the stored event queue.
func (s *PlannerService) Events(ctx context.Context) ([]core.SpendingEvent, error) {
	return s.storage.ListEvents(ctx)
}

// UpdateIncomeConfig clamps, validates and stores a currency config.
func (s *PlannerService) UpdateIncomeConfig(ctx context.Context, cfg core.IncomeConfig) error {
	cfg.Clamp()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpsertIncomeConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save income config: %w", err)
	}
	return nil
}

// IncomeConfigs returns the stored configs merged with registry defaults.
func (s *PlannerService) IncomeConfigs(ctx context.Context) ([]core.IncomeConfig, error) {
	stored, err := s.storage.ListIncomeConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load income configs: %w", err)
	}
	return MergeConfigs(stored), nil
}

// DerivedValues returns the worker's cached derivation results.
func (s *PlannerService) DerivedValues(ctx context.Context) ([]storage.DerivedValue, error) {
	return s.storage.ListDerivedValues(ctx)
}

// Close closes both storage and AMQP connections.
func (s *PlannerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close planner service: %v", errs)
	}
	return nil
}
