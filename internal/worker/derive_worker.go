package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"warchest/internal/amqp"
	"warchest/internal/core"
	"warchest/internal/export"
	"warchest/internal/storage"
	"warchest/internal/timeline"
)

// DeriveWorker refreshes the cached income/growth derivations whenever the
// run log changes and mirrors new runs to the export backend.
type DeriveWorker struct {
	storage  *storage.SQLiteRepository
	exporter export.RunWriter
	lookback core.Lookback
}

func NewDeriveWorker(storage *storage.SQLiteRepository, exporter export.RunWriter, lookback core.Lookback) *DeriveWorker {
	if !core.ValidLookback(lookback) {
		lookback = core.LookbackAll
	}
	return &DeriveWorker{
		storage:  storage,
		exporter: exporter,
		lookback: lookback,
	}
}

// HandleRunChanged processes one run-log-change message: re-derive every
// derivable currency, then mirror created runs to the export target.
func (w *DeriveWorker) HandleRunChanged(ctx context.Context, msg *amqp.RunChangedMessage) error {
	slog.InfoContext(ctx, "Processing run changed message",
		"run_id", msg.RunID,
		"action", msg.Action)

	if err := w.RefreshDerivedValues(ctx, time.Now()); err != nil {
		return fmt.Errorf("refresh derived values: %w", err)
	}

	if msg.Action == amqp.RunCreated && w.exporter != nil {
		if err := w.exportRun(ctx, msg.RunID); err != nil {
			// The cache refresh already happened; an export failure is
			// logged, not requeued.
			slog.ErrorContext(ctx, "Failed to export run",
				"run_id", msg.RunID, "error", err)
		}
	}

	return nil
}

// RefreshDerivedValues recomputes income and growth for every derivable
// currency from the full run log and stores the results.
func (w *DeriveWorker) RefreshDerivedValues(ctx context.Context, now time.Time) error {
	// A bounded lookback only needs runs inside its window; "all" loads
	// the full log.
	var runs []core.Run
	var err error
	if start, bounded := timeline.LookbackStart(w.lookback, now); bounded {
		runs, err = w.storage.ListRunsSince(ctx, start)
	} else {
		runs, err = w.storage.ListRuns(ctx)
	}
	if err != nil {
		return fmt.Errorf("load runs: %w", err)
	}

	for _, cur := range core.AllCurrencies() {
		if !cur.Derivable {
			continue
		}

		income, growth := timeline.DeriveValues(runs, cur.ID, w.lookback, now)
		value := storage.DerivedValue{
			Currency:     cur.ID,
			WeeklyIncome: income.WeeklyIncome,
			GrowthRate:   growth.GrowthRatePercent,
			DaysOfData:   income.DaysOfData,
			WeeksOfData:  growth.WeeksOfData,
			DerivedAt:    now,
		}
		if err := w.storage.UpsertDerivedValue(ctx, value); err != nil {
			return fmt.Errorf("store derived value for %s: %w", cur.ID, err)
		}

		slog.InfoContext(ctx, "Derived values refreshed",
			"currency", cur.ID,
			"weekly_income", income.WeeklyIncome,
			"growth_rate", growth.GrowthRatePercent,
			"days_of_data", income.DaysOfData,
			"weeks_of_data", growth.WeeksOfData)
	}
	return nil
}

func (w *DeriveWorker) exportRun(ctx context.Context, id int64) error {
	run, err := w.storage.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("get run from storage: %w", err)
	}

	ref, err := w.exporter.AppendRun(ctx, *run)
	if err != nil {
		return fmt.Errorf("append run to export: %w", err)
	}

	slog.InfoContext(ctx, "Run mirrored to export backend",
		"run_id", id, "ref", ref)
	return nil
}
