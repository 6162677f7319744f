package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"warchest/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRunRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.AppendRun(ctx, core.Run{
		RunAt:  time.Date(2025, 6, 5, 20, 30, 0, 0, time.UTC),
		Fields: map[string]int64{"gold": 1200, "stones_raw": 4},
	})
	if err != nil {
		t.Fatalf("AppendRun: %v", err)
	}

	run, err := repo.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Fields["gold"] != 1200 || run.Fields["stones_raw"] != 4 {
		t.Errorf("fields = %v, want gold 1200 and stones_raw 4", run.Fields)
	}

	runs, err := repo.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}

	if err := repo.DeleteRun(ctx, id); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if err := repo.DeleteRun(ctx, id); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second delete = %v, want sql.ErrNoRows", err)
	}
}

func TestListRunsSince(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for d := 1; d <= 5; d++ {
		_, err := repo.AppendRun(ctx, core.Run{
			RunAt:  time.Date(2025, 6, d, 12, 0, 0, 0, time.UTC),
			Fields: map[string]int64{"gold": int64(d)},
		})
		if err != nil {
			t.Fatalf("AppendRun: %v", err)
		}
	}

	runs, err := repo.ListRunsSince(ctx, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListRunsSince: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	if runs[0].Fields["gold"] != 4 || runs[1].Fields["gold"] != 5 {
		t.Errorf("runs out of order or misfiltered: %+v", runs)
	}
}

func TestEventQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateEvent(ctx, core.SpendingEvent{
		Name: "lab", Currency: core.Gold, Amount: 300, TriggerWeek: 2, DurationDays: 14, Priority: 1,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	id2, err := repo.CreateEvent(ctx, core.SpendingEvent{
		Name: "pass", Currency: core.Gems, Amount: 100, TriggerWeek: 0,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	events, err := repo.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	// Ordered by trigger week.
	if events[0].ID != id2 {
		t.Errorf("events[0] = %+v, want the week-0 event first", events[0])
	}
	if events[1].Currency != core.Gold || events[1].DurationDays != 14 {
		t.Errorf("events[1] = %+v, want the gold lab", events[1])
	}

	if err := repo.ClearEvents(ctx); err != nil {
		t.Fatalf("ClearEvents: %v", err)
	}
	events, err = repo.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents after clear: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("len = %d after clear, want 0", len(events))
	}
}

func TestIncomeConfigUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cfg := core.IncomeConfig{
		Currency: core.Gold, Balance: 5000, WeeklyIncome: 1000,
		GrowthRatePercent: 2.5, Source: core.SourceDerived,
	}
	if err := repo.UpsertIncomeConfig(ctx, cfg); err != nil {
		t.Fatalf("UpsertIncomeConfig: %v", err)
	}

	cfg.Balance = 6000
	if err := repo.UpsertIncomeConfig(ctx, cfg); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	configs, err := repo.ListIncomeConfigs(ctx)
	if err != nil {
		t.Fatalf("ListIncomeConfigs: %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("len = %d, want 1 (upsert, not insert)", len(configs))
	}
	got := configs[0]
	if got.Balance != 6000 || got.GrowthRatePercent != 2.5 || got.Source != core.SourceDerived {
		t.Errorf("config = %+v", got)
	}
}

func TestDerivedValueUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	v := DerivedValue{
		Currency: core.Essence, WeeklyIncome: 4200, GrowthRate: 1.5,
		DaysOfData: 6, WeeksOfData: 5,
		DerivedAt: time.Date(2025, 6, 6, 8, 0, 0, 0, time.UTC),
	}
	if err := repo.UpsertDerivedValue(ctx, v); err != nil {
		t.Fatalf("UpsertDerivedValue: %v", err)
	}
	v.WeeklyIncome = 4300
	if err := repo.UpsertDerivedValue(ctx, v); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	values, err := repo.ListDerivedValues(ctx)
	if err != nil {
		t.Fatalf("ListDerivedValues: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("len = %d, want 1", len(values))
	}
	if values[0].WeeklyIncome != 4300 || values[0].WeeksOfData != 5 {
		t.Errorf("value = %+v", values[0])
	}
}
