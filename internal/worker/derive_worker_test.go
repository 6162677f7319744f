package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"warchest/internal/amqp"
	"warchest/internal/core"
	"warchest/internal/export/memory"
	"warchest/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestHandleRunChangedRefreshesAndExports(t *testing.T) {
	repo := newTestStorage(t)
	exporter := memory.New()
	w := NewDeriveWorker(repo, exporter, core.LookbackAll)
	ctx := context.Background()

	id, err := repo.AppendRun(ctx, core.Run{
		RunAt:  time.Now().Add(-24 * time.Hour),
		Fields: map[string]int64{"gold": 900, "essence": 30},
	})
	if err != nil {
		t.Fatalf("AppendRun: %v", err)
	}

	msg := amqp.NewRunChangedMessage(id, amqp.RunCreated)
	if err := w.HandleRunChanged(ctx, msg); err != nil {
		t.Fatalf("HandleRunChanged: %v", err)
	}

	values, err := repo.ListDerivedValues(ctx)
	if err != nil {
		t.Fatalf("ListDerivedValues: %v", err)
	}
	// One cached row per derivable currency.
	if len(values) != 3 {
		t.Fatalf("len(values) = %d, want 3", len(values))
	}
	byCurrency := map[core.CurrencyID]storage.DerivedValue{}
	for _, v := range values {
		byCurrency[v.Currency] = v
	}
	// One run a day ago: 900 gold on one day extrapolates to 6300/week.
	if got := byCurrency[core.Gold].WeeklyIncome; got != 6300 {
		t.Errorf("gold weekly income = %d, want 6300", got)
	}
	if got := byCurrency[core.Essence].WeeklyIncome; got != 210 {
		t.Errorf("essence weekly income = %d, want 210", got)
	}

	exported, err := exporter.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(exported) != 1 || exported[0].Fields["gold"] != 900 {
		t.Errorf("exported = %+v, want the created run mirrored", exported)
	}
}

func TestHandleRunChangedDeleteDoesNotExport(t *testing.T) {
	repo := newTestStorage(t)
	exporter := memory.New()
	w := NewDeriveWorker(repo, exporter, core.LookbackAll)
	ctx := context.Background()

	msg := amqp.NewRunChangedMessage(99, amqp.RunDeleted)
	if err := w.HandleRunChanged(ctx, msg); err != nil {
		t.Fatalf("HandleRunChanged: %v", err)
	}

	exported, err := exporter.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(exported) != 0 {
		t.Errorf("exported = %+v, want none for a delete", exported)
	}
}

func TestRefreshDerivedValuesEmptyLog(t *testing.T) {
	repo := newTestStorage(t)
	w := NewDeriveWorker(repo, nil, core.Lookback6Months)

	if err := w.RefreshDerivedValues(context.Background(), time.Now()); err != nil {
		t.Fatalf("RefreshDerivedValues: %v", err)
	}

	values, err := repo.ListDerivedValues(context.Background())
	if err != nil {
		t.Fatalf("ListDerivedValues: %v", err)
	}
	for _, v := range values {
		if v.WeeklyIncome != 0 || v.GrowthRate != 0 {
			t.Errorf("%s: expected zero derivation for empty log, got %+v", v.Currency, v)
		}
	}
}
