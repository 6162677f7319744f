package google

import (
	"context"
	"testing"
	"time"

	"warchest/internal/core"
)

func TestRunFieldColumns(t *testing.T) {
	cols := runFieldColumns()
	want := []string{"gold", "essence", "stones_combined", "stones_raw"}
	if len(cols) != len(want) {
		t.Fatalf("columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("column %d = %s, want %s", i, cols[i], want[i])
		}
	}
}

func TestAppendRunWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "x", runsSheet: "Runs"}
	run := core.Run{
		RunAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Fields: map[string]int64{"gold": 100},
	}
	if _, err := c.AppendRun(context.Background(), run); err == nil {
		t.Error("expected error when service is not initialized")
	}
}
