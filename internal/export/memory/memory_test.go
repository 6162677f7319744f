package memory

import (
	"context"
	"testing"
	"time"

	"warchest/internal/core"
)

func TestAppendAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.AppendRun(ctx, core.Run{
		RunAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Fields: map[string]int64{"gold": 500},
	})
	if err != nil {
		t.Fatalf("AppendRun: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Fields["gold"] != 500 {
		t.Errorf("runs = %+v, want one run with gold 500", runs)
	}
}

func TestAppendRejectsInvalidRun(t *testing.T) {
	s := New()
	if _, err := s.AppendRun(context.Background(), core.Run{}); err == nil {
		t.Error("expected error for zero timestamp")
	}
}
