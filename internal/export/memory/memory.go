// Package memory implements the export ports in process memory. Used by
// tests and by deployments without a spreadsheet configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"warchest/internal/core"
)

type Store struct {
	mu   sync.Mutex
	runs []core.Run
}

func New() *Store {
	return &Store{}
}

// AppendRun stores the run and returns a synthetic row reference.
func (s *Store) AppendRun(_ context.Context, run core.Run) (string, error) {
	if err := run.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return fmt.Sprintf("mem:%d", len(s.runs)), nil
}

// ListRuns returns a copy of the stored runs in append order.
func (s *Store) ListRuns(_ context.Context) ([]core.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Run, len(s.runs))
	copy(out, s.runs)
	return out, nil
}
