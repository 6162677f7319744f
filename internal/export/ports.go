// Package export defines the ports for mirroring the run log to an
// external spreadsheet. The engine never touches these; only the derive
// worker writes through them.
package export

import (
	"context"

	"warchest/internal/core"
)

type (
	// RunWriter appends one run to the export target.
	RunWriter interface {
		AppendRun(ctx context.Context, run core.Run) (rowRef string, err error)
	}

	// RunReader lists previously exported runs, newest last.
	RunReader interface {
		ListRuns(ctx context.Context) ([]core.Run, error)
	}
)
