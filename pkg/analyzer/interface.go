package analyzer

import (
	"context"

	"github.com/ccollicutt/oeelog/pkg/timeline"
)

// Reducer folds final timeline records into an aggregate.
// Each aggregate (status summary, cycles, product catalog) implements this interface.
type Reducer interface {
	// Name returns the reducer name for diagnostics.
	Name() string

	// Process handles a single final record, updating internal state.
	// Returns nil on success, error on fatal problems.
	Process(ctx context.Context, r *timeline.Record) error

	// Finalize completes the aggregate.
	// Called after all records have been processed.
	Finalize(ctx context.Context) error

	// Reset clears internal state for reuse.
	Reset()
}
