package parser

import (
	"context"
)

// LogSource provides an iterator over raw log lines, file by file.
// Files must be delivered in ascending identifier order and lines in file
// order; the timeline depends on it. Implementations are for sequential
// access only.
type LogSource interface {
	// Next returns the next raw line.
	// Returns io.EOF when no more lines are available.
	Next(ctx context.Context) (*LogLine, error)

	// Close releases any resources held by the source.
	Close() error
}
