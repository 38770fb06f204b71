package analyzer

import (
	"context"
	"sort"
	"time"

	"github.com/ccollicutt/oeelog/pkg/status"
	"github.com/ccollicutt/oeelog/pkg/timeline"
)

// StatusSummary totals attributed time per calendar day and state.
type StatusSummary struct {
	dateRange *DateRange
	days      map[time.Time]map[status.State]int64
	rows      []StatusDay
}

// NewStatusSummary creates a status summary limited to the given date
// range (nil for all days). The range applies to attribution dates, so an
// interval crossing into the range contributes its in-range part.
func NewStatusSummary(dr *DateRange) *StatusSummary {
	s := &StatusSummary{dateRange: dr}
	s.Reset()
	return s
}

// Name returns the reducer name.
func (s *StatusSummary) Name() string {
	return "status-summary"
}

// Process adds the record's attributions.
func (s *StatusSummary) Process(_ context.Context, r *timeline.Record) error {
	for _, a := range r.Attributions {
		if !s.dateRange.Contains(a.Date) {
			continue
		}
		day, ok := s.days[a.Date]
		if !ok {
			day = make(map[status.State]int64)
			s.days[a.Date] = day
		}
		day[a.State] += a.Seconds
	}
	return nil
}

// Finalize sorts the days.
func (s *StatusSummary) Finalize(_ context.Context) error {
	s.rows = make([]StatusDay, 0, len(s.days))
	for date, secs := range s.days {
		s.rows = append(s.rows, StatusDay{Date: date, Seconds: secs})
	}
	sort.Slice(s.rows, func(i, j int) bool {
		return s.rows[i].Date.Before(s.rows[j].Date)
	})
	return nil
}

// Rows returns the daily totals sorted by date. Valid after Finalize.
func (s *StatusSummary) Rows() []StatusDay {
	return s.rows
}

// Total returns the attributed seconds across all days for state.
func (s *StatusSummary) Total(state status.State) int64 {
	var total int64
	for _, d := range s.days {
		total += d[state]
	}
	return total
}

// Reset clears internal state for reuse.
func (s *StatusSummary) Reset() {
	s.days = make(map[time.Time]map[status.State]int64)
	s.rows = nil
}
