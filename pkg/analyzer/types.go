// Package analyzer reduces a machine timeline into daily state totals,
// marking-cycle statistics and a product catalogue.
package analyzer

import (
	"time"

	"github.com/ccollicutt/oeelog/pkg/status"
	"github.com/ccollicutt/oeelog/pkg/timeline"
)

// DateRange is an inclusive range of calendar days. A zero bound is open.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// Contains reports whether the day of t lies within the range.
// A nil range contains every day.
func (d *DateRange) Contains(t time.Time) bool {
	if d == nil {
		return true
	}
	day := timeline.Day(t)
	if !d.From.IsZero() && day.Before(timeline.Day(d.From)) {
		return false
	}
	if !d.To.IsZero() && day.After(timeline.Day(d.To)) {
		return false
	}
	return true
}

// StatusDay is the attributed time per state on one calendar day.
type StatusDay struct {
	Date    time.Time              `json:"date"`
	Seconds map[status.State]int64 `json:"seconds"`
}

// Hours returns the time attributed to state, in hours.
func (d StatusDay) Hours(state status.State) float64 {
	return float64(d.Seconds[state]) / 3600
}

// TotalSeconds returns the time attributed on this day across all states.
func (d StatusDay) TotalSeconds() int64 {
	var total int64
	for _, s := range d.Seconds {
		total += s
	}
	return total
}

// CycleRecord is one marking cycle from start mark to its terminating event.
// Durations are in seconds.
type CycleRecord struct {
	Date           time.Time `json:"date"`
	ProductID      string    `json:"product_id"`
	CycleStart     time.Time `json:"cycle_start"`
	CycleEnd       time.Time `json:"cycle_end"`
	CycleDuration  float64   `json:"cycle_duration"`
	UnitCount      int       `json:"unit_count"`
	UnitDuration   float64   `json:"unit_duration"`
	IdealUnitTime  float64   `json:"ideal_unit_time"`
	IdealCycleTime float64   `json:"ideal_cycle_time"`
}

// ProductEntry is one distinct product program seen in the logs.
type ProductEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	FirstSeen time.Time `json:"first_seen"`
	Records   int       `json:"records"`
}

// Result contains the complete analysis output.
type Result struct {
	// Timeline holds every record, when kept.
	Timeline []*timeline.Record

	// StatusDays are the daily state totals, sorted by date.
	StatusDays []StatusDay

	// Cycles are the completed marking cycles in order.
	Cycles []CycleRecord

	// Products is the product catalogue, sorted by ID.
	Products []ProductEntry

	// Files describes every processed file.
	Files []timeline.FileSummary

	// Rejected lists the files skipped for lack of a date.
	Rejected []timeline.RejectedFile

	// Metadata provides context about the analysis.
	Metadata Metadata
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used.
	ConfigFile string

	// Sources lists the log files that were analyzed, in order.
	Sources []string

	// DateRange is the date filter applied, if any.
	DateRange *DateRange

	// ProductFilter is the product ID filter applied, if any.
	ProductFilter []string

	// StartTime is when analysis began.
	StartTime time.Time

	// EndTime is when analysis completed.
	EndTime time.Time

	// LinesProcessed is the total number of log lines examined.
	LinesProcessed int

	// EventsProcessed is the number of timestamped events classified.
	EventsProcessed int

	// RecordsReduced is the number of records passed to the reducers.
	RecordsReduced int
}

// TotalSeconds returns the attributed time per state over all days.
func (r *Result) TotalSeconds() map[status.State]int64 {
	totals := make(map[status.State]int64, len(status.States))
	for _, d := range r.StatusDays {
		for s, secs := range d.Seconds {
			totals[s] += secs
		}
	}
	return totals
}

// HasRejected returns true if any files were rejected.
func (r *Result) HasRejected() bool {
	return len(r.Rejected) > 0
}
