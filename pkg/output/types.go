// Package output provides formatting and output generation for analysis results.
package output

import (
	"time"

	"github.com/ccollicutt/oeelog/pkg/analyzer"
	"github.com/ccollicutt/oeelog/pkg/status"
	"github.com/ccollicutt/oeelog/pkg/timeline"
)

// DateLayout is the calendar date layout used in reports.
const DateLayout = "2006-01-02"

// Report is the complete analysis output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// StatusDays are the daily state totals, sorted by date.
	StatusDays []analyzer.StatusDay `json:"status_days"`

	// Cycles are the completed marking cycles.
	Cycles []analyzer.CycleRecord `json:"cycles"`

	// Products is the product catalogue.
	Products []analyzer.ProductEntry `json:"products"`

	// Files describes every processed file with its seed and final state.
	Files []timeline.FileSummary `json:"files"`

	// Rejected lists the files skipped for lack of a date.
	Rejected []timeline.RejectedFile `json:"rejected,omitempty"`

	// Timeline holds every record when it was kept.
	Timeline []*timeline.Record `json:"timeline,omitempty"`

	// Metadata provides context about the analysis.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// Files is the number of files processed.
	Files int `json:"files"`

	// RejectedFiles is the number of files skipped for lack of a date.
	RejectedFiles int `json:"rejected_files"`

	// Days is the number of calendar days with attributed time.
	Days int `json:"days"`

	// Events is the number of classified log events.
	Events int `json:"events"`

	// Cycles is the number of completed marking cycles.
	Cycles int `json:"cycles"`

	// Units is the number of units marked in completed cycles.
	Units int `json:"units"`

	// LinesProcessed is the total number of log lines read.
	LinesProcessed int `json:"lines_processed"`

	// Hours is the total attributed time per state.
	Hours map[status.State]float64 `json:"hours"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used.
	ConfigFile string `json:"config_file"`

	// Sources lists the log files that were analyzed.
	Sources []string `json:"sources"`

	// DateRange is the date filter that was applied, if any.
	DateRange *analyzer.DateRange `json:"date_range,omitempty"`

	// ProductFilter lists the product IDs the aggregates were limited to.
	ProductFilter []string `json:"product_filter,omitempty"`

	// AnalyzedAt is when the analysis was performed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the analysis took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from analysis results.
func NewReport(result *analyzer.Result, configFile string) *Report {
	report := &Report{
		StatusDays: result.StatusDays,
		Cycles:     result.Cycles,
		Products:   result.Products,
		Files:      result.Files,
		Rejected:   result.Rejected,
		Timeline:   result.Timeline,
		Metadata: Metadata{
			ConfigFile:    configFile,
			Sources:       result.Metadata.Sources,
			DateRange:     result.Metadata.DateRange,
			ProductFilter: result.Metadata.ProductFilter,
			AnalyzedAt:    result.Metadata.EndTime,
			Duration:      result.Metadata.EndTime.Sub(result.Metadata.StartTime),
		},
		Summary: Summary{
			Files:          len(result.Files),
			RejectedFiles:  len(result.Rejected),
			Days:           len(result.StatusDays),
			Events:         result.Metadata.EventsProcessed,
			Cycles:         len(result.Cycles),
			LinesProcessed: result.Metadata.LinesProcessed,
			Hours:          make(map[status.State]float64, len(status.States)),
		},
	}

	for _, cy := range result.Cycles {
		report.Summary.Units += cy.UnitCount
	}

	totals := result.TotalSeconds()
	for _, s := range status.States {
		report.Summary.Hours[s] = float64(totals[s]) / 3600
	}

	return report
}

// HasDowntime returns true if any downtime was attributed.
func (r *Report) HasDowntime() bool {
	return r.Summary.Hours[status.Downtime] > 0
}

// HasRejected returns true if any log files were rejected.
func (r *Report) HasRejected() bool {
	return r.Summary.RejectedFiles > 0
}
