package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/oeelog/pkg/analyzer"
	"github.com/ccollicutt/oeelog/pkg/timeline"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// quietReport is the JSON document written in quiet mode.
type quietReport struct {
	Summary    Summary                 `json:"summary"`
	StatusDays []analyzer.StatusDay    `json:"status_days"`
	Rejected   []timeline.RejectedFile `json:"rejected,omitempty"`
}

// Format renders the report as JSON. Quiet mode keeps the summary, the
// daily totals and the rejected files.
func (f *JSONFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if f.opts.Quiet {
		return encoder.Encode(quietReport{
			Summary:    report.Summary,
			StatusDays: report.StatusDays,
			Rejected:   report.Rejected,
		})
	}

	return encoder.Encode(report)
}
