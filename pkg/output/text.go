package output

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/ccollicutt/oeelog/pkg/analyzer"
	"github.com/ccollicutt/oeelog/pkg/status"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "oeelog: %d days, %d cycles, %.2fh productive, %.2fh downtime, %d rejected files\n",
		report.Summary.Days,
		report.Summary.Cycles,
		report.Summary.Hours[status.Productive],
		report.Summary.Hours[status.Downtime],
		report.Summary.RejectedFiles)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	// Header
	fmt.Fprintln(w, "=== oeelog Analysis Report ===")
	fmt.Fprintln(w)

	if err := f.formatStatusDays(report, w); err != nil {
		return err
	}
	if err := f.formatCycles(report, w); err != nil {
		return err
	}

	if len(report.Rejected) > 0 {
		fmt.Fprintf(w, "[REJECTED] %d file(s)\n", len(report.Rejected))
		for _, r := range report.Rejected {
			fmt.Fprintf(w, "  - %s: %s\n", r.Source, r.Reason)
		}
		fmt.Fprintln(w)
	}

	if f.opts.Verbose {
		f.formatFiles(report, w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d files, %d days, %d cycles (%d units), %d rejected files\n",
		report.Summary.Files,
		report.Summary.Days,
		report.Summary.Cycles,
		report.Summary.Units,
		report.Summary.RejectedFiles)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Lines processed: %d\n", report.Summary.LinesProcessed)
		fmt.Fprintf(w, "Events classified: %d\n", report.Summary.Events)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatStatusDays(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "[STATUS] Hours per day")
	if len(report.StatusDays) == 0 {
		fmt.Fprintln(w, "  No attributed time")
		fmt.Fprintln(w)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "  Date\t")
	for _, s := range status.States {
		fmt.Fprintf(tw, "%s\t", s)
	}
	fmt.Fprintln(tw)

	for _, d := range report.StatusDays {
		fmt.Fprintf(tw, "  %s\t", d.Date.Format(DateLayout))
		for _, s := range status.States {
			fmt.Fprintf(tw, "%.2f\t", d.Hours(s))
		}
		fmt.Fprintln(tw)
	}

	fmt.Fprint(tw, "  Total\t")
	for _, s := range status.States {
		fmt.Fprintf(tw, "%.2f\t", report.Summary.Hours[s])
	}
	fmt.Fprintln(tw)

	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

type productCycles struct {
	id        string
	cycles    int
	units     int
	cycleTotal float64
	ideal     float64
}

func (f *TextFormatter) formatCycles(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "[CYCLES] Marking cycles per product")
	if len(report.Cycles) == 0 {
		fmt.Fprintln(w, "  No completed cycles")
		fmt.Fprintln(w)
		return nil
	}

	byProduct := make(map[string]*productCycles)
	for _, cy := range report.Cycles {
		pc, ok := byProduct[cy.ProductID]
		if !ok {
			pc = &productCycles{id: cy.ProductID, ideal: cy.IdealUnitTime}
			byProduct[cy.ProductID] = pc
		}
		pc.cycles++
		pc.units += cy.UnitCount
		pc.cycleTotal += cy.CycleDuration
	}

	ids := make([]string, 0, len(byProduct))
	for id := range byProduct {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  Product\tCycles\tUnits\tMean unit (s)\tIdeal unit (s)\t")
	for _, id := range ids {
		pc := byProduct[id]
		mean := 0.0
		if pc.units > 0 {
			mean = pc.cycleTotal / float64(pc.units)
		}
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%.2f\t%.2f\t\n", pc.id, pc.cycles, pc.units, mean, pc.ideal)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if f.opts.Verbose {
		for _, cy := range report.Cycles {
			f.formatCycle(cy, w)
		}
	}

	fmt.Fprintln(w)
	return nil
}

func (f *TextFormatter) formatCycle(cy analyzer.CycleRecord, w io.Writer) {
	fmt.Fprintf(w, "  - %s %s: %s to %s, %d unit(s), %.0fs\n",
		cy.Date.Format(DateLayout),
		cy.ProductID,
		cy.CycleStart.Format("15:04:05"),
		cy.CycleEnd.Format("15:04:05"),
		cy.UnitCount,
		cy.CycleDuration)
}

func (f *TextFormatter) formatFiles(report *Report, w io.Writer) {
	fmt.Fprintf(w, "[FILES] %d file(s)\n", len(report.Files))
	for _, file := range report.Files {
		fmt.Fprintf(w, "  - %s (%s): %d lines, %d events, %s -> %s\n",
			file.Source,
			file.Date.Format(DateLayout),
			file.Lines,
			file.Events,
			file.Seed.Base,
			file.Final.Base)
	}
	fmt.Fprintln(w)
}
