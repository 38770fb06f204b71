package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ccollicutt/oeelog/pkg/status"
)

// CSV export file names.
const (
	TimelineCSV      = "timeline.csv"
	StatusSummaryCSV = "status_summary.csv"
	CyclesCSV        = "cycles.csv"
	ProductsCSV      = "products.csv"
)

// WriteCSV exports the report's tables into dir, creating it if needed.
// The timeline file is written only when the report carries a timeline.
func WriteCSV(dir string, report *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating csv directory: %w", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer, *Report) error
		skip  bool
	}{
		{TimelineCSV, WriteTimelineCSV, len(report.Timeline) == 0},
		{StatusSummaryCSV, WriteStatusSummaryCSV, false},
		{CyclesCSV, WriteCyclesCSV, false},
		{ProductsCSV, WriteProductsCSV, false},
	}

	var written []string
	for _, wr := range writers {
		if wr.skip {
			continue
		}
		path := filepath.Join(dir, wr.name)
		if err := writeFile(path, report, wr.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, report *Report, write func(io.Writer, *Report) error) error {
	f, err := os.Create(path) // #nosec G304 -- output directory is user-provided
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f, report); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func hours(seconds int64) string {
	return strconv.FormatFloat(float64(seconds)/3600, 'f', 2, 64)
}

func secs(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteStatusSummaryCSV writes one row per day with hours per state,
// rounded to two decimals.
func WriteStatusSummaryCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)

	header := []string{"Date"}
	for _, s := range status.States {
		header = append(header, fmt.Sprintf("%s (h)", s))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, d := range report.StatusDays {
		row := []string{d.Date.Format(DateLayout)}
		for _, s := range status.States {
			row = append(row, hours(d.Seconds[s]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTimelineCSV writes every classified record.
func WriteTimelineCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)

	header := []string{
		"Date", "Timestamp", "Log Message", "Product", "Product_ID", "Status",
		"Assigned_Base", "Assigned_Time_Seconds", "Source", "Line",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range report.Timeline {
		row := []string{
			r.Date.Format(DateLayout),
			r.Timestamp,
			r.Message,
			r.Product,
			r.ProductID,
			r.Label.String(),
			string(r.Base),
			strconv.FormatInt(r.DurationSeconds, 10),
			r.Source,
			strconv.Itoa(r.LineNum),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCyclesCSV writes one row per completed cycle.
func WriteCyclesCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)

	header := []string{
		"Date", "Product_ID", "Cycle_Start", "Cycle_End", "Cycle_Duration",
		"Unit_Count", "Unit_Duration", "Ideal_Unit_Time", "Ideal_Cycle_Time",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, cy := range report.Cycles {
		row := []string{
			cy.Date.Format(DateLayout),
			cy.ProductID,
			cy.CycleStart.Format("15:04:05"),
			cy.CycleEnd.Format("15:04:05"),
			secs(cy.CycleDuration),
			strconv.Itoa(cy.UnitCount),
			secs(cy.UnitDuration),
			secs(cy.IdealUnitTime),
			secs(cy.IdealCycleTime),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteProductsCSV writes the product catalogue.
func WriteProductsCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Product_ID", "Product Name", "Path", "First_Seen", "Records"}); err != nil {
		return err
	}

	for _, p := range report.Products {
		row := []string{
			p.ID,
			p.Name,
			p.Path,
			p.FirstSeen.Format("2006-01-02 15:04:05"),
			strconv.Itoa(p.Records),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
