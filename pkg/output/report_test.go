package output

import (
	"testing"
	"time"

	"github.com/ccollicutt/oeelog/pkg/analyzer"
	"github.com/ccollicutt/oeelog/pkg/parser"
	"github.com/ccollicutt/oeelog/pkg/status"
	"github.com/ccollicutt/oeelog/pkg/timeline"
)

var reportDay = time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

func createTestResult() *analyzer.Result {
	start := reportDay.Add(9 * time.Hour)
	seed := timeline.NewCarriedState(status.Standby)
	final := seed
	final.Product = parser.ProductInfo{Path: `D:\jobs\12345678_a.bin`, ID: "12345678"}

	return &analyzer.Result{
		StatusDays: []analyzer.StatusDay{
			{Date: reportDay, Seconds: map[status.State]int64{
				status.Productive: 5400,
				status.Idle:       1800,
				status.Downtime:   60,
			}},
			{Date: reportDay.AddDate(0, 0, 1), Seconds: map[status.State]int64{
				status.Standby: 3600,
			}},
		},
		Cycles: []analyzer.CycleRecord{
			{
				Date: reportDay, ProductID: "12345678",
				CycleStart: start, CycleEnd: start.Add(10 * time.Second),
				CycleDuration: 10, UnitCount: 2, UnitDuration: 5,
				IdealUnitTime: 4.5, IdealCycleTime: 9,
			},
		},
		Products: []analyzer.ProductEntry{
			{ID: "12345678", Name: "12345678_a.bin", Path: `D:\jobs\12345678_a.bin`, FirstSeen: start, Records: 3},
		},
		Files: []timeline.FileSummary{
			{Source: "2024.3.9.log", Date: reportDay, Lines: 10, Events: 8, Seed: seed, Final: final},
		},
		Rejected: []timeline.RejectedFile{
			{Source: "notes.log", Reason: "no date in file name: notes.log"},
		},
		Timeline: []*timeline.Record{
			{
				Date: reportDay, Time: start, Timestamp: "09:00:00",
				Message: "(0)--Start Mark!--, go", ProductID: "12345678",
				Label: status.Start(status.Productive), Base: status.Productive,
				DurationSeconds: 10, Source: "2024.3.9.log", LineNum: 4,
			},
		},
		Metadata: analyzer.Metadata{
			Sources:         []string{"2024.3.9.log", "notes.log"},
			StartTime:       start,
			EndTime:         start.Add(2 * time.Second),
			LinesProcessed:  11,
			EventsProcessed: 8,
		},
	}
}

func createTestReport() *Report {
	return NewReport(createTestResult(), "oeelog.yaml")
}

func TestNewReport(t *testing.T) {
	r := createTestReport()

	if r.Summary.Files != 1 || r.Summary.RejectedFiles != 1 || r.Summary.Days != 2 {
		t.Errorf("Summary = %+v", r.Summary)
	}
	if r.Summary.Cycles != 1 || r.Summary.Units != 2 {
		t.Errorf("Cycles/Units = %d/%d, want 1/2", r.Summary.Cycles, r.Summary.Units)
	}
	if r.Summary.Hours[status.Productive] != 1.5 {
		t.Errorf("Hours[Productive] = %v, want 1.5", r.Summary.Hours[status.Productive])
	}
	if _, ok := r.Summary.Hours[status.Off]; !ok {
		t.Error("Hours missing Off column")
	}
	if r.Metadata.Duration != 2*time.Second {
		t.Errorf("Duration = %v, want 2s", r.Metadata.Duration)
	}
	if r.Metadata.ConfigFile != "oeelog.yaml" {
		t.Errorf("ConfigFile = %q", r.Metadata.ConfigFile)
	}
	if !r.HasDowntime() {
		t.Error("HasDowntime() = false, want true")
	}
	if !r.HasRejected() {
		t.Error("HasRejected() = false, want true")
	}
}

func TestReport_NoDowntime(t *testing.T) {
	result := createTestResult()
	result.StatusDays = result.StatusDays[1:]
	result.Rejected = nil

	r := NewReport(result, "")
	if r.HasDowntime() {
		t.Error("HasDowntime() = true, want false")
	}
	if r.HasRejected() {
		t.Error("HasRejected() = true, want false")
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"", "text", "json"} {
		f, err := NewFormatter(name, FormatOptions{})
		if err != nil {
			t.Errorf("NewFormatter(%q) error = %v", name, err)
			continue
		}
		want := name
		if want == "" {
			want = "text"
		}
		if f.Name() != want {
			t.Errorf("NewFormatter(%q).Name() = %q, want %q", name, f.Name(), want)
		}
	}

	if _, err := NewFormatter("xml", FormatOptions{}); err == nil {
		t.Error("NewFormatter(xml) expected error")
	}
}
