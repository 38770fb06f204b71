package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ccollicutt/oeelog/pkg/config"
	"github.com/ccollicutt/oeelog/pkg/output"
	"github.com/ccollicutt/oeelog/pkg/status"
	"github.com/ccollicutt/oeelog/pkg/store"
)

func runAnalyzeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ExitCode = ExitOK

	cmd := NewAnalyzeCommand()
	cmd.SetArgs(args)

	var buf bytes.Buffer
	cmd.SetOut(&buf)

	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRunAnalyze_JSON(t *testing.T) {
	_, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog}, "")

	out, err := runAnalyzeCmd(t, "-o", "json", configPath)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	var report struct {
		Summary  output.Summary   `json:"summary"`
		Timeline []map[string]any `json:"timeline"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}

	s := report.Summary
	if s.Files != 1 || s.RejectedFiles != 0 {
		t.Errorf("Files = %d, RejectedFiles = %d, want 1, 0", s.Files, s.RejectedFiles)
	}
	if s.Events != 7 {
		t.Errorf("Events = %d, want 7", s.Events)
	}
	if s.Cycles != 1 || s.Units != 1 {
		t.Errorf("Cycles = %d, Units = %d, want 1, 1", s.Cycles, s.Units)
	}

	want := map[status.State]float64{
		status.Standby:    0.5,
		status.Productive: 1.5,
		status.Downtime:   0.5,
		status.Idle:       0,
		status.Off:        0,
	}
	for state, h := range want {
		if !approx(s.Hours[state], h) {
			t.Errorf("Hours[%s] = %v, want %v", state, s.Hours[state], h)
		}
	}

	if len(report.Timeline) != 0 {
		t.Errorf("timeline should be omitted without --timeline, got %d records", len(report.Timeline))
	}
	if ExitCode != ExitOK {
		t.Errorf("ExitCode = %d, want %d", ExitCode, ExitOK)
	}
}

func TestRunAnalyze_Text(t *testing.T) {
	_, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog}, "")

	out, err := runAnalyzeCmd(t, configPath)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if !strings.Contains(out, "2024-03-09") {
		t.Errorf("text output missing the day row:\n%s", out)
	}
	if !strings.Contains(out, "12345678") {
		t.Errorf("text output missing the product:\n%s", out)
	}
}

func TestRunAnalyze_RejectedFileExitCode(t *testing.T) {
	_, configPath := writeFixture(t, map[string]string{
		"2024.3.9.log": machineLog,
		"notes.log":    "08:00:00:ERR: not dated\n",
	}, "")

	out, err := runAnalyzeCmd(t, "-q", configPath)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if ExitCode != ExitRejected {
		t.Errorf("ExitCode = %d, want %d", ExitCode, ExitRejected)
	}
	if !strings.Contains(out, "1 rejected files") {
		t.Errorf("quiet output = %q, want rejected count", out)
	}
}

func TestRunAnalyze_StrictDates(t *testing.T) {
	_, configPath := writeFixture(t, map[string]string{
		"2024.3.9.log": machineLog,
		"notes.log":    "08:00:00:ERR: not dated\n",
	}, "")

	_, err := runAnalyzeCmd(t, "--strict-dates", configPath)
	if err == nil {
		t.Fatal("expected error for undated file with --strict-dates")
	}
}

func TestRunAnalyze_DateRangeExcludesDay(t *testing.T) {
	_, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog}, "")

	out, err := runAnalyzeCmd(t, "-o", "json", "--from", "2024-03-10", configPath)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	var report struct {
		Summary output.Summary `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if report.Summary.Days != 0 {
		t.Errorf("Days = %d, want 0 outside the range", report.Summary.Days)
	}
	if report.Summary.Events != 7 {
		t.Errorf("Events = %d, want 7: classification sees the whole stream", report.Summary.Events)
	}
}

func TestRunAnalyze_InvalidDates(t *testing.T) {
	_, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog}, "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad from", []string{"--from", "09/03/2024"}, "invalid --from"},
		{"bad to", []string{"--to", "yesterday"}, "invalid --to"},
		{"reversed", []string{"--from", "2024-03-10", "--to", "2024-03-01"}, "is before"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runAnalyzeCmd(t, append(tt.args, configPath)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestRunAnalyze_MissingFile(t *testing.T) {
	if _, err := runAnalyzeCmd(t, "/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRunAnalyze_UnknownOutput(t *testing.T) {
	_, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog}, "")

	if _, err := runAnalyzeCmd(t, "-o", "xml", configPath); err == nil {
		t.Error("Expected error for unknown output format")
	}
}

func TestRunAnalyze_CSV(t *testing.T) {
	dir, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog}, "")
	csvDir := filepath.Join(dir, "csv")

	if _, err := runAnalyzeCmd(t, "--timeline", "--csv-dir", csvDir, configPath); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	for _, name := range []string{output.TimelineCSV, output.StatusSummaryCSV, output.CyclesCSV, output.ProductsCSV} {
		if _, err := os.Stat(filepath.Join(csvDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestRunAnalyze_StoreRequiresDSN(t *testing.T) {
	_, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog}, "")

	_, err := runAnalyzeCmd(t, "--store", configPath)
	if err == nil {
		t.Fatal("expected error for --store without database.dsn")
	}
	if !strings.Contains(err.Error(), "database.dsn") {
		t.Errorf("error = %v, want mention of database.dsn", err)
	}
}

func TestRunAnalyze_StoreSQLite(t *testing.T) {
	dir, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog}, "")
	dbPath := filepath.Join(dir, "oeelog.db")

	cfgExtra := "database:\n  driver: sqlite\n  dsn: " + dbPath + "\n  table_prefix: m1_\n"
	if err := appendFile(configPath, cfgExtra); err != nil {
		t.Fatalf("Failed to extend config: %v", err)
	}

	if _, err := runAnalyzeCmd(t, "-q", "--store", configPath); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	ctx := context.Background()
	st, err := store.Open(ctx, config.DatabaseConfig{
		Driver:      config.DatabaseDriverSQLite,
		DSN:         dbPath,
		TablePrefix: "m1_",
	})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer st.Close()

	runs, err := st.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}

	totals, err := st.StatusTotals(ctx, runs[0].ID)
	if err != nil {
		t.Fatalf("StatusTotals() error = %v", err)
	}
	if totals[status.Productive] != 5400 {
		t.Errorf("stored Productive = %d, want 5400", totals[status.Productive])
	}
}

func TestRunValidate_StoredRuns(t *testing.T) {
	dir, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog}, "")
	dbPath := filepath.Join(dir, "oeelog.db")
	if err := appendFile(configPath, "database:\n  driver: sqlite\n  dsn: "+dbPath+"\n"); err != nil {
		t.Fatalf("Failed to extend config: %v", err)
	}

	if _, err := runAnalyzeCmd(t, "-q", "--store", configPath); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	cmd := NewValidateCommand()
	cmd.SetArgs([]string{"--runs", configPath})
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("validate --runs failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Stored runs: 1", "1 file(s), 0 rejected, 7 events, 1 cycles", "productive 1.50h"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunValidate_StoredRunsRequiresDatabase(t *testing.T) {
	_, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog}, "")

	cmd := NewValidateCommand()
	cmd.SetArgs([]string{"--runs", configPath})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "database.dsn") {
		t.Errorf("error = %v, want database.dsn hint", err)
	}
}

func TestRunAnalyze_Webhooks(t *testing.T) {
	var hits int32
	var auth atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		auth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog},
		"webhooks:\n  - name: never\n    url: "+server.URL+"\n    trigger: never\n")

	_, err := runAnalyzeCmd(t, "-q",
		"--webhook-url", server.URL,
		"--webhook-token", "s3cret",
		configPath)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	// Only the CLI webhook fires: the fixture has downtime.
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("webhook hits = %d, want 1", got)
	}
	if got, _ := auth.Load().(string); got != "Bearer s3cret" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestRunAnalyze_WebhookFailureDoesNotFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, configPath := writeFixture(t, map[string]string{"2024.3.9.log": machineLog}, "")

	if _, err := runAnalyzeCmd(t, "-q", "--webhook-url", server.URL, "--webhook-trigger", "always", configPath); err != nil {
		t.Errorf("webhook failure should not fail analysis: %v", err)
	}
}

func TestCollectWebhooks(t *testing.T) {
	t.Run("config only", func(t *testing.T) {
		cfg := &config.Config{
			Webhooks: []config.WebhookConfig{
				{Name: "mes", URL: "https://mes.example.com/hook"},
				{Name: "ops", URL: "https://ops.example.com/hook"},
			},
		}

		webhooks, err := collectWebhooks(cfg, &AnalyzeOptions{})
		if err != nil {
			t.Fatalf("collectWebhooks() error = %v", err)
		}
		if len(webhooks) != 2 {
			t.Errorf("got %d webhooks, want 2", len(webhooks))
		}
	})

	t.Run("cli only", func(t *testing.T) {
		opts := &AnalyzeOptions{
			WebhookURL:     "https://cli.example.com/webhook",
			WebhookToken:   "secret",
			WebhookTrigger: "on_rejected",
		}

		webhooks, err := collectWebhooks(&config.Config{}, opts)
		if err != nil {
			t.Fatalf("collectWebhooks() error = %v", err)
		}
		if len(webhooks) != 1 {
			t.Fatalf("got %d webhooks, want 1", len(webhooks))
		}
		wh := webhooks[0]
		if wh.Name != "cli" || wh.Token != "secret" {
			t.Errorf("got %+v", wh)
		}
		if wh.Trigger != config.WebhookTriggerOnRejected {
			t.Errorf("got trigger %q, want on_rejected", wh.Trigger)
		}
		if wh.Timeout != config.DefaultWebhookTimeout {
			t.Errorf("got timeout %v, want default", wh.Timeout)
		}
	})

	t.Run("default trigger", func(t *testing.T) {
		webhooks, err := collectWebhooks(&config.Config{}, &AnalyzeOptions{WebhookURL: "https://example.com/hook"})
		if err != nil {
			t.Fatalf("collectWebhooks() error = %v", err)
		}
		if webhooks[0].Trigger != config.WebhookTriggerOnDowntime {
			t.Errorf("got trigger %q, want on_downtime", webhooks[0].Trigger)
		}
	})

	t.Run("invalid cli trigger", func(t *testing.T) {
		opts := &AnalyzeOptions{WebhookURL: "https://example.com/hook", WebhookTrigger: "on_issues"}
		if _, err := collectWebhooks(&config.Config{}, opts); err == nil {
			t.Error("expected error for invalid trigger")
		}
	})

	t.Run("invalid cli url", func(t *testing.T) {
		opts := &AnalyzeOptions{WebhookURL: "ftp://example.com/hook"}
		if _, err := collectWebhooks(&config.Config{}, opts); err == nil {
			t.Error("expected error for non-http url")
		}
	})
}

func TestCreateFormatter(t *testing.T) {
	tests := []struct {
		output  string
		wantErr bool
	}{
		{"text", false},
		{"json", false},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			_, err := createFormatter(&AnalyzeOptions{Output: tt.output})
			if (err != nil) != tt.wantErr {
				t.Errorf("createFormatter(%q) error = %v, wantErr %v", tt.output, err, tt.wantErr)
			}
		})
	}
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}
