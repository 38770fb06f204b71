package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/oeelog/pkg/config"
	"github.com/ccollicutt/oeelog/pkg/detector"
	"github.com/ccollicutt/oeelog/pkg/output"
	"github.com/ccollicutt/oeelog/pkg/parser"
	"github.com/ccollicutt/oeelog/pkg/status"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ConfigFile  string
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Check how a log file lines up with the markers",
		Long: `Sample a machine log file and report how the state markers match it.

Replays the sampled lines through the state machine and reports:
  - how many lines carry an HH:MM:SS: timestamp
  - whether the file name carries a date, and which date formats fit
  - how often each transition rule fired (zero counts hint at wrong markers)
  - the product IDs declared in the sample

With --config the configured markers, date pattern and encoding are used,
otherwise the defaults. Optionally generates a starter config with
--write-config.

Example:
  oeelog detect /data/logs/2024.3.9.log
  oeelog detect --sample 2000 --config oeelog.yaml /data/logs/2024.3.9.log
  oeelog detect -w oeelog.yaml /data/logs/2024.3.9.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Use markers and file date pattern from this config")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	detectorOpts := []detector.Option{detector.WithSampleSize(opts.SampleSize)}

	if opts.ConfigFile != "" {
		cfg, err := config.Load(ctx, opts.ConfigFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		classifier, err := status.NewClassifier(cfg.Markers.Markers, cfg.Fallback())
		if err != nil {
			return fmt.Errorf("creating classifier: %w", err)
		}
		detectorOpts = append(detectorOpts,
			detector.WithClassifier(classifier),
			detector.WithDatePattern(cfg.FileDate.CompiledPattern()),
			detector.WithEncoding(cfg.Encoding),
			detector.WithProductMarker(cfg.Markers.Product),
		)
	}

	result, err := detector.New(detectorOpts...).DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	out := cmd.OutOrStdout()

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(out, result, logFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(out, result)
	case "", "text":
		return outputDetectText(out, result)
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult) error {
	fmt.Fprintln(w, "=== Log Marker Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", result.File)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Lines with timestamps: %d (%.1f%%)\n", result.ParsedLines, result.ParseRatio()*100)
	fmt.Fprintln(w)

	if result.HasDate() {
		fmt.Fprintf(w, "File date: %s\n", result.FileDate.Format(output.DateLayout))
	} else {
		fmt.Fprintf(w, "File date: none (%s)\n", result.DateError)
		fmt.Fprintln(w, "This file would be rejected by analyze.")
		if s := result.SuggestedDateFormat(); s != nil {
			fmt.Fprintf(w, "Suggested format: %s, reads %s\n", s.Format.Name, s.Date.Format(output.DateLayout))
			fmt.Fprintln(w)
			fmt.Fprintln(w, "--- Configuration snippet (copy to your config file) ---")
			fmt.Fprintln(w, "file_date:")
			fmt.Fprintf(w, "  pattern: '%s'\n", s.Format.PatternStr)
		}
	}
	fmt.Fprintln(w)

	if result.ParsedLines == 0 {
		fmt.Fprintln(w, "No timestamped lines found.")
		fmt.Fprintln(w, "Tip: machine log lines start with HH:MM:SS: followed by the message.")
		return nil
	}

	fmt.Fprintln(w, "Transition rules:")
	for _, h := range result.RuleHits {
		fmt.Fprintf(w, "  %-18s %6d\n", h.Rule, h.Count)
		if h.SampleLine != "" {
			fmt.Fprintf(w, "  %-18s e.g. %s\n", "", h.SampleLine)
		}
	}
	fmt.Fprintf(w, "  %-18s %6d\n", "(no rule)", result.Unmatched)
	fmt.Fprintln(w)

	if len(result.Products) == 0 {
		fmt.Fprintln(w, "Products: none declared")
	} else {
		fmt.Fprintf(w, "Products: %d\n", len(result.Products))
		for _, id := range result.Products {
			fmt.Fprintf(w, "  - %s\n", id)
		}
	}
	fmt.Fprintf(w, "State after sample: %s\n", result.FinalState)

	return nil
}

// JSONDateMatch represents a file-name date format in JSON output.
type JSONDateMatch struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	Date    string `json:"date"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string             `json:"file"`
	SampledLines int                `json:"sampled_lines"`
	ParsedLines  int                `json:"parsed_lines"`
	ParseRatio   float64            `json:"parse_ratio"`
	FileDate     string             `json:"file_date,omitempty"`
	DateError    string             `json:"date_error,omitempty"`
	DateFormats  []JSONDateMatch    `json:"date_formats"`
	Rules        []detector.RuleHit `json:"rules"`
	Unmatched    int                `json:"unmatched"`
	Products     []string           `json:"products"`
	FinalState   status.State       `json:"final_state"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult) error {
	out := JSONOutput{
		File:         result.File,
		SampledLines: result.SampledLines,
		ParsedLines:  result.ParsedLines,
		ParseRatio:   result.ParseRatio(),
		DateError:    result.DateError,
		DateFormats:  make([]JSONDateMatch, 0, len(result.DateMatches)),
		Rules:        result.RuleHits,
		Unmatched:    result.Unmatched,
		Products:     result.Products,
		FinalState:   result.FinalState,
	}
	if result.HasDate() {
		out.FileDate = result.FileDate.Format(output.DateLayout)
	}
	if out.Products == nil {
		out.Products = []string{}
	}

	for _, m := range result.DateMatches {
		out.DateFormats = append(out.DateFormats, JSONDateMatch{
			Name:    m.Format.Name,
			Pattern: m.Format.PatternStr,
			Date:    m.Date.Format(output.DateLayout),
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig generates a starter config file for the sampled log.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	pattern := parser.DefaultFileDatePattern
	if !result.HasDate() {
		s := result.SuggestedDateFormat()
		if s == nil {
			return fmt.Errorf("cannot generate config: no date format fits %s", filepath.Base(logFile))
		}
		pattern = s.Format.PatternStr
	}

	content := generateStarterConfig(logFile, pattern)

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template. The log source is
// the directory of logFile with every file in it.
func generateStarterConfig(logFile, datePattern string) string {
	dir := filepath.Dir(logFile)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	m := status.DefaultMarkers()

	return fmt.Sprintf(`# oeelog configuration
# Generated by: oeelog detect

log_sources:
  - %s
  # Add more directories or files:
  # - /data/machine2/*.log

file_date:
  pattern: '%s'
  strict: false

encoding: latin1
fallback_status: Standby

# Message literals written by the marking software. power_off and power_on
# match the whole message; the others are case-insensitive substrings.
markers:
  power_off: '%s'
  power_on: '%s'
  start_mark: '%s'
  cutting_done: '%s'
  error: '%s'
  marking_done: '%s'
  cycle_stop: '%s'
  product: '%s'

# database:
#   driver: sqlite
#   dsn: oeelog.db

# webhooks:
#   - name: downtime-alert
#     url: https://example.com/hook
#     trigger: on_downtime

logging:
  level: info
  format: console
`, filepath.Join(dir, "*"+filepath.Ext(logFile)),
		datePattern,
		m.PowerOff, m.PowerOn, m.StartMark, m.CuttingDone, m.Error, m.MarkingDone, m.CycleStop,
		parser.DefaultProductMarker)
}
