package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/oeelog/pkg/analyzer"
	"github.com/ccollicutt/oeelog/pkg/config"
	"github.com/ccollicutt/oeelog/pkg/logging"
	"github.com/ccollicutt/oeelog/pkg/output"
	"github.com/ccollicutt/oeelog/pkg/parser"
	"github.com/ccollicutt/oeelog/pkg/store"
	"github.com/ccollicutt/oeelog/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// Exit codes.
const (
	ExitOK       = 0
	ExitRejected = 1
	ExitError    = 2
)

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	Output      string
	CSVDir      string
	Timeline    bool
	From        string
	To          string
	Products    []string
	Store       bool
	StrictDates bool
	Verbose     bool
	Quiet       bool
	LogLevel    string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <config-file>",
		Short: "Build the machine timeline and daily state totals",
		Long: `Analyze PCB marking machine logs according to the configuration file.

Reads every log source in date order, classifies each timestamped message
into Productive, Idle, Standby, Downtime or Off, and reports:
  - hours per state per calendar day
  - completed marking cycles per product
  - the product catalogue
  - files skipped because their name carries no date

Exit codes:
  0 - Analysis complete
  1 - Analysis complete, but some log files were rejected
  2 - Configuration or runtime error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.CSVDir, "csv-dir", "", "Also write CSV tables into this directory")
	cmd.Flags().BoolVar(&opts.Timeline, "timeline", false, "Keep every timeline record in the report")
	cmd.Flags().StringVar(&opts.From, "from", "", "First day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.To, "to", "", "Last day to include (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&opts.Products, "product", nil, "Only count records of these product IDs (can be repeated)")
	cmd.Flags().BoolVar(&opts.Store, "store", false, "Save the report to the configured database")
	cmd.Flags().BoolVar(&opts.StrictDates, "strict-dates", false, "Fail on log files without a date in their name")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show per-file state and every cycle")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Diagnostic log level (debug|info|warn|error)")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnDowntime),
		"When to fire webhook (on_downtime|on_rejected|always|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger := logging.New(level, cfg.Logging.Format)
	defer func() { _ = logger.Sync() }()

	analyzerOpts, err := buildAnalyzerOptions(cmd, opts, logger)
	if err != nil {
		return err
	}

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	webhooks, err := collectWebhooks(cfg, opts)
	if err != nil {
		return err
	}

	if opts.Store && !cfg.Database.Enabled() {
		return fmt.Errorf("--store requires database.dsn in %s or %s", configPath, config.EnvDatabaseDSN)
	}

	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		return fmt.Errorf("expanding log sources: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no log files matched patterns: %v", cfg.LogSources)
	}
	files = parser.SortLogFiles(files, cfg.FileDate.CompiledPattern())

	logger.Debug("Log files resolved", zap.Int("files", len(files)), zap.Strings("order", files))

	a, err := analyzer.NewAnalyzer(cfg, analyzerOpts...)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	source := parser.NewFileSource(files, cfg.Encoding)
	defer source.Close()

	result, err := a.Analyze(ctx, source)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.NewReport(result, configPath)

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if opts.CSVDir != "" {
		written, err := output.WriteCSV(opts.CSVDir, report)
		if err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		logger.Info("CSV written", zap.String("dir", opts.CSVDir), zap.Strings("files", written))
	}

	if opts.Store {
		if err := saveReport(ctx, cfg, report, logger); err != nil {
			return err
		}
	}

	// Send webhooks (errors logged but don't fail analysis)
	client := webhook.NewClient(webhook.WithLogger(logger))
	client.Dispatch(ctx, report, webhooks)

	if report.HasRejected() {
		ExitCode = ExitRejected
	}

	return nil
}

func buildAnalyzerOptions(cmd *cobra.Command, opts *AnalyzeOptions, logger *zap.Logger) ([]analyzer.AnalyzerOption, error) {
	from, err := parseDay("from", opts.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDay("to", opts.To)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, fmt.Errorf("--to %s is before --from %s", opts.To, opts.From)
	}

	analyzerOpts := []analyzer.AnalyzerOption{
		analyzer.WithLogger(logger),
		analyzer.WithDateRange(from, to),
		analyzer.WithProductFilter(opts.Products),
		analyzer.WithKeepTimeline(opts.Timeline),
	}

	// Only an explicit flag overrides file_date.strict
	if cmd.Flags().Changed("strict-dates") {
		analyzerOpts = append(analyzerOpts, analyzer.WithStrictDates(opts.StrictDates))
	}

	return analyzerOpts, nil
}

// parseDay parses a YYYY-MM-DD flag value; empty means unbounded.
func parseDay(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse(output.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q (use YYYY-MM-DD): %w", flag, value, err)
	}
	return day, nil
}

func createFormatter(opts *AnalyzeOptions) (output.Formatter, error) {
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
}

func saveReport(ctx context.Context, cfg *config.Config, report *output.Report, logger *zap.Logger) error {
	st, err := store.Open(ctx, cfg.Database, store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	runID, err := st.SaveReport(ctx, report)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}

	logger.Info("Report stored",
		zap.String("run_id", runID),
		zap.String("driver", string(cfg.Database.Driver)))
	return nil
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) ([]config.WebhookConfig, error) {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)

	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		wh := config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTrigger(opts.WebhookTrigger),
		}
		if err := config.ValidateWebhook(&wh); err != nil {
			return nil, fmt.Errorf("--webhook-url: %w", err)
		}
		webhooks = append(webhooks, wh)
	}

	return webhooks, nil
}
