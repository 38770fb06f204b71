package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/oeelog/pkg/config"
	"github.com/ccollicutt/oeelog/pkg/output"
	"github.com/ccollicutt/oeelog/pkg/parser"
	"github.com/ccollicutt/oeelog/pkg/status"
	"github.com/ccollicutt/oeelog/pkg/store"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate an oeelog configuration file without running analysis.

Checks:
  - YAML syntax
  - Required fields
  - File date pattern (three capture groups: year, month, day)
  - Encoding, fallback status and markers
  - Database and webhook settings
  - Log source file existence and file-name dates (warnings only)

With --runs the configured database is opened and the analysis runs stored
by "analyze --store" are listed.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}

	cmd.Flags().Bool("runs", false, "List analysis runs stored in the configured database")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Validation already succeeded, so the classifier builds.
	classifier, err := status.NewClassifier(cfg.Markers.Markers, cfg.Fallback())
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Log sources:   %d pattern(s)\n", len(cfg.LogSources))
	fmt.Fprintf(out, "  File date:     %s (strict: %v)\n", cfg.FileDate.Pattern, cfg.FileDate.Strict)
	fmt.Fprintf(out, "  Encoding:      %s\n", cfg.Encoding)
	fmt.Fprintf(out, "  Fallback:      %s\n", cfg.Fallback())
	fmt.Fprintf(out, "  Product mark:  %s\n", cfg.Markers.Product)
	if cfg.Database.Enabled() {
		fmt.Fprintf(out, "  Database:      %s (prefix %q)\n", cfg.Database.Driver, cfg.Database.TablePrefix)
	} else {
		fmt.Fprintf(out, "  Database:      disabled\n")
	}
	fmt.Fprintf(out, "  Webhooks:      %d\n", len(cfg.Webhooks))

	fmt.Fprintf(out, "\nTransition rules:\n")
	for i, r := range classifier.Rules() {
		fmt.Fprintf(out, "  %d. %s\n", i+1, r.Name)
	}

	if listRuns, _ := cmd.Flags().GetBool("runs"); listRuns {
		if err := printStoredRuns(ctx, out, cfg); err != nil {
			return err
		}
	}

	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		fmt.Fprintf(out, "\nWarning: Error expanding log source patterns: %v\n", err)
		return nil
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "\nWarning: No files match log source patterns\n")
		return nil
	}

	files = parser.SortLogFiles(files, cfg.FileDate.CompiledPattern())
	fmt.Fprintf(out, "\nLog files matched: %d\n", len(files))

	var undated []string
	for _, f := range files {
		date, err := parser.DateFromName(f, cfg.FileDate.CompiledPattern())
		if err != nil {
			undated = append(undated, f)
			fmt.Fprintf(out, "  - %s (no date)\n", f)
			continue
		}
		fmt.Fprintf(out, "  - %s (%s)\n", f, date.Format(output.DateLayout))
	}

	if len(undated) > 0 {
		action := "skipped"
		if cfg.FileDate.Strict {
			action = "fatal"
		}
		fmt.Fprintf(out, "\nWarning: %d file(s) carry no date and will be %s: %s\n",
			len(undated), action, strings.Join(undated, ", "))
	}

	return nil
}

// printStoredRuns lists the runs in the configured database with their
// productive hours.
func printStoredRuns(ctx context.Context, w io.Writer, cfg *config.Config) error {
	if !cfg.Database.Enabled() {
		return fmt.Errorf("--runs requires database.dsn in the configuration")
	}

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.Runs(ctx)
	if err != nil {
		return fmt.Errorf("listing stored runs: %w", err)
	}

	fmt.Fprintf(w, "\nStored runs: %d\n", len(runs))
	for _, r := range runs {
		totals, err := st.StatusTotals(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("reading run %s: %w", r.ID, err)
		}
		fmt.Fprintf(w, "  - %s: %d file(s), %d rejected, %d events, %d cycles, productive %.2fh\n",
			r.ID, r.Files, r.RejectedFiles, r.Events, r.Cycles,
			float64(totals[status.Productive])/3600)
	}
	return nil
}
