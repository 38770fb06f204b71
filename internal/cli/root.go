// Package cli provides the command-line interface for oeelog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/oeelog/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return run(NewRootCommand(), os.Args[1:])
}

func run(rootCmd *cobra.Command, args []string) int {
	commands.ExitCode = commands.ExitOK
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return commands.ExitError
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oeelog",
		Short: "Machine state timeline from PCB marking logs",
		Long: `oeelog is a batch analysis tool for PCB laser-marking machine logs.

It replays the machine's log files in date order and classifies every
timestamped message into one of five states:
  - Productive (marking)
  - Idle (stopped, waiting for an alarm reset)
  - Standby (powered on, ready)
  - Downtime (error events)
  - Off (software closed)

From the resulting timeline it reports hours per state per calendar day,
completed marking cycles per product and a product catalogue, as text,
JSON, CSV or rows in a SQL database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
