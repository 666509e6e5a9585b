// Package cli implements the logmon command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string

	// Stderr receives logs; os.Stderr when nil.
	Stderr io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// errIncomplete marks runs that finished but left work undone.
var errIncomplete = errors.New("incomplete")

// NewRootCommand creates the root command for the logmon CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "logmon",
		Short: "logmon - log error monitor",
		Long: `Ingest per-file log error summaries of processing runs and report
aggregated counts by dataset, severity, classification key and component.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Stderr == nil {
				opts.Stderr = cmd.ErrOrStderr()
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logs, human-readable)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite database path (overrides config)")

	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewProcessedCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Interrupts cancel the command's context, which stops ingestion between
// files.
func Execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	var exitErr *ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// cobra's own failures: unknown command, bad flags, wrong arg count
		err = WrapExitError(ExitCommandError, "command error", err)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error [%s]: %v\n", ErrorCode(err), err)
	}
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
