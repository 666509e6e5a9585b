package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/logmon/internal/filter"
)

// ProcessedOptions holds flags for the processed command.
type ProcessedOptions struct {
	*RootOptions
	Dataset string
	File    string
}

// NewProcessedCommand creates the processed command.
func NewProcessedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProcessedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "processed",
		Short: "List processed-file ledger records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessed(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "dataset pattern")
	cmd.Flags().StringVar(&opts.File, "file", "", "file pattern")

	return cmd
}

func runProcessed(cmd *cobra.Command, opts *ProcessedOptions) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: opts.Stderr, Verbose: opts.Verbose}
	a, ctx, err := openApp(cmd.Context(), opts.RootOptions, out)
	if err != nil {
		return err
	}
	defer a.Close()

	f := filter.Filter{Dataset: filter.Parse(opts.Dataset), File: filter.Parse(opts.File)}
	files, err := a.store.QueryProcessed(ctx, f)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to query ledger", err)
	}

	return out.Emit(files, func(w io.Writer) error {
		if len(files) == 0 {
			_, err := fmt.Fprintln(w, "No processed files.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATASET\tFILE")
		for _, p := range files {
			fmt.Fprintf(tw, "%s\t%s\n", p.Dataset, p.File)
		}
		return tw.Flush()
	})
}
