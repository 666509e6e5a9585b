package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete events of files without a ledger record",
		Long: `Remove events left behind by evicted files or interrupted ingestion.
Do not run while an ingestion is in progress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), ErrWriter: rootOpts.Stderr, Verbose: rootOpts.Verbose}
			a, ctx, err := openApp(cmd.Context(), rootOpts, out)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.store.SweepOrphans(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "sweep failed", err)
			}
			a.logger.Info().Int64("removed", n).Msg("swept orphaned events")

			return out.Emit(map[string]int64{"removed": n}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Removed %d orphaned events.\n", n)
				return err
			})
		},
	}
}
