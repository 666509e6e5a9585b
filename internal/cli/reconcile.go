package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/logmon/internal/model"
	"github.com/roach88/logmon/internal/reconcile"
)

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile <dataset>...",
		Short: "Show pending files and evict stale ledger records",
		Long: `Compare each dataset's catalog listing with the processed-file ledger.
Ledger records for files the catalog no longer lists are evicted; files
still to ingest are printed. Nothing is extracted.

Example:
  logmon reconcile /Jet/Run2016B-LogErrorMonitor-v1/USER`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, rootOpts, args)
		},
	}
	return cmd
}

type pendingView struct {
	Dataset string   `json:"dataset"`
	Listed  int      `json:"listed"`
	Pending []string `json:"pending"`
	Evicted []string `json:"evicted"`
	Error   string   `json:"error,omitempty"`
}

func runReconcile(cmd *cobra.Command, opts *RootOptions, datasets []string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: opts.Stderr, Verbose: opts.Verbose}
	a, ctx, err := openApp(cmd.Context(), opts, out)
	if err != nil {
		return err
	}
	defer a.Close()

	cat, err := a.catalog()
	if err != nil {
		return err
	}
	r := reconcile.New(cat, a.store)

	views := make([]pendingView, 0, len(datasets))
	incomplete := false
	for _, ds := range datasets {
		p, err := r.PendingWork(ctx, ds)
		if err != nil {
			if !errors.Is(err, model.ErrCatalogUnavailable) {
				return WrapExitError(ExitFailure, "reconciliation failed", err)
			}
			incomplete = true
			views = append(views, pendingView{Dataset: ds, Pending: []string{}, Evicted: []string{}, Error: err.Error()})
			continue
		}
		views = append(views, pendingView{Dataset: ds, Listed: p.Listed, Pending: p.Files, Evicted: p.Evicted})
	}

	err = out.Emit(views, func(w io.Writer) error {
		for _, v := range views {
			if v.Error != "" {
				fmt.Fprintf(w, "%s: skipped: %s\n", v.Dataset, v.Error)
				continue
			}
			fmt.Fprintf(w, "%s: %d listed, %d pending, %d evicted\n", v.Dataset, v.Listed, len(v.Pending), len(v.Evicted))
			for _, f := range v.Pending {
				fmt.Fprintf(w, "  pending  %s\n", f)
			}
			for _, f := range v.Evicted {
				fmt.Fprintf(w, "  evicted  %s\n", f)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if incomplete {
		return WrapExitError(ExitFailure, "catalog unavailable", errIncomplete)
	}
	return nil
}
