package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/ingest"
	"github.com/roach88/logmon/internal/model"
	"github.com/roach88/logmon/internal/reconcile"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Match   string
	Exclude []string
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest [dataset...]",
		Short: "Ingest pending files of datasets",
		Long: `Reconcile each dataset against the catalog, then extract and store the
events of every file not yet processed.

Without dataset arguments, every catalog dataset matching --match (default:
report.dataset from the config) is ingested.

Exit status is 1 when any file was left pending or a dataset's catalog was
unavailable.

Example:
  logmon ingest /Jet/Run2016B-LogErrorMonitor-v1/USER
  logmon ingest --match '/*/*LogErrorMonitor*/USER' --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Match, "match", "", "dataset pattern to ingest when no datasets are given")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "additional classification keys to drop")

	return cmd
}

func runIngest(cmd *cobra.Command, opts *IngestOptions, args []string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: opts.Stderr, Verbose: opts.Verbose}
	a, ctx, err := openApp(cmd.Context(), opts.RootOptions, out)
	if err != nil {
		return err
	}
	defer a.Close()

	cat, err := a.catalog()
	if err != nil {
		return err
	}
	ex, err := a.extractor()
	if err != nil {
		return err
	}

	coord := &ingest.Coordinator{
		Store:      a.store,
		Reconciler: reconcile.New(cat, a.store),
		Extractor:  ex,
		Catalog:    cat,
		Exclude:    append(append([]string{}, a.cfg.Ingest.Exclude...), opts.Exclude...),
	}

	var summaries []*ingest.RunSummary
	var runErr error
	if len(args) == 0 {
		match := opts.Match
		if match == "" {
			match = a.cfg.Report.Dataset
		}
		summaries, runErr = coord.RunMatching(ctx, filter.Parse(match))
	} else {
		for _, ds := range args {
			s, err := coord.Run(ctx, ds)
			summaries = append(summaries, s)
			if err != nil && !errors.Is(err, model.ErrCatalogUnavailable) {
				runErr = err
				break
			}
		}
	}

	views := make([]runView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, newRunView(s))
	}
	if err := out.Emit(views, func(w io.Writer) error { return writeRuns(w, views) }); err != nil {
		return err
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "ingestion aborted", runErr)
	}
	for _, s := range summaries {
		if !s.OK() {
			return WrapExitError(ExitFailure, "ingestion incomplete", errIncomplete)
		}
	}
	return nil
}

type fileView struct {
	File       string `json:"file"`
	State      string `json:"state"`
	Reason     string `json:"reason,omitempty"`
	Events     int    `json:"events"`
	Duplicates int    `json:"duplicates"`
	Error      string `json:"error,omitempty"`
}

type runView struct {
	RunID     string         `json:"run_id"`
	Dataset   string         `json:"dataset"`
	Committed int            `json:"committed"`
	Skipped   int            `json:"skipped"`
	Events    int            `json:"events"`
	Reasons   map[string]int `json:"reasons,omitempty"`
	Evicted   []string       `json:"evicted"`
	Error     string         `json:"error,omitempty"`
	Files     []fileView     `json:"files"`
}

func newRunView(s *ingest.RunSummary) runView {
	v := runView{
		RunID:     s.RunID.String(),
		Dataset:   s.Dataset,
		Committed: s.Committed(),
		Skipped:   s.Skipped(),
		Events:    s.Events(),
		Evicted:   s.Evicted,
		Files:     make([]fileView, 0, len(s.Results)),
	}
	if s.Err != nil {
		v.Error = s.Err.Error()
	}
	if reasons := s.Reasons(); len(reasons) > 0 {
		v.Reasons = map[string]int{}
		for r, n := range reasons {
			v.Reasons[string(r)] = n
		}
	}
	for _, r := range s.Results {
		v.Files = append(v.Files, fileView{
			File:       r.File,
			State:      string(r.State),
			Reason:     string(r.Reason),
			Events:     r.Events,
			Duplicates: r.Duplicates,
			Error:      r.Error(),
		})
	}
	return v
}

func writeRuns(w io.Writer, runs []runView) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No datasets matched.")
		return err
	}
	for _, r := range runs {
		if r.Error != "" {
			fmt.Fprintf(w, "%s: skipped: %s\n", r.Dataset, r.Error)
			continue
		}
		fmt.Fprintf(w, "%s: %d committed, %d skipped, %d events, %d evicted\n",
			r.Dataset, r.Committed, r.Skipped, r.Events, len(r.Evicted))

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, f := range r.Files {
			if f.State == string(ingest.StateCommitted) && f.Reason == "" {
				continue
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", f.File, f.State, f.Reason, strings.TrimSpace(f.Error))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
