package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/logmon/internal/catalog"
	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/report"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Dataset   string
	File      string
	Severity  string
	Key       string
	Component string
	Attrs     map[string]string
	Indent    int
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report event counts by dataset, severity, key and component",
		Long: `Build the rollup dataset -> severity -> classification key -> component
-> count over processed files. Filter values containing '*' are wildcards;
others must match exactly. Matching is case-sensitive.

--attr passes catalog attributes (run_num, logical_file_name, ...). When
given, each dataset's files are re-validated against the catalog.

With --format json the output is the key-sorted rollup document itself.

Example:
  logmon report --dataset '/Jet/*/USER' --severity Error
  logmon report --attr run_num=273158 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "dataset pattern (default: report.dataset from the config)")
	cmd.Flags().StringVar(&opts.File, "file", "", "file pattern")
	cmd.Flags().StringVar(&opts.Severity, "severity", "", "severity pattern")
	cmd.Flags().StringVar(&opts.Key, "key", "", "classification key pattern")
	cmd.Flags().StringVar(&opts.Component, "component", "", "component pattern")
	cmd.Flags().StringToStringVar(&opts.Attrs, "attr", nil, "catalog attribute filter (repeatable)")
	cmd.Flags().IntVar(&opts.Indent, "indent", -1, "JSON indent width (default: report.indent from the config)")

	return cmd
}

func runReport(cmd *cobra.Command, opts *ReportOptions) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: opts.Stderr, Verbose: opts.Verbose}
	a, ctx, err := openApp(cmd.Context(), opts.RootOptions, out)
	if err != nil {
		return err
	}
	defer a.Close()

	dataset := opts.Dataset
	if !cmd.Flags().Changed("dataset") {
		dataset = a.cfg.Report.Dataset
	}
	args := map[string]string{
		"dataset":            dataset,
		"file":               opts.File,
		"severity":           opts.Severity,
		"classification_key": opts.Key,
		"component":          opts.Component,
	}
	for name, value := range opts.Attrs {
		if field, clash := filter.Lookup(name); clash {
			return NewExitError(ExitCommandError, fmt.Sprintf("--attr %s: %s is a filter field, use its flag", name, field))
		}
		args[name] = value
	}

	q, err := report.ParseQuery(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid report query", err)
	}

	var cat catalog.Catalog
	if len(q.Attrs) > 0 {
		if cat, err = a.catalog(); err != nil {
			return err
		}
	}

	rollup, err := report.New(a.store, cat).Build(ctx, q)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build report", err)
	}

	if opts.Format == "json" {
		indent := opts.Indent
		if indent < 0 {
			indent = a.cfg.Report.Indent
		}
		doc, err := rollup.MarshalCanonical(strings.Repeat(" ", indent))
		if err != nil {
			return WrapExitError(ExitFailure, "failed to render report", err)
		}
		_, err = fmt.Fprintf(out.Writer, "%s\n", doc)
		return err
	}
	return writeRollup(out.Writer, rollup)
}

// writeRollup renders one table per dataset.
func writeRollup(w io.Writer, r *report.Rollup) error {
	if r.Len() == 0 {
		_, err := fmt.Fprintln(w, "No events matched.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	var dataset string
	for i, e := range r.Entries() {
		if i == 0 || e.Dataset != dataset {
			if i > 0 {
				fmt.Fprintln(tw)
			}
			dataset = e.Dataset
			fmt.Fprintf(tw, "%s\n", dataset)
			fmt.Fprintf(tw, "  SEVERITY\tKEY\tCOMPONENT\tCOUNT\n")
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\n", e.Severity, e.ClassificationKey, e.Component, e.Count)
	}
	fmt.Fprintf(tw, "\nTotal\t\t\t%d\n", r.Total())
	return tw.Flush()
}

