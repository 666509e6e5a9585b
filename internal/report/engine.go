// Package report builds hierarchical rollups of stored events.
package report

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/roach88/logmon/internal/catalog"
	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/logctx"
	"github.com/roach88/logmon/internal/model"
)

// Source is the part of the store a report reads.
type Source interface {
	QueryProcessed(ctx context.Context, f filter.Filter) ([]model.ProcessedFile, error)
	QueryEvents(ctx context.Context, f filter.Filter) iter.Seq2[model.EventRecord, error]
}

// Query selects what a report covers.
type Query struct {
	Filter filter.Filter
	// Attrs are catalog attributes. When non-empty, each dataset's ledger
	// files are intersected with a fresh catalog listing under Attrs.
	Attrs map[string]string
}

// ParseQuery splits loosely-typed arguments into filter fields and catalog
// attributes. Empty attribute values are dropped. Names that are neither
// fail with model.ErrInvalidFilter.
func ParseQuery(args map[string]string) (Query, error) {
	fields := map[string]string{}
	attrs := map[string]string{}
	var unknown []string
	for name, value := range args {
		switch {
		case isField(name):
			fields[name] = value
		case catalog.IsAllowedAttr(name):
			if value != "" {
				attrs[name] = value
			}
		default:
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Query{}, fmt.Errorf("%w: unknown argument(s) %s", model.ErrInvalidFilter, strings.Join(unknown, ", "))
	}

	f, err := filter.FromMap(fields)
	if err != nil {
		return Query{}, err
	}
	if len(attrs) == 0 {
		attrs = nil
	}
	return Query{Filter: f, Attrs: attrs}, nil
}

func isField(name string) bool {
	_, ok := filter.Lookup(name)
	return ok
}

// Engine builds rollups. Catalog is only consulted for queries with
// attributes.
type Engine struct {
	Source  Source
	Catalog catalog.Catalog
}

// New returns an Engine.
func New(src Source, cat catalog.Catalog) *Engine {
	return &Engine{Source: src, Catalog: cat}
}

// Build folds matching events of valid processed files into a rollup.
//
// Only events whose file has a ledger record count, so files evicted from
// the ledger drop out of every report. With attributes, the ledger files
// of each dataset are further restricted to the catalog's current listing;
// a catalog failure then fails the report.
func (e *Engine) Build(ctx context.Context, q Query) (*Rollup, error) {
	if err := filter.Validate(q.Filter, filter.Fields...); err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	if err := validateAttrs(q.Attrs); err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	logger := logctx.FromContext(ctx)

	processed, err := e.Source.QueryProcessed(ctx, q.Filter.Ledger())
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	// file -> dataset, for the files the report may cover
	valid := make(map[string]string, len(processed))
	byDataset := map[string][]string{}
	var datasets []string
	for _, p := range processed {
		if _, ok := byDataset[p.Dataset]; !ok {
			datasets = append(datasets, p.Dataset)
		}
		byDataset[p.Dataset] = append(byDataset[p.Dataset], p.File)
	}

	for _, ds := range datasets {
		files := byDataset[ds]
		if len(q.Attrs) > 0 {
			files, err = e.revalidate(ctx, ds, files, q.Attrs)
			if err != nil {
				return nil, fmt.Errorf("build report: %w", err)
			}
		}
		for _, f := range files {
			valid[f] = ds
		}
	}

	rollup := NewRollup()
	if len(valid) == 0 {
		return rollup, nil
	}

	for rec, err := range e.Source.QueryEvents(ctx, q.Filter.Events()) {
		if err != nil {
			return nil, fmt.Errorf("build report: %w", err)
		}
		if ds, ok := valid[rec.File]; ok {
			rollup.Add(ds, rec)
		}
	}

	logger.Debug().
		Int("datasets", len(datasets)).
		Int("files", len(valid)).
		Int("leaves", rollup.Len()).
		Msg("report built")
	return rollup, nil
}

func (e *Engine) revalidate(ctx context.Context, dataset string, ledger []string, attrs map[string]string) ([]string, error) {
	if e.Catalog == nil {
		return nil, fmt.Errorf("%w: no catalog configured for attribute filtering", model.ErrCatalogUnavailable)
	}
	listed, err := e.Catalog.ListFiles(ctx, dataset, attrs)
	if err != nil {
		return nil, fmt.Errorf("revalidate %s: %w", dataset, err)
	}
	current := make(map[string]struct{}, len(listed))
	for _, f := range listed {
		current[model.Normalize(f)] = struct{}{}
	}

	kept := ledger[:0:0]
	for _, f := range ledger {
		if _, ok := current[f]; ok {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

func validateAttrs(attrs map[string]string) error {
	var unknown []string
	for name := range attrs {
		if !catalog.IsAllowedAttr(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown catalog attribute(s) %s", model.ErrInvalidFilter, strings.Join(unknown, ", "))
	}
	return nil
}
