// Package reconcile computes which files of a dataset still need ingesting.
package reconcile

import (
	"context"
	"fmt"

	"github.com/roach88/logmon/internal/catalog"
	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/logctx"
	"github.com/roach88/logmon/internal/model"
)

// Ledger is the part of the store the reconciler needs.
type Ledger interface {
	QueryProcessed(ctx context.Context, f filter.Filter) ([]model.ProcessedFile, error)
	EvictStale(ctx context.Context, dataset string, current map[string]struct{}) ([]string, error)
}

// Pending is the outcome of one reconciliation pass.
type Pending struct {
	// Files still requiring ingestion, in catalog order.
	Files []string
	// Evicted are the ledger records removed because the catalog no
	// longer lists them.
	Evicted []string
	// Listed is the number of distinct files the catalog returned.
	Listed int
}

// Reconciler compares a catalog listing with the ledger.
type Reconciler struct {
	Catalog catalog.Catalog
	Ledger  Ledger
}

// New returns a Reconciler.
func New(cat catalog.Catalog, ledger Ledger) *Reconciler {
	return &Reconciler{Catalog: cat, Ledger: ledger}
}

// PendingWork lists the dataset in the catalog, evicts ledger records the
// catalog no longer carries, and returns the catalog files without a
// ledger record.
//
// A catalog failure aborts before any eviction and is returned wrapping
// model.ErrCatalogUnavailable. Repeated calls converge: once a file is
// committed it is never selected again while the catalog lists it.
func (r *Reconciler) PendingWork(ctx context.Context, dataset string) (Pending, error) {
	dataset = model.Normalize(dataset)
	if dataset == "" {
		return Pending{}, fmt.Errorf("pending work: missing dataset")
	}
	logger := logctx.FromContext(ctx).With().Str("dataset", dataset).Logger()

	listed, err := r.Catalog.ListFiles(ctx, dataset, nil)
	if err != nil {
		return Pending{}, fmt.Errorf("pending work %s: %w", dataset, err)
	}

	// First occurrence wins on duplicate listings.
	current := make(map[string]struct{}, len(listed))
	ordered := make([]string, 0, len(listed))
	for _, f := range listed {
		f = model.Normalize(f)
		if _, dup := current[f]; dup {
			continue
		}
		current[f] = struct{}{}
		ordered = append(ordered, f)
	}

	recorded, err := r.Ledger.QueryProcessed(ctx, filter.Filter{Dataset: filter.Exact(dataset)})
	if err != nil {
		return Pending{}, fmt.Errorf("pending work %s: %w", dataset, err)
	}
	done := make(map[string]struct{}, len(recorded))
	for _, p := range recorded {
		done[p.File] = struct{}{}
	}

	evicted, err := r.Ledger.EvictStale(ctx, dataset, current)
	if err != nil {
		return Pending{}, fmt.Errorf("pending work %s: %w", dataset, err)
	}
	for _, f := range evicted {
		logger.Info().Str("file", f).Msg("evicted stale ledger record")
	}

	files := []string{}
	for _, f := range ordered {
		if _, ok := done[f]; !ok {
			files = append(files, f)
		}
	}

	logger.Debug().
		Int("listed", len(ordered)).
		Int("recorded", len(recorded)).
		Int("evicted", len(evicted)).
		Int("pending", len(files)).
		Msg("reconciled dataset")

	return Pending{Files: files, Evicted: evicted, Listed: len(ordered)}, nil
}
