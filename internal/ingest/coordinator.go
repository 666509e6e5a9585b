package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roach88/logmon/internal/catalog"
	"github.com/roach88/logmon/internal/extract"
	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/logctx"
	"github.com/roach88/logmon/internal/model"
	"github.com/roach88/logmon/internal/reconcile"
)

// Store is the part of the store ingestion writes to.
type Store interface {
	InsertEvent(ctx context.Context, rec model.EventRecord) error
	InsertProcessed(ctx context.Context, file, dataset string) error
}

// Reconciler selects the files of a dataset still needing ingestion.
type Reconciler interface {
	PendingWork(ctx context.Context, dataset string) (reconcile.Pending, error)
}

// Coordinator runs ingestion. Store, Reconciler and Extractor are
// required; Catalog is only needed by RunMatching.
type Coordinator struct {
	Store      Store
	Reconciler Reconciler
	Extractor  extract.Extractor
	Catalog    catalog.Catalog

	// Exclude lists classification keys dropped before insertion.
	Exclude []string

	// NewRunID generates run IDs; uuid.New when nil.
	NewRunID func() uuid.UUID
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

func (c *Coordinator) runID() uuid.UUID {
	if c.NewRunID != nil {
		return c.NewRunID()
	}
	return uuid.New()
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Coordinator) excluded() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Exclude))
	for _, k := range c.Exclude {
		out[model.Normalize(k)] = struct{}{}
	}
	return out
}

// Run ingests every pending file of dataset in catalog order.
//
// The summary is always returned, also alongside an error. A catalog
// failure is recorded in RunSummary.Err and returned; nothing is ingested
// and nothing is evicted. A store outage or cancellation stops the run,
// marking the files not yet attempted as pending.
func (c *Coordinator) Run(ctx context.Context, dataset string) (*RunSummary, error) {
	dataset = model.Normalize(dataset)
	summary := &RunSummary{
		RunID:   c.runID(),
		Dataset: dataset,
		Started: c.now(),
		Evicted: []string{},
		Results: []FileResult{},
	}

	logger := logctx.FromContext(ctx).With().
		Str("run_id", summary.RunID.String()).
		Str("dataset", dataset).
		Logger()
	ctx = logctx.WithLogger(ctx, logger)

	pending, err := c.Reconciler.PendingWork(ctx, dataset)
	if err != nil {
		summary.Err = err
		summary.Finished = c.now()
		if errors.Is(err, model.ErrCatalogUnavailable) {
			logger.Warn().Err(err).Msg("catalog unavailable, dataset skipped")
		} else {
			logger.Error().Err(err).Msg("reconciliation failed")
		}
		return summary, err
	}
	summary.Evicted = pending.Evicted

	exclude := c.excluded()
	var runErr error
	for i, file := range pending.Files {
		if err := ctx.Err(); err != nil {
			for _, rest := range pending.Files[i:] {
				summary.Results = append(summary.Results, FileResult{
					File: rest, State: StatePending, Reason: ReasonCancelled, Err: err,
				})
			}
			runErr = fmt.Errorf("ingest %s: %w", dataset, err)
			break
		}

		result, fatal := c.ingestFile(ctx, logger, dataset, file, exclude)
		summary.Results = append(summary.Results, result)
		if fatal != nil {
			for _, rest := range pending.Files[i+1:] {
				summary.Results = append(summary.Results, FileResult{
					File: rest, State: StatePending, Reason: ReasonStoreError, Err: fatal,
				})
			}
			runErr = fmt.Errorf("ingest %s: %w", dataset, fatal)
			break
		}
	}

	summary.Finished = c.now()
	logSummary(logger, summary)
	return summary, runErr
}

// RunMatching runs every catalog dataset matching pattern, in name order.
// A dataset whose catalog listing fails is skipped with its summary's Err
// set; a store outage or cancellation stops the whole pass.
func (c *Coordinator) RunMatching(ctx context.Context, pattern filter.Pattern) ([]*RunSummary, error) {
	if c.Catalog == nil {
		return nil, fmt.Errorf("run matching: no catalog configured")
	}
	names, err := c.Catalog.ListDatasets(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("run matching %s: %w", pattern, err)
	}

	summaries := make([]*RunSummary, 0, len(names))
	for _, name := range names {
		summary, err := c.Run(ctx, name)
		summaries = append(summaries, summary)
		if err == nil || errors.Is(err, model.ErrCatalogUnavailable) {
			continue
		}
		if errors.Is(err, model.ErrStoreUnavailable) || ctx.Err() != nil {
			return summaries, err
		}
	}
	return summaries, nil
}

// ingestFile moves one file from Pending towards Committed. The returned
// error is non-nil only when the run must stop.
func (c *Coordinator) ingestFile(ctx context.Context, logger zerolog.Logger, dataset, file string, exclude map[string]struct{}) (FileResult, error) {
	result := FileResult{File: file, State: StatePending}
	log := logger.With().Str("file", file).Logger()

	// Extracting
	extraction, err := c.Extractor.Extract(ctx, file)
	if err != nil {
		result.Err = err
		result.Reason = ReasonExtractionFailed
		if ctx.Err() != nil {
			result.Reason = ReasonCancelled
		}
		log.Error().Err(err).Str("reason", string(result.Reason)).Msg("file left pending")
		return result, nil
	}

	records, err := Records(file, extraction, exclude)
	if err != nil {
		result.Err = &model.ExtractionError{File: file, Err: err}
		result.Reason = ReasonExtractionFailed
		log.Error().Err(err).Str("reason", string(result.Reason)).Msg("file left pending")
		return result, nil
	}

	// Writing Events
	for _, rec := range records {
		err := c.Store.InsertEvent(ctx, rec)
		switch {
		case err == nil:
			result.Events++
		case errors.Is(err, model.ErrDuplicateKey):
			result.Duplicates++
			log.Warn().Err(err).Msg("event already recorded")
		default:
			result.Err = err
			result.Reason = storeReason(ctx)
			log.Error().Err(err).Str("reason", string(result.Reason)).Msg("file left pending")
			if errors.Is(err, model.ErrStoreUnavailable) {
				return result, err
			}
			return result, nil
		}
	}

	// Committed
	err = c.Store.InsertProcessed(ctx, file, dataset)
	switch {
	case err == nil:
		result.State = StateCommitted
	case errors.Is(err, model.ErrDuplicateKey):
		result.State = StateCommitted
		result.Reason = ReasonAlreadyRecorded
		log.Warn().Err(err).Msg("file already recorded")
	default:
		result.Err = err
		result.Reason = storeReason(ctx)
		log.Error().Err(err).Str("reason", string(result.Reason)).Msg("file left pending")
		if errors.Is(err, model.ErrStoreUnavailable) {
			return result, err
		}
		return result, nil
	}

	log.Debug().
		Int("events", result.Events).
		Int("duplicates", result.Duplicates).
		Msg("file committed")
	return result, nil
}

// Records collapses an extraction into one record per distinct
// (severity, classification key, component), counting occurrences.
// Excluded keys are dropped. Records come out sorted by severity, key,
// then component, and every record is validated.
func Records(file string, e model.Extraction, exclude map[string]struct{}) ([]model.EventRecord, error) {
	file = model.Normalize(file)

	counts := map[model.EventKey]int64{}
	for k, components := range e {
		sev := model.Normalize(k.Severity)
		key := model.Normalize(k.ClassificationKey)
		if _, skip := exclude[key]; skip {
			continue
		}
		for _, comp := range components {
			id := model.EventKey{
				File:              file,
				Component:         model.Normalize(comp),
				ClassificationKey: key,
				Severity:          sev,
			}
			counts[id]++
		}
	}

	records := make([]model.EventRecord, 0, len(counts))
	for id, n := range counts {
		rec := model.EventRecord{
			File:              id.File,
			Component:         id.Component,
			Severity:          id.Severity,
			ClassificationKey: id.ClassificationKey,
			Count:             n,
		}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		if a.ClassificationKey != b.ClassificationKey {
			return a.ClassificationKey < b.ClassificationKey
		}
		return a.Component < b.Component
	})
	return records, nil
}

func storeReason(ctx context.Context) Reason {
	if ctx.Err() != nil {
		return ReasonCancelled
	}
	return ReasonStoreError
}

func logSummary(logger zerolog.Logger, s *RunSummary) {
	ev := logger.Info()
	if s.Skipped() > 0 {
		ev = logger.Warn()
	}
	reasons := zerolog.Dict()
	for reason, n := range s.Reasons() {
		reasons = reasons.Int(string(reason), n)
	}
	ev.Int("files", len(s.Results)).
		Int("committed", s.Committed()).
		Int("skipped", s.Skipped()).
		Int("events", s.Events()).
		Int("evicted", len(s.Evicted)).
		Dict("reasons", reasons).
		Dur("elapsed", s.Finished.Sub(s.Started)).
		Msg("ingestion run finished")
}
