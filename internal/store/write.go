package store

import (
	"context"
	"fmt"

	"github.com/roach88/logmon/internal/model"
	"github.com/roach88/logmon/internal/querysql"
)

// InsertEvent inserts one event record in its own transaction.
//
// A record whose identity key (file, component, classification key,
// severity) already exists is rejected with *model.DuplicateKeyError; the
// stored row is never overwritten or merged. Callers treat this as a
// logged, non-fatal condition.
func (s *Store) InsertEvent(ctx context.Context, rec model.EventRecord) error {
	rec = model.NormalizeRecord(rec)
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	_, err := s.db.ExecContext(ctx, querysql.Rebind(s.dialect, `
		INSERT INTO events
		(file, component, severity, classification_key, count)
		VALUES (?, ?, ?, ?, ?)
	`),
		rec.File,
		rec.Component,
		rec.Severity,
		rec.ClassificationKey,
		rec.Count,
	)
	if err != nil {
		return s.duplicateOr("insert event", "events", rec.Key().String(), err)
	}
	return nil
}

// SweepOrphans deletes events whose file has no processed-file record,
// such as events left behind after EvictStale or an interrupted ingestion.
// Returns the number of rows removed.
//
// Note: Must not run while an ingestion is in flight; it would remove the
// events of a file that has not reached its commit point yet.
func (s *Store) SweepOrphans(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM events
		WHERE file NOT IN (SELECT file FROM processed_files)
	`)
	if err != nil {
		return 0, s.classify("sweep orphans", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep orphans: rows affected: %w", err)
	}
	return n, nil
}
