package store

import (
	"context"
	"fmt"

	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/model"
	"github.com/roach88/logmon/internal/querysql"
)

// InsertProcessed records that file, from dataset, is fully ingested.
//
// The file is the identity key regardless of dataset: a second insert for
// the same file fails with *model.DuplicateKeyError. Callers log and
// ignore that, which makes re-runs idempotent.
//
// Note: Only call this after every event of file is persisted. The row is
// the commit point for the file.
func (s *Store) InsertProcessed(ctx context.Context, file, dataset string) error {
	p := model.ProcessedFile{File: model.Normalize(file), Dataset: model.Normalize(dataset)}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("insert processed: %w", err)
	}

	_, err := s.db.ExecContext(ctx, querysql.Rebind(s.dialect, `
		INSERT INTO processed_files (file, dataset)
		VALUES (?, ?)
	`), p.File, p.Dataset)
	if err != nil {
		return s.duplicateOr("insert processed", "processed_files", p.File, err)
	}
	return nil
}

// QueryProcessed returns the processed-file records matching f, which may
// constrain only dataset and file. Results are ordered by dataset, then
// file. Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryProcessed(ctx context.Context, f filter.Filter) ([]model.ProcessedFile, error) {
	if err := filter.Validate(f, filter.LedgerFields...); err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}

	query, params, err := querysql.Select(s.dialect, "processed_files",
		[]string{"file", "dataset"}, f, []string{"dataset", "file"})
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, s.classify("query processed", err)
	}
	defer rows.Close()

	files := []model.ProcessedFile{}
	for rows.Next() {
		var p model.ProcessedFile
		if err := rows.Scan(&p.File, &p.Dataset); err != nil {
			return nil, fmt.Errorf("scan processed: %w", err)
		}
		files = append(files, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("iterate processed", err)
	}
	return files, nil
}

// EvictStale removes the processed-file records of dataset whose file is
// absent from current, in one transaction, and returns the removed files
// in file order. Records of other datasets are untouched, and so are
// events: orphaned events become unreachable from reports and can be
// removed with SweepOrphans.
func (s *Store) EvictStale(ctx context.Context, dataset string, current map[string]struct{}) ([]string, error) {
	dataset = model.Normalize(dataset)
	if dataset == "" {
		return nil, fmt.Errorf("evict stale: missing dataset")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.classify("evict stale: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	rows, err := tx.QueryContext(ctx, querysql.Rebind(s.dialect, `
		SELECT file FROM processed_files
		WHERE dataset = ?
		ORDER BY file ASC
	`), dataset)
	if err != nil {
		return nil, s.classify("evict stale: select", err)
	}

	removed := []string{}
	for rows.Next() {
		var file string
		if err := rows.Scan(&file); err != nil {
			rows.Close()
			return nil, fmt.Errorf("evict stale: scan: %w", err)
		}
		if _, ok := current[file]; !ok {
			removed = append(removed, file)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, s.classify("evict stale: iterate", err)
	}
	rows.Close()

	deleteSQL := querysql.Rebind(s.dialect, `
		DELETE FROM processed_files
		WHERE file = ? AND dataset = ?
	`)
	for _, file := range removed {
		if _, err := tx.ExecContext(ctx, deleteSQL, file, dataset); err != nil {
			return nil, s.classify("evict stale: delete", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, s.classify("evict stale: commit", err)
	}
	return removed, nil
}
