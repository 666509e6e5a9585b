package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/model"
	"github.com/roach88/logmon/internal/querysql"
)

var eventColumns = []string{"file", "component", "severity", "classification_key", "count"}

// eventOrder is the identity-key order used for every event query.
var eventOrder = []string{"file", "component", "classification_key", "severity"}

// QueryEvents returns every event record matching f.
//
// The result is lazy, finite, and restartable: each range over the returned
// sequence runs the query again. Records always carry every column. A
// failure is yielded once as the final element.
//
// Note: The SQLite store runs on one connection. Do not call other Store
// methods from inside the range loop; collect first or finish the loop.
func (s *Store) QueryEvents(ctx context.Context, f filter.Filter) iter.Seq2[model.EventRecord, error] {
	return func(yield func(model.EventRecord, error) bool) {
		if err := filter.Validate(f, filter.EventFields...); err != nil {
			yield(model.EventRecord{}, fmt.Errorf("query events: %w", err))
			return
		}

		query, params, err := querysql.Select(s.dialect, "events", eventColumns, f, eventOrder)
		if err != nil {
			yield(model.EventRecord{}, fmt.Errorf("query events: %w", err))
			return
		}

		rows, err := s.db.QueryContext(ctx, query, params...)
		if err != nil {
			yield(model.EventRecord{}, s.classify("query events", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanEvent(rows)
			if err != nil {
				yield(model.EventRecord{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(model.EventRecord{}, s.classify("iterate events", err))
		}
	}
}

// CollectEvents drains QueryEvents into a slice.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) CollectEvents(ctx context.Context, f filter.Filter) ([]model.EventRecord, error) {
	events := []model.EventRecord{}
	for rec, err := range s.QueryEvents(ctx, f) {
		if err != nil {
			return nil, err
		}
		events = append(events, rec)
	}
	return events, nil
}

// scanEvent scans a row into an EventRecord.
func scanEvent(rows *sql.Rows) (model.EventRecord, error) {
	var rec model.EventRecord
	if err := rows.Scan(&rec.File, &rec.Component, &rec.Severity, &rec.ClassificationKey, &rec.Count); err != nil {
		return model.EventRecord{}, fmt.Errorf("scan event: %w", err)
	}
	return rec, nil
}
