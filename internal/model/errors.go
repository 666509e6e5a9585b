package model

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	// ErrDuplicateKey is returned when an insert hits an existing identity key.
	// It is recovered locally: logged, and ingestion continues.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrCatalogUnavailable is returned when the external catalog cannot be
	// consulted. It never means "zero files".
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrExtraction marks a per-file extractor failure. The file stays pending.
	ErrExtraction = errors.New("extraction failed")

	// ErrStoreUnavailable marks an unreachable storage engine. It aborts a run.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidFilter is returned for filters that cannot be applied.
	ErrInvalidFilter = errors.New("invalid filter")
)

// DuplicateKeyError reports which row collided.
type DuplicateKeyError struct {
	Table string
	Key   string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: duplicate key %s", e.Table, e.Key)
}

// Is reports ErrDuplicateKey.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// ExtractionError wraps an extractor failure for one file.
type ExtractionError struct {
	File string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is reports ErrExtraction.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}
