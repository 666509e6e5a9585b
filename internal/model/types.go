package model

import (
	"fmt"
	"strings"
)

// EventRecord is one stored row of the event table.
// Records are immutable once written.
type EventRecord struct {
	File              string `json:"file"`
	Component         string `json:"component"`
	Severity          string `json:"severity"`
	ClassificationKey string `json:"classification_key"`
	Count             int64  `json:"count"`
}

// EventKey is the identity of an EventRecord.
type EventKey struct {
	File              string
	Component         string
	ClassificationKey string
	Severity          string
}

// String renders the key for log and error messages.
func (k EventKey) String() string {
	return fmt.Sprintf("(%s, %s, %s, %s)", k.File, k.Component, k.ClassificationKey, k.Severity)
}

// Key returns the identity key of the record.
func (r EventRecord) Key() EventKey {
	return EventKey{
		File:              r.File,
		Component:         r.Component,
		ClassificationKey: r.ClassificationKey,
		Severity:          r.Severity,
	}
}

// Validate checks that every identity column is set and the count is positive.
func (r EventRecord) Validate() error {
	var missing []string
	if r.File == "" {
		missing = append(missing, "file")
	}
	if r.Component == "" {
		missing = append(missing, "component")
	}
	if r.Severity == "" {
		missing = append(missing, "severity")
	}
	if r.ClassificationKey == "" {
		missing = append(missing, "classification_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("event record: missing %s", strings.Join(missing, ", "))
	}
	if r.Count < 1 {
		return fmt.Errorf("event record %s: count must be >= 1, got %d", r.Key(), r.Count)
	}
	return nil
}

// ProcessedFile records that a file's events were fully persisted.
type ProcessedFile struct {
	File    string `json:"file"`
	Dataset string `json:"dataset"`
}

// Validate checks that both columns are set.
func (p ProcessedFile) Validate() error {
	if p.File == "" {
		return fmt.Errorf("processed file: missing file")
	}
	if p.Dataset == "" {
		return fmt.Errorf("processed file %q: missing dataset", p.File)
	}
	return nil
}

// ExtractKey groups extracted occurrences by severity and classification key.
type ExtractKey struct {
	Severity          string
	ClassificationKey string
}

// Extraction is what an extractor yields for one file: for each
// (severity, classification key) pair, every component occurrence observed.
// Repeated component names are kept so counts stay exact.
type Extraction map[ExtractKey][]string

// Add appends one occurrence of component under (severity, key).
func (e Extraction) Add(severity, key, component string) {
	k := ExtractKey{Severity: severity, ClassificationKey: key}
	e[k] = append(e[k], component)
}
