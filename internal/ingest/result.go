package ingest

import (
	"time"

	"github.com/google/uuid"
)

// State is where a file ended up after a run.
type State string

const (
	StatePending   State = "pending"
	StateCommitted State = "committed"
)

// Reason explains a file's final state. It is empty for a clean commit.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonExtractionFailed Reason = "extraction_failed"
	ReasonStoreError       Reason = "store_error"
	ReasonCancelled        Reason = "cancelled"
	// ReasonAlreadyRecorded marks a commit whose ledger record existed.
	ReasonAlreadyRecorded Reason = "already_recorded"
)

// FileResult is the outcome of one file.
type FileResult struct {
	File       string `json:"file"`
	State      State  `json:"state"`
	Reason     Reason `json:"reason,omitempty"`
	Events     int    `json:"events"`
	Duplicates int    `json:"duplicates"`
	Err        error  `json:"-"`
}

// Error returns the failure message, if any.
func (r FileResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// RunSummary reports one dataset-level run. Every selected file appears in
// Results exactly once.
type RunSummary struct {
	RunID    uuid.UUID    `json:"run_id"`
	Dataset  string       `json:"dataset"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Evicted  []string     `json:"evicted"`
	Results  []FileResult `json:"results"`
	// Err is set when the dataset could not be run at all, for example
	// because its catalog was unavailable.
	Err error `json:"-"`
}

// Committed counts files that reached the commit point.
func (s *RunSummary) Committed() int {
	n := 0
	for _, r := range s.Results {
		if r.State == StateCommitted {
			n++
		}
	}
	return n
}

// Skipped counts files left pending.
func (s *RunSummary) Skipped() int {
	return len(s.Results) - s.Committed()
}

// Reasons tallies results by reason; clean commits are omitted.
func (s *RunSummary) Reasons() map[Reason]int {
	out := map[Reason]int{}
	for _, r := range s.Results {
		if r.Reason != ReasonNone {
			out[r.Reason]++
		}
	}
	return out
}

// Events is the number of event records written during the run.
func (s *RunSummary) Events() int {
	n := 0
	for _, r := range s.Results {
		n += r.Events
	}
	return n
}

// OK reports whether the dataset ran and every file committed.
func (s *RunSummary) OK() bool {
	return s.Err == nil && s.Skipped() == 0
}
