package testutil

import (
	"context"
	"sync"

	"github.com/roach88/logmon/internal/model"
)

// FakeExtractor returns canned extractions per file.
type FakeExtractor struct {
	mu       sync.Mutex
	results  map[string]model.Extraction
	failures map[string]error
	calls    []string
}

// NewFakeExtractor creates an extractor that knows no files. Unknown files
// extract to an empty result.
func NewFakeExtractor() *FakeExtractor {
	return &FakeExtractor{
		results:  map[string]model.Extraction{},
		failures: map[string]error{},
	}
}

// Set registers the extraction of file.
func (x *FakeExtractor) Set(file string, e model.Extraction) *FakeExtractor {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.results[file] = e
	return x
}

// Fail makes extraction of file fail with err until Heal is called.
func (x *FakeExtractor) Fail(file string, err error) *FakeExtractor {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.failures[file] = err
	return x
}

// Heal clears an injected failure for file.
func (x *FakeExtractor) Heal(file string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.failures, file)
}

// Calls returns the files extracted so far, in call order.
func (x *FakeExtractor) Calls() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string{}, x.calls...)
}

// Extract implements extract.Extractor.
func (x *FakeExtractor) Extract(ctx context.Context, file string) (model.Extraction, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.calls = append(x.calls, file)

	if err := ctx.Err(); err != nil {
		return nil, &model.ExtractionError{File: file, Err: err}
	}
	if err, ok := x.failures[file]; ok {
		return nil, &model.ExtractionError{File: file, Err: err}
	}

	out := model.Extraction{}
	for k, comps := range x.results[file] {
		out[k] = append([]string{}, comps...)
	}
	return out, nil
}

// Extraction builds an extraction from severity, key, component triples,
// one per occurrence.
func Extraction(triples ...[3]string) model.Extraction {
	e := model.Extraction{}
	for _, t := range triples {
		e.Add(t[0], t[1], t[2])
	}
	return e
}
