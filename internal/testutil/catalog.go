package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/model"
)

// FakeCatalog is an in-memory catalog with call counting and failure
// injection.
type FakeCatalog struct {
	mu       sync.Mutex
	datasets map[string][]string
	fail     error
	calls    int
	attrs    []map[string]string
}

// NewFakeCatalog creates a catalog with no datasets.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{datasets: map[string][]string{}}
}

// Set replaces the listing of dataset.
func (c *FakeCatalog) Set(dataset string, files ...string) *FakeCatalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.datasets[dataset] = append([]string{}, files...)
	return c
}

// FailWith makes every subsequent call fail with err. A nil err restores
// normal behavior.
func (c *FakeCatalog) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = err
}

// Unavailable makes every subsequent call fail with
// model.ErrCatalogUnavailable.
func (c *FakeCatalog) Unavailable() {
	c.FailWith(model.ErrCatalogUnavailable)
}

// Calls returns the number of calls made so far.
func (c *FakeCatalog) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Attrs returns the attribute sets passed to ListFiles, in call order.
func (c *FakeCatalog) Attrs() []map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]string{}, c.attrs...)
}

// ListFiles returns the configured listing; attrs are recorded, not applied.
func (c *FakeCatalog) ListFiles(_ context.Context, dataset string, attrs map[string]string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.attrs = append(c.attrs, attrs)
	if c.fail != nil {
		return nil, c.fail
	}
	return append([]string{}, c.datasets[dataset]...), nil
}

// ListDatasets returns the sorted dataset names matching pattern.
func (c *FakeCatalog) ListDatasets(_ context.Context, pattern filter.Pattern) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.fail != nil {
		return nil, c.fail
	}
	names := []string{}
	for name := range c.datasets {
		if pattern.Match(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
