package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/logmon/internal/filter"
)

// DefaultCacheSize is the number of listings a Cached catalog keeps.
const DefaultCacheSize = 1024

// Cached memoizes successful listings of another catalog. Failures are
// never cached.
type Cached struct {
	inner Catalog
	cache *lru.Cache[string, []string]
}

// NewCached wraps inner with an LRU of size entries.
func NewCached(inner Catalog, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("init catalog cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// ListFiles returns a cached listing when one exists.
func (c *Cached) ListFiles(ctx context.Context, dataset string, attrs map[string]string) ([]string, error) {
	key := filesKey(dataset, attrs)
	if files, ok := c.cache.Get(key); ok {
		return clone(files), nil
	}

	files, err := c.inner.ListFiles(ctx, dataset, attrs)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, clone(files))
	return files, nil
}

// ListDatasets returns a cached dataset listing when one exists.
func (c *Cached) ListDatasets(ctx context.Context, pattern filter.Pattern) ([]string, error) {
	key := "datasets\x00" + pattern.String()
	if names, ok := c.cache.Get(key); ok {
		return clone(names), nil
	}

	names, err := c.inner.ListDatasets(ctx, pattern)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, clone(names))
	return names, nil
}

// Purge drops every cached listing.
func (c *Cached) Purge() {
	c.cache.Purge()
}

// filesKey is stable across map iteration order.
func filesKey(dataset string, attrs map[string]string) string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("files\x00")
	b.WriteString(dataset)
	for _, name := range names {
		b.WriteString("\x00")
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(attrs[name])
	}
	return b.String()
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
