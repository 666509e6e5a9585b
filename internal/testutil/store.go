package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/logmon/internal/store"
)

// NewStore opens a SQLite store in a temp directory, closed on cleanup.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "logmon.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
