package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/model"
	"github.com/roach88/logmon/internal/testutil"
)

func TestPendingWork_FreshDatasetReturnsCatalogOrder(t *testing.T) {
	s := testutil.NewStore(t)
	cat := testutil.NewFakeCatalog().Set("ds", "f3", "f1", "f2")

	p, err := New(cat, s).PendingWork(context.Background(), "ds")
	require.NoError(t, err)
	assert.Equal(t, []string{"f3", "f1", "f2"}, p.Files)
	assert.Empty(t, p.Evicted)
	assert.Equal(t, 3, p.Listed)
}

func TestPendingWork_SkipsProcessedFiles(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertProcessed(ctx, "f1", "ds"))

	cat := testutil.NewFakeCatalog().Set("ds", "f1", "f2")
	r := New(cat, s)

	for i := 0; i < 3; i++ {
		p, err := r.PendingWork(ctx, "ds")
		require.NoError(t, err)
		assert.Equal(t, []string{"f2"}, p.Files, "run %d", i)
	}
}

func TestPendingWork_DuplicateCatalogEntriesFirstWins(t *testing.T) {
	s := testutil.NewStore(t)
	cat := testutil.NewFakeCatalog().Set("ds", "f2", "f1", "f2", "f1")

	p, err := New(cat, s).PendingWork(context.Background(), "ds")
	require.NoError(t, err)
	assert.Equal(t, []string{"f2", "f1"}, p.Files)
	assert.Equal(t, 2, p.Listed)
}

func TestPendingWork_EvictsFilesGoneFromCatalog(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertProcessed(ctx, "old", "ds"))
	require.NoError(t, s.InsertProcessed(ctx, "kept", "ds"))
	require.NoError(t, s.InsertProcessed(ctx, "other-ds", "ds2"))

	cat := testutil.NewFakeCatalog().Set("ds", "kept", "new")
	p, err := New(cat, s).PendingWork(ctx, "ds")
	require.NoError(t, err)

	assert.Equal(t, []string{"new"}, p.Files)
	assert.Equal(t, []string{"old"}, p.Evicted)

	remaining, err := s.QueryProcessed(ctx, filter.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []model.ProcessedFile{
		{File: "kept", Dataset: "ds"},
		{File: "other-ds", Dataset: "ds2"},
	}, remaining)
}

func TestPendingWork_EmptyCatalogEvictsDataset(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertProcessed(ctx, "f1", "ds"))

	cat := testutil.NewFakeCatalog().Set("ds")
	p, err := New(cat, s).PendingWork(ctx, "ds")
	require.NoError(t, err)
	assert.Empty(t, p.Files)
	assert.Equal(t, []string{"f1"}, p.Evicted)
}

func TestPendingWork_CatalogUnavailableDoesNotEvict(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertProcessed(ctx, "f1", "ds"))

	cat := testutil.NewFakeCatalog().Set("ds")
	cat.Unavailable()

	_, err := New(cat, s).PendingWork(ctx, "ds")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrCatalogUnavailable))

	remaining, err := s.QueryProcessed(ctx, filter.Filter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestPendingWork_NormalizesCatalogNames(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertProcessed(ctx, "Caf\u00e9.root", "ds"))

	cat := testutil.NewFakeCatalog().Set("ds", "Cafe\u0301.root")
	p, err := New(cat, s).PendingWork(ctx, "ds")
	require.NoError(t, err)
	assert.Empty(t, p.Files)
	assert.Empty(t, p.Evicted)
}

func TestPendingWork_MissingDataset(t *testing.T) {
	_, err := New(testutil.NewFakeCatalog(), testutil.NewStore(t)).PendingWork(context.Background(), "")
	assert.Error(t, err)
}
