package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/model"
)

const staticYAML = `
datasets:
  /Jet/Run2016B-LogErrorMonitor-v1/USER:
    - /store/jet/f2.root
    - /store/jet/f1.root
    - /store/jet/other.root
  /Muon/Run2016B-LogErrorMonitor-v1/USER:
    - /store/muon/m1.root
  /Muon/Run2016B-v1/RECO: []
`

func TestStatic_ListFilesKeepsOrder(t *testing.T) {
	s, err := ParseStatic([]byte(staticYAML))
	require.NoError(t, err)

	files, err := s.ListFiles(context.Background(), "/Jet/Run2016B-LogErrorMonitor-v1/USER", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/store/jet/f2.root", "/store/jet/f1.root", "/store/jet/other.root"}, files)
}

func TestStatic_ListFilesUnknownDatasetIsEmpty(t *testing.T) {
	s, err := ParseStatic([]byte(staticYAML))
	require.NoError(t, err)

	files, err := s.ListFiles(context.Background(), "/Nope/X/USER", nil)
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestStatic_LogicalFileNameAttr(t *testing.T) {
	s, err := ParseStatic([]byte(staticYAML))
	require.NoError(t, err)

	files, err := s.ListFiles(context.Background(), "/Jet/Run2016B-LogErrorMonitor-v1/USER",
		map[string]string{AttrLogicalFileName: "/store/jet/f*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/store/jet/f2.root", "/store/jet/f1.root"}, files)
}

func TestStatic_UnsupportedAttr(t *testing.T) {
	s, err := ParseStatic([]byte(staticYAML))
	require.NoError(t, err)

	_, err = s.ListFiles(context.Background(), "/Jet/Run2016B-LogErrorMonitor-v1/USER",
		map[string]string{"run_num": "273158"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidFilter))
	assert.False(t, errors.Is(err, model.ErrCatalogUnavailable))
}

func TestStatic_ListDatasets(t *testing.T) {
	s, err := ParseStatic([]byte(staticYAML))
	require.NoError(t, err)

	names, err := s.ListDatasets(context.Background(), filter.Parse("/*/*LogErrorMonitor*/USER"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/Jet/Run2016B-LogErrorMonitor-v1/USER",
		"/Muon/Run2016B-LogErrorMonitor-v1/USER",
	}, names)
}

func TestParseStatic_Invalid(t *testing.T) {
	_, err := ParseStatic([]byte("datasets: [not, a, map]"))
	assert.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	u := Unavailable{Reason: "no credentials"}

	_, err := u.ListFiles(context.Background(), "ds", nil)
	assert.True(t, errors.Is(err, model.ErrCatalogUnavailable))
	assert.Contains(t, err.Error(), "no credentials")

	_, err = u.ListDatasets(context.Background(), filter.Any())
	assert.True(t, errors.Is(err, model.ErrCatalogUnavailable))
}

func TestIsAllowedAttr(t *testing.T) {
	assert.True(t, IsAllowedAttr("run_num"))
	assert.True(t, IsAllowedAttr(AttrLogicalFileName))
	assert.False(t, IsAllowedAttr("severity"))
}

// countingCatalog counts calls and can be told to fail.
type countingCatalog struct {
	files    []string
	calls    int
	failWith error
}

func (c *countingCatalog) ListFiles(context.Context, string, map[string]string) ([]string, error) {
	c.calls++
	if c.failWith != nil {
		return nil, c.failWith
	}
	return c.files, nil
}

func (c *countingCatalog) ListDatasets(context.Context, filter.Pattern) ([]string, error) {
	c.calls++
	return []string{"ds"}, nil
}

func TestCached_MemoizesListings(t *testing.T) {
	inner := &countingCatalog{files: []string{"f1", "f2"}}
	c, err := NewCached(inner, 8)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		files, err := c.ListFiles(ctx, "ds", map[string]string{"run_num": "1", "app_name": "x"})
		require.NoError(t, err)
		assert.Equal(t, []string{"f1", "f2"}, files)
	}
	assert.Equal(t, 1, inner.calls)

	// Different attrs are a different listing.
	_, err = c.ListFiles(ctx, "ds", map[string]string{"run_num": "2"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	_, err = c.ListDatasets(ctx, filter.Any())
	require.NoError(t, err)
	_, err = c.ListDatasets(ctx, filter.Any())
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)

	c.Purge()
	_, err = c.ListFiles(ctx, "ds", map[string]string{"run_num": "1", "app_name": "x"})
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls)
}

func TestCached_ReturnsCopies(t *testing.T) {
	inner := &countingCatalog{files: []string{"f1"}}
	c, err := NewCached(inner, 0)
	require.NoError(t, err)

	files, err := c.ListFiles(context.Background(), "ds", nil)
	require.NoError(t, err)
	files[0] = "mutated"

	files, err = c.ListFiles(context.Background(), "ds", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, files)
}

func TestCached_DoesNotCacheFailures(t *testing.T) {
	inner := &countingCatalog{failWith: model.ErrCatalogUnavailable}
	c, err := NewCached(inner, 8)
	require.NoError(t, err)

	_, err = c.ListFiles(context.Background(), "ds", nil)
	assert.Error(t, err)

	inner.failWith = nil
	inner.files = []string{"f1"}
	files, err := c.ListFiles(context.Background(), "ds", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, files)
	assert.Equal(t, 2, inner.calls)
}

func TestNewBucket_MissingCredentialsIsUnavailable(t *testing.T) {
	c, err := NewBucket(BucketConfig{Endpoint: "localhost:9000", Bucket: "catalog"})
	require.NoError(t, err)

	_, err = c.ListFiles(context.Background(), "/A/B/C", nil)
	assert.True(t, errors.Is(err, model.ErrCatalogUnavailable))
}

func TestNewBucket_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewBucket(BucketConfig{Bucket: "catalog"})
	assert.Error(t, err)
	_, err = NewBucket(BucketConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestBucket_DatasetPrefix(t *testing.T) {
	c, err := NewBucket(BucketConfig{
		Endpoint:  "localhost:9000",
		Bucket:    "catalog",
		AccessKey: "key",
		SecretKey: "secret",
		Prefix:    "inventory/",
	})
	require.NoError(t, err)
	b := c.(*Bucket)
	assert.Equal(t, "inventory/Jet/Run2016B/USER/", b.datasetPrefix("/Jet/Run2016B/USER"))
}

func TestDatasetFromKey(t *testing.T) {
	name, ok := datasetFromKey("Jet/Run2016B/USER/f1.root", 3)
	require.True(t, ok)
	assert.Equal(t, "/Jet/Run2016B/USER", name)

	_, ok = datasetFromKey("Jet/Run2016B/USER", 3)
	assert.False(t, ok)
}
