package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logmon/internal/model"
)

func TestValidate_RejectsFieldsOutsideTable(t *testing.T) {
	f := Filter{Dataset: Exact("ds"), Component: Exact("modX")}

	err := Validate(f, LedgerFields...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidFilter))
	assert.Contains(t, err.Error(), `"component"`)

	assert.NoError(t, Validate(f, Fields...))
}

func TestValidate_RejectsInvalidUTF8(t *testing.T) {
	f := Filter{File: Pattern{kind: KindExact, value: "bad\xff"}}
	err := Validate(f, EventFields...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidFilter))
}

func TestValidate_EmptyFilter(t *testing.T) {
	assert.NoError(t, Validate(Filter{}))
}

func TestFromMap(t *testing.T) {
	f, err := FromMap(map[string]string{
		"dataset":  "/*/*/USER",
		"module":   "modX",
		"severity": "",
	})
	require.NoError(t, err)
	assert.Equal(t, KindGlob, f.Dataset.Kind())
	assert.Equal(t, KindExact, f.Component.Kind())
	assert.True(t, f.Severity.IsAny())
}

func TestFromMap_UnknownKeys(t *testing.T) {
	_, err := FromMap(map[string]string{"run_num": "1", "bogus": "x", "dataset": "ds"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidFilter))
	assert.Contains(t, err.Error(), "bogus, run_num")
}
