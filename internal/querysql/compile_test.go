package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logmon/internal/filter"
)

func TestWhere_Unconstrained(t *testing.T) {
	c := NewCompiler(SQLite)
	assert.Equal(t, "1 = 1", c.Where(filter.Filter{}))
	assert.Empty(t, c.Params())
}

func TestWhere_SQLiteExactAndGlob(t *testing.T) {
	c := NewCompiler(SQLite)
	sql := c.Where(filter.Filter{
		File:      filter.Exact("f1"),
		Component: filter.Glob("mod*"),
	})
	assert.Equal(t, "file = ? AND component GLOB ?", sql)
	assert.Equal(t, []any{"f1", "mod*"}, c.Params())
}

func TestWhere_PostgresNumbersPlaceholders(t *testing.T) {
	c := NewCompiler(Postgres)
	sql := c.Where(filter.Filter{
		Dataset: filter.Exact("ds1"),
		File:    filter.Glob("f_*"),
	})
	assert.Equal(t, `dataset = $1 AND file LIKE $2 ESCAPE '\'`, sql)
	assert.Equal(t, []any{"ds1", `f\_%`}, c.Params())
}

func TestWhere_FieldOrderIsColumnOrder(t *testing.T) {
	c := NewCompiler(SQLite)
	sql := c.Where(filter.Filter{
		ClassificationKey: filter.Exact("Calib"),
		Severity:          filter.Exact("Error"),
		Component:         filter.Exact("A"),
	})
	assert.Equal(t, "component = ? AND severity = ? AND classification_key = ?", sql)
	assert.Equal(t, []any{"A", "Error", "Calib"}, c.Params())
}

func TestGlobPattern_EscapesMetacharacters(t *testing.T) {
	assert.Equal(t, "mod*", globPattern("mod*"))
	assert.Equal(t, "a[?]b[[]c]*", globPattern("a?b[c]*"))
}

func TestLikePattern_EscapesMetacharacters(t *testing.T) {
	assert.Equal(t, "mod%", likePattern("mod*"))
	assert.Equal(t, `100\%\_a\\b%`, likePattern(`100%_a\b*`))
}

func TestSelect_RequiresOrderBy(t *testing.T) {
	_, _, err := Select(SQLite, "events", []string{"file"}, filter.Filter{}, nil)
	require.Error(t, err)

	_, _, err = Select(SQLite, "events", nil, filter.Filter{}, []string{"file"})
	require.Error(t, err)
}

func TestSelect_SQLite(t *testing.T) {
	sql, params, err := Select(SQLite, "processed_files",
		[]string{"file", "dataset"},
		filter.Filter{Dataset: filter.Exact("ds1")},
		[]string{"dataset", "file"})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT file, dataset FROM processed_files WHERE dataset = ? ORDER BY dataset COLLATE BINARY ASC, file COLLATE BINARY ASC",
		sql)
	assert.Equal(t, []any{"ds1"}, params)
}

func TestSelect_Postgres(t *testing.T) {
	sql, params, err := Select(Postgres, "processed_files",
		[]string{"file", "dataset"},
		filter.Filter{Dataset: filter.Glob("ds*")},
		[]string{"dataset", "file"})
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT file, dataset FROM processed_files WHERE dataset LIKE $1 ESCAPE '\' ORDER BY dataset COLLATE "C" ASC, file COLLATE "C" ASC`,
		sql)
	assert.Equal(t, []any{"ds%"}, params)
}

func TestRebind(t *testing.T) {
	q := "INSERT INTO t (a, b) VALUES (?, ?)"
	assert.Equal(t, q, Rebind(SQLite, q))
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", Rebind(Postgres, q))
}
