// Package querysql compiles typed filters into parameterized SQL.
//
// CRITICAL: Values are never interpolated; every value is a placeholder.
// CRITICAL: Every compiled SELECT carries an ORDER BY so results are
// deterministic.
package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/logmon/internal/filter"
)

// Dialect selects placeholder and wildcard syntax.
type Dialect int

const (
	// SQLite uses '?' placeholders and GLOB, which is case-sensitive.
	SQLite Dialect = iota
	// Postgres uses '$n' placeholders and LIKE with an explicit escape.
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "unknown"
	}
}

// Compiler accumulates parameters while building one statement.
type Compiler struct {
	dialect Dialect
	params  []any
}

// NewCompiler creates a Compiler for d.
func NewCompiler(d Dialect) *Compiler {
	return &Compiler{dialect: d}
}

// Params returns the parameters bound so far, in placeholder order.
func (c *Compiler) Params() []any {
	return c.params
}

// Bind records v and returns its placeholder.
func (c *Compiler) Bind(v any) string {
	c.params = append(c.params, v)
	if c.dialect == Postgres {
		return "$" + strconv.Itoa(len(c.params))
	}
	return "?"
}

// Where compiles the constrained fields of f into a conjunction.
// An unconstrained filter compiles to "1 = 1".
func (c *Compiler) Where(f filter.Filter) string {
	fields := f.Constrained()
	if len(fields) == 0 {
		return "1 = 1"
	}

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, c.predicate(field.String(), f.Get(field)))
	}
	return strings.Join(parts, " AND ")
}

// predicate compiles one pattern against column.
func (c *Compiler) predicate(column string, p filter.Pattern) string {
	switch p.Kind() {
	case filter.KindExact:
		return fmt.Sprintf("%s = %s", column, c.Bind(p.Value()))
	case filter.KindGlob:
		if c.dialect == Postgres {
			return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, column, c.Bind(likePattern(p.Value())))
		}
		return fmt.Sprintf("%s GLOB %s", column, c.Bind(globPattern(p.Value())))
	default:
		return "1 = 1"
	}
}

// Select builds SELECT columns FROM table WHERE <f> ORDER BY orderBy.
// MANDATORY: orderBy must not be empty.
func Select(d Dialect, table string, columns []string, f filter.Filter, orderBy []string) (string, []any, error) {
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("select from %s: no columns", table)
	}
	if len(orderBy) == 0 {
		return "", nil, fmt.Errorf("select from %s: ORDER BY is required", table)
	}

	c := NewCompiler(d)
	where := c.Where(f)

	order := make([]string, len(orderBy))
	for i, col := range orderBy {
		// Byte-wise collation keeps text ordering identical across backends.
		order[i] = col + ` COLLATE "C" ASC`
		if d == SQLite {
			order[i] = col + " COLLATE BINARY ASC"
		}
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		strings.Join(columns, ", "),
		table,
		where,
		strings.Join(order, ", "))
	return sql, c.Params(), nil
}

// Rebind rewrites '?' placeholders into the dialect's syntax. Statements
// passed here must not contain '?' inside string literals.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// globPattern turns a '*'-only pattern into an SQLite GLOB operand.
// '?' and '[' are bracketed so they match literally.
func globPattern(p string) string {
	var b strings.Builder
	for _, r := range p {
		switch r {
		case '?':
			b.WriteString("[?]")
		case '[':
			b.WriteString("[[]")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// likePattern turns a '*'-only pattern into a LIKE operand with '\' escapes.
func likePattern(p string) string {
	var b strings.Builder
	for _, r := range p {
		switch r {
		case '\\', '%', '_':
			b.WriteRune('\\')
			b.WriteRune(r)
		case '*':
			b.WriteRune('%')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
