package filter

import (
	"strings"

	"github.com/roach88/logmon/internal/model"
)

// Wildcard is the multi-character glob marker.
const Wildcard = "*"

// Field names a filterable column.
type Field int

const (
	Dataset Field = iota
	File
	Component
	Severity
	ClassificationKey
)

// Fields lists every field in column order.
var Fields = []Field{Dataset, File, Component, Severity, ClassificationKey}

// LedgerFields are the fields carried by the processed-file ledger.
var LedgerFields = []Field{Dataset, File}

// EventFields are the fields carried by the event table.
var EventFields = []Field{File, Component, Severity, ClassificationKey}

var fieldNames = map[Field]string{
	Dataset:           "dataset",
	File:              "file",
	Component:         "component",
	Severity:          "severity",
	ClassificationKey: "classification_key",
}

// aliases accepted by Lookup in addition to the canonical names.
var aliases = map[string]Field{
	"classificationKey": ClassificationKey,
	"log_key":           ClassificationKey,
	"key":               ClassificationKey,
	"module":            Component,
	"file_name":         File,
}

// String returns the canonical field name, which is also the column name.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// Lookup resolves a field by canonical name or alias.
func Lookup(name string) (Field, bool) {
	for f, n := range fieldNames {
		if n == name {
			return f, true
		}
	}
	f, ok := aliases[name]
	return f, ok
}

// Kind distinguishes the three pattern forms.
type Kind int

const (
	KindAny Kind = iota
	KindExact
	KindGlob
)

// Pattern is an exact-or-wildcard constraint on one field.
// The zero value is Any, which matches everything.
type Pattern struct {
	kind  Kind
	value string
}

// Any returns the unconstrained pattern.
func Any() Pattern { return Pattern{} }

// Exact returns a pattern requiring equality with v.
func Exact(v string) Pattern {
	return Pattern{kind: KindExact, value: model.Normalize(v)}
}

// Glob returns a wildcard pattern. '*' matches zero or more characters.
func Glob(v string) Pattern {
	return Pattern{kind: KindGlob, value: model.Normalize(v)}
}

// Parse interprets a raw argument. The empty string is Any; a value
// containing '*' is a glob; anything else is exact.
func Parse(s string) Pattern {
	switch {
	case s == "":
		return Any()
	case strings.Contains(s, Wildcard):
		return Glob(s)
	default:
		return Exact(s)
	}
}

// Kind returns the pattern form.
func (p Pattern) Kind() Kind { return p.kind }

// Value returns the normalized pattern text. Empty for Any.
func (p Pattern) Value() string { return p.value }

// IsAny reports whether the pattern is unconstrained.
func (p Pattern) IsAny() bool { return p.kind == KindAny }

func (p Pattern) String() string {
	if p.kind == KindAny {
		return Wildcard
	}
	return p.value
}

// Match reports whether s satisfies the pattern.
func (p Pattern) Match(s string) bool {
	switch p.kind {
	case KindExact:
		return s == p.value
	case KindGlob:
		return globMatch(p.value, s)
	default:
		return true
	}
}

// globMatch matches s against a pattern whose only metacharacter is '*'.
func globMatch(pattern, s string) bool {
	parts := strings.Split(pattern, Wildcard)
	if len(parts) == 1 {
		return s == pattern
	}

	first, last := parts[0], parts[len(parts)-1]
	if !strings.HasPrefix(s, first) {
		return false
	}
	s = s[len(first):]

	for _, mid := range parts[1 : len(parts)-1] {
		i := strings.Index(s, mid)
		if i < 0 {
			return false
		}
		s = s[i+len(mid):]
	}
	return strings.HasSuffix(s, last)
}

// Filter holds an optional pattern per field.
type Filter struct {
	Dataset           Pattern
	File              Pattern
	Component         Pattern
	Severity          Pattern
	ClassificationKey Pattern
}

// Get returns the pattern for field.
func (f Filter) Get(field Field) Pattern {
	switch field {
	case Dataset:
		return f.Dataset
	case File:
		return f.File
	case Component:
		return f.Component
	case Severity:
		return f.Severity
	case ClassificationKey:
		return f.ClassificationKey
	}
	return Any()
}

// With returns a copy of f with field set to p.
func (f Filter) With(field Field, p Pattern) Filter {
	switch field {
	case Dataset:
		f.Dataset = p
	case File:
		f.File = p
	case Component:
		f.Component = p
	case Severity:
		f.Severity = p
	case ClassificationKey:
		f.ClassificationKey = p
	}
	return f
}

// Constrained returns the fields with a non-Any pattern, in column order.
func (f Filter) Constrained() []Field {
	var out []Field
	for _, field := range Fields {
		if !f.Get(field).IsAny() {
			out = append(out, field)
		}
	}
	return out
}

// Ledger keeps only the dataset and file constraints.
func (f Filter) Ledger() Filter {
	return Filter{Dataset: f.Dataset, File: f.File}
}

// Events keeps only the constraints the event table can evaluate.
func (f Filter) Events() Filter {
	return Filter{
		File:              f.File,
		Component:         f.Component,
		Severity:          f.Severity,
		ClassificationKey: f.ClassificationKey,
	}
}

// MatchEvent evaluates the event-table fields against rec.
func (f Filter) MatchEvent(rec model.EventRecord) bool {
	return f.File.Match(rec.File) &&
		f.Component.Match(rec.Component) &&
		f.Severity.Match(rec.Severity) &&
		f.ClassificationKey.Match(rec.ClassificationKey)
}

// MatchProcessed evaluates the ledger fields against p.
func (f Filter) MatchProcessed(p model.ProcessedFile) bool {
	return f.Dataset.Match(p.Dataset) && f.File.Match(p.File)
}
