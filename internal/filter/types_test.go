package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/logmon/internal/model"
)

func TestParse(t *testing.T) {
	assert.Equal(t, KindAny, Parse("").Kind())
	assert.Equal(t, KindExact, Parse("modX").Kind())
	assert.Equal(t, KindGlob, Parse("mod*").Kind())
	assert.Equal(t, KindGlob, Parse("*").Kind())
	assert.Equal(t, "mod*", Parse("mod*").Value())
}

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"mod*", "modX", true},
		{"mod*", "modY", true},
		{"mod*", "mod", true},
		{"mod*", "other", false},
		{"mod*", "Mod", false},
		{"*X", "modX", true},
		{"*X", "modY", false},
		{"*", "", true},
		{"*", "anything", true},
		{"/*/*LogErrorMonitor*/USER", "/Jet/Run2016B-LogErrorMonitor-v1/USER", true},
		{"/*/*LogErrorMonitor*/USER", "/Jet/Run2016B-v1/USER", false},
		{"a*b*c", "abc", true},
		{"a*b*c", "aXbYc", true},
		{"a*b*c", "acb", false},
		{"a**c", "ac", true},
		{"ab*ba", "aba", false},
		{"file_?.root", "file_?.root", true},
		{"file_?.root", "file_1.root", false},
		{"modX", "modX", true},
		{"modX", "modx", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.pattern).Match(tt.input))
		})
	}
}

func TestPattern_AnyMatchesEverything(t *testing.T) {
	assert.True(t, Any().Match(""))
	assert.True(t, Any().Match("x"))
	assert.Equal(t, "*", Any().String())
}

func TestPattern_NormalizesValue(t *testing.T) {
	p := Exact("Cafe\u0301")
	assert.Equal(t, "Caf\u00e9", p.Value())
	assert.True(t, p.Match("Caf\u00e9"))
}

func TestLookup_Aliases(t *testing.T) {
	for name, want := range map[string]Field{
		"dataset":            Dataset,
		"file":               File,
		"file_name":          File,
		"component":          Component,
		"module":             Component,
		"severity":           Severity,
		"classification_key": ClassificationKey,
		"classificationKey":  ClassificationKey,
		"log_key":            ClassificationKey,
	} {
		got, ok := Lookup(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := Lookup("run_num")
	assert.False(t, ok)
}

func TestFilter_SplitLedgerAndEvents(t *testing.T) {
	f := Filter{
		Dataset:           Exact("ds1"),
		File:              Glob("f*"),
		Component:         Exact("modX"),
		Severity:          Exact("Error"),
		ClassificationKey: Exact("Calib"),
	}

	ledger := f.Ledger()
	assert.Equal(t, []Field{Dataset, File}, ledger.Constrained())

	events := f.Events()
	assert.Equal(t, []Field{File, Component, Severity, ClassificationKey}, events.Constrained())
	assert.True(t, events.Dataset.IsAny())
}

func TestFilter_MatchEvent(t *testing.T) {
	rec := model.EventRecord{File: "f1", Component: "modX", Severity: "Error", ClassificationKey: "Calib", Count: 3}

	assert.True(t, Filter{}.MatchEvent(rec))
	assert.True(t, Filter{Component: Glob("mod*"), Severity: Exact("Error")}.MatchEvent(rec))
	assert.False(t, Filter{Component: Glob("mod*"), Severity: Exact("Warning")}.MatchEvent(rec))
}

func TestFilter_MatchProcessed(t *testing.T) {
	p := model.ProcessedFile{File: "f1", Dataset: "ds1"}
	assert.True(t, Filter{Dataset: Glob("ds*")}.MatchProcessed(p))
	assert.False(t, Filter{Dataset: Exact("ds2")}.MatchProcessed(p))
}
