package filter

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/roach88/logmon/internal/model"
)

// Validate checks that f only constrains fields in allowed and that every
// pattern value is valid UTF-8. Errors wrap model.ErrInvalidFilter.
//
// Validate is a pure function with no side effects.
func Validate(f Filter, allowed ...Field) error {
	permitted := make(map[Field]bool, len(allowed))
	for _, field := range allowed {
		permitted[field] = true
	}

	var problems []string
	for _, field := range f.Constrained() {
		if !permitted[field] {
			problems = append(problems, fmt.Sprintf("field %q is not filterable here", field))
			continue
		}
		if !utf8.ValidString(f.Get(field).Value()) {
			problems = append(problems, fmt.Sprintf("field %q: value is not valid UTF-8", field))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", model.ErrInvalidFilter, strings.Join(problems, "; "))
	}
	return nil
}

// FromMap builds a Filter from loosely-typed arguments such as CLI flags
// or query-string parameters. Keys are canonical field names or aliases.
// Unknown keys are rejected.
func FromMap(args map[string]string) (Filter, error) {
	var f Filter
	var unknown []string
	for name, raw := range args {
		field, ok := Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		f = f.With(field, Parse(raw))
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Filter{}, fmt.Errorf("%w: unknown field(s) %s", model.ErrInvalidFilter, strings.Join(unknown, ", "))
	}
	return f, nil
}
