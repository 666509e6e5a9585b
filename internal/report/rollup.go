package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/logmon/internal/model"
)

// Key addresses one leaf of a rollup.
type Key struct {
	Dataset           string
	Severity          string
	ClassificationKey string
	Component         string
}

// Entry is one rollup leaf and its summed count.
type Entry struct {
	Key
	Count int64
}

// Row is the dataset-independent view of a leaf: the table a report page
// shows, summed across every dataset in the rollup.
type Row struct {
	Severity          string `json:"severity"`
	ClassificationKey string `json:"classification_key"`
	Component         string `json:"component"`
	Count             int64  `json:"count"`
}

// Rollup accumulates counts by dataset, severity, classification key and
// component. Contributions to the same key are summed, never overwritten.
// The zero value is not usable; call NewRollup.
type Rollup struct {
	counts map[Key]int64
}

// NewRollup returns an empty rollup.
func NewRollup() *Rollup {
	return &Rollup{counts: map[Key]int64{}}
}

// Add folds rec, which belongs to dataset, into the rollup.
func (r *Rollup) Add(dataset string, rec model.EventRecord) {
	k := Key{
		Dataset:           dataset,
		Severity:          rec.Severity,
		ClassificationKey: rec.ClassificationKey,
		Component:         rec.Component,
	}
	r.counts[k] += rec.Count
}

// Count returns the summed count of one leaf, 0 if absent.
func (r *Rollup) Count(dataset, severity, key, component string) int64 {
	return r.counts[Key{dataset, severity, key, component}]
}

// Len is the number of leaves.
func (r *Rollup) Len() int {
	return len(r.counts)
}

// Total sums every leaf.
func (r *Rollup) Total() int64 {
	var n int64
	for _, c := range r.counts {
		n += c
	}
	return n
}

// Datasets returns the datasets with at least one leaf, sorted.
func (r *Rollup) Datasets() []string {
	seen := map[string]struct{}{}
	for k := range r.counts {
		seen[k.Dataset] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for ds := range seen {
		out = append(out, ds)
	}
	sort.Strings(out)
	return out
}

// Entries returns every leaf in lexicographic key order.
func (r *Rollup) Entries() []Entry {
	out := make([]Entry, 0, len(r.counts))
	for k, c := range r.counts {
		out = append(out, Entry{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.less(out[j].Key) })
	return out
}

// Rows flattens the rollup across datasets, ordered by severity,
// classification key, then component.
func (r *Rollup) Rows() []Row {
	sums := map[Key]int64{}
	for k, c := range r.counts {
		k.Dataset = ""
		sums[k] += c
	}
	out := make([]Row, 0, len(sums))
	for k, c := range sums {
		out = append(out, Row{
			Severity:          k.Severity,
			ClassificationKey: k.ClassificationKey,
			Component:         k.Component,
			Count:             c,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		if a.ClassificationKey != b.ClassificationKey {
			return a.ClassificationKey < b.ClassificationKey
		}
		return a.Component < b.Component
	})
	return out
}

func (k Key) less(o Key) bool {
	if k.Dataset != o.Dataset {
		return k.Dataset < o.Dataset
	}
	if k.Severity != o.Severity {
		return k.Severity < o.Severity
	}
	if k.ClassificationKey != o.ClassificationKey {
		return k.ClassificationKey < o.ClassificationKey
	}
	return k.Component < o.Component
}

// MarshalJSON renders the nested mapping
// dataset → severity → classification key → component → count
// compactly, with keys in byte order.
func (r *Rollup) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	entries := r.Entries()

	// Entries are sorted, so each level's keys arrive grouped and ordered.
	buf.WriteByte('{')
	var prev Key
	for i, e := range entries {
		first := i == 0
		switch {
		case first:
		case e.Dataset != prev.Dataset:
			buf.WriteString("}}},")
		case e.Severity != prev.Severity:
			buf.WriteString("}},")
		case e.ClassificationKey != prev.ClassificationKey:
			buf.WriteString("},")
		default:
			buf.WriteByte(',')
		}

		if first || e.Dataset != prev.Dataset {
			if err := writeKey(&buf, e.Dataset); err != nil {
				return nil, err
			}
			buf.WriteByte('{')
		}
		if first || e.Dataset != prev.Dataset || e.Severity != prev.Severity {
			if err := writeKey(&buf, e.Severity); err != nil {
				return nil, err
			}
			buf.WriteByte('{')
		}
		if first || e.Dataset != prev.Dataset || e.Severity != prev.Severity || e.ClassificationKey != prev.ClassificationKey {
			if err := writeKey(&buf, e.ClassificationKey); err != nil {
				return nil, err
			}
			buf.WriteByte('{')
		}
		if err := writeKey(&buf, e.Component); err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "%d", e.Count)
		prev = e.Key
	}
	if len(entries) > 0 {
		buf.WriteString("}}}")
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalCanonical renders the rollup as key-sorted JSON indented with
// indent. The same rollup always yields the same bytes. There is no
// trailing newline.
func (r *Rollup) MarshalCanonical(indent string) ([]byte, error) {
	compact, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if indent == "" {
		return compact, nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", indent); err != nil {
		return nil, fmt.Errorf("indent rollup: %w", err)
	}
	return out.Bytes(), nil
}

// writeKey writes s as an object key followed by a colon. <, > and & are
// written literally.
func writeKey(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	buf.WriteByte(':')
	return nil
}
