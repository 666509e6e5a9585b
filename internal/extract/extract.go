// Package extract turns a file identifier into its event occurrences.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/roach88/logmon/internal/model"
)

// Extractor reads one file's events. Failures are *model.ExtractionError;
// the file then stays pending for the next run.
type Extractor interface {
	Extract(ctx context.Context, file string) (model.Extraction, error)
}

// Format selects the dump encoding.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts "yaml", "yml" and "parquet".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unknown dump format %q (expected yaml or parquet)", s)
	}
}

func (f Format) ext() string {
	if f == FormatParquet {
		return ".parquet"
	}
	return ".yaml"
}

// Entry is one event occurrence in a dump.
type Entry struct {
	Severity string `yaml:"severity" parquet:"severity"`
	Category string `yaml:"category" parquet:"category"`
	Module   string `yaml:"module" parquet:"module"`
}

// DumpExtractor reads per-file event dumps written next to the data by the
// reconstruction job. The dump of file F lives at Root/F plus the format's
// extension.
type DumpExtractor struct {
	Root   string
	Format Format
}

// Path returns the dump location for file.
func (d *DumpExtractor) Path(file string) (string, error) {
	root := filepath.Clean(d.Root)
	p := filepath.Join(root, filepath.FromSlash(file)) + d.Format.ext()
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("file %q resolves outside dump root", file)
	}
	return p, nil
}

// Extract reads and decodes the dump of file.
func (d *DumpExtractor) Extract(ctx context.Context, file string) (model.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.ExtractionError{File: file, Err: err}
	}

	path, err := d.Path(file)
	if err != nil {
		return nil, &model.ExtractionError{File: file, Err: err}
	}

	var entries []Entry
	switch d.Format {
	case FormatParquet:
		entries, err = readParquet(path)
	default:
		entries, err = readYAML(path)
	}
	if err != nil {
		return nil, &model.ExtractionError{File: file, Err: err}
	}

	out := model.Extraction{}
	for i, e := range entries {
		if e.Severity == "" || e.Category == "" || e.Module == "" {
			return nil, &model.ExtractionError{
				File: file,
				Err:  fmt.Errorf("entry %d: severity, category and module are required", i),
			}
		}
		out.Add(model.Normalize(e.Severity), model.Normalize(e.Category), model.Normalize(e.Module))
	}
	return out, nil
}

func readYAML(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return entries, nil
}

func readParquet(path string) ([]Entry, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	entries, err := parquet.ReadFile[Entry](path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return entries, nil
}

// IsMissing reports whether err is an extraction failure caused by an
// absent dump.
func IsMissing(err error) bool {
	return errors.Is(err, model.ErrExtraction) && errors.Is(err, os.ErrNotExist)
}
