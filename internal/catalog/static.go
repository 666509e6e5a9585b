package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/model"
)

// Static is an in-memory catalog, usually loaded from a YAML document:
//
//	datasets:
//	  /Jet/Run2016B-LogErrorMonitor-v1/USER:
//	    - /store/user/jet/file1.root
//	    - /store/user/jet/file2.root
type Static struct {
	Datasets map[string][]string `yaml:"datasets"`
}

// LoadStatic reads a Static catalog from a YAML file.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseStatic(data)
}

// ParseStatic decodes a Static catalog from YAML.
func ParseStatic(data []byte) (*Static, error) {
	var s Static
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if s.Datasets == nil {
		s.Datasets = map[string][]string{}
	}
	return &s, nil
}

// ListFiles returns the dataset's files in document order. An unknown
// dataset has no files.
func (s *Static) ListFiles(_ context.Context, dataset string, attrs map[string]string) ([]string, error) {
	match, err := fileMatcher(attrs)
	if err != nil {
		return nil, err
	}

	files := []string{}
	for _, f := range s.Datasets[dataset] {
		f = model.Normalize(f)
		if match.Match(f) {
			files = append(files, f)
		}
	}
	return files, nil
}

// ListDatasets returns the sorted dataset names matching pattern.
func (s *Static) ListDatasets(_ context.Context, pattern filter.Pattern) ([]string, error) {
	names := []string{}
	for name := range s.Datasets {
		if pattern.Match(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
