// Package catalog adapts external file catalogs: the authoritative listing
// of which files currently belong to a dataset.
//
// A catalog that cannot be consulted (unconfigured, unauthenticated,
// unreachable) fails with model.ErrCatalogUnavailable. Callers must treat
// that as "no reconciliation possible", never as an empty dataset.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/model"
)

// Catalog lists datasets and their files.
type Catalog interface {
	// ListFiles returns the files of dataset in catalog order. attrs are
	// catalog-specific constraints (see AllowedAttrs); nil means none.
	ListFiles(ctx context.Context, dataset string, attrs map[string]string) ([]string, error)

	// ListDatasets returns the dataset names matching pattern, sorted.
	ListDatasets(ctx context.Context, pattern filter.Pattern) ([]string, error)
}

// AttrLogicalFileName restricts a listing to files matching a pattern.
// Every catalog in this package supports it.
const AttrLogicalFileName = "logical_file_name"

// AllowedAttrs are the catalog attributes a report query may pass through
// to the catalog for re-validation.
var AllowedAttrs = []string{
	"acquisition_era_name",
	"app_name",
	"cdate",
	"create_by",
	"data_tier_name",
	"dataset_access_type",
	"dataset_id",
	"detail",
	"global_tag",
	"last_modified_by",
	"ldate",
	AttrLogicalFileName,
	"max_cdate",
	"max_ldate",
	"min_cdate",
	"min_ldate",
	"output_module_label",
	"parent_dataset",
	"physics_group_name",
	"prep_id",
	"primary_ds_name",
	"primary_ds_type",
	"processed_ds_name",
	"processing_version",
	"pset_hash",
	"release_version",
	"run_num",
}

// IsAllowedAttr reports whether name is in AllowedAttrs.
func IsAllowedAttr(name string) bool {
	for _, a := range AllowedAttrs {
		if a == name {
			return true
		}
	}
	return false
}

// Unavailable is a catalog that cannot be consulted.
type Unavailable struct {
	Reason string
}

func (u Unavailable) err() error {
	if u.Reason == "" {
		return model.ErrCatalogUnavailable
	}
	return fmt.Errorf("%w: %s", model.ErrCatalogUnavailable, u.Reason)
}

// ListFiles always fails with model.ErrCatalogUnavailable.
func (u Unavailable) ListFiles(context.Context, string, map[string]string) ([]string, error) {
	return nil, u.err()
}

// ListDatasets always fails with model.ErrCatalogUnavailable.
func (u Unavailable) ListDatasets(context.Context, filter.Pattern) ([]string, error) {
	return nil, u.err()
}

// fileMatcher compiles the attributes a simple catalog understands.
// Any attribute other than logical_file_name is rejected.
func fileMatcher(attrs map[string]string) (filter.Pattern, error) {
	var unsupported []string
	for name := range attrs {
		if name != AttrLogicalFileName {
			unsupported = append(unsupported, name)
		}
	}
	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		return filter.Pattern{}, fmt.Errorf("%w: catalog does not support attribute(s) %s",
			model.ErrInvalidFilter, strings.Join(unsupported, ", "))
	}
	return filter.Parse(attrs[AttrLogicalFileName]), nil
}
