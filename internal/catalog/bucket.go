package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/roach88/logmon/internal/filter"
	"github.com/roach88/logmon/internal/model"
)

// DefaultDatasetDepth is the number of key segments naming a dataset,
// as in /primary/processed/TIER.
const DefaultDatasetDepth = 3

// BucketConfig configures an object-store catalog.
type BucketConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Prefix is prepended to every dataset path inside the bucket.
	Prefix string
	// DatasetDepth is the number of key segments naming a dataset.
	DatasetDepth int
}

// Bucket is a catalog backed by an S3-compatible bucket. The files of
// dataset "/A/B/C" are the object keys under Prefix+"A/B/C/".
type Bucket struct {
	client *minio.Client
	bucket string
	prefix string
	depth  int
}

// NewBucket connects to the object store. Missing credentials do not fail:
// they produce an Unavailable catalog, since reconciliation is impossible
// rather than empty.
func NewBucket(cfg BucketConfig) (Catalog, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("bucket catalog: endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("bucket catalog: bucket is required")
	}

	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return Unavailable{Reason: "object store credentials are not configured"}, nil
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}

	depth := cfg.DatasetDepth
	if depth <= 0 {
		depth = DefaultDatasetDepth
	}

	return &Bucket{
		client: client,
		bucket: bucket,
		prefix: cfg.Prefix,
		depth:  depth,
	}, nil
}

// ListFiles lists the object keys under the dataset's prefix in key order.
func (b *Bucket) ListFiles(ctx context.Context, dataset string, attrs map[string]string) ([]string, error) {
	match, err := fileMatcher(attrs)
	if err != nil {
		return nil, err
	}

	files := []string{}
	opts := minio.ListObjectsOptions{Prefix: b.datasetPrefix(dataset), Recursive: true}
	for obj := range b.client.ListObjects(ctx, b.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: list %s: %w", model.ErrCatalogUnavailable, dataset, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		key := model.Normalize(obj.Key)
		if match.Match(key) {
			files = append(files, key)
		}
	}
	return files, nil
}

// ListDatasets derives dataset names from the key hierarchy.
func (b *Bucket) ListDatasets(ctx context.Context, pattern filter.Pattern) ([]string, error) {
	seen := map[string]struct{}{}
	opts := minio.ListObjectsOptions{Prefix: b.prefix, Recursive: true}
	for obj := range b.client.ListObjects(ctx, b.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: list datasets: %w", model.ErrCatalogUnavailable, obj.Err)
		}
		name, ok := datasetFromKey(strings.TrimPrefix(obj.Key, b.prefix), b.depth)
		if ok && pattern.Match(name) {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (b *Bucket) datasetPrefix(dataset string) string {
	return b.prefix + strings.Trim(dataset, "/") + "/"
}

// datasetFromKey returns "/" + the first depth segments of key. Keys with
// no segment below the dataset are not files of any dataset.
func datasetFromKey(key string, depth int) (string, bool) {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	if len(parts) <= depth {
		return "", false
	}
	return "/" + strings.Join(parts[:depth], "/"), true
}
