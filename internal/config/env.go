package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LOGMON_"

// environment merges .env files under the process environment, which
// wins on conflicts.
func (l Loader) environment() (func(string) (string, bool), error) {
	dotenv := map[string]string{}
	for _, file := range l.EnvFiles {
		values, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", file, err)
		}
		for k, v := range values {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

func (c *Config) applyEnv(env func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := env(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	boolean := func(name string, dst *bool) {
		if v, ok := env(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := env(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("DB_DRIVER", &c.Store.Driver)
	str("DB", &c.Store.Path)
	str("PG_DSN", &c.Store.DSN)

	str("CATALOG", &c.Catalog.Kind)
	str("CATALOG_FILE", &c.Catalog.File)
	integer("CATALOG_CACHE_SIZE", &c.Catalog.CacheSize)

	b := &c.Catalog.Bucket
	str("S3_ENDPOINT", &b.Endpoint)
	str("S3_REGION", &b.Region)
	str("S3_BUCKET", &b.Bucket)
	str("S3_PREFIX", &b.Prefix)
	boolean("S3_USE_SSL", &b.UseSSL)
	integer("S3_DATASET_DEPTH", &b.DatasetDepth)
	// The object store's root credentials serve when no dedicated ones are set.
	b.AccessKey = firstNonEmpty(envValue(env, EnvPrefix+"S3_ACCESS_KEY"), b.AccessKey, envValue(env, "MINIO_ROOT_USER"))
	b.SecretKey = firstNonEmpty(envValue(env, EnvPrefix+"S3_SECRET_KEY"), b.SecretKey, envValue(env, "MINIO_ROOT_PASSWORD"))

	str("EXTRACT_ROOT", &c.Extract.Root)
	str("EXTRACT_FORMAT", &c.Extract.Format)

	if v, ok := env(EnvPrefix + "EXCLUDE"); ok {
		c.Ingest.Exclude = splitList(v)
	}

	str("REPORT_DATASET", &c.Report.Dataset)
	integer("REPORT_INDENT", &c.Report.Indent)

	str("LOG_LEVEL", &c.Log.Level)
	boolean("LOG_HUMAN", &c.Log.Human)

	return errors.Join(errs...)
}

func envValue(env func(string) (string, bool), key string) string {
	v, _ := env(key)
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
