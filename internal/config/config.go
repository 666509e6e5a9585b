// Package config loads logmon configuration.
//
// Sources are layered, later ones winning: built-in defaults, an optional
// YAML file, .env files, then the process environment (LOGMON_*). The
// result is checked against an embedded CUE schema.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" json:"store"`
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`
	Extract ExtractConfig `yaml:"extract" json:"extract"`
	Ingest  IngestConfig  `yaml:"ingest" json:"ingest"`
	Report  ReportConfig  `yaml:"report" json:"report"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite | postgres
	Path   string `yaml:"path" json:"path"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

// CatalogConfig selects the file catalog.
type CatalogConfig struct {
	Kind      string       `yaml:"kind" json:"kind"` // none | static | bucket
	File      string       `yaml:"file" json:"file"`
	CacheSize int          `yaml:"cache_size" json:"cache_size"`
	Bucket    BucketConfig `yaml:"bucket" json:"bucket"`
}

// BucketConfig configures an object-store catalog.
type BucketConfig struct {
	Endpoint     string `yaml:"endpoint" json:"endpoint"`
	Region       string `yaml:"region" json:"region"`
	AccessKey    string `yaml:"access_key" json:"access_key"`
	SecretKey    string `yaml:"secret_key" json:"secret_key"`
	Bucket       string `yaml:"bucket" json:"bucket"`
	Prefix       string `yaml:"prefix" json:"prefix"`
	UseSSL       bool   `yaml:"use_ssl" json:"use_ssl"`
	DatasetDepth int    `yaml:"dataset_depth" json:"dataset_depth"`
}

// ExtractConfig locates per-file event dumps.
type ExtractConfig struct {
	Root   string `yaml:"root" json:"root"`
	Format string `yaml:"format" json:"format"` // yaml | parquet
}

// IngestConfig tunes ingestion.
type IngestConfig struct {
	// Exclude lists classification keys never stored.
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// ReportConfig sets report defaults.
type ReportConfig struct {
	Dataset string `yaml:"dataset" json:"dataset"`
	Indent  int    `yaml:"indent" json:"indent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	Human bool   `yaml:"human" json:"human"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "logmon.db",
		},
		Catalog: CatalogConfig{
			Kind:      "none",
			CacheSize: 1024,
			Bucket: BucketConfig{
				Region:       "us-east-1",
				UseSSL:       true,
				DatasetDepth: 3,
			},
		},
		Extract: ExtractConfig{
			Root:   ".",
			Format: "yaml",
		},
		Ingest: IngestConfig{
			Exclude: []string{},
		},
		Report: ReportConfig{
			Dataset: "/*/*LogErrorMonitor*/USER",
			Indent:  4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Loader describes where configuration comes from.
type Loader struct {
	// Path is an optional YAML file. A missing file is an error.
	Path string
	// EnvFiles are .env files; missing ones are skipped.
	EnvFiles []string
	// LookupEnv reads the process environment; os.LookupEnv when nil.
	LookupEnv func(string) (string, bool)
}

// Load reads configuration from path (optional), ./.env and the
// environment.
func Load(path string) (*Config, error) {
	return Loader{Path: path, EnvFiles: []string{".env"}}.Load()
}

// Load builds and validates a Config.
func (l Loader) Load() (*Config, error) {
	cfg := Default()

	if l.Path != "" {
		if err := cfg.mergeFile(l.Path); err != nil {
			return nil, err
		}
	}

	env, err := l.environment()
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}

	if cfg.Ingest.Exclude == nil {
		cfg.Ingest.Exclude = []string{}
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
