package cli

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/roach88/logmon/internal/catalog"
	"github.com/roach88/logmon/internal/config"
	"github.com/roach88/logmon/internal/extract"
	"github.com/roach88/logmon/internal/logctx"
	"github.com/roach88/logmon/internal/store"
)

// app holds what a command needs, built from flags and configuration.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  *store.Store
	out    *OutputFormatter
}

// openApp loads configuration, sets up logging and opens the store. The
// returned context carries the logger.
func openApp(ctx context.Context, opts *RootOptions, out *OutputFormatter) (*app, context.Context, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, ctx, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Store.Driver = "sqlite"
		cfg.Store.Path = opts.Database
	}

	logOpts := logctx.Options{Level: cfg.Log.Level, Human: cfg.Log.Human}
	if opts.Verbose {
		logOpts.Level = "debug"
		logOpts.Human = true
	}
	logger, err := logctx.New(opts.Stderr, logOpts)
	if err != nil {
		return nil, ctx, WrapExitError(ExitCommandError, "invalid log level", err)
	}
	ctx = logctx.WithLogger(ctx, logger)

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, ctx, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	logger.Debug().Str("driver", cfg.Store.Driver).Msg("store ready")

	return &app{cfg: cfg, logger: logger, store: st, out: out}, ctx, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("error closing database")
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig) (*store.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return store.OpenPostgres(ctx, cfg.DSN)
	default:
		return store.Open(cfg.Path)
	}
}

// catalog builds the configured catalog. "none" yields a catalog that is
// always unavailable.
func (a *app) catalog() (catalog.Catalog, error) {
	var cat catalog.Catalog
	cc := a.cfg.Catalog
	switch cc.Kind {
	case "static":
		s, err := catalog.LoadStatic(cc.File)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load catalog", err)
		}
		cat = s
	case "bucket":
		b, err := catalog.NewBucket(catalog.BucketConfig{
			Endpoint:     cc.Bucket.Endpoint,
			Region:       cc.Bucket.Region,
			AccessKey:    cc.Bucket.AccessKey,
			SecretKey:    cc.Bucket.SecretKey,
			Bucket:       cc.Bucket.Bucket,
			UseSSL:       cc.Bucket.UseSSL,
			Prefix:       cc.Bucket.Prefix,
			DatasetDepth: cc.Bucket.DatasetDepth,
		})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to configure catalog", err)
		}
		cat = b
	default:
		return catalog.Unavailable{Reason: "no catalog configured"}, nil
	}

	if cc.CacheSize > 0 {
		cached, err := catalog.NewCached(cat, cc.CacheSize)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to configure catalog", err)
		}
		return cached, nil
	}
	return cat, nil
}

func (a *app) extractor() (extract.Extractor, error) {
	format, err := extract.ParseFormat(a.cfg.Extract.Format)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid extract format", err)
	}
	return &extract.DumpExtractor{Root: a.cfg.Extract.Root, Format: format}, nil
}
