// Package logctx carries a zerolog logger through context.Context.
//
// Callers enrich the logger with fields for a sub-operation (dataset,
// run_id, file) and pass the context down; every package logs through
// FromContext rather than a global.
//
//	ctx = logctx.WithStr(ctx, "dataset", dataset)
//	logctx.FromContext(ctx).Info().Msg("reconciled")
package logctx

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// loggerKey is the private key type for storing loggers in context.
type loggerKey struct{}

var (
	defaultMu     sync.RWMutex
	defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Options configures New.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", ...).
	// Empty means info.
	Level string
	// Human selects the console writer instead of JSON lines.
	Human bool
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if name := strings.TrimSpace(opts.Level); name != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(name))
		if err != nil {
			return zerolog.Nop(), err
		}
		level = parsed
	}

	out := w
	if opts.Human {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// DefaultLogger returns the logger used when a context carries none.
// It writes JSON to stderr.
func DefaultLogger() zerolog.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger overrides the fallback logger.
func SetDefaultLogger(l zerolog.Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// WithLogger returns a new context carrying logger.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the context's logger, or the default logger.
// It never returns a zero-value logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return DefaultLogger()
	}
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return DefaultLogger()
}

// WithStr returns a context whose logger has the string field added.
func WithStr(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, logger)
}
