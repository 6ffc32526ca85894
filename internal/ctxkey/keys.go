// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

import (
	"context"
	"log/slog"
)

// LoggerKey is the context key type for the enriched logger.
// The CLI stores a command-scoped logger under it; the gateway derives
// request-scoped loggers carrying request_id from it.
type LoggerKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey{}, logger)
}

// Logger retrieves the enriched logger from context.
// Returns fallback if no logger is in context.
func Logger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(LoggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return fallback
}
