package ctxkey

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestLogger(t *testing.T) {
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	stored := slog.New(slog.NewTextHandler(io.Discard, nil)).With("command", "projects")

	if got := Logger(context.Background(), fallback); got != fallback {
		t.Error("Logger() without stored logger should return fallback")
	}

	ctx := WithLogger(context.Background(), stored)
	if got := Logger(ctx, fallback); got != stored {
		t.Error("Logger() should return the stored logger")
	}

	ctx = WithLogger(context.Background(), nil)
	if got := Logger(ctx, fallback); got != fallback {
		t.Error("Logger() with nil stored logger should return fallback")
	}
}
