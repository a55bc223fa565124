package http

import (
	"context"
	"log/slog"

	"github.com/example/corevo-scheduler/internal/logging"
)

// handlerLogger builds the per-request logger for a handler, preferring the
// logger carried by the request context over the handler's own fallback.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	pairs := []any{"handler", handlerName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logging.OrDefault(ctx, fallback).With(pairs...)
}
