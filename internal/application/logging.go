package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/corevo-scheduler/internal/gcal"
	"github.com/example/corevo-scheduler/internal/logging"
)

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.OrDefault(ctx, base)

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConnectionInactive):
		return "connection_inactive"
	case errors.Is(err, ErrNotSynced):
		return "not_synced"
	case errors.Is(err, gcal.ErrProviderNotConfigured):
		return "provider_not_configured"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "external"
}
