package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/corevo-scheduler/internal/logging"
)

type contextKey string

const tenantContextKey contextKey = "tenant_id"

// TenantHeader carries the tenant identifier on every request.
const TenantHeader = "X-Tenant-ID"

// ContextWithTenant returns a derived context carrying the resolved tenant.
func ContextWithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenantID)
}

// TenantFromContext extracts the tenant identifier resolved for the request.
func TenantFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantContextKey).(string)
	return id, ok
}

// resolveTenant reads the tenant header, falling back to the configured
// default.
func resolveTenant(r *http.Request, fallback string) string {
	if tenant := strings.TrimSpace(r.Header.Get(TenantHeader)); tenant != "" {
		return tenant
	}
	return fallback
}

// ContextWithLogger returns a derived context that carries the provided
// logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts a logger previously attached to the context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
