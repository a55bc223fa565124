package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveTenantHeader(t *testing.T) {
	var got string
	handler := ResolveTenant("tenant-default")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = TenantFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(TenantHeader, "tenant-override")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != "tenant-override" {
		t.Fatalf("expected header tenant, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != "tenant-default" {
		t.Fatalf("expected default tenant, got %q", got)
	}
}

func TestRequestLoggerAttachesContextLogger(t *testing.T) {
	logger := quietLogger()
	var sawLogger bool
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if !sawLogger {
		t.Fatalf("expected logger on request context")
	}
}
