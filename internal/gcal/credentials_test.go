package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/example/corevo-scheduler/internal/persistence"
)

type connectionRepoStub struct {
	updatedID           string
	updatedAccessToken  string
	updatedRefreshToken string
	updatedExpiry       time.Time
	updateCalls         int
	updateErr           error

	deactivated bool
}

func (s *connectionRepoStub) CreateConnection(ctx context.Context, conn persistence.CalendarConnection) error {
	return nil
}

func (s *connectionRepoStub) GetConnection(ctx context.Context, tenantID, ownerID string) (persistence.CalendarConnection, error) {
	return persistence.CalendarConnection{}, persistence.ErrNotFound
}

func (s *connectionRepoStub) ListActiveStaffConnections(ctx context.Context, tenantID string) ([]persistence.CalendarConnection, error) {
	return nil, nil
}

func (s *connectionRepoStub) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiry time.Time) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updateCalls++
	s.updatedID = id
	s.updatedAccessToken = accessToken
	s.updatedRefreshToken = refreshToken
	s.updatedExpiry = expiry
	return nil
}

func (s *connectionRepoStub) SetActive(ctx context.Context, id string, active bool) error {
	if !active {
		s.deactivated = true
	}
	return nil
}

func (s *connectionRepoStub) TouchAppointmentSync(ctx context.Context, id string, at time.Time) error {
	return nil
}

func (s *connectionRepoStub) TouchShiftSync(ctx context.Context, id string, at time.Time) error {
	return nil
}

type tokenServer struct {
	*httptest.Server
	calls        atomic.Int64
	rotate       bool
	failWith     int
	accessToken  string
	refreshToken string
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{accessToken: "refreshed-access", refreshToken: "rotated-refresh"}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		if ts.failWith != 0 {
			http.Error(w, `{"error":"invalid_grant"}`, ts.failWith)
			return
		}
		payload := map[string]any{
			"access_token": ts.accessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if ts.rotate {
			payload["refresh_token"] = ts.refreshToken
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode token response: %v", err)
		}
	}))
	t.Cleanup(ts.Server.Close)
	return ts
}

func testConnection(expiry time.Time) persistence.CalendarConnection {
	return persistence.CalendarConnection{
		ID:           "conn-1",
		TenantID:     "tenant-1",
		OwnerID:      "staff-1",
		CalendarID:   "cal-staff-1",
		AccessToken:  "stored-access",
		RefreshToken: "stored-refresh",
		TokenExpiry:  expiry,
		Active:       true,
	}
}

func newTestProvider(repo persistence.ConnectionRepository, server *tokenServer, now time.Time) *RefreshingCredentialProvider {
	provider := NewCredentialProvider(Config{ClientID: "client", ClientSecret: "secret"}, repo, func() time.Time { return now })
	if server != nil {
		provider.WithEndpoint(oauth2.Endpoint{AuthURL: server.URL + "/auth", TokenURL: server.URL + "/token"})
	}
	return provider
}

func TestEnsureValid_UsesStoredTokenBeforeExpiry(t *testing.T) {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	server := newTokenServer(t)
	repo := &connectionRepoStub{}
	provider := newTestProvider(repo, server, now)

	conn, token, err := provider.EnsureValid(context.Background(), testConnection(now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.AccessToken != "stored-access" || token.RefreshToken != "stored-refresh" {
		t.Fatalf("expected stored credential, got %+v", token)
	}
	if server.calls.Load() != 0 {
		t.Fatalf("expected no refresh round-trip, got %d", server.calls.Load())
	}
	if repo.updateCalls != 0 {
		t.Fatalf("expected no persistence write, got %d", repo.updateCalls)
	}
	if conn.AccessToken != "stored-access" {
		t.Fatalf("connection mutated unexpectedly: %+v", conn)
	}
}

func TestEnsureValid_RefreshesExpiredToken(t *testing.T) {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	server := newTokenServer(t)
	repo := &connectionRepoStub{}
	provider := newTestProvider(repo, server, now)

	conn, token, err := provider.EnsureValid(context.Background(), testConnection(now.Add(-time.Minute)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.calls.Load() != 1 {
		t.Fatalf("expected one refresh round-trip, got %d", server.calls.Load())
	}
	if token.AccessToken != "refreshed-access" {
		t.Fatalf("expected refreshed access token, got %q", token.AccessToken)
	}

	// Persisted before return, and the stored refresh token survives when
	// the provider does not rotate it.
	if repo.updateCalls != 1 || repo.updatedID != "conn-1" {
		t.Fatalf("expected one token write for conn-1, got %+v", repo)
	}
	if repo.updatedAccessToken != "refreshed-access" || repo.updatedRefreshToken != "stored-refresh" {
		t.Fatalf("unexpected persisted tokens: %+v", repo)
	}
	if conn.AccessToken != "refreshed-access" || conn.RefreshToken != "stored-refresh" {
		t.Fatalf("expected connection built from refreshed values, got %+v", conn)
	}
	if !conn.TokenExpiry.After(now) {
		t.Fatalf("expected a future expiry, got %v", conn.TokenExpiry)
	}
}

func TestEnsureValid_PersistsRotatedRefreshToken(t *testing.T) {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	server := newTokenServer(t)
	server.rotate = true
	repo := &connectionRepoStub{}
	provider := newTestProvider(repo, server, now)

	conn, _, err := provider.EnsureValid(context.Background(), testConnection(now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.updatedRefreshToken != "rotated-refresh" {
		t.Fatalf("expected rotated refresh token persisted, got %q", repo.updatedRefreshToken)
	}
	if conn.RefreshToken != "rotated-refresh" {
		t.Fatalf("expected rotated refresh token on connection, got %q", conn.RefreshToken)
	}
}

func TestEnsureValid_RefreshFailurePropagates(t *testing.T) {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	server := newTokenServer(t)
	server.failWith = http.StatusBadRequest
	repo := &connectionRepoStub{}
	provider := newTestProvider(repo, server, now)

	_, _, err := provider.EnsureValid(context.Background(), testConnection(now.Add(-time.Hour)))
	if err == nil {
		t.Fatal("expected refresh failure to propagate")
	}
	if repo.updateCalls != 0 {
		t.Fatalf("expected no persistence write on failure, got %d", repo.updateCalls)
	}
	if repo.deactivated {
		t.Fatal("refresh failure must not deactivate the connection")
	}
}

func TestEnsureValid_PersistFailurePropagates(t *testing.T) {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	server := newTokenServer(t)
	repo := &connectionRepoStub{updateErr: errors.New("write failed")}
	provider := newTestProvider(repo, server, now)

	_, _, err := provider.EnsureValid(context.Background(), testConnection(now))
	if err == nil || !errors.Is(err, repo.updateErr) {
		t.Fatalf("expected persistence failure to propagate, got %v", err)
	}
}

func TestEnsureValid_MissingClientCredentials(t *testing.T) {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	provider := NewCredentialProvider(Config{}, &connectionRepoStub{}, func() time.Time { return now })

	_, _, err := provider.EnsureValid(context.Background(), testConnection(now.Add(time.Hour)))
	if !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
}

func TestEnsureValid_ExpiryExactlyNowRefreshes(t *testing.T) {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	server := newTokenServer(t)
	repo := &connectionRepoStub{}
	provider := newTestProvider(repo, server, now)

	_, _, err := provider.EnsureValid(context.Background(), testConnection(now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.calls.Load() != 1 {
		t.Fatalf("expiry == now must refresh, got %d calls", server.calls.Load())
	}
}
