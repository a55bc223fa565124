package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/example/corevo-scheduler/internal/persistence"
)

// ErrProviderNotConfigured is returned when the deployment carries no Google
// client credentials. This is not per-request retryable.
var ErrProviderNotConfigured = errors.New("gcal: provider client credentials not configured")

// Config holds the deployment-level OAuth client credentials for the
// calendar provider.
type Config struct {
	ClientID     string
	ClientSecret string
}

func (c Config) valid() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func (c Config) oauthConfig(endpoint oauth2.Endpoint) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{ScopeCalendarEvents},
	}
}

// CredentialProvider yields a valid OAuth token for a calendar connection,
// refreshing and persisting expired credentials on the way.
type CredentialProvider interface {
	EnsureValid(ctx context.Context, conn persistence.CalendarConnection) (persistence.CalendarConnection, *oauth2.Token, error)
}

// RefreshingCredentialProvider implements CredentialProvider against the
// Google token endpoint. Refreshes for one connection are not serialized:
// two requests observing the same expired token each refresh independently
// and the last credential write wins.
type RefreshingCredentialProvider struct {
	cfg         Config
	connections persistence.ConnectionRepository
	endpoint    oauth2.Endpoint
	now         func() time.Time
}

// NewCredentialProvider wires a credential provider. The endpoint defaults
// to Google's; tests point it at a local token server.
func NewCredentialProvider(cfg Config, connections persistence.ConnectionRepository, now func() time.Time) *RefreshingCredentialProvider {
	if now == nil {
		now = time.Now
	}
	return &RefreshingCredentialProvider{
		cfg:         cfg,
		connections: connections,
		endpoint:    Endpoint,
		now:         now,
	}
}

// WithEndpoint overrides the token endpoint.
func (p *RefreshingCredentialProvider) WithEndpoint(endpoint oauth2.Endpoint) *RefreshingCredentialProvider {
	p.endpoint = endpoint
	return p
}

// EnsureValid returns a usable token for the connection. An unexpired stored
// token is used as-is. An expired one is exchanged via the refresh token and
// the new credential material is persisted onto the connection record before
// the token is returned. Refresh failures propagate unchanged; the
// connection is not deactivated and no retry is attempted here.
func (p *RefreshingCredentialProvider) EnsureValid(ctx context.Context, conn persistence.CalendarConnection) (persistence.CalendarConnection, *oauth2.Token, error) {
	if !p.cfg.valid() {
		return conn, nil, ErrProviderNotConfigured
	}

	if conn.TokenExpiry.After(p.now()) {
		return conn, &oauth2.Token{
			AccessToken:  conn.AccessToken,
			RefreshToken: conn.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       conn.TokenExpiry,
		}, nil
	}

	source := p.cfg.oauthConfig(p.endpoint).TokenSource(ctx, &oauth2.Token{RefreshToken: conn.RefreshToken})
	refreshed, err := source.Token()
	if err != nil {
		return conn, nil, fmt.Errorf("gcal: refresh access token for connection %s: %w", conn.ID, err)
	}

	// The provider may rotate the refresh token; keep the stored one when it
	// does not.
	refreshToken := refreshed.RefreshToken
	if refreshToken == "" {
		refreshToken = conn.RefreshToken
		refreshed.RefreshToken = refreshToken
	}

	if err := p.connections.UpdateTokens(ctx, conn.ID, refreshed.AccessToken, refreshToken, refreshed.Expiry); err != nil {
		return conn, nil, fmt.Errorf("gcal: persist refreshed token for connection %s: %w", conn.ID, err)
	}

	conn.AccessToken = refreshed.AccessToken
	conn.RefreshToken = refreshToken
	conn.TokenExpiry = refreshed.Expiry
	return conn, refreshed, nil
}
