// Package gcal integrates with the Google Calendar API: it owns the OAuth
// credential lifecycle for calendar connections and wraps event list,
// insert, update, delete and correlation lookups behind provider-neutral
// types. Provider errors are not classified here; they propagate wrapped but
// opaque.
package gcal

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/example/corevo-scheduler/internal/persistence"
)

// Gateway exposes the event operations for one authenticated calendar
// connection. Every call is a synchronous round-trip; nothing is cached.
type Gateway interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]Event, error)
	InsertEvent(ctx context.Context, body EventBody) (Event, error)
	UpdateEvent(ctx context.Context, eventID string, body EventBody) (Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
	// FindByCorrelationKey runs a provider-side private-metadata search for
	// mirrored shift events within the window.
	FindByCorrelationKey(ctx context.Context, key CorrelationKey, timeMin, timeMax time.Time) ([]Event, error)
}

// GatewayFactory builds an authenticated Gateway for a connection,
// refreshing its credential first when necessary.
type GatewayFactory interface {
	ForConnection(ctx context.Context, conn persistence.CalendarConnection) (Gateway, error)
}

// GoogleGatewayFactory constructs per-call calendar clients from connection
// credentials, in the ad hoc construction style the provider SDK expects.
type GoogleGatewayFactory struct {
	cfg         Config
	credentials CredentialProvider
}

// NewGatewayFactory wires a factory over the credential provider.
func NewGatewayFactory(cfg Config, credentials CredentialProvider) *GoogleGatewayFactory {
	return &GoogleGatewayFactory{cfg: cfg, credentials: credentials}
}

// ForConnection ensures a valid credential for the connection and returns a
// gateway bound to its calendar.
func (f *GoogleGatewayFactory) ForConnection(ctx context.Context, conn persistence.CalendarConnection) (Gateway, error) {
	conn, token, err := f.credentials.EnsureValid(ctx, conn)
	if err != nil {
		return nil, err
	}

	client := f.cfg.oauthConfig(Endpoint).Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("gcal: create calendar service: %w", err)
	}

	return &googleGateway{service: service, calendarID: conn.CalendarID}, nil
}

type googleGateway struct {
	service    *calendar.Service
	calendarID string
}

func (g *googleGateway) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]Event, error) {
	events := make([]Event, 0)
	pageToken := ""
	for {
		call := g.service.Events.List(g.calendarID).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("gcal: list events on calendar %s: %w", g.calendarID, err)
		}
		for _, item := range page.Items {
			events = append(events, fromAPIEvent(item))
		}
		if page.NextPageToken == "" {
			return events, nil
		}
		pageToken = page.NextPageToken
	}
}

func (g *googleGateway) InsertEvent(ctx context.Context, body EventBody) (Event, error) {
	inserted, err := g.service.Events.Insert(g.calendarID, body.toAPIEvent()).Context(ctx).Do()
	if err != nil {
		return Event{}, fmt.Errorf("gcal: insert event on calendar %s: %w", g.calendarID, err)
	}
	return fromAPIEvent(inserted), nil
}

func (g *googleGateway) UpdateEvent(ctx context.Context, eventID string, body EventBody) (Event, error) {
	updated, err := g.service.Events.Update(g.calendarID, eventID, body.toAPIEvent()).Context(ctx).Do()
	if err != nil {
		return Event{}, fmt.Errorf("gcal: update event %s on calendar %s: %w", eventID, g.calendarID, err)
	}
	return fromAPIEvent(updated), nil
}

func (g *googleGateway) DeleteEvent(ctx context.Context, eventID string) error {
	if err := g.service.Events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gcal: delete event %s on calendar %s: %w", eventID, g.calendarID, err)
	}
	return nil
}

func (g *googleGateway) FindByCorrelationKey(ctx context.Context, key CorrelationKey, timeMin, timeMax time.Time) ([]Event, error) {
	call := g.service.Events.List(g.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", KeySyncType, SyncTypeShift)).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", KeyStaffID, key.StaffID)).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", KeyOriginalEventID, key.OriginalEventID)).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		Context(ctx)
	page, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("gcal: correlation lookup on calendar %s: %w", g.calendarID, err)
	}
	events := make([]Event, 0, len(page.Items))
	for _, item := range page.Items {
		events = append(events, fromAPIEvent(item))
	}
	return events, nil
}
