package testfixtures

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/corevo-scheduler/internal/gcal"
	"github.com/example/corevo-scheduler/internal/persistence"
)

// FakeGateway is a scriptable gcal.Gateway double. Events seeds list
// results; the Err knobs let individual operations fail. Every write is
// recorded for assertions.
type FakeGateway struct {
	mu sync.Mutex

	Events []gcal.Event

	ListErr   error
	InsertErr error
	UpdateErr error
	DeleteErr error
	FindErr   error

	Inserted []gcal.EventBody
	Updated  map[string]gcal.EventBody
	Deleted  []string
	Finds    []gcal.CorrelationKey

	nextID int
}

// NewFakeGateway returns a gateway seeded with the given events.
func NewFakeGateway(events ...gcal.Event) *FakeGateway {
	return &FakeGateway{Events: events, Updated: make(map[string]gcal.EventBody)}
}

// ListEvents returns the seeded events overlapping [timeMin, timeMax).
// All-day events are always returned; the caller is expected to drop them.
func (g *FakeGateway) ListEvents(_ context.Context, timeMin, timeMax time.Time) ([]gcal.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ListErr != nil {
		return nil, g.ListErr
	}
	var out []gcal.Event
	for _, ev := range g.Events {
		if ev.AllDay || (ev.Start.Before(timeMax) && ev.End.After(timeMin)) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// InsertEvent records the body and returns an event with a generated id.
func (g *FakeGateway) InsertEvent(_ context.Context, body gcal.EventBody) (gcal.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.InsertErr != nil {
		return gcal.Event{}, g.InsertErr
	}
	g.nextID++
	g.Inserted = append(g.Inserted, body)
	ev := gcal.Event{
		ID:          fmt.Sprintf("event-%d", g.nextID),
		Title:       body.Title,
		Description: body.Description,
		Start:       body.Start,
		End:         body.End,
		Private:     body.Private,
	}
	g.Events = append(g.Events, ev)
	return ev, nil
}

// UpdateEvent records the body under the event id.
func (g *FakeGateway) UpdateEvent(_ context.Context, eventID string, body gcal.EventBody) (gcal.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.UpdateErr != nil {
		return gcal.Event{}, g.UpdateErr
	}
	if g.Updated == nil {
		g.Updated = make(map[string]gcal.EventBody)
	}
	g.Updated[eventID] = body
	return gcal.Event{
		ID:          eventID,
		Title:       body.Title,
		Description: body.Description,
		Start:       body.Start,
		End:         body.End,
		Private:     body.Private,
	}, nil
}

// DeleteEvent records the deletion.
func (g *FakeGateway) DeleteEvent(_ context.Context, eventID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DeleteErr != nil {
		return g.DeleteErr
	}
	g.Deleted = append(g.Deleted, eventID)
	return nil
}

// FindByCorrelationKey matches seeded and inserted events by their private
// correlation metadata.
func (g *FakeGateway) FindByCorrelationKey(_ context.Context, key gcal.CorrelationKey, _, _ time.Time) ([]gcal.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Finds = append(g.Finds, key)
	if g.FindErr != nil {
		return nil, g.FindErr
	}
	var out []gcal.Event
	for _, ev := range g.Events {
		if ev.Private[gcal.KeySyncType] == gcal.SyncTypeShift &&
			ev.Private[gcal.KeyStaffID] == key.StaffID &&
			ev.Private[gcal.KeyOriginalEventID] == key.OriginalEventID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// FakeGatewayFactory hands out per-owner fake gateways. Errs lets tests fail
// gateway construction for selected owners, standing in for credential
// refresh failures.
type FakeGatewayFactory struct {
	mu       sync.Mutex
	gateways map[string]*FakeGateway

	Errs map[string]error
}

// NewFakeGatewayFactory seeds a factory with per-owner gateways.
func NewFakeGatewayFactory() *FakeGatewayFactory {
	return &FakeGatewayFactory{
		gateways: make(map[string]*FakeGateway),
		Errs:     make(map[string]error),
	}
}

// Gateway returns the fake gateway for the owner, creating it on first use.
func (f *FakeGatewayFactory) Gateway(ownerID string) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	gw, ok := f.gateways[ownerID]
	if !ok {
		gw = NewFakeGateway()
		f.gateways[ownerID] = gw
	}
	return gw
}

// FailOwner makes ForConnection fail for the owner.
func (f *FakeGatewayFactory) FailOwner(ownerID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errs[ownerID] = err
}

// ForConnection implements gcal.GatewayFactory.
func (f *FakeGatewayFactory) ForConnection(_ context.Context, conn persistence.CalendarConnection) (gcal.Gateway, error) {
	f.mu.Lock()
	if err, ok := f.Errs[conn.OwnerID]; ok {
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()
	return f.Gateway(conn.OwnerID), nil
}
