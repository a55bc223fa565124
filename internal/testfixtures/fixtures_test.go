package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/corevo-scheduler/internal/persistence"
)

func TestNewConnectionFixtureDefaults(t *testing.T) {
	conn := NewConnectionFixture()

	if conn.ID == "" || conn.OwnerID == "" {
		t.Fatalf("expected generated identifiers, got %+v", conn)
	}
	if !conn.Active {
		t.Fatalf("expected fixture connection to be active")
	}
	if conn.IsStore() {
		t.Fatalf("expected staff connection by default")
	}
	if !conn.TokenExpiry.After(ReferenceTime()) {
		t.Fatalf("expected unexpired token, got %v", conn.TokenExpiry)
	}
}

func TestWithStoreCalendar(t *testing.T) {
	conn := NewConnectionFixture(WithStoreCalendar())
	if !conn.IsStore() {
		t.Fatalf("expected store connection, got owner %q", conn.OwnerID)
	}
	if conn.OwnerID != persistence.StoreOwnerID {
		t.Fatalf("expected reserved store owner id, got %q", conn.OwnerID)
	}
}

func TestConnectionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn := NewConnectionFixture(WithConnectionOwner("staff-rt"))
	store := NewConnectionStore(conn)

	got, err := store.GetConnection(ctx, conn.TenantID, "staff-rt")
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	if got.ID != conn.ID {
		t.Fatalf("expected %q, got %q", conn.ID, got.ID)
	}

	if _, err := store.GetConnection(ctx, conn.TenantID, "missing"); err != persistence.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppointmentStoreBusyFilter(t *testing.T) {
	ctx := context.Background()
	base := ReferenceTime()
	busy := NewAppointmentFixture(
		WithAppointmentStaff("staff-bf"),
		WithAppointmentTimes(base.Add(time.Hour), base.Add(2*time.Hour)),
	)
	canceled := NewAppointmentFixture(
		WithAppointmentStaff("staff-bf"),
		WithAppointmentTimes(base.Add(2*time.Hour), base.Add(3*time.Hour)),
		WithAppointmentStatus(persistence.StatusCanceled),
	)
	store := NewAppointmentStore(busy, canceled)

	got, err := store.ListBusyAppointments(ctx, busy.TenantID, "staff-bf", base, base.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("ListBusyAppointments: %v", err)
	}
	if len(got) != 1 || got[0].ID != busy.ID {
		t.Fatalf("expected only the scheduled appointment, got %+v", got)
	}
}

func TestClockAdvance(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected reference time start, got %v", clock.Now())
	}
	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(ReferenceTime().Add(90 * time.Minute)) {
		t.Fatalf("unexpected advanced time %v", updated)
	}
}

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("conn")
	if got := gen.Next(); got != "conn-1" {
		t.Fatalf("expected conn-1, got %q", got)
	}
	if got := gen.Next(); got != "conn-2" {
		t.Fatalf("expected conn-2, got %q", got)
	}
}
