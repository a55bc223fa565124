package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/corevo-scheduler/internal/gcal"
	"github.com/example/corevo-scheduler/internal/persistence"
	"github.com/example/corevo-scheduler/internal/testfixtures"
)

type shiftEnv struct {
	connections *testfixtures.ConnectionStore
	directory   *testfixtures.Directory
	factory     *testfixtures.FakeGatewayFactory
	clock       *testfixtures.Clock
	storeConn   persistence.CalendarConnection
	svc         *ShiftSyncService
}

func newShiftEnv(t *testing.T, staffConns ...persistence.CalendarConnection) shiftEnv {
	t.Helper()

	storeConn := testfixtures.NewConnectionFixture(testfixtures.WithStoreCalendar())
	conns := append([]persistence.CalendarConnection{storeConn}, staffConns...)

	env := shiftEnv{
		connections: testfixtures.NewConnectionStore(conns...),
		directory:   testfixtures.NewDirectory(),
		factory:     testfixtures.NewFakeGatewayFactory(),
		clock:       testfixtures.NewClock(time.Time{}),
		storeConn:   storeConn,
	}
	env.svc = NewShiftSyncService(env.connections, env.directory, env.factory, env.clock.NowFunc(), testLogger())
	return env
}

func timedEvent(id string, start time.Time, d time.Duration) gcal.Event {
	return gcal.Event{ID: id, Title: "勤務", Start: start, End: start.Add(d)}
}

func TestSyncShiftsMirrorsTimedEvents(t *testing.T) {
	staffConn := testfixtures.NewConnectionFixture(testfixtures.WithConnectionOwner("staff-a"))
	env := newShiftEnv(t, staffConn)
	env.directory.Staff["staff-a"] = "山田 花子"

	base := env.clock.Now()
	env.factory.Gateway("staff-a").Events = []gcal.Event{
		timedEvent("ev-1", base.Add(24*time.Hour), 8*time.Hour),
		timedEvent("ev-2", base.Add(48*time.Hour), 8*time.Hour),
		{ID: "holiday", Title: "休暇", AllDay: true},
	}

	results, err := env.svc.SyncShifts(context.Background(), ShiftSyncParams{TenantID: staffConn.TenantID})
	if err != nil {
		t.Fatalf("SyncShifts: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 staff result, got %+v", results)
	}
	res := results[0]
	if !res.Success || res.EventsSynced != 2 || res.StaffName != "山田 花子" {
		t.Fatalf("unexpected result %+v", res)
	}

	storeGW := env.factory.Gateway(persistence.StoreOwnerID)
	if len(storeGW.Inserted) != 2 {
		t.Fatalf("expected 2 mirrored events, got %d", len(storeGW.Inserted))
	}
	body := storeGW.Inserted[0]
	if !strings.HasPrefix(body.Title, "【シフト】") {
		t.Fatalf("unexpected mirror title %q", body.Title)
	}
	if body.Private[gcal.KeySyncType] != gcal.SyncTypeShift ||
		body.Private[gcal.KeyStaffID] != "staff-a" ||
		body.Private[gcal.KeyOriginalEventID] != "ev-1" {
		t.Fatalf("unexpected correlation metadata %v", body.Private)
	}

	if len(env.connections.ShiftTouches) != 1 || env.connections.ShiftTouches[0] != env.storeConn.ID {
		t.Fatalf("expected one shift sync touch on the store connection, got %v", env.connections.ShiftTouches)
	}
}

func TestSyncShiftsUpdatesExistingMirror(t *testing.T) {
	staffConn := testfixtures.NewConnectionFixture(testfixtures.WithConnectionOwner("staff-a"))
	env := newShiftEnv(t, staffConn)

	base := env.clock.Now()
	env.factory.Gateway("staff-a").Events = []gcal.Event{
		timedEvent("ev-1", base.Add(24*time.Hour), 8*time.Hour),
	}
	storeGW := env.factory.Gateway(persistence.StoreOwnerID)
	storeGW.Events = []gcal.Event{{
		ID:    "mirror-1",
		Start: base.Add(24 * time.Hour),
		End:   base.Add(32 * time.Hour),
		Private: map[string]string{
			gcal.KeySyncType:        gcal.SyncTypeShift,
			gcal.KeyStaffID:         "staff-a",
			gcal.KeyOriginalEventID: "ev-1",
		},
	}}

	results, err := env.svc.SyncShifts(context.Background(), ShiftSyncParams{TenantID: staffConn.TenantID})
	if err != nil {
		t.Fatalf("SyncShifts: %v", err)
	}
	if results[0].EventsSynced != 1 {
		t.Fatalf("unexpected result %+v", results[0])
	}
	if len(storeGW.Inserted) != 0 {
		t.Fatalf("expected no duplicate insert, got %v", storeGW.Inserted)
	}
	if _, ok := storeGW.Updated["mirror-1"]; !ok {
		t.Fatalf("expected existing mirror updated, got %v", storeGW.Updated)
	}
}

func TestSyncShiftsRequiresStoreConnection(t *testing.T) {
	staffConn := testfixtures.NewConnectionFixture(testfixtures.WithConnectionOwner("staff-a"))
	connections := testfixtures.NewConnectionStore(staffConn)
	svc := NewShiftSyncService(connections, testfixtures.NewDirectory(), testfixtures.NewFakeGatewayFactory(), nil, testLogger())

	_, err := svc.SyncShifts(context.Background(), ShiftSyncParams{TenantID: staffConn.TenantID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound without store connection, got %v", err)
	}
}

func TestSyncShiftsInactiveStoreConnection(t *testing.T) {
	storeConn := testfixtures.NewConnectionFixture(
		testfixtures.WithStoreCalendar(),
		testfixtures.WithConnectionInactive(),
	)
	connections := testfixtures.NewConnectionStore(storeConn)
	svc := NewShiftSyncService(connections, testfixtures.NewDirectory(), testfixtures.NewFakeGatewayFactory(), nil, testLogger())

	_, err := svc.SyncShifts(context.Background(), ShiftSyncParams{TenantID: storeConn.TenantID})
	if !errors.Is(err, ErrConnectionInactive) {
		t.Fatalf("expected ErrConnectionInactive, got %v", err)
	}
}

func TestSyncShiftsSkipsFailingStaff(t *testing.T) {
	connA := testfixtures.NewConnectionFixture(testfixtures.WithConnectionOwner("staff-a"))
	connB := testfixtures.NewConnectionFixture(testfixtures.WithConnectionOwner("staff-b"))
	env := newShiftEnv(t, connA, connB)

	base := env.clock.Now()
	env.factory.Gateway("staff-a").Events = []gcal.Event{timedEvent("a-1", base.Add(time.Hour), 8*time.Hour)}
	env.factory.FailOwner("staff-b", errors.New("token refresh failed"))

	results, err := env.svc.SyncShifts(context.Background(), ShiftSyncParams{TenantID: connA.TenantID})
	if err != nil {
		t.Fatalf("SyncShifts: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected results for both staff, got %+v", results)
	}

	byStaff := map[string]StaffShiftSyncResult{}
	for _, res := range results {
		byStaff[res.StaffID] = res
	}
	if !byStaff["staff-a"].Success || byStaff["staff-a"].EventsSynced != 1 {
		t.Fatalf("unexpected staff-a result %+v", byStaff["staff-a"])
	}
	if byStaff["staff-b"].Success || byStaff["staff-b"].Err == nil {
		t.Fatalf("expected staff-b failure recorded, got %+v", byStaff["staff-b"])
	}

	// Run bookkeeping happens even with partial failure.
	if len(env.connections.ShiftTouches) != 1 {
		t.Fatalf("expected shift sync touch, got %v", env.connections.ShiftTouches)
	}
}

func TestSyncShiftsSingleStaffTarget(t *testing.T) {
	connA := testfixtures.NewConnectionFixture(testfixtures.WithConnectionOwner("staff-a"))
	connB := testfixtures.NewConnectionFixture(testfixtures.WithConnectionOwner("staff-b"))
	env := newShiftEnv(t, connA, connB)

	base := env.clock.Now()
	env.factory.Gateway("staff-a").Events = []gcal.Event{timedEvent("a-1", base.Add(time.Hour), 8*time.Hour)}
	env.factory.Gateway("staff-b").Events = []gcal.Event{timedEvent("b-1", base.Add(time.Hour), 8*time.Hour)}

	results, err := env.svc.SyncShifts(context.Background(), ShiftSyncParams{
		TenantID: connA.TenantID,
		StaffID:  "staff-a",
	})
	if err != nil {
		t.Fatalf("SyncShifts: %v", err)
	}
	if len(results) != 1 || results[0].StaffID != "staff-a" {
		t.Fatalf("expected only staff-a, got %+v", results)
	}
	if len(env.factory.Gateway(persistence.StoreOwnerID).Inserted) != 1 {
		t.Fatalf("expected one mirrored event")
	}
}

func TestSyncShiftsEventFailureDoesNotFailStaff(t *testing.T) {
	staffConn := testfixtures.NewConnectionFixture(testfixtures.WithConnectionOwner("staff-a"))
	env := newShiftEnv(t, staffConn)

	base := env.clock.Now()
	env.factory.Gateway("staff-a").Events = []gcal.Event{timedEvent("ev-1", base.Add(time.Hour), 8*time.Hour)}
	env.factory.Gateway(persistence.StoreOwnerID).InsertErr = errors.New("store quota exceeded")

	results, err := env.svc.SyncShifts(context.Background(), ShiftSyncParams{TenantID: staffConn.TenantID})
	if err != nil {
		t.Fatalf("SyncShifts: %v", err)
	}
	if !results[0].Success || results[0].EventsSynced != 0 {
		t.Fatalf("expected staff success with zero synced events, got %+v", results[0])
	}
	if len(env.connections.ShiftTouches) != 1 {
		t.Fatalf("expected shift sync touch, got %v", env.connections.ShiftTouches)
	}
}

func TestSyncShiftsDefaultWindow(t *testing.T) {
	staffConn := testfixtures.NewConnectionFixture(testfixtures.WithConnectionOwner("staff-a"))
	env := newShiftEnv(t, staffConn)

	base := env.clock.Now()
	env.factory.Gateway("staff-a").Events = []gcal.Event{
		timedEvent("inside", base.Add(24*time.Hour), 8*time.Hour),
		timedEvent("outside", base.Add(31*24*time.Hour), 8*time.Hour),
	}

	results, err := env.svc.SyncShifts(context.Background(), ShiftSyncParams{TenantID: staffConn.TenantID})
	if err != nil {
		t.Fatalf("SyncShifts: %v", err)
	}
	if results[0].EventsSynced != 1 {
		t.Fatalf("expected only the event inside the 30 day window, got %+v", results[0])
	}
}

func TestSyncShiftsValidation(t *testing.T) {
	env := newShiftEnv(t)
	ctx := context.Background()

	var vErr *ValidationError
	if _, err := env.svc.SyncShifts(ctx, ShiftSyncParams{}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for missing tenant, got %v", err)
	}

	now := env.clock.Now()
	_, err := env.svc.SyncShifts(ctx, ShiftSyncParams{
		TenantID: testfixtures.DefaultTenant,
		From:     now.Add(time.Hour),
		To:       now,
	})
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}
}
