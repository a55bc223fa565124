package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/corevo-scheduler/internal/persistence"
)

func sampleAppointment(id string, status persistence.AppointmentStatus, start, end time.Time) persistence.Appointment {
	return persistence.Appointment{
		ID:         id,
		TenantID:   "tenant-1",
		CustomerID: "customer-1",
		StaffID:    "staff-1",
		ServiceIDs: []string{"svc-cut"},
		Start:      start,
		End:        end,
		Status:     status,
	}
}

func TestAppointmentRepository_CreateAndGet(t *testing.T) {
	repo := NewAppointmentRepository(newTestPool(t))
	ctx := context.Background()

	start := time.Date(2026, time.September, 1, 1, 0, 0, 0, time.UTC)
	appt := sampleAppointment("appt-1", persistence.StatusScheduled, start, start.Add(time.Hour))
	if err := repo.CreateAppointment(ctx, appt); err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	stored, err := repo.GetAppointment(ctx, "appt-1")
	if err != nil {
		t.Fatalf("GetAppointment failed: %v", err)
	}
	if stored.Status != persistence.StatusScheduled || stored.StaffID != "staff-1" {
		t.Errorf("unexpected appointment: %+v", stored)
	}
	if len(stored.ServiceIDs) != 1 || stored.ServiceIDs[0] != "svc-cut" {
		t.Errorf("unexpected service ids: %v", stored.ServiceIDs)
	}
	if stored.StaffEventID != "" || stored.SyncedToStaff {
		t.Errorf("expected unsynced appointment, got %+v", stored)
	}
}

func TestAppointmentRepository_GetMissing(t *testing.T) {
	repo := NewAppointmentRepository(newTestPool(t))

	_, err := repo.GetAppointment(context.Background(), "ghost")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppointmentRepository_RejectsUnknownStatus(t *testing.T) {
	repo := NewAppointmentRepository(newTestPool(t))

	start := time.Date(2026, time.September, 1, 1, 0, 0, 0, time.UTC)
	appt := sampleAppointment("appt-1", persistence.AppointmentStatus("pending"), start, start.Add(time.Hour))
	if err := repo.CreateAppointment(context.Background(), appt); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestAppointmentRepository_ListBusyAppointments(t *testing.T) {
	repo := NewAppointmentRepository(newTestPool(t))
	ctx := context.Background()

	day := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	appts := []persistence.Appointment{
		sampleAppointment("appt-scheduled", persistence.StatusScheduled, day.Add(10*time.Hour), day.Add(11*time.Hour)),
		sampleAppointment("appt-confirmed", persistence.StatusConfirmed, day.Add(13*time.Hour), day.Add(14*time.Hour)),
		sampleAppointment("appt-canceled", persistence.StatusCanceled, day.Add(10*time.Hour), day.Add(11*time.Hour)),
		sampleAppointment("appt-completed", persistence.StatusCompleted, day.Add(9*time.Hour), day.Add(10*time.Hour)),
		sampleAppointment("appt-next-day", persistence.StatusScheduled, day.Add(34*time.Hour), day.Add(35*time.Hour)),
	}
	other := sampleAppointment("appt-other-staff", persistence.StatusScheduled, day.Add(10*time.Hour), day.Add(11*time.Hour))
	other.StaffID = "staff-2"
	appts = append(appts, other)

	for _, appt := range appts {
		if err := repo.CreateAppointment(ctx, appt); err != nil {
			t.Fatalf("create %s failed: %v", appt.ID, err)
		}
	}

	busy, err := repo.ListBusyAppointments(ctx, "tenant-1", "staff-1", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListBusyAppointments failed: %v", err)
	}
	if len(busy) != 2 {
		t.Fatalf("expected 2 busy appointments, got %d: %+v", len(busy), busy)
	}
	if busy[0].ID != "appt-scheduled" || busy[1].ID != "appt-confirmed" {
		t.Errorf("unexpected busy set or order: %+v", busy)
	}
}

func TestAppointmentRepository_ListBusyOverlapBoundaries(t *testing.T) {
	repo := NewAppointmentRepository(newTestPool(t))
	ctx := context.Background()

	day := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	// Straddles the range start: still busy inside the range.
	straddling := sampleAppointment("appt-straddle", persistence.StatusScheduled, day.Add(-time.Hour), day.Add(time.Hour))
	// Ends exactly at the range start: not in range.
	before := sampleAppointment("appt-before", persistence.StatusScheduled, day.Add(-2*time.Hour), day)

	for _, appt := range []persistence.Appointment{straddling, before} {
		if err := repo.CreateAppointment(ctx, appt); err != nil {
			t.Fatalf("create %s failed: %v", appt.ID, err)
		}
	}

	busy, err := repo.ListBusyAppointments(ctx, "tenant-1", "staff-1", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListBusyAppointments failed: %v", err)
	}
	if len(busy) != 1 || busy[0].ID != "appt-straddle" {
		t.Fatalf("expected only the straddling appointment, got %+v", busy)
	}
}

func TestAppointmentRepository_UpdateSyncState(t *testing.T) {
	repo := NewAppointmentRepository(newTestPool(t))
	ctx := context.Background()

	start := time.Date(2026, time.September, 1, 1, 0, 0, 0, time.UTC)
	if err := repo.CreateAppointment(ctx, sampleAppointment("appt-1", persistence.StatusScheduled, start, start.Add(time.Hour))); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	syncedAt := start.Add(5 * time.Minute)
	state := persistence.AppointmentSyncState{
		StaffEventID:  "ev-staff",
		StoreEventID:  "ev-store",
		SyncedToStaff: true,
		SyncedToStore: true,
		LastSyncedAt:  &syncedAt,
	}
	if err := repo.UpdateSyncState(ctx, "appt-1", state); err != nil {
		t.Fatalf("UpdateSyncState failed: %v", err)
	}

	stored, err := repo.GetAppointment(ctx, "appt-1")
	if err != nil {
		t.Fatalf("GetAppointment failed: %v", err)
	}
	if stored.StaffEventID != "ev-staff" || stored.StoreEventID != "ev-store" {
		t.Errorf("event ids not persisted: %+v", stored)
	}
	if !stored.SyncedToStaff || !stored.SyncedToStore {
		t.Errorf("sync flags not persisted: %+v", stored)
	}
	if stored.LastSyncedAt == nil || !stored.LastSyncedAt.Equal(syncedAt) {
		t.Errorf("unexpected last synced at: %v", stored.LastSyncedAt)
	}

	if err := repo.UpdateSyncState(ctx, "ghost", state); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestDirectoryRepository_Lookups(t *testing.T) {
	pool := newTestPool(t)
	repo := NewDirectoryRepository(pool)
	ctx := context.Background()

	seed := []string{
		`INSERT INTO customers (id, tenant_id, name) VALUES ('customer-1', 'tenant-1', '山田 花子')`,
		`INSERT INTO staff (id, tenant_id, name) VALUES ('staff-1', 'tenant-1', '佐藤 美咲')`,
		`INSERT INTO services (id, tenant_id, name, duration_minutes) VALUES ('svc-cut', 'tenant-1', 'カット', 60)`,
		`INSERT INTO services (id, tenant_id, name, duration_minutes) VALUES ('svc-color', 'tenant-1', 'カラー', 90)`,
	}
	for _, stmt := range seed {
		if _, err := pool.DB().Exec(stmt); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	name, err := repo.CustomerName(ctx, "tenant-1", "customer-1")
	if err != nil || name != "山田 花子" {
		t.Fatalf("CustomerName = %q, %v", name, err)
	}
	name, err = repo.StaffName(ctx, "tenant-1", "staff-1")
	if err != nil || name != "佐藤 美咲" {
		t.Fatalf("StaffName = %q, %v", name, err)
	}

	names, err := repo.ServiceNames(ctx, "tenant-1", []string{"svc-cut", "svc-missing", "svc-color"})
	if err != nil {
		t.Fatalf("ServiceNames failed: %v", err)
	}
	if len(names) != 2 || names[0] != "カット" || names[1] != "カラー" {
		t.Fatalf("unexpected service names: %v", names)
	}

	if _, err := repo.CustomerName(ctx, "tenant-1", "ghost"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
