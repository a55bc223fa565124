package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/corevo-scheduler/internal/persistence"
)

// AppointmentRepository implements persistence.AppointmentRepository on
// SQLite. Appointment records are owned by the booking subsystem; this core
// reads them and writes only the sync bookkeeping.
type AppointmentRepository struct {
	pool *ConnectionPool
}

// NewAppointmentRepository creates an appointment repository.
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentColumns = `id, tenant_id, customer_id, staff_id, service_ids, start_time, end_time,
	status, staff_event_id, store_event_id, synced_to_staff, synced_to_store,
	last_synced_at, created_at, updated_at`

// CreateAppointment inserts a booking record. It exists for the booking
// subsystem and fixtures; the sync paths never create appointments.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appt persistence.Appointment) error {
	if appt.ID == "" || appt.TenantID == "" || appt.StaffID == "" {
		return persistence.ErrConstraintViolation
	}
	if !appt.Status.Valid() {
		return persistence.ErrConstraintViolation
	}

	serviceIDs, err := json.Marshal(appt.ServiceIDs)
	if err != nil {
		return fmt.Errorf("sqlite: encode service ids: %w", err)
	}

	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now

	_, err = r.pool.db.ExecContext(ctx, `
		INSERT INTO appointments
			(id, tenant_id, customer_id, staff_id, service_ids, start_time, end_time,
			 status, staff_event_id, store_event_id, synced_to_staff, synced_to_store,
			 last_synced_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.ID,
		appt.TenantID,
		appt.CustomerID,
		appt.StaffID,
		string(serviceIDs),
		appt.Start.UTC().Format(time.RFC3339),
		appt.End.UTC().Format(time.RFC3339),
		string(appt.Status),
		appt.StaffEventID,
		appt.StoreEventID,
		appt.SyncedToStaff,
		appt.SyncedToStore,
		nullableTime(appt.LastSyncedAt),
		appt.CreatedAt.Format(time.RFC3339),
		appt.UpdatedAt.Format(time.RFC3339),
	)
	return mapError(err)
}

// GetAppointment retrieves a booking by id.
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	return scanAppointment(row)
}

// ListBusyAppointments returns scheduled and confirmed appointments for the
// staff member overlapping [from, to).
func (r *AppointmentRepository) ListBusyAppointments(ctx context.Context, tenantID, staffID string, from, to time.Time) ([]persistence.Appointment, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE tenant_id = ? AND staff_id = ?
		  AND status IN ('scheduled', 'confirmed')
		  AND start_time < ? AND end_time > ?
		ORDER BY start_time`,
		tenantID, staffID,
		to.UTC().Format(time.RFC3339), from.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	appts := make([]persistence.Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return appts, nil
}

// UpdateSyncState writes the sync bookkeeping back onto the appointment.
// Only sync fields are touched.
func (r *AppointmentRepository) UpdateSyncState(ctx context.Context, id string, state persistence.AppointmentSyncState) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE appointments
		SET staff_event_id = ?, store_event_id = ?, synced_to_staff = ?,
		    synced_to_store = ?, last_synced_at = ?, updated_at = ?
		WHERE id = ?`,
		state.StaffEventID,
		state.StoreEventID,
		state.SyncedToStaff,
		state.SyncedToStore,
		nullableTime(state.LastSyncedAt),
		time.Now().UTC().Format(time.RFC3339),
		id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanAppointment(row rowScanner) (persistence.Appointment, error) {
	var appt persistence.Appointment
	var serviceIDs, startStr, endStr, status, createdStr, updatedStr string
	var lastSynced sql.NullString

	err := row.Scan(
		&appt.ID, &appt.TenantID, &appt.CustomerID, &appt.StaffID,
		&serviceIDs, &startStr, &endStr, &status,
		&appt.StaffEventID, &appt.StoreEventID,
		&appt.SyncedToStaff, &appt.SyncedToStore,
		&lastSynced, &createdStr, &updatedStr,
	)
	if err != nil {
		return persistence.Appointment{}, mapError(err)
	}

	if err := json.Unmarshal([]byte(serviceIDs), &appt.ServiceIDs); err != nil {
		return persistence.Appointment{}, fmt.Errorf("sqlite: decode service ids: %w", err)
	}
	appt.Status = persistence.AppointmentStatus(status)

	if appt.Start, err = parseStoredTime(startStr); err != nil {
		return persistence.Appointment{}, err
	}
	if appt.End, err = parseStoredTime(endStr); err != nil {
		return persistence.Appointment{}, err
	}
	if appt.CreatedAt, err = parseStoredTime(createdStr); err != nil {
		return persistence.Appointment{}, err
	}
	if appt.UpdatedAt, err = parseStoredTime(updatedStr); err != nil {
		return persistence.Appointment{}, err
	}
	if appt.LastSyncedAt, err = parseNullableTime(lastSynced); err != nil {
		return persistence.Appointment{}, err
	}
	return appt, nil
}
