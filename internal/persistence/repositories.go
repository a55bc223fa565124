package persistence

import (
	"context"
	"time"
)

// ConnectionRepository stores calendar connection records. Token and
// timestamp updates are unconditional single-row overwrites; the schema
// carries no version column and no compare-and-swap is attempted.
type ConnectionRepository interface {
	CreateConnection(ctx context.Context, conn CalendarConnection) error
	GetConnection(ctx context.Context, tenantID, ownerID string) (CalendarConnection, error)
	// ListActiveStaffConnections returns every active, non-store connection
	// for the tenant ordered by owner identifier.
	ListActiveStaffConnections(ctx context.Context, tenantID string) ([]CalendarConnection, error)
	// UpdateTokens persists refreshed credential material for the connection.
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiry time.Time) error
	// SetActive flips the activation flag. Connections are never hard-deleted.
	SetActive(ctx context.Context, id string, active bool) error
	TouchAppointmentSync(ctx context.Context, id string, at time.Time) error
	TouchShiftSync(ctx context.Context, id string, at time.Time) error
}

// AppointmentRepository exposes the booking records this core reads and the
// sync bookkeeping it writes back.
type AppointmentRepository interface {
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	// ListBusyAppointments returns appointments for the staff member with a
	// busy status (scheduled or confirmed) overlapping [from, to).
	ListBusyAppointments(ctx context.Context, tenantID, staffID string, from, to time.Time) ([]Appointment, error)
	UpdateSyncState(ctx context.Context, id string, state AppointmentSyncState) error
}

// CustomerDirectory looks up customer display names.
type CustomerDirectory interface {
	CustomerName(ctx context.Context, tenantID, customerID string) (string, error)
}

// StaffDirectory looks up staff display names.
type StaffDirectory interface {
	StaffName(ctx context.Context, tenantID, staffID string) (string, error)
}

// ServiceCatalog looks up service menu entries.
type ServiceCatalog interface {
	ServiceNames(ctx context.Context, tenantID string, serviceIDs []string) ([]string, error)
}
