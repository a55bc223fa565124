package persistence

import "time"

// StoreOwnerID is the reserved owner identifier of the shared store calendar
// connection. Every other owner identifier names an individual staff member.
const StoreOwnerID = "store"

// CalendarConnection stores the OAuth credential and calendar identifier for
// one staff member or for the shared store calendar of a tenant.
type CalendarConnection struct {
	ID                  string
	TenantID            string
	OwnerID             string
	CalendarID          string
	AccessToken         string
	RefreshToken        string
	TokenExpiry         time.Time
	Active              bool
	StoreCalendar       bool
	LastAppointmentSync *time.Time
	LastShiftSync       *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsStore reports whether the connection targets the shared store calendar.
func (c CalendarConnection) IsStore() bool {
	return c.StoreCalendar || c.OwnerID == StoreOwnerID
}

// AppointmentStatus enumerates the booking lifecycle states.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCanceled  AppointmentStatus = "canceled"
	StatusNoShow    AppointmentStatus = "noshow"
)

// Busy reports whether an appointment in this status occupies staff time.
func (s AppointmentStatus) Busy() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// Valid reports whether the status is one of the known lifecycle states.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCanceled, StatusNoShow:
		return true
	}
	return false
}

// Appointment represents a booking owned by the booking subsystem. This core
// mutates only the sync fields: StaffEventID, StoreEventID, SyncedToStaff,
// SyncedToStore and LastSyncedAt.
type Appointment struct {
	ID            string
	TenantID      string
	CustomerID    string
	StaffID       string
	ServiceIDs    []string
	Start         time.Time
	End           time.Time
	Status        AppointmentStatus
	StaffEventID  string
	StoreEventID  string
	SyncedToStaff bool
	SyncedToStore bool
	LastSyncedAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AppointmentSyncState captures the sync bookkeeping written back onto an
// appointment after calendar propagation.
type AppointmentSyncState struct {
	StaffEventID  string
	StoreEventID  string
	SyncedToStaff bool
	SyncedToStore bool
	LastSyncedAt  *time.Time
}

// Customer is the customer directory projection read for name joins.
type Customer struct {
	ID       string
	TenantID string
	Name     string
}

// Staff is the staff roster projection read for name joins.
type Staff struct {
	ID       string
	TenantID string
	Name     string
}

// SalonService is the service menu projection read for name joins and
// default durations.
type SalonService struct {
	ID              string
	TenantID        string
	Name            string
	DurationMinutes int
}
