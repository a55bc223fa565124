package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/corevo-scheduler/internal/persistence"
)

var (
	connectionCounter  uint64
	appointmentCounter uint64
)

var referenceTime = time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// DefaultTenant is the tenant identifier fixtures are created under.
const DefaultTenant = "tenant-001"

// ------------------------- Connection fixtures -------------------------

// ConnectionOption configures a generated calendar connection.
type ConnectionOption func(*persistence.CalendarConnection)

// NewConnectionFixture returns a deterministic active staff connection with
// optional overrides. Token expiry defaults to one hour past the reference
// time so fixtures start out with a valid credential.
func NewConnectionFixture(opts ...ConnectionOption) persistence.CalendarConnection {
	idx := atomic.AddUint64(&connectionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	conn := persistence.CalendarConnection{
		ID:           fmt.Sprintf("conn-%03d", idx),
		TenantID:     DefaultTenant,
		OwnerID:      fmt.Sprintf("staff-%03d", idx),
		CalendarID:   fmt.Sprintf("calendar-%03d@example.com", idx),
		AccessToken:  fmt.Sprintf("access-%03d", idx),
		RefreshToken: fmt.Sprintf("refresh-%03d", idx),
		TokenExpiry:  referenceTime.Add(time.Hour),
		Active:       true,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&conn)
	}
	return conn
}

// WithConnectionID overrides the generated connection ID.
func WithConnectionID(id string) ConnectionOption {
	return func(c *persistence.CalendarConnection) {
		c.ID = id
	}
}

// WithConnectionTenant overrides the tenant identifier.
func WithConnectionTenant(tenantID string) ConnectionOption {
	return func(c *persistence.CalendarConnection) {
		c.TenantID = tenantID
	}
}

// WithConnectionOwner overrides the owner identifier.
func WithConnectionOwner(ownerID string) ConnectionOption {
	return func(c *persistence.CalendarConnection) {
		c.OwnerID = ownerID
	}
}

// WithStoreCalendar marks the connection as the shared store calendar.
func WithStoreCalendar() ConnectionOption {
	return func(c *persistence.CalendarConnection) {
		c.OwnerID = persistence.StoreOwnerID
		c.StoreCalendar = true
	}
}

// WithConnectionInactive deactivates the connection.
func WithConnectionInactive() ConnectionOption {
	return func(c *persistence.CalendarConnection) {
		c.Active = false
	}
}

// WithTokenExpiry overrides the stored credential expiry.
func WithTokenExpiry(expiry time.Time) ConnectionOption {
	return func(c *persistence.CalendarConnection) {
		c.TokenExpiry = expiry
	}
}

// ------------------------ Appointment fixtures -------------------------

// AppointmentOption configures a generated appointment.
type AppointmentOption func(*persistence.Appointment)

// NewAppointmentFixture returns a deterministic scheduled appointment with
// optional overrides. Each fixture occupies a distinct hour starting at the
// reference time.
func NewAppointmentFixture(opts ...AppointmentOption) persistence.Appointment {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	appt := persistence.Appointment{
		ID:         fmt.Sprintf("appt-%03d", idx),
		TenantID:   DefaultTenant,
		CustomerID: fmt.Sprintf("customer-%03d", idx),
		StaffID:    fmt.Sprintf("staff-%03d", idx),
		ServiceIDs: []string{fmt.Sprintf("service-%03d", idx)},
		Start:      start,
		End:        start.Add(time.Hour),
		Status:     persistence.StatusScheduled,
		CreatedAt:  start,
		UpdatedAt:  start,
	}
	for _, opt := range opts {
		opt(&appt)
	}
	return appt
}

// WithAppointmentID overrides the generated appointment ID.
func WithAppointmentID(id string) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.ID = id
	}
}

// WithAppointmentTenant overrides the tenant identifier.
func WithAppointmentTenant(tenantID string) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.TenantID = tenantID
	}
}

// WithAppointmentStaff overrides the assigned staff member.
func WithAppointmentStaff(staffID string) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.StaffID = staffID
	}
}

// WithAppointmentCustomer overrides the customer reference.
func WithAppointmentCustomer(customerID string) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.CustomerID = customerID
	}
}

// WithAppointmentTimes overrides the scheduled interval.
func WithAppointmentTimes(start, end time.Time) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.Start = start
		a.End = end
	}
}

// WithAppointmentStatus overrides the lifecycle status.
func WithAppointmentStatus(status persistence.AppointmentStatus) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.Status = status
	}
}

// WithStaffEventID marks the appointment as already pushed to the staff
// calendar.
func WithStaffEventID(eventID string) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.StaffEventID = eventID
		a.SyncedToStaff = eventID != ""
	}
}

// WithStoreEventID marks the appointment as already mirrored onto the store
// calendar.
func WithStoreEventID(eventID string) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.StoreEventID = eventID
		a.SyncedToStore = eventID != ""
	}
}
