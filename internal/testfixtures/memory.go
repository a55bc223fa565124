package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/corevo-scheduler/internal/persistence"
)

// ConnectionStore is an in-memory persistence.ConnectionRepository for
// service level tests.
type ConnectionStore struct {
	mu    sync.Mutex
	conns map[string]persistence.CalendarConnection

	// Err, when set, is returned by every method.
	Err error
	// TouchErr, when set, fails only the timestamp bookkeeping calls.
	TouchErr error

	AppointmentTouches []string
	ShiftTouches       []string
}

// NewConnectionStore seeds an in-memory connection store.
func NewConnectionStore(conns ...persistence.CalendarConnection) *ConnectionStore {
	store := &ConnectionStore{conns: make(map[string]persistence.CalendarConnection, len(conns))}
	for _, conn := range conns {
		store.conns[conn.ID] = conn
	}
	return store
}

// CreateConnection implements persistence.ConnectionRepository.
func (s *ConnectionStore) CreateConnection(_ context.Context, conn persistence.CalendarConnection) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.conns {
		if existing.TenantID == conn.TenantID && existing.OwnerID == conn.OwnerID {
			return persistence.ErrDuplicate
		}
	}
	s.conns[conn.ID] = conn
	return nil
}

// GetConnection implements persistence.ConnectionRepository.
func (s *ConnectionStore) GetConnection(_ context.Context, tenantID, ownerID string) (persistence.CalendarConnection, error) {
	if s.Err != nil {
		return persistence.CalendarConnection{}, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		if conn.TenantID == tenantID && conn.OwnerID == ownerID {
			return conn, nil
		}
	}
	return persistence.CalendarConnection{}, persistence.ErrNotFound
}

// ListActiveStaffConnections implements persistence.ConnectionRepository.
func (s *ConnectionStore) ListActiveStaffConnections(_ context.Context, tenantID string) ([]persistence.CalendarConnection, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []persistence.CalendarConnection
	for _, conn := range s.conns {
		if conn.TenantID == tenantID && conn.Active && !conn.IsStore() {
			out = append(out, conn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID < out[j].OwnerID })
	return out, nil
}

// UpdateTokens implements persistence.ConnectionRepository.
func (s *ConnectionStore) UpdateTokens(_ context.Context, id, accessToken, refreshToken string, expiry time.Time) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.conns[id]
	if !ok {
		return persistence.ErrNotFound
	}
	conn.AccessToken = accessToken
	conn.RefreshToken = refreshToken
	conn.TokenExpiry = expiry
	s.conns[id] = conn
	return nil
}

// SetActive implements persistence.ConnectionRepository.
func (s *ConnectionStore) SetActive(_ context.Context, id string, active bool) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.conns[id]
	if !ok {
		return persistence.ErrNotFound
	}
	conn.Active = active
	s.conns[id] = conn
	return nil
}

// TouchAppointmentSync implements persistence.ConnectionRepository.
func (s *ConnectionStore) TouchAppointmentSync(_ context.Context, id string, at time.Time) error {
	if s.TouchErr != nil {
		return s.TouchErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.conns[id]
	if !ok {
		return persistence.ErrNotFound
	}
	conn.LastAppointmentSync = &at
	s.conns[id] = conn
	s.AppointmentTouches = append(s.AppointmentTouches, id)
	return nil
}

// TouchShiftSync implements persistence.ConnectionRepository.
func (s *ConnectionStore) TouchShiftSync(_ context.Context, id string, at time.Time) error {
	if s.TouchErr != nil {
		return s.TouchErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.conns[id]
	if !ok {
		return persistence.ErrNotFound
	}
	conn.LastShiftSync = &at
	s.conns[id] = conn
	s.ShiftTouches = append(s.ShiftTouches, id)
	return nil
}

// Connection returns the stored connection by id for assertions.
func (s *ConnectionStore) Connection(id string) (persistence.CalendarConnection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.conns[id]
	return conn, ok
}

// AppointmentStore is an in-memory persistence.AppointmentRepository for
// service level tests.
type AppointmentStore struct {
	mu    sync.Mutex
	appts map[string]persistence.Appointment

	// Err, when set, is returned by every read.
	Err error
	// UpdateErr, when set, fails sync-state writes.
	UpdateErr error

	SyncStates []persistence.AppointmentSyncState
}

// NewAppointmentStore seeds an in-memory appointment store.
func NewAppointmentStore(appts ...persistence.Appointment) *AppointmentStore {
	store := &AppointmentStore{appts: make(map[string]persistence.Appointment, len(appts))}
	for _, appt := range appts {
		store.appts[appt.ID] = appt
	}
	return store
}

// GetAppointment implements persistence.AppointmentRepository.
func (s *AppointmentStore) GetAppointment(_ context.Context, id string) (persistence.Appointment, error) {
	if s.Err != nil {
		return persistence.Appointment{}, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appts[id]
	if !ok {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	return appt, nil
}

// ListBusyAppointments implements persistence.AppointmentRepository.
func (s *AppointmentStore) ListBusyAppointments(_ context.Context, tenantID, staffID string, from, to time.Time) ([]persistence.Appointment, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []persistence.Appointment
	for _, appt := range s.appts {
		if appt.TenantID != tenantID || appt.StaffID != staffID || !appt.Status.Busy() {
			continue
		}
		if appt.Start.Before(to) && appt.End.After(from) {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// UpdateSyncState implements persistence.AppointmentRepository.
func (s *AppointmentStore) UpdateSyncState(_ context.Context, id string, state persistence.AppointmentSyncState) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appts[id]
	if !ok {
		return persistence.ErrNotFound
	}
	appt.StaffEventID = state.StaffEventID
	appt.StoreEventID = state.StoreEventID
	appt.SyncedToStaff = state.SyncedToStaff
	appt.SyncedToStore = state.SyncedToStore
	appt.LastSyncedAt = state.LastSyncedAt
	s.appts[id] = appt
	s.SyncStates = append(s.SyncStates, state)
	return nil
}

// Appointment returns the stored appointment by id for assertions.
func (s *AppointmentStore) Appointment(id string) (persistence.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appts[id]
	return appt, ok
}

// Directory is an in-memory name directory covering customers, staff and
// services.
type Directory struct {
	Customers map[string]string
	Staff     map[string]string
	Services  map[string]string
}

// NewDirectory returns an empty directory ready for seeding.
func NewDirectory() *Directory {
	return &Directory{
		Customers: make(map[string]string),
		Staff:     make(map[string]string),
		Services:  make(map[string]string),
	}
}

// CustomerName implements persistence.CustomerDirectory.
func (d *Directory) CustomerName(_ context.Context, _, customerID string) (string, error) {
	name, ok := d.Customers[customerID]
	if !ok {
		return "", persistence.ErrNotFound
	}
	return name, nil
}

// StaffName implements persistence.StaffDirectory.
func (d *Directory) StaffName(_ context.Context, _, staffID string) (string, error) {
	name, ok := d.Staff[staffID]
	if !ok {
		return "", persistence.ErrNotFound
	}
	return name, nil
}

// ServiceNames implements persistence.ServiceCatalog.
func (d *Directory) ServiceNames(_ context.Context, _ string, serviceIDs []string) ([]string, error) {
	names := make([]string, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		if name, ok := d.Services[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}
