package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/corevo-scheduler/internal/gcal"
	"github.com/example/corevo-scheduler/internal/persistence"
)

// AppointmentStore captures the booking reads and sync writes needed by
// appointment propagation.
type AppointmentStore interface {
	GetAppointment(ctx context.Context, id string) (persistence.Appointment, error)
	UpdateSyncState(ctx context.Context, id string, state persistence.AppointmentSyncState) error
}

// SyncConnectionStore captures the connection reads and bookkeeping writes
// needed by appointment propagation.
type SyncConnectionStore interface {
	GetConnection(ctx context.Context, tenantID, ownerID string) (persistence.CalendarConnection, error)
	TouchAppointmentSync(ctx context.Context, id string, at time.Time) error
}

// AppointmentSyncService propagates appointment changes to the assigned
// staff calendar and, best effort, mirrors them onto the shared store
// calendar.
type AppointmentSyncService struct {
	appointments AppointmentStore
	connections  SyncConnectionStore
	customers    persistence.CustomerDirectory
	services     persistence.ServiceCatalog
	staff        persistence.StaffDirectory
	gateways     gcal.GatewayFactory
	now          func() time.Time
	logger       *slog.Logger
}

// NewAppointmentSyncService wires dependencies for appointment propagation.
func NewAppointmentSyncService(
	appointments AppointmentStore,
	connections SyncConnectionStore,
	customers persistence.CustomerDirectory,
	services persistence.ServiceCatalog,
	staff persistence.StaffDirectory,
	gateways gcal.GatewayFactory,
	now func() time.Time,
	logger *slog.Logger,
) *AppointmentSyncService {
	if now == nil {
		now = time.Now
	}
	return &AppointmentSyncService{
		appointments: appointments,
		connections:  connections,
		customers:    customers,
		services:     services,
		staff:        staff,
		gateways:     gateways,
		now:          now,
		logger:       logger,
	}
}

// Sync applies one appointment operation to the external calendars. The
// staff calendar write is the primary path and its failure fails the
// operation; the store mirror is best effort and its failure is only visible
// through the returned Outcome.
func (s *AppointmentSyncService) Sync(ctx context.Context, params AppointmentSyncParams) (Outcome, error) {
	if err := validateSyncParams(params); err != nil {
		return Outcome{}, err
	}

	logger := serviceLogger(ctx, s.logger, "appointment_sync", string(params.Operation),
		"tenant_id", params.TenantID, "appointment_id", params.AppointmentID, "staff_id", params.StaffID)

	appt, err := s.appointments.GetAppointment(ctx, params.AppointmentID)
	if err != nil {
		return Outcome{}, mapRepoError(err)
	}
	if appt.TenantID != params.TenantID {
		return Outcome{}, ErrNotFound
	}
	if appt.StaffID != params.StaffID {
		vErr := &ValidationError{}
		vErr.add("staff_id", "staff does not match the appointment assignment")
		return Outcome{}, vErr
	}

	conn, err := s.connections.GetConnection(ctx, params.TenantID, params.StaffID)
	if err != nil {
		return Outcome{}, mapRepoError(err)
	}
	if !conn.Active {
		return Outcome{}, ErrConnectionInactive
	}

	switch params.Operation {
	case OpCreate:
		return s.create(ctx, logger, conn, appt)
	case OpUpdate:
		return s.update(ctx, logger, conn, appt)
	case OpDelete:
		return s.delete(ctx, logger, conn, appt)
	}
	return Outcome{}, fmt.Errorf("unhandled operation %q", params.Operation)
}

func (s *AppointmentSyncService) create(ctx context.Context, logger *slog.Logger, conn persistence.CalendarConnection, appt persistence.Appointment) (Outcome, error) {
	body := buildAppointmentBody(appt, s.customerName(ctx, appt), s.serviceNames(ctx, appt))

	gateway, err := s.gateways.ForConnection(ctx, conn)
	if err != nil {
		return Outcome{Primary: Result{Attempted: true, Err: err}}, err
	}

	inserted, err := gateway.InsertEvent(ctx, body)
	if err != nil {
		return Outcome{Primary: Result{Attempted: true, Err: err}}, fmt.Errorf("insert staff event: %w", err)
	}

	outcome := Outcome{Primary: Result{Attempted: true, EventID: inserted.ID}}
	now := s.now()
	state := persistence.AppointmentSyncState{
		StaffEventID:  inserted.ID,
		StoreEventID:  appt.StoreEventID,
		SyncedToStaff: true,
		SyncedToStore: appt.SyncedToStore,
		LastSyncedAt:  &now,
	}
	if err := s.appointments.UpdateSyncState(ctx, appt.ID, state); err != nil {
		return outcome, fmt.Errorf("record staff event id: %w", err)
	}

	outcome.Mirror = s.mirrorCreate(ctx, logger, appt, body, &state)
	s.touchConnection(ctx, logger, conn)
	return outcome, nil
}

func (s *AppointmentSyncService) update(ctx context.Context, logger *slog.Logger, conn persistence.CalendarConnection, appt persistence.Appointment) (Outcome, error) {
	if appt.StaffEventID == "" {
		return Outcome{}, ErrNotSynced
	}

	body := buildAppointmentBody(appt, s.customerName(ctx, appt), s.serviceNames(ctx, appt))

	gateway, err := s.gateways.ForConnection(ctx, conn)
	if err != nil {
		return Outcome{Primary: Result{Attempted: true, EventID: appt.StaffEventID, Err: err}}, err
	}

	if _, err := gateway.UpdateEvent(ctx, appt.StaffEventID, body); err != nil {
		return Outcome{Primary: Result{Attempted: true, EventID: appt.StaffEventID, Err: err}},
			fmt.Errorf("update staff event: %w", err)
	}

	outcome := Outcome{Primary: Result{Attempted: true, EventID: appt.StaffEventID}}
	now := s.now()
	state := persistence.AppointmentSyncState{
		StaffEventID:  appt.StaffEventID,
		StoreEventID:  appt.StoreEventID,
		SyncedToStaff: true,
		SyncedToStore: appt.SyncedToStore,
		LastSyncedAt:  &now,
	}
	if err := s.appointments.UpdateSyncState(ctx, appt.ID, state); err != nil {
		return outcome, fmt.Errorf("record sync time: %w", err)
	}

	if appt.StoreEventID != "" {
		outcome.Mirror = s.mirrorUpdate(ctx, logger, appt, body)
	} else {
		outcome.Mirror = s.mirrorCreate(ctx, logger, appt, body, &state)
	}
	s.touchConnection(ctx, logger, conn)
	return outcome, nil
}

// delete removes the external events best effort and always clears the sync
// bookkeeping. Remote delete failures are logged and reported through the
// Outcome but never fail the operation; an unconfigured provider does, since
// no delete could even be attempted.
func (s *AppointmentSyncService) delete(ctx context.Context, logger *slog.Logger, conn persistence.CalendarConnection, appt persistence.Appointment) (Outcome, error) {
	var outcome Outcome

	if appt.StaffEventID != "" {
		outcome.Primary = Result{Attempted: true, EventID: appt.StaffEventID}
		gateway, err := s.gateways.ForConnection(ctx, conn)
		if errors.Is(err, gcal.ErrProviderNotConfigured) {
			outcome.Primary.Err = err
			return outcome, err
		}
		if err == nil {
			err = gateway.DeleteEvent(ctx, appt.StaffEventID)
		}
		if err != nil {
			outcome.Primary.Err = err
			logger.WarnContext(ctx, "staff event delete failed", "event_id", appt.StaffEventID, "error", err)
		}
	}

	if appt.StoreEventID != "" {
		outcome.Mirror = Result{Attempted: true, EventID: appt.StoreEventID}
		storeGW, storeErr := s.storeGateway(ctx, appt.TenantID)
		if errors.Is(storeErr, gcal.ErrProviderNotConfigured) {
			outcome.Mirror.Err = storeErr
			return outcome, storeErr
		}
		if storeErr == nil {
			storeErr = storeGW.DeleteEvent(ctx, appt.StoreEventID)
		}
		if storeErr != nil {
			outcome.Mirror.Err = storeErr
			logger.WarnContext(ctx, "store event delete failed", "event_id", appt.StoreEventID, "error", storeErr)
		}
	}

	now := s.now()
	state := persistence.AppointmentSyncState{LastSyncedAt: &now}
	if err := s.appointments.UpdateSyncState(ctx, appt.ID, state); err != nil {
		return outcome, fmt.Errorf("clear sync state: %w", err)
	}
	s.touchConnection(ctx, logger, conn)
	return outcome, nil
}

// mirrorCreate inserts the store-calendar copy of the event and persists its
// id. Every failure is swallowed into the returned Result.
func (s *AppointmentSyncService) mirrorCreate(ctx context.Context, logger *slog.Logger, appt persistence.Appointment, staffBody gcal.EventBody, state *persistence.AppointmentSyncState) Result {
	storeGW, err := s.storeGateway(ctx, appt.TenantID)
	if err != nil {
		logger.WarnContext(ctx, "store mirror skipped", "error_kind", ErrorKind(err), "error", err)
		return Result{Err: err}
	}

	body := storeAppointmentBody(staffBody, s.staffDisplayName(ctx, appt))
	inserted, err := storeGW.InsertEvent(ctx, body)
	if err != nil {
		logger.WarnContext(ctx, "store mirror insert failed", "error", err)
		return Result{Attempted: true, Err: err}
	}

	state.StoreEventID = inserted.ID
	state.SyncedToStore = true
	if err := s.appointments.UpdateSyncState(ctx, appt.ID, *state); err != nil {
		logger.WarnContext(ctx, "store event id not recorded", "event_id", inserted.ID, "error", err)
		return Result{Attempted: true, EventID: inserted.ID, Err: err}
	}
	return Result{Attempted: true, EventID: inserted.ID}
}

func (s *AppointmentSyncService) mirrorUpdate(ctx context.Context, logger *slog.Logger, appt persistence.Appointment, staffBody gcal.EventBody) Result {
	storeGW, err := s.storeGateway(ctx, appt.TenantID)
	if err != nil {
		logger.WarnContext(ctx, "store mirror skipped", "error_kind", ErrorKind(err), "error", err)
		return Result{EventID: appt.StoreEventID, Err: err}
	}

	body := storeAppointmentBody(staffBody, s.staffDisplayName(ctx, appt))
	if _, err := storeGW.UpdateEvent(ctx, appt.StoreEventID, body); err != nil {
		logger.WarnContext(ctx, "store mirror update failed", "event_id", appt.StoreEventID, "error", err)
		return Result{Attempted: true, EventID: appt.StoreEventID, Err: err}
	}
	return Result{Attempted: true, EventID: appt.StoreEventID}
}

// storeGateway resolves the shared store calendar gateway. An absent or
// inactive store connection is an error here, which mirror paths swallow.
func (s *AppointmentSyncService) storeGateway(ctx context.Context, tenantID string) (gcal.Gateway, error) {
	conn, err := s.connections.GetConnection(ctx, tenantID, persistence.StoreOwnerID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !conn.Active {
		return nil, ErrConnectionInactive
	}
	return s.gateways.ForConnection(ctx, conn)
}

func (s *AppointmentSyncService) touchConnection(ctx context.Context, logger *slog.Logger, conn persistence.CalendarConnection) {
	if err := s.connections.TouchAppointmentSync(ctx, conn.ID, s.now()); err != nil {
		logger.WarnContext(ctx, "appointment sync timestamp not recorded", "connection_id", conn.ID, "error", err)
	}
}

func (s *AppointmentSyncService) customerName(ctx context.Context, appt persistence.Appointment) string {
	if s.customers == nil {
		return "お客様"
	}
	name, err := s.customers.CustomerName(ctx, appt.TenantID, appt.CustomerID)
	if err != nil || name == "" {
		return "お客様"
	}
	return name
}

func (s *AppointmentSyncService) serviceNames(ctx context.Context, appt persistence.Appointment) []string {
	if s.services == nil || len(appt.ServiceIDs) == 0 {
		return nil
	}
	names, err := s.services.ServiceNames(ctx, appt.TenantID, appt.ServiceIDs)
	if err != nil {
		return nil
	}
	return names
}

func (s *AppointmentSyncService) staffDisplayName(ctx context.Context, appt persistence.Appointment) string {
	if s.staff == nil {
		return appt.StaffID
	}
	name, err := s.staff.StaffName(ctx, appt.TenantID, appt.StaffID)
	if err != nil || name == "" {
		return appt.StaffID
	}
	return name
}

func validateSyncParams(params AppointmentSyncParams) error {
	vErr := &ValidationError{}
	if params.TenantID == "" {
		vErr.add("tenant_id", "tenant is required")
	}
	if params.AppointmentID == "" {
		vErr.add("appointment_id", "appointment is required")
	}
	if params.StaffID == "" {
		vErr.add("staff_id", "staff is required")
	}
	if !params.Operation.Valid() {
		vErr.add("operation", "operation must be create, update or delete")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
