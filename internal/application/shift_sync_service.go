package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/corevo-scheduler/internal/gcal"
	"github.com/example/corevo-scheduler/internal/persistence"
)

// correlationPadding widens the store-side correlation search around the
// source event so a previously mirrored copy is still found after the shift
// was moved within a day.
const correlationPadding = 24 * time.Hour

// ShiftConnectionStore captures the connection reads and bookkeeping writes
// needed by shift mirroring.
type ShiftConnectionStore interface {
	GetConnection(ctx context.Context, tenantID, ownerID string) (persistence.CalendarConnection, error)
	ListActiveStaffConnections(ctx context.Context, tenantID string) ([]persistence.CalendarConnection, error)
	TouchShiftSync(ctx context.Context, id string, at time.Time) error
}

// ShiftSyncService mirrors staff calendar events onto the shared store
// calendar so the whole roster is visible in one place.
type ShiftSyncService struct {
	connections ShiftConnectionStore
	staff       persistence.StaffDirectory
	gateways    gcal.GatewayFactory
	now         func() time.Time
	logger      *slog.Logger
}

// NewShiftSyncService wires dependencies for shift mirroring.
func NewShiftSyncService(connections ShiftConnectionStore, staff persistence.StaffDirectory, gateways gcal.GatewayFactory, now func() time.Time, logger *slog.Logger) *ShiftSyncService {
	if now == nil {
		now = time.Now
	}
	return &ShiftSyncService{
		connections: connections,
		staff:       staff,
		gateways:    gateways,
		now:         now,
		logger:      logger,
	}
}

// SyncShifts mirrors every timed event from the targeted staff calendars
// onto the store calendar for the requested range. Staff members are
// processed one at a time; a failing staff member or event is recorded and
// skipped. The store connection itself is required up front.
func (s *ShiftSyncService) SyncShifts(ctx context.Context, params ShiftSyncParams) ([]StaffShiftSyncResult, error) {
	if err := validateShiftParams(params); err != nil {
		return nil, err
	}

	from, to := params.From, params.To
	if from.IsZero() || to.IsZero() {
		from = s.now()
		to = from.Add(DefaultShiftSyncWindow)
	}

	logger := serviceLogger(ctx, s.logger, "shift_sync", "sync_shifts", "tenant_id", params.TenantID)

	storeConn, err := s.connections.GetConnection(ctx, params.TenantID, persistence.StoreOwnerID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !storeConn.Active {
		return nil, ErrConnectionInactive
	}
	storeGW, err := s.gateways.ForConnection(ctx, storeConn)
	if err != nil {
		return nil, err
	}

	targets, err := s.targetConnections(ctx, params)
	if err != nil {
		return nil, err
	}

	results := make([]StaffShiftSyncResult, 0, len(targets))
	for _, conn := range targets {
		results = append(results, s.syncStaff(ctx, logger, storeGW, conn, from, to))
	}

	// The store connection records the run even when every staff member
	// failed.
	if err := s.connections.TouchShiftSync(ctx, storeConn.ID, s.now()); err != nil {
		logger.WarnContext(ctx, "shift sync timestamp not recorded", "connection_id", storeConn.ID, "error", err)
	}
	return results, nil
}

func (s *ShiftSyncService) targetConnections(ctx context.Context, params ShiftSyncParams) ([]persistence.CalendarConnection, error) {
	if params.StaffID == "" {
		conns, err := s.connections.ListActiveStaffConnections(ctx, params.TenantID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		return conns, nil
	}

	conn, err := s.connections.GetConnection(ctx, params.TenantID, params.StaffID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if conn.IsStore() {
		vErr := &ValidationError{}
		vErr.add("staff_id", "store connection cannot be a shift source")
		return nil, vErr
	}
	if !conn.Active {
		return nil, ErrConnectionInactive
	}
	return []persistence.CalendarConnection{conn}, nil
}

// syncStaff mirrors one staff calendar. Every timed event in the range is
// mirrored; all-day events are skipped. Per-event failures are logged and
// skipped so one broken event does not starve the rest.
func (s *ShiftSyncService) syncStaff(ctx context.Context, logger *slog.Logger, storeGW gcal.Gateway, conn persistence.CalendarConnection, from, to time.Time) StaffShiftSyncResult {
	staffName := s.staffName(ctx, conn.TenantID, conn.OwnerID)
	result := StaffShiftSyncResult{StaffID: conn.OwnerID, StaffName: staffName}
	staffLogger := logger.With("staff_id", conn.OwnerID)

	gateway, err := s.gateways.ForConnection(ctx, conn)
	if err != nil {
		staffLogger.WarnContext(ctx, "staff calendar unavailable", "error_kind", ErrorKind(err), "error", err)
		result.Err = err
		return result
	}

	events, err := gateway.ListEvents(ctx, from, to)
	if err != nil {
		staffLogger.WarnContext(ctx, "staff calendar list failed", "error", err)
		result.Err = err
		return result
	}

	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		if err := s.mirrorEvent(ctx, storeGW, conn.OwnerID, staffName, ev); err != nil {
			staffLogger.WarnContext(ctx, "event mirror failed", "event_id", ev.ID, "error", err)
			continue
		}
		result.EventsSynced++
	}

	result.Success = true
	return result
}

// mirrorEvent upserts the store-calendar copy of one staff event, matching
// previously mirrored copies through the private correlation metadata.
func (s *ShiftSyncService) mirrorEvent(ctx context.Context, storeGW gcal.Gateway, staffID, staffName string, source gcal.Event) error {
	key := gcal.CorrelationKey{StaffID: staffID, OriginalEventID: source.ID}
	existing, err := storeGW.FindByCorrelationKey(ctx, key,
		source.Start.Add(-correlationPadding), source.End.Add(correlationPadding))
	if err != nil {
		return err
	}

	body := shiftMirrorBody(staffID, staffName, source)
	if len(existing) > 0 {
		_, err = storeGW.UpdateEvent(ctx, existing[0].ID, body)
		return err
	}
	_, err = storeGW.InsertEvent(ctx, body)
	return err
}

func (s *ShiftSyncService) staffName(ctx context.Context, tenantID, staffID string) string {
	if s.staff == nil {
		return staffID
	}
	name, err := s.staff.StaffName(ctx, tenantID, staffID)
	if err != nil || name == "" {
		return staffID
	}
	return name
}

func validateShiftParams(params ShiftSyncParams) error {
	vErr := &ValidationError{}
	if params.TenantID == "" {
		vErr.add("tenant_id", "tenant is required")
	}
	if !params.From.IsZero() && !params.To.IsZero() && !params.To.After(params.From) {
		vErr.add("range", "range end must be after range start")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
