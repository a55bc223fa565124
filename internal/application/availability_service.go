package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/corevo-scheduler/internal/classify"
	"github.com/example/corevo-scheduler/internal/gcal"
	"github.com/example/corevo-scheduler/internal/persistence"
	"github.com/example/corevo-scheduler/internal/scheduler"
)

// ConnectionStore captures the connection reads needed by availability
// lookups.
type ConnectionStore interface {
	GetConnection(ctx context.Context, tenantID, ownerID string) (persistence.CalendarConnection, error)
	ListActiveStaffConnections(ctx context.Context, tenantID string) ([]persistence.CalendarConnection, error)
}

// BusyLookup exposes the booking reads needed to derive busy intervals.
type BusyLookup interface {
	ListBusyAppointments(ctx context.Context, tenantID, staffID string, from, to time.Time) ([]persistence.Appointment, error)
}

// AvailabilityService derives bookable slots from staff shift events and
// internal bookings.
type AvailabilityService struct {
	connections  ConnectionStore
	appointments BusyLookup
	staff        persistence.StaffDirectory
	gateways     gcal.GatewayFactory
	logger       *slog.Logger
}

// NewAvailabilityService wires dependencies for slot lookups.
func NewAvailabilityService(connections ConnectionStore, appointments BusyLookup, staff persistence.StaffDirectory, gateways gcal.GatewayFactory, logger *slog.Logger) *AvailabilityService {
	return &AvailabilityService{
		connections:  connections,
		appointments: appointments,
		staff:        staff,
		gateways:     gateways,
		logger:       logger,
	}
}

// StaffSlots computes candidate slots for one staff member on the requested
// day. Candidates carry the staff attribution.
func (s *AvailabilityService) StaffSlots(ctx context.Context, query SlotQuery) (Slots, error) {
	if err := validateSlotQuery(query, true); err != nil {
		return nil, err
	}

	conn, err := s.connections.GetConnection(ctx, query.TenantID, query.StaffID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if conn.IsStore() {
		vErr := &ValidationError{}
		vErr.add("staff_id", "store connection cannot serve staff availability")
		return nil, vErr
	}
	if !conn.Active {
		return nil, ErrConnectionInactive
	}

	return s.slotsForConnection(ctx, conn, query)
}

// AllStaffSlots computes candidate slots across every active staff
// connection. Slots are sorted by start time and deduplicated by exact start
// timestamp; the surviving entry loses its staff attribution. A failing
// staff member is skipped, never fatal.
func (s *AvailabilityService) AllStaffSlots(ctx context.Context, query SlotQuery) (Slots, error) {
	if err := validateSlotQuery(query, false); err != nil {
		return nil, err
	}

	conns, err := s.connections.ListActiveStaffConnections(ctx, query.TenantID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	logger := serviceLogger(ctx, s.logger, "availability", "all_staff_slots", "tenant_id", query.TenantID)

	collected := make(Slots, 0)
	for _, conn := range conns {
		staffQuery := query
		staffQuery.StaffID = conn.OwnerID
		slots, err := s.slotsForConnection(ctx, conn, staffQuery)
		if err != nil {
			logger.WarnContext(ctx, "skipping staff after availability failure",
				"staff_id", conn.OwnerID, "error_kind", ErrorKind(err), "error", err)
			continue
		}
		collected = append(collected, slots...)
	}

	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].Start.Before(collected[j].Start)
	})

	deduped := make(Slots, 0, len(collected))
	seen := make(map[int64]struct{}, len(collected))
	for _, slot := range collected {
		key := slot.Start.Unix()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		slot.StaffID = ""
		slot.StaffName = ""
		deduped = append(deduped, slot)
	}
	return deduped, nil
}

// slotsForConnection runs the per-staff pipeline: fetch the day's events,
// classify shifts into working windows, collect busy intervals and step the
// slot calculator over them.
func (s *AvailabilityService) slotsForConnection(ctx context.Context, conn persistence.CalendarConnection, query SlotQuery) (Slots, error) {
	dayStart, dayEnd := dayRange(query.Date)

	gateway, err := s.gateways.ForConnection(ctx, conn)
	if err != nil {
		return nil, err
	}

	events, err := gateway.ListEvents(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch staff calendar: %w", err)
	}

	windows := make([]scheduler.WorkingWindow, 0)
	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		kind := classify.Classify(classify.Input{
			Title:       ev.Title,
			Description: ev.Description,
			Private:     ev.Private,
		}, false)
		if kind != classify.KindShift {
			continue
		}
		windows = append(windows, scheduler.WorkingWindow{
			StaffID: conn.OwnerID,
			Start:   ev.Start,
			End:     ev.End,
		})
	}
	if len(windows) == 0 {
		return nil, nil
	}

	appts, err := s.appointments.ListBusyAppointments(ctx, query.TenantID, conn.OwnerID, dayStart, dayEnd)
	if err != nil {
		return nil, mapRepoError(err)
	}
	busy := make([]scheduler.BusyInterval, 0, len(appts))
	for _, appt := range appts {
		busy = append(busy, scheduler.BusyInterval{Start: appt.Start, End: appt.End})
	}

	slots := scheduler.ComputeSlots(windows, busy, time.Duration(query.DurationMinutes)*time.Minute)

	staffName := s.staffName(ctx, query.TenantID, conn.OwnerID)
	for i := range slots {
		slots[i].StaffName = staffName
	}
	return slots, nil
}

// staffName resolves the display name, falling back to the staff id when the
// roster lookup fails.
func (s *AvailabilityService) staffName(ctx context.Context, tenantID, staffID string) string {
	if s.staff == nil {
		return staffID
	}
	name, err := s.staff.StaffName(ctx, tenantID, staffID)
	if err != nil || name == "" {
		return staffID
	}
	return name
}

func validateSlotQuery(query SlotQuery, requireStaff bool) error {
	vErr := &ValidationError{}
	if query.TenantID == "" {
		vErr.add("tenant_id", "tenant is required")
	}
	if query.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if query.DurationMinutes <= 0 {
		vErr.add("duration", "service duration must be positive")
	}
	if requireStaff && query.StaffID == "" {
		vErr.add("staff_id", "staff is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
