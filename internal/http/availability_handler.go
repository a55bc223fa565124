package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/corevo-scheduler/internal/application"
)

type availabilityService interface {
	StaffSlots(ctx context.Context, query application.SlotQuery) (application.Slots, error)
	AllStaffSlots(ctx context.Context, query application.SlotQuery) (application.Slots, error)
}

// AvailabilityHandler serves slot lookups.
type AvailabilityHandler struct {
	service   availabilityService
	responder responder
	logger    *slog.Logger
}

// NewAvailabilityHandler wires the availability endpoint.
func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, responder: newResponder(logger), logger: logger}
}

var jstZone = time.FixedZone("JST", 9*60*60)

// List handles GET /availability.
func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	tenant, ok := TenantFromContext(ctx)
	if !ok || tenant == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errMissingTenant)
		return
	}

	params := r.URL.Query()

	rawDate := strings.TrimSpace(params.Get("date"))
	if rawDate == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errMissingDate)
		return
	}
	date, err := time.ParseInLocation("2006-01-02", rawDate, jstZone)
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidDate)
		return
	}

	duration, err := strconv.Atoi(strings.TrimSpace(params.Get("duration")))
	if err != nil || duration <= 0 {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidDuration)
		return
	}

	query := application.SlotQuery{
		TenantID:        tenant,
		Date:            date,
		StaffID:         strings.TrimSpace(params.Get("staff_id")),
		DurationMinutes: duration,
	}

	logger := handlerLogger(ctx, h.logger, "availability", "list", "tenant_id", tenant, "date", rawDate)

	var slots application.Slots
	if query.StaffID == "" {
		slots, err = h.service.AllStaffSlots(ctx, query)
	} else {
		slots, err = h.service.StaffSlots(ctx, query)
	}
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "availability computed", "slots", len(slots))
	h.responder.writeJSON(ctx, w, http.StatusOK, availabilityResponse{
		Date:  rawDate,
		Slots: toSlotDTOs(slots),
	})
}

type availabilityResponse struct {
	Date  string    `json:"date"`
	Slots []slotDTO `json:"slots"`
}

type slotDTO struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	StaffID   string `json:"staff_id,omitempty"`
	StaffName string `json:"staff_name,omitempty"`
}

func toSlotDTOs(slots application.Slots) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotDTO{
			Start:     slot.Start.In(jstZone).Format(time.RFC3339),
			End:       slot.End.In(jstZone).Format(time.RFC3339),
			StaffID:   slot.StaffID,
			StaffName: slot.StaffName,
		})
	}
	return out
}
