package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/corevo-scheduler/internal/application"
)

type appointmentSyncer interface {
	Sync(ctx context.Context, params application.AppointmentSyncParams) (application.Outcome, error)
}

type shiftSyncer interface {
	SyncShifts(ctx context.Context, params application.ShiftSyncParams) ([]application.StaffShiftSyncResult, error)
}

// SyncHandler serves the appointment and shift sync endpoints.
type SyncHandler struct {
	appointments appointmentSyncer
	shifts       shiftSyncer
	responder    responder
	logger       *slog.Logger
}

// NewSyncHandler wires the sync endpoints.
func NewSyncHandler(appointments appointmentSyncer, shifts shiftSyncer, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		appointments: appointments,
		shifts:       shifts,
		responder:    newResponder(logger),
		logger:       logger,
	}
}

type appointmentSyncRequest struct {
	AppointmentID string `json:"appointment_id"`
	StaffID       string `json:"staff_id"`
	Operation     string `json:"operation"`
}

type syncResultDTO struct {
	Attempted bool   `json:"attempted"`
	EventID   string `json:"event_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type appointmentSyncResponse struct {
	Staff syncResultDTO `json:"staff"`
	Store syncResultDTO `json:"store"`
}

// Appointments handles POST /sync/appointments.
func (h *SyncHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.appointments == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	tenant, ok := TenantFromContext(ctx)
	if !ok || tenant == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errMissingTenant)
		return
	}

	var req appointmentSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := handlerLogger(ctx, h.logger, "sync", "appointments",
		"tenant_id", tenant, "appointment_id", req.AppointmentID, "op", req.Operation)

	outcome, err := h.appointments.Sync(ctx, application.AppointmentSyncParams{
		TenantID:      tenant,
		AppointmentID: strings.TrimSpace(req.AppointmentID),
		StaffID:       strings.TrimSpace(req.StaffID),
		Operation:     application.SyncOperation(strings.TrimSpace(req.Operation)),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "appointment synced",
		"staff_event_id", outcome.Primary.EventID, "store_event_id", outcome.Mirror.EventID)
	h.responder.writeJSON(ctx, w, http.StatusOK, appointmentSyncResponse{
		Staff: toResultDTO(outcome.Primary),
		Store: toResultDTO(outcome.Mirror),
	})
}

type shiftSyncRequest struct {
	StaffID string `json:"staff_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type staffShiftResultDTO struct {
	StaffID      string `json:"staff_id"`
	StaffName    string `json:"staff_name"`
	EventsSynced int    `json:"events_synced"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

type shiftSyncResponse struct {
	Results []staffShiftResultDTO `json:"results"`
}

// Shifts handles POST /sync/shifts. An empty body triggers a full roster
// sync over the default window.
func (h *SyncHandler) Shifts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.shifts == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	tenant, ok := TenantFromContext(ctx)
	if !ok || tenant == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errMissingTenant)
		return
	}

	var req shiftSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params := application.ShiftSyncParams{
		TenantID: tenant,
		StaffID:  strings.TrimSpace(req.StaffID),
	}
	if req.From != "" || req.To != "" {
		from, fromErr := time.Parse(time.RFC3339, req.From)
		to, toErr := time.Parse(time.RFC3339, req.To)
		if fromErr != nil || toErr != nil {
			h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidRange)
			return
		}
		params.From = from
		params.To = to
	}

	logger := handlerLogger(ctx, h.logger, "sync", "shifts", "tenant_id", tenant)

	results, err := h.shifts.SyncShifts(ctx, params)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "shifts synced", "staff_count", len(results))
	h.responder.writeJSON(ctx, w, http.StatusOK, shiftSyncResponse{Results: toShiftResultDTOs(results)})
}

func toResultDTO(res application.Result) syncResultDTO {
	dto := syncResultDTO{Attempted: res.Attempted, EventID: res.EventID}
	if res.Err != nil {
		dto.Error = res.Err.Error()
	}
	return dto
}

func toShiftResultDTOs(results []application.StaffShiftSyncResult) []staffShiftResultDTO {
	out := make([]staffShiftResultDTO, 0, len(results))
	for _, res := range results {
		dto := staffShiftResultDTO{
			StaffID:      res.StaffID,
			StaffName:    res.StaffName,
			EventsSynced: res.EventsSynced,
			Success:      res.Success,
		}
		if res.Err != nil {
			dto.Error = res.Err.Error()
		}
		out = append(out, dto)
	}
	return out
}
