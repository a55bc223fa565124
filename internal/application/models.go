package application

import (
	"time"

	"github.com/example/corevo-scheduler/internal/scheduler"
)

// SyncOperation is the requested appointment propagation operation.
type SyncOperation string

const (
	OpCreate SyncOperation = "create"
	OpUpdate SyncOperation = "update"
	OpDelete SyncOperation = "delete"
)

// Valid reports whether the operation is one of create, update or delete.
func (op SyncOperation) Valid() bool {
	switch op {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// SlotQuery wraps a slot lookup request. Date is interpreted as a salon-local
// (JST) calendar day. StaffID empty means all active staff.
type SlotQuery struct {
	TenantID        string
	Date            time.Time
	StaffID         string
	DurationMinutes int
}

// Slots is the slot lookup result.
type Slots = []scheduler.CandidateSlot

// AppointmentSyncParams wraps an appointment sync request.
type AppointmentSyncParams struct {
	TenantID      string
	AppointmentID string
	StaffID       string
	Operation     SyncOperation
}

// Result reports one side of an appointment sync: whether the call was
// attempted, the external event id involved, and the error when the call
// failed.
type Result struct {
	Attempted bool
	EventID   string
	Err       error
}

// Outcome splits an appointment sync into its primary (staff calendar) and
// mirror (store calendar) halves. Mirror failures never fail the operation,
// so this is the only place they are visible to callers.
type Outcome struct {
	Primary Result
	Mirror  Result
}

// ShiftSyncParams wraps a shift mirror request. StaffID empty targets every
// active staff connection; a zero From/To defaults to [now, now+30d).
type ShiftSyncParams struct {
	TenantID string
	StaffID  string
	From     time.Time
	To       time.Time
}

// StaffShiftSyncResult itemises the shift mirror outcome for one staff
// member.
type StaffShiftSyncResult struct {
	StaffID      string
	StaffName    string
	EventsSynced int
	Success      bool
	Err          error
}

// DefaultShiftSyncWindow is the mirrored range when the caller supplies no
// explicit date range.
const DefaultShiftSyncWindow = 30 * 24 * time.Hour
