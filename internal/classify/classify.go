// Package classify labels raw calendar events so the availability and sync
// paths can tell staff shifts apart from mirrored appointments.
package classify

import "strings"

// Kind is the classification assigned to an external calendar event.
type Kind string

const (
	// KindShift marks an event describing a staff working window.
	KindShift Kind = "shift"
	// KindStoreAppointment marks a store-calendar event that mirrors an
	// internal booking.
	KindStoreAppointment Kind = "store_appointment"
	// KindOther marks everything else; such events are ignored.
	KindOther Kind = "other"
)

// SyncSourceKey is the private metadata key carrying the platform source tag
// on events written by this system.
const SyncSourceKey = "syncSource"

// SyncSourceTag is the fixed source tag identifying events written by this
// system.
const SyncSourceTag = "corevo"

// ShiftKeywords are matched case-insensitively against event titles. An
// event whose title contains any of them is a shift.
var ShiftKeywords = []string{"シフト", "勤務", "出勤", "shift", "work"}

// AppointmentMarkers are matched case-insensitively against store-calendar
// event descriptions to recognise mirrored appointments.
var AppointmentMarkers = []string{"corevo", "予約"}

// Input is the subset of an external event the classifier inspects. All-day
// events carry no start/end instant and must be excluded before
// classification.
type Input struct {
	Title       string
	Description string
	Private     map[string]string
}

// Classify labels an event. On the store calendar the appointment-marker
// check takes precedence over shift keywords; elsewhere only shift keywords
// apply.
func Classify(event Input, storeCalendar bool) Kind {
	if storeCalendar && isStoreAppointment(event) {
		return KindStoreAppointment
	}
	if containsAnyFold(event.Title, ShiftKeywords) {
		return KindShift
	}
	return KindOther
}

// IsShift reports whether the event title matches a shift keyword.
func IsShift(title string) bool {
	return containsAnyFold(title, ShiftKeywords)
}

func isStoreAppointment(event Input) bool {
	if event.Private[SyncSourceKey] == SyncSourceTag {
		return true
	}
	return containsAnyFold(event.Description, AppointmentMarkers)
}

func containsAnyFold(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
