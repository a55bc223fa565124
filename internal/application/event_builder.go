package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/corevo-scheduler/internal/classify"
	"github.com/example/corevo-scheduler/internal/gcal"
	"github.com/example/corevo-scheduler/internal/persistence"
)

// Fixed event policy applied to every calendar write.
const (
	eventTimeZone   = "Asia/Tokyo"
	reminderMinutes = 30
)

// Title markers used on generated events.
const (
	appointmentTitlePrefix = "【予約】"
	canceledTitlePrefix    = "【キャンセル】"
	shiftTitlePrefix       = "【シフト】"
)

// Google Calendar color ids derived from the appointment status.
var statusColors = map[persistence.AppointmentStatus]string{
	persistence.StatusScheduled: "5",
	persistence.StatusConfirmed: "10",
	persistence.StatusCompleted: "8",
	persistence.StatusCanceled:  "11",
	persistence.StatusNoShow:    "4",
}

// Japanese status labels rendered into event descriptions.
var statusLabels = map[persistence.AppointmentStatus]string{
	persistence.StatusScheduled: "予約済み",
	persistence.StatusConfirmed: "確定",
	persistence.StatusCompleted: "完了",
	persistence.StatusCanceled:  "キャンセル",
	persistence.StatusNoShow:    "無断キャンセル",
}

// buildAppointmentBody renders an appointment into the staff-calendar event
// payload. Customer and service names are best-effort joins; missing ones
// already fell back to placeholders at the caller.
func buildAppointmentBody(appt persistence.Appointment, customerName string, serviceNames []string) gcal.EventBody {
	title := appointmentTitlePrefix + customerName
	if appt.Status == persistence.StatusCanceled {
		title = canceledTitlePrefix + title
	}

	lines := []string{
		"お客様: " + customerName,
	}
	if len(serviceNames) > 0 {
		lines = append(lines, "メニュー: "+strings.Join(serviceNames, "、"))
	}
	lines = append(lines,
		"ステータス: "+statusLabel(appt.Status),
		"corevo 予約システムより同期",
	)

	return gcal.EventBody{
		Title:           title,
		Description:     strings.Join(lines, "\n"),
		Start:           appt.Start,
		End:             appt.End,
		TimeZone:        eventTimeZone,
		ColorID:         statusColor(appt.Status),
		ReminderMinutes: reminderMinutes,
		Private: map[string]string{
			classify.SyncSourceKey: classify.SyncSourceTag,
			gcal.KeyAppointmentID:  appt.ID,
		},
	}
}

// storeAppointmentBody derives the store-calendar variant: the same event
// with the staff name prefixed so the shared calendar shows who serves the
// booking.
func storeAppointmentBody(base gcal.EventBody, staffName string) gcal.EventBody {
	mirrored := base
	mirrored.Title = "【" + staffName + "】" + base.Title
	mirrored.Private = make(map[string]string, len(base.Private))
	for k, v := range base.Private {
		mirrored.Private[k] = v
	}
	return mirrored
}

// shiftMirrorBody renders a staff calendar event into its store-calendar
// mirror, carrying the correlation marker that makes repeated syncs
// idempotent.
func shiftMirrorBody(staffID, staffName string, source gcal.Event) gcal.EventBody {
	return gcal.EventBody{
		Title:       shiftTitlePrefix + staffName,
		Description: fmt.Sprintf("%s の勤務予定\ncorevo シフト同期", staffName),
		Start:       source.Start,
		End:         source.End,
		TimeZone:    eventTimeZone,
		Private: map[string]string{
			gcal.KeySyncType:        gcal.SyncTypeShift,
			gcal.KeyStaffID:         staffID,
			gcal.KeyOriginalEventID: source.ID,
		},
	}
}

func statusColor(status persistence.AppointmentStatus) string {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return statusColors[persistence.StatusScheduled]
}

func statusLabel(status persistence.AppointmentStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

func jstLocation() *time.Location {
	return time.FixedZone("JST", 9*60*60)
}

// dayRange returns the JST calendar day containing t as a half-open range.
func dayRange(t time.Time) (time.Time, time.Time) {
	loc := jstLocation()
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
