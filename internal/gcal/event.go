package gcal

import (
	"time"

	"google.golang.org/api/calendar/v3"
)

// Event is the provider-neutral view of an external calendar event.
// All-day events carry AllDay=true and zero Start/End instants; every
// consumer in this core drops them.
type Event struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Private     map[string]string
}

// EventBody is the payload for event inserts and updates.
type EventBody struct {
	Title           string
	Description     string
	Start           time.Time
	End             time.Time
	TimeZone        string
	ColorID         string
	ReminderMinutes int
	Private         map[string]string
}

// CorrelationKey identifies a mirrored shift event on the store calendar by
// its originating staff member and source event.
type CorrelationKey struct {
	StaffID         string
	OriginalEventID string
}

func fromAPIEvent(ev *calendar.Event) Event {
	out := Event{
		ID:          ev.Id,
		Title:       ev.Summary,
		Description: ev.Description,
	}
	if ev.ExtendedProperties != nil {
		out.Private = ev.ExtendedProperties.Private
	}
	out.Start, out.AllDay = parseEventTime(ev.Start)
	if end, allDay := parseEventTime(ev.End); !allDay {
		out.End = end
	}
	return out
}

// parseEventTime resolves a provider timestamp. Date-only values mark the
// event as all-day.
func parseEventTime(edt *calendar.EventDateTime) (time.Time, bool) {
	if edt == nil || edt.DateTime == "" {
		return time.Time{}, true
	}
	parsed, err := time.Parse(time.RFC3339, edt.DateTime)
	if err != nil {
		return time.Time{}, true
	}
	return parsed, false
}

func (b EventBody) toAPIEvent() *calendar.Event {
	ev := &calendar.Event{
		Summary:     b.Title,
		Description: b.Description,
		Start:       &calendar.EventDateTime{DateTime: b.Start.Format(time.RFC3339), TimeZone: b.TimeZone},
		End:         &calendar.EventDateTime{DateTime: b.End.Format(time.RFC3339), TimeZone: b.TimeZone},
		ColorId:     b.ColorID,
	}
	if b.ReminderMinutes > 0 {
		ev.Reminders = &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "popup", Minutes: int64(b.ReminderMinutes)},
			},
			ForceSendFields: []string{"UseDefault"},
		}
	}
	if len(b.Private) > 0 {
		ev.ExtendedProperties = &calendar.EventExtendedProperties{Private: b.Private}
	}
	return ev
}
