package scheduler

import "time"

// SlotStride is the fixed interval between candidate slot start times. It is
// independent of the service duration, so candidates for long services
// overlap one another and callers get flexible start-time choices.
const SlotStride = 30 * time.Minute

// WorkingWindow is a time interval during which a staff member can be booked,
// derived from a shift event on their external calendar.
type WorkingWindow struct {
	StaffID string
	Start   time.Time
	End     time.Time
}

// BusyInterval is a time interval already occupied by a non-cancelled
// booking.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// CandidateSlot is a bookable interval. StaffID and StaffName are attached by
// single-staff lookups and stripped again by the multi-staff aggregation.
type CandidateSlot struct {
	Start     time.Time
	End       time.Time
	StaffID   string
	StaffName string
}

// ComputeSlots walks each working window at the fixed stride and keeps every
// candidate interval of the requested duration that clears all busy
// intervals. Candidates are emitted in window order, ascending by start time
// within a window, and are not deduplicated.
func ComputeSlots(windows []WorkingWindow, busy []BusyInterval, duration time.Duration) []CandidateSlot {
	if duration <= 0 {
		return nil
	}

	slots := make([]CandidateSlot, 0)
	for _, window := range windows {
		for t := window.Start; t.Before(window.End); t = t.Add(SlotStride) {
			slotEnd := t.Add(duration)
			if slotEnd.After(window.End) {
				break
			}
			if collides(t, slotEnd, busy) {
				continue
			}
			slots = append(slots, CandidateSlot{Start: t, End: slotEnd, StaffID: window.StaffID})
		}
	}
	return slots
}

// collides applies the three boundary conditions verbatim: the candidate
// starts inside a busy interval, ends inside one, or encloses one. A
// candidate ending exactly at a busy start, or starting exactly at a busy
// end, does not collide.
func collides(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		startsInside := !start.Before(b.Start) && start.Before(b.End)
		endsInside := end.After(b.Start) && !end.After(b.End)
		encloses := !start.After(b.Start) && !end.Before(b.End)
		if startsInside || endsInside || encloses {
			return true
		}
	}
	return false
}
