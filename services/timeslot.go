package services

import (
	"fmt"
	"time"
)

// Named slots for the three scheduled daily runs, in US Eastern wall-clock
// terms. Runs outside these windows get a literal "{hour}:{minute}" label
// that never matches a comparison rule.
const (
	SlotMorning   = "10AM"
	SlotAfternoon = "2PM"
	SlotEvening   = "4:30PM"
)

// TimeSlot classifies a run's wall-clock time into its slot label. Boundary
// rules are half-open: 10:29 is still "10AM", 10:30 is not; 16:30 starts
// "4:30PM".
func TimeSlot(t time.Time) string {
	hour, minute := t.Hour(), t.Minute()
	switch {
	case hour == 10 && minute < 30:
		return SlotMorning
	case hour == 14 && minute < 30:
		return SlotAfternoon
	case hour == 16 && minute >= 30:
		return SlotEvening
	}
	return fmt.Sprintf("%d:%d", hour, minute)
}

// PreviousSlot returns the slot a run at the given slot compares against.
// The morning run and any off-schedule run have no predecessor and produce a
// standard (non-comparative) report.
func PreviousSlot(slot string) (string, bool) {
	switch slot {
	case SlotAfternoon:
		return SlotMorning, true
	case SlotEvening:
		return SlotAfternoon, true
	}
	return "", false
}
