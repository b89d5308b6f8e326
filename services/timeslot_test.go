package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
}

func TestTimeSlot(t *testing.T) {
	cases := []struct {
		hour, minute int
		want         string
	}{
		{10, 0, "10AM"},
		{10, 29, "10AM"},
		{10, 30, "10:30"}, // half-open boundary, not 10AM
		{14, 0, "2PM"},
		{14, 29, "2PM"},
		{14, 30, "14:30"},
		{16, 30, "4:30PM"},
		{16, 59, "4:30PM"},
		{16, 29, "16:29"},
		{9, 5, "9:5"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TimeSlot(at(c.hour, c.minute)), "%02d:%02d", c.hour, c.minute)
	}
}

func TestPreviousSlot(t *testing.T) {
	prev, ok := PreviousSlot(SlotAfternoon)
	assert.True(t, ok)
	assert.Equal(t, SlotMorning, prev)

	prev, ok = PreviousSlot(SlotEvening)
	assert.True(t, ok)
	assert.Equal(t, SlotAfternoon, prev)

	// The morning run and off-schedule runs have no predecessor.
	_, ok = PreviousSlot(SlotMorning)
	assert.False(t, ok)
	_, ok = PreviousSlot("11:15")
	assert.False(t, ok)
}
