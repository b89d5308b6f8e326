package runner

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNextRun(t *testing.T) {
	s := NewScheduler(nil, time.UTC, zerolog.Nop())

	day := func(hour, minute int) time.Time {
		return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
	}

	// Before the morning slot: next is 10:00 today.
	assert.Equal(t, day(10, 0), s.nextRun(day(8, 0)))
	// Between slots: next is 14:00.
	assert.Equal(t, day(14, 0), s.nextRun(day(10, 1)))
	// Right at a slot time: that slot already fired, move on.
	assert.Equal(t, day(16, 30), s.nextRun(day(14, 0)))
	// After the last slot: tomorrow's 10:00.
	assert.Equal(t, day(10, 0).AddDate(0, 0, 1), s.nextRun(day(17, 0)))
}
