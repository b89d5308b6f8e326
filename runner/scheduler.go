package runner

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// slotTime is one daily wall-clock trigger in the reference timezone.
type slotTime struct {
	hour, minute int
}

// The three scheduled daily runs: morning baseline, early-afternoon
// comparison, late-afternoon comparison.
var dailySlots = []slotTime{
	{10, 0},
	{14, 0},
	{16, 30},
}

// Scheduler fires runs at the fixed daily slots. It never stops on run
// failure; the runner owns failure handling.
type Scheduler struct {
	runner *Runner
	loc    *time.Location
	log    zerolog.Logger
}

func NewScheduler(r *Runner, loc *time.Location, log zerolog.Logger) *Scheduler {
	return &Scheduler{runner: r, loc: loc, log: log}
}

// Start blocks until ctx is cancelled, triggering a run at each slot. An
// overlapping in-progress run causes the scheduled trigger to be skipped
// with a warning, not queued.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next := s.nextRun(time.Now().In(s.loc))
		s.log.Info().Time("next_run", next).Msg("scheduled next run")

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		if !s.runner.TryTrigger() {
			s.log.Warn().Msg("scheduled run skipped: previous run still in progress")
		}
	}
}

// nextRun returns the earliest upcoming slot time after now.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	best := time.Time{}
	for _, slot := range dailySlots {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), slot.hour, slot.minute, 0, 0, s.loc)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if best.IsZero() || candidate.Before(best) {
			best = candidate
		}
	}
	return best
}
