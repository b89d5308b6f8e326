package ringba

import (
	"context"
	"fmt"
	"time"
)

const (
	navAttempts     = 3
	navSettleWait   = 10 * time.Second
	navProbeSpacing = 2 * time.Second
)

// NavigateToReport drives the authenticated session to the call-logs report
// by deep link and waits for the page to settle. Liveness is probed
// throughout: an unresponsive page aborts immediately rather than waiting
// out the full bound.
func (s *Scraper) NavigateToReport(ctx context.Context) error {
	s.log.Info().Msg("navigating to call logs report")

	if !s.alive(ctx) {
		return &NavError{Err: fmt.Errorf("page unusable before navigation")}
	}

	var lastErr error
	for attempt := 1; attempt <= navAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt) * 3 * time.Second
			s.log.Warn().Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying navigation")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return &NavError{Err: ctx.Err()}
			}
		}

		if err := s.pg.Navigate(ctx, reportURL); err != nil {
			lastErr = err
			continue
		}
		s.snap(ctx, fmt.Sprintf("report_navigation_%d", attempt))

		if err := s.waitSettled(ctx); err != nil {
			lastErr = err
			continue
		}

		s.applyReportActions(ctx)
		return nil
	}
	return &NavError{Err: fmt.Errorf("all %d navigation attempts failed: %w", navAttempts, lastErr)}
}

// waitSettled probes page liveness at short intervals while the SPA
// initializes.
func (s *Scraper) waitSettled(ctx context.Context) error {
	deadline := time.Now().Add(navSettleWait)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.alive(ctx) {
			return fmt.Errorf("page unresponsive after navigation")
		}
		if !time.Now().Add(navProbeSpacing).Before(deadline) {
			return nil
		}
		select {
		case <-time.After(navProbeSpacing):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// applyReportActions attempts the optional UI steps that may be needed to
// materialize report data: an Apply control, the Table view tab and a
// Run/Generate control. Each is independently best-effort; report data may
// already be live without them, so failures are logged and ignored.
func (s *Scraper) applyReportActions(ctx context.Context) {
	actions := []struct {
		name     string
		keywords []string
	}{
		{"apply control", []string{"apply"}},
		{"table view tab", []string{"table"}},
		{"run report control", []string{"run", "generate"}},
	}

	for _, a := range actions {
		if err := s.evalClicked(ctx, clickByTextJS(a.keywords...)); err != nil {
			s.log.Debug().Str("action", a.name).Err(err).Msg("optional report action not applied")
			continue
		}
		s.log.Info().Str("action", a.name).Msg("applied report action")
		humanDelay(ctx, 1*time.Second, 2*time.Second)
	}
}
