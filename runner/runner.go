package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"ringba-rpc-monitor/config"
	"ringba-rpc-monitor/metrics"
	"ringba-rpc-monitor/models"
	"ringba-rpc-monitor/services"
	"ringba-rpc-monitor/storage"

	"github.com/rs/zerolog"
)

// State names the orchestrator's position in the pipeline, for logging and
// diagnostics.
type State string

const (
	StateInit           State = "init"
	StateAuthenticating State = "authenticating"
	StateNavigating     State = "navigating"
	StateExtracting     State = "extracting"
	StateComparing      State = "comparing"
	StatePersisting     State = "persisting"
	StateReporting      State = "reporting"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Pipeline is one browser session's worth of the scraping chain. A fresh
// Pipeline is constructed per attempt; a failed attempt discards the whole
// session since it may have been corrupted by the failure.
type Pipeline interface {
	Login(ctx context.Context) error
	NavigateToReport(ctx context.Context) error
	Extract(ctx context.Context) ([]models.TargetMetric, error)
	Close()
}

// PipelineFactory builds a Pipeline on a fresh browser session.
type PipelineFactory func(ctx context.Context) (Pipeline, error)

// Notifier delivers a rendered report to the team channel.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Runner sequences authentication, navigation, extraction, comparison,
// persistence and notification, with a bounded whole-session retry around
// the browser phases. A run never crashes the process: every failure ends
// in a logged, notified FAILED outcome and control returns to the caller.
type Runner struct {
	cfg         *config.Config
	store       storage.SnapshotStore
	notifier    Notifier
	newPipeline PipelineFactory
	status      *Status
	met         *metrics.Metrics
	log         zerolog.Logger

	running atomic.Bool
}

func New(cfg *config.Config, store storage.SnapshotStore, notifier Notifier, factory PipelineFactory, status *Status, met *metrics.Metrics, log zerolog.Logger) *Runner {
	return &Runner{
		cfg:         cfg,
		store:       store,
		notifier:    notifier,
		newPipeline: factory,
		status:      status,
		met:         met,
		log:         log,
	}
}

// TryTrigger starts a run in the background unless one is already in
// progress. Overlapping triggers are rejected, not queued.
func (r *Runner) TryTrigger() bool {
	if r.running.Load() {
		r.log.Warn().Msg("run already in progress, trigger rejected")
		return false
	}
	go r.RunOnce(context.Background())
	return true
}

// Running reports whether a run is currently in progress.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// RunOnce executes one complete run. Safe to call from the scheduler and the
// HTTP trigger; a concurrent call returns immediately.
func (r *Runner) RunOnce(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		r.log.Warn().Msg("run already in progress, skipping")
		return
	}
	defer r.running.Store(false)

	start := time.Now()
	r.logState(StateInit)

	rows, err := r.extractWithRetries(ctx)
	if err != nil {
		r.finishFailed(ctx, err)
		r.observe(start, "failure")
		return
	}

	report, persistErr := r.buildAndPersist(ctx, rows)

	r.logState(StateReporting)
	message := services.RenderMessage(report)
	if persistErr != nil {
		message += "\n⚠️ _Data extracted but not saved; the next comparison may be incomplete._"
	}
	if err := r.notifier.Send(ctx, message); err != nil {
		// Delivery failures are terminal-but-non-fatal: logged, never retried.
		r.log.Error().Err(err).Msg("failed to deliver report notification")
	}

	r.status.Set(models.RunStatus{
		Timestamp:   report.CapturedAt,
		Success:     true,
		Comparative: report.Comparative,
		Report:      report,
	})
	r.logState(StateDone)
	r.observe(start, "success")
	r.met.LastSuccess.SetToCurrentTime()
}

// extractWithRetries runs the browser chain up to the configured bound,
// starting a fresh session each attempt. Failure or an empty result at any
// browser phase burns an attempt; an explicit loop keeps the bound and the
// last error in plain sight.
func (r *Runner) extractWithRetries(ctx context.Context) ([]models.TargetMetric, error) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxRunAttempts; attempt++ {
		if attempt > 1 {
			r.log.Warn().Int("attempt", attempt).Int("max", r.cfg.MaxRunAttempts).Err(lastErr).
				Msg("retrying with a fresh browser session")
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := r.attempt(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if len(rows) == 0 {
			// The domain guarantees at least one target when the provider is
			// reachable, so an empty result means extraction silently missed.
			lastErr = fmt.Errorf("extraction returned no rows")
			continue
		}
		return rows, nil
	}

	return nil, fmt.Errorf("run failed after %d attempts: %w", r.cfg.MaxRunAttempts, lastErr)
}

func (r *Runner) attempt(ctx context.Context) ([]models.TargetMetric, error) {
	r.logState(StateAuthenticating)
	p, err := r.newPipeline(ctx)
	if err != nil {
		return nil, fmt.Errorf("start browser session: %w", err)
	}
	defer p.Close()

	if err := p.Login(ctx); err != nil {
		return nil, err
	}

	r.logState(StateNavigating)
	if err := p.NavigateToReport(ctx); err != nil {
		return nil, err
	}

	r.logState(StateExtracting)
	return p.Extract(ctx)
}

// buildAndPersist derives the report for the run's time slot and upserts the
// snapshot. Persistence failure does not abort the run; the caller degrades
// the notification instead.
func (r *Runner) buildAndPersist(ctx context.Context, rows []models.TargetMetric) (*models.RunReport, error) {
	now := time.Now().In(r.cfg.Location)
	slot := services.TimeSlot(now)

	r.logState(StateComparing)
	report := &models.RunReport{
		CapturedAt: now,
		TimeSlot:   slot,
	}

	if prevSlot, ok := services.PreviousSlot(slot); ok {
		prev, found, err := r.store.Get(ctx, prevSlot)
		if err != nil {
			r.log.Error().Err(err).Str("previous_slot", prevSlot).Msg("could not load previous snapshot")
		}
		if found {
			report.Comparative = true
			report.PreviousSlot = prevSlot
			report.Rows = services.Compare(rows, prev.Targets, r.log)
		} else {
			r.log.Warn().Str("previous_slot", prevSlot).Msg("previous snapshot absent, degrading to standard report")
			report.Degraded = true
			report.Rows = services.Compare(rows, nil, r.log)
		}
	} else {
		report.Rows = services.Compare(rows, nil, r.log)
	}

	r.logState(StatePersisting)
	err := r.store.Put(ctx, models.Snapshot{
		TimeSlot:   slot,
		CapturedAt: now,
		Targets:    rows,
	})
	if err != nil {
		r.log.Error().Err(err).Str("time_slot", slot).Msg("failed to persist snapshot")
	}
	return report, err
}

// finishFailed records a RunFailed outcome and notifies through the same
// channel as normal reports, best-effort.
func (r *Runner) finishFailed(ctx context.Context, runErr error) {
	r.logState(StateFailed)
	now := time.Now().In(r.cfg.Location)
	r.log.Error().Err(runErr).Msg("run failed")

	if err := r.notifier.Send(ctx, services.RenderErrorMessage(runErr, now)); err != nil {
		r.log.Error().Err(err).Msg("failed to deliver error notification")
	}

	r.status.Set(models.RunStatus{
		Timestamp: now,
		Success:   false,
		Error:     runErr.Error(),
	})
}

func (r *Runner) logState(s State) {
	if s == StateFailed {
		r.log.Warn().Str("state", string(s)).Msg("run state")
		return
	}
	r.log.Info().Str("state", string(s)).Msg("run state")
}

func (r *Runner) observe(start time.Time, outcome string) {
	r.met.RunsTotal.WithLabelValues(outcome).Inc()
	r.met.RunDuration.Observe(time.Since(start).Seconds())
}
