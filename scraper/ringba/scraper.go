package ringba

import (
	"context"
	"path/filepath"

	"ringba-rpc-monitor/browser"
	"ringba-rpc-monitor/config"
	"ringba-rpc-monitor/models"

	"github.com/rs/zerolog"
)

// Provider URLs. The report is reached by deep link rather than by clicking
// through menus; menu layouts change more often than routes.
const (
	homeURL   = "https://www.ringba.com/"
	loginURL  = "https://app.ringba.com/#/login"
	reportURL = "https://app.ringba.com/#/dashboard/call-logs/report/new"
)

// Scraper drives one authenticated browser session through the full
// login → navigate → extract pipeline.
type Scraper struct {
	pg  browser.Page
	cfg *config.Config
	log zerolog.Logger
}

func NewScraper(pg browser.Page, cfg *config.Config, log zerolog.Logger) *Scraper {
	return &Scraper{pg: pg, cfg: cfg, log: log}
}

// Run executes the pipeline against a fresh session and returns the
// extracted rows. An empty result with a nil error means no data was
// extracted; the orchestrator treats that as retryable.
func (s *Scraper) Run(ctx context.Context) ([]models.TargetMetric, error) {
	if err := s.Login(ctx); err != nil {
		return nil, err
	}
	s.snap(ctx, "after_login")

	if err := s.NavigateToReport(ctx); err != nil {
		return nil, err
	}

	return s.Extract(ctx)
}

// Close releases the browser session.
func (s *Scraper) Close() {
	s.pg.Close()
}

// snap captures a diagnostic screenshot. Purely observability; never changes
// program flow.
func (s *Scraper) snap(ctx context.Context, name string) {
	s.pg.Screenshot(ctx, filepath.Join(s.cfg.ScreenshotDir, name+".png"))
}

// alive runs a trivial script to check the page handle is still usable.
// Used as a cooperative cancellation check during long waits.
func (s *Scraper) alive(ctx context.Context) bool {
	var one int
	return s.pg.Evaluate(ctx, "1", &one) == nil
}
