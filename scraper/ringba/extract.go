package ringba

import (
	"context"

	"ringba-rpc-monitor/models"
)

// Extract obtains structured rows from the reporting surface. The CSV export
// is the primary strategy; DOM scraping is attempted only after the export
// path definitively fails. Zero rows with a nil error is a legal outcome
// ("no data extracted"); the orchestrator decides whether to retry.
func (s *Scraper) Extract(ctx context.Context) ([]models.TargetMetric, error) {
	rows, attempted, err := s.extractViaExport(ctx)
	if err == nil {
		return rows, nil
	}
	s.log.Warn().Err(err).Msg("export extraction failed, falling back to table scrape")
	s.snap(ctx, "export_failed")

	rows, domErr := s.extractViaDOM(ctx)
	if domErr != nil {
		return nil, &ExtractError{Attempted: append(attempted, "dom-table-scrape"), Err: domErr}
	}
	return rows, nil
}
