package ringba

import (
	"context"
	"fmt"
	"os"
	"time"

	"ringba-rpc-monitor/models"
	"ringba-rpc-monitor/services"
)

// exportSelectors is the ordered ladder for the export control. Broader
// text-based scans follow when none of these match.
var exportSelectors = []string{
	"button.export-csv",
	".export-csv",
	"[aria-label*='export' i]",
	"[aria-label*='csv' i]",
	"[title*='export' i]",
	"[title*='csv' i]",
}

// exportMarker tags the element a JS scan resolved so the normal click path
// can reach it afterwards.
const exportMarker = "data-rpcmon-export"

// tagExportByTextJS scans the obvious clickable elements for export-related
// text and tags the first hit.
const tagExportByTextJS = `
	(function() {
		var candidates = document.querySelectorAll("button, a.btn, .btn, a[role='button'], a");
		for (var i = 0; i < candidates.length; i++) {
			var text = (candidates[i].innerText || '').trim().toLowerCase();
			if (text.indexOf('export') !== -1 || text.indexOf('csv') !== -1 || text.indexOf('download') !== -1) {
				candidates[i].setAttribute('` + exportMarker + `', '1');
				return true;
			}
		}
		return false;
	})()
`

// tagExportDOMWideJS is the widest net: any element whose text matches the
// keywords and that looks visually clickable.
const tagExportDOMWideJS = `
	(function() {
		var all = document.querySelectorAll('*');
		for (var i = 0; i < all.length; i++) {
			var el = all[i];
			var text = (el.textContent || '').trim().toLowerCase();
			if (text.length === 0 || text.length > 60) continue;
			if (text.indexOf('export') === -1 && text.indexOf('csv') === -1 && text.indexOf('download') === -1) continue;
			var clickable = el.tagName === 'BUTTON' || el.tagName === 'A' ||
				el.getAttribute('role') === 'button' ||
				window.getComputedStyle(el).cursor === 'pointer';
			if (clickable) {
				el.setAttribute('` + exportMarker + `', '1');
				return true;
			}
		}
		return false;
	})()
`

// extractViaExport is the primary extraction path: resolve the export
// control, capture the CSV it downloads and parse it. Structured download
// capture is attempted first; filesystem polling is the fallback.
func (s *Scraper) extractViaExport(ctx context.Context) ([]models.TargetMetric, []string, error) {
	if !s.alive(ctx) {
		return nil, nil, fmt.Errorf("page unusable before export")
	}
	s.snap(ctx, "before_export")

	winner, attempted, err := s.findExportControl(ctx)
	if err != nil {
		return nil, attempted, fmt.Errorf("no export control: %w", err)
	}

	wait, err := s.pg.ArmDownloads(ctx, s.cfg.DownloadDir)
	if err != nil {
		return nil, attempted, fmt.Errorf("arm download capture: %w", err)
	}

	clickedAt := time.Now()
	if err := s.clickExportControl(ctx, winner); err != nil {
		return nil, attempted, fmt.Errorf("click export control: %w", err)
	}
	s.log.Info().Str("strategy", winner).Msg("clicked export control, waiting for download")

	path, err := s.waitForDownload(ctx, wait, clickedAt)
	if err != nil {
		return nil, attempted, err
	}
	s.snap(ctx, "after_export")

	rows, err := s.parseDownloaded(path)
	if err != nil {
		return nil, attempted, err
	}
	return rows, attempted, nil
}

// findExportControl runs the export ladder without clicking, so the download
// listener can be armed between resolution and click. Returns the winning
// strategy name.
func (s *Scraper) findExportControl(ctx context.Context) (string, []string, error) {
	strategies := make([]Strategy, 0, len(exportSelectors)+2)
	for _, sel := range exportSelectors {
		sel := sel
		strategies = append(strategies, Strategy{
			Name: "selector:" + sel,
			Run: func(ctx context.Context) error {
				return s.pg.WaitVisible(ctx, sel, 3*time.Second)
			},
		})
	}
	strategies = append(strategies,
		Strategy{
			Name: "button-text-scan",
			Run: func(ctx context.Context) error {
				return s.evalClicked(ctx, tagExportByTextJS)
			},
		},
		Strategy{
			Name: "dom-wide-scan",
			Run: func(ctx context.Context) error {
				return s.evalClicked(ctx, tagExportDOMWideJS)
			},
		},
	)

	return tryStrategies(ctx, s.log, "export control", strategies)
}

func (s *Scraper) clickExportControl(ctx context.Context, winner string) error {
	sel := "[" + exportMarker + "]"
	if len(winner) > len("selector:") && winner[:len("selector:")] == "selector:" {
		sel = winner[len("selector:"):]
	}
	return s.pg.Click(ctx, sel, 5*time.Second)
}

func (s *Scraper) waitForDownload(ctx context.Context, wait func(ctx context.Context) (string, error), clickedAt time.Time) (string, error) {
	dctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	path, err := wait(dctx)
	if err == nil {
		s.log.Info().Str("path", path).Msg("download captured")
		return path, nil
	}

	s.log.Warn().Err(err).Msg("download capture failed, polling download directory")
	path, pollErr := pollDownloadDir(ctx, s.cfg.DownloadDir, clickedAt, 20*time.Second)
	if pollErr != nil {
		return "", fmt.Errorf("download never arrived: %w", pollErr)
	}
	s.log.Info().Str("path", path).Msg("found download by polling")
	return path, nil
}

func (s *Scraper) parseDownloaded(path string) ([]models.TargetMetric, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open downloaded csv: %w", err)
	}
	defer f.Close()
	defer s.removeDownload(path)

	rows, err := services.ParseReportCSV(f, s.log)
	if err != nil {
		return nil, fmt.Errorf("parse downloaded csv: %w", err)
	}
	return rows, nil
}
