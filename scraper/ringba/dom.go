package ringba

import (
	"context"
	"fmt"

	"ringba-rpc-monitor/models"
	"ringba-rpc-monitor/services"
)

// domRow carries the raw cell strings one table row resolved to. Parsing and
// validation happen Go-side through the same constructor as the CSV path.
type domRow struct {
	Target    string `json:"target"`
	RPC       string `json:"rpc"`
	Incoming  string `json:"incoming"`
	Converted string `json:"converted"`
}

// scrapeTableJS locates a table-like container, matches column indices by
// header keyword containment and extracts cell text per row. Every lookup
// tries a list of structural selectors because the SPA renders its grid with
// unstable class names (plain tables, ARIA grids and React-Table variants
// have all been observed).
const scrapeTableJS = `
	(function() {
		function findContainers() {
			var selectors = [
				'table',
				'div[role="grid"]', 'div[role="table"]',
				'div[class*="table"]', 'div[class*="grid"]', 'div[class*="report"]',
				'.rt-table',
				'[data-testid*="table"]', '[data-testid*="grid"]'
			];
			var found = [];
			for (var i = 0; i < selectors.length; i++) {
				var els = document.querySelectorAll(selectors[i]);
				for (var j = 0; j < els.length; j++) found.push(els[j]);
				if (found.length > 0) break;
			}
			return found;
		}

		function findHeaders(container) {
			var selectors = [
				'th',
				'div[role="columnheader"]',
				'div[class*="header"] div[class*="cell"]',
				'div[class*="header-cell"]',
				'.rt-th'
			];
			for (var i = 0; i < selectors.length; i++) {
				var els = container.querySelectorAll(selectors[i]);
				if (els.length > 0) return Array.prototype.slice.call(els);
			}
			var firstRow = container.querySelector('tr:first-child, div[class*="row"]:first-child');
			if (firstRow) {
				return Array.prototype.slice.call(firstRow.querySelectorAll('td, div[class*="cell"]'));
			}
			return [];
		}

		function columnIndex(headers, keywords) {
			for (var i = 0; i < headers.length; i++) {
				var text = (headers[i].textContent || '').trim().toLowerCase();
				for (var k = 0; k < keywords.length; k++) {
					if (text.indexOf(keywords[k]) !== -1) return i;
				}
			}
			return -1;
		}

		function findRows(container) {
			var selectors = [
				'tbody tr',
				'div[role="row"]:not([class*="header"])',
				'div[class*="body"] div[class*="row"]',
				'.rt-tr-group .rt-tr'
			];
			for (var i = 0; i < selectors.length; i++) {
				var els = container.querySelectorAll(selectors[i]);
				if (els.length > 0) return Array.prototype.slice.call(els);
			}
			return [];
		}

		function findCells(row) {
			var selectors = ['td', 'div[role="cell"]', 'div[class*="cell"]', '.rt-td'];
			for (var i = 0; i < selectors.length; i++) {
				var els = row.querySelectorAll(selectors[i]);
				if (els.length > 0) return Array.prototype.slice.call(els);
			}
			return [];
		}

		var containers = findContainers();
		for (var c = 0; c < containers.length; c++) {
			var headers = findHeaders(containers[c]);
			if (headers.length === 0) continue;

			var targetIdx = columnIndex(headers, ['target', 'campaign', 'name', 'source']);
			var rpcIdx = columnIndex(headers, ['rpc', 'revenue per call', 'rev/call', 'revenue/call']);
			if (targetIdx < 0 || rpcIdx < 0) continue;

			var incomingIdx = columnIndex(headers, ['incoming', 'calls', 'inbound']);
			var convertedIdx = columnIndex(headers, ['converted']);

			var rows = findRows(containers[c]);
			var out = [];
			for (var r = 0; r < rows.length; r++) {
				var cells = findCells(rows[r]);
				if (cells.length <= Math.max(targetIdx, rpcIdx)) continue;
				var cell = function(idx) {
					return idx >= 0 && idx < cells.length ? (cells[idx].textContent || '').trim() : '';
				};
				var target = cell(targetIdx);
				var rpc = cell(rpcIdx);
				if (!target || !rpc) continue;
				out.push({target: target, rpc: rpc, incoming: cell(incomingIdx), converted: cell(convertedIdx)});
			}
			if (out.length > 0) return out;
		}
		return [];
	})()
`

// extractViaDOM is the fallback path when no export control exists: scrape
// the rendered report table directly.
func (s *Scraper) extractViaDOM(ctx context.Context) ([]models.TargetMetric, error) {
	if !s.alive(ctx) {
		return nil, fmt.Errorf("page unusable before table scrape")
	}
	s.snap(ctx, "before_table_scrape")

	var raw []domRow
	if err := s.pg.Evaluate(ctx, scrapeTableJS, &raw); err != nil {
		return nil, fmt.Errorf("table scrape script: %w", err)
	}

	var rows []models.TargetMetric
	for _, r := range raw {
		m, ok := services.NewTargetMetric(r.Target, r.RPC, r.Incoming, r.Converted)
		if !ok {
			continue
		}
		rows = append(rows, m)
	}

	s.log.Info().Int("rows", len(rows)).Msg("scraped target metrics from table")
	if len(rows) == 0 {
		s.snap(ctx, "table_scrape_empty")
	}
	return rows, nil
}
