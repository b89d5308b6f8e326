package ringba

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"ringba-rpc-monitor/config"
	"ringba-rpc-monitor/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage scripts browser behavior per selector and per script fragment so
// the fallback ladders can be exercised without a browser.
type fakePage struct {
	visible  map[string]bool // selectors that resolve for WaitVisible/Click/Fill
	evals    map[string]any  // script fragment → result
	evalErrs map[string]error
	location string
	clicks   []string
	fills    map[string]string
	download string // path ArmDownloads' wait yields; empty means capture fails
}

func newFakePage() *fakePage {
	return &fakePage{
		visible: map[string]bool{},
		evals:   map[string]any{"1": 1}, // liveness probe passes by default
		fills:   map[string]string{},
	}
}

func (p *fakePage) Navigate(context.Context, string) error { return nil }

func (p *fakePage) Location(context.Context) (string, error) { return p.location, nil }

func (p *fakePage) WaitVisible(_ context.Context, sel string, _ time.Duration) error {
	if p.visible[sel] {
		return nil
	}
	return errors.New("not visible: " + sel)
}

func (p *fakePage) Click(ctx context.Context, sel string, d time.Duration) error {
	if err := p.WaitVisible(ctx, sel, d); err != nil {
		return err
	}
	p.clicks = append(p.clicks, sel)
	return nil
}

func (p *fakePage) Fill(ctx context.Context, sel, value string, d time.Duration) error {
	if err := p.WaitVisible(ctx, sel, d); err != nil {
		return err
	}
	p.fills[sel] = value
	return nil
}

func (p *fakePage) Evaluate(_ context.Context, js string, out any) error {
	for fragment, err := range p.evalErrs {
		if strings.Contains(js, fragment) {
			return err
		}
	}
	for fragment, result := range p.evals {
		if js == fragment || (fragment != "1" && strings.Contains(js, fragment)) {
			if out == nil {
				return nil
			}
			b, _ := json.Marshal(result)
			return json.Unmarshal(b, out)
		}
	}
	if out != nil {
		b, _ := json.Marshal(false)
		return json.Unmarshal(b, out)
	}
	return nil
}

func (p *fakePage) Screenshot(context.Context, string) {}

func (p *fakePage) ArmDownloads(context.Context, string) (func(context.Context) (string, error), error) {
	return func(ctx context.Context) (string, error) {
		if p.download == "" {
			return "", errors.New("no download event")
		}
		return p.download, nil
	}, nil
}

func (p *fakePage) Close() {}

func newTestScraper(t *testing.T, pg *fakePage) *Scraper {
	t.Helper()
	cfg := &config.Config{
		RingbaEmail:    "user@example.com",
		RingbaPassword: "secret",
		DownloadDir:    t.TempDir(),
		ScreenshotDir:  t.TempDir(),
	}
	return NewScraper(pg, cfg, zerolog.Nop())
}

func TestTryStrategiesFirstSuccessWins(t *testing.T) {
	var ran []string
	mk := func(name string, err error) Strategy {
		return Strategy{Name: name, Run: func(context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}

	winner, attempted, err := tryStrategies(context.Background(), zerolog.Nop(), "thing", []Strategy{
		mk("first", errors.New("nope")),
		mk("second", nil),
		mk("third", nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "second", winner)
	assert.Equal(t, []string{"first", "second"}, attempted)
	assert.Equal(t, []string{"first", "second"}, ran, "later strategies are never tried")
}

func TestTryStrategiesExhaustion(t *testing.T) {
	fail := func(name string) Strategy {
		return Strategy{Name: name, Run: func(context.Context) error { return errors.New("nope") }}
	}

	_, attempted, err := tryStrategies(context.Background(), zerolog.Nop(), "thing", []Strategy{
		fail("a"), fail("b"),
	})
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, attempted)
}

func TestFindExportControlSelectorWins(t *testing.T) {
	pg := newFakePage()
	pg.visible["[aria-label*='export' i]"] = true
	s := newTestScraper(t, pg)

	winner, attempted, err := s.findExportControl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "selector:[aria-label*='export' i]", winner)
	// Earlier rungs were tried and failed first.
	assert.Contains(t, attempted, "selector:button.export-csv")
}

func TestFindExportControlTextScanFallback(t *testing.T) {
	pg := newFakePage()
	pg.evals[exportMarker] = true // both tag scripts contain the marker attribute
	s := newTestScraper(t, pg)

	winner, _, err := s.findExportControl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "button-text-scan", winner)
}

func TestFindExportControlExhaustion(t *testing.T) {
	pg := newFakePage()
	s := newTestScraper(t, pg)

	_, attempted, err := s.findExportControl(context.Background())
	require.Error(t, err)
	assert.Contains(t, attempted, "button-text-scan")
	assert.Contains(t, attempted, "dom-wide-scan")
	assert.Len(t, attempted, len(exportSelectors)+2)
}

func TestExtractFallsBackToDOMScrape(t *testing.T) {
	pg := newFakePage()
	pg.evals["findContainers"] = []domRow{
		{Target: "Acme", RPC: "$5.00", Incoming: "3", Converted: "1"},
		{Target: "Empty", RPC: ""}, // dropped: no parseable RPC
	}
	s := newTestScraper(t, pg)

	rows, err := s.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.TargetMetric{TargetName: "Acme", RPC: 5, Incoming: 3, Converted: 1}, rows[0])
}

func TestExtractErrorWhenBothPathsFail(t *testing.T) {
	pg := newFakePage()
	pg.evalErrs = map[string]error{"findContainers": errors.New("script blew up")}
	s := newTestScraper(t, pg)

	_, err := s.Extract(context.Background())
	var xerr *ExtractError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, xerr.Attempted, "dom-table-scrape")
}

func TestFillCredentialsLastResortInput(t *testing.T) {
	pg := newFakePage()
	pg.evals["dispatchEvent"] = true // first-visible-input script succeeds
	pg.visible["input[type='password']"] = true
	s := newTestScraper(t, pg)

	attempted, err := s.fillCredentials(context.Background())
	require.NoError(t, err)
	assert.Contains(t, attempted, "first-visible-input")
	assert.Equal(t, "secret", pg.fills["input[type='password']"])
}

func TestFillCredentialsSelectorPath(t *testing.T) {
	pg := newFakePage()
	pg.visible["input[type='email']"] = true
	pg.visible["input[type='password']"] = true
	s := newTestScraper(t, pg)

	attempted, err := s.fillCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"selector:input[type='email']"}, attempted)
	assert.Equal(t, "user@example.com", pg.fills["input[type='email']"])
}

func TestWaitForDashboardMarker(t *testing.T) {
	pg := newFakePage()
	pg.evals["Dashboard"] = true
	s := newTestScraper(t, pg)

	assert.NoError(t, s.waitForDashboard(context.Background()))
}

func TestWaitForDashboardByURL(t *testing.T) {
	pg := newFakePage()
	pg.location = "https://app.ringba.com/#/dashboard/call-logs"
	s := newTestScraper(t, pg)

	assert.NoError(t, s.waitForDashboard(context.Background()))
}
