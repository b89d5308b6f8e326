package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// stealthScript hides the usual automation fingerprints before any page
// script runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'plugins', {
	get: () => [
		{name: 'Chrome PDF Plugin'},
		{name: 'Chrome PDF Viewer'},
		{name: 'Native Client'}
	]
});
`

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"

// ChromePage drives one tab of a dedicated headless Chrome instance. One
// instance per run; a failed run discards the whole browser.
type ChromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

// NewChromePage launches a fresh Chrome with anti-automation flags and opens
// a single tab.
func NewChromePage(headless bool, log zerolog.Logger) (*ChromePage, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1366, 768),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelTab()
		cancelAlloc()
	}

	// Start the browser and install the stealth script before first use.
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	}))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	log.Info().Bool("headless", headless).Msg("browser session started")
	return &ChromePage{ctx: tabCtx, cancel: cancel, log: log}, nil
}

// run executes chromedp actions against the tab, bounded by timeout and
// abortable through the caller's context.
func (p *ChromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(tctx, actions...) }()

	select {
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, 90*time.Second,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *ChromePage) Location(ctx context.Context) (string, error) {
	var url string
	err := p.run(ctx, 10*time.Second, chromedp.Location(&url))
	return url, err
}

func (p *ChromePage) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

func (p *ChromePage) Click(ctx context.Context, sel string, timeout time.Duration) error {
	return p.run(ctx, timeout,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
	)
}

func (p *ChromePage) Fill(ctx context.Context, sel, value string, timeout time.Duration) error {
	return p.run(ctx, timeout,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
	)
}

func (p *ChromePage) Evaluate(ctx context.Context, js string, out any) error {
	return p.run(ctx, 15*time.Second, chromedp.Evaluate(js, out))
}

// Screenshot writes a viewport capture for offline debugging. Failures are
// logged and swallowed; diagnostics never change program flow.
func (p *ChromePage) Screenshot(ctx context.Context, path string) {
	var buf []byte
	if err := p.run(ctx, 10*time.Second, chromedp.CaptureScreenshot(&buf)); err != nil {
		p.log.Warn().Err(err).Str("path", path).Msg("could not capture screenshot")
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		p.log.Warn().Err(err).Msg("could not create screenshot directory")
		return
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		p.log.Warn().Err(err).Str("path", path).Msg("could not write screenshot")
	}
}

// ArmDownloads tells the browser to save downloads into dir under their
// download GUID and returns a wait function for the next completed download.
func (p *ChromePage) ArmDownloads(ctx context.Context, dir string) (func(ctx context.Context) (string, error), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	completed := make(chan string, 1)
	chromedp.ListenTarget(p.ctx, func(ev interface{}) {
		if e, ok := ev.(*browser.EventDownloadProgress); ok && e.State == browser.DownloadProgressStateCompleted {
			select {
			case completed <- filepath.Join(dir, e.GUID):
			default:
			}
		}
	})

	err := p.run(ctx, 10*time.Second,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(dir).
			WithEventsEnabled(true),
	)
	if err != nil {
		return nil, fmt.Errorf("set download behavior: %w", err)
	}

	wait := func(ctx context.Context) (string, error) {
		select {
		case path := <-completed:
			return path, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return wait, nil
}

func (p *ChromePage) Close() {
	p.cancel()
	p.log.Debug().Msg("browser session closed")
}
