package browser

import (
	"context"
	"time"
)

// Page is the controllable browser page the scraping pipeline drives. The
// production implementation wraps a chromedp tab; tests substitute a fake so
// the selector ladders can be exercised without a browser.
type Page interface {
	// Navigate loads a URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// Location returns the page's current URL.
	Location(ctx context.Context) (string, error)
	// WaitVisible blocks until the selector matches a visible element or the
	// timeout elapses.
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error
	// Click waits for the selector to be visible and clicks it.
	Click(ctx context.Context, sel string, timeout time.Duration) error
	// Fill waits for the selector, clears it and types the value.
	Fill(ctx context.Context, sel, value string, timeout time.Duration) error
	// Evaluate runs a script in the page and unmarshals its result into out.
	// A nil out discards the result.
	Evaluate(ctx context.Context, js string, out any) error
	// Screenshot captures the viewport to a file, best-effort.
	Screenshot(ctx context.Context, path string)
	// ArmDownloads routes downloads into dir and returns a wait function
	// that blocks until the next download completes, yielding its file path.
	ArmDownloads(ctx context.Context, dir string) (func(ctx context.Context) (string, error), error)
	// Close tears down the page and its browser.
	Close()
}
