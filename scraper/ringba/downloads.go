package ringba

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// pollDownloadDir watches the download directory for a file created after
// `since`, preferring CSVs. It is the fallback when the structured
// download-capture event never fires even though the click went through.
func pollDownloadDir(ctx context.Context, dir string, since time.Time, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if path, ok := newestFileSince(dir, since); ok {
			return path, nil
		}
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("no new download in %s within %s", dir, timeout)
}

func newestFileSince(dir string, since time.Time) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var newest string
	var newestMod time.Time
	var newestCSV string
	var newestCSVMod time.Time

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().After(since) {
			continue
		}
		// Skip in-flight browser downloads.
		if strings.HasSuffix(e.Name(), ".crdownload") || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") && info.ModTime().After(newestCSVMod) {
			newestCSV, newestCSVMod = path, info.ModTime()
		}
		if info.ModTime().After(newestMod) {
			newest, newestMod = path, info.ModTime()
		}
	}

	if newestCSV != "" {
		return newestCSV, true
	}
	if newest != "" {
		return newest, true
	}
	return "", false
}

// removeDownload cleans up a consumed export file, best-effort.
func (s *Scraper) removeDownload(path string) {
	if err := os.Remove(path); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("could not remove downloaded file")
		return
	}
	s.log.Debug().Str("path", path).Msg("removed downloaded file")
}
