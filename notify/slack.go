package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Slack rejects messages near its ~4000 char limit; anything above this is
// split into a header message plus chunks.
const maxMessageSize = 3000

// chunkSize is the number of target lines per follow-up message.
const chunkSize = 10

// Error is a notification delivery failure. Delivery is never retried; the
// orchestrator logs it and moves on.
type Error struct {
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notification failed: %v", e.Err)
	}
	return fmt.Sprintf("notification failed: webhook returned %d", e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }

// Client posts report text to a Slack-compatible webhook.
type Client struct {
	httpClient *http.Client
	webhookURL string
	log        zerolog.Logger
}

func NewClient(webhookURL string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		webhookURL: webhookURL,
		log:        log,
	}
}

// Send delivers a message, splitting oversized ones into a header message
// stating the line count followed by sequential chunks of target lines.
func (c *Client) Send(ctx context.Context, message string) error {
	if c.webhookURL == "" {
		c.log.Warn().Msg("webhook URL not configured, skipping notification")
		return nil
	}

	if len(message) <= maxMessageSize {
		return c.post(ctx, message)
	}

	header, targets, _ := strings.Cut(message, "\n\n")
	lines := splitLines(targets)

	c.log.Info().Int("chars", len(message)).Int("lines", len(lines)).
		Msg("message exceeds size limit, splitting into chunks")

	first := fmt.Sprintf("%s\n\n*Sending data in multiple messages due to size (%d targets)*", header, len(lines))
	if err := c.post(ctx, first); err != nil {
		return err
	}

	for i := 0; i < len(lines); i += chunkSize {
		end := i + chunkSize
		if end > len(lines) {
			end = len(lines)
		}
		chunk := strings.Join(lines[i:end], "\n")
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		msg := fmt.Sprintf("*Targets (continued, %d-%d of %d)*\n\n%s", i+1, end, len(lines), chunk)
		if err := c.post(ctx, msg); err != nil {
			c.log.Error().Err(err).Int("chunk_start", i+1).Msg("failed to send chunk")
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return &Error{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return &Error{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("webhook response: %s", body)}
	}
	return nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
