package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingServer(t *testing.T, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var messages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		messages = append(messages, payload["text"])
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &messages
}

func TestSendSmallMessage(t *testing.T) {
	srv, messages := recordingServer(t, http.StatusOK)
	c := NewClient(srv.URL, zerolog.Nop())

	require.NoError(t, c.Send(context.Background(), "hello"))
	require.Len(t, *messages, 1)
	assert.Equal(t, "hello", (*messages)[0])
}

func TestSendSplitsOversizedMessage(t *testing.T) {
	srv, messages := recordingServer(t, http.StatusOK)
	c := NewClient(srv.URL, zerolog.Nop())

	// 40 target lines padded so the whole message passes 5000 chars.
	header := "📊 *Ringba Report - 2025-06-02 14:05:00 ET:*"
	var lines []string
	for i := 1; i <= 40; i++ {
		lines = append(lines, fmt.Sprintf("• Target %02d - RPC: $1.00 %s", i, strings.Repeat("x", 90)))
	}
	msg := header + "\n\n" + strings.Join(lines, "\n")
	require.Greater(t, len(msg), 4500)

	require.NoError(t, c.Send(context.Background(), msg))

	// 1 header message + 4 chunks of 10 lines each.
	require.Len(t, *messages, 5)
	assert.Contains(t, (*messages)[0], header)
	assert.Contains(t, (*messages)[0], "(40 targets)")
	for i, chunk := range (*messages)[1:] {
		assert.Contains(t, chunk, fmt.Sprintf("%d-%d of 40", i*10+1, (i+1)*10))
		body := strings.SplitN(chunk, "\n\n", 2)[1]
		assert.Len(t, strings.Split(strings.TrimSpace(body), "\n"), 10)
	}
}

func TestSendNon200IsError(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusBadRequest)
	c := NewClient(srv.URL, zerolog.Nop())

	err := c.Send(context.Background(), "hello")
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, http.StatusBadRequest, nerr.StatusCode)
}

func TestSendNoWebhookConfigured(t *testing.T) {
	c := NewClient("", zerolog.Nop())
	assert.NoError(t, c.Send(context.Background(), "hello"))
}
