package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"ringba-rpc-monitor/config"
	"ringba-rpc-monitor/metrics"
	"ringba-rpc-monitor/models"
	"ringba-rpc-monitor/services"
	"ringba-rpc-monitor/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	loginErr   error
	navErr     error
	extractErr error
	rows       []models.TargetMetric
	closed     bool
}

func (p *fakePipeline) Login(context.Context) error            { return p.loginErr }
func (p *fakePipeline) NavigateToReport(context.Context) error { return p.navErr }
func (p *fakePipeline) Extract(context.Context) ([]models.TargetMetric, error) {
	return p.rows, p.extractErr
}
func (p *fakePipeline) Close() { p.closed = true }

type fakeNotifier struct {
	messages []string
	err      error
}

func (n *fakeNotifier) Send(_ context.Context, msg string) error {
	n.messages = append(n.messages, msg)
	return n.err
}

func newTestRunner(t *testing.T, factory PipelineFactory, store storage.SnapshotStore) (*Runner, *fakeNotifier, *Status) {
	t.Helper()
	cfg := &config.Config{MaxRunAttempts: 4, Location: time.UTC}
	notifier := &fakeNotifier{}
	status := NewStatus()
	met := metrics.New(prometheus.NewRegistry())
	return New(cfg, store, notifier, factory, status, met, zerolog.Nop()), notifier, status
}

func TestRunOnceExhaustsRetriesOnAuthFailure(t *testing.T) {
	var attempts int
	var pipelines []*fakePipeline
	factory := func(context.Context) (Pipeline, error) {
		attempts++
		p := &fakePipeline{loginErr: errors.New("login form not found")}
		pipelines = append(pipelines, p)
		return p, nil
	}

	r, notifier, status := newTestRunner(t, factory, storage.NewMemoryStore())
	r.RunOnce(context.Background())

	assert.Equal(t, 4, attempts, "every attempt gets a fresh session")
	for _, p := range pipelines {
		assert.True(t, p.closed, "failed sessions are discarded")
	}

	st, ok := status.Get()
	require.True(t, ok)
	assert.False(t, st.Success)
	assert.Contains(t, st.Error, "after 4 attempts")

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "❌")
}

func TestRunOnceRetriesEmptyExtraction(t *testing.T) {
	var attempts int
	factory := func(context.Context) (Pipeline, error) {
		attempts++
		return &fakePipeline{}, nil // extraction succeeds with zero rows
	}

	r, _, status := newTestRunner(t, factory, storage.NewMemoryStore())
	r.RunOnce(context.Background())

	assert.Equal(t, 4, attempts)
	st, _ := status.Get()
	assert.False(t, st.Success)
	assert.Contains(t, st.Error, "no rows")
}

func TestRunOnceSuccessPersistsAndNotifies(t *testing.T) {
	rows := []models.TargetMetric{{TargetName: "Acme", RPC: 12, Incoming: 55, Converted: 5}}
	factory := func(context.Context) (Pipeline, error) {
		return &fakePipeline{rows: rows}, nil
	}

	store := storage.NewMemoryStore()
	r, notifier, status := newTestRunner(t, factory, store)
	r.RunOnce(context.Background())

	st, ok := status.Get()
	require.True(t, ok)
	assert.True(t, st.Success)
	require.NotNil(t, st.Report)
	assert.Len(t, st.Report.Rows, 1)
	assert.Equal(t, services.TimeSlot(st.Timestamp), st.Report.TimeSlot)

	snap, found, err := store.Get(context.Background(), st.Report.TimeSlot)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rows, snap.Targets)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Acme")
}

func TestRunOnceRecoversAfterFailedAttempts(t *testing.T) {
	var attempts int
	factory := func(context.Context) (Pipeline, error) {
		attempts++
		if attempts < 3 {
			return &fakePipeline{navErr: errors.New("page unresponsive")}, nil
		}
		return &fakePipeline{rows: []models.TargetMetric{{TargetName: "A", RPC: 1}}}, nil
	}

	r, _, status := newTestRunner(t, factory, storage.NewMemoryStore())
	r.RunOnce(context.Background())

	assert.Equal(t, 3, attempts)
	st, _ := status.Get()
	assert.True(t, st.Success)
}

func TestPersistenceFailureDegradesNotification(t *testing.T) {
	factory := func(context.Context) (Pipeline, error) {
		return &fakePipeline{rows: []models.TargetMetric{{TargetName: "A", RPC: 1}}}, nil
	}

	r, notifier, status := newTestRunner(t, factory, failingStore{})
	r.RunOnce(context.Background())

	st, _ := status.Get()
	assert.True(t, st.Success, "persistence failure does not fail the run")
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "not saved")
}

func TestTriggerRejectedWhileRunning(t *testing.T) {
	factory := func(context.Context) (Pipeline, error) {
		return &fakePipeline{}, nil
	}
	r, _, _ := newTestRunner(t, factory, storage.NewMemoryStore())

	r.running.Store(true)
	assert.False(t, r.TryTrigger())
	r.running.Store(false)
}

type failingStore struct{}

func (failingStore) Put(context.Context, models.Snapshot) error { return errors.New("db down") }
func (failingStore) Get(context.Context, string) (models.Snapshot, bool, error) {
	return models.Snapshot{}, false, errors.New("db down")
}
func (failingStore) Close() error { return nil }
