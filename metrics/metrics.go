package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the run-level collectors exposed on /metrics.
type Metrics struct {
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
	LastSuccess prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rpcmon_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rpcmon_run_duration_seconds",
			Help:    "Wall-clock duration of pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(5, 2, 8),
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rpcmon_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
	}
}
