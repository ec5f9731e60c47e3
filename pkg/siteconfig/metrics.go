package siteconfig

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records fetch activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	sourceCalls    *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
}

// NewMetrics registers the fetch metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sourceCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tenantsync",
				Name:      "source_calls_total",
				Help:      "Config source calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		sourceDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tenantsync",
				Name:      "source_call_duration_seconds",
				Help:      "Config source call latency",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tenantsync",
				Name:      "cache_lookups_total",
				Help:      "Config cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) observeSource(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.sourceCalls.WithLabelValues(op, outcome(err)).Inc()
	m.sourceDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "transient"
	}
}
