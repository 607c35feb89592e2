package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lighttable"

// Search pipeline Prometheus metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of search provider requests",
		},
		[]string{"driver", "kind", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Search provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"driver", "kind"},
	)

	DebounceTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debounce_triggers_total",
			Help:      "Debounced actions scheduled",
		},
		[]string{"store"},
	)

	DebounceCollapsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debounce_collapsed_total",
			Help:      "Pending debounced actions replaced by a newer trigger",
		},
		[]string{"store"},
	)

	StaleResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Provider responses dropped because a newer request superseded them",
		},
		[]string{"store"},
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live search sessions",
		},
	)

	SessionsEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Sessions closed after exceeding the idle timeout",
		},
	)
)

var registerSearchOnce sync.Once

// RegisterSearchMetrics registers the search pipeline metrics with the default
// registry. Safe to call more than once.
func RegisterSearchMetrics() {
	registerSearchOnce.Do(func() {
		prometheus.MustRegister(
			ProviderRequestsTotal,
			ProviderRequestDuration,
			DebounceTriggersTotal,
			DebounceCollapsedTotal,
			StaleResponsesTotal,
			SessionsActive,
			SessionsEvictedTotal,
		)
	})
}

// StatusLabel maps an error to the status label value.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
