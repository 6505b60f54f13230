package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce      sync.Once
	apiRequestsTotal  *prometheus.CounterVec
	apiLatencySeconds *prometheus.HistogramVec
	apiErrorsTotal    *prometheus.CounterVec

	scheduleMutationsTotal       *prometheus.CounterVec
	scheduleEventsPublishedTotal *prometheus.CounterVec
	scheduleFeedClients          prometheus.Gauge
	scheduleCacheFillsTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maestro_api_requests_total",
			Help: "API requests served, by role surface.",
		}, []string{"surface", "method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maestro_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"surface", "method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maestro_api_errors_total",
			Help: "Error responses returned by API endpoints.",
		}, []string{"surface", "method", "route", "status"})

		scheduleMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_mutations_total",
			Help: "Committed schedule mutations by operation.",
		}, []string{"operation"})

		scheduleEventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_events_published_total",
			Help: "Schedule events fanned out to feed subscribers and peers.",
		}, []string{"kind"})

		scheduleFeedClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schedule_feed_clients",
			Help: "Currently connected schedule feed clients.",
		})

		scheduleCacheFillsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_cache_fills_total",
			Help: "Schedule projection cache fills, stored or dropped because the semester changed.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			scheduleMutationsTotal,
			scheduleEventsPublishedTotal,
			scheduleFeedClients,
			scheduleCacheFillsTotal,
		)
	})
}

// APIRequests exposes the request counter.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the error response counter.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ScheduleMutations exposes the counter of committed schedule mutations.
func ScheduleMutations() *prometheus.CounterVec {
	RegisterMetrics()
	return scheduleMutationsTotal
}

// ScheduleEventsPublished exposes the counter of published schedule events.
func ScheduleEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return scheduleEventsPublishedTotal
}

// ScheduleFeedClients exposes the gauge of live feed connections.
func ScheduleFeedClients() prometheus.Gauge {
	RegisterMetrics()
	return scheduleFeedClients
}

// ScheduleCacheFills exposes the counter of projection cache fills by result.
func ScheduleCacheFills() *prometheus.CounterVec {
	RegisterMetrics()
	return scheduleCacheFillsTotal
}
