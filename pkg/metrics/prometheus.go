// Package metrics provides Prometheus metrics for the keymates pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Outbound request metrics - everything this program does is talk to the service
	apiRequests        *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec

	// Discovery quality metrics
	runsDiscovered   prometheus.Counter
	runsDuplicate    prometheus.Counter
	runsUnidentified prometheus.Counter

	// Aggregation metrics
	rostersFetched   prometheus.Counter
	rostersSkipped   prometheus.Counter
	teammatesTracked prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "keymates",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.apiRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "api_requests_total",
			Help:      "Total number of outbound service requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	m.apiRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "api_request_duration_seconds",
			Help:      "Outbound service request duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint"},
	)

	m.runsDiscovered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_discovered_total",
		Help:      "Total number of unique runs accepted by discovery",
	})

	m.runsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_duplicate_total",
		Help:      "Total number of runs dropped as duplicates across discovery paths",
	})

	m.runsUnidentified = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_unidentified_total",
		Help:      "Total number of run records dropped for lacking an extractable id",
	})

	m.rostersFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rosters_fetched_total",
		Help:      "Total number of run rosters fetched and folded into the tally",
	})

	m.rostersSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rosters_skipped_total",
		Help:      "Total number of runs skipped because their roster fetch failed",
	})

	m.teammatesTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teammates_tracked",
		Help:      "Current number of distinct teammate identities in the tally",
	})
}

// Package-level helpers operating on the global manager.

// RecordAPIRequest increments the outbound request counter.
func RecordAPIRequest(endpoint, outcome string) {
	globalManager.apiRequests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordAPIRequestDuration observes the duration of an outbound request.
func RecordAPIRequestDuration(endpoint string, seconds float64) {
	globalManager.apiRequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// RecordRunDiscovered increments the unique-run counter.
func RecordRunDiscovered() {
	globalManager.runsDiscovered.Inc()
}

// RecordRunDuplicate increments the duplicate-run counter.
func RecordRunDuplicate() {
	globalManager.runsDuplicate.Inc()
}

// RecordRunUnidentified increments the dropped-record counter.
func RecordRunUnidentified() {
	globalManager.runsUnidentified.Inc()
}

// RecordRosterFetched increments the fetched-roster counter.
func RecordRosterFetched() {
	globalManager.rostersFetched.Inc()
}

// RecordRosterSkipped increments the skipped-roster counter.
func RecordRosterSkipped() {
	globalManager.rostersSkipped.Inc()
}

// UpdateTeammatesTracked sets the distinct-teammate gauge.
func UpdateTeammatesTracked(count int) {
	globalManager.teammatesTracked.Set(float64(count))
}

// GetRegistry returns the custom registry for exposition handlers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
