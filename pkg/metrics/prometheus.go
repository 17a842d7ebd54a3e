// Package metrics provides Prometheus metrics for the race simulation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the simulation service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core Business Metrics - What really matters for a race simulator
	racesSimulated prometheus.Counter
	racesAbandoned prometheus.Counter
	competitorsDNF prometheus.Counter
	raceTicks      prometheus.Histogram
	raceDuration   prometheus.Histogram

	// Simulation Detail Metrics
	laneChanges   *prometheus.CounterVec
	riskyAttempts prometheus.Counter
	riskyFailures prometheus.Counter

	// Operational Health Metrics
	queueSize     prometheus.Gauge
	workerCount   prometheus.Gauge
	resultsStored prometheus.Gauge

	// Queue Metrics
	queueEnqueueErrors prometheus.Counter
}

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
		namespace:        "derby",
		subsystem:        "simulation",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.racesSimulated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "races_simulated_total",
		Help:      "Total number of races simulated to completion",
	})

	m.racesAbandoned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "races_abandoned_total",
		Help:      "Total number of races abandoned before completion (cancellation or error)",
	})

	m.competitorsDNF = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "competitors_dnf_total",
		Help:      "Total number of competitors marked DNF by the safety bound",
	})

	m.raceTicks = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "race_ticks",
		Help:      "Histogram of simulated ticks per race",
		Buckets:   []float64{25, 50, 75, 100, 150, 200, 300, 500, 1000},
	})

	m.raceDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "race_duration_milliseconds",
		Help:      "Wall-clock duration of a race simulation in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.laneChanges = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "lane_changes_total",
			Help:      "Total number of committed lane changes by kind",
		},
		[]string{"kind"},
	)

	m.riskyAttempts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "risky_squeeze_attempts_total",
		Help:      "Total number of risky squeeze rolls taken against blocked lanes",
	})

	m.riskyFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "risky_squeeze_failures_total",
		Help:      "Total number of risky squeeze rolls that failed",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the race request queue (backlog indicator)",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of race runner workers",
	})

	m.resultsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_stored",
		Help:      "Number of race results currently held in the store",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of rejected race submissions (full or closed queue)",
	})
}

// RecordRaceSimulated increments the races simulated counter.
func RecordRaceSimulated() {
	globalManager.racesSimulated.Inc()
}

// RecordRaceAbandoned increments the abandoned races counter.
func RecordRaceAbandoned() {
	globalManager.racesAbandoned.Inc()
}

// RecordCompetitorDNF increments the DNF counter.
func RecordCompetitorDNF() {
	globalManager.competitorsDNF.Inc()
}

// RecordRaceTicks observes the number of ticks a race took.
func RecordRaceTicks(ticks int) {
	globalManager.raceTicks.Observe(float64(ticks))
}

// RecordRaceDuration observes the wall-clock duration of a race in milliseconds.
func RecordRaceDuration(durationMs float64) {
	globalManager.raceDuration.Observe(durationMs)
}

// RecordLaneChange increments the lane change counter for a change kind.
func RecordLaneChange(kind string) {
	globalManager.laneChanges.WithLabelValues(kind).Inc()
}

// RecordRiskyAttempt increments the risky squeeze attempt counter.
func RecordRiskyAttempt() {
	globalManager.riskyAttempts.Inc()
}

// RecordRiskyFailure increments the risky squeeze failure counter.
func RecordRiskyFailure() {
	globalManager.riskyFailures.Inc()
}

// UpdateQueueSize sets the current queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the current worker count gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateResultsStored sets the stored results gauge.
func UpdateResultsStored(count int) {
	globalManager.resultsStored.Set(float64(count))
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// GetRegistry returns the custom Prometheus registry for serving /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
