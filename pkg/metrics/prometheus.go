// Package metrics provides Prometheus metrics for the overlay service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Label values for the update source.
const (
	SourcePush = "push"
	SourcePoll = "poll"
)

// Manager owns every Prometheus collector of the overlay service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Snapshot state
	updatesReceived  *prometheus.CounterVec
	updatesApplied   *prometheus.CounterVec
	updatesRejected  *prometheus.CounterVec
	updatesConflated prometheus.Counter
	snapshotRevision prometheus.Gauge
	snapshotAge      prometheus.Gauge
	applyLatency     prometheus.Histogram

	// Poll channel
	pollAttempts *prometheus.CounterVec
	pollFailures *prometheus.CounterVec
	pollLatency  prometheus.Histogram

	// Queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge

	// Live stream
	streamClients  prometheus.Gauge
	streamMessages prometheus.Counter
	streamDropped  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "overlay",
		subsystem:        "match",
		histogramBuckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(n, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(n),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(n, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(n),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(n, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(n),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	if !m.enabled {
		// Collectors still exist so the Record* helpers stay safe; they are just not exposed.
		auto = promauto.With(nil)
	}

	m.updatesReceived = auto.NewCounterVec(m.counterOpts("updates_received_total",
		"Snapshot updates accepted into the queue, by source"), []string{"source"})
	m.updatesApplied = auto.NewCounterVec(m.counterOpts("updates_applied_total",
		"Snapshot updates applied to the state store, by source"), []string{"source"})
	m.updatesRejected = auto.NewCounterVec(m.counterOpts("updates_rejected_total",
		"Snapshot updates rejected before reaching the store, by source and reason"), []string{"source", "reason"})
	m.updatesConflated = auto.NewCounter(m.counterOpts("updates_conflated_total",
		"Pending updates discarded because a newer one replaced them in a full queue"))
	m.snapshotRevision = auto.NewGauge(m.gaugeOpts("snapshot_revision",
		"Revision of the current snapshot"))
	m.snapshotAge = auto.NewGauge(m.gaugeOpts("snapshot_last_update_unix",
		"Unix time of the last applied snapshot"))
	m.applyLatency = auto.NewHistogram(m.histogramOpts("apply_latency_milliseconds",
		"Time from receiving an update to applying it"))

	m.pollAttempts = auto.NewCounterVec(m.counterOpts("poll_attempts_total",
		"Poll attempts against the game data API, by outcome"), []string{"outcome"})
	m.pollFailures = auto.NewCounterVec(m.counterOpts("poll_failures_total",
		"Failed poll attempts, by reason"), []string{"reason"})
	m.pollLatency = auto.NewHistogram(m.histogramOpts("poll_latency_milliseconds",
		"Latency of poll requests"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Pending updates waiting to be applied"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Capacity of the update queue"))

	m.streamClients = auto.NewGauge(m.gaugeOpts("stream_clients", "Connected live stream clients"))
	m.streamMessages = auto.NewCounter(m.counterOpts("stream_messages_total", "Views written to live stream clients"))
	m.streamDropped = auto.NewCounter(m.counterOpts("stream_dropped_total", "Views skipped for slow live stream clients"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("http_errors_total",
		"HTTP error responses by endpoint, method and error type"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Allocated heap bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause"))
}

// RefreshInterval reports how often gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// Snapshot metrics.

// RecordUpdateReceived counts an update accepted into the queue.
func RecordUpdateReceived(source string) {
	globalManager.updatesReceived.WithLabelValues(source).Inc()
}

// RecordUpdateApplied counts an applied update and records its revision and latency.
func RecordUpdateApplied(source string, revision uint64, latencyMs float64) {
	globalManager.updatesApplied.WithLabelValues(source).Inc()
	globalManager.snapshotRevision.Set(float64(revision))
	globalManager.snapshotAge.SetToCurrentTime()
	globalManager.applyLatency.Observe(latencyMs)
}

// RecordUpdateRejected counts an update that never reached the store.
func RecordUpdateRejected(source, reason string) {
	globalManager.updatesRejected.WithLabelValues(source, reason).Inc()
}

// RecordUpdateConflated counts a pending update replaced by a newer one.
func RecordUpdateConflated() {
	globalManager.updatesConflated.Inc()
}

// Poll metrics.

// RecordPollSuccess records a successful poll and its latency.
func RecordPollSuccess(latencyMs float64) {
	globalManager.pollAttempts.WithLabelValues("success").Inc()
	globalManager.pollLatency.Observe(latencyMs)
}

// RecordPollFailure records a failed poll, its reason and latency.
func RecordPollFailure(reason string, latencyMs float64) {
	globalManager.pollAttempts.WithLabelValues("failure").Inc()
	globalManager.pollFailures.WithLabelValues(reason).Inc()
	globalManager.pollLatency.Observe(latencyMs)
}

// Queue metrics.

// UpdateQueueSize sets the number of pending updates.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// Stream metrics.

// UpdateStreamClients sets the number of live stream clients.
func UpdateStreamClients(count int) {
	globalManager.streamClients.Set(float64(count))
}

// RecordStreamMessage counts a view written to a client.
func RecordStreamMessage() {
	globalManager.streamMessages.Inc()
}

// RecordStreamDropped counts a view skipped for a slow client.
func RecordStreamDropped() {
	globalManager.streamDropped.Inc()
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the allocated heap in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry exposed on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
