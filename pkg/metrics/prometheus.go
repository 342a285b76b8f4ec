// Package metrics provides Prometheus metrics for the dinger service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by dinger.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Dataset metrics
	datasetRows       prometheus.Gauge
	datasetPlayers    prometheus.Gauge
	datasetDropped    prometheus.Gauge
	datasetLoads      prometheus.Counter
	datasetLoadErrors prometheus.Counter
	datasetLoadTime   prometheus.Histogram

	// Computation metrics
	profileComputations prometheus.Counter
	rankingLatency      prometheus.Histogram
	rankingCandidates   prometheus.Histogram
	mediaPicks          *prometheus.CounterVec

	// Digest pipeline metrics
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueRejected     *prometheus.CounterVec
	digestsBuilt      prometheus.Counter
	digestsFailed     prometheus.Counter
	digestsDuplicate  prometheus.Counter
	digestLatency     prometheus.Histogram
	workerCount       prometheus.Gauge
	digestStoreLength prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dinger",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	m.datasetRows = m.gauge("dataset_rows", "Event rows in the current dataset snapshot")
	m.datasetPlayers = m.gauge("dataset_players", "Distinct attributable players in the current dataset snapshot")
	m.datasetDropped = m.gauge("dataset_dropped_rows", "Malformed rows dropped while parsing the current dataset")
	m.datasetLoads = m.counter("dataset_loads_total", "Successful dataset loads")
	m.datasetLoadErrors = m.counter("dataset_load_errors_total", "Failed dataset loads")
	m.datasetLoadTime = m.histogram("dataset_load_milliseconds", "Dataset fetch and parse time in milliseconds", m.histogramBuckets)

	m.profileComputations = m.counter("profile_computations_total", "Player profiles computed")
	m.rankingLatency = m.histogram("ranking_latency_milliseconds", "Similarity ranking latency in milliseconds", m.histogramBuckets)
	m.rankingCandidates = m.histogram("ranking_candidates", "Candidates scored per ranking",
		prometheus.ExponentialBuckets(1, 4, 8))
	m.mediaPicks = m.counterVec("media_picks_total", "Random media picks by outcome", "outcome")

	m.queueSize = m.gauge("digest_queue_size", "Digest jobs waiting in the queue")
	m.queueCapacity = m.gauge("digest_queue_capacity", "Digest queue capacity")
	m.queueEnqueued = m.counter("digest_queue_enqueued_total", "Digest jobs accepted by the queue")
	m.queueRejected = m.counterVec("digest_queue_rejected_total", "Digest jobs rejected by the queue", "reason")
	m.digestsBuilt = m.counter("digests_built_total", "Digests built by workers")
	m.digestsFailed = m.counter("digests_failed_total", "Digest jobs that failed")
	m.digestsDuplicate = m.counter("digests_duplicate_total", "Digest submissions rejected as duplicates")
	m.digestLatency = m.histogram("digest_latency_milliseconds", "Digest build latency in milliseconds", m.histogramBuckets)
	m.workerCount = m.gauge("digest_workers", "Digest worker goroutines")
	m.digestStoreLength = m.gauge("digest_store_entries", "Digests currently retained")

	auto := promauto.With(m.registry)
	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds", m.histogramBuckets)
}

// Dataset metrics.

// UpdateDatasetShape records the size of the current dataset snapshot.
func UpdateDatasetShape(rows, players, dropped int) {
	globalManager.datasetRows.Set(float64(rows))
	globalManager.datasetPlayers.Set(float64(players))
	globalManager.datasetDropped.Set(float64(dropped))
}

// RecordDatasetLoad records a successful load and its duration.
func RecordDatasetLoad(durationMs float64) {
	globalManager.datasetLoads.Inc()
	globalManager.datasetLoadTime.Observe(durationMs)
}

// RecordDatasetLoadError increments the failed load counter.
func RecordDatasetLoadError() {
	globalManager.datasetLoadErrors.Inc()
}

// Computation metrics.

// RecordProfileComputation increments the profile counter by n.
func RecordProfileComputation(n int) {
	globalManager.profileComputations.Add(float64(n))
}

// RecordRanking records one similarity ranking.
func RecordRanking(latencyMs float64, candidates int) {
	globalManager.rankingLatency.Observe(latencyMs)
	globalManager.rankingCandidates.Observe(float64(candidates))
}

// RecordMediaPick records a random media pick; hit is false when no clip existed.
func RecordMediaPick(hit bool) {
	outcome := "hit"
	if !hit {
		outcome = "empty"
	}
	globalManager.mediaPicks.WithLabelValues(outcome).Inc()
}

// Digest pipeline metrics.

// UpdateQueueSize sets the current digest queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the digest queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the accepted job counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueRejected increments the rejected job counter for reason.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// RecordDigestBuilt records a successful digest and its build latency.
func RecordDigestBuilt(latencyMs float64) {
	globalManager.digestsBuilt.Inc()
	globalManager.digestLatency.Observe(latencyMs)
}

// RecordDigestFailed increments the failed digest counter.
func RecordDigestFailed() {
	globalManager.digestsFailed.Inc()
}

// RecordDigestDuplicate increments the duplicate submission counter.
func RecordDigestDuplicate() {
	globalManager.digestsDuplicate.Inc()
}

// UpdateWorkerCount sets the number of digest workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateDigestStoreLength sets the number of retained digests.
func UpdateDigestStoreLength(count int) {
	globalManager.digestStoreLength.Set(float64(count))
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error for a specific endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets heap bytes allocated.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
