// Package metrics provides Prometheus metrics for the eventdraw service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Selection latencies are sub-millisecond for typical pools.
var defaultLatencyBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50}

// Manager manages all Prometheus metrics for the eventdraw service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Selection Metrics - what the engine does every round
	roundsTotal        *prometheus.CounterVec
	itemsSelected      prometheus.Counter
	exhaustedRounds    prometheus.Counter
	invalidDraws       *prometheus.CounterVec
	weightAdjustments  prometheus.Counter
	severePenalties    prometheus.Counter
	selectionLatency   prometheus.Histogram
	repeatRate         prometheus.Gauge
	uniqueItems        prometheus.Gauge
	poolSize           prometheus.Histogram
	strategyChanges    *prometheus.CounterVec
	unknownStrategies  prometheus.Counter
	selectorResets     prometheus.Counter
	weightInitializers prometheus.Counter

	// Session Metrics
	activeSessions  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsDeleted prometheus.Counter
	sessionsExpired prometheus.Counter

	// Journal Metrics
	journalWrites       prometheus.Counter
	journalErrors       prometheus.Counter
	journalDropped      prometheus.Counter
	journalQueueSize    prometheus.Gauge
	journalWriteLatency prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "eventdraw",
		subsystem:        "selector",
		histogramBuckets: defaultLatencyBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.roundsTotal = auto.NewCounterVec(
		m.counterOpts("rounds_total", "Total number of completed selection rounds by effective strategy"),
		[]string{"strategy"},
	)
	m.itemsSelected = auto.NewCounter(m.counterOpts("items_selected_total", "Total number of items returned by selection rounds"))
	m.exhaustedRounds = auto.NewCounter(m.counterOpts("exhausted_rounds_total", "Rounds that returned fewer items than requested"))
	m.invalidDraws = auto.NewCounterVec(
		m.counterOpts("invalid_draws_total", "Draw requests rejected as empty input"),
		[]string{"reason"},
	)
	m.weightAdjustments = auto.NewCounter(m.counterOpts("weight_adjustments_total", "Number of history-driven weight update passes"))
	m.severePenalties = auto.NewCounter(m.counterOpts("severe_penalties_total", "Number of consecutive-repeat suppressions applied"))
	m.selectionLatency = auto.NewHistogram(m.histogramOpts(
		"selection_latency_milliseconds", "Latency of a full selection round in milliseconds", m.histogramBuckets))
	m.repeatRate = auto.NewGauge(m.gaugeOpts("repeat_rate_percent", "Average adjacent-round repeat rate of the last completed round's session"))
	m.uniqueItems = auto.NewGauge(m.gaugeOpts("unique_items", "Unique items across the history window of the last completed round's session"))
	m.poolSize = auto.NewHistogram(m.histogramOpts(
		"pool_size", "Candidate pool sizes seen by selection rounds", []float64{5, 10, 20, 50, 100, 200, 500, 1000}))
	m.strategyChanges = auto.NewCounterVec(
		m.counterOpts("strategy_changes_total", "Explicit strategy switches by target strategy"),
		[]string{"strategy"},
	)
	m.unknownStrategies = auto.NewCounter(m.counterOpts("unknown_strategy_total", "Strategy switches ignored because the name was unknown"))
	m.selectorResets = auto.NewCounter(m.counterOpts("resets_total", "Number of selector resets"))
	m.weightInitializers = auto.NewCounter(m.counterOpts("weight_initializations_total", "Number of weight table initializations"))

	m.activeSessions = auto.NewGauge(m.gaugeOpts("active_sessions", "Number of live selection sessions"))
	m.sessionsCreated = auto.NewCounter(m.counterOpts("sessions_created_total", "Total number of sessions created"))
	m.sessionsDeleted = auto.NewCounter(m.counterOpts("sessions_deleted_total", "Total number of sessions deleted"))
	m.sessionsExpired = auto.NewCounter(m.counterOpts("sessions_expired_total", "Total number of idle sessions evicted"))

	m.journalWrites = auto.NewCounter(m.counterOpts("journal_writes_total", "Rounds appended to the journal"))
	m.journalErrors = auto.NewCounter(m.counterOpts("journal_errors_total", "Journal append failures"))
	m.journalDropped = auto.NewCounter(m.counterOpts("journal_dropped_total", "Rounds not journaled because the write queue was full or closed"))
	m.journalQueueSize = auto.NewGauge(m.gaugeOpts("journal_queue_size", "Rounds waiting to be journaled"))
	m.journalWriteLatency = auto.NewHistogram(m.histogramOpts(
		"journal_write_latency_milliseconds", "Latency of one journal append in milliseconds", m.histogramBuckets))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", prometheus.DefBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Selection Metrics Functions.

// RecordRound records a completed round under its effective strategy label.
func RecordRound(strategy string, selected, requested, poolSize int, latencyMs float64) {
	globalManager.roundsTotal.WithLabelValues(strategy).Inc()
	globalManager.itemsSelected.Add(float64(selected))
	globalManager.selectionLatency.Observe(latencyMs)
	globalManager.poolSize.Observe(float64(poolSize))
	if selected < requested {
		globalManager.exhaustedRounds.Inc()
	}
}

// RecordInvalidDraw counts a draw rejected before any state change.
func RecordInvalidDraw(reason string) {
	globalManager.invalidDraws.WithLabelValues(reason).Inc()
}

// RecordWeightAdjustment increments the weight update pass counter.
func RecordWeightAdjustment() {
	globalManager.weightAdjustments.Inc()
}

// RecordSeverePenalty increments the consecutive-repeat suppression counter.
func RecordSeverePenalty() {
	globalManager.severePenalties.Inc()
}

// UpdateRoundStats publishes the repeat rate and unique item count of a session.
func UpdateRoundStats(repeatRate float64, uniqueItems int) {
	globalManager.repeatRate.Set(repeatRate)
	globalManager.uniqueItems.Set(float64(uniqueItems))
}

// RecordStrategyChange counts a strategy switch.
func RecordStrategyChange(strategy string) {
	globalManager.strategyChanges.WithLabelValues(strategy).Inc()
}

// RecordUnknownStrategy counts a strategy switch that was ignored.
func RecordUnknownStrategy() {
	globalManager.unknownStrategies.Inc()
}

// RecordReset counts a selector reset.
func RecordReset() {
	globalManager.selectorResets.Inc()
}

// RecordWeightInitialization counts a weight table initialization.
func RecordWeightInitialization() {
	globalManager.weightInitializers.Inc()
}

// Session Metrics Functions.

// UpdateActiveSessions sets the number of live sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordSessionCreated increments the created sessions counter.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionDeleted increments the deleted sessions counter.
func RecordSessionDeleted() {
	globalManager.sessionsDeleted.Inc()
}

// RecordSessionExpired increments the evicted idle sessions counter.
func RecordSessionExpired() {
	globalManager.sessionsExpired.Inc()
}

// Journal Metrics Functions.

// RecordJournalWrite increments the journal write counter.
func RecordJournalWrite() {
	globalManager.journalWrites.Inc()
}

// RecordJournalError increments the journal error counter.
func RecordJournalError() {
	globalManager.journalErrors.Inc()
}

// RecordJournalDropped counts a round the write queue refused.
func RecordJournalDropped() {
	globalManager.journalDropped.Inc()
}

// UpdateJournalQueueSize sets the number of rounds waiting to be journaled.
func UpdateJournalQueueSize(size int) {
	globalManager.journalQueueSize.Set(float64(size))
}

// RecordJournalWriteLatency observes one journal append.
func RecordJournalWriteLatency(latencyMs float64) {
	globalManager.journalWriteLatency.Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
