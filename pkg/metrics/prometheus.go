// Package metrics provides Prometheus metrics for the rally matchmaking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Optimizer kinds used as label values.
const (
	KindPair  = "pair"
	KindMulti = "multi"
)

// Manager manages all Prometheus metrics for the rally service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Rating metrics
	gamesRecorded   prometheus.Counter
	gamesDuplicate  prometheus.Counter
	ratingUpdates   prometheus.Histogram
	playersDecayed  prometheus.Counter
	playersTotal    prometheus.Gauge
	feedbackApplied prometheus.Counter

	// Optimizer metrics
	optimizerRuns      *prometheus.CounterVec
	optimizerDuration  *prometheus.HistogramVec
	optimizerTrials    *prometheus.CounterVec
	optimizerFallbacks *prometheus.CounterVec
	matchQuality       prometheus.Histogram

	// Queue metrics
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
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
		namespace:        "rally",
		subsystem:        "matchmaker",
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.gamesRecorded = m.counter("games_recorded_total", "Total number of game results applied to ratings")
	m.gamesDuplicate = m.counter("games_duplicate_total", "Total number of game results rejected as duplicates")
	m.playersDecayed = m.counter("players_decayed_total", "Total number of inactivity decays applied to players")
	m.playersTotal = m.gauge("players_total", "Number of players on the roster")
	m.feedbackApplied = m.counter("feedback_applied_total", "Total number of manual team feedback events")
	m.ratingUpdates = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_update_magnitude",
		Help:      "Absolute per-team rating change of each recorded game",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 25, 40, 60, 100},
	})

	m.optimizerRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "optimizer_runs_total",
		Help:      "Total number of team optimizer runs by kind",
	}, []string{"kind"})

	m.optimizerDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "optimizer_duration_milliseconds",
		Help:      "Team optimizer run duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"kind"})

	m.optimizerTrials = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "optimizer_trials_total",
		Help:      "Total number of optimizer trials by kind and result",
	}, []string{"kind", "result"})

	m.optimizerFallbacks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "optimizer_fallbacks_total",
		Help:      "Total number of optimizer runs that fell back to a contiguous split",
	}, []string{"kind"})

	m.matchQuality = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_quality",
		Help:      "Quality of generated matchups (0-100)",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})

	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the game queue")
	m.queueSize = m.gauge("queue_size", "Current number of games waiting in the queue")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of games enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of games dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of games rejected by a full or closed queue")

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Time to apply one queued game in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.workerErrors = m.counter("worker_errors_total", "Total number of games the worker failed to apply")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})
}

// RecordGameRecorded increments the recorded games counter.
func RecordGameRecorded() {
	globalManager.gamesRecorded.Inc()
}

// RecordGameDuplicate increments the duplicate games counter.
func RecordGameDuplicate() {
	globalManager.gamesDuplicate.Inc()
}

// RecordRatingUpdate observes the absolute per-team rating change of a game.
func RecordRatingUpdate(magnitude float64) {
	if magnitude < 0 {
		magnitude = -magnitude
	}
	globalManager.ratingUpdates.Observe(magnitude)
}

// RecordDecay adds the number of players decayed after a game.
func RecordDecay(n int) {
	globalManager.playersDecayed.Add(float64(n))
}

// RecordFeedback increments the manual feedback counter.
func RecordFeedback() {
	globalManager.feedbackApplied.Inc()
}

// UpdatePlayersTotal sets the roster size.
func UpdatePlayersTotal(count int) {
	globalManager.playersTotal.Set(float64(count))
}

// RecordOptimizerRun records one optimizer run.
func RecordOptimizerRun(kind string, durationMs float64, accepted, skipped int, fallback bool) {
	globalManager.optimizerRuns.WithLabelValues(kind).Inc()
	globalManager.optimizerDuration.WithLabelValues(kind).Observe(durationMs)
	globalManager.optimizerTrials.WithLabelValues(kind, "accepted").Add(float64(accepted))
	globalManager.optimizerTrials.WithLabelValues(kind, "skipped").Add(float64(skipped))
	if fallback {
		globalManager.optimizerFallbacks.WithLabelValues(kind).Inc()
	}
}

// RecordMatchQuality observes the quality of a generated matchup.
func RecordMatchQuality(q float64) {
	globalManager.matchQuality.Observe(q)
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
