// Package metrics provides Prometheus metrics for the resonance scoring service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the resonance service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Training
	trainingsTotal     prometheus.Counter
	trainingDuration   prometheus.Histogram
	trainingFailures   prometheus.Counter
	degenerateCorpora  prometheus.Counter
	trainingHeldOutR2  prometheus.Gauge
	trainingSampleSize prometheus.Gauge

	// Model cache
	modelCacheHits     prometheus.Counter
	modelCacheMisses   prometheus.Counter
	modelCacheRetrains prometheus.Counter
	modelCacheSize     prometheus.Gauge

	// Prediction
	predictionsTotal    prometheus.Counter
	predictionFallbacks *prometheus.CounterVec
	predictedScore      prometheus.Histogram
	predictionLatency   prometheus.Histogram

	// Tier
	tierClassifications *prometheus.CounterVec

	// Calibration
	calibrationModelR2   *prometheus.GaugeVec
	calibrationEnsemble  prometheus.Gauge
	calibrationGridEvals prometheus.Counter

	// Candidate queue and worker pool
	queueSize          prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec
	workerErrors       prometheus.Counter
	workerLatency      prometheus.Histogram

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec
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
		namespace:        "resonance",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(base string) string {
	if m.metricPrefix == "" {
		return base
	}
	return m.metricPrefix + "_" + base
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.trainingsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("trainings_total"),
		Help:        "Total number of completed regression training passes",
		ConstLabels: labels,
	})

	m.trainingDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("training_duration_milliseconds"),
		Help:        "Histogram of training pass duration in milliseconds",
		Buckets:     []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		ConstLabels: labels,
	})

	m.trainingFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("training_failures_total"),
		Help:        "Total number of training passes that failed to produce a model",
		ConstLabels: labels,
	})

	m.degenerateCorpora = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("degenerate_corpora_total"),
		Help:        "Total number of corpora with zero target variance (constant-mean model used)",
		ConstLabels: labels,
	})

	m.trainingHeldOutR2 = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("training_heldout_r2"),
		Help:        "Held-out R2 of the most recently trained model",
		ConstLabels: labels,
	})

	m.trainingSampleSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("training_samples"),
		Help:        "Number of synthetic samples used by the most recent training pass",
		ConstLabels: labels,
	})

	m.modelCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("model_cache_hits_total"),
		Help:        "Total number of model cache hits",
		ConstLabels: labels,
	})

	m.modelCacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("model_cache_misses_total"),
		Help:        "Total number of model cache misses (training triggered or joined)",
		ConstLabels: labels,
	})

	m.modelCacheRetrains = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("model_cache_retrains_total"),
		Help:        "Total number of explicit retrain requests",
		ConstLabels: labels,
	})

	m.modelCacheSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("model_cache_entries"),
		Help:        "Number of fitted models currently cached",
		ConstLabels: labels,
	})

	m.predictionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("predictions_total"),
		Help:        "Total number of resonance predictions served",
		ConstLabels: labels,
	})

	m.predictionFallbacks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("prediction_fallbacks_total"),
		Help:        "Total number of fallback results by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.predictedScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("predicted_score"),
		Help:        "Distribution of predicted resonance scores",
		Buckets:     prometheus.LinearBuckets(0, 10, 11),
		ConstLabels: labels,
	})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("prediction_latency_milliseconds"),
		Help:        "Histogram of end-to-end resonance latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.tierClassifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("tier_classifications_total"),
		Help:        "Total number of tier classifications by tier label",
		ConstLabels: labels,
	}, []string{"tier"})

	m.calibrationModelR2 = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("calibration_model_r2"),
		Help:        "Held-out R2 per calibrated model family",
		ConstLabels: labels,
	}, []string{"model"})

	m.calibrationEnsemble = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("calibration_ensemble_r2"),
		Help:        "Held-out R2 of the best blend found by the grid search",
		ConstLabels: labels,
	})

	m.calibrationGridEvals = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("calibration_grid_evaluations_total"),
		Help:        "Total number of blend-weight candidates evaluated",
		ConstLabels: labels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_size"),
		Help:        "Number of blend candidates waiting in the queue",
		ConstLabels: labels,
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueued_total"),
		Help:        "Total number of blend candidates enqueued",
		ConstLabels: labels,
	})

	m.queueDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_dequeued_total"),
		Help:        "Total number of blend candidates handed to workers",
		ConstLabels: labels,
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_errors_total"),
		Help:        "Total number of rejected enqueues by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_errors_total"),
		Help:        "Total number of candidate evaluations that failed",
		ConstLabels: labels,
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_processing_latency_milliseconds"),
		Help:        "Histogram of per-candidate evaluation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "Heap bytes allocated",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutines"),
		Help:        "Number of live goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_milliseconds"),
		Help:        "Average GC pause in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_endpoint_total"),
		Help:        "Total number of errors by endpoint",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_type_total"),
		Help:        "Total number of errors by type and severity",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})
}

// Training Metrics Functions.

// RecordTraining records a completed training pass.
func RecordTraining(durationMs float64, samples int, heldOutR2 float64) {
	globalManager.trainingsTotal.Inc()
	globalManager.trainingDuration.Observe(durationMs)
	globalManager.trainingSampleSize.Set(float64(samples))
	globalManager.trainingHeldOutR2.Set(heldOutR2)
}

// RecordTrainingFailure increments the training failures counter.
func RecordTrainingFailure() {
	globalManager.trainingFailures.Inc()
}

// RecordDegenerateCorpus increments the degenerate corpora counter.
func RecordDegenerateCorpus() {
	globalManager.degenerateCorpora.Inc()
}

// Model Cache Metrics Functions.

// RecordModelCacheHit increments the model cache hits counter.
func RecordModelCacheHit() {
	globalManager.modelCacheHits.Inc()
}

// RecordModelCacheMiss increments the model cache misses counter.
func RecordModelCacheMiss() {
	globalManager.modelCacheMisses.Inc()
}

// RecordModelCacheRetrain increments the explicit retrain counter.
func RecordModelCacheRetrain() {
	globalManager.modelCacheRetrains.Inc()
}

// UpdateModelCacheSize sets the number of cached models.
func UpdateModelCacheSize(count int) {
	globalManager.modelCacheSize.Set(float64(count))
}

// Prediction Metrics Functions.

// RecordPrediction records a served prediction and its score.
func RecordPrediction(score float64) {
	globalManager.predictionsTotal.Inc()
	globalManager.predictedScore.Observe(score)
}

// RecordPredictionFallback records a fallback result with its reason.
func RecordPredictionFallback(reason string) {
	globalManager.predictionFallbacks.WithLabelValues(reason).Inc()
}

// RecordPredictionLatency records end-to-end resonance latency in milliseconds.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordTierClassification increments the counter for the given tier label.
func RecordTierClassification(tier string) {
	globalManager.tierClassifications.WithLabelValues(tier).Inc()
}

// Calibration Metrics Functions.

// UpdateCalibrationModelR2 sets the held-out R2 of a calibrated model family.
func UpdateCalibrationModelR2(model string, r2 float64) {
	globalManager.calibrationModelR2.WithLabelValues(model).Set(r2)
}

// UpdateCalibrationEnsembleR2 sets the best blend R2.
func UpdateCalibrationEnsembleR2(r2 float64) {
	globalManager.calibrationEnsemble.Set(r2)
}

// RecordGridEvaluation increments the blend candidates evaluated counter.
func RecordGridEvaluation() {
	globalManager.calibrationGridEvals.Inc()
}

// Queue and Worker Metrics Functions.

// UpdateQueueSize sets the number of queued candidates.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue increments the enqueued counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeued counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError records a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordWorkerError increments the worker errors counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWorkerProcessingLatency records per-candidate latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
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

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
