package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	gradingOutcomesTotal   *prometheus.CounterVec
	gradingDurationSeconds prometheus.Histogram
	artifactRejectedTotal  *prometheus.CounterVec
	chatTurnsTotal         *prometheus.CounterVec
	notificationsTotal     *prometheus.CounterVec
	historyEntries         prometheus.Gauge
	sseClientsActive       prometheus.Gauge
	lessonPlansTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradx_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gradx_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 10, 60},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradx_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradingOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradx_grading_outcomes_total",
			Help: "Grading attempts by outcome.",
		}, []string{"outcome"})

		gradingDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradx_grading_duration_seconds",
			Help:    "Time spent in the PROCESSING state per grading attempt.",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80, 120},
		})

		artifactRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradx_artifact_rejected_total",
			Help: "Uploaded artifacts rejected during validation.",
		}, []string{"reason"})

		chatTurnsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradx_chat_turns_total",
			Help: "Chat refinement turns by outcome.",
		}, []string{"outcome"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradx_notifications_total",
			Help: "Transient notifications shown by kind.",
		}, []string{"kind"})

		historyEntries = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gradx_history_entries",
			Help: "Number of entries in the local history ledger.",
		})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gradx_sse_clients_active",
			Help: "Active notification stream subscribers.",
		})

		lessonPlansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradx_lesson_plans_total",
			Help: "Lesson plan generations by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			gradingOutcomesTotal,
			gradingDurationSeconds,
			artifactRejectedTotal,
			chatTurnsTotal,
			notificationsTotal,
			historyEntries,
			sseClientsActive,
			lessonPlansTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradingOutcomes counts grading attempts by success, failure or stale.
func GradingOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingOutcomesTotal
}

// GradingDuration observes how long grading calls take.
func GradingDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradingDurationSeconds
}

// ArtifactRejected counts rejected uploads by reason.
func ArtifactRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return artifactRejectedTotal
}

// ChatTurns counts chat turns by outcome.
func ChatTurns() *prometheus.CounterVec {
	RegisterMetrics()
	return chatTurnsTotal
}

// Notifications counts shown notifications by kind.
func Notifications() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// HistoryEntries tracks the ledger size.
func HistoryEntries() prometheus.Gauge {
	RegisterMetrics()
	return historyEntries
}

// SSEClientsActive tracks connected notification streams.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

// LessonPlans counts lesson plan generations by outcome.
func LessonPlans() *prometheus.CounterVec {
	RegisterMetrics()
	return lessonPlansTotal
}
