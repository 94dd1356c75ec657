package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gradx",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI provider requests",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
	}, []string{"provider", "operation"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradx",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of failed AI provider requests",
	}, []string{"provider", "operation"})
)

const (
	operationGrade = "grade"
	operationChat  = "chat"
	operationPlan  = "plan"
)

func observe(provider, operation string, start time.Time) {
	aiDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}

func recordFailure(span trace.Span, provider, operation string, err error) {
	aiFailures.WithLabelValues(provider, operation).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
