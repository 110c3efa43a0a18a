package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var syncResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sync_results_total",
	Help: "Per-document sync outcomes labelled by status",
}, []string{"status"})

var syncRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "sync_run_duration_seconds",
	Help:    "Duration of full sync passes.",
	Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
})

var assistantRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "assistant_requests_total",
	Help: "Assistant question/answer turns labelled by outcome",
}, []string{"outcome"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"service"})

func ObserveSyncResult(status string) {
	syncResultsTotal.WithLabelValues(status).Inc()
}

func ObserveSyncRun(elapsed time.Duration) {
	syncRunDuration.Observe(elapsed.Seconds())
}

func ObserveAssistantRequest(outcome string) {
	assistantRequestsTotal.WithLabelValues(outcome).Inc()
}

func CaptureExecutionMetrics(service string, elapsed time.Duration) {
	dependencyLatency.WithLabelValues(service).Observe(elapsed.Seconds())
}
