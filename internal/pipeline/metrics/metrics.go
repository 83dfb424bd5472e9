package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the document pipeline. All methods are
// nil-safe so wiring metrics stays optional in tests.
type Metrics struct {
	// Recognition calls by outcome.
	Recognitions *prometheus.CounterVec

	// Analysis calls by task kind and outcome.
	Analyses *prometheus.CounterVec

	// Per-stage latencies.
	StageLatency *prometheus.HistogramVec

	// Recognition cache hits/misses.
	CacheLookups *prometheus.CounterVec

	// Batch request sizes.
	BatchSize prometheus.Histogram
}

// New creates a Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		Recognitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "civis_recognitions_total",
			Help: "Total text recognition calls by outcome",
		}, []string{"outcome"}), // outcome: "success", "failure"

		Analyses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "civis_analyses_total",
			Help: "Total generative analysis calls by task kind and outcome",
		}, []string{"task", "outcome"}),

		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civis_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}), // stage: "recognition", "analysis", "persist"

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "civis_recognition_cache_lookups_total",
			Help: "Recognition cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"

		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "civis_batch_size",
			Help:    "Number of files per batch request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

// IncrementRecognition records one recognition call outcome.
func (m *Metrics) IncrementRecognition(success bool) {
	if m != nil {
		m.Recognitions.WithLabelValues(outcome(success)).Inc()
	}
}

// IncrementAnalysis records one analysis call outcome.
func (m *Metrics) IncrementAnalysis(task string, success bool) {
	if m != nil {
		m.Analyses.WithLabelValues(task, outcome(success)).Inc()
	}
}

// ObserveStage records the duration of a pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementCacheLookup records a recognition cache hit or miss.
func (m *Metrics) IncrementCacheLookup(hit bool) {
	if m != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// ObserveBatchSize records the size of one batch request.
func (m *Metrics) ObserveBatchSize(n int) {
	if m != nil {
		m.BatchSize.Observe(float64(n))
	}
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
