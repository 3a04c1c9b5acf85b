package pipeline

import (
	"time"

	"github.com/poiesic/tabulate/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records batch processing in Prometheus collectors.
// A nil *Metrics records nothing.
type Metrics struct {
	documents     *prometheus.CounterVec
	attempts      *prometheus.CounterVec
	retries       *prometheus.CounterVec
	inFlight      prometheus.Gauge
	batches       *prometheus.CounterVec
	batchDuration prometheus.Histogram
}

// NewMetrics registers the pipeline collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		documents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tabulate_documents_total",
			Help: "Documents processed, labelled by modality and outcome.",
		}, []string{"modality", "outcome"}),
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tabulate_extraction_attempts_total",
			Help: "Extraction calls made per modality.",
		}, []string{"modality"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tabulate_retries_total",
			Help: "Retry waits, labelled by retry policy.",
		}, []string{"policy"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "tabulate_documents_in_flight",
			Help: "Documents currently inside a per-document pipeline.",
		}),
		batches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tabulate_batches_total",
			Help: "Finished batches, labelled by terminal status.",
		}, []string{"status"}),
		batchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tabulate_batch_duration_seconds",
			Help:    "Wall time of a batch from fan-out to result.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

// observe is a transition Observer that counts attempts and outcomes.
func (m *Metrics) observe(t Transition) {
	if m == nil {
		return
	}
	switch t.To {
	case StateExtracting:
		m.attempts.WithLabelValues(t.Modality.String()).Inc()
	case StateDone:
		m.documents.WithLabelValues(t.Modality.String(), "succeeded").Inc()
	case StateFailed:
		m.documents.WithLabelValues(t.Modality.String(), "failed").Inc()
	}
}

func (m *Metrics) retry(policy string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(policy).Inc()
}

func (m *Metrics) documentStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) documentFinished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}

func (m *Metrics) batchFinished(status core.BatchStatus, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(string(status)).Inc()
	m.batchDuration.Observe(elapsed.Seconds())
}
