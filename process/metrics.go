package process

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts ingestion outcomes on its own registry so several
// ingestors (tests, CLI runs) never collide on the default one.
type Metrics struct {
	Registry     *prometheus.Registry
	Images       *prometheus.CounterVec
	Observations prometheus.Counter
	EmptyBatches prometheus.Counter
	Errors       *prometheus.CounterVec
	Duration     prometheus.Histogram
}

// NewMetrics builds and registers the ingestion collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ligapro",
			Name:      "images_processed_total",
			Help:      "Screenshots run through the ingestion pipeline, by outcome.",
		}, []string{"status"}),
		Observations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ligapro",
			Name:      "observations_extracted_total",
			Help:      "Player rows extracted and merged into the ledger.",
		}),
		EmptyBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ligapro",
			Name:      "empty_batches_total",
			Help:      "Screenshots that produced no recognisable rows.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ligapro",
			Name:      "ingest_errors_total",
			Help:      "Ingestion failures by stage.",
		}, []string{"stage"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ligapro",
			Name:      "ingest_duration_seconds",
			Help:      "Wall time of one ingestion, OCR included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
	}
	m.Registry.MustRegister(m.Images, m.Observations, m.EmptyBatches, m.Errors, m.Duration)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
