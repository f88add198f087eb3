// Package metrics exposes extraction counters through Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "golegis"

// Document outcomes used as the status label.
const (
	DocumentExtracted = "extracted"
	DocumentEmpty     = "empty"
	DocumentFailed    = "failed"
)

// Metrics is a set of collectors bound to its own registry, so that
// several extractors in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	documents      *prometheus.CounterVec
	candidates     *prometheus.CounterVec
	built          prometheus.Counter
	rejected       prometheus.Counter
	disambiguated  prometheus.Counter
	duplicates     prometheus.Counter
	runDuration    prometheus.Histogram
	documentLength prometheus.Histogram
}

// New registers the collectors on a fresh registry. withRuntime adds the
// Go and process collectors, which only make sense for long-running
// processes.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Source documents processed, by outcome.",
		}, []string{"status"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Boundary candidates found, by winning strategy.",
		}, []string{"strategy"}),
		built: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_built_total",
			Help:      "Candidates that became articles.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_rejected_total",
			Help:      "Candidates rejected for insufficient content.",
		}),
		disambiguated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ids_disambiguated_total",
			Help:      "Article ids that needed a collision suffix.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Articles dropped as duplicates.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one extraction run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		documentLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_text_bytes",
			Help:      "Size of the raw text of each document.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}
	reg.MustRegister(m.documents, m.candidates, m.built, m.rejected,
		m.disambiguated, m.duplicates, m.runDuration, m.documentLength)
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteFile writes the current values to path for the node exporter
// textfile collector.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// All methods are safe on a nil *Metrics so callers need not guard them.

func (m *Metrics) Document(status string, textBytes int) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(status).Inc()
	if textBytes > 0 {
		m.documentLength.Observe(float64(textBytes))
	}
}

func (m *Metrics) Candidates(strategy string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.candidates.WithLabelValues(strategy).Add(float64(n))
}

func (m *Metrics) Built(n int) {
	if m != nil {
		m.built.Add(float64(n))
	}
}

func (m *Metrics) Rejected(n int) {
	if m != nil {
		m.rejected.Add(float64(n))
	}
}

func (m *Metrics) Disambiguated(n int) {
	if m != nil {
		m.disambiguated.Add(float64(n))
	}
}

func (m *Metrics) Duplicates(n int) {
	if m != nil {
		m.duplicates.Add(float64(n))
	}
}

func (m *Metrics) RunDuration(d time.Duration) {
	if m != nil {
		m.runDuration.Observe(d.Seconds())
	}
}
