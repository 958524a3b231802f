// Package metrics holds the Prometheus collectors for kgbridge.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kgbridge"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	triplesImported  prometheus.Counter
	triplesExported  prometheus.Counter
	importFailures   prometheus.Counter
	inferences       *prometheus.CounterVec
	inferredTriples  *prometheus.CounterVec
	inferenceSeconds *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
	rateLimited      prometheus.Counter
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		triplesImported: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triples_imported_total",
			Help:      "Triples written to the graph store by the importer.",
		}),
		triplesExported: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triples_exported_total",
			Help:      "Triples produced by exporting the graph store.",
		}),
		importFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_failures_total",
			Help:      "Imports that failed against the graph store.",
		}),
		inferences: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inferences_total",
			Help:      "Reasoning runs by reasoner and outcome.",
		}, []string{"reasoner", "outcome"}),
		inferredTriples: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inferred_triples_total",
			Help:      "New triples derived by reasoning.",
		}, []string{"reasoner"}),
		inferenceSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Wall time of reasoning runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"reasoner"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the reasoning rate limiter.",
		}),
	}
}

func (m *Metrics) TriplesImported(n int) {
	if m == nil {
		return
	}
	m.triplesImported.Add(float64(n))
}

func (m *Metrics) TriplesExported(n int) {
	if m == nil {
		return
	}
	m.triplesExported.Add(float64(n))
}

func (m *Metrics) ImportFailed() {
	if m == nil {
		return
	}
	m.importFailures.Inc()
}

// Inference records one reasoning run.
func (m *Metrics) Inference(reasoner string, newTriples int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.inferences.WithLabelValues(reasoner, outcome).Inc()
	m.inferenceSeconds.WithLabelValues(reasoner).Observe(elapsed.Seconds())
	if err == nil && newTriples > 0 {
		m.inferredTriples.WithLabelValues(reasoner).Add(float64(newTriples))
	}
}

func (m *Metrics) HTTPRequest(route string, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
