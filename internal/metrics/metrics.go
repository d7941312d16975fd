// Package metrics exposes Prometheus instrumentation for the capture
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the pipeline's counters behind a private registry so
// tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	CapturesTotal      *prometheus.CounterVec
	ConversionsTotal   *prometheus.CounterVec
	ConversionDuration prometheus.Histogram
}

// New creates a metrics bundle with its own registry, including the
// standard Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		CapturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sectionsmith_captures_total",
			Help: "Captures analyzed, by detected block type.",
		}, []string{"block_type"}),
		ConversionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sectionsmith_conversions_total",
			Help: "Conversion attempts, by strategy and outcome.",
		}, []string{"method", "outcome"}),
		ConversionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "sectionsmith_conversion_duration_seconds",
			Help: "Wall-clock duration of conversion attempts.",
			// LLM calls run seconds to minutes.
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}),
	}

	registry.MustRegister(m.CapturesTotal, m.ConversionsTotal, m.ConversionDuration)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
