// Package metrics exports generation metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"document_editing_agent/generator"
)

const namespace = "editagent"

// Collector records generation outcomes on a private registry. It
// implements generator.Recorder.
type Collector struct {
	registry *prometheus.Registry

	generations *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	fallbacks   *prometheus.CounterVec
}

var _ generator.Recorder = (*Collector)(nil)

// New creates a Collector. Nil buckets use the defaults.
func New(buckets []float64) *Collector {
	if len(buckets) == 0 {
		buckets = []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120}
	}
	c := &Collector{registry: prometheus.NewRegistry()}

	c.generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "generations_total",
			Help:      "Edit plan generations by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)
	c.latency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "generation_duration_seconds",
			Help:      "Edit plan generation latency in seconds",
			Buckets:   buckets,
		},
		[]string{"mode"},
	)
	c.fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "structured_output_fallbacks_total",
			Help:      "Retries without JSON mode after the provider refused it",
		},
		[]string{"mode"},
	)

	c.registry.MustRegister(
		c.generations,
		c.latency,
		c.fallbacks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) ObserveGeneration(mode generator.Mode, outcome string, elapsed time.Duration) {
	c.generations.WithLabelValues(string(mode), outcome).Inc()
	c.latency.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveFallback(mode generator.Mode) {
	c.fallbacks.WithLabelValues(string(mode)).Inc()
}

// Handler serves the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }
