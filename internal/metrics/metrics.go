// Package metrics holds the Prometheus collectors exported by the qs service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qs"

// Metrics contains the collectors for the parse and stringify operations
type Metrics struct {
	Requests        *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
	Errors          *prometheus.CounterVec
	InputBytes      prometheus.Histogram
	ParametersTotal prometheus.Counter

	registry *prometheus.Registry
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a private registry.
func New() *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "requests",
				Name:      "total",
				Help:      "Total number of parse and stringify requests",
			},
			[]string{"operation", "status"},
		),

		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "processing",
				Name:      "duration_seconds",
				Help:      "Time spent parsing or stringifying, in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of rejected requests",
			},
			[]string{"operation", "type"},
		),

		InputBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "parse",
				Name:      "input_bytes",
				Help:      "Size of parsed query strings in bytes",
				Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
			},
		),

		ParametersTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parse",
				Name:      "parameters_total",
				Help:      "Total number of top-level keys produced by parsing",
			},
		),

		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.Requests,
		m.Duration,
		m.Errors,
		m.InputBytes,
		m.ParametersTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Observe records one finished operation. errType is empty on success.
func (m *Metrics) Observe(operation string, start time.Time, errType string) {
	status := "ok"
	if errType != "" {
		status = "error"
		m.Errors.WithLabelValues(operation, errType).Inc()
	}
	m.Requests.WithLabelValues(operation, status).Inc()
	m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
