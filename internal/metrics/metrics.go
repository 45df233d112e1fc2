// Package metrics holds the Prometheus collectors of the builder. Every
// method is safe on a nil *Collector, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several instances can coexist in
// tests.
type Collector struct {
	registry *prometheus.Registry

	Mutations        *prometheus.CounterVec
	Recomputes       *prometheus.CounterVec
	RecomputeSkipped *prometheus.CounterVec
	Sampling         *prometheus.CounterVec
	SamplingDuration prometheus.Histogram
	Sessions         prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
}

// New creates a collector whose metrics are prefixed with namespace.
func New(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	mutations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Builder events handled, by type and outcome",
		},
		[]string{"type", "applied"},
	)
	recomputes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recompute_total",
			Help:      "Pipeline steps that regenerated palettes",
		},
		[]string{"step"},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recompute_skipped_total",
			Help:      "Pipeline steps skipped because their input fingerprint did not change",
		},
		[]string{"step"},
	)
	sampling := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sampling_total",
			Help:      "Schema sampling runs by status",
		},
		[]string{"status"},
	)
	samplingDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sampling_duration_seconds",
			Help:      "Schema sampling duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
	sessions := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Open builder sessions",
		},
	)
	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	registry.MustRegister(mutations, recomputes, skipped, sampling, samplingDuration, sessions, httpRequests)

	return &Collector{
		registry:         registry,
		Mutations:        mutations,
		Recomputes:       recomputes,
		RecomputeSkipped: skipped,
		Sampling:         sampling,
		SamplingDuration: samplingDuration,
		Sessions:         sessions,
		HTTPRequests:     httpRequests,
	}
}

// Registry returns the registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Mutation(eventType string, applied bool) {
	if c == nil {
		return
	}
	a := "false"
	if applied {
		a = "true"
	}
	c.Mutations.WithLabelValues(eventType, a).Inc()
}

func (c *Collector) Recompute(step string, ran bool) {
	if c == nil {
		return
	}
	if ran {
		c.Recomputes.WithLabelValues(step).Inc()
		return
	}
	c.RecomputeSkipped.WithLabelValues(step).Inc()
}

// SamplingDone records one sampling run.
func (c *Collector) SamplingDone(d time.Duration, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.Sampling.WithLabelValues(status).Inc()
	c.SamplingDuration.Observe(d.Seconds())
}

func (c *Collector) SessionOpened() {
	if c != nil {
		c.Sessions.Inc()
	}
}

func (c *Collector) SessionClosed() {
	if c != nil {
		c.Sessions.Dec()
	}
}

func (c *Collector) Request(method, route string, status int) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, http.StatusText(status)).Inc()
}
