// Package metrics holds the server's Prometheus registry and the handler
// that exposes it.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "dinox"

// Metrics holds all application metrics
type Metrics struct {
	// Request counters
	Requests      atomic.Uint64
	RequestErrors atomic.Uint64
	ParseErrors   atomic.Uint64

	// Tool calls by tool and outcome ("ok" or "error")
	ToolCalls *prometheus.CounterVec
	// Tool latency by tool
	ToolSeconds *prometheus.HistogramVec
	// Overlay stages by stage and status
	Stages *prometheus.CounterVec

	// Images currently held in the image cache
	CachedImages atomic.Int64

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tool_calls_total",
			Help:      "Tool calls, by tool and outcome",
		}, []string{"tool", "outcome"}),
		ToolSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "tool_duration_seconds",
			Help:      "Time spent serving a tool call",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"tool"}),
		Stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "overlay_stages_total",
			Help:      "Overlay draw stages, by stage and status",
		}, []string{"stage", "status"}),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(m.ToolCalls, m.ToolSeconds, m.Stages)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Total JSON-RPC requests received",
		},
		func() float64 { return float64(m.Requests.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "request_errors_total",
			Help:      "Total JSON-RPC requests answered with an error",
		},
		func() float64 { return float64(m.RequestErrors.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "parse_errors_total",
			Help:      "Total input lines that were not valid JSON-RPC",
		},
		func() float64 { return float64(m.ParseErrors.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "cached_images",
			Help:      "Images held in the image cache",
		},
		func() float64 { return float64(m.CachedImages.Load()) },
	))
}

// Register adds an extra collector, such as the analytics collector.
func (m *Metrics) Register(c prometheus.Collector) error {
	return m.registry.Register(c)
}

// ObserveTool records one tool call.
func (m *Metrics) ObserveTool(tool string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	m.ToolSeconds.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveStage records one overlay stage result.
func (m *Metrics) ObserveStage(stage, status string) {
	m.Stages.WithLabelValues(stage, status).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
