// Package metrics holds the in-process instrumentation the dispatcher
// and worker pool update. It deliberately stops short of exposing a
// /metrics HTTP endpoint; it gives tests and logs a Registry they can
// Gather() from instead.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles the collectors the server core updates per connection.
type Registry struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	ConnDuration     prometheus.Histogram
	ActiveWorkers    prometheus.Gauge
	ParseFailures    prometheus.Counter
	HandshakeFailures prometheus.Counter
}

// New builds a Registry with all collectors registered.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readly_requests_total",
			Help: "Total requests dispatched, labeled by method and status.",
		}, []string{"method", "status"}),
		ConnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "readly_connection_duration_seconds",
			Help:    "Wall-clock time from accept to connection close.",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "readly_active_workers",
			Help: "Number of worker goroutines currently running an accept-dispatch loop.",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readly_parse_failures_total",
			Help: "Requests dropped for malformed framing.",
		}),
		HandshakeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readly_tls_handshake_failures_total",
			Help: "TLS handshakes that failed before a request could be read.",
		}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.ConnDuration,
		r.ActiveWorkers,
		r.ParseFailures,
		r.HandshakeFailures,
	)
	return r
}
