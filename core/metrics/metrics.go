package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Representations of an info request
const (
	RequestNIP11     = "nip11"
	RequestText      = "text"
	RequestWebsocket = "websocket"
	RequestRejected  = "rejected"
)

// Metrics collectors of the relay information gateway
type Metrics struct {
	registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Rebuilds prometheus.Counter
}

// New new metrics on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reraw",
			Name:      "info_requests_total",
			Help:      "Requests served by representation.",
		}, []string{"type"}),
		Rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reraw",
			Name:      "info_document_builds_total",
			Help:      "Relay information documents built.",
		}),
	}

	m.registry.MustRegister(
		m.Requests,
		m.Rebuilds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler exposition handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
