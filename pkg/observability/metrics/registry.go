// Package metrics exposes the Prometheus registry shared by the HTTP layer and the catalog.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns a private Prometheus registry with HTTP and runtime collectors
// pre-registered. Domain packages add their own collectors through Registerer.
type Registry struct {
	registry *prometheus.Registry
	http     *HTTPMetrics
}

// NewRegistry creates a registry with HTTP request metrics and the Go and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Registry{
		registry: reg,
		http:     newHTTPMetrics(reg),
	}
}

// HTTP returns the request metrics recorded by the metrics middleware.
func (r *Registry) HTTP() *HTTPMetrics {
	return r.http
}

// Registerer returns the registerer used for custom collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// MustRegister registers collectors and panics on conflicts.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// Handler serves the registry in the Prometheus exposition format. Mounted at /metrics
// on the management server.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Gatherer returns the underlying gatherer, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
