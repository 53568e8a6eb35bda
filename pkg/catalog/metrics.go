package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons recorded in library_catalog_rejections_total.
const (
	ReasonValidation        = "validation"
	ReasonDuplicate         = "duplicate"
	ReasonReferenceNotFound = "reference_not_found"
	ReasonNotFound          = "not_found"
)

// Metrics counts catalog writes and rejections. A nil *Metrics records nothing.
type Metrics struct {
	writes     *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

// NewMetrics registers the catalog collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "library_catalog_writes_total",
			Help: "Documents written by the catalog, by entity and operation",
		}, []string{"entity", "operation"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "library_catalog_rejections_total",
			Help: "Catalog requests rejected before any write, by entity and reason",
		}, []string{"entity", "reason"}),
	}
}

func (m *Metrics) wrote(entity, operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.writes.WithLabelValues(entity, operation).Add(float64(n))
}

func (m *Metrics) rejected(entity, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(entity, reason).Inc()
}
