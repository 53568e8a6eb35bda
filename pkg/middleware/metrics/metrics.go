// Package metrics records Prometheus HTTP metrics for every request.
package metrics

import (
	"time"

	"github.com/michalszc/library-api/pkg/observability/metrics"
	"github.com/michalszc/library-api/pkg/server/router"
)

// unmatchedRoute labels requests that matched no route, keeping label cardinality
// bounded.
const unmatchedRoute = "unmatched"

// Metrics creates middleware that records request duration, request count and
// in-flight requests on m. Requests are labelled by route template, not raw path.
func Metrics(m *metrics.HTTPMetrics) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			m.IncInFlight()
			defer m.DecInFlight()

			start := time.Now()
			err := next(c)

			route := c.Route()
			if route == "" {
				route = unmatchedRoute
			}
			m.Observe(c.Request().Method, route, c.Response().Status(), time.Since(start))
			return err
		}
	}
}
