package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/michalszc/library-api/pkg/observability/metrics"
	"github.com/michalszc/library-api/pkg/server/router"
	ginadapter "github.com/michalszc/library-api/pkg/server/router/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	reg := metrics.NewRegistry()
	r := ginadapter.NewRouter()
	r.Use(Metrics(reg.HTTP()))
	r.GET("/books/:id", func(c router.Context) error { return c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/books/1", "/books/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	count, err := testutil.GatherAndCount(reg.Gatherer(), "http_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 1 {
		t.Fatalf("series = %d, want one series for the route template", count)
	}

	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		metric := mf.GetMetric()[0]
		if got := metric.GetCounter().GetValue(); got != 2 {
			t.Fatalf("requests = %v, want 2", got)
		}
		for _, label := range metric.GetLabel() {
			if label.GetName() == "route" && label.GetValue() != "/books/:id" {
				t.Fatalf("route label = %q", label.GetValue())
			}
		}
	}
}
