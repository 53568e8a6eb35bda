package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestNewRegistry_ExposesRuntimeCollectors(t *testing.T) {
	body := scrape(t, NewRegistry())
	if !strings.Contains(body, "go_goroutines") {
		t.Fatal("expected go runtime metrics in output")
	}
}

func TestNewRegistry_IndependentInstances(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()

	a.HTTP().Observe("GET", "/api/v1/authors", 200, 10*time.Millisecond)

	if got := testutil.ToFloat64(a.HTTP().total.WithLabelValues("GET", "/api/v1/authors", "200")); got != 1 {
		t.Fatalf("registry a counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.HTTP().total.WithLabelValues("GET", "/api/v1/authors", "200")); got != 0 {
		t.Fatalf("registry b counter = %v, want 0", got)
	}
}

func TestHTTPMetrics_InFlight(t *testing.T) {
	r := NewRegistry()
	r.HTTP().IncInFlight()
	r.HTTP().IncInFlight()
	r.HTTP().DecInFlight()
	if got := testutil.ToFloat64(r.HTTP().inFlight); got != 1 {
		t.Fatalf("in flight = %v, want 1", got)
	}
}

func TestRegistry_MustRegisterCustomCollector(t *testing.T) {
	r := NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "custom_total", Help: "custom"})
	r.MustRegister(counter)
	counter.Inc()

	if !strings.Contains(scrape(t, r), "custom_total 1") {
		t.Fatal("expected custom counter in scrape output")
	}
}
