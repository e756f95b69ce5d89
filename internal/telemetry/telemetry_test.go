package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("test"))

	m.StoreSaves.WithLabelValues("cart").Inc()
	m.StoreSaves.WithLabelValues("cart").Inc()
	m.WalkFiles.Add(3)

	if got := testutil.ToFloat64(m.StoreSaves.WithLabelValues("cart")); got != 2 {
		t.Errorf("saves = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.WalkFiles); got != 3 {
		t.Errorf("walk files = %v, want 3", got)
	}

	n, err := testutil.GatherAndCount(reg, "test_store_saves_total", "test_webfs_walk_files_total")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("gathered %d series, want 2", n)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/stores/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, name := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stores/"+name, nil))
	}

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/stores/{name}", "4xx")); got != 3 {
		t.Errorf("requests = %v, want 3", got)
	}
}

func TestSpanHelpers(t *testing.T) {
	// The global provider is a no-op here; the helpers must not panic.
	ctx, span := StartSpan(context.Background(), "test")
	if ctx == nil {
		t.Fatal("nil context")
	}
	EndSpan(span, errors.New("boom"))

	_, span = StartSpan(ctx, "child")
	EndSpan(span, nil)
}
