package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectMetric extracts a label-matched metric from a Collector.
func collectMetric(t *testing.T, c prometheus.Collector, labels map[string]string) *dto.Metric {
	if t != nil {
		t.Helper()
	}
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}

		match := true
		for k, v := range labels {
			found := false
			for _, lp := range d.GetLabel() {
				if lp.GetName() == k && lp.GetValue() == v {
					found = true
					break
				}
			}
			if !found {
				match = false
				break
			}
		}
		if match {
			return d
		}
	}
	return nil
}

// serveMetrics wraps a handler in a chi router so RouteContext is available.
func serveMetrics(serviceName string, handler http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(serviceName))
	r.Get("/probe", handler)
	return r
}

func TestPrometheusMetrics_CountsRequestsByRoutePattern(t *testing.T) {
	router := serveMetrics("count-svc", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/probe", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	labels := map[string]string{"service": "count-svc", "method": "GET", "path": "/probe", "status": "200"}
	m := collectMetric(t, httpRequestsTotal, labels)
	require.NotNil(t, m)
	assert.GreaterOrEqual(t, m.GetCounter().GetValue(), float64(3))
}

func TestPrometheusMetrics_ObservesDuration(t *testing.T) {
	router := serveMetrics("hist-svc", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)

	labels := map[string]string{"service": "hist-svc", "method": "GET", "path": "/probe", "status": "201"}
	m := collectMetric(t, httpRequestDuration, labels)
	require.NotNil(t, m)
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}

func TestPrometheusMetrics_InFlightGauge(t *testing.T) {
	inFlightSeen := float64(-1)
	router := serveMetrics("inflight-svc", func(w http.ResponseWriter, r *http.Request) {
		if m := collectMetric(nil, httpRequestsInFlight, map[string]string{"service": "inflight-svc"}); m != nil {
			inFlightSeen = m.GetGauge().GetValue()
		}
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.GreaterOrEqual(t, inFlightSeen, float64(1))
}

func TestPrometheusMetrics_DefaultStatusIs200(t *testing.T) {
	// Handlers that never call WriteHeader still record a 200.
	router := serveMetrics("default-status-svc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/probe", nil))

	labels := map[string]string{"service": "default-status-svc", "status": "200"}
	m := collectMetric(t, httpRequestsTotal, labels)
	require.NotNil(t, m)
}
