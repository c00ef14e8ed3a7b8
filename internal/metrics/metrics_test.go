package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics("", prometheus.NewRegistry())

	m.ObserveRun("OK", 120*time.Millisecond)
	m.ObserveRun("InsufficientData", time.Millisecond)
	m.ObserveFetch("yahoo", nil, 250, 50*time.Millisecond)
	m.ObserveFetch("yahoo", errors.New("boom"), 0, time.Second)
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	m.ObserveFit(30 * time.Millisecond)
	m.ObserveHTTP("GET /api/forecast", 200)
	m.ObserveHTTP("GET /api/forecast", 502)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	out := scrape(t, m)
	assert.Contains(t, out, `stockseer_pipeline_runs_total{status="OK"} 1`)
	assert.Contains(t, out, `stockseer_pipeline_runs_total{status="InsufficientData"} 1`)
	assert.Contains(t, out, `stockseer_retrieval_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, out, `stockseer_retrieval_cache_lookups_total{result="miss"} 2`)
	assert.Contains(t, out, `stockseer_retrieval_fetch_duration_seconds_count{outcome="error",source="yahoo"} 1`)
	assert.Contains(t, out, `stockseer_retrieval_observations_count 1`)
	assert.Contains(t, out, `stockseer_forecast_fit_duration_seconds_count 1`)
	assert.Contains(t, out, `stockseer_http_requests_total{code="200",route="GET /api/forecast"} 1`)
	assert.Contains(t, out, `stockseer_http_requests_total{code="502",route="GET /api/forecast"} 1`)
	assert.Contains(t, out, `stockseer_http_ws_sessions 1`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("OK", time.Second)
		m.ObserveFetch("mock", nil, 1, time.Second)
		m.ObserveCache(true)
		m.ObserveFit(time.Second)
		m.ObserveHTTP("/", 200)
		m.SessionOpened()
		m.SessionClosed()
	})
	assert.NotNil(t, m.Handler())
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics("stockseer", nil)
		NewMetrics("stockseer", nil)
	})
}
