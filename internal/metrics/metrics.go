// Package metrics provides Prometheus metrics for the forecast pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Pipeline metrics
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration prometheus.Histogram

	// Retrieval metrics
	FetchDuration *prometheus.HistogramVec
	CacheLookups  *prometheus.CounterVec
	Observations  prometheus.Histogram

	// Model metrics
	FitDuration prometheus.Histogram

	// Transport metrics
	HTTPRequests *prometheus.CounterVec
	WSSessions   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates a Metrics instance registered on reg. A nil reg uses a
// fresh registry so repeated construction in tests never collides.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "stockseer"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of forecast pipeline runs by outcome",
		}, []string{"status"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of a full pipeline run",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of provider calls",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"source", "outcome"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result (hit or miss)",
		}, []string{"result"}),
		Observations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "observations",
			Help:      "Number of observations per retrieved series",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		FitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "fit_duration_seconds",
			Help:      "Time spent fitting and sampling the model",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		WSSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "ws_sessions",
			Help:      "Open WebSocket sessions",
		}),
		gatherer: reg,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRun records a pipeline run. status is "OK" or an error kind.
func (m *Metrics) ObserveRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(status).Inc()
	m.PipelineDuration.Observe(d.Seconds())
}

// ObserveFetch records one provider call.
func (m *Metrics) ObserveFetch(source string, err error, n int, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else {
		m.Observations.Observe(float64(n))
	}
	m.FetchDuration.WithLabelValues(source, outcome).Observe(d.Seconds())
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// ObserveFit records model fitting time.
func (m *Metrics) ObserveFit(d time.Duration) {
	if m == nil {
		return
	}
	m.FitDuration.Observe(d.Seconds())
}

// ObserveHTTP counts a served request.
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// SessionOpened and SessionClosed track WebSocket sessions.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.WSSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.WSSessions.Dec()
	}
}
