// Package metrics exposes Prometheus instrumentation for fetches, the fetch
// cache and the computation core. A nil *Metrics is a valid no-op recorder.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	registry *prometheus.Registry

	FetchTotal      *prometheus.CounterVec // labels: source, outcome
	FetchDur        *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec // labels: result=hit|miss|error
	BacktestsTotal  *prometheus.CounterVec // labels: outcome
	ComputeDur      *prometheus.HistogramVec
	PaperFillsTotal *prometheus.CounterVec // labels: side
}

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academy_fetch_total",
			Help: "Market data fetches by source and outcome",
		}, []string{"source", "outcome"}),
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "academy_fetch_duration_seconds",
			Help:    "Market data fetch latency by source",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academy_cache_lookups_total",
			Help: "Fetch cache lookups by result",
		}, []string{"result"}),
		BacktestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academy_backtests_total",
			Help: "Crossover backtests by outcome",
		}, []string{"outcome"}),
		ComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "academy_compute_duration_seconds",
			Help:    "Indicator and backtest computation time",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"kind"}),
		PaperFillsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academy_paper_fills_total",
			Help: "Simulated paper trades by side",
		}, []string{"side"}),
	}

	m.registry.MustRegister(
		m.FetchTotal,
		m.FetchDur,
		m.CacheLookups,
		m.BacktestsTotal,
		m.ComputeDur,
		m.PaperFillsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one fetch attempt against a source.
func (m *Metrics) ObserveFetch(source, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(source, outcome).Inc()
	m.FetchDur.WithLabelValues(source).Observe(took.Seconds())
}

// ObserveCache records a cache lookup result: "hit", "miss" or "error".
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveBacktest records a backtest outcome.
func (m *Metrics) ObserveBacktest(outcome string) {
	if m == nil {
		return
	}
	m.BacktestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCompute records computation time for kind ("indicators" or "backtest").
func (m *Metrics) ObserveCompute(kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.ComputeDur.WithLabelValues(kind).Observe(took.Seconds())
}

// ObserveFill records a paper fill.
func (m *Metrics) ObserveFill(side string) {
	if m == nil {
		return
	}
	m.PaperFillsTotal.WithLabelValues(side).Inc()
}
