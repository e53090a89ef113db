// Package metrics exposes Prometheus collectors for indicator runs and the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ta_analysis_runs_total", Help: "Analysis runs by result"},
		[]string{"result"},
	)
	IndicatorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ta_indicator_compute_seconds",
			Help:    "Time spent computing one indicator and its signals",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"indicator"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ta_signals_total", Help: "Signals fired by indicator and side"},
		[]string{"indicator", "side"},
	)
	BarsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ta_bars_processed_total", Help: "Price bars fed to the engine"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ta_http_requests_total", Help: "HTTP requests by route and status code"},
		[]string{"route", "code"},
	)
)

func init() {
	prometheus.MustRegister(AnalysisRuns, IndicatorDuration, SignalsTotal, BarsProcessed, HTTPRequests)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
