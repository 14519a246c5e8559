// Package metrics collects Prometheus metrics for outbound Spotify traffic, token refreshes,
// reconciliation, and chart discovery, and exposes them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the set of measurements the service layer reports.
type Recorder interface {
	RecordRequest(method string, status int, duration time.Duration)
	RecordRateLimited()
	RecordRefresh(ok bool)
	RecordReconciled(count int)
	RecordChartLookup(strategy string)
}

// Collector is the Prometheus implementation of [Recorder].
type Collector struct {
	requests     *prometheus.CounterVec
	latency      prometheus.Histogram
	rateLimited  prometheus.Counter
	refreshes    *prometheus.CounterVec
	reconciled   prometheus.Counter
	chartLookups *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prune_spotify_requests_total",
			Help: "Spotify API requests by method and response status.",
		}, []string{"method", "status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prune_spotify_request_seconds",
			Help:    "Latency of Spotify API requests.",
			Buckets: prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prune_spotify_rate_limited_total",
			Help: "Spotify API responses with status 429.",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prune_token_refresh_total",
			Help: "Access token refresh attempts by result.",
		}, []string{"result"}),
		reconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prune_reconciled_tracks_total",
			Help: "Tracks removed from remote playlists by reconciliation.",
		}),
		chartLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prune_chart_lookups_total",
			Help: "Chart lookups by the strategy that produced the result.",
		}, []string{"strategy"}),
	}

	reg.MustRegister(c.requests, c.latency, c.rateLimited, c.refreshes, c.reconciled, c.chartLookups)
	return c
}

// RecordRequest records one completed Spotify API request.
func (c *Collector) RecordRequest(method string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.latency.Observe(duration.Seconds())
}

// RecordRateLimited records a 429 response.
func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// RecordRefresh records a token refresh attempt.
func (c *Collector) RecordRefresh(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	c.refreshes.WithLabelValues(result).Inc()
}

// RecordReconciled records tracks removed by one reconciliation.
func (c *Collector) RecordReconciled(count int) {
	c.reconciled.Add(float64(count))
}

// RecordChartLookup records which discovery strategy answered a chart lookup.
func (c *Collector) RecordChartLookup(strategy string) {
	c.chartLookups.WithLabelValues(strategy).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordRequest(string, int, time.Duration) {}
func (Noop) RecordRateLimited()                       {}
func (Noop) RecordRefresh(bool)                       {}
func (Noop) RecordReconciled(int)                     {}
func (Noop) RecordChartLookup(string)                 {}
