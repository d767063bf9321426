// Package metrics exposes the Prometheus collectors for the rate service
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	CacheHit    = "hit"
	CacheReload = "reload"
	CacheMiss   = "miss"
)

var (
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdtrates_cycles_total",
			Help: "Total number of scrape cycles, labeled by status.",
		},
		[]string{"status"},
	)

	cycleDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cdtrates_cycle_duration_seconds",
			Help:    "Histogram of full scrape cycle durations.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	sourceResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdtrates_source_results_total",
			Help: "Total number of source adapter runs, labeled by source and status.",
		},
		[]string{"source", "status"},
	)

	fetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdtrates_fetch_attempts_total",
			Help: "Total number of document fetch attempts, labeled by host and outcome.",
		},
		[]string{"host", "outcome"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdtrates_cache_lookups_total",
			Help: "Total number of aggregate cache lookups, labeled by result.",
		},
		[]string{"result"},
	)

	aggregateRates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cdtrates_aggregate_rates",
			Help: "Number of rate records in the latest aggregate.",
		},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCycle records a finished scrape cycle
func ObserveCycle(status string, took time.Duration, totalRates int) {
	cyclesTotal.WithLabelValues(status).Inc()
	cycleDurationSeconds.Observe(took.Seconds())

	if status == StatusSuccess {
		aggregateRates.Set(float64(totalRates))
	}
}

// ObserveSource records a single source adapter run
func ObserveSource(source string, success bool) {
	status := StatusFailure
	if success {
		status = StatusSuccess
	}

	sourceResultsTotal.WithLabelValues(source, status).Inc()
}

// ObserveFetch records a single fetch attempt
func ObserveFetch(rawURL, outcome string) {
	fetchAttemptsTotal.WithLabelValues(SanitizeHost(rawURL), outcome).Inc()
}

// ObserveCacheLookup records an aggregate cache lookup
func ObserveCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// SanitizeHost extracts a lowercase hostname from the URL.
// It returns "unknown" if the URL is invalid
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}

	return strings.ToLower(u.Hostname())
}
