// Package metrics holds the Prometheus collectors for matching runs and the
// HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PairsEvaluated counts scored lost/found pairs.
	// Labels:
	//   - signal: "image", "identification", "text", "composite"
	PairsEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_pairs_evaluated_total",
			Help: "Total number of lost/found pairs scored",
		},
		[]string{"signal"},
	)

	// PairFailures counts pairs abandoned because scoring panicked.
	PairFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lostfound_pair_failures_total",
			Help: "Total number of pairs skipped after a scoring failure",
		},
	)

	// MatchesFound counts pairs kept in a result list, by tier label.
	MatchesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_matches_total",
			Help: "Total number of matches reported",
		},
		[]string{"tier"},
	)

	// ImageComparisons counts image comparisons by method.
	// Labels:
	//   - method: "identical", "pixel", "file_size"
	ImageComparisons = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_image_comparisons_total",
			Help: "Total number of image comparisons",
		},
		[]string{"method"},
	)

	// ComparisonCapHits counts runs that stopped at the comparison ceiling.
	ComparisonCapHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lostfound_comparison_cap_hits_total",
			Help: "Total number of matching runs truncated by the comparison cap",
		},
	)

	// RunDuration measures full matching runs.
	// Labels:
	//   - mode: "standard", "enhanced", "single"
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lostfound_match_run_duration_seconds",
			Help:    "Duration of matching runs in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"},
	)

	// HTTPRequests counts API requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"route", "status"},
	)

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lostfound_http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)
