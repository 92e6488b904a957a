// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StepSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_step_submissions_total",
			Help: "Total number of step submissions by step kind",
		},
		[]string{"kind"},
	)

	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_searches_total",
			Help: "Total number of collaborator searches by mode",
		},
		[]string{"mode"},
	)

	SearchFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_search_fallbacks_total",
			Help: "Total number of searches served from fallback sources",
		},
		[]string{"source"},
	)

	StaleResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_stale_results_total",
			Help: "Total number of async results discarded as stale",
		},
	)

	Rewinds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_rewinds_total",
			Help: "Total number of edit/rewind operations",
		},
	)

	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "onboarding_match_duration_seconds",
			Help: "Duration of match scoring runs in seconds",
		},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "onboarding_search_duration_seconds",
			Help: "Duration of collaborator searches in seconds",
		},
		[]string{"mode"},
	)
)
