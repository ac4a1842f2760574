package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and matching Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of search requests by outcome",
		},
		[]string{"outcome"}, // "ok" / "empty_query" / "error"
	)

	// SearchCandidatesTotal counts what the ranker did with each stored item.
	SearchCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_candidates_total",
			Help:      "Items considered by the ranker, by result",
		},
		[]string{"result"}, // "scored" / "empty" / "malformed" / "dimension_mismatch"
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	ItemsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_created_total",
			Help:      "Total number of reported items",
		},
		[]string{"type"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and item metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchCandidatesTotal)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(ItemsCreatedTotal)
	searchMetricsRegistered = true
}
