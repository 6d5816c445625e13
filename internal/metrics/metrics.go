// Package metrics defines Prometheus metrics for neighborrank.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neighborrank_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neighborrank_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neighborrank_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	RankRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neighborrank_rank_runs_total",
			Help: "Finished rank runs by terminal state",
		},
		[]string{"state"},
	)

	RankHops = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neighborrank_rank_hops",
			Help:    "Hops produced per rank run",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
	)

	RankVisited = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neighborrank_rank_visited_vertices",
			Help:    "Distinct vertices visited per rank run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		},
	)

	RankDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neighborrank_rank_duration_seconds",
			Help:    "Rank run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		},
	)

	EdgesUpserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "neighborrank_edges_upserted_total",
			Help: "Edges written by bulk upserts",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		RankRuns, RankHops, RankVisited, RankDuration,
		EdgesUpserted,
	)
}
