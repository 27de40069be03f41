package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the operational Prometheus instruments for build and
// search operations. These are distinct from the persisted research
// metrics in internal/metricsrun/internal/metricsdb: this package is
// ambient operational telemetry, not the recall/candidate-count research
// record.
type Metrics struct {
	BuildsTotal     prometheus.Counter
	BuildDuration   prometheus.Histogram
	SearchQueries   prometheus.Counter
	SearchErrors    prometheus.Counter
	SearchLatency   prometheus.Histogram
	ClustersVisited prometheus.Histogram
}

// NewMetrics creates and registers the metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		BuildsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clann_builds_total",
			Help: "Total number of index builds completed",
		}),
		BuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "clann_build_duration_seconds",
			Help: "Duration of index builds",
		}),
		SearchQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clann_search_queries_total",
			Help: "Total search queries served",
		}),
		SearchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clann_search_errors_total",
			Help: "Total search queries that returned an error",
		}),
		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "clann_search_latency_seconds",
			Help: "Search latency",
		}),
		ClustersVisited: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "clann_search_clusters_visited",
			Help: "Number of clusters visited per search before early exit",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
	}
}
