// Package metricsrun accumulates in-process research metrics for a build
// and a batch of queries: per-cluster build footprint, candidate counts,
// per-cluster search timings, distance computation counts, and recall
// against a ground truth, mirroring the build/search/query/cluster
// records of the original research harness.
package metricsrun

import (
	"math"
	"time"
)

// Granularity controls how much detail SaveMetrics persists.
type Granularity int

const (
	// RunOnly persists only the aggregate run record.
	RunOnly Granularity = iota
	// PerQuery additionally persists one record per query.
	PerQuery
	// PerCluster additionally persists one record per cluster visited
	// per query.
	PerCluster
)

// BuildClusterMetric records one cluster's footprint at Build time, for
// the per-cluster build record (spec.md §6's build_metrics_cluster).
type BuildClusterMetric struct {
	ClusterIdx      int
	Size            int
	MemoryUsedBytes int64
}

// ClusterVisit records one cluster's contribution to a single query.
type ClusterVisit struct {
	ClusterIdx           int
	NumCandidates        int
	Duration             time.Duration
	DistanceComputations uint32
}

// QueryMetrics accumulates counters for a single search call.
type QueryMetrics struct {
	DistanceComputations uint32
	Duration             time.Duration
	NumCandidates        int
	Clusters             []ClusterVisit
}

// RunMetrics is the aggregate record for one build-and-search run.
type RunMetrics struct {
	DatasetLen       int
	IndexingDuration time.Duration
	BuildClusters    []BuildClusterMetric
	TotalSearchTime  time.Duration
	QueriesPerSecond float64
	RecallMean       float64
	RecallStd        float64
	Queries          []QueryMetrics
}

// Recorder accumulates metrics across a Build call and a batch of Search
// calls. It is not safe for concurrent Search calls: callers that want to
// instrument concurrent search must use one Recorder per goroutine and
// merge the results afterward.
type Recorder struct {
	indexingDuration time.Duration
	buildClusters    []BuildClusterMetric
	queries          []QueryMetrics
	current          *QueryMetrics
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// LogIndexingTime records how long Build took.
func (r *Recorder) LogIndexingTime(d time.Duration) {
	r.indexingDuration = d
}

// LogBuildCluster records one cluster's size and memory footprint as
// produced by Build.
func (r *Recorder) LogBuildCluster(c BuildClusterMetric) {
	r.buildClusters = append(r.buildClusters, c)
}

// NewQuery begins accumulating a new query's metrics; it becomes the
// target of subsequent LogClusterVisit/LogQueryTime calls until the next
// NewQuery.
func (r *Recorder) NewQuery() {
	r.queries = append(r.queries, QueryMetrics{})
	r.current = &r.queries[len(r.queries)-1]
}

// LogClusterVisit records one cluster's contribution to the current
// query.
func (r *Recorder) LogClusterVisit(v ClusterVisit) {
	if r.current == nil {
		r.NewQuery()
	}
	r.current.Clusters = append(r.current.Clusters, v)
	r.current.NumCandidates += v.NumCandidates
	r.current.DistanceComputations += v.DistanceComputations
}

// LogQueryTime records the total wall time of the current query.
func (r *Recorder) LogQueryTime(d time.Duration) {
	if r.current == nil {
		r.NewQuery()
	}
	r.current.Duration = d
}

// Build assembles a RunMetrics snapshot. groundTruth and approx give,
// per query, the ordered nearest-neighbor distances from an exact search
// and from this run respectively; recall is computed per spec as the
// fraction of approx's top-k distances that fall within the ground
// truth's k-th distance plus 1e-3 (a standard recall@k formulation for approximate
// search). If groundTruth is nil, RecallMean/RecallStd are left at zero.
func (r *Recorder) Build(datasetLen int, groundTruth, approx [][]float32) RunMetrics {
	rm := RunMetrics{
		DatasetLen:       datasetLen,
		IndexingDuration: r.indexingDuration,
		BuildClusters:    r.buildClusters,
		Queries:          r.queries,
	}

	var totalSearch time.Duration
	for _, q := range r.queries {
		totalSearch += q.Duration
	}
	rm.TotalSearchTime = totalSearch
	if totalSearch > 0 {
		rm.QueriesPerSecond = float64(len(r.queries)) / totalSearch.Seconds()
	}

	if groundTruth != nil {
		recalls := make([]float64, 0, len(groundTruth))
		for i := range groundTruth {
			if i >= len(approx) {
				break
			}
			recalls = append(recalls, recallAtK(groundTruth[i], approx[i]))
		}
		rm.RecallMean, rm.RecallStd = meanStd(recalls)
	}

	return rm
}

// recallAtK computes the fraction of approx's entries that are at most
// the ground truth's k-th (worst kept) distance plus a 1e-3 tolerance,
// where k = len(gt).
func recallAtK(gt, approx []float32) float64 {
	if len(gt) == 0 {
		return 0
	}
	threshold := gt[len(gt)-1] + 1e-3
	hits := 0
	for _, d := range approx {
		if d <= threshold {
			hits++
		}
	}
	return float64(hits) / float64(len(gt))
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))

	var sqDiff float64
	for _, x := range xs {
		d := x - mean
		sqDiff += d * d
	}
	std = math.Sqrt(sqDiff / float64(len(xs)))
	return mean, std
}
