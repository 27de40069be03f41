package metricsrun

import (
	"testing"
	"time"
)

func TestRecorderBuildsAggregate(t *testing.T) {
	r := NewRecorder()
	r.LogIndexingTime(5 * time.Millisecond)

	r.NewQuery()
	r.LogClusterVisit(ClusterVisit{ClusterIdx: 0, NumCandidates: 10, DistanceComputations: 10})
	r.LogQueryTime(2 * time.Millisecond)

	r.NewQuery()
	r.LogClusterVisit(ClusterVisit{ClusterIdx: 1, NumCandidates: 5, DistanceComputations: 5})
	r.LogQueryTime(3 * time.Millisecond)

	rm := r.Build(100, nil, nil)
	if rm.DatasetLen != 100 {
		t.Fatalf("expected dataset len 100, got %d", rm.DatasetLen)
	}
	if len(rm.Queries) != 2 {
		t.Fatalf("expected 2 queries recorded, got %d", len(rm.Queries))
	}
	if rm.TotalSearchTime != 5*time.Millisecond {
		t.Fatalf("expected total search time 5ms, got %v", rm.TotalSearchTime)
	}
	if rm.QueriesPerSecond <= 0 {
		t.Fatal("expected positive queries per second")
	}
}

func TestRecorderLogsBuildClusters(t *testing.T) {
	r := NewRecorder()
	r.LogIndexingTime(time.Millisecond)
	r.LogBuildCluster(BuildClusterMetric{ClusterIdx: 0, Size: 40, MemoryUsedBytes: 1024})
	r.LogBuildCluster(BuildClusterMetric{ClusterIdx: 1, Size: 12, MemoryUsedBytes: 0})

	rm := r.Build(52, nil, nil)
	if len(rm.BuildClusters) != 2 {
		t.Fatalf("expected 2 build cluster records, got %d", len(rm.BuildClusters))
	}
	if rm.BuildClusters[0].Size != 40 || rm.BuildClusters[0].MemoryUsedBytes != 1024 {
		t.Fatalf("unexpected build cluster record: %+v", rm.BuildClusters[0])
	}
}

func TestRecallAtKPerfectMatch(t *testing.T) {
	gt := []float32{0.1, 0.2, 0.3}
	approx := []float32{0.1, 0.2, 0.3}
	if r := recallAtK(gt, approx); r != 1.0 {
		t.Fatalf("expected recall 1.0, got %f", r)
	}
}

func TestRecallAtKPartialMatch(t *testing.T) {
	gt := []float32{0.1, 0.2, 0.3}
	approx := []float32{0.1, 0.5, 0.6}
	if r := recallAtK(gt, approx); r != 1.0/3.0 {
		t.Fatalf("expected recall 1/3, got %f", r)
	}
}

func TestRecorderWithGroundTruth(t *testing.T) {
	r := NewRecorder()
	r.NewQuery()
	r.LogQueryTime(time.Millisecond)

	gt := [][]float32{{0.1, 0.2}}
	approx := [][]float32{{0.1, 0.2}}
	rm := r.Build(10, gt, approx)
	if rm.RecallMean != 1.0 {
		t.Fatalf("expected recall mean 1.0, got %f", rm.RecallMean)
	}
}
