package clann

import (
	"context"
	"testing"

	"github.com/xDarkicex/clann/internal/metric"
)

func randomishView(n, d int) metric.View {
	data := make([]float32, n*d)
	for i := 0; i < n; i++ {
		cluster := float32(i % 5)
		for j := 0; j < d; j++ {
			data[i*d+j] = cluster + 0.001*float32((i*31+j*7)%17)
		}
	}
	return metric.NewAngularView(data, n, d)
}

func TestInitRejectsEmptyView(t *testing.T) {
	v := metric.NewAngularView(nil, 0, 4)
	if _, err := Init(v); err == nil {
		t.Fatal("expected error constructing an Index over an empty view")
	}
}

func TestInitWithConfigRejectsInvalidConfig(t *testing.T) {
	v := randomishView(10, 4)
	cfg := DefaultConfig()
	cfg.K = 0
	if _, err := InitWithConfig(v, cfg); err == nil {
		t.Fatal("expected ConfigError for non-positive K")
	}
}

func TestBuildAndSearchEndToEnd(t *testing.T) {
	v := randomishView(200, 8)
	cfg := DefaultConfig()
	cfg.K = 5
	cfg.NumClustersFactor = 1.0
	cfg.BruteForceCutoff = 50 // force a mix of brute-force and sub-indexed clusters at this scale

	ix, err := InitWithConfig(v, cfg)
	if err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := ix.Build(context.Background()); err == nil {
		t.Fatal("expected error building an already-built index")
	}

	query := v.GetPoint(0)
	results, err := ix.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != cfg.K {
		t.Fatalf("expected %d results, got %d", cfg.K, len(results))
	}
	if results[0].ID != 0 {
		t.Fatalf("expected the query's own point to be its own nearest neighbor, got id %d dist %f", results[0].ID, results[0].Distance)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Fatalf("results not sorted ascending at position %d", i)
		}
	}
}

func TestSearchRejectsWrongDimension(t *testing.T) {
	v := randomishView(50, 4)
	ix, err := Init(v)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := ix.Search(context.Background(), []float32{1, 2, 3}); err == nil {
		t.Fatal("expected error for mismatched query dimension")
	}
}

func TestSearchBeforeBuildFails(t *testing.T) {
	v := randomishView(20, 4)
	ix, err := Init(v)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := ix.Search(context.Background(), v.GetPoint(0)); err == nil {
		t.Fatal("expected error searching an unbuilt index")
	}
}

func TestHealthCheckOnBuiltIndex(t *testing.T) {
	v := randomishView(60, 4)
	ix, err := Init(v)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.AssignmentCoverage() != ix.NumPoints() {
		t.Fatalf("expected full coverage, got %d of %d", ix.AssignmentCoverage(), ix.NumPoints())
	}
	if ix.SubIndexSlots() != ix.NumClusters() {
		t.Fatalf("expected slot parity, got %d slots for %d clusters", ix.SubIndexSlots(), ix.NumClusters())
	}
}
