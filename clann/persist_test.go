package clann

import (
	"context"
	"testing"
)

func TestSerializeAndRestore(t *testing.T) {
	v := randomishView(300, 8)
	cfg := DefaultConfig()
	cfg.DatasetName = "test-dataset"
	cfg.NumClustersFactor = 1.0
	cfg.BruteForceCutoff = 40

	ix, err := InitWithConfig(v, cfg)
	if err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	dir := t.TempDir()
	if err := ix.Serialize(context.Background(), dir); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	path := containerPath(dir, cfg)
	restored, err := InitFromFile(context.Background(), v, path)
	if err != nil {
		t.Fatalf("InitFromFile: %v", err)
	}

	if restored.NumClusters() != ix.NumClusters() {
		t.Fatalf("expected %d clusters restored, got %d", ix.NumClusters(), restored.NumClusters())
	}

	query := v.GetPoint(5)
	results, err := restored.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("Search on restored index: %v", err)
	}
	if len(results) != cfg.K {
		t.Fatalf("expected %d results, got %d", cfg.K, len(results))
	}
}
