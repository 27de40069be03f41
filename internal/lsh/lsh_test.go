package lsh

import (
	"bytes"
	"context"
	"testing"

	"github.com/xDarkicex/clann/internal/metric"
)

func sampleView() metric.View {
	data := make([]float32, 0, 40*4)
	for i := 0; i < 40; i++ {
		base := float32(i % 4)
		data = append(data, base+0.01*float32(i), base, base-0.01*float32(i), base)
	}
	return metric.NewAngularView(data, 40, 4)
}

func TestLSHBuildAndSearch(t *testing.T) {
	idx := New(0)
	view := sampleView()

	h, mem, err := idx.Build(context.Background(), view, 4)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if mem <= 0 {
		t.Fatal("expected positive memory footprint")
	}

	query := view.GetPoint(0)
	idx.ClearDistanceComputations()
	results, err := idx.Search(context.Background(), h, query, 5, 0, 0.9)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if idx.DistanceComputations() == 0 {
		t.Fatal("expected distance computations to be recorded during search")
	}
}

func TestLSHSaveLoadRoundTrip(t *testing.T) {
	idx := New(0)
	view := sampleView()

	h, _, err := idx.Build(context.Background(), view, 3)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	if err := idx.Save(context.Background(), h, &buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored, err := idx.Load(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	query := view.GetPoint(3)
	results, err := idx.Search(context.Background(), restored, query, 4, 0, 0.9)
	if err != nil {
		t.Fatalf("Search after restore: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results after restore, got %d", len(results))
	}
}

func TestLSHBuildRejectsNonPositiveTables(t *testing.T) {
	idx := New(0)
	view := sampleView()
	if _, _, err := idx.Build(context.Background(), view, 0); err == nil {
		t.Fatal("expected error for non-positive numTables")
	}
}
