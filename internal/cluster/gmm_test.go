package cluster

import (
	"testing"

	"github.com/xDarkicex/clann/internal/metric"
)

type fakeView struct {
	pts [][]float32
}

func (f *fakeView) NumPoints() int           { return len(f.pts) }
func (f *fakeView) Dimensions() int          { return len(f.pts[0]) }
func (f *fakeView) GetPoint(i int) []float32 { return f.pts[i] }
func (f *fakeView) Distance(i, j int) float32 { return dist(f.pts[i], f.pts[j]) }
func (f *fakeView) DistancePoint(i int, q []float32) float32 { return dist(f.pts[i], q) }
func (f *fakeView) AllDistances(q []float32, dst []float32) {
	for i, p := range f.pts {
		dst[i] = dist(p, q)
	}
}
func (f *fakeView) Subset(indices []int) metric.View {
	pts := make([][]float32, len(indices))
	for k, idx := range indices {
		pts[k] = f.pts[idx]
	}
	return &fakeView{pts: pts}
}

func dist(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func TestGreedyFarthestPointBasic(t *testing.T) {
	v := &fakeView{pts: [][]float32{{0, 0}, {0, 1}, {10, 10}, {10, 11}}}
	res := GreedyFarthestPoint(v, 2)

	if len(res.CenterIdx) != 2 {
		t.Fatalf("expected 2 centers, got %d", len(res.CenterIdx))
	}
	if res.CenterIdx[0] != 0 {
		t.Fatalf("expected first center to be point 0, got %d", res.CenterIdx[0])
	}
	total := 0
	for _, a := range res.Assignment {
		total += len(a)
	}
	if total != 4 {
		t.Fatalf("expected all 4 points assigned, got %d", total)
	}
}

func TestGreedyFarthestPointDegenerateNLEk(t *testing.T) {
	v := &fakeView{pts: [][]float32{{0, 0}, {1, 1}}}
	res := GreedyFarthestPoint(v, 5)
	if len(res.CenterIdx) != 2 {
		t.Fatalf("expected n=2 singleton clusters when k>n, got %d", len(res.CenterIdx))
	}
	for i, a := range res.Assignment {
		if len(a) != 1 || a[0] != i {
			t.Fatalf("expected singleton cluster %d to contain just point %d, got %v", i, i, a)
		}
	}
}

func TestGreedyFarthestPointRadiusNonNegative(t *testing.T) {
	v := &fakeView{pts: [][]float32{{0, 0}, {1, 0}, {5, 0}, {6, 0}}}
	res := GreedyFarthestPoint(v, 2)
	for _, r := range res.Radius {
		if r < 0 {
			t.Fatalf("radius must be non-negative, got %f", r)
		}
	}
}
