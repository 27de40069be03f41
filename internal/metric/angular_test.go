package metric

import "testing"

func TestAngularViewDistanceOrthogonal(t *testing.T) {
	v := NewAngularView([]float32{1, 0, 0, 1}, 2, 2)
	if d := v.Distance(0, 1); d < 0.99 || d > 1.01 {
		t.Fatalf("expected distance ~1 for orthogonal vectors, got %f", d)
	}
	if d := v.Distance(0, 0); d > 0.001 {
		t.Fatalf("expected distance ~0 for identical vector, got %f", d)
	}
}

func TestAngularViewZeroNorm(t *testing.T) {
	v := NewAngularView([]float32{0, 0, 1, 0}, 2, 2)
	if d := v.Distance(0, 1); d != 1.0 {
		t.Fatalf("expected zero-norm distance of 1.0, got %f", d)
	}
}

func TestAngularViewSubsetReusesNorms(t *testing.T) {
	v := NewAngularView([]float32{1, 0, 0, 1, 1, 1}, 3, 2)
	sub := v.Subset([]int{2, 0}).(*AngularView)
	if sub.NumPoints() != 2 {
		t.Fatalf("expected 2 points in subset, got %d", sub.NumPoints())
	}
	if sub.norms[0] != v.norms[2] || sub.norms[1] != v.norms[0] {
		t.Fatal("subset should carry over precomputed norms in the given order")
	}
}

func TestAngularViewAllDistances(t *testing.T) {
	v := NewAngularView([]float32{1, 0, 0, 1, 1, 1}, 3, 2)
	dst := make([]float32, v.NumPoints())
	v.AllDistances([]float32{1, 0}, dst)
	if dst[0] > 0.001 {
		t.Fatalf("expected ~0 distance to itself, got %f", dst[0])
	}
	if dst[1] < 0.99 {
		t.Fatalf("expected ~1 distance to orthogonal, got %f", dst[1])
	}
}
