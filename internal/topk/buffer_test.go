package topk

import "testing"

func TestBufferAddBelowCapacity(t *testing.T) {
	b := New(5)
	for i := 0; i < 3; i++ {
		if !b.Add(Candidate{ID: uint32(i), Distance: float32(i)}) {
			t.Fatalf("expected candidate %d to be kept below capacity", i)
		}
	}
	if b.Size() != 3 {
		t.Fatalf("expected size 3, got %d", b.Size())
	}
	if b.Full() {
		t.Fatal("buffer should not be full yet")
	}
}

func TestBufferReplacesWorstWhenCloser(t *testing.T) {
	b := New(2)
	b.Add(Candidate{ID: 0, Distance: 5})
	b.Add(Candidate{ID: 1, Distance: 3})

	if !b.Add(Candidate{ID: 2, Distance: 1}) {
		t.Fatal("closer candidate should be kept once at capacity")
	}
	worst, ok := b.Worst()
	if !ok || worst.Distance != 3 {
		t.Fatalf("expected worst kept to be distance 3, got %+v", worst)
	}
}

func TestBufferRejectsFartherThanWorst(t *testing.T) {
	b := New(2)
	b.Add(Candidate{ID: 0, Distance: 1})
	b.Add(Candidate{ID: 1, Distance: 2})

	if b.Add(Candidate{ID: 2, Distance: 10}) {
		t.Fatal("farther candidate should be rejected once at capacity")
	}
}

func TestBufferSortedAscending(t *testing.T) {
	b := New(3)
	b.Add(Candidate{ID: 0, Distance: 3})
	b.Add(Candidate{ID: 1, Distance: 1})
	b.Add(Candidate{ID: 2, Distance: 2})

	sorted := b.Sorted()
	want := []float32{1, 2, 3}
	for i, c := range sorted {
		if c.Distance != want[i] {
			t.Fatalf("position %d: expected %f, got %f", i, want[i], c.Distance)
		}
	}
	if b.Size() != 0 {
		t.Fatal("buffer should be empty after Sorted")
	}
}

func TestBufferNaNSortsWorst(t *testing.T) {
	b := New(2)
	nan := float32(0)
	nan = nan / nan
	b.Add(Candidate{ID: 0, Distance: nan})
	b.Add(Candidate{ID: 1, Distance: 5})

	if !b.Add(Candidate{ID: 2, Distance: 1}) {
		t.Fatal("a valid candidate should replace a NaN entry even at capacity")
	}
}

func TestBufferEmpty(t *testing.T) {
	b := New(3)
	if _, ok := b.Worst(); ok {
		t.Fatal("empty buffer should report no worst candidate")
	}
	if len(b.Sorted()) != 0 {
		t.Fatal("empty buffer should sort to an empty slice")
	}
}
