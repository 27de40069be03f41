// Package topk implements a bounded max-heap that keeps the k closest
// candidates seen so far, discarding anything farther than the current
// worst kept candidate once the buffer is full.
package topk

import "container/heap"

// Candidate is one scored point. ID is a row index into whatever View the
// caller is scoring against (global or local, caller's choice).
type Candidate struct {
	ID       uint32
	Distance float32
}

// Buffer is a fixed-capacity max-heap ordered by Distance descending at the
// root, so the current worst kept candidate is always O(1) to inspect.
// NaN distances sort as larger than any real distance so they are evicted
// first, never silently kept over a valid candidate.
type Buffer struct {
	cap   int
	items []Candidate
}

// New creates a Buffer that keeps at most k candidates. k must be >= 1.
func New(k int) *Buffer {
	return &Buffer{cap: k, items: make([]Candidate, 0, k)}
}

func less(a, b float32) bool {
	if isNaN(a) {
		return false // a (NaN) is never "less than" — it sorts as worst
	}
	if isNaN(b) {
		return true
	}
	return a < b
}

func isNaN(f float32) bool { return f != f }

// heap.Interface, ordered so items[0] is the current worst (max distance).
func (b *Buffer) Len() int { return len(b.items) }
func (b *Buffer) Less(i, j int) bool {
	return less(b.items[j].Distance, b.items[i].Distance) // reversed: max-heap
}
func (b *Buffer) Swap(i, j int) { b.items[i], b.items[j] = b.items[j], b.items[i] }
func (b *Buffer) Push(x interface{}) {
	b.items = append(b.items, x.(Candidate))
}
func (b *Buffer) Pop() interface{} {
	old := b.items
	n := len(old)
	item := old[n-1]
	b.items = old[:n-1]
	return item
}

// Size reports how many candidates are currently held (<= capacity).
func (b *Buffer) Size() int { return len(b.items) }

// Full reports whether the buffer has reached its capacity.
func (b *Buffer) Full() bool { return len(b.items) >= b.cap }

// Worst returns the current worst (largest-distance) kept candidate. Valid
// only when the buffer is non-empty.
func (b *Buffer) Worst() (Candidate, bool) {
	if len(b.items) == 0 {
		return Candidate{}, false
	}
	return b.items[0], true
}

// Add inserts a candidate, returning true if it was kept. Below capacity it
// is always kept; at capacity it replaces the current worst only if
// strictly closer.
func (b *Buffer) Add(c Candidate) bool {
	if b.cap <= 0 {
		return false
	}
	if len(b.items) < b.cap {
		heap.Push(b, c)
		return true
	}
	if !less(c.Distance, b.items[0].Distance) {
		return false
	}
	b.items[0] = c
	heap.Fix(b, 0)
	return true
}

// Sorted drains the buffer into an ascending-distance slice (closest
// first). The buffer is empty after this call.
func (b *Buffer) Sorted() []Candidate {
	out := make([]Candidate, len(b.items))
	n := len(b.items)
	for i := n - 1; i >= 0; i-- {
		out[i] = heap.Pop(b).(Candidate)
	}
	return out
}
