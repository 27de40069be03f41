// Package memory provides synchronous memory-budget accounting for
// per-cluster sub-indices built by the clustered index core.
//
// This is a deliberately narrow adaptation of the teacher library's
// internal/memory.MemoryManager: that interface manages a long-lived,
// mutable database's memory over time (background monitoring, cache
// eviction, memory-mapped paging, pressure callbacks). A clann.Index is
// immutable after Build — there is nothing to evict or page once
// construction finishes — so only the budget-check surface survives.
package memory

import "fmt"

// Usage reports the current memory accounting for a single budget.
type Usage struct {
	Used      int64
	Limit     int64
	Available int64
}

// Budget tracks memory consumption against an optional ceiling and
// rejects reservations that would exceed it.
type Budget interface {
	// SetLimit configures the maximum number of bytes this budget will
	// allow. A limit of 0 means unlimited.
	SetLimit(bytes int64) error

	// Reserve accounts for an additional allocation of the given size.
	// Returns ErrLimitExceeded if the reservation would exceed the
	// configured limit; the budget is left unchanged in that case.
	Reserve(bytes int64) error

	// Release gives back previously reserved bytes.
	Release(bytes int64)

	// Usage returns the current accounting snapshot.
	Usage() Usage
}

type budget struct {
	limit int64
	used  int64
}

// NewBudget creates a Budget with the given limit (0 = unlimited).
func NewBudget(limitBytes int64) Budget {
	return &budget{limit: limitBytes}
}

func (b *budget) SetLimit(bytes int64) error {
	if bytes < 0 {
		return fmt.Errorf("memory: limit cannot be negative: %d", bytes)
	}
	b.limit = bytes
	return nil
}

func (b *budget) Reserve(bytes int64) error {
	if bytes < 0 {
		return fmt.Errorf("memory: reservation cannot be negative: %d", bytes)
	}
	if b.limit > 0 && b.used+bytes > b.limit {
		return ErrLimitExceeded
	}
	b.used += bytes
	return nil
}

func (b *budget) Release(bytes int64) {
	b.used -= bytes
	if b.used < 0 {
		b.used = 0
	}
}

func (b *budget) Usage() Usage {
	available := int64(0)
	if b.limit > 0 {
		available = b.limit - b.used
		if available < 0 {
			available = 0
		}
	}
	return Usage{Used: b.used, Limit: b.limit, Available: available}
}
