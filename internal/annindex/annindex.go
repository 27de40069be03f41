// Package annindex defines the contract a per-cluster approximate nearest
// neighbor sub-index must satisfy to be used by the clustered index core.
// The core never imports a concrete sub-index implementation directly;
// callers select one (or supply their own) through this interface.
package annindex

import (
	"context"
	"errors"
	"io"

	"github.com/xDarkicex/clann/internal/metric"
)

// Handle is an opaque, built sub-index for a single cluster. Its lifetime
// is owned by the clustered index core; callers must Close it once it is
// no longer reachable from any Index.
type Handle interface {
	Close() error
}

// SubIndex is the pluggable ANN backend contract. Implementations are
// expected to be LSH-based (the default implementation under
// internal/lsh is signed random-projection LSH) but any approximate
// nearest-neighbor structure that can satisfy this contract is valid.
//
// DistanceComputations/ClearDistanceComputations form a single,
// process-wide counter lifecycle: callers clear it, run a batch of builds
// or searches, then read it once. It is not safe to read concurrently
// with a clear or with another goroutine's build/search.
type SubIndex interface {
	// Build constructs a sub-index over the given view using numTables
	// independent hash families (or an equivalent notion of repetition
	// for non-LSH backends). It returns an opaque Handle and the
	// estimated memory footprint in bytes.
	Build(ctx context.Context, view metric.View, numTables int) (Handle, int64, error)

	// Search returns up to k local row indices (indices into the View
	// the Handle was built from) that approximately satisfy the given
	// similarity threshold and recall target. maxSimilarity is on the
	// same 1-distance scale as metric.View's angular distance (which
	// ranges over [0,2], not the true [-1,1] cosine range), so a caller
	// converts a worst-kept distance d into maxSimilarity = 1 - d; an
	// implementation using a different distance convention may define
	// this conversion differently and should document it.
	Search(ctx context.Context, h Handle, query []float32, k int, maxSimilarity float32, recall float32) ([]uint32, error)

	// Save serializes a built Handle's state to w.
	Save(ctx context.Context, h Handle, w io.Writer) error
	// Load deserializes a Handle previously written by Save.
	Load(ctx context.Context, r io.Reader) (Handle, error)

	// DistanceComputations reports the running count of exact distance
	// evaluations performed since the last ClearDistanceComputations.
	DistanceComputations() uint32
	// ClearDistanceComputations resets the counter to zero.
	ClearDistanceComputations()
}

// Sentinel errors a SubIndex implementation may wrap when returning
// failures from Build/Search.
var (
	ErrBuildFailed  = errors.New("annindex: sub-index build failed")
	ErrSearchFailed = errors.New("annindex: sub-index search failed")
)
