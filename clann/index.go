// Package clann implements a clustered, LSH-based approximate k-nearest-
// neighbor engine for angular (cosine) similarity search: it partitions a
// dataset with greedy farthest-point clustering, builds an independent
// pluggable ANN sub-index per cluster, and answers queries by visiting
// clusters in ascending center-distance order with early termination
// driven by cluster radii.
package clann

import (
	"math"
	"sync"

	"github.com/xDarkicex/clann/internal/annindex"
	"github.com/xDarkicex/clann/internal/metric"
	"github.com/xDarkicex/clann/internal/metricsrun"
	"github.com/xDarkicex/clann/internal/obs"
)

// Cluster is one partition produced by the greedy farthest-point
// clusterer: its center, radius, member points, and whether it is small
// enough to be searched by brute force instead of through a sub-index.
type Cluster struct {
	Idx        int
	CenterIdx  int
	Radius     float32
	Assignment []int
	BruteForce bool
	MemoryUsed int64
}

// Result is one scored neighbor returned by Search.
type Result struct {
	ID       int
	Distance float32
}

// Index is immutable once Build or InitFromFile returns. Concurrent
// Search calls are safe when no metricsrun.Recorder is attached: an
// attached Recorder is shared by every Search on the Index and is not
// safe for concurrent use. The configured SubIndex's Search is
// documented read-only after Build for the default LSH implementation.
type Index struct {
	view     metric.View
	cfg      Config
	opts     *options
	breaker  *obs.CircuitBreaker

	mu         sync.RWMutex
	built      bool
	clusters   []Cluster
	subIndices []annindex.Handle // nil slot <=> brute force, matching invariant I4
	recorder   *metricsrun.Recorder
}

// InitWithConfig validates cfg and constructs an unbuilt Index over view.
func InitWithConfig(view metric.View, cfg Config, opts ...Option) (*Index, error) {
	if view == nil || view.NumPoints() == 0 {
		return nil, newError(DataError, "InitWithConfig", errEmptyView)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, newError(ConfigError, "InitWithConfig", err)
		}
	}
	if o.bruteForceCutoff != nil {
		cfg.BruteForceCutoff = *o.bruteForceCutoff
	}

	return &Index{
		view:     view,
		cfg:      cfg,
		opts:     o,
		recorder: o.recorder,
		breaker:  obs.NewCircuitBreaker(obs.DefaultCircuitBreakerConfig("clann.subindex.build")),
	}, nil
}

// Init constructs an Index with DefaultConfig.
func Init(view metric.View, opts ...Option) (*Index, error) {
	return InitWithConfig(view, DefaultConfig(), opts...)
}

// NumPoints, NumClusters, AssignmentCoverage, SubIndexSlots implement
// obs.Invariants so a built Index can be handed directly to an
// obs.HealthChecker.
func (ix *Index) NumPoints() int { return ix.view.NumPoints() }

func (ix *Index) NumClusters() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.clusters)
}

func (ix *Index) AssignmentCoverage() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	total := 0
	for _, c := range ix.clusters {
		total += len(c.Assignment)
	}
	return total
}

func (ix *Index) SubIndexSlots() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.subIndices)
}

// numClustersFor implements the k = floor(factor * sqrt(n)) rule, always
// at least 1.
func numClustersFor(n int, factor float64) int {
	k := int(math.Floor(factor * math.Sqrt(float64(n))))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}
