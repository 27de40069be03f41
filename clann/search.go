package clann

import (
	"context"
	"sort"
	"time"

	"github.com/xDarkicex/clann/internal/metricsrun"
	"github.com/xDarkicex/clann/internal/topk"
)

// Search returns up to Config.K nearest neighbors to query by angular
// distance, visiting clusters in ascending center-distance order and
// stopping early once no remaining cluster can contain anything closer
// than the current worst kept candidate (E1). Every candidate a
// sub-index returns is re-verified against the exact distance before
// being kept, regardless of what the sub-index itself computed.
func (ix *Index) Search(ctx context.Context, query []float32) ([]Result, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if !ix.built {
		return nil, newError(IndexNotFound, "Search", errNotBuilt)
	}
	if len(query) != ix.view.Dimensions() {
		return nil, newError(DataError, "Search", errDimMismatch)
	}

	start := time.Now()
	if ix.recorder != nil {
		ix.recorder.NewQuery()
	}

	type clusterDist struct {
		idx  int
		dist float32
	}
	order := make([]clusterDist, len(ix.clusters))
	for i, c := range ix.clusters {
		order[i] = clusterDist{idx: i, dist: ix.view.DistancePoint(c.CenterIdx, query)}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].dist < order[j].dist })

	buf := topk.New(ix.cfg.K)
	clustersVisited := 0

	for _, cd := range order {
		select {
		case <-ctx.Done():
			return nil, newError(SubindexSearchFailed, "Search", ctx.Err())
		default:
		}

		if buf.Full() {
			worst, _ := buf.Worst()
			clusterMinDist := cd.dist - ix.clusters[cd.idx].Radius
			if clusterMinDist > worst.Distance {
				break // E1: no later cluster (sorted ascending) can beat the current worst
			}
		}

		clustersVisited++
		visitStart := time.Now()
		numCandidates, distComps, err := ix.searchCluster(ctx, cd.idx, query, buf)
		if err != nil {
			return nil, err
		}

		if ix.recorder != nil {
			ix.recorder.LogClusterVisit(metricsrun.ClusterVisit{
				ClusterIdx:           cd.idx,
				NumCandidates:        numCandidates,
				Duration:             time.Since(visitStart),
				DistanceComputations: distComps,
			})
		}
	}

	sorted := buf.Sorted()
	results := make([]Result, len(sorted))
	for i, c := range sorted {
		results[i] = Result{ID: int(c.ID), Distance: c.Distance}
	}

	if ix.recorder != nil {
		ix.recorder.LogQueryTime(time.Since(start))
	}
	if ix.opts.metrics != nil {
		ix.opts.metrics.SearchQueries.Inc()
		ix.opts.metrics.SearchLatency.Observe(time.Since(start).Seconds())
		ix.opts.metrics.ClustersVisited.Observe(float64(clustersVisited))
	}

	return results, nil
}

// searchCluster visits a single cluster, either by brute force or
// through its sub-index, and returns the number of candidates it
// offered to buf (whether or not buf kept them) along with the number of exact distance
// evaluations it performed (brute-force distances plus mandatory
// re-verification distances for sub-index hits).
func (ix *Index) searchCluster(ctx context.Context, clusterIdx int, query []float32, buf *topk.Buffer) (int, uint32, error) {
	c := ix.clusters[clusterIdx]

	if c.BruteForce {
		for _, gid := range c.Assignment {
			d := ix.view.DistancePoint(gid, query)
			buf.Add(topk.Candidate{ID: uint32(gid), Distance: d})
		}
		return len(c.Assignment), uint32(len(c.Assignment)), nil
	}

	handle := ix.subIndices[clusterIdx]

	// maxSimilarity conversion follows the accepted cos_sim = 1 - dist
	// reading (angular distance here is always in [0,2]), not 1 -
	// dist/2; a -1 sentinel means "no bound yet" while the buffer isn't
	// full.
	maxSimilarity := float32(-1)
	if w, ok := buf.Worst(); ok && buf.Full() {
		maxSimilarity = 1 - w.Distance
	}

	ix.opts.subIndex.ClearDistanceComputations()
	localIDs, err := ix.opts.subIndex.Search(ctx, handle, query, ix.cfg.K, maxSimilarity, ix.cfg.Delta)
	if err != nil {
		return 0, 0, newError(SubindexSearchFailed, "Search", err)
	}
	distComps := ix.opts.subIndex.DistanceComputations()

	for _, lid := range localIDs {
		if int(lid) >= len(c.Assignment) {
			return 0, 0, newError(IndexOutOfBounds, "Search", errLocalIDOutOfRange)
		}
		gid := c.Assignment[lid]
		d := ix.view.DistancePoint(gid, query) // mandatory exact re-verification
		buf.Add(topk.Candidate{ID: uint32(gid), Distance: d})
	}
	distComps += uint32(len(localIDs))

	return len(localIDs), distComps, nil
}
