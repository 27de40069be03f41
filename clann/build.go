package clann

import (
	"context"
	"time"

	"github.com/xDarkicex/clann/internal/annindex"
	"github.com/xDarkicex/clann/internal/cluster"
	"github.com/xDarkicex/clann/internal/metricsrun"
)

// Build partitions the configured view with greedy farthest-point
// clustering and builds a sub-index for every cluster with at least the
// brute-force cutoff's number of points and at least Config.K points;
// smaller clusters are searched by brute force. It may be called exactly
// once per Index.
func (ix *Index) Build(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.built {
		return newError(DataError, "Build", errAlreadyBuilt)
	}

	start := time.Now()

	n := ix.view.NumPoints()
	numClusters := numClustersFor(n, ix.cfg.NumClustersFactor)
	res := cluster.GreedyFarthestPoint(ix.view, numClusters)

	cutoff := ix.cfg.bruteForceCutoff()
	clusters := make([]Cluster, len(res.CenterIdx))
	subIndices := make([]annindex.Handle, len(res.CenterIdx))

	for i := range res.CenterIdx {
		select {
		case <-ctx.Done():
			return newError(SubindexBuildFailed, "Build", ctx.Err())
		default:
		}

		assignment := res.Assignment[i]
		bruteForce := len(assignment) < cutoff || len(assignment) < ix.cfg.K

		c := Cluster{
			Idx:        i,
			CenterIdx:  res.CenterIdx[i],
			Radius:     res.Radius[i],
			Assignment: assignment,
			BruteForce: bruteForce,
		}

		if !bruteForce {
			subView := ix.view.Subset(assignment)
			var handle annindex.Handle
			var memBytes int64
			err := ix.breaker.Execute(ctx, func() error {
				var buildErr error
				handle, memBytes, buildErr = ix.opts.subIndex.Build(ctx, subView, ix.cfg.NumTables)
				return buildErr
			})
			if err != nil {
				return newError(SubindexBuildFailed, "Build", err)
			}
			c.MemoryUsed = memBytes
			subIndices[i] = handle
		}

		clusters[i] = c

		if ix.recorder != nil {
			ix.recorder.LogBuildCluster(metricsrun.BuildClusterMetric{
				ClusterIdx:      i,
				Size:            len(assignment),
				MemoryUsedBytes: c.MemoryUsed,
			})
		}
	}

	ix.clusters = clusters
	ix.subIndices = subIndices
	ix.built = true

	if ix.opts.metrics != nil {
		ix.opts.metrics.BuildsTotal.Inc()
		ix.opts.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	}
	if ix.recorder != nil {
		ix.recorder.LogIndexingTime(time.Since(start))
	}

	return nil
}
