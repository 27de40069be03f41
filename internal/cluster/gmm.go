// Package cluster implements greedy farthest-point (Gonzalez/GMM)
// clustering: a 2-approximation to the k-center problem used to partition
// a dataset before per-cluster sub-indices are built.
package cluster

import "github.com/xDarkicex/clann/internal/metric"

// Result is the outcome of running GreedyFarthestPoint: for each of the k
// centers, its global row index, the global row indices of every point
// assigned to it, and the cluster's radius (max distance from center to
// any assigned point).
type Result struct {
	CenterIdx  []int
	Assignment [][]int
	Radius     []float32
}

// GreedyFarthestPoint partitions view into k clusters. Point 0 is always
// the first center (deterministic). Each subsequent center is the point
// with the largest distance to its currently nearest center, ties broken
// by the lowest index (first-wins argmax). If n <= k, every point becomes
// its own singleton cluster.
func GreedyFarthestPoint(view metric.View, k int) Result {
	n := view.NumPoints()
	if n <= k {
		res := Result{
			CenterIdx:  make([]int, n),
			Assignment: make([][]int, n),
			Radius:     make([]float32, n),
		}
		for i := 0; i < n; i++ {
			res.CenterIdx[i] = i
			res.Assignment[i] = []int{i}
			res.Radius[i] = 0
		}
		return res
	}

	centers := make([]int, 0, k)
	nearestDist := make([]float32, n)
	nearestCenter := make([]int, n)
	for i := range nearestDist {
		nearestDist[i] = float32(posInf)
	}

	first := 0
	centers = append(centers, first)
	row := make([]float32, n)
	view.AllDistances(view.GetPoint(first), row)
	for i := 0; i < n; i++ {
		nearestDist[i] = row[i]
		nearestCenter[i] = 0
	}

	for len(centers) < k {
		next := argmax(nearestDist)
		centers = append(centers, next)
		ci := len(centers) - 1
		view.AllDistances(view.GetPoint(next), row)
		for i := 0; i < n; i++ {
			if row[i] < nearestDist[i] {
				nearestDist[i] = row[i]
				nearestCenter[i] = ci
			}
		}
	}

	assignment := make([][]int, k)
	radius := make([]float32, k)
	for i := 0; i < n; i++ {
		c := nearestCenter[i]
		assignment[c] = append(assignment[c], i)
		if nearestDist[i] > radius[c] {
			radius[c] = nearestDist[i]
		}
	}

	return Result{CenterIdx: centers, Assignment: assignment, Radius: radius}
}

const posInf = 1 << 30

// argmax returns the index of the first occurrence of the maximum value,
// matching the original first-wins tie-break.
func argmax(v []float32) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
