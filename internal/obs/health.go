package obs

import "context"

// CheckResult is the outcome of a single named invariant check.
type CheckResult struct {
	Healthy bool
	Message string
}

// HealthStatus aggregates every check run against a built index.
type HealthStatus struct {
	Status string
	Checks map[string]*CheckResult
}

// Invariants is the minimal surface HealthChecker needs from a built
// index: enough to compare the summed cluster assignment sizes with the
// point count (I1) and the sub-index slot count with the cluster count,
// without importing the clann package directly, which would create an
// import cycle (clann already depends on obs). Only totals are compared:
// a point assigned twice while another is missing, or a slot that does
// not match its cluster's brute-force flag, is not detected.
type Invariants interface {
	NumPoints() int
	NumClusters() int
	AssignmentCoverage() int // total points covered across all cluster assignments
	SubIndexSlots() int      // length of the sub-index slot vector
}

// HealthChecker verifies a built index's structural invariants rather
// than a database connection's liveness: there is no long-lived mutable
// connection to check once an Index is built, only the shape of what was
// built or restored. This is the main place a corrupted or mismatched
// InitFromFile restore would be caught before a Search call.
type HealthChecker struct{}

// NewHealthChecker creates a HealthChecker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// Check runs every invariant check against idx and reports the result.
func (hc *HealthChecker) Check(ctx context.Context, idx Invariants) (*HealthStatus, error) {
	checks := map[string]*CheckResult{
		"partition_coverage": checkPartitionCoverage(idx),
		"slot_parity":        checkSlotParity(idx),
	}

	status := "healthy"
	for _, c := range checks {
		if !c.Healthy {
			status = "unhealthy"
			break
		}
	}

	return &HealthStatus{Status: status, Checks: checks}, nil
}

func checkPartitionCoverage(idx Invariants) *CheckResult {
	if idx.AssignmentCoverage() != idx.NumPoints() {
		return &CheckResult{
			Healthy: false,
			Message: "cluster assignment sizes do not sum to the number of points",
		}
	}
	return &CheckResult{Healthy: true, Message: "cluster assignment sizes sum to the number of points"}
}

func checkSlotParity(idx Invariants) *CheckResult {
	if idx.SubIndexSlots() != idx.NumClusters() {
		return &CheckResult{
			Healthy: false,
			Message: "sub-index slot count does not match cluster count",
		}
	}
	return &CheckResult{Healthy: true, Message: "sub-index slots match cluster count"}
}
