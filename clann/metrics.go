package clann

import (
	"context"
	"time"

	"github.com/xDarkicex/clann/internal/metricsdb"
	"github.com/xDarkicex/clann/internal/metricsrun"
)

// SaveMetrics persists the index's accumulated metricsrun.Recorder state
// (set via WithMetricsRecorder) to the configured metrics sink. It is a
// no-op when Config.MetricsOutput is MetricsNone and never dials out in
// that case. groundTruth/runDistances are per-query ordered distance
// lists used to compute recall; pass nil for both to skip recall.
func (ix *Index) SaveMetrics(ctx context.Context, dsn string, granularity metricsrun.Granularity, groundTruth, runDistances [][]float32, totalTime time.Duration) error {
	ix.mu.RLock()
	recorder := ix.recorder
	cfg := ix.cfg
	n := ix.view.NumPoints()
	ix.mu.RUnlock()

	if cfg.MetricsOutput == MetricsNone {
		return nil
	}
	if recorder == nil {
		return newError(MetricsError, "SaveMetrics", errNoRecorder)
	}

	rm := recorder.Build(n, groundTruth, runDistances)
	if totalTime > 0 {
		rm.TotalSearchTime = totalTime
		if totalTime.Seconds() > 0 {
			rm.QueriesPerSecond = float64(len(rm.Queries)) / totalTime.Seconds()
		}
	}

	sink, err := metricsdb.Open(ctx, dsn)
	if err != nil {
		return newError(ResultDBError, "SaveMetrics", err)
	}
	defer sink.Close()

	key := metricsdb.RunKey{
		NumClustersFactor: cfg.NumClustersFactor,
		NumTables:         cfg.NumTables,
		K:                 cfg.K,
		Delta:             cfg.Delta,
		Dataset:           cfg.DatasetName,
	}
	result, err := sink.SaveRun(ctx, key, granularity, rm)
	if err != nil {
		return newError(ResultDBError, "SaveMetrics", err)
	}
	_ = result // warnings are swallowed per the "duplicate row is a warning, not an error" contract

	return nil
}
