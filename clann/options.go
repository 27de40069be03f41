package clann

import (
	"github.com/xDarkicex/clann/internal/annindex"
	"github.com/xDarkicex/clann/internal/lsh"
	"github.com/xDarkicex/clann/internal/metricsrun"
	"github.com/xDarkicex/clann/internal/obs"
)

// Option configures an Index at construction time, following the
// functional-option pattern.
type Option func(*options) error

type options struct {
	subIndex         annindex.SubIndex
	metrics          *obs.Metrics
	memLimitBytes    int64
	recorder         *metricsrun.Recorder
	bruteForceCutoff *int
}

func defaultOptions() *options {
	return &options{
		subIndex: lsh.New(0),
	}
}

// WithSubIndex overrides the default LSH sub-index with a caller-supplied
// implementation of the annindex.SubIndex contract.
func WithSubIndex(si annindex.SubIndex) Option {
	return func(o *options) error {
		o.subIndex = si
		return nil
	}
}

// WithDefaultSubIndex selects the built-in signed random-projection LSH
// sub-index with the given per-cluster memory budget in bytes (0 =
// unlimited). This is the default even if this option is never passed.
func WithDefaultSubIndex(memLimitBytes int64) Option {
	return func(o *options) error {
		o.subIndex = lsh.New(memLimitBytes)
		o.memLimitBytes = memLimitBytes
		return nil
	}
}

// WithMetrics attaches a Prometheus metrics sink for build/search
// operational telemetry (distinct from the persisted research metrics
// recorded separately via SaveMetrics).
func WithMetrics(m *obs.Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithMetricsRecorder attaches a metricsrun.Recorder that accumulates
// indexing time and per-query detail across Build and Search, ready to be
// handed to SaveMetrics. Not safe to share across concurrent Search
// calls; use one Recorder per goroutine and merge results if searching
// concurrently.
func WithMetricsRecorder(r *metricsrun.Recorder) Option {
	return func(o *options) error {
		o.recorder = r
		return nil
	}
}

// WithBruteForceCutoff overrides Config.BruteForceCutoff at construction
// time, for callers that want to tune invariant I3's threshold without
// building a full Config value.
func WithBruteForceCutoff(n int) Option {
	return func(o *options) error {
		o.bruteForceCutoff = &n
		return nil
	}
}
