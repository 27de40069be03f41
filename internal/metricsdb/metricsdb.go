// Package metricsdb persists build/search metrics to a relational store,
// following the five-table schema of spec.md §6: build_metrics,
// build_metrics_cluster, search_metrics, search_metrics_query, and
// search_metrics_cluster, each keyed by the full configuration tuple
// (num_clusters_factor, num_tables, k, delta, dataset, commit_hash) plus
// a query/cluster index where applicable. A unique-constraint violation
// on insert (the same key re-saved) is treated as a warning, never an
// error, matching the idempotent-replay posture the spec calls for.
package metricsdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/google/uuid"
	"github.com/xDarkicex/clann/internal/metricsrun"
)

// Sink writes RunMetrics to Postgres via database/sql + lib/pq.
type Sink struct {
	db *sql.DB
}

// Open dials the given DSN (a postgres:// connection string) and verifies
// connectivity.
func Open(ctx context.Context, dsn string) (*Sink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("metricsdb: opening connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("metricsdb: connecting: %w", err)
	}
	return &Sink{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Sink) Close() error {
	return s.db.Close()
}

// RunKey identifies the configuration tuple a row belongs to, matching
// spec.md §6's composite key (num_clusters_factor, num_tables, k, delta,
// dataset, commit_hash). CommitHash is filled in by SaveRun, not by the
// caller: it is GIT_COMMIT_HASH when set, otherwise a generated run
// identifier, so two different Configs saved under the same commit (or
// no commit at all) never collide on the same row.
type RunKey struct {
	NumClustersFactor float64
	NumTables         int
	K                 int
	Delta             float32
	Dataset           string
	CommitHash        string
}

func (k RunKey) args() []interface{} {
	return []interface{}{k.NumClustersFactor, k.NumTables, k.K, k.Delta, k.Dataset, k.CommitHash}
}

// commitHash returns GIT_COMMIT_HASH if set, otherwise a freshly
// generated UUID so rows from the same run still correlate.
func commitHash() string {
	if v := strings.TrimSpace(os.Getenv("GIT_COMMIT_HASH")); v != "" {
		return v
	}
	return uuid.NewString()
}

// SaveResult reports, for each table write attempted, whether it
// succeeded, was skipped as a duplicate, or failed outright. Duplicate
// skips are warnings, not errors: SaveRun never returns an error solely
// because a row already exists.
type SaveResult struct {
	RunID    string
	Warnings []string
}

// SaveRun persists the build_metrics/build_metrics_cluster records plus,
// depending on granularity, the search_metrics/search_metrics_query/
// search_metrics_cluster detail rows, inside a single transaction. key's
// CommitHash is populated here, not by the caller.
func (s *Sink) SaveRun(ctx context.Context, key RunKey, granularity metricsrun.Granularity, rm metricsrun.RunMetrics) (SaveResult, error) {
	key.CommitHash = commitHash()
	result := SaveResult{RunID: key.CommitHash}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("metricsdb: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertBuildMetrics(ctx, tx, key, rm, &result); err != nil {
		return result, err
	}
	for _, bc := range rm.BuildClusters {
		if err := upsertBuildMetricsCluster(ctx, tx, key, bc, &result); err != nil {
			return result, err
		}
	}

	if err := upsertSearchMetrics(ctx, tx, key, rm, &result); err != nil {
		return result, err
	}

	if granularity >= metricsrun.PerQuery {
		for qi, q := range rm.Queries {
			if err := upsertSearchMetricsQuery(ctx, tx, key, qi, q, &result); err != nil {
				return result, err
			}
			if granularity >= metricsrun.PerCluster {
				for _, c := range q.Clusters {
					if err := upsertSearchMetricsCluster(ctx, tx, key, qi, c, &result); err != nil {
						return result, err
					}
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("metricsdb: committing transaction: %w", err)
	}
	return result, nil
}

func upsertBuildMetrics(ctx context.Context, tx *sql.Tx, key RunKey, rm metricsrun.RunMetrics, result *SaveResult) error {
	args := append(key.args(), rm.DatasetLen, rm.IndexingDuration.Milliseconds(), time.Now().UTC())
	_, err := tx.ExecContext(ctx, `
		INSERT INTO build_metrics (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, dataset_len, indexing_duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash) DO NOTHING`,
		args...)
	return warnOnConflict(err, "build_metrics", key, result)
}

func upsertBuildMetricsCluster(ctx context.Context, tx *sql.Tx, key RunKey, bc metricsrun.BuildClusterMetric, result *SaveResult) error {
	args := append(key.args(), bc.ClusterIdx, bc.Size, bc.MemoryUsedBytes)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO build_metrics_cluster (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, cluster_idx, cluster_size, memory_used_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, cluster_idx) DO NOTHING`,
		args...)
	return warnOnConflict(err, "build_metrics_cluster", key, result)
}

func upsertSearchMetrics(ctx context.Context, tx *sql.Tx, key RunKey, rm metricsrun.RunMetrics, result *SaveResult) error {
	args := append(key.args(), rm.TotalSearchTime.Milliseconds(), rm.QueriesPerSecond, rm.RecallMean, rm.RecallStd, time.Now().UTC())
	_, err := tx.ExecContext(ctx, `
		INSERT INTO search_metrics (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, total_search_time_ms, queries_per_second, recall_mean, recall_std, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash) DO NOTHING`,
		args...)
	return warnOnConflict(err, "search_metrics", key, result)
}

func upsertSearchMetricsQuery(ctx context.Context, tx *sql.Tx, key RunKey, queryIdx int, q metricsrun.QueryMetrics, result *SaveResult) error {
	args := append(key.args(), queryIdx, q.Duration.Milliseconds(), q.NumCandidates, int64(q.DistanceComputations))
	_, err := tx.ExecContext(ctx, `
		INSERT INTO search_metrics_query (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, query_idx, duration_ms, num_candidates, distance_computations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, query_idx) DO NOTHING`,
		args...)
	return warnOnConflict(err, "search_metrics_query", key, result)
}

func upsertSearchMetricsCluster(ctx context.Context, tx *sql.Tx, key RunKey, queryIdx int, c metricsrun.ClusterVisit, result *SaveResult) error {
	args := append(key.args(), queryIdx, c.ClusterIdx, c.NumCandidates, c.Duration.Milliseconds(), int64(c.DistanceComputations))
	_, err := tx.ExecContext(ctx, `
		INSERT INTO search_metrics_cluster (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, query_idx, cluster_idx, num_candidates, duration_ms, distance_computations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, query_idx, cluster_idx) DO NOTHING`,
		args...)
	return warnOnConflict(err, "search_metrics_cluster", key, result)
}

func warnOnConflict(err error, table string, key RunKey, result *SaveResult) error {
	if err == nil {
		return nil
	}
	// lib/pq reports unique_violation as SQLSTATE 23505; ON CONFLICT DO
	// NOTHING already avoids that in practice, so any error reaching
	// here is a genuine failure and is returned as one. The warning path
	// exists for drivers/backends that surface ON CONFLICT races as
	// errors rather than no-ops.
	if strings.Contains(err.Error(), "23505") || strings.Contains(strings.ToLower(err.Error()), "duplicate key") {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: duplicate row for key %+v, skipped", table, key))
		return nil
	}
	return fmt.Errorf("metricsdb: writing %s: %w", table, err)
}

// Schema is the DDL for the five tables this sink writes to. Callers
// (migration tooling, test setup) execute it once against a fresh
// database; the sink itself never runs DDL.
const Schema = `
CREATE TABLE IF NOT EXISTS build_metrics (
	num_clusters_factor DOUBLE PRECISION NOT NULL,
	num_tables INTEGER NOT NULL,
	k INTEGER NOT NULL,
	delta REAL NOT NULL,
	dataset_name TEXT NOT NULL,
	commit_hash TEXT NOT NULL,
	dataset_len INTEGER NOT NULL,
	indexing_duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash)
);

CREATE TABLE IF NOT EXISTS build_metrics_cluster (
	num_clusters_factor DOUBLE PRECISION NOT NULL,
	num_tables INTEGER NOT NULL,
	k INTEGER NOT NULL,
	delta REAL NOT NULL,
	dataset_name TEXT NOT NULL,
	commit_hash TEXT NOT NULL,
	cluster_idx INTEGER NOT NULL,
	cluster_size INTEGER NOT NULL,
	memory_used_bytes BIGINT NOT NULL,
	PRIMARY KEY (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, cluster_idx),
	FOREIGN KEY (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash)
		REFERENCES build_metrics (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash)
);

CREATE TABLE IF NOT EXISTS search_metrics (
	num_clusters_factor DOUBLE PRECISION NOT NULL,
	num_tables INTEGER NOT NULL,
	k INTEGER NOT NULL,
	delta REAL NOT NULL,
	dataset_name TEXT NOT NULL,
	commit_hash TEXT NOT NULL,
	total_search_time_ms BIGINT NOT NULL,
	queries_per_second DOUBLE PRECISION NOT NULL,
	recall_mean DOUBLE PRECISION NOT NULL,
	recall_std DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash)
);

CREATE TABLE IF NOT EXISTS search_metrics_query (
	num_clusters_factor DOUBLE PRECISION NOT NULL,
	num_tables INTEGER NOT NULL,
	k INTEGER NOT NULL,
	delta REAL NOT NULL,
	dataset_name TEXT NOT NULL,
	commit_hash TEXT NOT NULL,
	query_idx INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	num_candidates INTEGER NOT NULL,
	distance_computations BIGINT NOT NULL,
	PRIMARY KEY (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, query_idx),
	FOREIGN KEY (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash)
		REFERENCES search_metrics (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash)
);

CREATE TABLE IF NOT EXISTS search_metrics_cluster (
	num_clusters_factor DOUBLE PRECISION NOT NULL,
	num_tables INTEGER NOT NULL,
	k INTEGER NOT NULL,
	delta REAL NOT NULL,
	dataset_name TEXT NOT NULL,
	commit_hash TEXT NOT NULL,
	query_idx INTEGER NOT NULL,
	cluster_idx INTEGER NOT NULL,
	num_candidates INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	distance_computations BIGINT NOT NULL,
	PRIMARY KEY (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, query_idx, cluster_idx),
	FOREIGN KEY (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, query_idx)
		REFERENCES search_metrics_query (num_clusters_factor, num_tables, k, delta, dataset_name, commit_hash, query_idx)
);
`
