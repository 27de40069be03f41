package clann

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MetricsOutput selects where SaveMetrics writes a run's accumulated
// metrics.
type MetricsOutput int

const (
	// MetricsNone disables SaveMetrics entirely; it is a no-op. Config
	// validation never dials out to check a DSN when this is set.
	MetricsNone MetricsOutput = iota
	// MetricsDB persists to the Postgres sink in internal/metricsdb.
	MetricsDB
)

// Config controls how an Index partitions its dataset and builds
// sub-indices.
type Config struct {
	// NumTables is the number of independent hash-family repetitions
	// each cluster's sub-index builds (§4.9).
	NumTables int `yaml:"num_tables"`

	// NumClustersFactor sets the number of clusters as
	// floor(NumClustersFactor * sqrt(N)).
	NumClustersFactor float64 `yaml:"num_clusters_factor"`

	// K is the maximum number of neighbors Search returns.
	K int `yaml:"k"`

	// Delta is the target per-cluster success probability passed to
	// each cluster's sub-index search.
	Delta float32 `yaml:"delta"`

	// DatasetName labels persisted metrics rows and the default
	// container file name.
	DatasetName string `yaml:"dataset_name"`

	// MetricsOutput selects whether SaveMetrics persists anywhere.
	MetricsOutput MetricsOutput `yaml:"-"`

	// BruteForceCutoff is the cluster-size threshold below which a
	// cluster is searched by brute force instead of through a
	// sub-index (invariant I3). Zero means "use the default of 100".
	BruteForceCutoff int `yaml:"brute_force_cutoff"`
}

// DefaultBruteForceCutoff is the invariant I3 constant: clusters with
// fewer than this many points are searched by brute force rather than
// through a built sub-index, since the sub-index's fixed overhead isn't
// worth paying for a handful of points. It is a tunable default, not a
// hard limit — see Config.BruteForceCutoff.
const DefaultBruteForceCutoff = 100

// DefaultConfig returns a Config with the invariant default for every
// field the spec documents a default for.
func DefaultConfig() Config {
	return Config{
		NumTables:         10,
		NumClustersFactor: 1.0,
		K:                 10,
		Delta:             0.9,
		MetricsOutput:     MetricsNone,
		BruteForceCutoff:  DefaultBruteForceCutoff,
	}
}

// validate checks the closed set of Config constraints. Called once by
// InitWithConfig/Init.
func (c Config) validate() error {
	if c.NumTables <= 0 {
		return newError(ConfigError, "validate", fmt.Errorf("num_tables must be positive, got %d", c.NumTables))
	}
	if c.NumClustersFactor <= 0 {
		return newError(ConfigError, "validate", fmt.Errorf("num_clusters_factor must be positive, got %f", c.NumClustersFactor))
	}
	if c.K <= 0 {
		return newError(ConfigError, "validate", fmt.Errorf("k must be positive, got %d", c.K))
	}
	if c.Delta <= 0 || c.Delta >= 1 {
		return newError(ConfigError, "validate", fmt.Errorf("delta must be in (0,1), got %f", c.Delta))
	}
	return nil
}

func (c Config) bruteForceCutoff() int {
	if c.BruteForceCutoff <= 0 {
		return DefaultBruteForceCutoff
	}
	return c.BruteForceCutoff
}

// LoadConfigFile loads a YAML-encoded Config from disk, for environments
// that want to version Config outside of Go source.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, newError(ConfigError, "LoadConfigFile", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, newError(ConfigError, "LoadConfigFile", err)
	}
	return cfg, nil
}
