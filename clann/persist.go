package clann

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/xDarkicex/clann/internal/annindex"
	"github.com/xDarkicex/clann/internal/container"
	"github.com/xDarkicex/clann/internal/metric"
)

// containerPath returns the default path pattern for a dataset/config
// pair: {dir}/index_{dataset}_k{factor:.2f}_L{tables}.clann.
func containerPath(dir string, cfg Config) string {
	name := fmt.Sprintf("index_%s_k%.2f_L%d.clann", cfg.DatasetName, cfg.NumClustersFactor, cfg.NumTables)
	return filepath.Join(dir, name)
}

type persistedConfig struct {
	Cfg Config
}

type persistedClusters struct {
	Clusters []Cluster
}

// Serialize writes the built index's config, cluster partition, and every
// non-brute-force cluster's sub-index to a single container file under
// dir, named by containerPath.
func (ix *Index) Serialize(ctx context.Context, dir string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if !ix.built {
		return newError(SerializeError, "Serialize", errNotBuilt)
	}

	cfgBytes, err := json.Marshal(persistedConfig{Cfg: ix.cfg})
	if err != nil {
		return newError(SerializeError, "Serialize", err)
	}
	clusterBytes, err := json.Marshal(persistedClusters{Clusters: ix.clusters})
	if err != nil {
		return newError(SerializeError, "Serialize", err)
	}

	sections := []container.Section{
		{Name: "config", Data: cfgBytes},
		{Name: "clusters", Data: clusterBytes},
	}

	for i, c := range ix.clusters {
		if c.BruteForce {
			continue
		}
		var buf bytes.Buffer
		if err := ix.opts.subIndex.Save(ctx, ix.subIndices[i], &buf); err != nil {
			return newError(SerializeError, "Serialize", err)
		}
		sections = append(sections, container.Section{
			Name: fmt.Sprintf("index_%d", i),
			Data: buf.Bytes(),
		})
	}

	path := containerPath(dir, ix.cfg)
	if err := container.Write(path, sections); err != nil {
		return newError(SerializeError, "Serialize", err)
	}
	return nil
}

// InitFromFile restores an Index previously written by Serialize. view
// must be the same dataset the index was built over (InitFromFile does
// not re-derive it from the container); only the clustering and
// sub-index state are restored.
func InitFromFile(ctx context.Context, view metric.View, path string, opts ...Option) (*Index, error) {
	sections, err := container.Read(path)
	if err != nil {
		return nil, newError(RestoreError, "InitFromFile", err)
	}

	cfgBytes, err := container.Find(sections, "config")
	if err != nil {
		return nil, newError(RestoreError, "InitFromFile", err)
	}
	var pc persistedConfig
	if err := json.Unmarshal(cfgBytes, &pc); err != nil {
		return nil, newError(RestoreError, "InitFromFile", err)
	}

	clusterBytes, err := container.Find(sections, "clusters")
	if err != nil {
		return nil, newError(RestoreError, "InitFromFile", err)
	}
	var pcs persistedClusters
	if err := json.Unmarshal(clusterBytes, &pcs); err != nil {
		return nil, newError(RestoreError, "InitFromFile", err)
	}

	ix, err := InitWithConfig(view, pc.Cfg, opts...)
	if err != nil {
		return nil, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.clusters = pcs.Clusters
	ix.subIndices = make([]annindex.Handle, len(pcs.Clusters))
	for i, c := range pcs.Clusters {
		if c.BruteForce {
			continue
		}
		data, err := container.Find(sections, fmt.Sprintf("index_%d", i))
		if err != nil {
			return nil, newError(RestoreError, "InitFromFile", err)
		}
		handle, err := ix.opts.subIndex.Load(ctx, bytes.NewReader(data))
		if err != nil {
			return nil, newError(RestoreError, "InitFromFile", err)
		}
		ix.subIndices[i] = handle
	}
	ix.built = true

	return ix, nil
}
