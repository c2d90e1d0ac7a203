package config

import (
	"fmt"
	"os"

	"github.com/sblinch/kdl-go"
)

// projectFile mirrors a small subset of the teacher's own .lci.kdl
// project file: scan include/exclude overrides layered on top of the
// env-backed Config, never replacing the persistent store or cache
// connection parameters.
type projectFile struct {
	Exclude []string `kdl:"exclude"`
	Include []string `kdl:"include"`
}

// ApplyProjectFile reads path (typically ".csearch.kdl") and merges its
// exclude patterns into cfg.ScanExclude and its include patterns into
// cfg.ScanInclude. A missing file is not an
// error — the project file is an optional convenience layer.
func ApplyProjectFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: reading project file %s: %w", path, err)
	}

	var pf projectFile
	if err := kdl.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("config: parsing project file %s: %w", path, err)
	}
	cfg.ScanExclude = append(cfg.ScanExclude, pf.Exclude...)
	cfg.ScanInclude = append(cfg.ScanInclude, pf.Include...)
	return nil
}
