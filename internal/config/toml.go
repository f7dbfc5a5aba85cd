// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Compute ComputeConfig `toml:"compute"`
	Input   InputConfig   `toml:"input"`
	Output  OutputConfig  `toml:"output"`
}

// ComputeConfig maps coefficient settings.
type ComputeConfig struct {
	Metric        *string  `toml:"metric"`
	CategoryOrder []string `toml:"category-order"`
	Cycle         *float64 `toml:"cycle"`
	Verbose       *bool    `toml:"verbose"`
}

// InputConfig maps loader settings.
type InputConfig struct {
	Missing         []string `toml:"missing"`
	ItemColumn      *string  `toml:"item-column"`
	Delimiter       *string  `toml:"delimiter"`
	Table           *string  `toml:"table"`
	AnnotatorColumn *string  `toml:"annotator-column"`
	LabelColumn     *string  `toml:"label-column"`
}

// OutputConfig maps rendering settings.
type OutputConfig struct {
	Color *bool `toml:"color"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
