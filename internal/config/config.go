// Package config holds the netsense run configuration: simulation folders,
// the network edits to apply, comparison keys and threshold, and the engine
// command.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"netsense/internal/network"
)

// Fixed filenames the engine reads and writes inside a simulation directory.
const (
	LinkPerformanceFile = "link_performance.csv"
	ODPerformanceFile   = "od_performance.csv"

	LinkComparisonFile = "link_performance_comparison.csv"
	ODComparisonFile   = "od_performance_comparison.csv"
)

// Config is the full netsense configuration.
type Config struct {
	// NetworkFile is the link table filename inside ModifiedDir.
	NetworkFile string `yaml:"network_file" validate:"required"`

	// BaselineDir and ModifiedDir hold the two simulation runs. They must
	// not overlap: the engine reads and writes fixed filenames inside them.
	// Validate compares the resolved paths, not the raw strings.
	BaselineDir string `yaml:"baseline_dir" validate:"required"`
	ModifiedDir string `yaml:"modified_dir" validate:"required"`

	// OutputDir receives the two comparison CSVs.
	OutputDir string `yaml:"output_dir" validate:"required"`

	// LinkKeyColumns override the columns the link comparison joins on.
	LinkKeyColumns []string `yaml:"link_key_columns" validate:"min=1"`

	// Threshold is the inclusive significance boundary for metric deltas.
	Threshold float64 `yaml:"threshold" validate:"gte=0"`

	// Modifications are the link patches applied before the modified run.
	Modifications []network.Patch `yaml:"modifications"`

	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig configures the external assignment engine subprocess.
type EngineConfig struct {
	Command string        `yaml:"command" validate:"required"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns the configuration matching the engine's GMNS
// conventions: link.csv network file, Before/After run folders, comparison
// keyed on the link endpoint pair.
func DefaultConfig() *Config {
	return &Config{
		NetworkFile:    "link.csv",
		BaselineDir:    "Before",
		ModifiedDir:    "After",
		OutputDir:      ".",
		LinkKeyColumns: []string{network.ColFromNodeID, network.ColToNodeID},
		Threshold:      0,
		Engine: EngineConfig{
			Command: "DTALite",
			Timeout: 2 * time.Hour,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a yaml config file, applies env overrides and validates the
// result. Fields absent from the file keep their defaults. An empty path
// yields the validated defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as yaml.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks structural constraints (non-empty dirs, threshold >= 0,
// at least one link key column, distinct run folders).
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	baseline, err := filepath.Abs(c.BaselineDir)
	if err != nil {
		return fmt.Errorf("invalid baseline_dir: %w", err)
	}
	modified, err := filepath.Abs(c.ModifiedDir)
	if err != nil {
		return fmt.Errorf("invalid modified_dir: %w", err)
	}
	if baseline == modified {
		return fmt.Errorf("invalid config: baseline_dir and modified_dir resolve to the same directory %s", baseline)
	}
	return nil
}

// applyEnvOverrides lets the environment replace the engine command, so CI
// and tests can point netsense at a stub engine without editing the config.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NETSENSE_ENGINE"); v != "" {
		c.Engine.Command = v
	}
}
