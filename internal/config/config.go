// Package config loads the fwbuild configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when -c is not given.
const DefaultPath = "fwbuild.yaml"

// Config represents the tool configuration.
type Config struct {
	// HwdefDirs are the hardware-definition root directories, relative to
	// the source tree.
	HwdefDirs []string `yaml:"hwdef_dirs"`
	// Boards optionally restricts the board registry to the named boards.
	Boards []string `yaml:"boards,omitempty"`
	// ScratchDir is the base for per-run scratch directories. Empty uses
	// the system temp directory.
	ScratchDir string `yaml:"scratch_dir,omitempty"`
	// MasterBranch is the default comparison branch.
	MasterBranch string `yaml:"master_branch,omitempty"`
}

// Load loads configuration from the specified file. A missing file yields the
// built-in defaults so the tool works out of the box inside a firmware tree.
func Load(configPath string) (*Config, error) {
	// Load .env if present; existing process environment wins.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.HwdefDirs) == 0 {
		cfg.HwdefDirs = []string{
			"libraries/AP_HAL_ChibiOS/hwdef",
			"Tools/AP_Periph/hwdef",
		}
	}
	if cfg.MasterBranch == "" {
		cfg.MasterBranch = "master"
	}
}
