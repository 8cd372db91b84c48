// Package config provides unified configuration loading for bionet.
// It supports loading from YAML or TOML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/bionet/internal/election"
	"github.com/nvandessel/bionet/internal/network"
)

// Dir is the per-user configuration directory, relative to the home directory.
const Dir = ".bionet"

// BionetConfig contains all bionet configuration settings.
type BionetConfig struct {
	// Network contains the topology parameters.
	Network NetworkConfig `json:"network" yaml:"network" toml:"network"`

	// Election contains the leader election parameters.
	Election ElectionConfig `json:"election" yaml:"election" toml:"election"`

	// Seed initializes the random source of every run.
	Seed uint64 `json:"seed" yaml:"seed" toml:"seed"`

	// Logging contains settings for operational logging and round tracing.
	Logging LoggingConfig `json:"logging" yaml:"logging" toml:"logging"`

	// Store configures the run journal.
	Store StoreConfig `json:"store" yaml:"store" toml:"store"`
}

// NetworkConfig configures topology construction.
type NetworkConfig struct {
	Cells         int `json:"cells" yaml:"cells" toml:"cells"`
	MaxDegree     int `json:"max_degree" yaml:"max_degree" toml:"max_degree"`
	Edges         int `json:"edges" yaml:"edges" toml:"edges"`
	BuildAttempts int `json:"build_attempts" yaml:"build_attempts" toml:"build_attempts"`
}

// ElectionConfig configures the leader election protocol.
type ElectionConfig struct {
	// AdjacentSites is the capacity of each cell's "adj" mailbox.
	AdjacentSites int `json:"adjacent_sites" yaml:"adjacent_sites" toml:"adjacent_sites"`

	// MaxRounds bounds a run. 0 means unbounded.
	MaxRounds int `json:"max_rounds" yaml:"max_rounds" toml:"max_rounds"`
}

// LoggingConfig configures bionet's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" and "trace" also write a round trace to TraceDir.
	Level string `json:"level" yaml:"level" toml:"level"`

	// TraceDir is where trace.jsonl is written. Empty disables tracing.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty" toml:"trace_dir"`
}

// StoreConfig configures where run records are kept.
type StoreConfig struct {
	// Backend is "sqlite" (default) or "memory".
	Backend string `json:"backend" yaml:"backend" toml:"backend"`

	// Path is the SQLite database file. Defaults to ~/.bionet/runs.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty" toml:"path"`
}

// Default returns a BionetConfig with sensible defaults.
func Default() *BionetConfig {
	netCfg := network.DefaultConfig()
	elCfg := election.DefaultConfig()
	return &BionetConfig{
		Network: NetworkConfig{
			Cells:         netCfg.Cells,
			MaxDegree:     netCfg.MaxDegree,
			Edges:         netCfg.Edges,
			BuildAttempts: netCfg.BuildAttempts,
		},
		Election: ElectionConfig{
			AdjacentSites: elCfg.AdjacentSites,
			MaxRounds:     elCfg.MaxRounds,
		},
		Seed: netCfg.Seed,
		Logging: LoggingConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Backend: "sqlite",
		},
	}
}

// Path returns the default configuration file, ~/.bionet/config.yaml.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, Dir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.bionet/config.yaml -> environment variables
func Load() (*BionetConfig, error) {
	config := Default()

	if configPath, err := Path(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadWithFile loads defaults, then the given file, then environment
// overrides. An empty path behaves like Load.
func LoadWithFile(path string) (*BionetConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific file. Files ending in
// .toml are decoded as TOML, everything else as YAML. Keys absent from the
// file keep their defaults.
func LoadFromFile(path string) (*BionetConfig, error) {
	config := Default()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	config.Logging.TraceDir = expandEnvVars(config.Logging.TraceDir)
	config.Store.Path = expandEnvVars(config.Store.Path)

	return config, nil
}

// Save writes the configuration as YAML, creating parent directories.
func Save(path string, c *BionetConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *BionetConfig) Validate() error {
	n := c.Network
	if n.Cells < 0 || n.MaxDegree < 0 || n.Edges < 0 {
		return fmt.Errorf("network sizes must be non-negative, got cells=%d max_degree=%d edges=%d",
			n.Cells, n.MaxDegree, n.Edges)
	}
	if limit := network.Capacity(n.Cells, n.MaxDegree); n.Edges > limit {
		return fmt.Errorf("edges must be at most %d for %d cells with max_degree %d, got %d",
			limit, n.Cells, n.MaxDegree, n.Edges)
	}
	if n.BuildAttempts < 0 {
		return fmt.Errorf("build_attempts must be non-negative, got %d", n.BuildAttempts)
	}

	if c.Election.AdjacentSites < 0 {
		return fmt.Errorf("adjacent_sites must be non-negative, got %d", c.Election.AdjacentSites)
	}
	if c.Election.MaxRounds < 0 {
		return fmt.Errorf("max_rounds must be non-negative, got %d", c.Election.MaxRounds)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	validBackends := map[string]bool{"": true, "sqlite": true, "memory": true}
	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("invalid store backend: %s (valid: sqlite, memory)", c.Store.Backend)
	}

	return nil
}

// NetworkConfig converts the network section to the engine's configuration.
func (c *BionetConfig) NetworkConfig() network.Config {
	return network.Config{
		Cells:         c.Network.Cells,
		MaxDegree:     c.Network.MaxDegree,
		Edges:         c.Network.Edges,
		Seed:          c.Seed,
		BuildAttempts: c.Network.BuildAttempts,
	}
}

// ElectionConfig converts the election section to the protocol's configuration.
func (c *BionetConfig) ElectionConfig() election.Config {
	return election.Config{
		AdjacentSites: c.Election.AdjacentSites,
		MaxRounds:     c.Election.MaxRounds,
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
// Unparseable numbers are ignored.
func applyEnvOverrides(config *BionetConfig) {
	envInt("BIONET_CELLS", &config.Network.Cells)
	envInt("BIONET_MAX_DEGREE", &config.Network.MaxDegree)
	envInt("BIONET_EDGES", &config.Network.Edges)
	envInt("BIONET_BUILD_ATTEMPTS", &config.Network.BuildAttempts)
	envInt("BIONET_ADJACENT_SITES", &config.Election.AdjacentSites)
	envInt("BIONET_MAX_ROUNDS", &config.Election.MaxRounds)

	if v := os.Getenv("BIONET_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Seed = n
		}
	}

	if v := os.Getenv("BIONET_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("BIONET_TRACE_DIR"); v != "" {
		config.Logging.TraceDir = v
	}
	if v := os.Getenv("BIONET_STORE"); v != "" {
		config.Store.Backend = v
	}
	if v := os.Getenv("BIONET_STORE_PATH"); v != "" {
		config.Store.Path = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
