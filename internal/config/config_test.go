package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Network.Cells != 10 || config.Network.MaxDegree != 3 || config.Network.Edges != 12 {
		t.Errorf("unexpected network defaults: %+v", config.Network)
	}
	if config.Network.BuildAttempts != 100 {
		t.Errorf("expected BuildAttempts 100, got %d", config.Network.BuildAttempts)
	}
	if config.Election.AdjacentSites != 1 {
		t.Errorf("expected AdjacentSites 1, got %d", config.Election.AdjacentSites)
	}
	if config.Election.MaxRounds != 10000 {
		t.Errorf("expected MaxRounds 10000, got %d", config.Election.MaxRounds)
	}
	if config.Seed != 1 {
		t.Errorf("expected Seed 1, got %d", config.Seed)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
	if config.Store.Backend != "sqlite" {
		t.Errorf("expected Store.Backend 'sqlite', got '%s'", config.Store.Backend)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
network:
  cells: 50
  max_degree: 4
  edges: 80
election:
  adjacent_sites: 2
seed: 42
logging:
  level: debug
store:
  backend: memory
`)

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Network.Cells != 50 || config.Network.MaxDegree != 4 || config.Network.Edges != 80 {
		t.Errorf("unexpected network: %+v", config.Network)
	}
	if config.Network.BuildAttempts != 100 {
		t.Errorf("absent key should keep default, got BuildAttempts %d", config.Network.BuildAttempts)
	}
	if config.Election.AdjacentSites != 2 {
		t.Errorf("expected AdjacentSites 2, got %d", config.Election.AdjacentSites)
	}
	if config.Election.MaxRounds != 10000 {
		t.Errorf("absent key should keep default, got MaxRounds %d", config.Election.MaxRounds)
	}
	if config.Seed != 42 {
		t.Errorf("expected Seed 42, got %d", config.Seed)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
	if config.Store.Backend != "memory" {
		t.Errorf("expected Store.Backend 'memory', got '%s'", config.Store.Backend)
	}
}

func TestLoadFromFile_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
seed = 7

[network]
cells = 20
max_degree = 2
edges = 19

[election]
max_rounds = 500

[logging]
level = "trace"
`)

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Seed != 7 {
		t.Errorf("expected Seed 7, got %d", config.Seed)
	}
	if config.Network.Cells != 20 || config.Network.MaxDegree != 2 || config.Network.Edges != 19 {
		t.Errorf("unexpected network: %+v", config.Network)
	}
	if config.Election.MaxRounds != 500 {
		t.Errorf("expected MaxRounds 500, got %d", config.Election.MaxRounds)
	}
	if config.Election.AdjacentSites != 1 {
		t.Errorf("absent key should keep default, got AdjacentSites %d", config.Election.AdjacentSites)
	}
	if config.Logging.Level != "trace" {
		t.Errorf("expected Logging.Level 'trace', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_BIONET_DIR", "/tmp/bionet-test")
	path := writeFile(t, "config.yaml", `
store:
  path: ${TEST_BIONET_DIR}/runs.db
logging:
  trace_dir: ${TEST_BIONET_DIR}
`)

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if config.Store.Path != "/tmp/bionet-test/runs.db" {
		t.Errorf("expected expanded store path, got '%s'", config.Store.Path)
	}
	if config.Logging.TraceDir != "/tmp/bionet-test" {
		t.Errorf("expected expanded trace dir, got '%s'", config.Logging.TraceDir)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		if _, err := LoadFromFile(filepath.Join("/nonexistent/path", name)); err == nil {
			t.Errorf("expected error for nonexistent %s", name)
		}
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "config.yaml", "network:\n  cells: [invalid yaml\n"},
		{"toml", "config.toml", "[network\ncells = 3\n"},
		{"yaml type mismatch", "config.yml", "network:\n  cells: many\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromFile(writeFile(t, tt.file, tt.content)); err == nil {
				t.Error("expected error for invalid config")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BIONET_CELLS", "30")
	t.Setenv("BIONET_MAX_DEGREE", "5")
	t.Setenv("BIONET_EDGES", "40")
	t.Setenv("BIONET_SEED", "12345")
	t.Setenv("BIONET_ADJACENT_SITES", "3")
	t.Setenv("BIONET_MAX_ROUNDS", "99")
	t.Setenv("BIONET_LOG_LEVEL", "debug")
	t.Setenv("BIONET_STORE", "memory")
	t.Setenv("BIONET_STORE_PATH", "/var/lib/bionet/runs.db")

	config := Default()
	applyEnvOverrides(config)

	if config.Network.Cells != 30 || config.Network.MaxDegree != 5 || config.Network.Edges != 40 {
		t.Errorf("unexpected network: %+v", config.Network)
	}
	if config.Seed != 12345 {
		t.Errorf("expected Seed 12345, got %d", config.Seed)
	}
	if config.Election.AdjacentSites != 3 || config.Election.MaxRounds != 99 {
		t.Errorf("unexpected election: %+v", config.Election)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
	if config.Store.Backend != "memory" || config.Store.Path != "/var/lib/bionet/runs.db" {
		t.Errorf("unexpected store: %+v", config.Store)
	}
}

func TestEnvOverrides_IgnoresBadNumbers(t *testing.T) {
	t.Setenv("BIONET_CELLS", "lots")
	t.Setenv("BIONET_SEED", "-1")

	config := Default()
	applyEnvOverrides(config)

	if config.Network.Cells != 10 {
		t.Errorf("expected Cells to keep default 10, got %d", config.Network.Cells)
	}
	if config.Seed != 1 {
		t.Errorf("expected Seed to keep default 1, got %d", config.Seed)
	}
}

func TestLoadWithFile_EnvWins(t *testing.T) {
	path := writeFile(t, "config.yaml", "seed: 5\n")
	t.Setenv("BIONET_SEED", "6")

	config, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile failed: %v", err)
	}
	if config.Seed != 6 {
		t.Errorf("expected env seed 6, got %d", config.Seed)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	config := Default()
	config.Seed = 77
	config.Network.Cells = 15

	if err := Save(path, config); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Seed != 77 || loaded.Network.Cells != 15 {
		t.Errorf("round trip lost values: seed=%d cells=%d", loaded.Seed, loaded.Network.Cells)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *BionetConfig)
		wantErr bool
	}{
		{"default", func(c *BionetConfig) {}, false},
		{"negative cells", func(c *BionetConfig) { c.Network.Cells = -1 }, true},
		{"too many edges", func(c *BionetConfig) { c.Network.Cells, c.Network.MaxDegree, c.Network.Edges = 3, 2, 4 }, true},
		{"exactly at capacity", func(c *BionetConfig) { c.Network.Cells, c.Network.MaxDegree, c.Network.Edges = 3, 2, 3 }, false},
		{"negative build attempts", func(c *BionetConfig) { c.Network.BuildAttempts = -1 }, true},
		{"negative adjacent sites", func(c *BionetConfig) { c.Election.AdjacentSites = -2 }, true},
		{"negative max rounds", func(c *BionetConfig) { c.Election.MaxRounds = -1 }, true},
		{"unbounded rounds", func(c *BionetConfig) { c.Election.MaxRounds = 0 }, false},
		{"invalid log level", func(c *BionetConfig) { c.Logging.Level = "verbose" }, true},
		{"empty log level", func(c *BionetConfig) { c.Logging.Level = "" }, false},
		{"trace log level", func(c *BionetConfig) { c.Logging.Level = "trace" }, false},
		{"invalid backend", func(c *BionetConfig) { c.Store.Backend = "postgres" }, true},
		{"memory backend", func(c *BionetConfig) { c.Store.Backend = "memory" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	config := Default()
	config.Seed = 9
	config.Network.Cells = 4
	config.Election.AdjacentSites = 2

	netCfg := config.NetworkConfig()
	if netCfg.Seed != 9 || netCfg.Cells != 4 || netCfg.BuildAttempts != 100 {
		t.Errorf("unexpected network config: %+v", netCfg)
	}
	elCfg := config.ElectionConfig()
	if elCfg.AdjacentSites != 2 || elCfg.MaxRounds != 10000 {
		t.Errorf("unexpected election config: %+v", elCfg)
	}
}
