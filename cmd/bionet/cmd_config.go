package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nvandessel/bionet/internal/config"
)

// configKeys lists the settable keys in display order.
var configKeys = []string{
	"network.cells",
	"network.max_degree",
	"network.edges",
	"network.build_attempts",
	"election.adjacent_sites",
	"election.max_rounds",
	"seed",
	"logging.level",
	"logging.trace_dir",
	"store.backend",
	"store.path",
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bionet configuration",
		Long: `View and modify bionet configuration settings.

Configuration is stored in ~/.bionet/config.yaml unless --config names
another file. Environment variables (BIONET_*) override file values.

Examples:
  bionet config list                       # Show all settings
  bionet config get network.cells          # Get a specific setting
  bionet config set network.cells 50       # Set a setting
  bionet config set store.backend memory`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}
			for _, key := range configKeys {
				value, _ := getConfigValue(cfg, key)
				fmt.Fprintf(out, "%-24s %v\n", key+":", valueOrDefault(fmt.Sprint(value), "(not set)"))
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key, value := args[0], args[1]

			path, err := configPath(cmd)
			if err != nil {
				return err
			}

			// Start from the file alone so environment overrides are not
			// persisted.
			cfg, err := config.LoadFromFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				cfg, err = config.Default(), nil
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if err := config.Save(path, cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status": "updated",
					"key":    key,
					"value":  value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.BionetConfig, key string) (interface{}, bool) {
	switch key {
	case "network.cells":
		return cfg.Network.Cells, true
	case "network.max_degree":
		return cfg.Network.MaxDegree, true
	case "network.edges":
		return cfg.Network.Edges, true
	case "network.build_attempts":
		return cfg.Network.BuildAttempts, true
	case "election.adjacent_sites":
		return cfg.Election.AdjacentSites, true
	case "election.max_rounds":
		return cfg.Election.MaxRounds, true
	case "seed":
		return cfg.Seed, true
	case "logging.level":
		return cfg.Logging.Level, true
	case "logging.trace_dir":
		return cfg.Logging.TraceDir, true
	case "store.backend":
		return cfg.Store.Backend, true
	case "store.path":
		return cfg.Store.Path, true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.BionetConfig, key, value string) error {
	intField := func(dst *int) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %s", key, value)
		}
		*dst = v
		return nil
	}

	switch key {
	case "network.cells":
		return intField(&cfg.Network.Cells)
	case "network.max_degree":
		return intField(&cfg.Network.MaxDegree)
	case "network.edges":
		return intField(&cfg.Network.Edges)
	case "network.build_attempts":
		return intField(&cfg.Network.BuildAttempts)
	case "election.adjacent_sites":
		return intField(&cfg.Election.AdjacentSites)
	case "election.max_rounds":
		return intField(&cfg.Election.MaxRounds)
	case "seed":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %s", value)
		}
		cfg.Seed = v
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.trace_dir":
		cfg.Logging.TraceDir = value
	case "store.backend":
		cfg.Store.Backend = value
	case "store.path":
		cfg.Store.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func valueOrDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
