package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/bionet/internal/config"
	"github.com/nvandessel/bionet/internal/logging"
	"github.com/nvandessel/bionet/internal/store"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bionet",
		Short: "Bioelectric cell network simulator",
		Long: `bionet simulates networks of cells that communicate by shedding ligands
onto their neighbors' membranes and react through bioelectric potential.

It runs a leader election protocol over random or explicit topologies and
journals every run for later inspection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.bionet/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newElectCmd(),
		newRunsCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

// loadConfig loads configuration honoring the --config and --log-level
// flags.
func loadConfig(cmd *cobra.Command) (*config.BionetConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configPath returns the file config set writes to.
func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.Path()
}

// newLogging builds the stderr logger and, when a trace directory is
// configured, the round tracer.
func newLogging(cfg *config.BionetConfig, w io.Writer) (*slog.Logger, *logging.Tracer) {
	logger := logging.NewLogger(cfg.Logging.Level, w)
	var tracer *logging.Tracer
	if cfg.Logging.TraceDir != "" {
		tracer = logging.NewTracer(cfg.Logging.TraceDir, cfg.Logging.Level)
	}
	return logger, tracer
}

func openStore(cfg *config.BionetConfig) (store.RunStore, error) {
	st, err := store.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return st, nil
}
