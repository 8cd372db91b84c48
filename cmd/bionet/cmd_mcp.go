package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/bionet/internal/mcp"
	"github.com/nvandessel/bionet/internal/store"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve bionet tools over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Tools: bionet_elect, bionet_runs, bionet_run, bionet_delete_run.
Resource: bionet://runs/latest.

Tool calls are recorded in ~/.bionet/audit.jsonl. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, tracer := newLogging(cfg, cmd.ErrOrStderr())
			defer tracer.Close()

			st, err := openStore(cfg)
			if err != nil {
				return err
			}

			auditDir, err := store.GlobalBionetPath()
			if err != nil {
				st.Close()
				return err
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "bionet",
				Version:  version,
				Store:    st,
				Defaults: cfg,
				Logger:   logger,
				Tracer:   tracer,
				AuditDir: auditDir,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			logger.Info("mcp server starting", "version", version)
			return server.Run(cmd.Context())
		},
	}
}
