// Package mcp provides an MCP (Model Context Protocol) server for bionet.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/bionet/internal/config"
	"github.com/nvandessel/bionet/internal/logging"
	"github.com/nvandessel/bionet/internal/ratelimit"
	"github.com/nvandessel/bionet/internal/session"
	"github.com/nvandessel/bionet/internal/store"
)

// MaxCells bounds the size of a network requested over MCP.
const MaxCells = 10000

// Server wraps the MCP SDK server and exposes election runs as tools.
type Server struct {
	server       *sdk.Server
	store        store.RunStore
	runner       *session.Runner
	defaults     *config.BionetConfig
	logger       *slog.Logger
	auditLogger  *AuditLogger
	toolLimiters ratelimit.Tools
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "bionet")
	Version string // Server version

	// Store journals every run. Required; the server closes it.
	Store store.RunStore

	// Defaults fill in parameters a tool call omits. Nil uses config.Default.
	Defaults *config.BionetConfig

	Logger *slog.Logger
	Tracer *logging.Tracer

	// AuditDir receives audit.jsonl. Empty disables the audit log.
	AuditDir string
}

// NewServer creates a new MCP server with bionet tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("mcp: a run store is required")
	}
	defaults := cfg.Defaults
	if defaults == nil {
		defaults = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		store:        cfg.Store,
		runner:       session.NewRunner(cfg.Store, logger, cfg.Tracer),
		defaults:     defaults,
		logger:       logger,
		toolLimiters: ratelimit.NewTools(),
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	if err := s.registerTools(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	if err := s.registerResources(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to register resources: %w", err)
	}

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			s.logger.Info("shutting down mcp server")
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Close closes the server and releases resources.
func (s *Server) Close() error {
	s.auditLogger.Close()
	return s.store.Close()
}
