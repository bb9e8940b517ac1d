package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/mailtriage/internal/config"
	"github.com/fyrsmithlabs/mailtriage/internal/logging"
	"github.com/fyrsmithlabs/mailtriage/internal/mcpserver"
	"github.com/fyrsmithlabs/mailtriage/internal/scheduler"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the calendar tools over MCP stdio",
	Long: `Expose check_working_day, get_calendar_events, add_calendar_event and
delete_calendar_event as an MCP server on stdin/stdout, backed by the same
calendar store the run command uses. Intended to be launched by an MCP host.

Examples:
  # Serve with defaults
  mailtriage mcp

  # Serve against the sqlite backend
  MAILTRIAGE_CALENDAR_BACKEND=sqlite mailtriage mcp`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Logs go to stderr, keeping stdout clean for the MCP transport.
	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open calendar store: %w", err)
	}
	defer store.Close()

	srvCfg := mcpserver.DefaultConfig()
	srvCfg.Version = version
	srvCfg.Logger = logger

	srv, err := mcpserver.NewServer(srvCfg, scheduler.NewToolset(store))
	if err != nil {
		return err
	}
	return srv.Run(cmd.Context())
}
