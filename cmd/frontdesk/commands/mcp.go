// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents ask the front desk, read policies and search knowledge via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/frontdesk/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the front desk as an MCP (Model Context Protocol) server, enabling
LLM agents to ask questions, read policies, search approved knowledge and
review the escalation queue via stdio. Logs go to stderr so stdout stays
reserved for the protocol.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an agent host)
  frontdesk mcp

  # Configure in the host's config file:
  # {
  #   "mcpServers": {
  #     "frontdesk": {
  #       "command": "frontdesk",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(os.Stderr, cfg, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer a.Close()

	server := mcpserver.NewMCPServer(
		"Front Desk",
		versionInfo.Version,
	)
	mcp.RegisterTools(server, mcp.Deps{
		Conversations: a.conv,
		Sessions:      a.store.Sessions,
		Policies:      a.store.Policies,
		Retriever:     a.engine,
		Tickets:       a.store.Tickets,
		Logger:        logger,
	})

	if !quiet {
		logger.Info("MCP server starting on stdio")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		if !quiet {
			logger.Info("shutdown signal received")
		}
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
