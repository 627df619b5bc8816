// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Lets LLM agents ask questions and search the documents over stdio
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs Naradmuni as an MCP (Model Context Protocol) server, enabling LLM
agents like Claude to answer university questions from the indexed
documents via stdio.

Tools: ask_question, search_documents, index_status, rebuild_index.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  narad mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "naradmuni": {
  #       "command": "narad",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol, logs must stay on stderr
	a, err := openAppWithLogger(cmd, newLogger(os.Stderr))
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcpserver.NewMCPServer(
		"Naradmuni",
		versionInfo.Version,
	)

	handlers := mcp.RegisterTools(server, mcp.Deps{
		Answerer: a.answerer,
		Embedder: a.providers.Embedder,
		Index:    a.index,
		Ingester: a.pipeline,
		DocsDir:  a.cfg.DocsDir,
		Logger:   a.logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("MCP server starting on stdio", "collection", a.index.Name(), "state", a.index.State().String())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received, gracefully shutting down")
		handlers.Shutdown()
		a.logger.Info("shutdown complete")

	case err := <-serverErr:
		handlers.Shutdown()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
