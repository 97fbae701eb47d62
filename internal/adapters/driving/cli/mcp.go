package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/mcp"
)

// Range searched by --http when no port is given.
const (
	mcpPortFirst = 8420
	mcpPortLast  = 8440
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes the tools ask, search and reset_conversation, and the
resources ragchat://index and ragchat://history.

By default, the server communicates over stdio using JSON-RPC. Use --port
to serve over HTTP instead, or --http to pick a free local port.

Examples:
  # Stdio mode (default)
  ragchat mcp serve

  # HTTP mode
  ragchat mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "ragchat": {
        "command": "/path/to/ragchat",
        "args": ["mcp", "serve", "--data-dir", "/path/to/docs"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("http", false, "serve over HTTP on the first free port from 8420")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	useHTTP, err := cmd.Flags().GetBool("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}
	if useHTTP && port == 0 {
		port, err = mcp.FindAvailablePort("127.0.0.1", mcpPortFirst, mcpPortLast)
		if err != nil {
			return err
		}
	}

	chat, closeFn, err := openChat(cmd, false)
	if err != nil {
		return err
	}
	defer closeFn()

	server, err := mcp.NewServer(&mcp.Ports{Chat: chat})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := net.JoinHostPort("localhost", strconv.Itoa(port))
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
