// DevRev MCP Server
//
// Exposes DevRev tickets, issues, timelines, and artifacts to MCP hosts
// over stdio transport.
//
// Usage:
//
//	devrev-mcp serve      # Start MCP server (stdio transport)
//	devrev-mcp version    # Print version
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpserver "github.com/saramaebee/mcp-server/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("devrev-mcp v%s\n", mcpserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, err := mcpserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `devrev-mcp — DevRev MCP server

Usage:
  devrev-mcp serve      Start the MCP server on stdio
  devrev-mcp version    Print version
  devrev-mcp help       Show this help

Configuration (environment):
  DEVREV_API_KEY        DevRev API token (required)
  DEVREV_BASE_URL       API base URL (default https://api.devrev.ai)
  DEVREV_TIMEOUT        API request timeout (default 30s)
  DEVREV_CACHE_SIZE     Document cache capacity (default 500)
  LOG_LEVEL             debug, info, warn, error (default info)
  LOG_FORMAT            text or json (default text)
`)
}
