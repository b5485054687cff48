// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it loads configuration, creates the
// concrete client, cache, and enrichment services, and injects them into
// the tools and resources that depend on them. No business logic lives
// here — only wiring.
package server

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/saramaebee/mcp-server/internal/cache"
	"github.com/saramaebee/mcp-server/internal/config"
	"github.com/saramaebee/mcp-server/internal/devrev"
	"github.com/saramaebee/mcp-server/internal/links"
	"github.com/saramaebee/mcp-server/internal/resources"
	"github.com/saramaebee/mcp-server/internal/timeline"
	"github.com/saramaebee/mcp-server/internal/tools"
	"github.com/saramaebee/mcp-server/internal/workitem"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools and resources
// registered. This is the single place where all dependencies are
// resolved.
func New() (*server.MCPServer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg.Log)

	// --- Create shared dependencies ---

	client, err := devrev.NewClient(cfg.DevRev.BaseURL, cfg.DevRev.APIKey, cfg.DevRev.Timeout)
	if err != nil {
		return nil, fmt.Errorf("creating DevRev client: %w", err)
	}

	docCache, err := cache.New(cfg.Cache.Size)
	if err != nil {
		return nil, fmt.Errorf("creating document cache: %w", err)
	}

	paginator := timeline.NewPaginator(client, log)
	resolver := links.NewResolver(client, log)
	svc := workitem.NewService(client, paginator, resolver, docCache, log)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"devrev-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	searchTool := tools.NewSearchTool(client)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	getWorkTool := tools.NewGetWorkTool(svc)
	s.AddTool(getWorkTool.Definition(), getWorkTool.Handle)

	getTicketTool := tools.NewGetTicketTool(svc)
	s.AddTool(getTicketTool.Definition(), getTicketTool.Handle)

	getIssueTool := tools.NewGetIssueTool(svc)
	s.AddTool(getIssueTool.Definition(), getIssueTool.Handle)

	timelineTool := tools.NewGetTimelineEntriesTool(svc)
	s.AddTool(timelineTool.Definition(), timelineTool.Handle)

	createTool := tools.NewCreateObjectTool(client)
	s.AddTool(createTool.Definition(), createTool.Handle)

	updateTool := tools.NewUpdateObjectTool(client, svc)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	commentTool := tools.NewCreateTimelineCommentTool(client, svc)
	s.AddTool(commentTool.Definition(), commentTool.Handle)

	downloadTool := tools.NewDownloadArtifactTool(client)
	s.AddTool(downloadTool.Definition(), downloadTool.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(svc)
	for tpl, handle := range resourceHandler.Templates() {
		s.AddResourceTemplate(*tpl, handle)
	}

	log.Info("server configured",
		"base_url", cfg.DevRev.BaseURL,
		"cache_size", cfg.Cache.Size,
	)
	return s, nil
}

// newLogger builds the process logger. Output always goes to stderr —
// stdout carries the MCP protocol stream.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func serverInstructions() string {
	return strings.TrimSpace(`
This server exposes DevRev tickets, issues, timelines, and artifacts.

Start with the search tool to find work items, then use get_ticket,
get_issue, or get_work for the full picture: the complete timeline,
attached artifacts, and linked work items. Identifiers are flexible —
TKT-123, ISS-456, bare numbers, and full don: IDs all work.

Use get_timeline_entries with format=summary for a quick conversation
overview, or format=detailed for the full thread. Results carry
devrev:// resource URIs for follow-up reads.

Writes go through create_object, update_object, and
create_timeline_comment. Comments are posted with internal visibility.
`)
}
