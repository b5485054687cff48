package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/devrev"
)

// SearchAPI is the search slice of the DevRev client.
type SearchAPI interface {
	SearchHybrid(ctx context.Context, query, namespace string) ([]devrev.SearchResult, error)
}

// validNamespaces contains the namespaces search.hybrid accepts.
var validNamespaces = map[string]bool{
	"article":  true,
	"issue":    true,
	"ticket":   true,
	"part":     true,
	"dev_user": true,
}

// SearchTool handles the search MCP tool.
type SearchTool struct {
	api SearchAPI
}

func NewSearchTool(api SearchAPI) *SearchTool {
	return &SearchTool{api: api}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("search",
		mcp.WithDescription(
			"Search DevRev using hybrid search. Returns matching objects "+
				"from the given namespace with enough context to follow up "+
				"with get_ticket, get_issue, or get_work.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query string."),
		),
		mcp.WithString("namespace",
			mcp.Required(),
			mcp.Description("Object namespace to search: article, issue, ticket, part, dev_user."),
			mcp.Enum("article", "issue", "ticket", "part", "dev_user"),
		),
	)
}

// searchHit is one rendered search result. Work hits carry navigation
// URIs; other namespaces pass the raw result through.
type searchHit struct {
	Type    string            `json:"type"`
	Snippet string            `json:"snippet,omitempty"`
	Work    *devrev.Work      `json:"work,omitempty"`
	Links   map[string]string `json:"links,omitempty"`
	Raw     json.RawMessage   `json:"raw,omitempty"`
}

// Handle processes the search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	namespace := req.GetString("namespace", "")

	if query == "" {
		return mcp.NewToolResultError("'query' is required — provide a search string"), nil
	}
	if !validNamespaces[namespace] {
		return mcp.NewToolResultError(fmt.Sprintf(
			"invalid namespace %q — use one of: article, issue, ticket, part, dev_user", namespace)), nil
	}

	results, err := t.api.SearchHybrid(ctx, query, namespace)
	if err != nil {
		return errorResult(err), nil
	}

	hits := make([]searchHit, 0, len(results))
	for _, r := range results {
		hit := searchHit{Type: r.Type, Snippet: r.Snippet}
		if r.Work != nil {
			hit.Work = r.Work
			hit.Links = workLinks(r.Work)
		} else {
			hit.Raw = r.Raw
		}
		hits = append(hits, hit)
	}

	out, err := json.MarshalIndent(map[string]any{
		"query":     query,
		"namespace": namespace,
		"results":   hits,
	}, "", "  ")
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// workLinks builds navigation URIs for a work item found via search.
func workLinks(w *devrev.Work) map[string]string {
	links := map[string]string{"work": "devrev://works/" + w.DisplayID}
	switch {
	case strings.HasPrefix(w.DisplayID, "TKT-"):
		n := strings.TrimPrefix(w.DisplayID, "TKT-")
		links["ticket"] = "devrev://tickets/" + n
		links["timeline"] = "devrev://tickets/" + n + "/timeline"
	case strings.HasPrefix(w.DisplayID, "ISS-"):
		n := strings.TrimPrefix(w.DisplayID, "ISS-")
		links["issue"] = "devrev://issues/" + n
		links["timeline"] = "devrev://issues/" + n + "/timeline"
	}
	return links
}
