package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/identity"
	"github.com/saramaebee/mcp-server/internal/workitem"
)

// GetIssueTool handles the get_issue MCP tool.
type GetIssueTool struct {
	svc *workitem.Service
}

func NewGetIssueTool(svc *workitem.Service) *GetIssueTool {
	return &GetIssueTool{svc: svc}
}

func (t *GetIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("get_issue",
		mcp.WithDescription(
			"Get a DevRev issue with its full timeline, attached artifacts, "+
				"and linked work items. Accepts ISS-456, a bare number, or a "+
				"full don: ID.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Issue identifier. Example: ISS-9031 or 9031."),
		),
	)
}

func (t *GetIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := strings.TrimSpace(req.GetString("id", ""))
	if raw == "" {
		return mcp.NewToolResultError("'id' is required — provide an issue identifier"), nil
	}

	id := identity.Parse(raw)
	if id.Type == identity.TypeTicket {
		return mcp.NewToolResultError("'" + raw + "' is a ticket identifier — use get_ticket instead"), nil
	}

	doc, err := t.svc.Issue(ctx, id.Number)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(doc), nil
}
