package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/workitem"
)

// GetWorkTool handles the get_work MCP tool. It accepts any identifier
// form and resolves bare numbers by probing tickets first, then issues.
type GetWorkTool struct {
	svc *workitem.Service
}

func NewGetWorkTool(svc *workitem.Service) *GetWorkTool {
	return &GetWorkTool{svc: svc}
}

func (t *GetWorkTool) Definition() mcp.Tool {
	return mcp.NewTool("get_work",
		mcp.WithDescription(
			"Get a DevRev work item (ticket or issue) with its full timeline, "+
				"artifacts, and linked work items. Accepts display IDs (TKT-123, "+
				"ISS-456), full don: IDs, or a bare number (tried as a ticket "+
				"first, then as an issue).",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Work item identifier in any accepted form."),
		),
	)
}

func (t *GetWorkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("'id' is required — provide a work item identifier"), nil
	}

	doc, err := t.svc.Work(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(doc), nil
}
