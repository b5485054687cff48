package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/identity"
	"github.com/saramaebee/mcp-server/internal/workitem"
)

// GetTicketTool handles the get_ticket MCP tool.
type GetTicketTool struct {
	svc *workitem.Service
}

func NewGetTicketTool(svc *workitem.Service) *GetTicketTool {
	return &GetTicketTool{svc: svc}
}

func (t *GetTicketTool) Definition() mcp.Tool {
	return mcp.NewTool("get_ticket",
		mcp.WithDescription(
			"Get a DevRev ticket with its full timeline, attached artifacts, "+
				"and linked work items. Accepts TKT-123, a bare number, or a "+
				"full don: ID.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Ticket identifier. Example: TKT-12345 or 12345."),
		),
	)
}

func (t *GetTicketTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := strings.TrimSpace(req.GetString("id", ""))
	if raw == "" {
		return mcp.NewToolResultError("'id' is required — provide a ticket identifier"), nil
	}

	id := identity.Parse(raw)
	if id.Type == identity.TypeIssue {
		return mcp.NewToolResultError("'" + raw + "' is an issue identifier — use get_issue instead"), nil
	}

	doc, err := t.svc.Ticket(ctx, id.Number)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(doc), nil
}
