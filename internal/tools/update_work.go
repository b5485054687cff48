package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/devrev"
	"github.com/saramaebee/mcp-server/internal/workitem"
)

// UpdateObjectTool handles the update_object MCP tool. Successful updates
// invalidate the cached documents for the work item so the next read
// reflects the change.
type UpdateObjectTool struct {
	api MutateAPI
	svc *workitem.Service
}

func NewUpdateObjectTool(api MutateAPI, svc *workitem.Service) *UpdateObjectTool {
	return &UpdateObjectTool{api: api, svc: svc}
}

func (t *UpdateObjectTool) Definition() mcp.Tool {
	return mcp.NewTool("update_object",
		mcp.WithDescription(
			"Update the title or body of an existing DevRev ticket or issue. "+
				"At least one of title or body must be provided.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the work item to update. Example: TKT-12345 or ISS-9031."),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Work item type: ticket or issue."),
			mcp.Enum("ticket", "issue"),
		),
		mcp.WithString("title",
			mcp.Description("New title for the work item."),
		),
		mcp.WithString("body",
			mcp.Description("New body text for the work item."),
		),
	)
}

func (t *UpdateObjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	typ := req.GetString("type", "")
	title := req.GetString("title", "")
	body := req.GetString("body", "")

	if id == "" {
		return mcp.NewToolResultError("'id' is required — provide the work item to update"), nil
	}
	if typ != "ticket" && typ != "issue" {
		return mcp.NewToolResultError("'type' must be ticket or issue"), nil
	}
	if title == "" && body == "" {
		return mcp.NewToolResultError("nothing to update — provide a new title, a new body, or both"), nil
	}

	work, err := t.api.UpdateWork(ctx, devrev.UpdateWorkRequest{
		ID:    id,
		Type:  typ,
		Title: title,
		Body:  body,
	})
	if err != nil {
		return errorResult(err), nil
	}
	t.svc.Invalidate(id)

	out, err := json.MarshalIndent(map[string]any{"work": work}, "", "  ")
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
