package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/devrev"
)

// MutateAPI is the write slice of the DevRev client.
type MutateAPI interface {
	CreateWork(ctx context.Context, req devrev.CreateWorkRequest) (*devrev.Work, error)
	UpdateWork(ctx context.Context, req devrev.UpdateWorkRequest) (*devrev.Work, error)
	CreateTimelineComment(ctx context.Context, objectID, body string) (*devrev.TimelineEntry, error)
}

// CreateObjectTool handles the create_object MCP tool.
type CreateObjectTool struct {
	api MutateAPI
}

func NewCreateObjectTool(api MutateAPI) *CreateObjectTool {
	return &CreateObjectTool{api: api}
}

func (t *CreateObjectTool) Definition() mcp.Tool {
	return mcp.NewTool("create_object",
		mcp.WithDescription(
			"Create a new DevRev ticket or issue. Requires a title and the "+
				"part or enhancement the work applies to.",
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Work item type to create: ticket or issue."),
			mcp.Enum("ticket", "issue"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the work item."),
		),
		mcp.WithString("applies_to_part",
			mcp.Required(),
			mcp.Description("ID of the part or enhancement the work applies to. Example: PROD-123."),
		),
		mcp.WithString("body",
			mcp.Description("Body text of the work item."),
		),
		mcp.WithString("owned_by",
			mcp.Description("Comma-separated list of user IDs to assign as owners."),
		),
	)
}

func (t *CreateObjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := req.GetString("type", "")
	title := strings.TrimSpace(req.GetString("title", ""))
	appliesTo := strings.TrimSpace(req.GetString("applies_to_part", ""))

	if typ != "ticket" && typ != "issue" {
		return mcp.NewToolResultError("'type' must be ticket or issue"), nil
	}
	if title == "" {
		return mcp.NewToolResultError("'title' is required — provide a title for the work item"), nil
	}
	if appliesTo == "" {
		return mcp.NewToolResultError("'applies_to_part' is required — provide the part the work applies to"), nil
	}

	work, err := t.api.CreateWork(ctx, devrev.CreateWorkRequest{
		Type:      typ,
		Title:     title,
		AppliesTo: appliesTo,
		Body:      req.GetString("body", ""),
		OwnedBy:   splitList(req.GetString("owned_by", "")),
	})
	if err != nil {
		return errorResult(err), nil
	}

	out, err := json.MarshalIndent(map[string]any{"work": work}, "", "  ")
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// splitList splits a comma-separated parameter into trimmed, non-empty
// elements.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
