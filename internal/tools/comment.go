package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/workitem"
)

// CreateTimelineCommentTool handles the create_timeline_comment MCP tool.
// Comments are posted with internal visibility; the cached timeline for
// the work item is invalidated so the next read includes the comment.
type CreateTimelineCommentTool struct {
	api MutateAPI
	svc *workitem.Service
}

func NewCreateTimelineCommentTool(api MutateAPI, svc *workitem.Service) *CreateTimelineCommentTool {
	return &CreateTimelineCommentTool{api: api, svc: svc}
}

func (t *CreateTimelineCommentTool) Definition() mcp.Tool {
	return mcp.NewTool("create_timeline_comment",
		mcp.WithDescription(
			"Add an internal comment to the timeline of a DevRev work item. "+
				"The comment is visible to the Dev organization only.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Work item to comment on. Example: TKT-12345."),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Comment text."),
		),
	)
}

func (t *CreateTimelineCommentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	body := strings.TrimSpace(req.GetString("body", ""))

	if id == "" {
		return mcp.NewToolResultError("'id' is required — provide the work item to comment on"), nil
	}
	if body == "" {
		return mcp.NewToolResultError("'body' is required — provide the comment text"), nil
	}

	// timeline-entries.create rejects display IDs, so resolve the work
	// item first and post on its canonical don: ID.
	work, resolved, err := t.svc.ResolveWork(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}

	entry, err := t.api.CreateTimelineComment(ctx, work.ID, body)
	if err != nil {
		return errorResult(err), nil
	}
	t.svc.Invalidate(resolved.Display)

	out, err := json.MarshalIndent(map[string]any{"timeline_entry": entry}, "", "  ")
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
