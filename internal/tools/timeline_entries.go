package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/workitem"
)

// GetTimelineEntriesTool handles the get_timeline_entries MCP tool.
// The full format returns the complete timeline document; summary and
// detailed render progressively smaller text views for conversation
// review without the full payload.
type GetTimelineEntriesTool struct {
	svc *workitem.Service
}

func NewGetTimelineEntriesTool(svc *workitem.Service) *GetTimelineEntriesTool {
	return &GetTimelineEntriesTool{svc: svc}
}

func (t *GetTimelineEntriesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_timeline_entries",
		mcp.WithDescription(
			"Get the timeline of a DevRev work item as a reassembled "+
				"conversation: who said what and when, key events, artifacts, "+
				"and a visibility breakdown. Accepts TKT-123, ISS-456, a bare "+
				"number, or a full don: ID.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Work item identifier in any accepted form."),
		),
		mcp.WithString("format",
			mcp.Description("Output format: summary (headline view), detailed (full conversation as text), or full (complete JSON document, default)."),
			mcp.Enum("summary", "detailed", "full"),
		),
	)
}

func (t *GetTimelineEntriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	format := req.GetString("format", "full")

	if id == "" {
		return mcp.NewToolResultError("'id' is required — provide a work item identifier"), nil
	}

	raw, err := t.svc.Timeline(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}

	switch format {
	case "full":
		return mcp.NewToolResultText(raw), nil
	case "summary", "detailed":
		var doc workitem.TimelineDocument
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return errorResult(fmt.Errorf("decode timeline document: %w", err)), nil
		}
		if format == "summary" {
			return mcp.NewToolResultText(formatSummary(&doc)), nil
		}
		return mcp.NewToolResultText(formatDetailed(&doc)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf(
			"invalid format %q — use one of: summary, detailed, full", format)), nil
	}
}

func formatSummary(doc *workitem.TimelineDocument) string {
	var b strings.Builder
	s := doc.Summary

	fmt.Fprintf(&b, "%s: %s\n", s.WorkID, s.Subject)
	if s.Customer != "" {
		fmt.Fprintf(&b, "Customer: %s\n", s.Customer)
	}
	if s.CurrentStage != "" {
		fmt.Fprintf(&b, "Stage: %s\n", s.CurrentStage)
	}
	fmt.Fprintf(&b, "Conversation: %d messages, %d key events, %d artifacts\n",
		len(doc.ConversationThread), len(doc.KeyEvents), s.TotalArtifacts)
	if s.LastCustomerMessage != "" {
		fmt.Fprintf(&b, "Last customer message: %s\n", s.LastCustomerMessage)
	}
	if s.LastSupportResponse != "" {
		fmt.Fprintf(&b, "Last support response: %s\n", s.LastSupportResponse)
	}

	v := doc.VisibilitySummary
	fmt.Fprintf(&b, "Visibility: %d/%d customer-visible (%.1f%%)\n",
		v.CustomerVisibleEntries, v.TotalEntries, v.CustomerVisiblePercentage)

	if n := len(doc.ConversationThread); n > 0 {
		last := doc.ConversationThread[n-1]
		fmt.Fprintf(&b, "\nLatest message [%s, %s]:\n%s\n",
			last.Speaker.Name, last.Speaker.Type, truncate(last.Message, 500))
	}
	return b.String()
}

func formatDetailed(doc *workitem.TimelineDocument) string {
	var b strings.Builder
	b.WriteString(formatSummary(doc))

	if len(doc.ConversationThread) > 0 {
		b.WriteString("\n=== Conversation ===\n")
		for _, ce := range doc.ConversationThread {
			fmt.Fprintf(&b, "\n[%d] %s (%s) at %s [%s]\n%s\n",
				ce.Seq, ce.Speaker.Name, ce.Speaker.Type, ce.Timestamp,
				ce.Visibility.Level, ce.Message)
			for _, art := range ce.Artifacts {
				fmt.Fprintf(&b, "  attachment: %s (%s)\n", art.ResourceURI, art.Type)
			}
		}
	}

	if len(doc.KeyEvents) > 0 {
		b.WriteString("\n=== Key events ===\n")
		for _, ev := range doc.KeyEvents {
			fmt.Fprintf(&b, "- %s at %s", ev.Label, ev.Timestamp)
			if ev.FromStage != "" || ev.ToStage != "" {
				fmt.Fprintf(&b, " (%s -> %s)", ev.FromStage, ev.ToStage)
			}
			if ev.Actor != nil {
				fmt.Fprintf(&b, " by %s", ev.Actor.Name)
			}
			b.WriteString("\n")
		}
	}

	if len(doc.AllArtifacts) > 0 {
		b.WriteString("\n=== Artifacts ===\n")
		for _, art := range doc.AllArtifacts {
			fmt.Fprintf(&b, "- %s (%s)", art.ResourceURI, art.Type)
			if art.AttachedTo > 0 {
				fmt.Fprintf(&b, " first attached to message %d", art.AttachedTo)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
