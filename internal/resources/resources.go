// Package resources implements the MCP resource handlers for the DevRev
// server.
//
// Resources expose read-only views under devrev:// URIs so hosts can pull
// work items, timelines, and artifacts into context without a tool call.
package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/identity"
	"github.com/saramaebee/mcp-server/internal/workitem"
)

// Handler serves the devrev:// resource URIs.
type Handler struct {
	svc *workitem.Service
}

func NewHandler(svc *workitem.Service) *Handler {
	return &Handler{svc: svc}
}

// Templates returns every resource template with its handler, for
// registration on the server.
func (h *Handler) Templates() map[*mcp.ResourceTemplate]func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return map[*mcp.ResourceTemplate]func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error){
		template("devrev://tickets/{number}", "DevRev ticket",
			"Enriched ticket with timeline, artifacts, and linked work items"): h.handleWorkItem,
		template("devrev://tickets/{number}/timeline", "Ticket timeline",
			"Conversation-centric view of a ticket's timeline"): h.handleTimeline,
		template("devrev://tickets/{number}/timeline/{entry}", "Ticket timeline entry",
			"A single timeline entry of a ticket"): h.handleTimelineEntry,
		template("devrev://tickets/{number}/artifacts", "Ticket artifacts",
			"Artifacts attached anywhere on a ticket's timeline"): h.handleArtifactList,
		template("devrev://issues/{number}", "DevRev issue",
			"Enriched issue with timeline, artifacts, and linked work items"): h.handleWorkItem,
		template("devrev://issues/{number}/timeline", "Issue timeline",
			"Conversation-centric view of an issue's timeline"): h.handleTimeline,
		template("devrev://issues/{number}/timeline/{entry}", "Issue timeline entry",
			"A single timeline entry of an issue"): h.handleTimelineEntry,
		template("devrev://issues/{number}/artifacts", "Issue artifacts",
			"Artifacts attached anywhere on an issue's timeline"): h.handleArtifactList,
		template("devrev://works/{id}", "DevRev work item",
			"Enriched work item addressed by any identifier form"): h.handleWork,
		template("devrev://artifacts/{id}", "DevRev artifact",
			"Artifact metadata with a temporary download URL"): h.handleArtifact,
	}
}

func template(uri, name, description string) *mcp.ResourceTemplate {
	t := mcp.NewResourceTemplate(uri, name,
		mcp.WithTemplateDescription(description),
		mcp.WithTemplateMIMEType("application/json"),
	)
	return &t
}

// parseURI splits a devrev:// URI into its path segments.
func parseURI(uri string) []string {
	trimmed := strings.TrimPrefix(uri, "devrev://")
	if trimmed == uri || trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// workDisplayID rebuilds the display ID from the URI's collection and
// number segments.
func workDisplayID(collection, number string) string {
	switch collection {
	case "tickets":
		return identity.ForNumber(identity.TypeTicket, number).Display
	case "issues":
		return identity.ForNumber(identity.TypeIssue, number).Display
	default:
		return number
	}
}

func (h *Handler) handleWorkItem(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	parts := parseURI(req.Params.URI)
	if len(parts) != 2 {
		return errorResource(req.Params.URI, "malformed work item URI"), nil
	}

	doc, err := h.svc.Work(ctx, workDisplayID(parts[0], parts[1]))
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, doc), nil
}

func (h *Handler) handleTimeline(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	parts := parseURI(req.Params.URI)
	if len(parts) != 3 || parts[2] != "timeline" {
		return errorResource(req.Params.URI, "malformed timeline URI"), nil
	}

	doc, err := h.svc.Timeline(ctx, workDisplayID(parts[0], parts[1]))
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, doc), nil
}

func (h *Handler) handleTimelineEntry(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	parts := parseURI(req.Params.URI)
	if len(parts) < 4 || parts[2] != "timeline" {
		return errorResource(req.Params.URI, "malformed timeline entry URI"), nil
	}

	// Canonical entry IDs contain a slash before the trailing number.
	doc, err := h.svc.TimelineEntry(ctx, strings.Join(parts[3:], "/"))
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, doc), nil
}

func (h *Handler) handleArtifactList(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	parts := parseURI(req.Params.URI)
	if len(parts) != 3 || parts[2] != "artifacts" {
		return errorResource(req.Params.URI, "malformed artifact list URI"), nil
	}

	doc, err := h.svc.WorkArtifacts(ctx, workDisplayID(parts[0], parts[1]))
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, doc), nil
}

func (h *Handler) handleWork(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	parts := parseURI(req.Params.URI)
	if len(parts) < 2 || parts[0] != "works" {
		return errorResource(req.Params.URI, "malformed work URI"), nil
	}

	// Canonical don: IDs contain slashes, so rejoin the remaining segments.
	doc, err := h.svc.Work(ctx, strings.Join(parts[1:], "/"))
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, doc), nil
}

func (h *Handler) handleArtifact(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	parts := parseURI(req.Params.URI)
	if len(parts) < 2 || parts[0] != "artifacts" {
		return errorResource(req.Params.URI, "malformed artifact URI"), nil
	}

	doc, err := h.svc.Artifact(ctx, strings.Join(parts[1:], "/"))
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, doc), nil
}

func jsonResource(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
