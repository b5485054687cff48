// Package tools implements the MCP tool handlers for the DevRev server.
//
// Each tool is a struct holding its dependencies, with a Definition method
// for registration and a Handle method compatible with mcp-go's
// CallToolRequest signature. One file per tool.
package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/devrev"
	"github.com/saramaebee/mcp-server/internal/workitem"
)

// errorPayload is the structured error body returned to the client.
// Tool call errors are protocol-level successes carrying IsError, so
// the client can read the category and recover.
type errorPayload struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Endpoint string `json:"endpoint,omitempty"`
	Status   int    `json:"status,omitempty"`
	Resource string `json:"resource,omitempty"`
	ID       string `json:"id,omitempty"`
}

// errorResult maps an error to a structured tool error result. Typed
// not-found and API errors keep their detail; anything else is passed
// through as a plain message.
func errorResult(err error) *mcp.CallToolResult {
	payload := errorPayload{Type: "internal", Message: err.Error()}

	var nf *workitem.NotFoundError
	var apiErr *devrev.APIError
	switch {
	case errors.As(err, &nf):
		payload.Type = "not_found"
		payload.Resource = nf.Resource
		payload.ID = nf.ID
	case errors.As(err, &apiErr):
		payload.Type = "api_error"
		payload.Endpoint = apiErr.Endpoint
		payload.Status = apiErr.Status
	}

	out, jerr := json.Marshal(map[string]errorPayload{"error": payload})
	if jerr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(out))
}
