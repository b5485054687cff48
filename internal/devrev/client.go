// Package devrev is the HTTP client for the DevRev API.
//
// Every operation is an authenticated POST of a JSON payload to a named
// endpoint. Responses decode into the wire types in types.go exactly once,
// here at the boundary; the rest of the codebase never re-sniffs response
// shapes. Non-2xx statuses surface as *APIError carrying the endpoint,
// status code, and response body. Nothing in this package retries.
package devrev

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://api.devrev.ai"

// DefaultTimeout bounds each individual API call. There is no cancellation
// across a multi-call aggregation beyond this per-call limit.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the DevRev API.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("devrev %s: HTTP %d: %s", e.Endpoint, e.Status, e.Body)
}

// IsNotFound reports whether err is an APIError for a missing resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client makes authenticated calls to the DevRev API.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient builds a Client. The token is required: its absence is a fatal
// configuration error, not a per-call failure.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if token == "" {
		return nil, errors.New("devrev: API token is not configured")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// Do posts payload to the named endpoint and returns the raw response body
// on success.
func (c *Client) Do(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Endpoint: endpoint, Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func (c *Client) decode(ctx context.Context, endpoint string, payload, out any) error {
	data, err := c.Do(ctx, endpoint, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// GetWork fetches a work item by any ID form the API accepts (display ID
// or canonical don: ID).
func (c *Client) GetWork(ctx context.Context, id string) (*Work, error) {
	var resp struct {
		Work *Work `json:"work"`
	}
	if err := c.decode(ctx, WorksGet, map[string]string{"id": id}, &resp); err != nil {
		return nil, err
	}
	if resp.Work == nil {
		return nil, &APIError{Endpoint: WorksGet, Status: http.StatusNotFound, Body: "no work item in response for " + id}
	}
	return resp.Work, nil
}

// CreateWorkRequest is the payload for works.create.
type CreateWorkRequest struct {
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	AppliesTo string   `json:"applies_to_part"`
	Body      string   `json:"body,omitempty"`
	OwnedBy   []string `json:"owned_by,omitempty"`
}

// CreateWork creates a ticket or issue.
func (c *Client) CreateWork(ctx context.Context, req CreateWorkRequest) (*Work, error) {
	var resp struct {
		Work *Work `json:"work"`
	}
	if err := c.decode(ctx, WorksCreate, req, &resp); err != nil {
		return nil, err
	}
	return resp.Work, nil
}

// UpdateWorkRequest is the payload for works.update.
type UpdateWorkRequest struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// UpdateWork updates a ticket or issue.
func (c *Client) UpdateWork(ctx context.Context, req UpdateWorkRequest) (*Work, error) {
	var resp struct {
		Work *Work `json:"work"`
	}
	if err := c.decode(ctx, WorksUpdate, req, &resp); err != nil {
		return nil, err
	}
	return resp.Work, nil
}

// ListTimelineEntries fetches one page of timeline entries.
func (c *Client) ListTimelineEntries(ctx context.Context, req TimelineListRequest) (*TimelinePage, error) {
	var page TimelinePage
	if err := c.decode(ctx, TimelineEntriesList, req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetTimelineEntry fetches a single timeline entry by its canonical ID.
func (c *Client) GetTimelineEntry(ctx context.Context, id string) (*TimelineEntry, error) {
	var resp struct {
		Entry *TimelineEntry `json:"timeline_entry"`
	}
	if err := c.decode(ctx, TimelineEntriesGet, map[string]string{"id": id}, &resp); err != nil {
		return nil, err
	}
	if resp.Entry == nil {
		return nil, &APIError{Endpoint: TimelineEntriesGet, Status: http.StatusNotFound, Body: "no timeline entry in response for " + id}
	}
	return resp.Entry, nil
}

// CreateTimelineComment adds a comment to a work item's timeline. The
// object must be the work item's canonical ID. Comments are created with
// internal visibility.
func (c *Client) CreateTimelineComment(ctx context.Context, objectID, body string) (*TimelineEntry, error) {
	payload := map[string]any{
		"object":      objectID,
		"body":        body,
		"body_type":   "text",
		"type":        "timeline_comment",
		"collections": []string{"discussions"},
		"visibility":  "internal",
	}
	var resp struct {
		Entry *TimelineEntry `json:"timeline_entry"`
	}
	if err := c.decode(ctx, TimelineEntriesCreate, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Entry, nil
}

// GetArtifact fetches artifact metadata.
func (c *Client) GetArtifact(ctx context.Context, id string) (*Artifact, error) {
	var resp struct {
		Artifact *Artifact `json:"artifact"`
	}
	if err := c.decode(ctx, ArtifactsGet, map[string]string{"id": id}, &resp); err != nil {
		return nil, err
	}
	if resp.Artifact == nil {
		return nil, &APIError{Endpoint: ArtifactsGet, Status: http.StatusNotFound, Body: "no artifact in response for " + id}
	}
	return resp.Artifact, nil
}

// LocateArtifact resolves a temporary download URL for an artifact.
func (c *Client) LocateArtifact(ctx context.Context, id string) (*LocatedArtifact, error) {
	var resp struct {
		Artifact *LocatedArtifact `json:"artifact"`
	}
	if err := c.decode(ctx, ArtifactsLocate, map[string]string{"id": id}, &resp); err != nil {
		return nil, err
	}
	if resp.Artifact == nil {
		return nil, &APIError{Endpoint: ArtifactsLocate, Status: http.StatusNotFound, Body: "no artifact in response for " + id}
	}
	return resp.Artifact, nil
}

// ListLinks fetches all links where the object is source or target.
func (c *Client) ListLinks(ctx context.Context, objectID string) ([]Link, error) {
	var resp struct {
		Links []Link `json:"links"`
	}
	if err := c.decode(ctx, LinksList, map[string]string{"object": objectID}, &resp); err != nil {
		return nil, err
	}
	return resp.Links, nil
}

// ListLinkTypes fetches the link-type reference table.
func (c *Client) ListLinkTypes(ctx context.Context) ([]LinkType, error) {
	var resp struct {
		LinkTypes []LinkType `json:"link_types"`
	}
	if err := c.decode(ctx, LinkTypesList, map[string]string{}, &resp); err != nil {
		return nil, err
	}
	return resp.LinkTypes, nil
}

// SearchHybrid runs a hybrid search in the given namespace.
func (c *Client) SearchHybrid(ctx context.Context, query, namespace string) ([]SearchResult, error) {
	var resp struct {
		Results []SearchResult `json:"results"`
	}
	payload := map[string]string{"query": query, "namespace": namespace}
	if err := c.decode(ctx, SearchHybrid, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
