package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/devrev"
)

// ArtifactAPI is the artifact slice of the DevRev client.
type ArtifactAPI interface {
	GetArtifact(ctx context.Context, id string) (*devrev.Artifact, error)
	LocateArtifact(ctx context.Context, id string) (*devrev.LocatedArtifact, error)
}

// downloadTimeout bounds the content transfer, separate from the API
// client's timeout. Artifact payloads can be large.
const downloadTimeout = 60 * time.Second

// DownloadArtifactTool handles the download_artifact MCP tool. It locates
// the artifact's temporary download URL and streams the content to a
// local file.
type DownloadArtifactTool struct {
	api   ArtifactAPI
	httpc *http.Client
}

func NewDownloadArtifactTool(api ArtifactAPI) *DownloadArtifactTool {
	return &DownloadArtifactTool{
		api:   api,
		httpc: &http.Client{Timeout: downloadTimeout},
	}
}

func (t *DownloadArtifactTool) Definition() mcp.Tool {
	return mcp.NewTool("download_artifact",
		mcp.WithDescription(
			"Download a DevRev artifact to a local directory. Fetches the "+
				"artifact metadata, locates its temporary download URL, and "+
				"saves the content under the artifact's file name.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Artifact ID to download."),
		),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Local directory to save the file into. Created if missing."),
		),
	)
}

func (t *DownloadArtifactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	dir := strings.TrimSpace(req.GetString("directory", ""))

	if id == "" {
		return mcp.NewToolResultError("'id' is required — provide the artifact to download"), nil
	}
	if dir == "" {
		return mcp.NewToolResultError("'directory' is required — provide a local directory"), nil
	}

	art, err := t.api.GetArtifact(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	located, err := t.api.LocateArtifact(ctx, id)
	if err != nil {
		return errorResult(fmt.Errorf("locate artifact %s: %w", id, err)), nil
	}
	if located.URL == "" {
		return mcp.NewToolResultError("artifact " + id + " has no download URL"), nil
	}

	name := art.File.Name
	if name == "" {
		name = filepath.Base(strings.ReplaceAll(art.ID, ":", "_"))
	}
	path := filepath.Join(dir, filepath.Base(name))

	size, err := t.fetch(ctx, located.URL, path)
	if err != nil {
		return errorResult(err), nil
	}

	out, err := json.MarshalIndent(map[string]any{
		"artifact": art,
		"saved_to": path,
		"size":     size,
	}, "", "  ")
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (t *DownloadArtifactTool) fetch(ctx context.Context, url, path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("creating directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("building download request: %w", err)
	}
	resp, err := t.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("downloading artifact content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("downloading artifact content: unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}

	size, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	// A deferred close would swallow flush failures and report a
	// truncated file as success.
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return size, nil
}
