package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/mcp-server/internal/cache"
	"github.com/saramaebee/mcp-server/internal/devrev"
	"github.com/saramaebee/mcp-server/internal/links"
	"github.com/saramaebee/mcp-server/internal/timeline"
	"github.com/saramaebee/mcp-server/internal/workitem"
)

// --- Test helpers ---

// fakeDevRev backs every client interface the tools use with canned
// responses.
type fakeDevRev struct {
	works   map[string]*devrev.Work
	entries []devrev.TimelineEntry
	results []devrev.SearchResult

	created       *devrev.CreateWorkRequest
	updated       *devrev.UpdateWorkRequest
	commentedOn   string
	commentedBody string
}

func (f *fakeDevRev) GetWork(_ context.Context, id string) (*devrev.Work, error) {
	if w, ok := f.works[id]; ok {
		return w, nil
	}
	return nil, &devrev.APIError{Endpoint: devrev.WorksGet, Status: 404}
}

func (f *fakeDevRev) GetTimelineEntry(_ context.Context, id string) (*devrev.TimelineEntry, error) {
	for i := range f.entries {
		if f.entries[i].ID == id {
			return &f.entries[i], nil
		}
	}
	return nil, &devrev.APIError{Endpoint: devrev.TimelineEntriesGet, Status: 404}
}

func (f *fakeDevRev) GetArtifact(_ context.Context, id string) (*devrev.Artifact, error) {
	return &devrev.Artifact{ID: id}, nil
}

func (f *fakeDevRev) LocateArtifact(_ context.Context, id string) (*devrev.LocatedArtifact, error) {
	return &devrev.LocatedArtifact{ID: id, URL: "https://files.example/" + id}, nil
}

func (f *fakeDevRev) ListTimelineEntries(_ context.Context, _ devrev.TimelineListRequest) (*devrev.TimelinePage, error) {
	return &devrev.TimelinePage{Entries: f.entries}, nil
}

func (f *fakeDevRev) ListLinks(_ context.Context, _ string) ([]devrev.Link, error) {
	return nil, nil
}

func (f *fakeDevRev) ListLinkTypes(_ context.Context) ([]devrev.LinkType, error) {
	return nil, nil
}

func (f *fakeDevRev) SearchHybrid(_ context.Context, _, _ string) ([]devrev.SearchResult, error) {
	return f.results, nil
}

func (f *fakeDevRev) CreateWork(_ context.Context, req devrev.CreateWorkRequest) (*devrev.Work, error) {
	f.created = &req
	return &devrev.Work{ID: "don:core:x:ticket/99", DisplayID: "TKT-99", Title: req.Title}, nil
}

func (f *fakeDevRev) UpdateWork(_ context.Context, req devrev.UpdateWorkRequest) (*devrev.Work, error) {
	f.updated = &req
	return &devrev.Work{DisplayID: req.ID, Title: req.Title}, nil
}

func (f *fakeDevRev) CreateTimelineComment(_ context.Context, objectID, body string) (*devrev.TimelineEntry, error) {
	f.commentedOn = objectID
	f.commentedBody = body
	return &devrev.TimelineEntry{ID: "don:core:x:timeline/5", Type: "timeline_comment", Body: body}, nil
}

func newFake() *fakeDevRev {
	return &fakeDevRev{
		works: map[string]*devrev.Work{
			"TKT-42": {
				ID:        "don:core:x:ticket/42",
				DisplayID: "TKT-42",
				Type:      "ticket",
				Title:     "login broken",
				Stage:     devrev.Stage{Name: "queued"},
				CreatedBy: devrev.User{DisplayName: "Alice", Email: "alice@customer.example"},
			},
		},
		entries: []devrev.TimelineEntry{
			{ID: "don:core:x:timeline/1", Type: "timeline_comment", Body: "it broke", CreatedBy: &devrev.User{DisplayName: "Alice", Email: "alice@customer.example"}},
			{ID: "don:core:x:timeline/2", Type: "timeline_comment", Body: "on it", CreatedBy: &devrev.User{DisplayName: "Bob", Email: "bob@devorg.example"}},
		},
	}
}

func newTestService(t *testing.T, fake *fakeDevRev) *workitem.Service {
	t.Helper()
	c, err := cache.New(cache.DefaultCapacity)
	if err != nil {
		t.Fatalf("setup: cache: %v", err)
	}
	return workitem.NewService(fake, timeline.NewPaginator(fake, nil), links.NewResolver(fake, nil), c, nil)
}

func callWith(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- SearchTool tests ---

func TestSearchTool_Handle_Success(t *testing.T) {
	fake := newFake()
	fake.results = []devrev.SearchResult{
		{Type: "work", Work: fake.works["TKT-42"], Snippet: "login broken"},
	}
	tool := NewSearchTool(fake)

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"query":     "login",
		"namespace": "ticket",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	text := getResultText(result)
	if !strings.Contains(text, "TKT-42") {
		t.Error("result should contain the matched display ID")
	}
	if !strings.Contains(text, "devrev://tickets/42") {
		t.Error("result should contain the ticket navigation URI")
	}
}

func TestSearchTool_Handle_InvalidNamespace(t *testing.T) {
	tool := NewSearchTool(newFake())

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"query":     "login",
		"namespace": "conversation",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for an invalid namespace")
	}
	if !strings.Contains(getResultText(result), "conversation") {
		t.Error("error should name the rejected namespace")
	}
}

func TestSearchTool_Handle_MissingQuery(t *testing.T) {
	tool := NewSearchTool(newFake())

	result, _ := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"namespace": "ticket",
	}))
	if !isErrorResult(result) {
		t.Fatal("expected an error result for a missing query")
	}
}

// --- GetTicketTool tests ---

func TestGetTicketTool_Handle_Success(t *testing.T) {
	fake := newFake()
	tool := NewGetTicketTool(newTestService(t, fake))

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{"id": "42"}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	var doc workitem.WorkDocument
	if err := json.Unmarshal([]byte(getResultText(result)), &doc); err != nil {
		t.Fatalf("result is not a work document: %v", err)
	}
	if doc.Work.DisplayID != "TKT-42" {
		t.Errorf("DisplayID = %q, want TKT-42", doc.Work.DisplayID)
	}
	if len(doc.TimelineEntries) != 2 {
		t.Errorf("timeline entries = %d, want 2", len(doc.TimelineEntries))
	}
}

func TestGetTicketTool_Handle_RejectsIssueID(t *testing.T) {
	tool := NewGetTicketTool(newTestService(t, newFake()))

	result, _ := tool.Handle(context.Background(), callWith(map[string]interface{}{"id": "ISS-9"}))
	if !isErrorResult(result) {
		t.Fatal("expected an error result for an issue identifier")
	}
	if !strings.Contains(getResultText(result), "get_issue") {
		t.Error("error should point at get_issue")
	}
}

func TestGetTicketTool_Handle_NotFound(t *testing.T) {
	tool := NewGetTicketTool(newTestService(t, newFake()))

	result, _ := tool.Handle(context.Background(), callWith(map[string]interface{}{"id": "TKT-404"}))
	if !isErrorResult(result) {
		t.Fatal("expected an error result")
	}
	if !strings.Contains(getResultText(result), "not_found") {
		t.Errorf("error should be typed not_found, got: %s", getResultText(result))
	}
}

// --- GetWorkTool tests ---

func TestGetWorkTool_Handle_BareNumberProbe(t *testing.T) {
	fake := newFake()
	tool := NewGetWorkTool(newTestService(t, fake))

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{"id": "42"}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "TKT-42") {
		t.Error("bare number should resolve to the ticket")
	}
}

// --- GetTimelineEntriesTool tests ---

func TestGetTimelineEntriesTool_Handle_Full(t *testing.T) {
	tool := NewGetTimelineEntriesTool(newTestService(t, newFake()))

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{"id": "TKT-42"}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	var doc workitem.TimelineDocument
	if err := json.Unmarshal([]byte(getResultText(result)), &doc); err != nil {
		t.Fatalf("full format is not a timeline document: %v", err)
	}
	if len(doc.ConversationThread) != 2 {
		t.Errorf("conversation = %d entries, want 2", len(doc.ConversationThread))
	}
}

func TestGetTimelineEntriesTool_Handle_Summary(t *testing.T) {
	tool := NewGetTimelineEntriesTool(newTestService(t, newFake()))

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"id":     "TKT-42",
		"format": "summary",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "TKT-42: login broken") {
		t.Error("summary should lead with the work ID and subject")
	}
	if !strings.Contains(text, "2 messages") {
		t.Error("summary should count conversation messages")
	}
	if !strings.Contains(text, "Customer: Alice") {
		t.Error("summary should name the customer")
	}
}

func TestGetTimelineEntriesTool_Handle_Detailed(t *testing.T) {
	tool := NewGetTimelineEntriesTool(newTestService(t, newFake()))

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"id":     "TKT-42",
		"format": "detailed",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "=== Conversation ===") {
		t.Error("detailed format should include the conversation section")
	}
	if !strings.Contains(text, "[1] Alice (customer)") {
		t.Error("detailed format should render numbered messages with speakers")
	}
}

func TestGetTimelineEntriesTool_Handle_InvalidFormat(t *testing.T) {
	tool := NewGetTimelineEntriesTool(newTestService(t, newFake()))

	result, _ := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"id":     "TKT-42",
		"format": "xml",
	}))
	if !isErrorResult(result) {
		t.Fatal("expected an error result for an invalid format")
	}
}

// --- CreateObjectTool tests ---

func TestCreateObjectTool_Handle_Success(t *testing.T) {
	fake := newFake()
	tool := NewCreateObjectTool(fake)

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"type":            "ticket",
		"title":           "printer on fire",
		"applies_to_part": "PROD-1",
		"owned_by":        "don:identity:x:devu/1, don:identity:x:devu/2",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if fake.created == nil {
		t.Fatal("CreateWork was not called")
	}
	if fake.created.AppliesTo != "PROD-1" {
		t.Errorf("AppliesTo = %q, want PROD-1", fake.created.AppliesTo)
	}
	if len(fake.created.OwnedBy) != 2 {
		t.Errorf("OwnedBy = %v, want 2 owners", fake.created.OwnedBy)
	}
}

func TestCreateObjectTool_Handle_MissingPart(t *testing.T) {
	tool := NewCreateObjectTool(newFake())

	result, _ := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"type":  "issue",
		"title": "broken",
	}))
	if !isErrorResult(result) {
		t.Fatal("expected an error result for a missing applies_to_part")
	}
}

// --- UpdateObjectTool tests ---

func TestUpdateObjectTool_Handle_RequiresAField(t *testing.T) {
	fake := newFake()
	tool := NewUpdateObjectTool(fake, newTestService(t, fake))

	result, _ := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"id":   "TKT-42",
		"type": "ticket",
	}))
	if !isErrorResult(result) {
		t.Fatal("expected an error result when neither title nor body is given")
	}
}

func TestUpdateObjectTool_Handle_InvalidatesCache(t *testing.T) {
	fake := newFake()
	svc := newTestService(t, fake)

	// Prime the cache, mutate the upstream title, then update.
	getTool := NewGetTicketTool(svc)
	if result, _ := getTool.Handle(context.Background(), callWith(map[string]interface{}{"id": "42"})); isErrorResult(result) {
		t.Fatalf("prime fetch failed: %s", getResultText(result))
	}
	fake.works["TKT-42"].Title = "login fixed"

	tool := NewUpdateObjectTool(fake, svc)
	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"id":    "TKT-42",
		"type":  "ticket",
		"title": "login fixed",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if fake.updated == nil || fake.updated.Title != "login fixed" {
		t.Fatal("UpdateWork was not called with the new title")
	}

	refetched, _ := getTool.Handle(context.Background(), callWith(map[string]interface{}{"id": "42"}))
	if !strings.Contains(getResultText(refetched), "login fixed") {
		t.Error("cached document should be invalidated after an update")
	}
}

// --- DownloadArtifactTool tests ---

// fakeArtifactAPI serves artifact metadata pointing downloads at a test
// HTTP server.
type fakeArtifactAPI struct {
	url string
}

func (f *fakeArtifactAPI) GetArtifact(_ context.Context, id string) (*devrev.Artifact, error) {
	return &devrev.Artifact{ID: id, File: devrev.FileInfo{Name: "crash.log"}}, nil
}

func (f *fakeArtifactAPI) LocateArtifact(_ context.Context, id string) (*devrev.LocatedArtifact, error) {
	return &devrev.LocatedArtifact{ID: id, URL: f.url}, nil
}

func TestDownloadArtifactTool_Handle_WritesFile(t *testing.T) {
	content := "panic: runtime error\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(content))
	}))
	defer srv.Close()

	dir := t.TempDir()
	tool := NewDownloadArtifactTool(&fakeArtifactAPI{url: srv.URL})

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"id":        "don:core:x:artifact/9",
		"directory": dir,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	path := filepath.Join(dir, "crash.log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if string(data) != content {
		t.Errorf("file content = %q, want %q", data, content)
	}
	if !strings.Contains(getResultText(result), path) {
		t.Error("result should report the saved path")
	}
}

func TestDownloadArtifactTool_Handle_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tool := NewDownloadArtifactTool(&fakeArtifactAPI{url: srv.URL})
	result, _ := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"id":        "don:core:x:artifact/9",
		"directory": t.TempDir(),
	}))
	if !isErrorResult(result) {
		t.Fatal("expected an error result for a failed download")
	}
}

// --- CreateTimelineCommentTool tests ---

func TestCreateTimelineCommentTool_Handle_Success(t *testing.T) {
	fake := newFake()
	tool := NewCreateTimelineCommentTool(fake, newTestService(t, fake))

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"id":   "TKT-42",
		"body": "escalating to tier 2",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if fake.commentedOn != "don:core:x:ticket/42" {
		t.Errorf("comment posted to %q, want the canonical don: ID", fake.commentedOn)
	}
	if fake.commentedBody != "escalating to tier 2" {
		t.Errorf("comment body = %q", fake.commentedBody)
	}
}

func TestCreateTimelineCommentTool_Handle_ResolvesBareNumber(t *testing.T) {
	fake := newFake()
	tool := NewCreateTimelineCommentTool(fake, newTestService(t, fake))

	result, err := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"id":   "42",
		"body": "following up",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if fake.commentedOn != "don:core:x:ticket/42" {
		t.Errorf("comment posted to %q, want the canonical don: ID", fake.commentedOn)
	}
}

func TestCreateTimelineCommentTool_Handle_UnknownWork(t *testing.T) {
	fake := newFake()
	tool := NewCreateTimelineCommentTool(fake, newTestService(t, fake))

	result, _ := tool.Handle(context.Background(), callWith(map[string]interface{}{
		"id":   "TKT-404",
		"body": "hello",
	}))
	if !isErrorResult(result) {
		t.Fatal("expected an error result for a missing work item")
	}
	if !strings.Contains(getResultText(result), "not_found") {
		t.Errorf("error should be typed not_found, got: %s", getResultText(result))
	}
}

func TestCreateTimelineCommentTool_Handle_MissingBody(t *testing.T) {
	fake := newFake()
	tool := NewCreateTimelineCommentTool(fake, newTestService(t, fake))

	result, _ := tool.Handle(context.Background(), callWith(map[string]interface{}{"id": "TKT-42"}))
	if !isErrorResult(result) {
		t.Fatal("expected an error result for a missing body")
	}
}
