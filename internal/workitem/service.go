// Package workitem assembles enriched work-item documents: the work item
// itself, its full timeline, embedded artifacts, and linked items, cached
// as serialized JSON keyed by resource URI.
package workitem

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/saramaebee/mcp-server/internal/cache"
	"github.com/saramaebee/mcp-server/internal/devrev"
	"github.com/saramaebee/mcp-server/internal/identity"
	"github.com/saramaebee/mcp-server/internal/links"
	"github.com/saramaebee/mcp-server/internal/timeline"
	"github.com/saramaebee/mcp-server/internal/visibility"
)

// API is the slice of the DevRev client the service needs directly.
// Timeline listing goes through the paginator and link listing through
// the resolver.
type API interface {
	GetWork(ctx context.Context, id string) (*devrev.Work, error)
	GetTimelineEntry(ctx context.Context, id string) (*devrev.TimelineEntry, error)
	GetArtifact(ctx context.Context, id string) (*devrev.Artifact, error)
	LocateArtifact(ctx context.Context, id string) (*devrev.LocatedArtifact, error)
}

// NotFoundError reports that a resource does not exist upstream, as
// opposed to a transport or server failure.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Service builds and caches enriched work-item documents.
type Service struct {
	api      API
	timeline *timeline.Paginator
	links    *links.Resolver
	cache    *cache.Cache
	log      *slog.Logger
}

func NewService(api API, tl *timeline.Paginator, lr *links.Resolver, c *cache.Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{api: api, timeline: tl, links: lr, cache: c, log: log}
}

// WorkDocument is the enriched view of a ticket or issue.
type WorkDocument struct {
	Work            *devrev.Work               `json:"work"`
	TimelineEntries []devrev.TimelineEntry     `json:"timeline_entries"`
	Artifacts       []timeline.ArtifactSummary `json:"artifacts"`
	LinkedWorkItems []links.LinkedItem         `json:"linked_work_items"`
	Links           map[string]string          `json:"links"`
}

// TimelineDocument is the conversation-centric view of a work item's
// timeline.
type TimelineDocument struct {
	Summary            WorkSummary                  `json:"summary"`
	ConversationThread []timeline.ConversationEntry `json:"conversation_thread"`
	KeyEvents          []timeline.KeyEvent          `json:"key_events"`
	AllArtifacts       []timeline.ArtifactSummary   `json:"all_artifacts"`
	VisibilitySummary  visibility.Summary           `json:"visibility_summary"`
	Links              map[string]string            `json:"links"`
}

// WorkSummary is the at-a-glance header of a timeline document.
type WorkSummary struct {
	WorkID              string `json:"work_id"`
	Customer            string `json:"customer,omitempty"`
	Workspace           string `json:"workspace,omitempty"`
	Subject             string `json:"subject,omitempty"`
	CurrentStage        string `json:"current_stage,omitempty"`
	CreatedDate         string `json:"created_date,omitempty"`
	TotalArtifacts      int    `json:"total_artifacts"`
	LastCustomerMessage string `json:"last_customer_message,omitempty"`
	LastSupportResponse string `json:"last_support_response,omitempty"`
}

// ResolveWork fetches the work item named by any accepted identifier form.
// Bare numbers are probed as a ticket first, then as an issue.
func (s *Service) ResolveWork(ctx context.Context, raw string) (*devrev.Work, identity.WorkID, error) {
	id := identity.Parse(raw)
	if id.Type != identity.TypeUnknown {
		work, err := s.api.GetWork(ctx, id.Display)
		if err != nil {
			return nil, id, s.mapNotFound(err, "work", raw)
		}
		return work, id, nil
	}

	// Ambiguous identifier: try ticket, then issue.
	for _, typ := range []identity.WorkType{identity.TypeTicket, identity.TypeIssue} {
		probe := identity.ForNumber(typ, id.Number)
		work, err := s.api.GetWork(ctx, probe.Display)
		if err == nil {
			return work, probe, nil
		}
		if !devrev.IsNotFound(err) {
			return nil, probe, fmt.Errorf("fetch %s: %w", probe.Display, err)
		}
	}
	return nil, id, &NotFoundError{Resource: "work", ID: raw}
}

// Ticket returns the enriched ticket document as serialized JSON, served
// from cache when present.
func (s *Service) Ticket(ctx context.Context, number string) (string, error) {
	id := identity.ForNumber(identity.TypeTicket, number)
	return s.workDocument(ctx, id, "devrev://tickets/"+id.Number)
}

// Issue returns the enriched issue document as serialized JSON.
func (s *Service) Issue(ctx context.Context, number string) (string, error) {
	id := identity.ForNumber(identity.TypeIssue, number)
	return s.workDocument(ctx, id, "devrev://issues/"+id.Number)
}

// Work returns the enriched document for any work identifier, resolving
// bare numbers by probing.
func (s *Service) Work(ctx context.Context, raw string) (string, error) {
	if doc, ok := s.cachedDoc(raw, "self"); ok {
		return doc, nil
	}

	work, id, err := s.ResolveWork(ctx, raw)
	if err != nil {
		return "", err
	}
	switch id.Type {
	case identity.TypeTicket:
		return s.renderWorkDocument(ctx, work, id, "devrev://tickets/"+id.Number)
	case identity.TypeIssue:
		return s.renderWorkDocument(ctx, work, id, "devrev://issues/"+id.Number)
	default:
		return s.renderWorkDocument(ctx, work, id, "devrev://works/"+id.Display)
	}
}

func (s *Service) workDocument(ctx context.Context, id identity.WorkID, key string) (string, error) {
	if doc, ok := s.cache.Get(key); ok {
		return doc, nil
	}
	work, err := s.api.GetWork(ctx, id.Display)
	if err != nil {
		return "", s.mapNotFound(err, string(id.Type), id.Display)
	}
	return s.renderWorkDocument(ctx, work, id, key)
}

func (s *Service) renderWorkDocument(ctx context.Context, work *devrev.Work, id identity.WorkID, key string) (string, error) {
	if doc, ok := s.cache.Get(key); ok {
		return doc, nil
	}

	entries, err := s.timeline.FetchAll(ctx, work.ID)
	if err != nil {
		return "", fmt.Errorf("timeline for %s: %w", id.Display, err)
	}

	doc := WorkDocument{
		Work:            work,
		TimelineEntries: entries,
		Artifacts:       collectArtifacts(entries),
		LinkedWorkItems: s.resolveLinks(ctx, work.ID, id.Display),
		Links:           navURIs(id),
	}
	return s.store(key, doc)
}

// Timeline returns the conversation-centric timeline document as
// serialized JSON, served from cache when present.
func (s *Service) Timeline(ctx context.Context, raw string) (string, error) {
	if doc, ok := s.cachedDoc(raw, "timeline"); ok {
		return doc, nil
	}

	work, id, err := s.ResolveWork(ctx, raw)
	if err != nil {
		return "", err
	}

	key := navURIs(id)["timeline"]
	if key == "" {
		key = "devrev://works/" + id.Display + "/timeline"
	}
	if doc, ok := s.cache.Get(key); ok {
		return doc, nil
	}

	entries, err := s.timeline.FetchAll(ctx, work.ID)
	if err != nil {
		return "", fmt.Errorf("timeline for %s: %w", id.Display, err)
	}

	thread := timeline.BuildThread(entries, timeline.WorkContext{
		ID:            id,
		CustomerEmail: work.CreatedBy.Email,
	})

	doc := TimelineDocument{
		Summary: WorkSummary{
			WorkID:              id.Display,
			Customer:            work.CreatedBy.Name(work.CreatedBy.Email),
			Workspace:           workspaceOf(work),
			Subject:             work.Title,
			CurrentStage:        work.Stage.Name,
			CreatedDate:         work.CreatedDate,
			TotalArtifacts:      len(thread.Artifacts),
			LastCustomerMessage: thread.LastCustomerMessage,
			LastSupportResponse: thread.LastSupportResponse,
		},
		ConversationThread: thread.Conversation,
		KeyEvents:          thread.KeyEvents,
		AllArtifacts:       thread.Artifacts,
		VisibilitySummary:  thread.Visibility,
		Links:              navURIs(id),
	}
	return s.store(key, doc)
}

// WorkArtifacts returns the deduplicated artifacts attached anywhere on a
// work item's timeline, as serialized JSON.
func (s *Service) WorkArtifacts(ctx context.Context, raw string) (string, error) {
	if doc, ok := s.cachedDoc(raw, "artifacts"); ok {
		return doc, nil
	}

	work, id, err := s.ResolveWork(ctx, raw)
	if err != nil {
		return "", err
	}

	key := navURIs(id)["artifacts"]
	if key == "" {
		key = "devrev://works/" + id.Display + "/artifacts"
	}
	if doc, ok := s.cache.Get(key); ok {
		return doc, nil
	}

	entries, err := s.timeline.FetchAll(ctx, work.ID)
	if err != nil {
		return "", fmt.Errorf("timeline for %s: %w", id.Display, err)
	}
	return s.store(key, collectArtifacts(entries))
}

// TimelineEntry returns a single timeline entry as serialized JSON.
func (s *Service) TimelineEntry(ctx context.Context, entryID string) (string, error) {
	key := "devrev://timeline-entries/" + entryID
	if doc, ok := s.cache.Get(key); ok {
		return doc, nil
	}
	entry, err := s.api.GetTimelineEntry(ctx, entryID)
	if err != nil {
		return "", s.mapNotFound(err, "timeline entry", entryID)
	}
	return s.store(key, entry)
}

// ArtifactDocument pairs artifact metadata with a temporary download URL.
// DownloadURL is empty when artifacts.locate fails; the metadata is still
// served.
type ArtifactDocument struct {
	Artifact    *devrev.Artifact `json:"artifact"`
	DownloadURL string           `json:"download_url,omitempty"`
	URLExpires  string           `json:"url_expires_at,omitempty"`
}

// Artifact returns artifact metadata plus a download URL when one can be
// located. Located URLs expire, so artifact documents are not cached.
func (s *Service) Artifact(ctx context.Context, id string) (string, error) {
	art, err := s.api.GetArtifact(ctx, id)
	if err != nil {
		return "", s.mapNotFound(err, "artifact", id)
	}

	doc := ArtifactDocument{Artifact: art}
	located, err := s.api.LocateArtifact(ctx, id)
	if err != nil {
		s.log.Warn("artifact download URL unavailable", "artifact", id, "error", err)
	} else {
		doc.DownloadURL = located.URL
		doc.URLExpires = located.ExpiresAt
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode artifact %s: %w", id, err)
	}
	return string(out), nil
}

// Invalidate drops the cached documents for a work item after a mutation.
func (s *Service) Invalidate(raw string) {
	id := identity.Parse(raw)
	for _, uri := range navURIs(id) {
		s.cache.Delete(uri)
	}
}

func (s *Service) store(key string, doc any) (string, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	s.cache.Set(key, string(out))
	return string(out), nil
}

// resolveLinks degrades to an empty list on failure. Linked items enrich
// the document but the base fetch must not fail because of them.
func (s *Service) resolveLinks(ctx context.Context, objectID, displayID string) []links.LinkedItem {
	items, err := s.links.Resolve(ctx, objectID, displayID)
	if err != nil {
		s.log.Warn("linked work items unavailable", "work", displayID, "error", err)
		return []links.LinkedItem{}
	}
	return items
}

func (s *Service) mapNotFound(err error, resource, id string) error {
	if devrev.IsNotFound(err) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("fetch %s %s: %w", resource, id, err)
}

// collectArtifacts dedups the artifact references embedded across timeline
// entries, first occurrence winning.
func collectArtifacts(entries []devrev.TimelineEntry) []timeline.ArtifactSummary {
	out := []timeline.ArtifactSummary{}
	seen := map[string]bool{}
	for _, entry := range entries {
		for _, ref := range entry.Artifacts {
			if ref.ID == "" || seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true
			out = append(out, timeline.ArtifactSummary{
				ID:          ref.ID,
				DisplayID:   ref.DisplayID,
				Type:        artifactType(ref),
				ResourceURI: "devrev://artifacts/" + ref.ShortID(),
			})
		}
	}
	return out
}

func artifactType(ref devrev.ArtifactRef) string {
	if ref.File.Type != "" {
		return ref.File.Type
	}
	return "unknown"
}

// cachedDoc looks up the cached document of the given kind ("self",
// "timeline", "artifacts") for any identifier form without touching the
// network. Bare numbers are tried against the ticket key first, then the
// issue key, mirroring ResolveWork's probe order.
func (s *Service) cachedDoc(raw, kind string) (string, bool) {
	id := identity.Parse(raw)
	if id.Type != identity.TypeUnknown {
		return s.cache.Get(navURIs(id)[kind])
	}
	for _, typ := range []identity.WorkType{identity.TypeTicket, identity.TypeIssue} {
		if doc, ok := s.cache.Get(navURIs(identity.ForNumber(typ, id.Number))[kind]); ok {
			return doc, true
		}
	}
	return "", false
}

func navURIs(id identity.WorkID) map[string]string {
	switch id.Type {
	case identity.TypeTicket:
		return map[string]string{
			"self":      "devrev://tickets/" + id.Number,
			"timeline":  "devrev://tickets/" + id.Number + "/timeline",
			"artifacts": "devrev://tickets/" + id.Number + "/artifacts",
			"work":      "devrev://works/" + id.Display,
		}
	case identity.TypeIssue:
		return map[string]string{
			"self":      "devrev://issues/" + id.Number,
			"timeline":  "devrev://issues/" + id.Number + "/timeline",
			"artifacts": "devrev://issues/" + id.Number + "/artifacts",
			"work":      "devrev://works/" + id.Display,
		}
	default:
		return map[string]string{"work": "devrev://works/" + id.Display}
	}
}

func workspaceOf(work *devrev.Work) string {
	if work.Sync != nil {
		return work.Sync.OriginSystem
	}
	return ""
}
