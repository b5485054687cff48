package devrev

import (
	"encoding/json"
	"strings"
)

// User is a dev or rev user reference as it appears on work items and
// timeline entries.
type User struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Name returns the best human-readable name for the user, falling back to
// the email, then the given default.
func (u User) Name(fallback string) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return fallback
}

// Stage is a work item's lifecycle stage.
type Stage struct {
	Name string `json:"name,omitempty"`
}

// SyncMetadata carries the external-system reference for items synced from
// other trackers (e.g. Jira).
type SyncMetadata struct {
	ExternalReference string `json:"external_reference,omitempty"`
	OriginSystem      string `json:"origin_system,omitempty"`
}

// Work is a DevRev work item (ticket or issue). Only the fields the
// enrichment pipeline reads are modeled; missing fields decode to zero
// values, never errors.
type Work struct {
	ID          string        `json:"id,omitempty"`
	DisplayID   string        `json:"display_id,omitempty"`
	Type        string        `json:"type,omitempty"`
	Title       string        `json:"title,omitempty"`
	Body        string        `json:"body,omitempty"`
	Severity    string        `json:"severity,omitempty"`
	Priority    string        `json:"priority,omitempty"`
	Stage       Stage         `json:"stage,omitempty"`
	CreatedDate string        `json:"created_date,omitempty"`
	ModifiedAt  string        `json:"modified_date,omitempty"`
	CreatedBy   User          `json:"created_by,omitempty"`
	OwnedBy     []User        `json:"owned_by,omitempty"`
	AppliesTo   string        `json:"applies_to_part,omitempty"`
	Sync        *SyncMetadata `json:"sync_metadata,omitempty"`
}

// StageUpdate is the detail payload of a stage_updated timeline entry.
type StageUpdate struct {
	OldStage Stage `json:"old_stage,omitempty"`
	NewStage Stage `json:"new_stage,omitempty"`
}

// FileInfo is artifact file metadata.
type FileInfo struct {
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// ArtifactRef is an artifact reference embedded in a timeline entry. The
// upstream API emits either a full artifact object or a bare ID string, so
// it carries a custom decoder.
type ArtifactRef struct {
	ID        string   `json:"id,omitempty"`
	DisplayID string   `json:"display_id,omitempty"`
	File      FileInfo `json:"file,omitempty"`
}

// UnmarshalJSON accepts both the object form and the bare-string form;
// string references are promoted to minimal records carrying only the ID.
func (a *ArtifactRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*a = ArtifactRef{ID: id}
		return nil
	}
	type plain ArtifactRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = ArtifactRef(p)
	return nil
}

// ShortID returns the trailing path segment of the artifact ID, used in
// navigation URIs.
func (a ArtifactRef) ShortID() string {
	if idx := strings.LastIndex(a.ID, "/"); idx >= 0 {
		return a.ID[idx+1:]
	}
	return a.ID
}

// TimelineEntry is one event on a work item's history. Immutable upstream;
// read-only here.
type TimelineEntry struct {
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type,omitempty"`
	Object       string        `json:"object,omitempty"`
	CreatedDate  string        `json:"created_date,omitempty"`
	CreatedBy    *User         `json:"created_by,omitempty"`
	Body         string        `json:"body,omitempty"`
	Visibility   string        `json:"visibility,omitempty"`
	Artifacts    []ArtifactRef `json:"artifacts,omitempty"`
	StageUpdated *StageUpdate  `json:"stage_updated,omitempty"`
}

// ShortID returns the trailing path segment of the entry ID.
func (e TimelineEntry) ShortID() string {
	if idx := strings.LastIndex(e.ID, "/"); idx >= 0 {
		return e.ID[idx+1:]
	}
	return e.ID
}

// TimelinePage is one page of a timeline-entries.list response.
type TimelinePage struct {
	Entries    []TimelineEntry `json:"timeline_entries"`
	NextCursor string          `json:"next_cursor"`
}

// TimelineListRequest is the payload for timeline-entries.list.
type TimelineListRequest struct {
	Object string `json:"object"`
	Limit  int    `json:"limit,omitempty"`
	Cursor string `json:"cursor,omitempty"`
	Mode   string `json:"mode,omitempty"`
}

// Artifact is a full artifact record from artifacts.get.
type Artifact struct {
	ID          string   `json:"id,omitempty"`
	DisplayID   string   `json:"display_id,omitempty"`
	File        FileInfo `json:"file,omitempty"`
	CreatedDate string   `json:"created_date,omitempty"`
}

// LocatedArtifact is the artifacts.locate response: a temporary download
// URL for the artifact's content.
type LocatedArtifact struct {
	ID        string `json:"id,omitempty"`
	URL       string `json:"url,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// LinkEndpoint is the source or target of a link. It carries enough of the
// work item snapshot to render a linked-item record without another fetch.
type LinkEndpoint struct {
	ID        string        `json:"id,omitempty"`
	Type      string        `json:"type,omitempty"`
	DisplayID string        `json:"display_id,omitempty"`
	Title     string        `json:"title,omitempty"`
	Stage     Stage         `json:"stage,omitempty"`
	Priority  string        `json:"priority,omitempty"`
	OwnedBy   []User        `json:"owned_by,omitempty"`
	Sync      *SyncMetadata `json:"sync_metadata,omitempty"`
}

// Link is a directed, typed relationship between two work items.
type Link struct {
	ID       string       `json:"id,omitempty"`
	LinkType string       `json:"link_type,omitempty"`
	Source   LinkEndpoint `json:"source,omitempty"`
	Target   LinkEndpoint `json:"target,omitempty"`
}

// LinkType is an entry of the link-type reference table.
type LinkType struct {
	ID           string `json:"id,omitempty"`
	ForwardName  string `json:"forward_name,omitempty"`
	BackwardName string `json:"backward_name,omitempty"`
}

// SearchResult is one hit from search.hybrid. Work hits are decoded; other
// namespaces keep their raw payload for pass-through shaping.
type SearchResult struct {
	Type    string          `json:"type,omitempty"`
	Work    *Work           `json:"work,omitempty"`
	Snippet string          `json:"snippet,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and retains the raw payload so
// non-work hits can be passed through untouched.
func (r *SearchResult) UnmarshalJSON(data []byte) error {
	type plain SearchResult
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = SearchResult(p)
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}
