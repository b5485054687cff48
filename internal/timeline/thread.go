package timeline

import (
	"strings"

	"github.com/saramaebee/mcp-server/internal/devrev"
	"github.com/saramaebee/mcp-server/internal/identity"
	"github.com/saramaebee/mcp-server/internal/visibility"
)

// Recognized entry types. Anything else goes through the fallback
// classification in BuildThread.
const entryTypeComment = "timeline_comment"

var systemEventTypes = map[string]bool{
	"work_created":   true,
	"stage_updated":  true,
	"part_suggested": true,
	"work_updated":   true,
}

// Speaker types for conversation entries.
const (
	SpeakerCustomer = "customer"
	SpeakerSupport  = "support"
	SpeakerSystem   = "system"
)

// Speaker attributes a conversation entry or event to a person.
type Speaker struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ArtifactSummary is the deduplicated view of an artifact attached to the
// timeline.
type ArtifactSummary struct {
	ID          string `json:"id"`
	DisplayID   string `json:"display_id,omitempty"`
	Type        string `json:"type"`
	AttachedTo  int    `json:"attached_to_message,omitempty"`
	ResourceURI string `json:"resource_uri"`
}

// ConversationEntry is a timeline entry classified as conversational.
// Sequence numbers are 1-based and assigned only to conversation entries,
// in traversal order.
type ConversationEntry struct {
	Seq        int               `json:"seq"`
	Timestamp  string            `json:"timestamp"`
	EventType  string            `json:"event_type"`
	Speaker    Speaker           `json:"speaker"`
	Message    string            `json:"message"`
	Artifacts  []ArtifactSummary `json:"artifacts"`
	Visibility visibility.Info   `json:"visibility_info"`
	EntryURI   string            `json:"timeline_entry_uri,omitempty"`
}

// KeyEvent is a timeline entry classified as a system event. Key events
// carry no sequence number.
type KeyEvent struct {
	Label      string          `json:"type"`
	EventType  string          `json:"event_type"`
	Timestamp  string          `json:"timestamp"`
	Visibility visibility.Info `json:"visibility_info"`
	Actor      *Speaker        `json:"actor,omitempty"`
	FromStage  string          `json:"from_stage,omitempty"`
	ToStage    string          `json:"to_stage,omitempty"`
}

// Thread is the reassembled view of a work item's timeline.
type Thread struct {
	Conversation []ConversationEntry
	KeyEvents    []KeyEvent
	Artifacts    []ArtifactSummary
	Visibility   visibility.Summary

	// Timestamps of the most recent customer/support conversation entry;
	// last-wins in traversal order, which is chronological.
	LastCustomerMessage string
	LastSupportResponse string
}

// WorkContext is the queried work item's identity, used for speaker
// attribution and navigation URIs.
type WorkContext struct {
	ID            identity.WorkID
	CustomerEmail string
}

// BuildThread partitions aggregated entries into a conversation thread and
// a key-event log, deduplicates embedded artifacts, and computes the
// visibility breakdown.
//
// Classification, per entry in traversal order: comments are conversation;
// recognized system types are key events; unrecognized types with a body
// fall back to conversation, with an empty type are skipped entirely, and
// otherwise fall back to key events.
func BuildThread(entries []devrev.TimelineEntry, wctx WorkContext) *Thread {
	t := &Thread{
		Conversation: []ConversationEntry{},
		KeyEvents:    []KeyEvent{},
		Artifacts:    []ArtifactSummary{},
	}
	var infos []visibility.Info
	seen := map[string]bool{}
	seq := 1

	for _, entry := range entries {
		info := visibility.Classify(entry.Visibility)

		switch {
		case entry.Type == entryTypeComment:
			t.appendConversation(entry, info, &seq, seen, wctx)
		case systemEventTypes[entry.Type]:
			t.KeyEvents = append(t.KeyEvents, buildKeyEvent(entry, info, wctx, true))
		case strings.TrimSpace(entry.Body) != "":
			t.appendConversation(entry, info, &seq, seen, wctx)
		case entry.Type == "" || entry.Type == "unknown":
			continue
		default:
			t.KeyEvents = append(t.KeyEvents, buildKeyEvent(entry, info, wctx, false))
		}
		infos = append(infos, info)
	}

	t.Visibility = visibility.Summarize(infos)
	return t
}

func (t *Thread) appendConversation(entry devrev.TimelineEntry, info visibility.Info, seq *int, seen map[string]bool, wctx WorkContext) {
	speaker := speakerFor(entry.CreatedBy, wctx.CustomerEmail)

	ce := ConversationEntry{
		Seq:        *seq,
		Timestamp:  entry.CreatedDate,
		EventType:  entry.Type,
		Speaker:    speaker,
		Message:    entry.Body,
		Artifacts:  []ArtifactSummary{},
		Visibility: info,
	}
	if short := entry.ShortID(); short != "" {
		ce.EntryURI = entryURI(wctx.ID, short)
	}

	for _, ref := range entry.Artifacts {
		if ref.ID == "" {
			continue
		}
		summary := ArtifactSummary{
			ID:          ref.ID,
			DisplayID:   ref.DisplayID,
			Type:        artifactType(ref),
			AttachedTo:  *seq,
			ResourceURI: "devrev://artifacts/" + ref.ShortID(),
		}
		ce.Artifacts = append(ce.Artifacts, summary)
		// First occurrence across the full traversal wins.
		if !seen[ref.ID] {
			seen[ref.ID] = true
			t.Artifacts = append(t.Artifacts, summary)
		}
	}

	t.Conversation = append(t.Conversation, ce)
	*seq++

	switch speaker.Type {
	case SpeakerCustomer:
		t.LastCustomerMessage = entry.CreatedDate
	case SpeakerSupport:
		t.LastSupportResponse = entry.CreatedDate
	}
}

func buildKeyEvent(entry devrev.TimelineEntry, info visibility.Info, wctx WorkContext, recognized bool) KeyEvent {
	ev := KeyEvent{
		Label:      eventLabel(entry.Type, recognized),
		EventType:  entry.Type,
		Timestamp:  entry.CreatedDate,
		Visibility: info,
	}

	if entry.Type == "stage_updated" && entry.StageUpdated != nil {
		ev.FromStage = entry.StageUpdated.OldStage.Name
		ev.ToStage = entry.StageUpdated.NewStage.Name
	}

	if author := entry.CreatedBy; author != nil {
		actorType := SpeakerSupport
		if wctx.CustomerEmail != "" && author.Email == wctx.CustomerEmail {
			actorType = SpeakerCustomer
		}
		ev.Actor = &Speaker{Name: author.Name("System"), Type: actorType}
	}
	return ev
}

// speakerFor derives the speaker type: the work item creator's contact
// address means customer, a display name containing "system" means system,
// anything else is support.
func speakerFor(author *devrev.User, customerEmail string) Speaker {
	if author == nil {
		return Speaker{Name: "Unknown", Type: SpeakerSupport}
	}
	typ := SpeakerSupport
	switch {
	case customerEmail != "" && author.Email == customerEmail:
		typ = SpeakerCustomer
	case strings.Contains(strings.ToLower(author.DisplayName), "system"):
		typ = SpeakerSystem
	}
	return Speaker{Name: author.Name("Unknown"), Type: typ}
}

// eventLabel normalizes a recognized event type ("stage_updated" →
// "stage updated", "work_created" → "created"); unrecognized types just
// swap underscores for spaces.
func eventLabel(entryType string, recognized bool) string {
	label := entryType
	if recognized {
		label = strings.TrimPrefix(label, "work_")
	}
	return strings.ReplaceAll(label, "_", " ")
}

func artifactType(ref devrev.ArtifactRef) string {
	if ref.File.Type != "" {
		return ref.File.Type
	}
	return "unknown"
}

func entryURI(id identity.WorkID, entryShortID string) string {
	switch id.Type {
	case identity.TypeIssue:
		return "devrev://issues/" + id.Number + "/timeline/" + entryShortID
	default:
		return "devrev://tickets/" + id.Number + "/timeline/" + entryShortID
	}
}
