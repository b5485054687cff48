package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saramaebee/mcp-server/internal/devrev"
	"github.com/saramaebee/mcp-server/internal/identity"
	"github.com/saramaebee/mcp-server/internal/visibility"
)

var ticketCtx = WorkContext{
	ID:            identity.WorkID{Type: identity.TypeTicket, Number: "42", Display: "TKT-42"},
	CustomerEmail: "alice@customer.example",
}

func comment(author *devrev.User, body string) devrev.TimelineEntry {
	return devrev.TimelineEntry{Type: "timeline_comment", CreatedBy: author, Body: body}
}

var (
	customer = &devrev.User{DisplayName: "Alice", Email: "alice@customer.example"}
	agent    = &devrev.User{DisplayName: "Bob", Email: "bob@devorg.example"}
	bot      = &devrev.User{DisplayName: "DevRev System Bot"}
)

func TestSequenceNumbersOnlyOnConversation(t *testing.T) {
	// Entries 2 and 4 are key events; conversation entries get [1,2,3].
	entries := []devrev.TimelineEntry{
		comment(customer, "it broke"),
		{Type: "stage_updated"},
		comment(agent, "looking into it"),
		{Type: "work_updated"},
		comment(customer, "thanks"),
	}

	th := BuildThread(entries, ticketCtx)
	require.Len(t, th.Conversation, 3)
	require.Len(t, th.KeyEvents, 2)

	for i, ce := range th.Conversation {
		assert.Equal(t, i+1, ce.Seq)
	}
}

func TestSpeakerDerivation(t *testing.T) {
	entries := []devrev.TimelineEntry{
		comment(customer, "hello"),
		comment(agent, "hi"),
		comment(bot, "auto-reply"),
		comment(nil, "orphaned"),
	}

	th := BuildThread(entries, ticketCtx)
	require.Len(t, th.Conversation, 4)
	assert.Equal(t, SpeakerCustomer, th.Conversation[0].Speaker.Type)
	assert.Equal(t, "Alice", th.Conversation[0].Speaker.Name)
	assert.Equal(t, SpeakerSupport, th.Conversation[1].Speaker.Type)
	assert.Equal(t, SpeakerSystem, th.Conversation[2].Speaker.Type)
	assert.Equal(t, SpeakerSupport, th.Conversation[3].Speaker.Type)
	assert.Equal(t, "Unknown", th.Conversation[3].Speaker.Name)
}

func TestLastMessageTimestampsLastWins(t *testing.T) {
	entries := []devrev.TimelineEntry{
		{Type: "timeline_comment", CreatedBy: customer, Body: "a", CreatedDate: "2026-01-01T00:00:00Z"},
		{Type: "timeline_comment", CreatedBy: agent, Body: "b", CreatedDate: "2026-01-02T00:00:00Z"},
		{Type: "timeline_comment", CreatedBy: customer, Body: "c", CreatedDate: "2026-01-03T00:00:00Z"},
	}

	th := BuildThread(entries, ticketCtx)
	assert.Equal(t, "2026-01-03T00:00:00Z", th.LastCustomerMessage)
	assert.Equal(t, "2026-01-02T00:00:00Z", th.LastSupportResponse)
}

func TestFallbackClassification(t *testing.T) {
	entries := []devrev.TimelineEntry{
		{Type: "custom_note", CreatedBy: agent, Body: "unrecognized but has content"},
		{Type: "sla_breached"},              // unrecognized, no body: key event
		{Type: "", Body: ""},                // empty type: skipped entirely
		{Type: "unknown", Body: ""},         // "unknown" type: skipped entirely
		{Type: "work_created", CreatedBy: agent},
	}

	th := BuildThread(entries, ticketCtx)
	require.Len(t, th.Conversation, 1)
	assert.Equal(t, "custom_note", th.Conversation[0].EventType)

	require.Len(t, th.KeyEvents, 2)
	assert.Equal(t, "sla breached", th.KeyEvents[0].Label)
	assert.Equal(t, "created", th.KeyEvents[1].Label)

	// Skipped entries contribute nothing to the visibility summary.
	assert.Equal(t, 3, th.Visibility.TotalEntries)
}

func TestStageTransitionDetail(t *testing.T) {
	entries := []devrev.TimelineEntry{{
		Type:      "stage_updated",
		CreatedBy: agent,
		StageUpdated: &devrev.StageUpdate{
			OldStage: devrev.Stage{Name: "queued"},
			NewStage: devrev.Stage{Name: "in_development"},
		},
	}}

	th := BuildThread(entries, ticketCtx)
	require.Len(t, th.KeyEvents, 1)
	ev := th.KeyEvents[0]
	assert.Equal(t, "stage updated", ev.Label)
	assert.Equal(t, "queued", ev.FromStage)
	assert.Equal(t, "in_development", ev.ToStage)
	require.NotNil(t, ev.Actor)
	assert.Equal(t, "Bob", ev.Actor.Name)
}

func TestArtifactDedupFirstSeenWins(t *testing.T) {
	first := comment(customer, "see screenshot")
	first.Artifacts = []devrev.ArtifactRef{{ID: "art-1", DisplayID: "ARTIFACT-1", File: devrev.FileInfo{Type: "image/png"}}}
	second := comment(agent, "same screenshot again")
	second.Artifacts = []devrev.ArtifactRef{{ID: "art-1"}}

	th := BuildThread([]devrev.TimelineEntry{first, second}, ticketCtx)
	require.Len(t, th.Artifacts, 1)
	assert.Equal(t, "ARTIFACT-1", th.Artifacts[0].DisplayID)
	assert.Equal(t, 1, th.Artifacts[0].AttachedTo, "first occurrence wins")

	// Both conversation entries still list their own attachment.
	assert.Len(t, th.Conversation[0].Artifacts, 1)
	assert.Len(t, th.Conversation[1].Artifacts, 1)
}

func TestStringArtifactRefsPromoted(t *testing.T) {
	entry := comment(customer, "attached")
	entry.Artifacts = []devrev.ArtifactRef{{ID: "don:core:x:artifact/9"}}

	th := BuildThread([]devrev.TimelineEntry{entry}, ticketCtx)
	require.Len(t, th.Artifacts, 1)
	assert.Equal(t, "unknown", th.Artifacts[0].Type)
	assert.Equal(t, "devrev://artifacts/9", th.Artifacts[0].ResourceURI)
}

func TestVisibilitySummaryOverConversationAndEvents(t *testing.T) {
	entries := []devrev.TimelineEntry{
		{Type: "timeline_comment", CreatedBy: customer, Body: "hi", Visibility: "private"},
		{Type: "timeline_comment", CreatedBy: agent, Body: "hello"}, // absent → external
		{Type: "stage_updated", Visibility: "external"},
		{Type: "work_created", Visibility: "public"},
	}

	th := BuildThread(entries, ticketCtx)
	sum := th.Visibility
	assert.Equal(t, 4, sum.TotalEntries)
	assert.Equal(t, 3, sum.CustomerVisibleEntries)
	assert.Equal(t, 75.0, sum.CustomerVisiblePercentage)
	assert.Equal(t, 2, sum.Breakdown[visibility.LevelExternal])
}

func TestEntryURIUsesWorkType(t *testing.T) {
	entry := comment(customer, "hi")
	entry.ID = "don:core:x:timeline/77"

	th := BuildThread([]devrev.TimelineEntry{entry}, ticketCtx)
	assert.Equal(t, "devrev://tickets/42/timeline/77", th.Conversation[0].EntryURI)

	issueCtx := WorkContext{ID: identity.WorkID{Type: identity.TypeIssue, Number: "9", Display: "ISS-9"}}
	th = BuildThread([]devrev.TimelineEntry{entry}, issueCtx)
	assert.Equal(t, "devrev://issues/9/timeline/77", th.Conversation[0].EntryURI)
}
