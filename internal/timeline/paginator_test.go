package timeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saramaebee/mcp-server/internal/devrev"
)

// stubLister serves scripted pages and records the requests it saw.
type stubLister struct {
	pages    []*devrev.TimelinePage
	requests []devrev.TimelineListRequest
	err      error
	errOn    int // 1-based page index to fail on; 0 = never
}

func (s *stubLister) ListTimelineEntries(_ context.Context, req devrev.TimelineListRequest) (*devrev.TimelinePage, error) {
	s.requests = append(s.requests, req)
	call := len(s.requests)
	if s.errOn != 0 && call == s.errOn {
		return nil, s.err
	}
	if call > len(s.pages) {
		return &devrev.TimelinePage{}, nil
	}
	return s.pages[call-1], nil
}

func entriesNamed(ids ...string) []devrev.TimelineEntry {
	out := make([]devrev.TimelineEntry, len(ids))
	for i, id := range ids {
		out[i] = devrev.TimelineEntry{ID: id, Type: "timeline_comment", Body: "msg " + id}
	}
	return out
}

func TestFetchAllPreservesPageOrder(t *testing.T) {
	// Pages of sizes [2,3,1] concatenate in natural order, never resorted.
	stub := &stubLister{pages: []*devrev.TimelinePage{
		{Entries: entriesNamed("e1", "e2"), NextCursor: "c1"},
		{Entries: entriesNamed("e3", "e4", "e5"), NextCursor: "c2"},
		{Entries: entriesNamed("e6")},
	}}

	got, err := NewPaginator(stub, nil).FetchAll(context.Background(), "TKT-1")
	require.NoError(t, err)
	require.Len(t, got, 6)
	for i, want := range []string{"e1", "e2", "e3", "e4", "e5", "e6"} {
		assert.Equal(t, want, got[i].ID)
	}
}

func TestFetchAllCursorProtocol(t *testing.T) {
	stub := &stubLister{pages: []*devrev.TimelinePage{
		{Entries: entriesNamed("e1"), NextCursor: "c1"},
		{Entries: entriesNamed("e2")},
	}}

	_, err := NewPaginator(stub, nil).FetchAll(context.Background(), "TKT-1")
	require.NoError(t, err)
	require.Len(t, stub.requests, 2)

	first := stub.requests[0]
	assert.Equal(t, "TKT-1", first.Object)
	assert.Equal(t, 50, first.Limit)
	assert.Empty(t, first.Cursor)
	assert.Empty(t, first.Mode)

	second := stub.requests[1]
	assert.Equal(t, "c1", second.Cursor)
	assert.Equal(t, "after", second.Mode)
}

func TestFetchAllStopsOnEmptyPage(t *testing.T) {
	// A cursor with an empty page still terminates the walk.
	stub := &stubLister{pages: []*devrev.TimelinePage{
		{Entries: entriesNamed("e1"), NextCursor: "c1"},
		{Entries: nil, NextCursor: "c2"},
	}}

	got, err := NewPaginator(stub, nil).FetchAll(context.Background(), "TKT-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Len(t, stub.requests, 2)
}

func TestFetchAllTerminatesOnCursorCycle(t *testing.T) {
	// A remote stub that always returns a live cursor must stop at the
	// page ceiling, without error.
	cycling := &cyclingLister{}
	got, err := NewPaginator(cycling, nil).FetchAll(context.Background(), "TKT-1")
	require.NoError(t, err)
	assert.Equal(t, 50, cycling.calls)
	assert.Len(t, got, 50)
}

type cyclingLister struct{ calls int }

func (c *cyclingLister) ListTimelineEntries(context.Context, devrev.TimelineListRequest) (*devrev.TimelinePage, error) {
	c.calls++
	return &devrev.TimelinePage{
		Entries:    entriesNamed(fmt.Sprintf("e%d", c.calls)),
		NextCursor: fmt.Sprintf("cursor-%d", c.calls%2),
	}, nil
}

func TestFetchAllAbortsOnPageFailure(t *testing.T) {
	stub := &stubLister{
		pages: []*devrev.TimelinePage{
			{Entries: entriesNamed("e1"), NextCursor: "c1"},
		},
		errOn: 2,
		err:   &devrev.APIError{Endpoint: devrev.TimelineEntriesList, Status: 502, Body: "bad gateway"},
	}

	got, err := NewPaginator(stub, nil).FetchAll(context.Background(), "TKT-1")
	require.Error(t, err)
	assert.Nil(t, got, "partial pages must be discarded")

	var apiErr *devrev.APIError
	assert.ErrorAs(t, err, &apiErr)
}
