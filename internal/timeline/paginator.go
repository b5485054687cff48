// Package timeline aggregates a work item's paginated history and
// reassembles it into a structured conversation thread with derived
// statistics.
package timeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saramaebee/mcp-server/internal/devrev"
)

const (
	// pageSize matches the upstream default page limit.
	pageSize = 50
	// maxPages is a runaway-loop guard, not a correctness bound. Hitting
	// it stops the walk without error.
	maxPages = 50
)

// Lister is the single remote operation the paginator needs.
type Lister interface {
	ListTimelineEntries(ctx context.Context, req devrev.TimelineListRequest) (*devrev.TimelinePage, error)
}

// Paginator drains all pages of a work item's timeline.
type Paginator struct {
	api Lister
	log *slog.Logger
}

// NewPaginator builds a Paginator. A nil logger falls back to slog.Default.
func NewPaginator(api Lister, log *slog.Logger) *Paginator {
	if log == nil {
		log = slog.Default()
	}
	return &Paginator{api: api, log: log}
}

// FetchAll walks the cursor-based pagination protocol and returns the
// complete ordered history for the object. Pages are fetched strictly
// one after another (each cursor depends on the previous response) and
// concatenated in request order; entries are never resorted.
//
// The walk stops when the continuation cursor is empty, a page is empty,
// or maxPages is reached. Any page failure aborts the whole aggregation;
// partial pages are discarded, not returned.
func (p *Paginator) FetchAll(ctx context.Context, objectID string) ([]devrev.TimelineEntry, error) {
	var all []devrev.TimelineEntry
	cursor := ""

	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		req := devrev.TimelineListRequest{Object: objectID, Limit: pageSize}
		if cursor != "" {
			req.Cursor = cursor
			req.Mode = "after"
		}

		page, err := p.api.ListTimelineEntries(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fetching timeline page %d for %s: %w", pageNum, objectID, err)
		}

		all = append(all, page.Entries...)
		p.log.Debug("fetched timeline page",
			"object", objectID, "page", pageNum,
			"entries", len(page.Entries), "total", len(all))

		cursor = page.NextCursor
		if cursor == "" || len(page.Entries) == 0 {
			return all, nil
		}
	}

	p.log.Warn("timeline page ceiling reached", "object", objectID, "pages", maxPages, "entries", len(all))
	return all, nil
}
