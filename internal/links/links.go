// Package links resolves the work items linked to a given work item and
// renders each relationship as a human-readable phrase.
package links

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/saramaebee/mcp-server/internal/devrev"
)

// API is the slice of the DevRev client the resolver needs.
type API interface {
	ListLinks(ctx context.Context, objectID string) ([]devrev.Link, error)
	ListLinkTypes(ctx context.Context) ([]devrev.LinkType, error)
}

type phrase struct {
	forward  string
	backward string
}

// Resolver turns raw link records into enriched LinkedItems. Link-type
// display names are fetched once per process and cached independently of
// the document cache; a failed fetch does not poison the cache and is
// retried on the next resolution.
type Resolver struct {
	api API
	log *slog.Logger

	mu     sync.Mutex
	types  map[string]phrase
	loaded bool
}

func NewResolver(api API, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{api: api, log: log}
}

// LinkedItem is one resolved relationship of the queried work item.
type LinkedItem struct {
	ID                string            `json:"id"`
	Type              string            `json:"type,omitempty"`
	DisplayID         string            `json:"display_id,omitempty"`
	Title             string            `json:"title,omitempty"`
	LinkType          string            `json:"link_type"`
	Direction         string            `json:"relationship_direction"`
	Description       string            `json:"relationship_description"`
	Stage             string            `json:"stage"`
	Priority          string            `json:"priority"`
	OwnedBy           []string          `json:"owned_by,omitempty"`
	ExternalReference string            `json:"external_reference,omitempty"`
	OriginSystem      string            `json:"origin_system,omitempty"`
	Links             map[string]string `json:"links"`
}

// Resolve lists the links where objectID appears in either position and
// returns the endpoints other than the item itself, deduplicated by ID
// with the first occurrence winning. displayID labels the item in the
// relationship descriptions.
func (r *Resolver) Resolve(ctx context.Context, objectID, displayID string) ([]LinkedItem, error) {
	raw, err := r.api.ListLinks(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("list links for %s: %w", objectID, err)
	}

	phrases := r.linkTypePhrases(ctx)

	items := []LinkedItem{}
	seen := map[string]bool{}
	for _, link := range raw {
		endpoint, outbound := otherEndpoint(link, objectID)
		if endpoint == nil || seen[endpoint.ID] {
			continue
		}
		seen[endpoint.ID] = true
		items = append(items, buildItem(link, *endpoint, outbound, displayID, phrases))
	}
	return items, nil
}

// otherEndpoint picks the endpoint that is not the queried item. A link is
// outbound when the item is the source. Self-links resolve to nil.
func otherEndpoint(link devrev.Link, objectID string) (*devrev.LinkEndpoint, bool) {
	switch {
	case link.Source.ID == objectID && link.Target.ID != objectID:
		return &link.Target, true
	case link.Target.ID == objectID && link.Source.ID != objectID:
		return &link.Source, false
	default:
		return nil, false
	}
}

func buildItem(link devrev.Link, ep devrev.LinkEndpoint, outbound bool, displayID string, phrases map[string]phrase) LinkedItem {
	item := LinkedItem{
		ID:        ep.ID,
		Type:      ep.Type,
		DisplayID: ep.DisplayID,
		Title:     ep.Title,
		LinkType:  link.LinkType,
		Stage:     "unknown",
		Priority:  "unknown",
		Links:     navURIs(ep),
	}
	if ep.Stage.Name != "" {
		item.Stage = ep.Stage.Name
	}
	if ep.Priority != "" {
		item.Priority = ep.Priority
	}
	for _, owner := range ep.OwnedBy {
		item.OwnedBy = append(item.OwnedBy, owner.Name("Unknown"))
	}
	if ep.Sync != nil {
		item.ExternalReference = ep.Sync.ExternalReference
		item.OriginSystem = ep.Sync.OriginSystem
	}

	label := ep.DisplayID
	if label == "" {
		label = ep.ID
	}
	p, ok := phrases[link.LinkType]
	if !ok {
		p = phrase{forward: link.LinkType, backward: link.LinkType}
	}
	if outbound {
		item.Direction = "outbound"
		item.Description = fmt.Sprintf("%s %s %s", displayID, p.forward, label)
	} else {
		item.Direction = "inbound"
		item.Description = fmt.Sprintf("%s %s %s", label, p.backward, displayID)
	}
	return item
}

// navURIs builds the resource URIs for navigating to a linked item. Every
// item gets a works URI; tickets and issues with numeric display IDs also
// get their typed URIs.
func navURIs(ep devrev.LinkEndpoint) map[string]string {
	display := ep.DisplayID
	if display == "" {
		display = ep.ID
	}
	uris := map[string]string{
		"work": "devrev://works/" + display,
	}
	switch {
	case ep.Type == "ticket" && strings.HasPrefix(ep.DisplayID, "TKT-"):
		n := strings.TrimPrefix(ep.DisplayID, "TKT-")
		uris["ticket"] = "devrev://tickets/" + n
		uris["timeline"] = "devrev://tickets/" + n + "/timeline"
		uris["artifacts"] = "devrev://tickets/" + n + "/artifacts"
	case ep.Type == "issue" && strings.HasPrefix(ep.DisplayID, "ISS-"):
		n := strings.TrimPrefix(ep.DisplayID, "ISS-")
		uris["issue"] = "devrev://issues/" + n
		uris["timeline"] = "devrev://issues/" + n + "/timeline"
		uris["artifacts"] = "devrev://issues/" + n + "/artifacts"
	}
	return uris
}

// linkTypePhrases returns the cached link-type table, fetching it on first
// use. On fetch failure an empty table is returned and the failure is
// logged; the raw link-type name then serves as the phrase.
func (r *Resolver) linkTypePhrases(ctx context.Context) map[string]phrase {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return r.types
	}
	types, err := r.api.ListLinkTypes(ctx)
	if err != nil {
		r.log.Warn("link types unavailable, using raw link type names", "error", err)
		return map[string]phrase{}
	}

	r.types = make(map[string]phrase, len(types))
	for _, lt := range types {
		p := phrase{forward: lt.ForwardName, backward: lt.BackwardName}
		if p.forward == "" {
			p.forward = lt.ID
		}
		if p.backward == "" {
			p.backward = p.forward
		}
		r.types[lt.ID] = p
	}
	r.loaded = true
	return r.types
}
