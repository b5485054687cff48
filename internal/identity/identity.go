// Package identity normalizes the work-item identifier formats accepted
// across the DevRev surface.
//
// Callers may pass a bare number ("12345"), a display ID ("TKT-12345",
// "iss-9031" — prefix is case-insensitive), or a full canonical ID
// ("don:core:dvrv-us-1:devo/118WAPdKBc:ticket/12345"). Everything here is
// pure string work; no remote lookups.
package identity

import "strings"

// WorkType is the kind of work item a parsed identifier refers to.
type WorkType string

const (
	TypeTicket  WorkType = "ticket"
	TypeIssue   WorkType = "issue"
	TypeUnknown WorkType = "unknown"
)

// Prefix returns the display-ID prefix for the type ("TKT" or "ISS"),
// or empty for unknown.
func (t WorkType) Prefix() string {
	switch t {
	case TypeTicket:
		return "TKT"
	case TypeIssue:
		return "ISS"
	default:
		return ""
	}
}

// WorkID is a normalized work-item identifier.
type WorkID struct {
	// Type is ticket, issue, or unknown when the input was a bare number.
	Type WorkType
	// Number is the numeric suffix ("12345").
	Number string
	// Display is the canonical display form ("TKT-12345"). For unknown
	// types it equals the raw input.
	Display string
}

// Parse normalizes a raw identifier into a WorkID.
//
// Canonical "don:" IDs take precedence for type detection; display-ID
// prefixes are matched case-insensitively; anything else is treated as a
// bare number with unknown type — callers must probe ticket first, then
// issue (see workitem.Service.ResolveWork).
func Parse(raw string) WorkID {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "don:core:") {
		if _, num, ok := splitCanonical(raw, ":ticket/"); ok {
			return WorkID{Type: TypeTicket, Number: num, Display: "TKT-" + num}
		}
		if _, num, ok := splitCanonical(raw, ":issue/"); ok {
			return WorkID{Type: TypeIssue, Number: num, Display: "ISS-" + num}
		}
	}

	upper := strings.ToUpper(raw)
	switch {
	case strings.HasPrefix(upper, "TKT-"):
		num := raw[4:]
		return WorkID{Type: TypeTicket, Number: num, Display: "TKT-" + num}
	case strings.HasPrefix(upper, "ISS-"):
		num := raw[4:]
		return WorkID{Type: TypeIssue, Number: num, Display: "ISS-" + num}
	}

	return WorkID{Type: TypeUnknown, Number: raw, Display: raw}
}

// ForNumber builds the WorkID for a number whose type is already known,
// e.g. from the resource URI it arrived on.
func ForNumber(t WorkType, number string) WorkID {
	number = strings.TrimSpace(number)
	// Tolerate callers passing a display ID where a number is expected.
	if parsed := Parse(number); parsed.Type != TypeUnknown {
		return parsed
	}
	if p := t.Prefix(); p != "" {
		return WorkID{Type: t, Number: number, Display: p + "-" + number}
	}
	return WorkID{Type: TypeUnknown, Number: number, Display: number}
}

func splitCanonical(raw, marker string) (prefix, number string, ok bool) {
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return "", "", false
	}
	return raw[:idx], raw[idx+len(marker):], true
}
