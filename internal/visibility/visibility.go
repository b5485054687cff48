// Package visibility classifies timeline-entry visibility tags.
//
// DevRev timeline entries carry an optional visibility field controlling
// who can read them. The mapping is a fixed four-level table; entries
// without a tag default to external (visible to the dev org and the
// customer), which matches the upstream API behavior.
package visibility

import "math"

// Level is a canonical visibility level.
type Level string

const (
	LevelPrivate  Level = "private"
	LevelInternal Level = "internal"
	LevelExternal Level = "external"
	LevelPublic   Level = "public"
)

// Info describes a visibility level with its audience and derived flags.
type Info struct {
	Level           Level  `json:"level"`
	Description     string `json:"description"`
	Audience        string `json:"audience"`
	CustomerVisible bool   `json:"customer_visible"`
	InternalOnly    bool   `json:"internal_only"`
}

var table = map[Level]Info{
	LevelPrivate: {
		Level:        LevelPrivate,
		Description:  "Only visible to the creator",
		Audience:     "Creator only",
		InternalOnly: true,
	},
	LevelInternal: {
		Level:        LevelInternal,
		Description:  "Visible within the Dev organization",
		Audience:     "Dev organization members",
		InternalOnly: true,
	},
	LevelExternal: {
		Level:           LevelExternal,
		Description:     "Visible to Dev organization and Rev users (customers)",
		Audience:        "Dev organization + customers",
		CustomerVisible: true,
	},
	LevelPublic: {
		Level:           LevelPublic,
		Description:     "Visible to all users",
		Audience:        "Everyone",
		CustomerVisible: true,
	},
}

// Classify maps a raw visibility tag to its Info. An empty tag resolves to
// external. Unrecognized tags are passed through with an unknown audience
// rather than rejected — every input maps to a defined output.
func Classify(tag string) Info {
	if tag == "" {
		tag = string(LevelExternal)
	}
	if info, ok := table[Level(tag)]; ok {
		return info
	}
	return Info{
		Level:       Level(tag),
		Description: "Unknown visibility: " + tag,
		Audience:    "Unknown",
	}
}

// Summary is the visibility breakdown across a set of timeline entries.
type Summary struct {
	TotalEntries              int            `json:"total_entries"`
	Breakdown                 map[Level]int  `json:"visibility_breakdown"`
	CustomerVisibleEntries    int            `json:"customer_visible_entries"`
	InternalOnlyEntries       int            `json:"internal_only_entries"`
	CustomerVisiblePercentage float64        `json:"customer_visible_percentage"`
	InternalOnlyPercentage    float64        `json:"internal_only_percentage"`
}

// Summarize computes per-level counts and customer-visible/internal-only
// percentages (one decimal place). Percentages are 0 for an empty input.
func Summarize(infos []Info) Summary {
	s := Summary{Breakdown: make(map[Level]int)}
	for _, info := range infos {
		s.TotalEntries++
		s.Breakdown[info.Level]++
		if info.CustomerVisible {
			s.CustomerVisibleEntries++
		}
		if info.InternalOnly {
			s.InternalOnlyEntries++
		}
	}
	if s.TotalEntries > 0 {
		s.CustomerVisiblePercentage = roundPercent(s.CustomerVisibleEntries, s.TotalEntries)
		s.InternalOnlyPercentage = roundPercent(s.InternalOnlyEntries, s.TotalEntries)
	}
	return s
}

func roundPercent(part, total int) float64 {
	return math.Round(float64(part)/float64(total)*1000) / 10
}
