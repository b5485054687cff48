package devrev

// DevRev API operation names. Every operation is a POST to
// <base-url>/<operation> with a JSON payload.
const (
	WorksGet    = "works.get"
	WorksCreate = "works.create"
	WorksUpdate = "works.update"

	TimelineEntriesList   = "timeline-entries.list"
	TimelineEntriesGet    = "timeline-entries.get"
	TimelineEntriesCreate = "timeline-entries.create"

	ArtifactsGet    = "artifacts.get"
	ArtifactsLocate = "artifacts.locate"

	LinksList     = "links.list"
	LinkTypesList = "link-types.list"

	SearchHybrid = "search.hybrid"
)
