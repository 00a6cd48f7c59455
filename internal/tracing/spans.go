package tracing

// Span attribute keys.
const (
	// Graph attributes
	AttrGraphGUID        = "graph.guid"
	AttrGraphName        = "graph.name"
	AttrNodeCount        = "graph.nodes"
	AttrWireCount        = "graph.wires"
	AttrPlaceholderCount = "graph.placeholders"

	// Document attributes
	AttrDocumentPath   = "document.path"
	AttrDocumentFormat = "document.format"

	// Repository attributes
	AttrRepoOperation = "repo.operation"
	AttrCacheHit      = "cache.hit"

	// Error attributes
	AttrErrorMessage = "error.message"
)

// Span name prefixes for consistent naming.
const (
	SpanPrefixDocument = "document."
	SpanPrefixRepo     = "repo."
	SpanPrefixCommand  = "command."
)

// Event names for span events.
const (
	EventPlaceholderCreated = "placeholder.created"
	EventRepairApplied      = "repair.applied"
	EventRecordSkipped      = "record.skipped"
	EventErrorOccurred      = "error.occurred"
)
