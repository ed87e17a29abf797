package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

// SessionTitleMaxRunes caps the auto-derived session title (first user query).
const SessionTitleMaxRunes = 80

// IngestTopicName is the watermill gochannel topic the document service
// publishes to and the ingest consumer subscribes on.
const IngestTopicName = "document.ingest"
