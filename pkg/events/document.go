package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type codes. The NATS publisher derives the subject from the code, so
// "document.ready" is delivered on "events.document.ready".
const (
	TypeDocumentReady     = "document.ready"
	TypeDocumentFailed    = "document.failed"
	TypeDocumentExtracted = "document.extracted"
	TypeChatAnswered      = "chat.answered"
)

// NewDocumentReady is emitted after every chunk of a document has been
// embedded and stored.
func NewDocumentReady(documentId, userId uuid.UUID, chunkCount int) Event {
	return BaseEvent{
		Type: TypeDocumentReady,
		Data: map[string]interface{}{
			"document_id": documentId.String(),
			"user_id":     userId.String(),
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentFailed is emitted when ingestion aborts. The document stays
// invisible to retrieval.
func NewDocumentFailed(documentId, userId uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: TypeDocumentFailed,
		Data: map[string]interface{}{
			"document_id": documentId.String(),
			"user_id":     userId.String(),
			"reason":      reason,
		},
		OccurredAt: time.Now(),
	}
}

// NewChatAnswered is emitted after an assistant turn has been persisted.
func NewChatAnswered(sessionId, userId uuid.UUID, intent string, citationCount int) Event {
	return BaseEvent{
		Type: TypeChatAnswered,
		Data: map[string]interface{}{
			"session_id":     sessionId.String(),
			"user_id":        userId.String(),
			"intent":         intent,
			"citation_count": citationCount,
		},
		OccurredAt: time.Now(),
	}
}

// DocumentExtracted is the payload external extraction workers publish on
// events.document.extracted. Text is the full extracted content; the ingest
// consumer splits and embeds it.
type DocumentExtracted struct {
	DocumentId uuid.UUID `json:"document_id"`
	UserId     uuid.UUID `json:"user_id"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
}
