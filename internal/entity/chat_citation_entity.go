package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatCitation struct {
	Id            uuid.UUID
	ChatMessageId uuid.UUID
	DocumentId    uuid.UUID
	DocumentTitle string
	ChunkIndex    int
	PageNumber    *int
	Snippet       string
	CreatedAt     time.Time
}
