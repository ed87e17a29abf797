package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatQueryRequest struct {
	SessionId *uuid.UUID `json:"session_id"` // omit to start a new session
	Query     string     `json:"query" validate:"required"`
}

type CitationDTO struct {
	DocumentId    string `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	ChunkIndex    int    `json:"chunk_index"`
	PageNumber    *int   `json:"page_number"`
	Snippet       string `json:"snippet"`
}

type ChatQueryResponse struct {
	SessionId uuid.UUID              `json:"session_id"`
	Answer    string                 `json:"answer"`
	Citations []CitationDTO          `json:"citations"`
	Intent    string                 `json:"intent"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Error     string                 `json:"error,omitempty"` // soft failure: answer is a fallback
}

type ChatMessageDTO struct {
	Id        uuid.UUID     `json:"id"`
	Role      string        `json:"role"`
	Content   string        `json:"content"`
	Citations []CitationDTO `json:"citations,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type ListSessionMessagesResponse struct {
	SessionId uuid.UUID        `json:"session_id"`
	Messages  []ChatMessageDTO `json:"messages"`
}
