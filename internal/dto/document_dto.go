package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title string `json:"title" validate:"required"`
	Text  string `json:"text" validate:"required"`
}

type CreateDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type DocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	FailReason string     `json:"fail_reason,omitempty"`
	ChunkCount int64      `json:"chunk_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type RunUtilityRequest struct {
	Action         string `json:"action" validate:"required"`
	TargetLanguage string `json:"target_language"`
}

type RunUtilityResponse struct {
	Output   string                 `json:"output"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// IngestDocumentMessage is the payload queued on the ingest topic when a
// document is created or re-extracted.
type IngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
	UserId     uuid.UUID `json:"user_id"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
}
