package executor

import (
	"context"

	"doc-qa-be/pkg/store"

	"github.com/google/uuid"
)

// ChunkFilter narrows which ready chunks a snapshot includes. OwnerID is
// always set; DocumentIDs restricts the snapshot to specific documents when
// non-empty. QueryEmbedding, when set, lets a source prefilter large corpora
// by vector distance; sources without a prefilter ignore it.
type ChunkFilter struct {
	OwnerID        uuid.UUID
	DocumentIDs    []uuid.UUID
	QueryEmbedding []float32
}

// ChunkSource yields a point-in-time snapshot of chunks from documents that
// finished processing. The pipeline ranks against the snapshot it was
// handed; documents that become ready mid-query show up on the next call.
type ChunkSource interface {
	ListReadyChunks(ctx context.Context, filter ChunkFilter) ([]store.Chunk, error)
}
