package contract

import (
	"context"

	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ReadyChunk pairs a stored chunk with its parent document's title so the
// retrieval snapshot can be built in one query.
type ReadyChunk struct {
	Chunk         *entity.DocumentChunk
	DocumentTitle string
}

type DocumentChunkRepository interface {
	Create(ctx context.Context, chunk *entity.DocumentChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// ListReady returns chunks of READY documents owned by the user, optionally
	// narrowed to specific documents, joined with the document title.
	ListReady(ctx context.Context, userId uuid.UUID, documentIds []uuid.UUID) ([]*ReadyChunk, error)
	// ListReadyNearest is the pgvector prefilter: the same READY set ordered by
	// cosine distance to the query embedding, capped at limit.
	ListReadyNearest(ctx context.Context, userId uuid.UUID, queryEmbedding []float32, limit int) ([]*ReadyChunk, error)
}
