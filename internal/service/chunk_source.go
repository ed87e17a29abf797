package service

import (
	"context"

	"doc-qa-be/internal/repository/contract"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/rag/executor"
	"doc-qa-be/pkg/store"
)

// RepositoryChunkSource feeds the retrieval pipeline from the chunk table.
// Each call reads a fresh snapshot, so documents that turn READY mid-query
// are simply picked up on the next query.
type RepositoryChunkSource struct {
	uowFactory unitofwork.RepositoryFactory

	// candidatePool > 0 switches large corpora to the pgvector prefilter:
	// only the nearest candidatePool chunks enter ranking. Zero means the
	// full ready set is ranked.
	candidatePool int
}

func NewRepositoryChunkSource(uowFactory unitofwork.RepositoryFactory, candidatePool int) *RepositoryChunkSource {
	return &RepositoryChunkSource{
		uowFactory:    uowFactory,
		candidatePool: candidatePool,
	}
}

// ListReadyChunks implements executor.ChunkSource.
func (s *RepositoryChunkSource) ListReadyChunks(ctx context.Context, filter executor.ChunkFilter) ([]store.Chunk, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	var rows []*contract.ReadyChunk
	var err error
	if s.candidatePool > 0 && len(filter.QueryEmbedding) > 0 && len(filter.DocumentIDs) == 0 {
		rows, err = uow.DocumentChunkRepository().ListReadyNearest(ctx, filter.OwnerID, filter.QueryEmbedding, s.candidatePool)
	} else {
		rows, err = uow.DocumentChunkRepository().ListReady(ctx, filter.OwnerID, filter.DocumentIDs)
	}
	if err != nil {
		return nil, err
	}

	chunks := make([]store.Chunk, 0, len(rows))
	for _, row := range rows {
		chunks = append(chunks, store.Chunk{
			ID:            row.Chunk.Id.String(),
			DocumentID:    row.Chunk.DocumentId.String(),
			DocumentTitle: row.DocumentTitle,
			SequenceIndex: row.Chunk.SequenceIndex,
			Text:          row.Chunk.Text,
			PageNumber:    row.Chunk.PageNumber,
			Embedding:     row.Chunk.EmbeddingValue,
		})
	}

	return chunks, nil
}
