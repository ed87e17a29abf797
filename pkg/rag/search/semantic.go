package search

import (
	"math"

	"doc-qa-be/pkg/rag"
	"doc-qa-be/pkg/store"
)

// SemanticRanker scores candidates by cosine similarity between the query
// embedding and each chunk's stored embedding. Embeddings are computed at
// ingestion time; this ranker never calls a provider.
type SemanticRanker struct{}

// NewSemanticRanker creates a semantic ranker.
func NewSemanticRanker() *SemanticRanker {
	return &SemanticRanker{}
}

// Score returns the raw cosine similarity per chunk ID, in [-1, 1]. A chunk
// whose embedding length differs from the query embedding aborts the whole
// call with a DimensionMismatchError; mixed-dimension corpora indicate an
// ingestion bug, not a ranking decision.
func (r *SemanticRanker) Score(queryEmbedding []float32, chunks []store.Chunk) (map[string]float64, error) {
	scores := make(map[string]float64, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) != len(queryEmbedding) {
			return nil, &rag.DimensionMismatchError{
				ChunkID: chunk.ID,
				Want:    len(queryEmbedding),
				Got:     len(chunk.Embedding),
			}
		}
		scores[chunk.ID] = cosineSimilarity(queryEmbedding, chunk.Embedding)
	}
	return scores, nil
}

// cosineSimilarity computes dot(a, b) / (|a| * |b|) in float64 to limit
// rounding drift. A zero-magnitude vector yields 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
