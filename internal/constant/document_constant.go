package constant

// Document lifecycle statuses. Only READY documents are visible to retrieval.
const (
	DocumentStatusUploaded   = "UPLOADED"
	DocumentStatusProcessing = "PROCESSING"
	DocumentStatusReady      = "READY"
	DocumentStatusFailed     = "FAILED"
)

// Chunking parameters for ingestion. 1500 runes is roughly 375 tokens,
// comfortably inside the embedding model's context window.
const (
	ChunkSize    = 1500
	ChunkOverlap = 200
)

// EmbeddingDimensions matches the vector(768) column; text-embedding-004 and
// nomic-embed-text both emit 768 dimensions.
const EmbeddingDimensions = 768
