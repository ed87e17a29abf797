package store

// Chunk is a retrievable slice of a processed document. The embedding is
// computed at ingestion time so retrieval never re-embeds corpus text.
type Chunk struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	DocumentTitle string    `json:"document_title"`
	SequenceIndex int       `json:"sequence_index"`
	Text          string    `json:"text"`
	PageNumber    *int      `json:"page_number,omitempty"`
	Embedding     []float32 `json:"embedding,omitempty"`
}

// ScoredChunk carries a chunk through the ranking stages. Lexical and
// semantic scores are both normalized to [0, 1] before they are blended
// into CombinedScore.
type ScoredChunk struct {
	Chunk         Chunk   `json:"chunk"`
	LexicalScore  float64 `json:"lexical_score"`
	SemanticScore float64 `json:"semantic_score"`
	CombinedScore float64 `json:"combined_score"`
}

// Citation points an answer back at the chunk that grounded it.
type Citation struct {
	DocumentID    string `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	ChunkIndex    int    `json:"chunk_index"`
	PageNumber    *int   `json:"page_number,omitempty"`
	Snippet       string `json:"snippet"`
}

// snippetRunes caps citation snippets so API payloads stay small even
// when chunks are near the splitter's upper bound.
const snippetRunes = 200

// Snippet returns the first 200 runes of the chunk text, with a trailing
// ellipsis when the text was cut.
func (c Chunk) Snippet() string {
	runes := []rune(c.Text)
	if len(runes) <= snippetRunes {
		return c.Text
	}
	return string(runes[:snippetRunes]) + "..."
}

// NewCitation builds the citation for a chunk that contributed to an answer.
func NewCitation(c Chunk) Citation {
	return Citation{
		DocumentID:    c.DocumentID,
		DocumentTitle: c.DocumentTitle,
		ChunkIndex:    c.SequenceIndex,
		PageNumber:    c.PageNumber,
		Snippet:       c.Snippet(),
	}
}
