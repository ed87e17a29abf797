package search

import (
	"log"
	"sort"

	"doc-qa-be/pkg/store"
)

// Config encapsulates retrieval parameters.
type Config struct {
	// Alpha weighs the semantic score; the lexical score gets 1 - Alpha.
	Alpha float64
	// TopK is the number of chunks returned to the reasoning stage.
	TopK int
	// MaxPerDoc caps chunks from a single document in the final list.
	// Zero derives the cap from TopK (ceil(TopK/2) + 1).
	MaxPerDoc int
}

// DefaultConfig returns the default retrieval configuration.
func DefaultConfig() Config {
	return Config{
		Alpha:     0.7,
		TopK:      5,
		MaxPerDoc: 0,
	}
}

// DocCap resolves the per-document cap for a given TopK.
func (c Config) DocCap() int {
	if c.MaxPerDoc > 0 {
		return c.MaxPerDoc
	}
	return (c.TopK+1)/2 + 1
}

// HybridRetriever blends lexical and semantic scores over an in-memory
// candidate snapshot into one ranked, diversity-aware top-K list.
type HybridRetriever struct {
	lexical  *LexicalRanker
	semantic *SemanticRanker
	logger   *log.Logger
}

// NewHybridRetriever creates a hybrid retriever.
func NewHybridRetriever(logger *log.Logger) *HybridRetriever {
	return &HybridRetriever{
		lexical:  NewLexicalRanker(),
		semantic: NewSemanticRanker(),
		logger:   logger,
	}
}

// Retrieve ranks the candidate chunks against the query and returns the top
// K. An empty candidate set returns an empty slice, not an error; that is
// the normal state before any document finishes processing. Malformed
// candidates (empty text, wrong embedding length) are logged and excluded.
func (h *HybridRetriever) Retrieve(
	query string,
	queryEmbedding []float32,
	chunks []store.Chunk,
	config Config,
) ([]store.ScoredChunk, error) {

	if len(chunks) == 0 {
		return []store.ScoredChunk{}, nil
	}

	candidates := h.filterMalformed(queryEmbedding, chunks)
	if len(candidates) == 0 {
		return []store.ScoredChunk{}, nil
	}

	lexScores := h.lexical.Score(query, candidates)
	normalizeMinMax(lexScores)

	semScores, err := h.semantic.Score(queryEmbedding, candidates)
	if err != nil {
		return nil, err
	}

	scored := make([]store.ScoredChunk, 0, len(candidates))
	for _, chunk := range candidates {
		sem := rescaleCosine(semScores[chunk.ID])
		lex := lexScores[chunk.ID]
		scored = append(scored, store.ScoredChunk{
			Chunk:         chunk,
			LexicalScore:  lex,
			SemanticScore: sem,
			CombinedScore: config.Alpha*sem + (1-config.Alpha)*lex,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].CombinedScore != scored[j].CombinedScore {
			return scored[i].CombinedScore > scored[j].CombinedScore
		}
		// Ties break ascending so identical inputs always produce
		// identical ordering.
		if scored[i].Chunk.DocumentID != scored[j].Chunk.DocumentID {
			return scored[i].Chunk.DocumentID < scored[j].Chunk.DocumentID
		}
		return scored[i].Chunk.SequenceIndex < scored[j].Chunk.SequenceIndex
	})

	return h.diversityPass(scored, config), nil
}

// filterMalformed drops candidates that cannot be ranked. Exclusion is
// logged per chunk but never fatal.
func (h *HybridRetriever) filterMalformed(queryEmbedding []float32, chunks []store.Chunk) []store.Chunk {
	candidates := make([]store.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Text == "" {
			h.logger.Printf("[DEBUG] Chunk %s excluded: empty text", chunk.ID)
			continue
		}
		if len(chunk.Embedding) != len(queryEmbedding) {
			h.logger.Printf("[DEBUG] Chunk %s excluded: embedding dim %d, query dim %d",
				chunk.ID, len(chunk.Embedding), len(queryEmbedding))
			continue
		}
		candidates = append(candidates, chunk)
	}
	return candidates
}

// diversityPass walks the ranked list and builds the final top K, capping
// how many chunks one document may occupy. If the cap leaves the list short,
// skipped candidates backfill in rank order, ignoring the cap.
func (h *HybridRetriever) diversityPass(ranked []store.ScoredChunk, config Config) []store.ScoredChunk {
	topK := config.TopK
	if topK <= 0 || topK > len(ranked) {
		topK = len(ranked)
	}
	docCap := config.DocCap()

	selected := make([]store.ScoredChunk, 0, topK)
	var skipped []store.ScoredChunk
	perDoc := make(map[string]int)

	for _, sc := range ranked {
		if len(selected) >= topK {
			break
		}
		if perDoc[sc.Chunk.DocumentID] >= docCap {
			skipped = append(skipped, sc)
			h.logger.Printf("[DEBUG] Chunk %s deferred: document %s at cap %d",
				sc.Chunk.ID, sc.Chunk.DocumentID, docCap)
			continue
		}
		perDoc[sc.Chunk.DocumentID]++
		selected = append(selected, sc)
	}

	for _, sc := range skipped {
		if len(selected) >= topK {
			break
		}
		selected = append(selected, sc)
	}

	return selected
}

// normalizeMinMax rescales the scores in place to [0, 1]. When every score
// is equal there is no lexical signal, so all scores collapse to 0 and the
// semantic side decides the ranking alone.
func normalizeMinMax(scores map[string]float64) {
	if len(scores) == 0 {
		return
	}
	first := true
	var min, max float64
	for _, s := range scores {
		if first {
			min, max = s, s
			first = false
			continue
		}
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	if max == min {
		for id := range scores {
			scores[id] = 0
		}
		return
	}
	for id, s := range scores {
		scores[id] = (s - min) / (max - min)
	}
}

// rescaleCosine maps a cosine similarity from [-1, 1] onto [0, 1] so it can
// be blended with the normalized lexical score.
func rescaleCosine(s float64) float64 {
	rescaled := (s + 1) / 2
	if rescaled < 0 {
		return 0
	}
	if rescaled > 1 {
		return 1
	}
	return rescaled
}
