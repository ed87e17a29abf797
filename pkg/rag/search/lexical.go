package search

import (
	"math"
	"strings"
	"unicode"

	"doc-qa-be/pkg/store"
)

// BM25 parameters. k1 controls term-frequency saturation, b controls
// document-length normalization.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// LexicalRanker scores candidates against a query with BM25. Statistics
// (document frequency, average length) are computed over the candidate
// set itself, so the ranker needs no global index and stays deterministic
// for a given query and candidate slice.
type LexicalRanker struct {
	k1 float64
	b  float64
}

// NewLexicalRanker creates a BM25 ranker with the standard parameters.
func NewLexicalRanker() *LexicalRanker {
	return &LexicalRanker{
		k1: bm25K1,
		b:  bm25B,
	}
}

// Score returns a BM25 score per chunk ID. Every candidate appears in the
// result map; chunks sharing no terms with the query score 0 rather than
// being dropped, so downstream normalization sees the full candidate set.
func (r *LexicalRanker) Score(query string, chunks []store.Chunk) map[string]float64 {
	scores := make(map[string]float64, len(chunks))
	if len(chunks) == 0 {
		return scores
	}

	queryTerms := tokenize(query)

	// Per-chunk term frequencies and corpus statistics.
	termFreqs := make([]map[string]int, len(chunks))
	docLens := make([]int, len(chunks))
	totalLen := 0
	for i, chunk := range chunks {
		tokens := tokenize(chunk.Text)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		termFreqs[i] = tf
		docLens[i] = len(tokens)
		totalLen += len(tokens)
	}
	avgLen := float64(totalLen) / float64(len(chunks))

	// Document frequency per distinct query term.
	docFreq := make(map[string]int, len(queryTerms))
	for _, term := range queryTerms {
		if _, done := docFreq[term]; done {
			continue
		}
		df := 0
		for _, tf := range termFreqs {
			if tf[term] > 0 {
				df++
			}
		}
		docFreq[term] = df
	}

	n := float64(len(chunks))
	for i, chunk := range chunks {
		score := 0.0
		seen := make(map[string]bool, len(queryTerms))
		for _, term := range queryTerms {
			if seen[term] {
				continue
			}
			seen[term] = true

			tf := float64(termFreqs[i][term])
			if tf == 0 {
				continue
			}

			df := float64(docFreq[term])
			// Smoothed IDF keeps scores positive even when a term
			// appears in every candidate.
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))

			lenNorm := 1 - r.b + r.b*(float64(docLens[i])/avgLen)
			score += idf * (tf * (r.k1 + 1)) / (tf + r.k1*lenNorm)
		}
		scores[chunk.ID] = score
	}

	return scores
}

// tokenize lowercases the text and splits it on any rune that is neither a
// letter nor a digit. Unicode-aware so Persian text tokenizes the same way
// English does.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
