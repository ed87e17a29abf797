package search

import (
	"io"
	"log"
	"reflect"
	"testing"

	"doc-qa-be/pkg/store"
)

func newTestRetriever() *HybridRetriever {
	return NewHybridRetriever(log.New(io.Discard, "", 0))
}

func scoredChunk(id, docID string, seq int, text string, embedding []float32) store.Chunk {
	return store.Chunk{
		ID:            id,
		DocumentID:    docID,
		DocumentTitle: "Doc " + docID,
		SequenceIndex: seq,
		Text:          text,
		Embedding:     embedding,
	}
}

func TestRetrieveEmptyCandidates(t *testing.T) {
	retriever := newTestRetriever()

	result, err := retriever.Retrieve("anything", []float32{1, 0}, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if result == nil {
		t.Fatal("Retrieve returned nil, want empty slice")
	}
	if len(result) != 0 {
		t.Errorf("result size = %d, want 0", len(result))
	}
}

func TestRetrieveCombinedScoreBounds(t *testing.T) {
	retriever := newTestRetriever()
	query := []float32{1, 0, 0}

	chunks := []store.Chunk{
		scoredChunk("c1", "d1", 0, "invoice total 500", []float32{1, 0, 0}),
		scoredChunk("c2", "d1", 1, "amount due five hundred", []float32{0.5, 0.5, 0}),
		scoredChunk("c3", "d2", 0, "completely unrelated text", []float32{-1, 0, 0}),
	}

	result, err := retriever.Retrieve("invoice total", query, chunks, DefaultConfig())
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}

	for _, sc := range result {
		if sc.CombinedScore < 0 || sc.CombinedScore > 1 {
			t.Errorf("chunk %s combined score %f outside [0, 1]", sc.Chunk.ID, sc.CombinedScore)
		}
		if sc.LexicalScore < 0 || sc.LexicalScore > 1 {
			t.Errorf("chunk %s lexical score %f outside [0, 1]", sc.Chunk.ID, sc.LexicalScore)
		}
		if sc.SemanticScore < 0 || sc.SemanticScore > 1 {
			t.Errorf("chunk %s semantic score %f outside [0, 1]", sc.Chunk.ID, sc.SemanticScore)
		}
	}
}

func TestRetrieveDeterministicOrdering(t *testing.T) {
	retriever := newTestRetriever()
	query := []float32{1, 0, 0}

	chunks := []store.Chunk{
		scoredChunk("c1", "d2", 3, "alpha beta", []float32{0.9, 0.1, 0}),
		scoredChunk("c2", "d1", 0, "alpha beta", []float32{0.9, 0.1, 0}),
		scoredChunk("c3", "d1", 1, "beta gamma", []float32{0.2, 0.8, 0}),
		scoredChunk("c4", "d3", 0, "gamma delta", []float32{0.1, 0.9, 0}),
	}

	first, err := retriever.Retrieve("alpha beta", query, chunks, DefaultConfig())
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	second, err := retriever.Retrieve("alpha beta", query, chunks, DefaultConfig())
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated retrieval diverged:\nfirst:  %v\nsecond: %v", first, second)
	}

	// c1 and c2 score identically; the lower document ID wins the tie.
	pos := make(map[string]int)
	for i, sc := range first {
		pos[sc.Chunk.ID] = i
	}
	if pos["c2"] > pos["c1"] {
		t.Errorf("c1 (doc d2) ranked before c2 (doc d1) despite equal scores")
	}
}

func TestRetrieveDiversityCap(t *testing.T) {
	retriever := newTestRetriever()
	query := []float32{1, 0, 0}

	// Document d1 dominates the raw ranking with six strong chunks; d2
	// contributes weaker ones. With topK 6 the per-document cap is 4.
	chunks := []store.Chunk{
		scoredChunk("a1", "d1", 0, "invoice detail one", []float32{1, 0, 0}),
		scoredChunk("a2", "d1", 1, "invoice detail two", []float32{0.99, 0.01, 0}),
		scoredChunk("a3", "d1", 2, "invoice detail three", []float32{0.98, 0.02, 0}),
		scoredChunk("a4", "d1", 3, "invoice detail four", []float32{0.97, 0.03, 0}),
		scoredChunk("a5", "d1", 4, "invoice detail five", []float32{0.96, 0.04, 0}),
		scoredChunk("a6", "d1", 5, "invoice detail six", []float32{0.95, 0.05, 0}),
		scoredChunk("b1", "d2", 0, "other report one", []float32{0.5, 0.5, 0}),
		scoredChunk("b2", "d2", 1, "other report two", []float32{0.4, 0.6, 0}),
	}

	config := Config{Alpha: 0.7, TopK: 6}
	result, err := retriever.Retrieve("invoice", query, chunks, config)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}

	if len(result) != 6 {
		t.Fatalf("result size = %d, want 6", len(result))
	}

	perDoc := make(map[string]int)
	for _, sc := range result {
		perDoc[sc.Chunk.DocumentID]++
	}
	if perDoc["d1"] > 4 {
		t.Errorf("document d1 supplied %d of 6 chunks, cap is 4", perDoc["d1"])
	}
	if perDoc["d2"] < 2 {
		t.Errorf("document d2 supplied %d chunks, want at least 2", perDoc["d2"])
	}
}

func TestRetrieveBackfillIgnoresCap(t *testing.T) {
	retriever := newTestRetriever()
	query := []float32{1, 0, 0}

	// Only one document available. The cap alone would stop at 4, but
	// backfill tops the list up to K from the skipped candidates.
	chunks := []store.Chunk{
		scoredChunk("a1", "d1", 0, "part one", []float32{1, 0, 0}),
		scoredChunk("a2", "d1", 1, "part two", []float32{0.9, 0.1, 0}),
		scoredChunk("a3", "d1", 2, "part three", []float32{0.8, 0.2, 0}),
		scoredChunk("a4", "d1", 3, "part four", []float32{0.7, 0.3, 0}),
		scoredChunk("a5", "d1", 4, "part five", []float32{0.6, 0.4, 0}),
		scoredChunk("a6", "d1", 5, "part six", []float32{0.5, 0.5, 0}),
	}

	config := Config{Alpha: 0.7, TopK: 6}
	result, err := retriever.Retrieve("part", query, chunks, config)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}

	if len(result) != 6 {
		t.Errorf("result size = %d, want 6 (backfill should ignore the cap)", len(result))
	}
}

func TestRetrieveExcludesMalformedChunks(t *testing.T) {
	retriever := newTestRetriever()
	query := []float32{1, 0, 0}

	chunks := []store.Chunk{
		scoredChunk("good", "d1", 0, "valid text", []float32{1, 0, 0}),
		scoredChunk("empty", "d1", 1, "", []float32{1, 0, 0}),
		scoredChunk("short", "d1", 2, "wrong dimension", []float32{1, 0}),
	}

	result, err := retriever.Retrieve("valid", query, chunks, DefaultConfig())
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("result size = %d, want 1", len(result))
	}
	if result[0].Chunk.ID != "good" {
		t.Errorf("surviving chunk = %s, want good", result[0].Chunk.ID)
	}
}

func TestRetrieveLexicalAndSemanticAgree(t *testing.T) {
	retriever := newTestRetriever()
	query := []float32{1, 0, 0}

	// One chunk matches the query words exactly, the other only in
	// meaning (closer embedding). Both must land in the top 2.
	chunks := []store.Chunk{
		scoredChunk("exact", "d1", 0, "invoice total $500", []float32{0.7, 0.3, 0}),
		scoredChunk("paraphrase", "d2", 0, "the amount due was five hundred dollars", []float32{0.95, 0.05, 0}),
		scoredChunk("noise", "d3", 0, "meeting agenda for next week", []float32{0, 1, 0}),
	}

	config := Config{Alpha: 0.7, TopK: 2}
	result, err := retriever.Retrieve("invoice total", query, chunks, config)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("result size = %d, want 2", len(result))
	}
	got := map[string]bool{}
	for _, sc := range result {
		got[sc.Chunk.ID] = true
	}
	if !got["exact"] || !got["paraphrase"] {
		t.Errorf("top 2 = %v, want exact and paraphrase", got)
	}
}

func TestRetrieveFlatLexicalScoresCollapseToZero(t *testing.T) {
	retriever := newTestRetriever()
	query := []float32{1, 0, 0}

	// No chunk shares a term with the query, so every lexical score is
	// equal and normalization collapses them all to zero.
	chunks := []store.Chunk{
		scoredChunk("c1", "d1", 0, "alpha beta", []float32{1, 0, 0}),
		scoredChunk("c2", "d2", 0, "gamma delta", []float32{0, 1, 0}),
	}

	result, err := retriever.Retrieve("unrelated query", query, chunks, DefaultConfig())
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}

	for _, sc := range result {
		if sc.LexicalScore != 0 {
			t.Errorf("chunk %s lexical score = %f, want 0", sc.Chunk.ID, sc.LexicalScore)
		}
	}
}

func TestDocCap(t *testing.T) {
	tests := []struct {
		topK      int
		maxPerDoc int
		want      int
	}{
		{topK: 6, maxPerDoc: 0, want: 4},
		{topK: 5, maxPerDoc: 0, want: 4},
		{topK: 1, maxPerDoc: 0, want: 2},
		{topK: 6, maxPerDoc: 2, want: 2},
	}

	for _, tt := range tests {
		config := Config{TopK: tt.topK, MaxPerDoc: tt.maxPerDoc}
		if got := config.DocCap(); got != tt.want {
			t.Errorf("DocCap(topK=%d, maxPerDoc=%d) = %d, want %d", tt.topK, tt.maxPerDoc, got, tt.want)
		}
	}
}
