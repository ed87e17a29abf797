package search

import (
	"errors"
	"math"
	"testing"

	"doc-qa-be/pkg/rag"
	"doc-qa-be/pkg/store"
)

func embeddedChunk(id string, embedding []float32) store.Chunk {
	return store.Chunk{
		ID:         id,
		DocumentID: "d1",
		Text:       "text",
		Embedding:  embedding,
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{
			name: "identical vectors",
			a:    []float32{1, 2, 3},
			b:    []float32{1, 2, 3},
			want: 1,
		},
		{
			name: "orthogonal vectors",
			a:    []float32{1, 0},
			b:    []float32{0, 1},
			want: 0,
		},
		{
			name: "opposite vectors",
			a:    []float32{1, 0},
			b:    []float32{-1, 0},
			want: -1,
		},
		{
			name: "zero vector",
			a:    []float32{0, 0},
			b:    []float32{1, 1},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestSemanticRankerScore(t *testing.T) {
	ranker := NewSemanticRanker()
	query := []float32{1, 0, 0}

	chunks := []store.Chunk{
		embeddedChunk("close", []float32{1, 0, 0}),
		embeddedChunk("far", []float32{0, 1, 0}),
	}

	scores, err := ranker.Score(query, chunks)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}

	if len(scores) != 2 {
		t.Fatalf("score map size = %d, want 2", len(scores))
	}
	if scores["close"] <= scores["far"] {
		t.Errorf("close = %f should outrank far = %f", scores["close"], scores["far"])
	}
}

func TestSemanticRankerDimensionMismatch(t *testing.T) {
	ranker := NewSemanticRanker()
	query := []float32{1, 0, 0}

	chunks := []store.Chunk{
		embeddedChunk("ok", []float32{1, 0, 0}),
		embeddedChunk("bad", []float32{1, 0}),
	}

	_, err := ranker.Score(query, chunks)
	if err == nil {
		t.Fatal("expected dimension mismatch error, got nil")
	}

	var mismatch *rag.DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error type = %T, want *rag.DimensionMismatchError", err)
	}
	if mismatch.ChunkID != "bad" {
		t.Errorf("ChunkID = %q, want %q", mismatch.ChunkID, "bad")
	}
	if mismatch.Want != 3 || mismatch.Got != 2 {
		t.Errorf("dims = (%d, %d), want (3, 2)", mismatch.Want, mismatch.Got)
	}
}
