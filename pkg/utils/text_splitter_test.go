package utils

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		chunkSize  int
		overlap    int
		wantChunks int
	}{
		{
			name:       "short text single chunk",
			text:       "hello world",
			chunkSize:  100,
			overlap:    10,
			wantChunks: 1,
		},
		{
			name:       "empty text",
			text:       "",
			chunkSize:  100,
			overlap:    10,
			wantChunks: 0,
		},
		{
			name:       "long text splits with overlap",
			text:       strings.Repeat("a", 250),
			chunkSize:  100,
			overlap:    20,
			wantChunks: 3, // windows at 0, 80, 160
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitText(tt.text, tt.chunkSize, tt.overlap)
			if len(chunks) != tt.wantChunks {
				t.Errorf("chunk count = %d, want %d", len(chunks), tt.wantChunks)
			}
			for i, c := range chunks {
				if len([]rune(c)) > tt.chunkSize {
					t.Errorf("chunk %d length = %d, exceeds %d", i, len([]rune(c)), tt.chunkSize)
				}
			}
		})
	}
}

func TestSplitTextOverlapPreservesBoundary(t *testing.T) {
	text := strings.Repeat("x", 150)
	chunks := SplitText(text, 100, 20)

	if len(chunks) < 2 {
		t.Fatalf("chunk count = %d, want at least 2", len(chunks))
	}

	// The second chunk starts 20 runes before the first one ended.
	first := []rune(chunks[0])
	second := []rune(chunks[1])
	tail := string(first[len(first)-20:])
	head := string(second[:20])
	if tail != head {
		t.Errorf("overlap mismatch: tail %q, head %q", tail, head)
	}
}

func TestSplitTextUnicodeSafe(t *testing.T) {
	text := strings.Repeat("س", 120)
	chunks := SplitText(text, 100, 0)

	for i, c := range chunks {
		for _, r := range c {
			if r != 'س' {
				t.Fatalf("chunk %d contains corrupted rune %q", i, r)
			}
		}
	}
}
