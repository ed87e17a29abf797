package response

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"unicode/utf8"

	"doc-qa-be/pkg/llm"
	"doc-qa-be/pkg/rag"
	"doc-qa-be/pkg/store"
)

// fakeLLM records calls and returns a canned reply or error.
type fakeLLM struct {
	reply    string
	err      error
	calls    int
	lastChat []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	f.lastChat = history
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func newTestGenerator(provider llm.LLMProvider) *Generator {
	return NewGenerator(provider, log.New(io.Discard, "", 0))
}

func retrievedChunk(id, docID, title, text string, seq int) store.ScoredChunk {
	return store.ScoredChunk{
		Chunk: store.Chunk{
			ID:            id,
			DocumentID:    docID,
			DocumentTitle: title,
			SequenceIndex: seq,
			Text:          text,
		},
		CombinedScore: 0.9,
	}
}

func TestReasonEmptyChunksSkipsModel(t *testing.T) {
	fake := &fakeLLM{reply: "should never be used"}
	gen := newTestGenerator(fake)

	result, err := gen.Reason(context.Background(), "what is X?", nil, nil)
	if err != nil {
		t.Fatalf("Reason returned error: %v", err)
	}

	if result.Answer != FallbackNoContent {
		t.Errorf("answer = %q, want no-content fallback", result.Answer)
	}
	if len(result.Citations) != 0 {
		t.Errorf("citations = %d, want 0", len(result.Citations))
	}
	if fake.calls != 0 {
		t.Errorf("model called %d times for empty chunk set, want 0", fake.calls)
	}
}

func TestReasonGeneratesAnswerWithCitations(t *testing.T) {
	fake := &fakeLLM{reply: "The deposit is refunded within 30 days."}
	gen := newTestGenerator(fake)

	retrieved := []store.ScoredChunk{
		retrievedChunk("c1", "d1", "Rental Agreement", "The deposit is refundable within 30 days.", 2),
		retrievedChunk("c2", "d2", "Inspection Report", "No damage was found.", 0),
	}
	history := []llm.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}

	result, err := gen.Reason(context.Background(), "When is the deposit refunded?", retrieved, history)
	if err != nil {
		t.Fatalf("Reason returned error: %v", err)
	}

	if result.Answer != fake.reply {
		t.Errorf("answer = %q, want model reply", result.Answer)
	}
	if len(result.Citations) != 2 {
		t.Fatalf("citations = %d, want one per chunk", len(result.Citations))
	}
	if result.Citations[0].DocumentID != "d1" || result.Citations[0].ChunkIndex != 2 {
		t.Errorf("first citation = %+v, want d1 chunk 2", result.Citations[0])
	}

	// The prompt goes to the model as the last message after the history.
	if len(fake.lastChat) != len(history)+1 {
		t.Fatalf("chat length = %d, want history + prompt", len(fake.lastChat))
	}
	promptText := fake.lastChat[len(fake.lastChat)-1].Content
	if !strings.Contains(promptText, "[Document 1: Rental Agreement, Page N/A]") {
		t.Errorf("prompt missing source tag:\n%s", promptText)
	}
}

func TestReasonCompletionFailure(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection refused")}
	gen := newTestGenerator(fake)

	retrieved := []store.ScoredChunk{
		retrievedChunk("c1", "d1", "Doc", "some text", 0),
	}

	result, err := gen.Reason(context.Background(), "question", retrieved, nil)
	if err == nil {
		t.Fatal("expected completion error, got nil")
	}

	var completion *rag.CompletionError
	if !errors.As(err, &completion) {
		t.Fatalf("error type = %T, want *rag.CompletionError", err)
	}
	if result == nil || result.Answer != FallbackCompletionFailure {
		t.Errorf("fallback answer missing, got %+v", result)
	}
	if len(result.Citations) != 0 {
		t.Errorf("citations = %d on failure, want 0", len(result.Citations))
	}
}

func TestCitationSnippetTruncation(t *testing.T) {
	long := strings.Repeat("ab", 150) // 300 runes
	retrieved := []store.ScoredChunk{
		retrievedChunk("c1", "d1", "Doc", long, 0),
	}

	citations := buildCitations(retrieved)
	if len(citations) != 1 {
		t.Fatalf("citations = %d, want 1", len(citations))
	}

	snippet := citations[0].Snippet
	if !strings.HasSuffix(snippet, "...") {
		t.Errorf("long snippet should end with ellipsis, got %q", snippet)
	}
	if utf8.RuneCountInString(snippet) != 203 {
		t.Errorf("snippet length = %d runes, want 200 + ellipsis", utf8.RuneCountInString(snippet))
	}

	short := retrievedChunk("c2", "d1", "Doc", "short text", 1)
	if got := store.NewCitation(short.Chunk).Snippet; got != "short text" {
		t.Errorf("short snippet = %q, want unmodified text", got)
	}
}
