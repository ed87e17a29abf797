package executor

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"doc-qa-be/pkg/embedding"
	"doc-qa-be/pkg/llm"
	"doc-qa-be/pkg/rag"
	"doc-qa-be/pkg/rag/intent"
	"doc-qa-be/pkg/rag/response"
	"doc-qa-be/pkg/store"

	"github.com/google/uuid"
)

type fakeLLM struct {
	reply      string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeLLM) Chat(ctx context.Context, chatHistory []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	if len(chatHistory) > 0 {
		f.lastPrompt = chatHistory[len(chatHistory)-1].Content
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type fakeEmbedder struct {
	values []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: f.values},
	}, nil
}

type fakeSource struct {
	chunks     []store.Chunk
	err        error
	lastFilter ChunkFilter
}

func (f *fakeSource) ListReadyChunks(ctx context.Context, filter ChunkFilter) ([]store.Chunk, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

func newTestExecutor(provider llm.LLMProvider, embedder embedding.EmbeddingProvider, source ChunkSource) *PipelineExecutor {
	return NewPipelineExecutor(provider, embedder, source, DefaultConfig(), log.New(io.Discard, "", 0))
}

func readyChunk(id, docID, title string, seq int, text string, emb []float32) store.Chunk {
	return store.Chunk{
		ID:            id,
		DocumentID:    docID,
		DocumentTitle: title,
		SequenceIndex: seq,
		Text:          text,
		Embedding:     emb,
	}
}

func TestAnswerQueryEmptyCorpus(t *testing.T) {
	llmFake := &fakeLLM{reply: "unused"}
	exec := newTestExecutor(llmFake, &fakeEmbedder{values: []float32{1, 0, 0}}, &fakeSource{})

	result, err := exec.AnswerQuery(context.Background(), uuid.New(), "what is X?", nil)
	if err != nil {
		t.Fatalf("AnswerQuery returned error: %v", err)
	}

	if result.Answer != response.FallbackNoContent {
		t.Errorf("answer = %q, want no-content fallback", result.Answer)
	}
	if len(result.Citations) != 0 {
		t.Errorf("citations = %d, want 0", len(result.Citations))
	}
	if result.Stage != StageDone {
		t.Errorf("stage = %s, want DONE", result.Stage)
	}
	if result.Err != nil {
		t.Errorf("empty corpus is not an error state, got %v", result.Err)
	}
	if llmFake.calls != 0 {
		t.Errorf("model called %d times with no grounding chunks, want 0", llmFake.calls)
	}
}

func TestAnswerQueryGroundedFlow(t *testing.T) {
	llmFake := &fakeLLM{reply: "The total is $500."}
	source := &fakeSource{chunks: []store.Chunk{
		readyChunk("c1", "d1", "Invoice", 0, "invoice total $500", []float32{1, 0, 0}),
		readyChunk("c2", "d2", "Ledger", 0, "the amount due was five hundred dollars", []float32{0.9, 0.1, 0}),
	}}
	owner := uuid.New()
	exec := newTestExecutor(llmFake, &fakeEmbedder{values: []float32{1, 0, 0}}, source)

	chatHistory := []llm.Message{{Role: "user", Content: "earlier question"}}
	result, err := exec.AnswerQuery(context.Background(), owner, "invoice total", chatHistory)
	if err != nil {
		t.Fatalf("AnswerQuery returned error: %v", err)
	}

	if result.Answer != llmFake.reply {
		t.Errorf("answer = %q, want model reply", result.Answer)
	}
	if len(result.Citations) != 2 {
		t.Errorf("citations = %d, want one per retrieved chunk", len(result.Citations))
	}
	if result.Intent != intent.RAGQuery {
		t.Errorf("intent = %s, want RAG_QUERY", result.Intent)
	}
	if result.Metadata["agent_type"] != "reasoning" {
		t.Errorf("agent_type = %v, want reasoning", result.Metadata["agent_type"])
	}
	if result.Metadata["candidates"] != 2 || result.Metadata["retrieved"] != 2 {
		t.Errorf("metadata counts = %v/%v, want 2/2", result.Metadata["candidates"], result.Metadata["retrieved"])
	}
	if source.lastFilter.OwnerID != owner {
		t.Errorf("snapshot filter owner = %s, want %s", source.lastFilter.OwnerID, owner)
	}
	if !strings.Contains(llmFake.lastPrompt, "invoice total $500") {
		t.Error("grounding chunk text missing from prompt")
	}
}

func TestAnswerQueryEmbeddingFailureDegrades(t *testing.T) {
	llmFake := &fakeLLM{reply: "unused"}
	source := &fakeSource{chunks: []store.Chunk{
		readyChunk("c1", "d1", "Doc", 0, "text", []float32{1, 0, 0}),
	}}
	exec := newTestExecutor(llmFake, &fakeEmbedder{err: errors.New("provider down")}, source)

	result, err := exec.AnswerQuery(context.Background(), uuid.New(), "question", nil)
	if err != nil {
		t.Fatalf("AnswerQuery returned error: %v", err)
	}

	if result.Stage != StageErrored {
		t.Errorf("stage = %s, want ERRORED", result.Stage)
	}
	var retrievalErr *rag.RetrievalError
	if !errors.As(result.Err, &retrievalErr) {
		t.Fatalf("result error type = %T, want *rag.RetrievalError", result.Err)
	}
	if retrievalErr.Op != "embed" {
		t.Errorf("failed op = %q, want embed", retrievalErr.Op)
	}
	// Degraded run still answers, grounded on nothing.
	if result.Answer != response.FallbackNoContent {
		t.Errorf("answer = %q, want no-content fallback", result.Answer)
	}
}

func TestAnswerQueryCompletionFailureDegrades(t *testing.T) {
	llmFake := &fakeLLM{err: errors.New("timeout")}
	source := &fakeSource{chunks: []store.Chunk{
		readyChunk("c1", "d1", "Doc", 0, "text", []float32{1, 0, 0}),
	}}
	exec := newTestExecutor(llmFake, &fakeEmbedder{values: []float32{1, 0, 0}}, source)

	result, err := exec.AnswerQuery(context.Background(), uuid.New(), "question", nil)
	if err != nil {
		t.Fatalf("AnswerQuery returned error: %v", err)
	}

	if result.Answer != response.FallbackCompletionFailure {
		t.Errorf("answer = %q, want completion fallback", result.Answer)
	}
	if result.Stage != StageErrored {
		t.Errorf("stage = %s, want ERRORED", result.Stage)
	}
	var completion *rag.CompletionError
	if !errors.As(result.Err, &completion) {
		t.Errorf("result error type = %T, want *rag.CompletionError", result.Err)
	}
}

func TestAnswerQueryUtilityIntentSkipsRetrieval(t *testing.T) {
	llmFake := &fakeLLM{reply: "Hello world."}
	embedder := &fakeEmbedder{values: []float32{1, 0, 0}}
	exec := newTestExecutor(llmFake, embedder, &fakeSource{})

	result, err := exec.AnswerQuery(context.Background(), uuid.New(), "translate this to english: سلام دنیا", nil)
	if err != nil {
		t.Fatalf("AnswerQuery returned error: %v", err)
	}

	if result.Answer != llmFake.reply {
		t.Errorf("answer = %q, want model reply", result.Answer)
	}
	if result.Intent != intent.Translate {
		t.Errorf("intent = %s, want TRANSLATE", result.Intent)
	}
	if result.Metadata["agent_type"] != "utility" {
		t.Errorf("agent_type = %v, want utility", result.Metadata["agent_type"])
	}
	if result.Metadata["utility_function"] != "translate" {
		t.Errorf("utility_function = %v, want translate", result.Metadata["utility_function"])
	}
	if embedder.calls != 0 {
		t.Errorf("embedding called %d times on utility path, want 0", embedder.calls)
	}
	if len(result.Citations) != 0 {
		t.Errorf("citations = %d on utility path, want 0", len(result.Citations))
	}
}

func TestAnswerQueryTranslateWithoutTargetAsksBack(t *testing.T) {
	llmFake := &fakeLLM{reply: "unused"}
	exec := newTestExecutor(llmFake, &fakeEmbedder{values: []float32{1, 0, 0}}, &fakeSource{})

	result, err := exec.AnswerQuery(context.Background(), uuid.New(), "translate this text", nil)
	if err != nil {
		t.Fatalf("AnswerQuery returned error: %v", err)
	}

	if result.Answer != response.FallbackMissingTargetLanguage {
		t.Errorf("answer = %q, want missing-target clarification", result.Answer)
	}
	if llmFake.calls != 0 {
		t.Errorf("model called %d times without a target language, want 0", llmFake.calls)
	}
	var invalid *rag.InvalidArgumentError
	if !errors.As(result.Err, &invalid) {
		t.Errorf("result error type = %T, want *rag.InvalidArgumentError", result.Err)
	}
}

func TestRunUtilityAssemblesDocumentInOrder(t *testing.T) {
	llmFake := &fakeLLM{reply: "A summary."}
	docID := uuid.New()
	source := &fakeSource{chunks: []store.Chunk{
		readyChunk("c3", docID.String(), "Contract", 2, "third part", nil),
		readyChunk("c1", docID.String(), "Contract", 0, "first part", nil),
		readyChunk("c2", docID.String(), "Contract", 1, "second part", nil),
	}}
	exec := newTestExecutor(llmFake, &fakeEmbedder{}, source)

	result, err := exec.RunUtility(context.Background(), uuid.New(), docID, "SUMMARIZE", "")
	if err != nil {
		t.Fatalf("RunUtility returned error: %v", err)
	}

	if result.Answer != llmFake.reply {
		t.Errorf("answer = %q, want model reply", result.Answer)
	}
	wantOrder := "first part\n\nsecond part\n\nthird part"
	if !strings.Contains(llmFake.lastPrompt, wantOrder) {
		t.Errorf("document not assembled in sequence order:\n%s", llmFake.lastPrompt)
	}
	if result.Metadata["document_title"] != "Contract" {
		t.Errorf("document_title = %v, want Contract", result.Metadata["document_title"])
	}
	if result.Metadata["utility_function"] != "summarize" {
		t.Errorf("utility_function = %v, want summarize", result.Metadata["utility_function"])
	}
	if source.lastFilter.DocumentIDs[0] != docID {
		t.Errorf("filter document = %s, want %s", source.lastFilter.DocumentIDs[0], docID)
	}
}

func TestRunUtilityUnknownAction(t *testing.T) {
	exec := newTestExecutor(&fakeLLM{}, &fakeEmbedder{}, &fakeSource{})

	_, err := exec.RunUtility(context.Background(), uuid.New(), uuid.New(), "EXTRACT", "")
	if err == nil {
		t.Fatal("expected invalid argument error, got nil")
	}
	var invalid *rag.InvalidArgumentError
	if !errors.As(err, &invalid) {
		t.Fatalf("error type = %T, want *rag.InvalidArgumentError", err)
	}
	if invalid.Field != "action" {
		t.Errorf("field = %q, want action", invalid.Field)
	}
}

func TestRunUtilityEmptyDocument(t *testing.T) {
	exec := newTestExecutor(&fakeLLM{reply: "unused"}, &fakeEmbedder{}, &fakeSource{})

	_, err := exec.RunUtility(context.Background(), uuid.New(), uuid.New(), "SUMMARIZE", "")
	if err == nil {
		t.Fatal("expected invalid argument error for empty document, got nil")
	}
	var invalid *rag.InvalidArgumentError
	if !errors.As(err, &invalid) {
		t.Fatalf("error type = %T, want *rag.InvalidArgumentError", err)
	}
	if invalid.Field != "text" {
		t.Errorf("field = %q, want text", invalid.Field)
	}
}

func TestRunUtilityTranslateRequiresTarget(t *testing.T) {
	docID := uuid.New()
	source := &fakeSource{chunks: []store.Chunk{
		readyChunk("c1", docID.String(), "Doc", 0, "text", nil),
	}}
	exec := newTestExecutor(&fakeLLM{reply: "unused"}, &fakeEmbedder{}, source)

	_, err := exec.RunUtility(context.Background(), uuid.New(), docID, "TRANSLATE", "")
	if err == nil {
		t.Fatal("expected invalid argument error, got nil")
	}
	var invalid *rag.InvalidArgumentError
	if !errors.As(err, &invalid) {
		t.Fatalf("error type = %T, want *rag.InvalidArgumentError", err)
	}
	if invalid.Field != "target_language" {
		t.Errorf("field = %q, want target_language", invalid.Field)
	}
}

func TestRunUtilityCompletionFailureSurfaces(t *testing.T) {
	docID := uuid.New()
	source := &fakeSource{chunks: []store.Chunk{
		readyChunk("c1", docID.String(), "Doc", 0, "text", nil),
	}}
	llmFake := &fakeLLM{err: errors.New("model crashed")}
	exec := newTestExecutor(llmFake, &fakeEmbedder{}, source)

	_, err := exec.RunUtility(context.Background(), uuid.New(), docID, "CHECKLIST", "")
	if err == nil {
		t.Fatal("expected utility error, got nil")
	}
	var utilityErr *rag.UtilityError
	if !errors.As(err, &utilityErr) {
		t.Fatalf("error type = %T, want *rag.UtilityError", err)
	}
	if llmFake.calls != 1 {
		t.Errorf("model called %d times, want exactly 1 (no retry)", llmFake.calls)
	}
}

func TestAssembleDocument(t *testing.T) {
	text, title := assembleDocument(nil)
	if text != "" || title != "" {
		t.Errorf("empty input = (%q, %q), want empty strings", text, title)
	}

	chunks := []store.Chunk{
		{SequenceIndex: 1, Text: "b", DocumentTitle: "T"},
		{SequenceIndex: 0, Text: "a", DocumentTitle: "T"},
	}
	text, title = assembleDocument(chunks)
	if text != "a\n\nb" {
		t.Errorf("assembled text = %q, want chunks joined in order", text)
	}
	if title != "T" {
		t.Errorf("title = %q, want T", title)
	}
}
