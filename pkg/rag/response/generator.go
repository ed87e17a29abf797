package response

import (
	"context"
	"log"

	"doc-qa-be/pkg/llm"
	"doc-qa-be/pkg/rag"
	"doc-qa-be/pkg/rag/prompt"
	"doc-qa-be/pkg/store"
)

// Result is the outcome of the reasoning stage: the answer text plus one
// citation per chunk that grounded it.
type Result struct {
	Answer    string
	Citations []store.Citation
}

// Generator produces grounded answers from retrieved chunks.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

// NewGenerator creates a response generator.
func NewGenerator(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Reason builds the grounded prompt and asks the model for an answer.
//
// An empty chunk set short-circuits to the no-content fallback without a
// model call; that path must stay cheap and deterministic. A failed model
// call returns the apology fallback together with a CompletionError, so the
// caller can record the failure while still replying to the user.
func (g *Generator) Reason(
	ctx context.Context,
	query string,
	retrieved []store.ScoredChunk,
	history []llm.Message,
) (*Result, error) {

	if len(retrieved) == 0 {
		g.logger.Printf("[GENERATION] No grounding chunks, using no-content fallback")
		return &Result{
			Answer:    FallbackNoContent,
			Citations: []store.Citation{},
		}, nil
	}

	promptText := prompt.NewGroundedBuilder(query, retrieved).Build()
	fullHistory := append(history, llm.Message{Role: "user", Content: promptText})

	answer, err := g.llmProvider.Chat(ctx, fullHistory)
	if err != nil {
		g.logger.Printf("[ERROR] LLM generation failed: %v", err)
		return &Result{
			Answer:    FallbackCompletionFailure,
			Citations: []store.Citation{},
		}, &rag.CompletionError{Err: err}
	}

	g.logger.Printf("[GENERATION] Answer generated from %d chunks", len(retrieved))

	return &Result{
		Answer:    answer,
		Citations: buildCitations(retrieved),
	}, nil
}

// buildCitations maps every grounding chunk to a citation, preserving the
// retrieval order.
func buildCitations(retrieved []store.ScoredChunk) []store.Citation {
	citations := make([]store.Citation, 0, len(retrieved))
	for _, sc := range retrieved {
		citations = append(citations, store.NewCitation(sc.Chunk))
	}
	return citations
}
