package executor

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"doc-qa-be/pkg/embedding"
	"doc-qa-be/pkg/llm"
	"doc-qa-be/pkg/rag"
	"doc-qa-be/pkg/rag/history"
	"doc-qa-be/pkg/rag/intent"
	"doc-qa-be/pkg/rag/response"
	"doc-qa-be/pkg/rag/search"
	"doc-qa-be/pkg/rag/utility"
	"doc-qa-be/pkg/store"

	"github.com/google/uuid"
)

// Config encapsulates pipeline parameters.
type Config struct {
	Search        search.Config
	HistoryWindow int
	// EmbedTimeout bounds the query embedding call.
	EmbedTimeout time.Duration
	// CompleteTimeout bounds each completion call.
	CompleteTimeout time.Duration
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Search:          search.DefaultConfig(),
		HistoryWindow:   history.DefaultWindow,
		EmbedTimeout:    30 * time.Second,
		CompleteTimeout: 120 * time.Second,
	}
}

// PipelineExecutor orchestrates the query pipeline:
// ROUTE, then either RETRIEVE + REASON or UTILITY, then DONE.
//
// Stages absorb their own recoverable failures so a degraded run still
// answers; the first failure is reported on the result.
type PipelineExecutor struct {
	router            *intent.Router
	retriever         *search.HybridRetriever
	generator         *response.Generator
	utilityRunner     *utility.Runner
	embeddingProvider embedding.EmbeddingProvider
	chunkSource       ChunkSource
	config            Config
	logger            *log.Logger
}

// NewPipelineExecutor creates a pipeline executor.
func NewPipelineExecutor(
	llmProvider llm.LLMProvider,
	embeddingProvider embedding.EmbeddingProvider,
	chunkSource ChunkSource,
	config Config,
	logger *log.Logger,
) *PipelineExecutor {
	return &PipelineExecutor{
		router:            intent.NewRouter(logger),
		retriever:         search.NewHybridRetriever(logger),
		generator:         response.NewGenerator(llmProvider, logger),
		utilityRunner:     utility.NewRunner(llmProvider, logger),
		embeddingProvider: embeddingProvider,
		chunkSource:       chunkSource,
		config:            config,
		logger:            logger,
	}
}

// AnswerQuery runs one chat query through the full pipeline and always
// produces an answer. Utility intents transform the query text itself;
// everything else goes through retrieval and grounded reasoning.
func (p *PipelineExecutor) AnswerQuery(
	ctx context.Context,
	ownerID uuid.UUID,
	query string,
	chatHistory []llm.Message,
) (*Result, error) {

	started := time.Now()
	state := newState(query, chatHistory)

	p.logger.Printf("[PIPELINE] Starting execution for query: %s", truncate(query, 50))

	// ═══════════════════════════════════════════════════════════════
	// PHASE 1: ROUTE (keyword classification, cannot fail)
	// ═══════════════════════════════════════════════════════════════
	state.Stage = StageRoute
	p.logger.Printf("[PHASE 1] Routing intent...")

	routed := p.router.Route(query)
	state.Route = &RouteResult{Intent: routed}

	if routed.IsUtility() {
		p.runChatUtility(ctx, state)
	} else {
		p.runRetrieve(ctx, ownerID, state)
		p.runReason(ctx, state)
	}

	state.finish()

	result := p.buildResult(state, started)
	p.logger.Printf("[PIPELINE] Finished in %s (stage: %s, citations: %d)",
		time.Since(started), result.Stage, len(result.Citations))

	return result, nil
}

// RunUtility executes a document transform over the full text of one ready
// document. The intent router is bypassed; the caller names the action.
// Unlike the chat path, failures here surface to the caller.
func (p *PipelineExecutor) RunUtility(
	ctx context.Context,
	ownerID uuid.UUID,
	documentID uuid.UUID,
	action string,
	targetLanguage string,
) (*Result, error) {

	started := time.Now()

	p.logger.Printf("[PIPELINE] Running utility %s on document %s", action, documentID)

	act, ok := intent.Parse(action)
	if !ok || !act.IsUtility() {
		return nil, &rag.InvalidArgumentError{
			Field:  "action",
			Reason: "must be one of SUMMARIZE, TRANSLATE, CHECKLIST",
		}
	}

	chunks, err := p.chunkSource.ListReadyChunks(ctx, ChunkFilter{
		OwnerID:     ownerID,
		DocumentIDs: []uuid.UUID{documentID},
	})
	if err != nil {
		p.logger.Printf("[ERROR] Loading document chunks failed: %v", err)
		return nil, &rag.UtilityError{Action: string(act), Err: err}
	}

	fullText, title := assembleDocument(chunks)

	cctx, cancel := context.WithTimeout(ctx, p.config.CompleteTimeout)
	defer cancel()

	output, err := p.utilityRunner.Execute(cctx, fullText, act, targetLanguage)
	if err != nil {
		return nil, err
	}

	p.logger.Printf("[PIPELINE] Utility %s finished in %s", act, time.Since(started))

	return &Result{
		Answer:    output,
		Citations: []store.Citation{},
		Intent:    act,
		Stage:     StageDone,
		Metadata: map[string]interface{}{
			"agent_type":       "utility",
			"utility_function": strings.ToLower(string(act)),
			"document_id":      documentID.String(),
			"document_title":   title,
			"elapsed_ms":       time.Since(started).Milliseconds(),
		},
	}, nil
}

// ═══════════════════════════════════════════════════════════════
// PHASE 2: RETRIEVE (embed the query, rank the snapshot)
// ═══════════════════════════════════════════════════════════════
func (p *PipelineExecutor) runRetrieve(ctx context.Context, ownerID uuid.UUID, state *State) {
	state.Stage = StageRetrieve
	p.logger.Printf("[PHASE 2] Retrieving chunks...")

	state.Retrieval = &RetrievalResult{Chunks: []store.ScoredChunk{}}

	ectx, cancel := context.WithTimeout(ctx, p.config.EmbedTimeout)
	defer cancel()

	embeddingRes, err := p.embeddingProvider.Generate(ectx, state.Query, embedding.TaskRetrievalQuery)
	if err != nil {
		p.logger.Printf("[ERROR] Query embedding failed: %v", err)
		state.recordError(&rag.RetrievalError{Op: "embed", Err: err})
		return
	}

	chunks, err := p.chunkSource.ListReadyChunks(ctx, ChunkFilter{
		OwnerID:        ownerID,
		QueryEmbedding: embeddingRes.Embedding.Values,
	})
	if err != nil {
		p.logger.Printf("[ERROR] Chunk snapshot failed: %v", err)
		state.recordError(&rag.RetrievalError{Op: "load", Err: err})
		return
	}
	state.Retrieval.Candidates = len(chunks)

	retrieved, err := p.retriever.Retrieve(
		state.Query,
		embeddingRes.Embedding.Values,
		chunks,
		p.config.Search,
	)
	if err != nil {
		p.logger.Printf("[ERROR] Ranking failed: %v", err)
		state.recordError(&rag.RetrievalError{Op: "rank", Err: err})
		return
	}

	state.Retrieval.Chunks = retrieved
	p.logger.Printf("[PHASE 2] Retrieved %d of %d candidates", len(retrieved), len(chunks))
}

// ═══════════════════════════════════════════════════════════════
// PHASE 3: REASON (grounded answer over the retrieved chunks)
// ═══════════════════════════════════════════════════════════════
func (p *PipelineExecutor) runReason(ctx context.Context, state *State) {
	state.Stage = StageReason
	p.logger.Printf("[PHASE 3] Generating answer...")

	window := history.Window(state.History, p.config.HistoryWindow)

	cctx, cancel := context.WithTimeout(ctx, p.config.CompleteTimeout)
	defer cancel()

	var retrieved []store.ScoredChunk
	if state.Retrieval != nil {
		retrieved = state.Retrieval.Chunks
	}

	result, err := p.generator.Reason(cctx, state.Query, retrieved, window)
	if err != nil {
		state.recordError(err)
	}

	state.Reason = &ReasonResult{
		Answer:    result.Answer,
		Citations: result.Citations,
	}
}

// runChatUtility handles utility intents typed into the chat box. The query
// text itself is the material to transform; failures degrade to a fallback
// reply instead of surfacing.
func (p *PipelineExecutor) runChatUtility(ctx context.Context, state *State) {
	state.Stage = StageUtility
	act := state.Route.Intent
	p.logger.Printf("[PHASE 2] Utility intent %s, skipping retrieval", act)

	targetLanguage := ""
	if act == intent.Translate {
		targetLanguage = utility.DetectTargetLanguage(state.Query)
	}

	cctx, cancel := context.WithTimeout(ctx, p.config.CompleteTimeout)
	defer cancel()

	output, err := p.utilityRunner.Execute(cctx, state.Query, act, targetLanguage)
	if err != nil {
		state.recordError(err)
		state.Utility = &UtilityResult{Action: act, Output: chatUtilityFallback(err)}
		return
	}

	state.Utility = &UtilityResult{Action: act, Output: output}
}

// chatUtilityFallback picks the reply for a failed chat-side transform. A
// missing target language gets a clarification request; everything else
// gets the generic apology.
func chatUtilityFallback(err error) string {
	var invalid *rag.InvalidArgumentError
	if errors.As(err, &invalid) && invalid.Field == "target_language" {
		return response.FallbackMissingTargetLanguage
	}
	return response.FallbackUtilityFailure
}

func (p *PipelineExecutor) buildResult(state *State, started time.Time) *Result {
	result := &Result{
		Citations: []store.Citation{},
		Stage:     state.Stage,
		Err:       state.Err,
		Metadata:  map[string]interface{}{},
	}
	if state.Route != nil {
		result.Intent = state.Route.Intent
		result.Metadata["intent"] = string(state.Route.Intent)
	}

	switch {
	case state.Utility != nil:
		result.Answer = state.Utility.Output
		result.Metadata["agent_type"] = "utility"
		result.Metadata["utility_function"] = strings.ToLower(string(state.Utility.Action))
	case state.Reason != nil:
		result.Answer = state.Reason.Answer
		result.Citations = state.Reason.Citations
		result.Metadata["agent_type"] = "reasoning"
		if state.Retrieval != nil {
			result.Metadata["candidates"] = state.Retrieval.Candidates
			result.Metadata["retrieved"] = len(state.Retrieval.Chunks)
		}
	default:
		// No stage produced output; reply with the generic apology so the
		// caller still gets an answer.
		result.Answer = response.FallbackCompletionFailure
	}

	result.Metadata["elapsed_ms"] = time.Since(started).Milliseconds()

	return result
}

// assembleDocument stitches chunk texts back into the document in sequence
// order and returns the document title from the first chunk.
func assembleDocument(chunks []store.Chunk) (string, string) {
	if len(chunks) == 0 {
		return "", ""
	}

	ordered := make([]store.Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SequenceIndex < ordered[j].SequenceIndex
	})

	parts := make([]string, 0, len(ordered))
	for _, chunk := range ordered {
		parts = append(parts, chunk.Text)
	}

	return strings.Join(parts, "\n\n"), ordered[0].DocumentTitle
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
