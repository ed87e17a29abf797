package executor

import (
	"doc-qa-be/pkg/llm"
	"doc-qa-be/pkg/rag/intent"
	"doc-qa-be/pkg/store"
)

// Stage identifies where the pipeline currently is, and on completion
// whether it finished clean (DONE) or degraded (ERRORED).
type Stage string

const (
	StageStart    Stage = "START"
	StageRoute    Stage = "ROUTE"
	StageRetrieve Stage = "RETRIEVE"
	StageReason   Stage = "REASON"
	StageUtility  Stage = "UTILITY"
	StageDone     Stage = "DONE"
	StageErrored  Stage = "ERRORED"
)

// RouteResult is the routing stage output.
type RouteResult struct {
	Intent intent.Intent
}

// RetrievalResult is the retrieval stage output: how many candidates the
// snapshot held and which chunks survived ranking.
type RetrievalResult struct {
	Candidates int
	Chunks     []store.ScoredChunk
}

// ReasonResult is the reasoning stage output.
type ReasonResult struct {
	Answer    string
	Citations []store.Citation
}

// UtilityResult is the utility stage output.
type UtilityResult struct {
	Action intent.Intent
	Output string
}

// State accumulates typed stage outputs as one query moves through the
// pipeline. Later stages read earlier outputs from here instead of passing
// loose values around.
type State struct {
	Query   string
	History []llm.Message
	Stage   Stage

	Route     *RouteResult
	Retrieval *RetrievalResult
	Reason    *ReasonResult
	Utility   *UtilityResult

	// Err holds the first recoverable failure. Stages keep running after
	// recording one; the final result reports it alongside the best-effort
	// answer.
	Err error
}

func newState(query string, chatHistory []llm.Message) *State {
	return &State{
		Query:   query,
		History: chatHistory,
		Stage:   StageStart,
	}
}

// recordError keeps the first failure and ignores the rest. The first error
// is the root cause; later ones are usually consequences.
func (s *State) recordError(err error) {
	if s.Err == nil {
		s.Err = err
	}
}

// finish marks the terminal stage based on whether any stage failed.
func (s *State) finish() {
	if s.Err != nil {
		s.Stage = StageErrored
		return
	}
	s.Stage = StageDone
}

// Result is what the pipeline hands back to the caller. Even an ERRORED run
// carries a usable answer; Err then names the stage failure that degraded it.
type Result struct {
	Answer    string
	Citations []store.Citation
	Intent    intent.Intent
	Stage     Stage
	Err       error
	Metadata  map[string]interface{}
}
