package rag

import "fmt"

// RetrievalError wraps failures inside the retrieval stage (embedding calls,
// chunk loading). The executor treats it as recoverable and degrades to an
// answer without grounding context.
type RetrievalError struct {
	Op  string // "embed", "load", "rank"
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// DimensionMismatchError reports a candidate whose stored embedding does not
// match the query embedding length. Scoring such a pair would be meaningless,
// so the ranker refuses instead of guessing.
type DimensionMismatchError struct {
	ChunkID string
	Want    int
	Got     int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch on chunk %s: want %d, got %d", e.ChunkID, e.Want, e.Got)
}

// InvalidArgumentError reports caller mistakes (missing target language,
// empty document text, unknown utility action). It maps to a 400 at the
// HTTP boundary.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

// NotFoundError reports a resource that does not exist or is not owned by
// the caller. The two cases are deliberately indistinguishable. It maps to
// a 404 at the HTTP boundary.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found or access denied", e.Resource)
}

// CompletionError wraps a failed language model call during answer
// generation. The reasoning stage absorbs it into a fallback reply; the
// caller still receives a result.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// UtilityError wraps a failed document utility run (summarize, translate,
// checklist). Utility calls are one-shot, so the error surfaces to the
// caller instead of being retried.
type UtilityError struct {
	Action string
	Err    error
}

func (e *UtilityError) Error() string {
	return fmt.Sprintf("utility %s failed: %v", e.Action, e.Err)
}

func (e *UtilityError) Unwrap() error {
	return e.Err
}
