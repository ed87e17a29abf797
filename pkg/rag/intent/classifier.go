package intent

import (
	"log"
	"strings"
)

// Intent is the resolved handling class for an incoming query.
type Intent string

const (
	// RAGQuery routes through retrieval and grounded reasoning.
	RAGQuery Intent = "RAG_QUERY"
	// Summarize condenses a document without retrieval.
	Summarize Intent = "SUMMARIZE"
	// Translate renders text in another language without retrieval.
	Translate Intent = "TRANSLATE"
	// Checklist extracts actionable items without retrieval.
	Checklist Intent = "CHECKLIST"
)

// IsUtility reports whether the intent bypasses retrieval and goes straight
// to a document transform.
func (i Intent) IsUtility() bool {
	return i == Summarize || i == Translate || i == Checklist
}

// Parse maps an action string from the API onto an intent. The second
// return is false for unknown actions.
func Parse(action string) (Intent, bool) {
	switch Intent(strings.ToUpper(strings.TrimSpace(action))) {
	case Summarize:
		return Summarize, true
	case Translate:
		return Translate, true
	case Checklist:
		return Checklist, true
	case RAGQuery:
		return RAGQuery, true
	default:
		return "", false
	}
}

// rules are checked in order; the first hit wins. More specific intents sit
// above less specific ones, so a query carrying both a checklist keyword
// and a summarize keyword still resolves to CHECKLIST.
var rules = []struct {
	intent   Intent
	keywords []string
}{
	{
		intent: Checklist,
		keywords: []string{
			"checklist",
			"چک‌لیست",
			"چک لیست",
			"list",
			"tasks",
			"کارها",
		},
	},
	{
		intent: Translate,
		keywords: []string{
			"translate",
			"translation",
			"ترجمه",
			"به انگلیسی",
			"به فارسی",
		},
	},
	{
		intent: Summarize,
		keywords: []string{
			"summarize",
			"summarise",
			"summary",
			"خلاصه",
		},
	},
}

// Router classifies queries by keyword occurrence. Classification is pure
// string matching; it cannot fail, and anything unrecognized falls through
// to RAG_QUERY.
type Router struct {
	logger *log.Logger
}

// NewRouter creates a keyword intent router.
func NewRouter(logger *log.Logger) *Router {
	return &Router{logger: logger}
}

// Route resolves the intent for a query. Matching is case-insensitive and
// substring-based, which keeps Persian suffix forms working without a
// morphology pass.
func (r *Router) Route(query string) Intent {
	normalized := strings.ToLower(query)

	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, keyword) {
				r.logger.Printf("[INTENT] Resolved: %s (matched %q)", rule.intent, keyword)
				return rule.intent
			}
		}
	}

	r.logger.Printf("[INTENT] Resolved: %s (no utility keyword)", RAGQuery)
	return RAGQuery
}
