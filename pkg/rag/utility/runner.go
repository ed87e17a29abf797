package utility

import (
	"context"
	"fmt"
	"log"
	"strings"

	"doc-qa-be/pkg/llm"
	"doc-qa-be/pkg/rag"
	"doc-qa-be/pkg/rag/intent"
)

// Runner executes document transforms (summarize, translate, checklist)
// against the completion provider. Transforms operate on the whole document
// text handed to Execute; there is no retrieval involved.
type Runner struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

// NewRunner creates a utility runner.
func NewRunner(llmProvider llm.LLMProvider, logger *log.Logger) *Runner {
	return &Runner{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Execute runs one transform over the given text. Arguments are validated
// up front: the action must be a utility intent, translation needs a target
// language, and empty text is rejected before any model call. The single
// completion call is not retried; a provider failure comes back as a
// UtilityError.
func (r *Runner) Execute(
	ctx context.Context,
	text string,
	action intent.Intent,
	targetLanguage string,
) (string, error) {

	if !action.IsUtility() {
		return "", &rag.InvalidArgumentError{
			Field:  "action",
			Reason: fmt.Sprintf("unknown utility action %q", string(action)),
		}
	}
	if action == intent.Translate && strings.TrimSpace(targetLanguage) == "" {
		return "", &rag.InvalidArgumentError{
			Field:  "target_language",
			Reason: "translation requires a target language",
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", &rag.InvalidArgumentError{
			Field:  "text",
			Reason: "document has no extracted text",
		}
	}

	promptText := r.buildPrompt(text, action, targetLanguage)

	r.logger.Printf("[UTILITY] Running %s (input: %d characters)", action, len(text))

	output, err := r.llmProvider.Generate(ctx, promptText, llm.WithTemperature(0.3))
	if err != nil {
		r.logger.Printf("[ERROR] Utility %s failed: %v", action, err)
		return "", &rag.UtilityError{Action: string(action), Err: err}
	}

	return output, nil
}

func (r *Runner) buildPrompt(text string, action intent.Intent, targetLanguage string) string {
	var prompt strings.Builder

	prompt.WriteString("<document>\n")
	prompt.WriteString(text)
	prompt.WriteString("\n</document>\n\n")

	prompt.WriteString("<task>\n")
	switch action {
	case intent.Summarize:
		prompt.WriteString("Provide a clear, concise summary of the document above.\n")
		prompt.WriteString("Preserve the key facts, figures, and conclusions.\n")
		prompt.WriteString("Write the summary in the same language as the document.\n")
	case intent.Translate:
		prompt.WriteString(fmt.Sprintf("Translate the document above into %s.\n", targetLanguage))
		prompt.WriteString("Preserve the meaning, tone, and structure of the original.\n")
		prompt.WriteString("Output only the translation, without commentary.\n")
	case intent.Checklist:
		prompt.WriteString("Extract the actionable items from the document above as a checklist.\n")
		prompt.WriteString("Format each item as a markdown checkbox line: - [ ] item\n")
		prompt.WriteString("Keep items short and concrete; skip background prose.\n")
	}
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("Now produce the result:")

	return prompt.String()
}

// languageCues maps query phrasings to a canonical target language. Matching
// is substring-based over the lowercased query. Directional cues ("to X",
// "be X") come before bare language names so "از انگلیسی به فارسی" resolves
// to the destination language, not the source.
var languageCues = []struct {
	cue      string
	language string
}{
	{"به انگلیسی", "English"},
	{"به فارسی", "Persian"},
	{"to english", "English"},
	{"in english", "English"},
	{"to persian", "Persian"},
	{"in persian", "Persian"},
	{"to farsi", "Persian"},
	{"in farsi", "Persian"},
	{"انگلیسی", "English"},
	{"فارسی", "Persian"},
}

// DetectTargetLanguage infers the translation target from a chat query.
// Returns the empty string when no cue is present; the caller decides
// whether to ask the user or fail.
func DetectTargetLanguage(query string) string {
	normalized := strings.ToLower(query)
	for _, c := range languageCues {
		if strings.Contains(normalized, c.cue) {
			return c.language
		}
	}
	return ""
}
