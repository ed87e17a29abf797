package prompt

import (
	"fmt"
	"strings"

	"doc-qa-be/pkg/store"
)

// GroundedBuilder assembles the reasoning prompt from retrieved chunks.
// Every chunk is tagged with its source document and page so the model can
// ground its answer and the reader can trace it back.
type GroundedBuilder struct {
	query     string
	retrieved []store.ScoredChunk
}

// NewGroundedBuilder creates a prompt builder for a query and its retrieved
// chunks.
func NewGroundedBuilder(query string, retrieved []store.ScoredChunk) *GroundedBuilder {
	return &GroundedBuilder{
		query:     query,
		retrieved: retrieved,
	}
}

// Build creates the full grounded prompt.
func (b *GroundedBuilder) Build() string {
	var prompt strings.Builder

	b.writeTask(&prompt)
	b.writeReferenceMaterial(&prompt)
	b.writeGuidelines(&prompt)
	b.writeUserQuery(&prompt)

	return prompt.String()
}

func (b *GroundedBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a knowledgeable assistant answering questions about the user's uploaded documents.\n")
	prompt.WriteString("Your goal is to answer the question using only the reference material below.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *GroundedBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	prompt.WriteString("<grounded_reference_material>\n")
	for i, sc := range b.retrieved {
		chunk := sc.Chunk
		prompt.WriteString(fmt.Sprintf("[Document %d: %s, Page %s]\n", i+1, chunk.DocumentTitle, pageLabel(chunk.PageNumber)))
		prompt.WriteString(chunk.Text)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</grounded_reference_material>\n\n")
}

func (b *GroundedBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the reference material provided\n")
	prompt.WriteString("2. If the material does not contain the answer, say so honestly instead of guessing\n")
	prompt.WriteString("3. Answer in the language the question was asked in\n")
	prompt.WriteString("4. Be complete - don't skip relevant information from the material\n")
	prompt.WriteString("5. Be clear and well-organized in your presentation\n")
	prompt.WriteString("</guidelines>\n\n")
}

func (b *GroundedBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Now provide your complete answer based on the reference material:")
}

// pageLabel renders a page number for the source tag; chunks without page
// information show N/A.
func pageLabel(page *int) string {
	if page == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *page)
}
