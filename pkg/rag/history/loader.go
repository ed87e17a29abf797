package history

import (
	"context"

	"doc-qa-be/internal/constant"
	"doc-qa-be/internal/repository/specification"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/llm"

	"github.com/google/uuid"
)

// DefaultWindow is how many recent messages the reasoning stage sees.
// Enough for follow-up resolution without flooding the prompt.
const DefaultWindow = 4

// Window returns the trailing limit messages in their original order.
func Window(messages []llm.Message, limit int) []llm.Message {
	if limit <= 0 {
		limit = DefaultWindow
	}
	if len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}

// Loader reads recent conversation turns from the durable transcript and
// maps them into provider-agnostic messages.
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
	window     int
}

// NewLoader creates a history loader. A non-positive window falls back to
// DefaultWindow.
func NewLoader(uowFactory unitofwork.RepositoryFactory, window int) *Loader {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Loader{
		uowFactory: uowFactory,
		window:     window,
	}
}

// LoadConversationHistory loads the most recent messages of a session in
// chronological order.
func (l *Loader) LoadConversationHistory(ctx context.Context, sessionID uuid.UUID) ([]llm.Message, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)

	rows, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	if len(rows) > l.window {
		rows = rows[:l.window]
	}

	// Rows arrive newest first; the prompt wants them oldest first.
	messages := make([]llm.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		role := "user"
		if rows[i].Role == constant.ChatMessageRoleAssistant {
			role = "assistant"
		}
		messages = append(messages, llm.Message{
			Role:    role,
			Content: rows[i].Content,
		})
	}

	return messages, nil
}
