package session

import (
	"context"
	"strings"
	"time"

	"doc-qa-be/internal/constant"
	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/repository/memory"
	"doc-qa-be/internal/repository/specification"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/rag"
	"doc-qa-be/pkg/store"

	"github.com/google/uuid"
)

// Manager handles session operations: ownership checks against the durable
// store and the in-memory last-turn state.
type Manager struct {
	sessionRepo *memory.SessionRepository
}

// NewManager creates a new session manager
func NewManager(sessionRepo *memory.SessionRepository) *Manager {
	return &Manager{sessionRepo: sessionRepo}
}

// VerifyChatSession validates session ownership
func (m *Manager) VerifyChatSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &rag.NotFoundError{Resource: "session"}
	}
	return session, nil
}

// StartSession builds a new session titled from its opening query. The caller
// persists it alongside the first message pair.
func (m *Manager) StartSession(userId uuid.UUID, firstQuery string, now time.Time) *entity.ChatSession {
	return &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     TitleFromQuery(firstQuery),
		CreatedAt: now,
	}
}

// RememberTurn records the last query and routed intent for follow-up context.
func (m *Manager) RememberTurn(sessionId, userId uuid.UUID, query, intentCode string) {
	m.sessionRepo.Save(&store.Session{
		ID:         sessionId.String(),
		UserID:     userId.String(),
		LastQuery:  query,
		LastIntent: intentCode,
	})
}

// LastTurn returns the remembered state for a session, if any.
func (m *Manager) LastTurn(sessionId uuid.UUID) (*store.Session, bool) {
	return m.sessionRepo.Get(sessionId.String())
}

// TitleFromQuery derives a session title from the opening query, capped at
// SessionTitleMaxRunes.
func TitleFromQuery(query string) string {
	title := strings.TrimSpace(query)
	if title == "" {
		return "Unnamed session"
	}
	runes := []rune(title)
	if len(runes) <= constant.SessionTitleMaxRunes {
		return title
	}
	return string(runes[:constant.SessionTitleMaxRunes]) + "..."
}
