package service

import (
	"context"
	"time"

	"doc-qa-be/internal/constant"
	"doc-qa-be/internal/dto"
	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/internal/repository/memory"
	"doc-qa-be/internal/repository/specification"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/events"
	"doc-qa-be/pkg/llm"
	pktNats "doc-qa-be/pkg/nats"
	"doc-qa-be/pkg/rag/executor"
	"doc-qa-be/pkg/rag/history"
	"doc-qa-be/pkg/rag/session"
	"doc-qa-be/pkg/store"

	"github.com/google/uuid"
)

// IChatService defines the chat service interface
type IChatService interface {
	Query(ctx context.Context, userId uuid.UUID, request *dto.ChatQueryRequest) (*dto.ChatQueryResponse, error)
	ListSessionMessages(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ListSessionMessagesResponse, error)
}

// chatService coordinates the query pipeline with the durable transcript.
type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	pipelineExecutor *executor.PipelineExecutor
	historyLoader    *history.Loader
	sessionManager   *session.Manager
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

// NewChatService creates a new chat service.
func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	pipelineExecutor *executor.PipelineExecutor,
	historyWindow int,
	sessionRepo *memory.SessionRepository,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		pipelineExecutor: pipelineExecutor,
		historyLoader:    history.NewLoader(uowFactory, historyWindow),
		sessionManager:   session.NewManager(sessionRepo),
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// Query answers one user query. A missing session id starts a new session
// titled from the query. The answer, its citations, and both transcript rows
// are persisted atomically after the pipeline finishes; a degraded pipeline
// run still commits its fallback answer.
func (cs *chatService) Query(ctx context.Context, userId uuid.UUID, request *dto.ChatQueryRequest) (*dto.ChatQueryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	var chatSession *entity.ChatSession
	newSession := request.SessionId == nil
	if newSession {
		chatSession = cs.sessionManager.StartSession(userId, request.Query, now)
	} else {
		var err error
		chatSession, err = cs.sessionManager.VerifyChatSession(ctx, uow, userId, *request.SessionId)
		if err != nil {
			return nil, err
		}
	}

	chatHistory, err := cs.loadHistory(ctx, newSession, chatSession.Id)
	if err != nil {
		return nil, err
	}

	if last, found := cs.sessionManager.LastTurn(chatSession.Id); found {
		cs.logger.Debug("ChatService", "Resuming session", map[string]interface{}{
			"session_id":  chatSession.Id.String(),
			"last_intent": last.LastIntent,
		})
	}

	// The pipeline runs outside the transaction; a completion call can take
	// two minutes and must not hold a database connection that long.
	result, err := cs.pipelineExecutor.AnswerQuery(ctx, userId, request.Query, chatHistory)
	if err != nil {
		return nil, err
	}
	answeredAt := time.Now()

	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		Content:       request.Query,
		Role:          constant.ChatMessageRoleUser,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}
	assistantMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		Content:       result.Answer,
		Role:          constant.ChatMessageRoleAssistant,
		ChatSessionId: chatSession.Id,
		Metadata:      result.Metadata,
		CreatedAt:     answeredAt,
	}
	citations := citationEntities(assistantMessage.Id, result.Citations, answeredAt)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if newSession {
		if err := uow.ChatSessionRepository().Create(ctx, chatSession); err != nil {
			return nil, err
		}
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMessage); err != nil {
		return nil, err
	}
	if len(citations) > 0 {
		if err := uow.ChatCitationRepository().CreateBulk(ctx, citations); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	cs.sessionManager.RememberTurn(chatSession.Id, userId, request.Query, string(result.Intent))
	cs.publishChatAnswered(ctx, chatSession.Id, userId, result)

	response := &dto.ChatQueryResponse{
		SessionId: chatSession.Id,
		Answer:    result.Answer,
		Citations: toCitationDTOs(result.Citations),
		Intent:    string(result.Intent),
		Metadata:  result.Metadata,
	}
	if result.Err != nil {
		// Soft failure: the answer above is a fallback, not a grounded reply.
		response.Error = result.Err.Error()
	}

	return response, nil
}

// ListSessionMessages returns the full transcript of a session in
// chronological order, with citations attached to assistant turns.
func (cs *chatService) ListSessionMessages(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ListSessionMessagesResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.sessionManager.VerifyChatSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messageIds := make([]uuid.UUID, len(chatMessages))
	for i, msg := range chatMessages {
		messageIds[i] = msg.Id
	}

	citations, err := uow.ChatCitationRepository().FindAllByMessageIds(ctx, messageIds)
	if err != nil {
		return nil, err
	}

	citationsByMsgId := make(map[uuid.UUID][]dto.CitationDTO)
	for _, c := range citations {
		citationsByMsgId[c.ChatMessageId] = append(citationsByMsgId[c.ChatMessageId], dto.CitationDTO{
			DocumentId:    c.DocumentId.String(),
			DocumentTitle: c.DocumentTitle,
			ChunkIndex:    c.ChunkIndex,
			PageNumber:    c.PageNumber,
			Snippet:       c.Snippet,
		})
	}

	messages := make([]dto.ChatMessageDTO, 0, len(chatMessages))
	for _, msg := range chatMessages {
		messages = append(messages, dto.ChatMessageDTO{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			Citations: citationsByMsgId[msg.Id],
			CreatedAt: msg.CreatedAt,
		})
	}

	return &dto.ListSessionMessagesResponse{
		SessionId: sessionId,
		Messages:  messages,
	}, nil
}

func (cs *chatService) loadHistory(ctx context.Context, newSession bool, sessionId uuid.UUID) ([]llm.Message, error) {
	if newSession {
		return nil, nil
	}
	return cs.historyLoader.LoadConversationHistory(ctx, sessionId)
}

func (cs *chatService) publishChatAnswered(ctx context.Context, sessionId, userId uuid.UUID, result *executor.Result) {
	if cs.eventPublisher == nil {
		return
	}
	evt := events.NewChatAnswered(sessionId, userId, string(result.Intent), len(result.Citations))
	// Notifications are auxiliary; a publish failure must not fail the chat.
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		cs.logger.Warn("ChatService", "Failed to publish chat.answered event", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}

func citationEntities(messageId uuid.UUID, citations []store.Citation, now time.Time) []*entity.ChatCitation {
	rows := make([]*entity.ChatCitation, 0, len(citations))
	for _, c := range citations {
		docId, err := uuid.Parse(c.DocumentID)
		if err != nil {
			continue
		}
		rows = append(rows, &entity.ChatCitation{
			Id:            uuid.New(),
			ChatMessageId: messageId,
			DocumentId:    docId,
			DocumentTitle: c.DocumentTitle,
			ChunkIndex:    c.ChunkIndex,
			PageNumber:    c.PageNumber,
			Snippet:       c.Snippet,
			CreatedAt:     now,
		})
	}
	return rows
}

func toCitationDTOs(citations []store.Citation) []dto.CitationDTO {
	out := make([]dto.CitationDTO, 0, len(citations))
	for _, c := range citations {
		out = append(out, dto.CitationDTO{
			DocumentId:    c.DocumentID,
			DocumentTitle: c.DocumentTitle,
			ChunkIndex:    c.ChunkIndex,
			PageNumber:    c.PageNumber,
			Snippet:       c.Snippet,
		})
	}
	return out
}
