package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"doc-qa-be/internal/constant"
	"doc-qa-be/internal/dto"
	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/internal/repository/specification"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/events"
	pktNats "doc-qa-be/pkg/nats" // Renamed to avoid collision

	"github.com/google/uuid"
)

// ExtractionService bridges external extraction workers into the ingest
// queue. Workers (PDF parsers, OCR) publish extracted text on
// events.document.extracted; each event is turned into the same ingest
// message the upload endpoint produces.
type ExtractionService struct {
	uowFactory       unitofwork.RepositoryFactory
	subscriber       *pktNats.Subscriber
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewExtractionService(
	uowFactory unitofwork.RepositoryFactory,
	sub *pktNats.Subscriber,
	publisherService IPublisherService,
	log logger.ILogger,
) *ExtractionService {
	return &ExtractionService{
		uowFactory:       uowFactory,
		subscriber:       sub,
		publisherService: publisherService,
		logger:           log,
	}
}

// Start begins listening to the event bus.
func (s *ExtractionService) Start() {
	subject := fmt.Sprintf("events.%s", events.TypeDocumentExtracted)
	err := s.subscriber.Subscribe(subject, "ingest-extract-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("ExtractionService", "Failed to start extraction subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("ExtractionService", fmt.Sprintf("Extraction service started, listening to %s", subject), nil)
}

func (s *ExtractionService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	documentIdStr, _ := payload["document_id"].(string)
	userIdStr, _ := payload["user_id"].(string)
	title, _ := payload["title"].(string)
	text, _ := payload["text"].(string)

	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		// Poison message; retrying cannot fix a missing owner.
		s.logger.Warn("ExtractionService", "Extraction event without a valid user_id, dropping", map[string]interface{}{
			"user_id": userIdStr,
		})
		return nil
	}
	if text == "" {
		s.logger.Warn("ExtractionService", "Extraction event with empty text, dropping", map[string]interface{}{
			"document_id": documentIdStr,
		})
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Re-extraction names an existing document; otherwise register a new one.
	var document *entity.Document
	if documentIdStr != "" {
		if documentId, parseErr := uuid.Parse(documentIdStr); parseErr == nil {
			existing, err := uow.DocumentRepository().FindOne(ctx,
				specification.ByID{ID: documentId},
				specification.OwnedByUser{UserID: userId},
			)
			if err != nil {
				return err // NATS will retry
			}
			document = existing
		}
	}

	if document == nil {
		document = &entity.Document{
			Id:        uuid.New(),
			Title:     title,
			Status:    constant.DocumentStatusUploaded,
			UserId:    userId,
			CreatedAt: time.Now(),
		}
		if document.Title == "" {
			document.Title = "Untitled document"
		}
		if err := uow.DocumentRepository().Create(ctx, document); err != nil {
			return err
		}
	}

	msgPayload := dto.IngestDocumentMessage{
		DocumentId: document.Id,
		UserId:     userId,
		Title:      document.Title,
		Text:       text,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return err
	}

	s.logger.Info("ExtractionService", "Extracted document queued for ingestion", map[string]interface{}{
		"document_id": document.Id.String(),
		"text_length": len(text),
	})

	return nil
}
