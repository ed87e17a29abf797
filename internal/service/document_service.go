package service

import (
	"context"
	"encoding/json"
	"time"

	"doc-qa-be/internal/constant"
	"doc-qa-be/internal/dto"
	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/internal/repository/specification"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/rag"
	"doc-qa-be/pkg/rag/executor"

	"github.com/google/uuid"
)

// IDocumentService defines the document service interface
type IDocumentService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error)
	RunUtility(ctx context.Context, userId uuid.UUID, id uuid.UUID, req *dto.RunUtilityRequest) (*dto.RunUtilityResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	pipelineExecutor *executor.PipelineExecutor
	logger           logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	pipelineExecutor *executor.PipelineExecutor,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		pipelineExecutor: pipelineExecutor,
		logger:           log,
	}
}

// Create registers a document in UPLOADED state and queues its text for the
// ingest consumer. The response returns before chunking starts; callers poll
// the status until it turns READY.
func (c *documentService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	document := entity.Document{
		Id:        uuid.New(),
		Title:     req.Title,
		Status:    constant.DocumentStatusUploaded,
		UserId:    userId,
		CreatedAt: time.Now(),
	}

	err := uow.DocumentRepository().Create(ctx, &document)
	if err != nil {
		return nil, err
	}

	msgPayload := dto.IngestDocumentMessage{
		DocumentId: document.Id,
		UserId:     userId,
		Title:      req.Title,
		Text:       req.Text,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}

	err = c.publisherService.Publish(ctx, msgJson)
	if err != nil {
		return nil, err
	}

	c.logger.Info("DocumentService", "Document queued for ingestion", map[string]interface{}{
		"document_id": document.Id.String(),
		"text_length": len(req.Text),
	})

	return &dto.CreateDocumentResponse{
		Id:     document.Id,
		Status: document.Status,
	}, nil
}

func (c *documentService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.DocumentResponse, 0, len(documents))
	for _, document := range documents {
		chunkCount, err := uow.DocumentChunkRepository().Count(ctx,
			specification.ByDocumentID{DocumentID: document.Id},
		)
		if err != nil {
			return nil, err
		}
		response = append(response, toDocumentResponse(document, chunkCount))
	}

	return response, nil
}

func (c *documentService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	document, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	chunkCount, err := uow.DocumentChunkRepository().Count(ctx,
		specification.ByDocumentID{DocumentID: document.Id},
	)
	if err != nil {
		return nil, err
	}

	return toDocumentResponse(document, chunkCount), nil
}

// RunUtility executes a whole-document transform (summarize, translate,
// checklist) over a READY document.
func (c *documentService) RunUtility(ctx context.Context, userId uuid.UUID, id uuid.UUID, req *dto.RunUtilityRequest) (*dto.RunUtilityResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	document, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}
	if document.Status != constant.DocumentStatusReady {
		return nil, &rag.InvalidArgumentError{
			Field:  "document_id",
			Reason: "document is not READY",
		}
	}

	result, err := c.pipelineExecutor.RunUtility(ctx, userId, document.Id, req.Action, req.TargetLanguage)
	if err != nil {
		return nil, err
	}

	return &dto.RunUtilityResponse{
		Output:   result.Answer,
		Metadata: result.Metadata,
	}, nil
}

func (c *documentService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, id uuid.UUID) (*entity.Document, error) {
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, &rag.NotFoundError{Resource: "document"}
	}
	return document, nil
}

func toDocumentResponse(document *entity.Document, chunkCount int64) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:         document.Id,
		Title:      document.Title,
		Status:     document.Status,
		FailReason: document.FailReason,
		ChunkCount: chunkCount,
		CreatedAt:  document.CreatedAt,
		UpdatedAt:  document.UpdatedAt,
	}
}
