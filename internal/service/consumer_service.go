// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"doc-qa-be/internal/constant"
	"doc-qa-be/internal/dto"
	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/repository/specification"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/embedding"
	"doc-qa-be/pkg/events"
	pktNats "doc-qa-be/pkg/nats"
	"doc-qa-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService is the ingest worker: it splits uploaded document text,
// embeds every chunk, and flips the document READY in one transaction.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestDocumentMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing ingestion for DocumentId: %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if document == nil {
		log.Printf("[ERROR] Document not found: %s", payload.DocumentId)
		msg.Ack() // Document deleted? Ack.
		return
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, constant.DocumentStatusProcessing, ""); err != nil {
		log.Printf("[ERROR] Failed to mark document %s as PROCESSING: %v", document.Id, err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Generating embeddings for document %s (text length: %d)", document.Id, len(payload.Text))

	chunks := utils.SplitText(payload.Text, constant.ChunkSize, constant.ChunkOverlap)
	log.Printf("[INFO] Text split into %d chunks", len(chunks))

	if len(chunks) == 0 {
		// Nothing to embed; a READY document with zero chunks would never
		// surface in retrieval, so fail it visibly instead.
		cs.markFailed(ctx, document, "document text produced no chunks")
		msg.Ack()
		return
	}

	now := time.Now()
	newChunks := make([]*entity.DocumentChunk, 0, len(chunks))

	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("[ERROR] Failed to generate embedding for chunk %d of document %s: %v", i, document.Id, err)
			// Mark the document FAILED so the owner sees it, rather than
			// Nacking into an endless redelivery loop.
			cs.markFailed(ctx, document, fmt.Sprintf("embedding chunk %d failed: %v", i, err))
			msg.Ack()
			return
		}

		newChunks = append(newChunks, &entity.DocumentChunk{
			Id:             uuid.New(),
			DocumentId:     document.Id,
			SequenceIndex:  i,
			Text:           chunk,
			EmbeddingValue: res.Embedding.Values,
			CreatedAt:      now,
		})
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	// Re-ingestion replaces the chunk set wholesale.
	log.Printf("[INFO] Deleting old chunks for document %s", document.Id)
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old chunks: %v", err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Creating %d new chunks for document %s", len(newChunks), document.Id)
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, newChunks); err != nil {
		log.Printf("[ERROR] Failed to create bulk chunks: %v", err)
		msg.Nack()
		return
	}

	// READY flips in the same transaction as the chunk insert, so retrieval
	// never sees a ready document with a partial chunk set.
	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, constant.DocumentStatusReady, ""); err != nil {
		log.Printf("[ERROR] Failed to mark document %s as READY: %v", document.Id, err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	cs.publishReady(ctx, document, len(newChunks))

	log.Printf("[SUCCESS] Document processed: %d chunks for DocumentId: %s", len(newChunks), document.Id)
	msg.Ack()
}

// markFailed records the failure on the document so list and detail calls
// can report it. Runs outside any transaction; by this point there is
// nothing left to roll back.
func (cs *consumerService) markFailed(ctx context.Context, document *entity.Document, reason string) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, constant.DocumentStatusFailed, reason); err != nil {
		log.Printf("[ERROR] Failed to mark document %s as FAILED: %v", document.Id, err)
	}

	if cs.eventPublisher != nil {
		evt := events.NewDocumentFailed(document.Id, document.UserId, reason)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish document.failed event: %v", err)
		}
	}
}

func (cs *consumerService) publishReady(ctx context.Context, document *entity.Document, chunkCount int) {
	if cs.eventPublisher == nil {
		return
	}
	evt := events.NewDocumentReady(document.Id, document.UserId, chunkCount)
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[WARN] Failed to publish document.ready event: %v", err)
	}
}
