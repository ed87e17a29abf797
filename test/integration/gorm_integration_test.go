package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"doc-qa-be/internal/constant"
	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.ChatSessionRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Check Document Chunk Repository", func(t *testing.T) {
		// Count implies the table and the vector column exist
		count, err := uow.DocumentChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentChunk count: %d", count)
	})

	// Mock Data: a READY document with one embedded chunk
	userId := uuid.New()
	documentId := uuid.New()
	document := &entity.Document{
		Id:     documentId,
		Title:  "Integration Test Document",
		Status: constant.DocumentStatusReady,
		UserId: userId,
	}

	embeddingValue := make([]float32, constant.EmbeddingDimensions)
	for i := range embeddingValue {
		embeddingValue[i] = float32(i%13) / 13.0
	}
	chunk := &entity.DocumentChunk{
		Id:             uuid.New(),
		DocumentId:     documentId,
		SequenceIndex:  0,
		Text:           "Vacation days accrue at 1.5 per month during the first year.",
		EmbeddingValue: embeddingValue,
	}

	// Setup DB Data
	err = uow.DocumentRepository().Create(context.Background(), document)
	assert.NoError(t, err)
	err = uow.DocumentChunkRepository().Create(context.Background(), chunk)
	assert.NoError(t, err)

	t.Run("Check Ready Chunk Snapshot", func(t *testing.T) {
		rows, err := uow.DocumentChunkRepository().ListReady(context.Background(), userId, nil)
		assert.NoError(t, err)
		assert.Len(t, rows, 1)
		if len(rows) > 0 {
			assert.Equal(t, "Integration Test Document", rows[0].DocumentTitle)
		}
	})

	t.Run("Check Vector Nearest Query", func(t *testing.T) {
		// Exercises the <=> ordering against the live vector column
		rows, err := uow.DocumentChunkRepository().ListReadyNearest(
			context.Background(), userId, embeddingValue, 5)
		assert.NoError(t, err)
		assert.Len(t, rows, 1)
		t.Logf("Nearest query returned %d chunks", len(rows))
	})

	t.Run("Check Transactional Chat Write", func(t *testing.T) {
		ctx := context.Background()
		err := uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		sessionId := uuid.New()
		session := &entity.ChatSession{
			Id:     sessionId,
			UserId: userId,
			Title:  "Integration test session",
		}
		err = uow.ChatSessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		messageId := uuid.New()
		message := &entity.ChatMessage{
			Id:            messageId,
			Content:       "Vacation accrues at 1.5 days per month [1].",
			Role:          constant.ChatMessageRoleAssistant,
			ChatSessionId: sessionId,
			Metadata:      map[string]interface{}{"agent_type": "reasoning"},
		}
		err = uow.ChatMessageRepository().Create(ctx, message)
		assert.NoError(t, err)

		citation := &entity.ChatCitation{
			Id:            uuid.New(),
			ChatMessageId: messageId,
			DocumentId:    documentId,
			DocumentTitle: "Integration Test Document",
			ChunkIndex:    0,
			Snippet:       "Vacation days accrue at 1.5 per month during the first year.",
		}
		err = uow.ChatCitationRepository().CreateBulk(ctx, []*entity.ChatCitation{citation})
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		t.Log("Successfully created Session, Message and Citation in Transaction")
	})
}
