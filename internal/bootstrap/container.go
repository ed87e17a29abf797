package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"doc-qa-be/internal/config"
	"doc-qa-be/internal/constant"
	"doc-qa-be/internal/controller"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/internal/pkg/serverutils"
	"doc-qa-be/internal/repository/memory"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/internal/service"
	"doc-qa-be/pkg/embedding"
	"doc-qa-be/pkg/embedding/jina"
	"doc-qa-be/pkg/llm/factory"
	"doc-qa-be/pkg/rag/executor"
	"doc-qa-be/pkg/rag/search"

	pktNats "doc-qa-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ingestLogger := logger.NewIsolatedLogger(cfg.App.IngestLogFilePath)
	pipelineLogger := initPipelineLogger(cfg.App.PipelineLogPath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	// Initialize Embedding Provider based on Config
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, "")
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// Follow-up questions repeat query text; cache those embeddings.
	embeddingProvider = embedding.NewCachedProvider(
		embeddingProvider,
		time.Duration(cfg.Ai.EmbedCacheTTLMin)*time.Minute,
	)

	// Initialize LLM Provider based on Config
	llmKey := cfg.Keys.GoogleGemini
	if cfg.Ai.LLMProvider == "huggingface" {
		llmKey = cfg.Keys.HuggingFace
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		llmKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Initialize In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository()

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 4. Query Pipeline
	chunkSource := service.NewRepositoryChunkSource(uowFactory, cfg.Retrieval.CandidatePool)
	pipelineExecutor := executor.NewPipelineExecutor(
		llmProvider,
		embeddingProvider,
		chunkSource,
		executor.Config{
			Search: search.Config{
				Alpha:     cfg.Retrieval.Alpha,
				TopK:      cfg.Retrieval.TopK,
				MaxPerDoc: cfg.Retrieval.MaxPerDoc,
			},
			HistoryWindow:   cfg.Retrieval.HistoryWindow,
			EmbedTimeout:    time.Duration(cfg.Retrieval.EmbedTimeoutSec) * time.Second,
			CompleteTimeout: time.Duration(cfg.Retrieval.CompleteTimeoutSec) * time.Second,
		},
		pipelineLogger,
	)

	// 5. Services
	publisherService := service.NewPublisherService(constant.IngestTopicName, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		constant.IngestTopicName,
		uowFactory,
		embeddingProvider, // Injected
		natsPub,
	)

	chatService := service.NewChatService(
		uowFactory,
		pipelineExecutor,
		cfg.Retrieval.HistoryWindow,
		sessionRepo,
		natsPub,
		sysLogger,
	)
	documentService := service.NewDocumentService(
		uowFactory,
		publisherService,
		pipelineExecutor,
		sysLogger,
	)

	// Extraction worker bridge (NATS -> ingest queue)
	extractionService := service.NewExtractionService(uowFactory, natsSub, publisherService, ingestLogger)
	if natsSub != nil {
		go extractionService.Start()
	}

	rateLimiter := serverutils.NewRateLimitMiddleware(
		rdb,
		cfg.RateLimit.ChatLimit,
		time.Duration(cfg.RateLimit.ChatWindowSec)*time.Second,
	)

	// 6. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		ChatController:     controller.NewChatController(chatService, rateLimiter),
		DocumentController: controller.NewDocumentController(documentService),

		ConsumerService: consumerService,
	}
}

// initPipelineLogger opens the dedicated pipeline trace log. The executor
// logs every stage transition; keeping that chatter out of the app log makes
// both readable.
func initPipelineLogger(logPath string) *log.Logger {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[PIPELINE] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
