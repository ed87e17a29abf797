package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Retrieval RetrievalConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	IngestLogFilePath  string
	PipelineLogPath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	HuggingFace  string
	Jina         string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama", "gemini" or "huggingface"
	LLMModel          string // e.g. "llama3", "gemini-1.5-flash"
	EmbedCacheTTLMin  int    // query-embedding cache TTL, minutes
}

// RetrievalConfig carries the hybrid search tunables. Zero MaxPerDoc means
// the ceil(topK/2)+1 default; zero CandidatePool disables the pgvector
// prefilter and snapshots every ready chunk.
type RetrievalConfig struct {
	Alpha              float64
	TopK               int
	MaxPerDoc          int
	CandidatePool      int
	HistoryWindow      int
	EmbedTimeoutSec    int
	CompleteTimeoutSec int
}

type RateLimitConfig struct {
	ChatLimit     int // requests per window, 0 disables
	ChatWindowSec int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			IngestLogFilePath:  getEnv("INGEST_LOG_FILE_PATH", "logs/ingest.log"),
			PipelineLogPath:    getEnv("PIPELINE_LOG_PATH", "logs/pipeline.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			EmbedCacheTTLMin:  getEnvAsInt("EMBED_CACHE_TTL_MINUTES", 60),
		},
		Retrieval: RetrievalConfig{
			Alpha:              getEnvAsFloat("RETRIEVAL_ALPHA", 0.7),
			TopK:               getEnvAsInt("RETRIEVAL_TOP_K", 5),
			MaxPerDoc:          getEnvAsInt("RETRIEVAL_MAX_PER_DOC", 0),
			CandidatePool:      getEnvAsInt("RETRIEVAL_CANDIDATE_POOL", 0),
			HistoryWindow:      getEnvAsInt("CHAT_HISTORY_WINDOW", 4),
			EmbedTimeoutSec:    getEnvAsInt("EMBED_TIMEOUT_SECONDS", 30),
			CompleteTimeoutSec: getEnvAsInt("COMPLETE_TIMEOUT_SECONDS", 120),
		},
		RateLimit: RateLimitConfig{
			ChatLimit:     getEnvAsInt("CHAT_RATE_LIMIT", 0),
			ChatWindowSec: getEnvAsInt("CHAT_RATE_WINDOW_SECONDS", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
