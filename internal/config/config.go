package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DedupPolicy controls what Enqueue does when a job for the same resource
// already exists in a terminal state (completed or failed).
type DedupPolicy string

const (
	// DedupReuseTerminal silently drops the new request: a completed or
	// failed row blocks re-enqueue until cleared.
	DedupReuseTerminal DedupPolicy = "reuse-terminal"
	// DedupAlwaysFresh deletes the terminal row first so the new request
	// produces a fresh pending job.
	DedupAlwaysFresh DedupPolicy = "always-fresh"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	DBPath             string
	QdrantURL          string
	QdrantCollection   string
	VectorSize         int
	APIPort            string
	LogLevel           slog.Level
	LogFormat          string

	// Indexing pipeline tuning.
	ChunkSize        int
	ChunkOverlap     int
	EmbedConcurrency int
	WorkerCount      int
	PollInterval     time.Duration
	ReclaimAfter     time.Duration
	QueueDedupPolicy DedupPolicy
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up a few levels looking for a project-root .env.
	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		DBPath:             getEnv("DB_PATH", "./data/workspace-ai.db"),
		QdrantURL:          getEnv("QDRANT_URL", ""),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "workspace_parents"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	// VECTOR_SIZE must match the output dimension of the embeddings model.
	// If it changes, the Qdrant collection must be recreated and all content
	// re-indexed.
	vectorSizeStr := getEnv("VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("VECTOR_SIZE must be greater than 0")
	}
	cfg.VectorSize = vectorSize

	cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 700)
	if err != nil {
		return nil, err
	}
	cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 100)
	if err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	cfg.EmbedConcurrency, err = getEnvInt("EMBED_CONCURRENCY", 5)
	if err != nil {
		return nil, err
	}
	cfg.WorkerCount, err = getEnvInt("WORKER_COUNT", 2)
	if err != nil {
		return nil, err
	}

	cfg.PollInterval, err = getEnvDuration("POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.ReclaimAfter, err = getEnvDuration("QUEUE_RECLAIM_AFTER", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	switch policy := DedupPolicy(getEnv("QUEUE_DEDUP_POLICY", string(DedupReuseTerminal))); policy {
	case DedupReuseTerminal, DedupAlwaysFresh:
		cfg.QueueDedupPolicy = policy
	default:
		return nil, fmt.Errorf("QUEUE_DEDUP_POLICY must be %q or %q, got %q", DedupReuseTerminal, DedupAlwaysFresh, policy)
	}

	// Create the data directory if it doesn't exist (for the DB file).
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}
