package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workspace-ai/internal/config"
	"workspace-ai/internal/fetcher"
	"workspace-ai/internal/http"
	"workspace-ai/internal/indexer"
	"workspace-ai/internal/llm"
	"workspace-ai/internal/queue"
	"workspace-ai/internal/search"
	"workspace-ai/internal/storage"
	"workspace-ai/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	jobRepo := storage.NewJobRepo(db, storage.DedupPolicy(cfg.QueueDedupPolicy))
	parentRepo := storage.NewParentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Qdrant is optional: without it, search gates parents with the
	// in-process matcher over stored embeddings.
	var vectorIndex vectorstore.VectorIndex
	if cfg.QdrantURL != "" {
		qdrantIndex, err := vectorstore.NewQdrantIndex(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		if err := qdrantIndex.EnsureCollection(ctx, cfg.QdrantCollection, cfg.VectorSize); err != nil {
			log.Fatalf("Failed to ensure Qdrant collection: %v", err)
		}
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.VectorSize)
		vectorIndex = qdrantIndex
	} else {
		slog.Info("No Qdrant URL configured, using local parent matching")
	}

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.VectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.VectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.VectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.VectorSize)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Create indexing pipeline
	registry := fetcher.NewRegistry(db)
	summarizer := indexer.NewLLMSummarizer(llmClient)
	pipeline := indexer.New(
		registry,
		parentRepo,
		chunkRepo,
		embedder,
		summarizer,
		vectorIndex,
		cfg.QdrantCollection,
		indexer.Options{
			ChunkSize:        cfg.ChunkSize,
			ChunkOverlap:     cfg.ChunkOverlap,
			EmbedConcurrency: cfg.EmbedConcurrency,
		},
	)

	// Start queue workers
	worker := queue.NewWorker(jobRepo, pipeline, cfg.WorkerCount, cfg.PollInterval, cfg.ReclaimAfter)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()
	slog.Info("Queue workers started", "count", cfg.WorkerCount, "poll_interval", cfg.PollInterval.String())

	// Create search engine
	var primary search.ParentMatcher
	if vectorIndex != nil {
		primary = search.NewRemoteMatcher(vectorIndex, cfg.QdrantCollection)
	}
	engine := search.NewEngine(
		embedder,
		primary,
		search.NewLocalMatcher(parentRepo),
		parentRepo,
		chunkRepo,
		registry,
		llmClient,
	)
	slog.Info("Search engine initialized")

	// Create router with dependencies
	deps := &http.Deps{
		JobStore: jobRepo,
		Engine:   engine,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	server := &nethttp.Server{Addr: addr, Handler: router}
	go func() {
		slog.Info("Starting API server", "addr", addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	<-workerDone
	slog.Info("Shutdown complete")
}
