package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"workspace-ai/internal/contextutil"
	"workspace-ai/internal/fetcher"
	"workspace-ai/internal/storage"
	"workspace-ai/internal/vectorstore"
)

// ContentFetcher resolves a resource to its plain-text content.
type ContentFetcher interface {
	Fetch(ctx context.Context, resourceType storage.ResourceType, id string) (*fetcher.Content, error)
}

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Indexer transforms one indexing job into a persisted parent plus chunk
// set, with idempotent skip-if-unchanged behavior.
type Indexer struct {
	fetcher          ContentFetcher
	parentRepo       storage.ParentStore
	chunkRepo        storage.ChunkStore
	embedder         Embedder
	summarizer       Summarizer
	vectorIndex      vectorstore.VectorIndex // nil when no remote index is configured
	collection       string
	chunker          *Chunker
	embedConcurrency int
	logger           *slog.Logger
}

// Options tunes the indexing pipeline.
type Options struct {
	ChunkSize        int
	ChunkOverlap     int
	EmbedConcurrency int
}

// New creates a new Indexer. vectorIndex may be nil; the parent summary
// mirror is then skipped and search relies on the in-process matcher.
func New(
	contentFetcher ContentFetcher,
	parentRepo storage.ParentStore,
	chunkRepo storage.ChunkStore,
	embedder Embedder,
	summarizer Summarizer,
	vectorIndex vectorstore.VectorIndex,
	collection string,
	opts Options,
) *Indexer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 700
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = 100
	}
	if opts.EmbedConcurrency <= 0 {
		opts.EmbedConcurrency = 5
	}
	return &Indexer{
		fetcher:          contentFetcher,
		parentRepo:       parentRepo,
		chunkRepo:        chunkRepo,
		embedder:         embedder,
		summarizer:       summarizer,
		vectorIndex:      vectorIndex,
		collection:       collection,
		chunker:          NewChunker(opts.ChunkSize, opts.ChunkOverlap),
		embedConcurrency: opts.EmbedConcurrency,
		logger:           slog.Default(),
	}
}

// Process indexes the resource named by the job.
//
// Missing or empty content is a benign no-op, not a failure. Unchanged
// content (same hash as the stored parent) only bumps last_indexed_at. The
// parent's content hash is committed together with its summary and embedding
// only after the chunk set is persisted, so a crash mid-chunking cannot make
// a later run wrongly skip re-chunking.
func (ix *Indexer) Process(ctx context.Context, job *storage.IndexingJob) error {
	logger := contextutil.LoggerFromContext(ctx)

	content, err := ix.fetcher.Fetch(ctx, job.ResourceType, job.ResourceID)
	if err != nil {
		return fmt.Errorf("failed to fetch content: %w", err)
	}
	if content == nil || strings.TrimSpace(content.Text) == "" {
		logger.InfoContext(ctx, "no content to index",
			"resource_type", job.ResourceType, "resource_id", job.ResourceID)
		return nil
	}

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(content.Text)))

	existing, err := ix.parentRepo.GetBySource(ctx, job.ResourceType, job.ResourceID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to check existing parent: %w", err)
	}

	// Change-detection short circuit: embedding calls are the expensive
	// resource and must never be repeated for unchanged content.
	if existing != nil && existing.ContentHash == hash {
		logger.DebugContext(ctx, "content unchanged, skipping re-index",
			"resource_type", job.ResourceType, "resource_id", job.ResourceID, "hash", hash)
		if err := ix.parentRepo.TouchLastIndexed(ctx, existing.ID); err != nil {
			return fmt.Errorf("failed to touch parent: %w", err)
		}
		return nil
	}

	summary := ix.summarize(ctx, content.Text)

	summaryEmbedding, err := ix.embedder.EmbedText(ctx, summary)
	if err != nil {
		return fmt.Errorf("failed to embed summary: %w", err)
	}

	parent := &storage.Parent{
		WorkspaceID: job.WorkspaceID,
		ProjectID:   content.ProjectID,
		TabID:       content.TabID,
		SourceType:  job.ResourceType,
		SourceID:    job.ResourceID,
	}
	if existing != nil {
		parent.ID = existing.ID
	}
	if err := ix.parentRepo.Upsert(ctx, parent); err != nil {
		return fmt.Errorf("failed to upsert parent: %w", err)
	}

	chunkTexts := ix.chunker.Chunk(content.Text)
	chunks, err := ix.embedChunks(ctx, parent.ID, chunkTexts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	if err := ix.chunkRepo.ReplaceForParent(ctx, parent.ID, chunks); err != nil {
		return fmt.Errorf("failed to replace chunks: %w", err)
	}

	if ix.vectorIndex != nil {
		point := vectorstore.Point{
			ID:  parent.ID,
			Vec: summaryEmbedding,
			Meta: map[string]any{
				"workspace_id": job.WorkspaceID,
				"source_type":  string(job.ResourceType),
				"source_id":    job.ResourceID,
			},
		}
		if err := ix.vectorIndex.Upsert(ctx, ix.collection, []vectorstore.Point{point}); err != nil {
			return fmt.Errorf("failed to mirror parent embedding: %w", err)
		}
	}

	if err := ix.parentRepo.CommitIndex(ctx, parent.ID, summary, summaryEmbedding, hash); err != nil {
		return fmt.Errorf("failed to commit parent index state: %w", err)
	}

	logger.InfoContext(ctx, "indexed resource",
		"resource_type", job.ResourceType, "resource_id", job.ResourceID,
		"chunks", len(chunks), "hash", hash)
	return nil
}

// summarize returns a language-model summary, substituting a deterministic
// prefix of the raw content when the model fails or returns an unusable
// reply. The parent always ends up with some usable summary text.
func (ix *Indexer) summarize(ctx context.Context, content string) string {
	logger := contextutil.LoggerFromContext(ctx)

	summary, err := ix.summarizer.Summarize(ctx, content)
	if err != nil || unusableSummary(summary) {
		if err != nil {
			logger.WarnContext(ctx, "summary generation failed, using fallback", "error", err)
		} else {
			logger.WarnContext(ctx, "summary unusable, using fallback", "summary", summary)
		}
		return fallbackSummary(content)
	}
	return strings.TrimSpace(summary)
}

func unusableSummary(summary string) bool {
	trimmed := strings.TrimSpace(summary)
	if trimmed == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(trimmed), "error")
}

func fallbackSummary(content string) string {
	trimmed := strings.TrimSpace(content)
	runes := []rune(trimmed)
	if len(runes) > fallbackSummaryRunes {
		return string(runes[:fallbackSummaryRunes])
	}
	return trimmed
}

// embedChunks embeds chunk texts with a bounded concurrency window to
// balance throughput against embedding-provider rate limits.
func (ix *Indexer) embedChunks(ctx context.Context, parentID string, texts []string) ([]storage.Chunk, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	chunks := make([]storage.Chunk, len(texts))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(ix.embedConcurrency)

	for i, text := range texts {
		group.Go(func() error {
			embedding, err := ix.embedder.EmbedText(groupCtx, text)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			chunks[i] = storage.Chunk{
				ID:         uuid.New().String(),
				ParentID:   parentID,
				ChunkIndex: i,
				Content:    text,
				Embedding:  embedding,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}
