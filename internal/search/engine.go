package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"workspace-ai/internal/contextutil"
	"workspace-ai/internal/storage"
)

// Retrieval tuning. Thresholds are cosine similarities in [-1, 1].
const (
	defaultParentTopK    = 10
	parentMinScore       = float32(0.15)
	chunkMinScore        = float32(0.15)
	maxChunksPerParent   = 6
	fallbackChunksPerHit = 3
)

// QueryEmbedder turns a query into a vector.
type QueryEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Engine performs two-stage retrieval: parent gating, then chunk reranking
// within the gated parents.
type Engine struct {
	embedder   QueryEmbedder
	primary    ParentMatcher // nil when no remote index is configured
	fallback   ParentMatcher
	parentRepo storage.ParentStore
	chunkRepo  storage.ChunkStore
	titles     TitleResolver
	llmClient  AnswerClient
	parentTopK int
	logger     *slog.Logger
}

// NewEngine creates a search engine. primary may be nil, in which case all
// parent gating runs on the fallback matcher.
func NewEngine(
	embedder QueryEmbedder,
	primary ParentMatcher,
	fallback ParentMatcher,
	parentRepo storage.ParentStore,
	chunkRepo storage.ChunkStore,
	titles TitleResolver,
	llmClient AnswerClient,
) *Engine {
	return &Engine{
		embedder:   embedder,
		primary:    primary,
		fallback:   fallback,
		parentRepo: parentRepo,
		chunkRepo:  chunkRepo,
		titles:     titles,
		llmClient:  llmClient,
		parentTopK: defaultParentTopK,
		logger:     slog.Default(),
	}
}

// SearchWorkspace retrieves ranked, evidence-backed results for a query.
// An empty slice means nothing matched; errors are reserved for failures
// neither matcher could absorb.
func (e *Engine) SearchWorkspace(ctx context.Context, workspaceID, query string) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	queryVec, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryVec = Normalize(queryVec)

	matches, err := e.gateParents(ctx, workspaceID, queryVec)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		logger.InfoContext(ctx, "no parents gated in", "workspace_id", workspaceID)
		return nil, nil
	}

	parentIDs := make([]string, len(matches))
	scoreByParent := make(map[string]float32, len(matches))
	for i, match := range matches {
		parentIDs[i] = match.ParentID
		scoreByParent[match.ParentID] = match.Score
	}

	parents, err := e.parentRepo.GetByIDs(ctx, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load gated parents: %w", err)
	}

	chunks, err := e.chunkRepo.ListByParents(ctx, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks for gated parents: %w", err)
	}

	scoredByParent := rerankChunks(queryVec, chunks)

	results := make([]Result, 0, len(parents))
	for _, parent := range parents {
		selected := scoredByParent[parent.ID]
		if len(selected) == 0 {
			// Gated in but no supporting evidence at all; drop it.
			continue
		}
		results = append(results, Result{
			ParentID:   parent.ID,
			SourceType: parent.SourceType,
			SourceID:   parent.SourceID,
			Summary:    parent.Summary,
			Score:      scoreByParent[parent.ID],
			Chunks:     selected,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ParentID < results[j].ParentID
	})

	logger.InfoContext(ctx, "search completed",
		"workspace_id", workspaceID, "gated_parents", len(matches), "results", len(results))
	return results, nil
}

// gateParents runs the parent-gating stage with a threshold-relaxation
// retry: if nothing clears the minimum score, take the best k regardless.
func (e *Engine) gateParents(ctx context.Context, workspaceID string, queryVec []float32) ([]ParentMatch, error) {
	matches, err := e.match(ctx, workspaceID, queryVec, parentMinScore)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return e.match(ctx, workspaceID, queryVec, 0)
	}
	return matches, nil
}

// match tries the primary matcher and falls back to the local one when the
// primary is unconfigured or errors.
func (e *Engine) match(ctx context.Context, workspaceID string, queryVec []float32, minScore float32) ([]ParentMatch, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if e.primary != nil {
		matches, err := e.primary.TopParents(ctx, workspaceID, queryVec, e.parentTopK, minScore)
		if err == nil {
			return matches, nil
		}
		logger.WarnContext(ctx, "primary parent matcher failed, falling back", "error", err)
	}

	matches, err := e.fallback.TopParents(ctx, workspaceID, queryVec, e.parentTopK, minScore)
	if err != nil {
		return nil, fmt.Errorf("parent gating failed: %w", err)
	}
	return matches, nil
}

// rerankChunks scores every chunk against the query vector and selects, per
// parent, the chunks clearing the minimum score capped at maxChunksPerParent.
// When none clear the threshold the top fallbackChunksPerHit by raw score are
// kept instead, so a gated parent with any chunk at all always has evidence.
func rerankChunks(queryVec []float32, chunks []storage.Chunk) map[string][]ScoredChunk {
	grouped := make(map[string][]ScoredChunk)
	for _, chunk := range chunks {
		grouped[chunk.ParentID] = append(grouped[chunk.ParentID], ScoredChunk{
			ChunkID:    chunk.ID,
			ChunkIndex: chunk.ChunkIndex,
			Content:    chunk.Content,
			Score:      cosineSimilarity(queryVec, chunk.Embedding),
		})
	}

	selected := make(map[string][]ScoredChunk, len(grouped))
	for parentID, scored := range grouped {
		sort.Slice(scored, func(i, j int) bool {
			if scored[i].Score != scored[j].Score {
				return scored[i].Score > scored[j].Score
			}
			return scored[i].ChunkIndex < scored[j].ChunkIndex
		})

		var keep []ScoredChunk
		for _, chunk := range scored {
			if chunk.Score < chunkMinScore {
				break
			}
			keep = append(keep, chunk)
			if len(keep) == maxChunksPerParent {
				break
			}
		}
		if len(keep) == 0 {
			n := fallbackChunksPerHit
			if n > len(scored) {
				n = len(scored)
			}
			keep = scored[:n]
		}
		selected[parentID] = keep
	}
	return selected
}
