package search

import (
	"context"
	"fmt"
	"sort"

	"workspace-ai/internal/storage"
	"workspace-ai/internal/vectorstore"
)

// ParentMatch is one gated parent with its summary-level score.
type ParentMatch struct {
	ParentID string
	Score    float32
}

// ParentMatcher is the parent-gating strategy: return the top-k parents for
// a workspace whose summary embedding scores at least minScore against the
// query vector. minScore == 0 means no threshold.
type ParentMatcher interface {
	TopParents(ctx context.Context, workspaceID string, query []float32, k int, minScore float32) ([]ParentMatch, error)
}

// RemoteMatcher gates parents through the server-side similarity index.
type RemoteMatcher struct {
	index      vectorstore.VectorIndex
	collection string
}

// NewRemoteMatcher creates a matcher over the given vector index.
func NewRemoteMatcher(index vectorstore.VectorIndex, collection string) *RemoteMatcher {
	return &RemoteMatcher{index: index, collection: collection}
}

// TopParents queries the remote index.
func (m *RemoteMatcher) TopParents(ctx context.Context, workspaceID string, query []float32, k int, minScore float32) ([]ParentMatch, error) {
	matches, err := m.index.Query(ctx, m.collection, query, k, minScore, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("remote parent matching failed: %w", err)
	}

	result := make([]ParentMatch, 0, len(matches))
	for _, match := range matches {
		result = append(result, ParentMatch{ParentID: match.PointID, Score: match.Score})
	}
	return result, nil
}

// LocalMatcher gates parents by loading every workspace parent and scoring
// in-process. Slower than the remote path but functionally equivalent; it is
// the correctness safety net when no similarity index is deployed or the
// remote call fails.
type LocalMatcher struct {
	parents storage.ParentStore
}

// NewLocalMatcher creates a matcher over the parent store.
func NewLocalMatcher(parents storage.ParentStore) *LocalMatcher {
	return &LocalMatcher{parents: parents}
}

// TopParents scores all workspace parents against the query vector.
func (m *LocalMatcher) TopParents(ctx context.Context, workspaceID string, query []float32, k int, minScore float32) ([]ParentMatch, error) {
	parents, err := m.parents.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("local parent matching failed: %w", err)
	}

	matches := make([]ParentMatch, 0, len(parents))
	for _, parent := range parents {
		if len(parent.SummaryEmbedding) == 0 {
			// Not yet fully indexed.
			continue
		}
		score := cosineSimilarity(query, parent.SummaryEmbedding)
		if minScore > 0 && score < minScore {
			continue
		}
		matches = append(matches, ParentMatch{ParentID: parent.ID, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ParentID < matches[j].ParentID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
