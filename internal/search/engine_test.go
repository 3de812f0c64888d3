package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/mock/gomock"

	"workspace-ai/internal/llm"
	"workspace-ai/internal/storage"
	storage_mocks "workspace-ai/internal/storage/mocks"
)

type fakeQueryEmbedder struct {
	vec []float32
	err error
}

func (f *fakeQueryEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]float32(nil), f.vec...), nil
}

// fakeMatcher records the minScore of every call so relaxation behavior is
// observable.
type fakeMatcher struct {
	matches   []ParentMatch
	err       error
	minScores []float32
}

func (f *fakeMatcher) TopParents(ctx context.Context, workspaceID string, query []float32, k int, minScore float32) ([]ParentMatch, error) {
	f.minScores = append(f.minScores, minScore)
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

type fakeTitles struct {
	titles map[string]string
}

func (f *fakeTitles) Title(ctx context.Context, resourceType storage.ResourceType, id string) (string, error) {
	return f.titles[id], nil
}

type fakeAnswerClient struct {
	reply    string
	err      error
	calls    int
	messages []llm.Message
}

func (f *fakeAnswerClient) ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error) {
	f.calls++
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestEngine_SearchWorkspace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	parentRepo := storage_mocks.NewMockParentStore(ctrl)
	chunkRepo := storage_mocks.NewMockChunkStore(ctrl)

	matcher := &fakeMatcher{matches: []ParentMatch{
		{ParentID: "parent-low", Score: 0.3},
		{ParentID: "parent-high", Score: 0.8},
	}}

	parentRepo.EXPECT().GetByIDs(gomock.Any(), []string{"parent-low", "parent-high"}).Return([]storage.Parent{
		{ID: "parent-low", SourceType: storage.ResourceDoc, SourceID: "doc-1", Summary: "low summary"},
		{ID: "parent-high", SourceType: storage.ResourceFile, SourceID: "file-1", Summary: "high summary"},
	}, nil)
	chunkRepo.EXPECT().ListByParents(gomock.Any(), []string{"parent-low", "parent-high"}).Return([]storage.Chunk{
		{ID: "c-1", ParentID: "parent-low", ChunkIndex: 0, Content: "low text", Embedding: []float32{1, 0}},
		{ID: "c-2", ParentID: "parent-high", ChunkIndex: 0, Content: "high text", Embedding: []float32{1, 0}},
	}, nil)

	engine := NewEngine(&fakeQueryEmbedder{vec: []float32{1, 0}}, nil, matcher, parentRepo, chunkRepo, &fakeTitles{}, &fakeAnswerClient{})

	results, err := engine.SearchWorkspace(context.Background(), "ws-1", "query")
	if err != nil {
		t.Fatalf("SearchWorkspace() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("SearchWorkspace() returned %d results, want 2", len(results))
	}
	// Results are ordered by parent score descending.
	if results[0].ParentID != "parent-high" {
		t.Errorf("SearchWorkspace()[0] = %s, want parent-high", results[0].ParentID)
	}
	if results[0].Summary != "high summary" {
		t.Errorf("SearchWorkspace()[0] summary = %q", results[0].Summary)
	}
	if len(results[0].Chunks) != 1 || results[0].Chunks[0].Content != "high text" {
		t.Errorf("SearchWorkspace()[0] chunks = %+v", results[0].Chunks)
	}
}

func TestEngine_SearchWorkspace_NothingGated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	matcher := &fakeMatcher{}
	engine := NewEngine(&fakeQueryEmbedder{vec: []float32{1, 0}}, nil, matcher,
		storage_mocks.NewMockParentStore(ctrl), storage_mocks.NewMockChunkStore(ctrl), &fakeTitles{}, &fakeAnswerClient{})

	results, err := engine.SearchWorkspace(context.Background(), "ws-1", "query")
	if err != nil {
		t.Fatalf("SearchWorkspace() error = %v", err)
	}
	if results != nil {
		t.Errorf("SearchWorkspace() = %v, want nil when nothing gated", results)
	}

	// The threshold-relaxation retry: first at the configured minimum, then
	// unthresholded.
	if len(matcher.minScores) != 2 {
		t.Fatalf("matcher called %d times, want 2 (threshold then relaxed)", len(matcher.minScores))
	}
	if matcher.minScores[0] != parentMinScore {
		t.Errorf("first gate minScore = %v, want %v", matcher.minScores[0], parentMinScore)
	}
	if matcher.minScores[1] != 0 {
		t.Errorf("relaxed gate minScore = %v, want 0", matcher.minScores[1])
	}
}

func TestEngine_SearchWorkspace_PrimaryFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	parentRepo := storage_mocks.NewMockParentStore(ctrl)
	chunkRepo := storage_mocks.NewMockChunkStore(ctrl)

	primary := &fakeMatcher{err: errors.New("qdrant unreachable")}
	fallback := &fakeMatcher{matches: []ParentMatch{{ParentID: "parent-1", Score: 0.7}}}

	parentRepo.EXPECT().GetByIDs(gomock.Any(), []string{"parent-1"}).Return([]storage.Parent{
		{ID: "parent-1", SourceType: storage.ResourceFile, SourceID: "file-1"},
	}, nil)
	chunkRepo.EXPECT().ListByParents(gomock.Any(), []string{"parent-1"}).Return([]storage.Chunk{
		{ID: "c-1", ParentID: "parent-1", ChunkIndex: 0, Content: "text", Embedding: []float32{1, 0}},
	}, nil)

	engine := NewEngine(&fakeQueryEmbedder{vec: []float32{1, 0}}, primary, fallback, parentRepo, chunkRepo, &fakeTitles{}, &fakeAnswerClient{})

	results, err := engine.SearchWorkspace(context.Background(), "ws-1", "query")
	if err != nil {
		t.Fatalf("SearchWorkspace() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("SearchWorkspace() returned %d results, want 1 via fallback", len(results))
	}
	if len(primary.minScores) == 0 {
		t.Error("primary matcher was never tried")
	}
	if len(fallback.minScores) == 0 {
		t.Error("fallback matcher was never used")
	}
}

func TestEngine_SearchWorkspace_BothMatchersFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := &fakeMatcher{err: errors.New("qdrant unreachable")}
	fallback := &fakeMatcher{err: errors.New("db closed")}

	engine := NewEngine(&fakeQueryEmbedder{vec: []float32{1, 0}}, primary, fallback,
		storage_mocks.NewMockParentStore(ctrl), storage_mocks.NewMockChunkStore(ctrl), &fakeTitles{}, &fakeAnswerClient{})

	if _, err := engine.SearchWorkspace(context.Background(), "ws-1", "query"); err == nil {
		t.Error("SearchWorkspace() expected error when both matchers fail, got nil")
	}
}

func TestEngine_SearchWorkspace_DropsParentsWithoutChunks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	parentRepo := storage_mocks.NewMockParentStore(ctrl)
	chunkRepo := storage_mocks.NewMockChunkStore(ctrl)

	matcher := &fakeMatcher{matches: []ParentMatch{
		{ParentID: "parent-1", Score: 0.8},
		{ParentID: "parent-empty", Score: 0.7},
	}}

	parentRepo.EXPECT().GetByIDs(gomock.Any(), gomock.Any()).Return([]storage.Parent{
		{ID: "parent-1", SourceType: storage.ResourceFile, SourceID: "file-1"},
		{ID: "parent-empty", SourceType: storage.ResourceDoc, SourceID: "doc-1"},
	}, nil)
	// parent-empty has no chunks stored at all.
	chunkRepo.EXPECT().ListByParents(gomock.Any(), gomock.Any()).Return([]storage.Chunk{
		{ID: "c-1", ParentID: "parent-1", ChunkIndex: 0, Content: "text", Embedding: []float32{1, 0}},
	}, nil)

	engine := NewEngine(&fakeQueryEmbedder{vec: []float32{1, 0}}, nil, matcher, parentRepo, chunkRepo, &fakeTitles{}, &fakeAnswerClient{})

	results, err := engine.SearchWorkspace(context.Background(), "ws-1", "query")
	if err != nil {
		t.Fatalf("SearchWorkspace() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("SearchWorkspace() returned %d results, want 1 (chunkless parent dropped)", len(results))
	}
	if results[0].ParentID != "parent-1" {
		t.Errorf("SearchWorkspace()[0] = %s, want parent-1", results[0].ParentID)
	}
}

func TestEngine_SearchWorkspace_EmbedError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := NewEngine(&fakeQueryEmbedder{err: errors.New("rate limited")}, nil, &fakeMatcher{},
		storage_mocks.NewMockParentStore(ctrl), storage_mocks.NewMockChunkStore(ctrl), &fakeTitles{}, &fakeAnswerClient{})

	if _, err := engine.SearchWorkspace(context.Background(), "ws-1", "query"); err == nil {
		t.Error("SearchWorkspace() expected error when query embedding fails, got nil")
	}
}

func TestRerankChunks_ThresholdAndCap(t *testing.T) {
	query := []float32{1, 0}

	// Eight chunks clearing the threshold; only maxChunksPerParent survive.
	var chunks []storage.Chunk
	for i := 0; i < 8; i++ {
		chunks = append(chunks, storage.Chunk{
			ID:         fmt.Sprintf("c-%d", i),
			ParentID:   "parent-1",
			ChunkIndex: i,
			Embedding:  []float32{1, 0},
		})
	}

	selected := rerankChunks(query, chunks)
	if len(selected["parent-1"]) != maxChunksPerParent {
		t.Errorf("rerankChunks() kept %d chunks, want cap %d", len(selected["parent-1"]), maxChunksPerParent)
	}
}

func TestRerankChunks_BelowThresholdFallback(t *testing.T) {
	query := []float32{1, 0}

	// All chunks orthogonal to the query: nothing clears the threshold, so
	// the top fallbackChunksPerHit by raw score are kept.
	var chunks []storage.Chunk
	for i := 0; i < 5; i++ {
		chunks = append(chunks, storage.Chunk{
			ID:         fmt.Sprintf("c-%d", i),
			ParentID:   "parent-1",
			ChunkIndex: i,
			Embedding:  []float32{0, 1},
		})
	}

	selected := rerankChunks(query, chunks)
	if len(selected["parent-1"]) != fallbackChunksPerHit {
		t.Errorf("rerankChunks() kept %d chunks, want fallback %d", len(selected["parent-1"]), fallbackChunksPerHit)
	}
}

func TestRerankChunks_OrdersByScore(t *testing.T) {
	query := []float32{1, 0}

	chunks := []storage.Chunk{
		{ID: "weak", ParentID: "parent-1", ChunkIndex: 0, Embedding: Normalize([]float32{1, 2})},
		{ID: "strong", ParentID: "parent-1", ChunkIndex: 1, Embedding: []float32{1, 0}},
	}

	selected := rerankChunks(query, chunks)
	kept := selected["parent-1"]
	if len(kept) == 0 {
		t.Fatal("rerankChunks() kept no chunks")
	}
	if kept[0].ChunkID != "strong" {
		t.Errorf("rerankChunks()[0] = %s, want strong (best score first)", kept[0].ChunkID)
	}
}

func TestRerankChunks_GroupsByParent(t *testing.T) {
	query := []float32{1, 0}

	chunks := []storage.Chunk{
		{ID: "a-1", ParentID: "parent-a", ChunkIndex: 0, Embedding: []float32{1, 0}},
		{ID: "b-1", ParentID: "parent-b", ChunkIndex: 0, Embedding: []float32{1, 0}},
	}

	selected := rerankChunks(query, chunks)
	if len(selected) != 2 {
		t.Fatalf("rerankChunks() grouped %d parents, want 2", len(selected))
	}
	if selected["parent-a"][0].ChunkID != "a-1" || selected["parent-b"][0].ChunkID != "b-1" {
		t.Errorf("rerankChunks() mixed chunks across parents: %+v", selected)
	}
}
