package search

import "workspace-ai/internal/storage"

// ScoredChunk is one chunk selected as supporting evidence for a result.
type ScoredChunk struct {
	ChunkID    string  `json:"chunk_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
}

// Result is one gated parent with its top-matching chunks. Transient,
// produced only at query time.
type Result struct {
	ParentID   string               `json:"parent_id"`
	SourceType storage.ResourceType `json:"source_type"`
	SourceID   string               `json:"source_id"`
	Summary    string               `json:"summary"`
	Score      float32              `json:"score"`
	Chunks     []ScoredChunk        `json:"chunks"`
}

// Source is a citation entry returned alongside an answer.
type Source struct {
	ParentID   string               `json:"parent_id"`
	SourceType storage.ResourceType `json:"source_type"`
	SourceID   string               `json:"source_id"`
	Title      string               `json:"title"`
	Score      float32              `json:"score"`
}

// Answer is the response from answer synthesis: the cleaned answer text plus
// the sources the model claims to have used.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}
