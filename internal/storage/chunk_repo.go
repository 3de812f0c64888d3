package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks workspace-ai/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// ReplaceForParent atomically deletes all chunks for the parent and
	// inserts the given set. Chunk IDs must be set before calling.
	ReplaceForParent(ctx context.Context, parentID string, chunks []Chunk) error
	// ListByParents returns all chunks belonging to the given parents in one
	// batch, embeddings included.
	ListByParents(ctx context.Context, parentIDs []string) ([]Chunk, error)
	// CountByParent returns the number of chunks stored for a parent.
	CountByParent(ctx context.Context, parentID string) (int, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceForParent deletes the parent's chunks and bulk-inserts the new set
// in a single transaction. Re-indexing always does a full replacement, never
// an incremental diff.
func (r *ChunkRepo) ReplaceForParent(ctx context.Context, parentID string, chunks []Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE parent_id = ?", parentID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}

	for _, chunk := range chunks {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (id, parent_id, chunk_index, content, embedding) VALUES (?, ?, ?, ?, ?)",
			chunk.ID, parentID, chunk.ChunkIndex, chunk.Content, EncodeVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk replacement: %w", err)
	}
	return nil
}

// ListByParents returns all chunks for the given parents in one batch.
func (r *ChunkRepo) ListByParents(ctx context.Context, parentIDs []string) ([]Chunk, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(parentIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(parentIDs))
	for i, id := range parentIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, parent_id, chunk_index, content, embedding
		 FROM chunks WHERE parent_id IN (`+placeholders+`)
		 ORDER BY parent_id, chunk_index`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chunks []Chunk
	for rows.Next() {
		var chunk Chunk
		var embedding []byte
		if err := rows.Scan(&chunk.ID, &chunk.ParentID, &chunk.ChunkIndex, &chunk.Content, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if chunk.Embedding, err = DecodeVector(embedding); err != nil {
			return nil, fmt.Errorf("failed to decode chunk embedding: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return chunks, nil
}

// CountByParent returns the number of chunks stored for a parent.
func (r *ChunkRepo) CountByParent(ctx context.Context, parentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE parent_id = ?", parentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}
