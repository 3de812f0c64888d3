package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_parent_store.go -package=mocks workspace-ai/internal/storage ParentStore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ParentStore defines the interface for parent record operations.
type ParentStore interface {
	// GetBySource gets a parent by its (source_type, source_id) identity.
	// Returns ErrNotFound if not found.
	GetBySource(ctx context.Context, sourceType ResourceType, sourceID string) (*Parent, error)
	// Upsert inserts a parent row for a new source or refreshes the scoping
	// fields of an existing one, preserving its ID. The parent's ID field is
	// populated on return. Summary, embedding and content hash are not
	// written here; see CommitIndex.
	Upsert(ctx context.Context, parent *Parent) error
	// CommitIndex writes summary, summary embedding and content hash in one
	// statement and bumps last_indexed_at. Called only after the parent's
	// chunks have been persisted, so a crash mid-chunking never leaves a
	// fresh hash over stale chunks.
	CommitIndex(ctx context.Context, id string, summary string, embedding []float32, contentHash string) error
	// TouchLastIndexed bumps last_indexed_at without changing anything else.
	// Used for the unchanged-content short circuit.
	TouchLastIndexed(ctx context.Context, id string) error
	// ListByWorkspace returns all parents for a workspace, embeddings included.
	ListByWorkspace(ctx context.Context, workspaceID string) ([]Parent, error)
	// GetByIDs returns the parents with the given IDs, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]Parent, error)
}

// ParentRepo provides methods for parent operations.
// It implements the ParentStore interface.
type ParentRepo struct {
	db *sql.DB
}

// NewParentRepo creates a new ParentRepo.
func NewParentRepo(db *sql.DB) *ParentRepo {
	return &ParentRepo{db: db}
}

const parentColumns = `id, workspace_id, COALESCE(project_id, ''), COALESCE(tab_id, ''), source_type, source_id, summary, summary_embedding, content_hash, last_indexed_at`

// GetBySource gets a parent by its (source_type, source_id) identity.
func (r *ParentRepo) GetBySource(ctx context.Context, sourceType ResourceType, sourceID string) (*Parent, error) {
	return scanParent(r.db.QueryRowContext(ctx,
		`SELECT `+parentColumns+` FROM parents WHERE source_type = ? AND source_id = ?`,
		sourceType, sourceID,
	))
}

// Upsert inserts or refreshes a parent row keyed on (source_type, source_id).
func (r *ParentRepo) Upsert(ctx context.Context, parent *Parent) error {
	existing, err := r.GetBySource(ctx, parent.SourceType, parent.SourceID)
	if err != nil && err != ErrNotFound {
		return fmt.Errorf("failed to check existing parent: %w", err)
	}

	if existing != nil {
		parent.ID = existing.ID
	} else if parent.ID == "" {
		parent.ID = uuid.New().String()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO parents (id, workspace_id, project_id, tab_id, source_type, source_id)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source_type, source_id) DO UPDATE SET
		 workspace_id = excluded.workspace_id, project_id = excluded.project_id, tab_id = excluded.tab_id`,
		parent.ID, parent.WorkspaceID, nullIfEmpty(parent.ProjectID), nullIfEmpty(parent.TabID),
		parent.SourceType, parent.SourceID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert parent: %w", err)
	}
	return nil
}

// CommitIndex writes summary, embedding and content hash together.
func (r *ParentRepo) CommitIndex(ctx context.Context, id string, summary string, embedding []float32, contentHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE parents
		 SET summary = ?, summary_embedding = ?, content_hash = ?, last_indexed_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		summary, EncodeVector(embedding), contentHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to commit parent index state: %w", err)
	}
	return requireRow(res)
}

// TouchLastIndexed bumps last_indexed_at only.
func (r *ParentRepo) TouchLastIndexed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE parents SET last_indexed_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch parent: %w", err)
	}
	return requireRow(res)
}

// ListByWorkspace returns all parents for a workspace, embeddings included.
// Used by the in-process parent matcher when no remote similarity index is
// reachable.
func (r *ParentRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]Parent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+parentColumns+` FROM parents WHERE workspace_id = ?`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query parents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return collectParents(rows)
}

// GetByIDs returns the parents with the given IDs.
func (r *ParentRepo) GetByIDs(ctx context.Context, ids []string) ([]Parent, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+parentColumns+` FROM parents WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query parents by IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return collectParents(rows)
}

func collectParents(rows *sql.Rows) ([]Parent, error) {
	var parents []Parent
	for rows.Next() {
		parent, err := scanParent(rows)
		if err != nil {
			return nil, err
		}
		parents = append(parents, *parent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return parents, nil
}

func scanParent(row rowScanner) (*Parent, error) {
	var parent Parent
	var embedding []byte
	var lastIndexedAt string

	err := row.Scan(&parent.ID, &parent.WorkspaceID, &parent.ProjectID, &parent.TabID,
		&parent.SourceType, &parent.SourceID, &parent.Summary, &embedding,
		&parent.ContentHash, &lastIndexedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan parent: %w", err)
	}

	if parent.SummaryEmbedding, err = DecodeVector(embedding); err != nil {
		return nil, fmt.Errorf("failed to decode summary embedding: %w", err)
	}
	if parent.LastIndexedAt, err = parseSQLiteTime(lastIndexedAt); err != nil {
		return nil, fmt.Errorf("failed to parse last_indexed_at: %w", err)
	}
	return &parent, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
