package fetcher

import (
	"context"
	"database/sql"
	"fmt"
)

// fileSource reads text previously extracted from uploaded files.
// Format-specific extraction (PDF, spreadsheet, Word) happens upstream; by
// the time a file is fetchable here its plain text is already stored.
type fileSource struct {
	db *sql.DB
}

func (s *fileSource) Fetch(ctx context.Context, id string) (*Content, error) {
	var content Content
	var projectID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(extracted_text, ''), project_id FROM workspace_files WHERE id = ?", id,
	).Scan(&content.Text, &projectID)
	if scanMiss(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file %s: %w", id, err)
	}
	content.ProjectID = projectID.String
	return &content, nil
}

func (s *fileSource) Title(ctx context.Context, id string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM workspace_files WHERE id = ?", id,
	).Scan(&name)
	if scanMiss(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch file title %s: %w", id, err)
	}
	return name, nil
}

// blockSource reads free-text content blocks.
type blockSource struct {
	db *sql.DB
}

func (s *blockSource) Fetch(ctx context.Context, id string) (*Content, error) {
	var content Content
	var projectID, tabID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(text, ''), project_id, tab_id FROM workspace_blocks WHERE id = ?", id,
	).Scan(&content.Text, &projectID, &tabID)
	if scanMiss(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch block %s: %w", id, err)
	}
	content.ProjectID = projectID.String
	content.TabID = tabID.String
	return &content, nil
}

// Title synthesizes a label since blocks have no title of their own.
func (s *blockSource) Title(ctx context.Context, id string) (string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM workspace_blocks WHERE id = ?", id,
	).Scan(&exists)
	if scanMiss(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check block %s: %w", id, err)
	}
	label := id
	if len(label) > 8 {
		label = label[:8]
	}
	return fmt.Sprintf("Content block %s", label), nil
}

// docSource reads workspace documents. Title and body are indexed together
// so a query matching only the title still gates the document in.
type docSource struct {
	db *sql.DB
}

func (s *docSource) Fetch(ctx context.Context, id string) (*Content, error) {
	var title, body string
	var projectID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(title, ''), COALESCE(body, ''), project_id FROM workspace_docs WHERE id = ?", id,
	).Scan(&title, &body, &projectID)
	if scanMiss(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch doc %s: %w", id, err)
	}

	text := body
	if title != "" {
		text = title + "\n\n" + body
	}
	return &Content{Text: text, ProjectID: projectID.String}, nil
}

func (s *docSource) Title(ctx context.Context, id string) (string, error) {
	var title string
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(title, '') FROM workspace_docs WHERE id = ?", id,
	).Scan(&title)
	if scanMiss(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch doc title %s: %w", id, err)
	}
	return title, nil
}

// tableSource reads structured tables serialized to text upstream.
type tableSource struct {
	db *sql.DB
}

func (s *tableSource) Fetch(ctx context.Context, id string) (*Content, error) {
	var title, serialized string
	var projectID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(title, ''), COALESCE(serialized, ''), project_id FROM workspace_tables WHERE id = ?", id,
	).Scan(&title, &serialized, &projectID)
	if scanMiss(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch table %s: %w", id, err)
	}

	text := serialized
	if title != "" {
		text = title + "\n\n" + serialized
	}
	return &Content{Text: text, ProjectID: projectID.String}, nil
}

func (s *tableSource) Title(ctx context.Context, id string) (string, error) {
	var title string
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(title, '') FROM workspace_tables WHERE id = ?", id,
	).Scan(&title)
	if scanMiss(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch table title %s: %w", id, err)
	}
	return title, nil
}
