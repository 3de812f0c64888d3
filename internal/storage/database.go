package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	// Foreign keys are disabled by default in SQLite; the DSN parameter
	// enables them on every pooled connection.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS indexing_jobs (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			resource_type TEXT NOT NULL,
			resource_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INTEGER NOT NULL DEFAULT 0,
			error_message TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (resource_type, resource_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_indexing_jobs_status_created
			ON indexing_jobs (status, created_at);`,
		`CREATE TABLE IF NOT EXISTS parents (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			project_id TEXT,
			tab_id TEXT,
			source_type TEXT NOT NULL,
			source_id TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			summary_embedding BLOB,
			content_hash TEXT NOT NULL DEFAULT '',
			last_indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (source_type, source_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_parents_workspace
			ON parents (workspace_id);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding BLOB,
			FOREIGN KEY (parent_id) REFERENCES parents(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_parent
			ON chunks (parent_id, chunk_index);`,
		// Workspace content tables read by the resource fetchers. Owned by
		// the collaboration app; created here so a fresh database is usable
		// end to end.
		`CREATE TABLE IF NOT EXISTS workspace_files (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			project_id TEXT,
			name TEXT NOT NULL,
			extracted_text TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS workspace_blocks (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			project_id TEXT,
			tab_id TEXT,
			text TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS workspace_docs (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			project_id TEXT,
			title TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS workspace_tables (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			project_id TEXT,
			title TEXT NOT NULL DEFAULT '',
			serialized TEXT NOT NULL DEFAULT ''
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
