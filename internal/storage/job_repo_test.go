package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestJobRepo_Enqueue(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	id, err := repo.Enqueue(context.Background(), "ws-1", ResourceFile, "file-1")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if id == "" {
		t.Fatal("Enqueue() returned empty job ID")
	}

	job, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if job.Status != JobPending {
		t.Errorf("Enqueue() job status = %q, want %q", job.Status, JobPending)
	}
	if job.WorkspaceID != "ws-1" || job.ResourceType != ResourceFile || job.ResourceID != "file-1" {
		t.Errorf("Enqueue() stored job = %+v, want ws-1/file/file-1", job)
	}
}

func TestJobRepo_Enqueue_InvalidResourceType(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	if _, err := repo.Enqueue(context.Background(), "ws-1", "spreadsheet", "x"); err == nil {
		t.Error("Enqueue() expected error for invalid resource type, got nil")
	}
}

func TestJobRepo_Enqueue_DeduplicatesPending(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	first, err := repo.Enqueue(context.Background(), "ws-1", ResourceDoc, "doc-1")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if first == "" {
		t.Fatal("first Enqueue() returned empty job ID")
	}

	second, err := repo.Enqueue(context.Background(), "ws-1", ResourceDoc, "doc-1")
	if err != nil {
		t.Fatalf("second Enqueue() error = %v", err)
	}
	if second != "" {
		t.Errorf("second Enqueue() = %q, want empty (deduplicated)", second)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM indexing_jobs").Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 1 {
		t.Errorf("job count = %d, want 1", count)
	}
}

func TestJobRepo_Enqueue_DedupPolicies(t *testing.T) {
	tests := []struct {
		name       string
		policy     DedupPolicy
		wantNewJob bool
	}{
		{"reuse-terminal blocks re-enqueue after completion", DedupReuseTerminal, false},
		{"always-fresh clears terminal rows", DedupAlwaysFresh, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			repo := NewJobRepo(db, tt.policy)

			id, err := repo.Enqueue(context.Background(), "ws-1", ResourceFile, "file-1")
			if err != nil {
				t.Fatalf("Enqueue() error = %v", err)
			}

			job, err := repo.PickNext(context.Background())
			if err != nil {
				t.Fatalf("PickNext() error = %v", err)
			}
			if job == nil || job.ID != id {
				t.Fatalf("PickNext() = %+v, want job %s", job, id)
			}
			if err := repo.Complete(context.Background(), id); err != nil {
				t.Fatalf("Complete() error = %v", err)
			}

			newID, err := repo.Enqueue(context.Background(), "ws-1", ResourceFile, "file-1")
			if err != nil {
				t.Fatalf("re-Enqueue() error = %v", err)
			}
			if tt.wantNewJob && newID == "" {
				t.Error("re-Enqueue() returned empty ID, want fresh job")
			}
			if !tt.wantNewJob && newID != "" {
				t.Errorf("re-Enqueue() = %q, want empty (deduplicated)", newID)
			}
		})
	}
}

func TestJobRepo_BulkEnqueue(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	reqs := []EnqueueRequest{
		{WorkspaceID: "ws-1", ResourceType: ResourceFile, ResourceID: "file-1"},
		{WorkspaceID: "ws-1", ResourceType: ResourceDoc, ResourceID: "doc-1"},
		{WorkspaceID: "ws-1", ResourceType: ResourceFile, ResourceID: "file-1"}, // duplicate
	}

	inserted, err := repo.BulkEnqueue(context.Background(), reqs)
	if err != nil {
		t.Fatalf("BulkEnqueue() error = %v", err)
	}
	if inserted != 2 {
		t.Errorf("BulkEnqueue() inserted = %d, want 2", inserted)
	}
}

func TestJobRepo_BulkEnqueue_InvalidTypeRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	reqs := []EnqueueRequest{
		{WorkspaceID: "ws-1", ResourceType: ResourceFile, ResourceID: "file-1"},
		{WorkspaceID: "ws-1", ResourceType: "spreadsheet", ResourceID: "bad"},
	}

	if _, err := repo.BulkEnqueue(context.Background(), reqs); err == nil {
		t.Fatal("BulkEnqueue() expected error for invalid resource type, got nil")
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM indexing_jobs").Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 0 {
		t.Errorf("job count after rollback = %d, want 0", count)
	}
}

func TestJobRepo_PickNext_Empty(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	job, err := repo.PickNext(context.Background())
	if err != nil {
		t.Fatalf("PickNext() error = %v", err)
	}
	if job != nil {
		t.Errorf("PickNext() on empty queue = %+v, want nil", job)
	}
}

func TestJobRepo_PickNext_ClaimsOldestAndBumpsAttempts(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	firstID, err := repo.Enqueue(context.Background(), "ws-1", ResourceFile, "file-1")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := repo.Enqueue(context.Background(), "ws-1", ResourceFile, "file-2"); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	// Both inserts land in the same second; backdate the first so FIFO
	// ordering is deterministic.
	older := time.Now().UTC().Add(-time.Minute).Format(sqliteTimeLayout)
	if _, err := db.Exec("UPDATE indexing_jobs SET created_at = ? WHERE id = ?", older, firstID); err != nil {
		t.Fatalf("backdate update error = %v", err)
	}

	job, err := repo.PickNext(context.Background())
	if err != nil {
		t.Fatalf("PickNext() error = %v", err)
	}
	if job == nil {
		t.Fatal("PickNext() returned nil, want the oldest pending job")
	}
	if job.ID != firstID {
		t.Errorf("PickNext() claimed %s, want oldest %s", job.ID, firstID)
	}
	if job.Status != JobProcessing {
		t.Errorf("PickNext() status = %q, want %q", job.Status, JobProcessing)
	}
	if job.Attempts != 1 {
		t.Errorf("PickNext() attempts = %d, want 1", job.Attempts)
	}

	// The claimed job must not be claimable again.
	second, err := repo.PickNext(context.Background())
	if err != nil {
		t.Fatalf("second PickNext() error = %v", err)
	}
	if second == nil {
		t.Fatal("second PickNext() returned nil, want the remaining pending job")
	}
	if second.ID == firstID {
		t.Error("second PickNext() re-claimed an already-processing job")
	}
}

func TestJobRepo_CompleteAndFail(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	id, err := repo.Enqueue(context.Background(), "ws-1", ResourceBlock, "block-1")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if err := repo.Fail(context.Background(), id, "embedding service unavailable"); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	job, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if job.Status != JobFailed {
		t.Errorf("Fail() status = %q, want %q", job.Status, JobFailed)
	}
	if job.ErrorMessage != "embedding service unavailable" {
		t.Errorf("Fail() error message = %q", job.ErrorMessage)
	}

	if err := repo.Complete(context.Background(), id); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	job, err = repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if job.Status != JobCompleted {
		t.Errorf("Complete() status = %q, want %q", job.Status, JobCompleted)
	}
	if job.ErrorMessage != "" {
		t.Errorf("Complete() should clear error message, got %q", job.ErrorMessage)
	}
}

func TestJobRepo_Fail_TruncatesLongMessages(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	id, err := repo.Enqueue(context.Background(), "ws-1", ResourceFile, "file-1")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	long := strings.Repeat("x", 5000)
	if err := repo.Fail(context.Background(), id, long); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	job, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(job.ErrorMessage) != maxErrorMessageLen {
		t.Errorf("Fail() stored message length = %d, want %d", len(job.ErrorMessage), maxErrorMessageLen)
	}
}

func TestJobRepo_CompleteUnknownJob(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	if err := repo.Complete(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("Complete() error = %v, want ErrNotFound", err)
	}
}

func TestJobRepo_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	if _, err := repo.GetByID(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestJobRepo_ReclaimStale(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	id, err := repo.Enqueue(context.Background(), "ws-1", ResourceTable, "table-1")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := repo.PickNext(context.Background()); err != nil {
		t.Fatalf("PickNext() error = %v", err)
	}

	// Backdate the claim to make it stale.
	stale := time.Now().UTC().Add(-time.Hour).Format(sqliteTimeLayout)
	if _, err := db.Exec("UPDATE indexing_jobs SET updated_at = ? WHERE id = ?", stale, id); err != nil {
		t.Fatalf("backdate update error = %v", err)
	}

	reclaimed, err := repo.ReclaimStale(context.Background(), 10*time.Minute)
	if err != nil {
		t.Fatalf("ReclaimStale() error = %v", err)
	}
	if reclaimed != 1 {
		t.Errorf("ReclaimStale() = %d, want 1", reclaimed)
	}

	job, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if job.Status != JobPending {
		t.Errorf("ReclaimStale() status = %q, want %q", job.Status, JobPending)
	}
}

func TestJobRepo_ReclaimStale_LeavesFreshClaims(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepo(db, DedupReuseTerminal)

	if _, err := repo.Enqueue(context.Background(), "ws-1", ResourceFile, "file-1"); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := repo.PickNext(context.Background()); err != nil {
		t.Fatalf("PickNext() error = %v", err)
	}

	reclaimed, err := repo.ReclaimStale(context.Background(), 10*time.Minute)
	if err != nil {
		t.Fatalf("ReclaimStale() error = %v", err)
	}
	if reclaimed != 0 {
		t.Errorf("ReclaimStale() = %d, want 0 for a fresh claim", reclaimed)
	}
}
