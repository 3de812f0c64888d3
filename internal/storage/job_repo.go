package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_job_store.go -package=mocks workspace-ai/internal/storage JobStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DedupPolicy controls Enqueue behavior against terminal jobs for the same
// resource. See config.DedupPolicy for the wire values.
type DedupPolicy string

const (
	DedupReuseTerminal DedupPolicy = "reuse-terminal"
	DedupAlwaysFresh   DedupPolicy = "always-fresh"
)

// maxErrorMessageLen caps stored failure messages so a pathological error
// string cannot grow the table unbounded.
const maxErrorMessageLen = 1000

// EnqueueRequest is one item of a bulk enqueue.
type EnqueueRequest struct {
	WorkspaceID  string
	ResourceType ResourceType
	ResourceID   string
}

// JobStore defines the interface for the durable indexing job queue.
type JobStore interface {
	// Enqueue inserts a pending job. Returns the new job ID, or "" when the
	// insert was deduplicated against an existing job for the same resource.
	Enqueue(ctx context.Context, workspaceID string, resourceType ResourceType, resourceID string) (string, error)
	// BulkEnqueue applies Enqueue semantics per item and returns how many
	// jobs were actually inserted.
	BulkEnqueue(ctx context.Context, reqs []EnqueueRequest) (int, error)
	// PickNext claims the oldest pending job via a conditional update.
	// Returns nil when the queue is empty or another worker won the claim.
	PickNext(ctx context.Context) (*IndexingJob, error)
	// Complete marks a job completed and clears its error message.
	Complete(ctx context.Context, id string) error
	// Fail marks a job failed and records a truncated error message.
	Fail(ctx context.Context, id string, message string) error
	// GetByID returns a job by ID. Returns ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*IndexingJob, error)
	// ReclaimStale returns jobs stuck in processing longer than olderThan to
	// pending and reports how many were reclaimed.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// JobRepo provides methods for indexing job operations.
// It implements the JobStore interface.
type JobRepo struct {
	db     *sql.DB
	policy DedupPolicy
}

// NewJobRepo creates a new JobRepo with the given dedup policy.
func NewJobRepo(db *sql.DB, policy DedupPolicy) *JobRepo {
	if policy == "" {
		policy = DedupReuseTerminal
	}
	return &JobRepo{db: db, policy: policy}
}

// Enqueue inserts a pending job for the given resource.
// A job for the same (resource_type, resource_id) already present in any
// status makes the insert a no-op under the reuse-terminal policy; under
// always-fresh, a completed or failed row is cleared first so re-index
// requests are honored. Returns "" when the insert was deduplicated.
func (r *JobRepo) Enqueue(ctx context.Context, workspaceID string, resourceType ResourceType, resourceID string) (string, error) {
	if !ValidResourceType(resourceType) {
		return "", fmt.Errorf("invalid resource type %q", resourceType)
	}

	if r.policy == DedupAlwaysFresh {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM indexing_jobs
			 WHERE resource_type = ? AND resource_id = ? AND status IN ('completed', 'failed')`,
			resourceType, resourceID,
		)
		if err != nil {
			return "", fmt.Errorf("failed to clear terminal job: %w", err)
		}
	}

	id := uuid.New().String()
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO indexing_jobs (id, workspace_id, resource_type, resource_id, status)
		 VALUES (?, ?, ?, ?, 'pending')`,
		id, workspaceID, resourceType, resourceID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to read enqueue result: %w", err)
	}
	if rows == 0 {
		// Deduplicated against an existing job for this resource.
		return "", nil
	}
	return id, nil
}

// BulkEnqueue inserts pending jobs for each request inside one transaction,
// applying the same per-item dedup semantics as Enqueue.
func (r *JobRepo) BulkEnqueue(ctx context.Context, reqs []EnqueueRequest) (int, error) {
	if len(reqs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	inserted := 0
	for _, req := range reqs {
		if !ValidResourceType(req.ResourceType) {
			return 0, fmt.Errorf("invalid resource type %q", req.ResourceType)
		}

		if r.policy == DedupAlwaysFresh {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM indexing_jobs
				 WHERE resource_type = ? AND resource_id = ? AND status IN ('completed', 'failed')`,
				req.ResourceType, req.ResourceID,
			)
			if err != nil {
				return 0, fmt.Errorf("failed to clear terminal job: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO indexing_jobs (id, workspace_id, resource_type, resource_id, status)
			 VALUES (?, ?, ?, ?, 'pending')`,
			uuid.New().String(), req.WorkspaceID, req.ResourceType, req.ResourceID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to enqueue job: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read enqueue result: %w", err)
		}
		inserted += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk enqueue: %w", err)
	}
	return inserted, nil
}

// PickNext selects the oldest pending job (FIFO by created_at) and attempts
// to claim it with a conditional update. The update only succeeds while the
// row is still pending, so two racing workers cannot both claim it; the
// loser gets nil and should retry selection. This conditional update is the
// sole concurrency-safety mechanism — there is no separate lock table.
func (r *JobRepo) PickNext(ctx context.Context) (*IndexingJob, error) {
	job, err := r.scanJob(r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, resource_type, resource_id, status, attempts, error_message, created_at, updated_at
		 FROM indexing_jobs WHERE status = 'pending' ORDER BY created_at, id LIMIT 1`,
	))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE indexing_jobs
		 SET status = 'processing', attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`,
		job.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read claim result: %w", err)
	}
	if rows == 0 {
		// Another worker won the race.
		return nil, nil
	}

	job.Status = JobProcessing
	job.Attempts++
	return job, nil
}

// Complete marks a job completed and clears its error message.
func (r *JobRepo) Complete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE indexing_jobs
		 SET status = 'completed', error_message = '', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return requireRow(res)
}

// Fail marks a job failed and records the error message, truncated to keep
// storage bounded. The queue never retries on its own; re-processing needs a
// fresh enqueue.
func (r *JobRepo) Fail(ctx context.Context, id string, message string) error {
	if len(message) > maxErrorMessageLen {
		message = message[:maxErrorMessageLen]
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE indexing_jobs
		 SET status = 'failed', error_message = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		message, id,
	)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	return requireRow(res)
}

// GetByID returns a job by ID. Returns ErrNotFound if it does not exist.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*IndexingJob, error) {
	return r.scanJob(r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, resource_type, resource_id, status, attempts, error_message, created_at, updated_at
		 FROM indexing_jobs WHERE id = ?`,
		id,
	))
}

// ReclaimStale returns jobs stuck in processing longer than olderThan to
// pending so a crashed worker's claim does not wedge the resource forever.
func (r *JobRepo) ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(sqliteTimeLayout)
	res, err := r.db.ExecContext(ctx,
		`UPDATE indexing_jobs
		 SET status = 'pending', updated_at = CURRENT_TIMESTAMP
		 WHERE status = 'processing' AND updated_at < ?`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale jobs: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read reclaim result: %w", err)
	}
	return int(rows), nil
}

const sqliteTimeLayout = "2006-01-02 15:04:05"

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *JobRepo) scanJob(row rowScanner) (*IndexingJob, error) {
	var job IndexingJob
	var createdAt, updatedAt string

	err := row.Scan(&job.ID, &job.WorkspaceID, &job.ResourceType, &job.ResourceID,
		&job.Status, &job.Attempts, &job.ErrorMessage, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	if job.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if job.UpdatedAt, err = parseSQLiteTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &job, nil
}

func parseSQLiteTime(value string) (time.Time, error) {
	if t, err := time.Parse(sqliteTimeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
