package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"workspace-ai/internal/contextutil"
	"workspace-ai/internal/storage"
)

// IndexRequest is the HTTP payload for scheduling one resource (re)index.
type IndexRequest struct {
	WorkspaceID  string               `json:"workspace_id"`
	ResourceType storage.ResourceType `json:"resource_type"`
	ResourceID   string               `json:"resource_id"`
}

// IndexResponse carries the enqueued job ID; empty when the request was
// deduplicated against an existing job for the same resource.
type IndexResponse struct {
	JobID string `json:"job_id"`
}

// BulkIndexRequest is the HTTP payload for batch enqueueing.
type BulkIndexRequest struct {
	Jobs []IndexRequest `json:"jobs"`
}

// BulkIndexResponse reports how many jobs were actually inserted.
type BulkIndexResponse struct {
	Enqueued int `json:"enqueued"`
}

// IndexHandler schedules indexing work.
type IndexHandler struct {
	jobs storage.JobStore
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(jobs storage.JobStore) *IndexHandler {
	return &IndexHandler{jobs: jobs}
}

func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.WorkspaceID == "" || req.ResourceID == "" {
		writeError(w, http.StatusBadRequest, "workspace_id and resource_id are required")
		return
	}
	if !storage.ValidResourceType(req.ResourceType) {
		writeError(w, http.StatusBadRequest, "resource_type must be one of file, block, doc, table")
		return
	}

	jobID, err := h.jobs.Enqueue(r.Context(), req.WorkspaceID, req.ResourceType, req.ResourceID)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to enqueue job", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}

	writeJSON(w, http.StatusAccepted, IndexResponse{JobID: jobID})
}

// BulkIndexHandler schedules indexing work in batches.
type BulkIndexHandler struct {
	jobs storage.JobStore
}

// NewBulkIndexHandler creates a new BulkIndexHandler.
func NewBulkIndexHandler(jobs storage.JobStore) *BulkIndexHandler {
	return &BulkIndexHandler{jobs: jobs}
}

func (h *BulkIndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var req BulkIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Jobs) == 0 {
		writeError(w, http.StatusBadRequest, "jobs must not be empty")
		return
	}

	reqs := make([]storage.EnqueueRequest, len(req.Jobs))
	for i, job := range req.Jobs {
		if job.WorkspaceID == "" || job.ResourceID == "" || !storage.ValidResourceType(job.ResourceType) {
			writeError(w, http.StatusBadRequest, "each job needs workspace_id, resource_id and a valid resource_type")
			return
		}
		reqs[i] = storage.EnqueueRequest{
			WorkspaceID:  job.WorkspaceID,
			ResourceType: job.ResourceType,
			ResourceID:   job.ResourceID,
		}
	}

	enqueued, err := h.jobs.BulkEnqueue(r.Context(), reqs)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to bulk enqueue", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue jobs")
		return
	}

	writeJSON(w, http.StatusAccepted, BulkIndexResponse{Enqueued: enqueued})
}

// JobStatusResponse is the HTTP view of one indexing job.
type JobStatusResponse struct {
	ID           string               `json:"id"`
	WorkspaceID  string               `json:"workspace_id"`
	ResourceType storage.ResourceType `json:"resource_type"`
	ResourceID   string               `json:"resource_id"`
	Status       storage.JobStatus    `json:"status"`
	Attempts     int                  `json:"attempts"`
	ErrorMessage string               `json:"error_message,omitempty"`
}

// JobStatusHandler exposes job state for monitoring.
type JobStatusHandler struct {
	jobs storage.JobStore
}

// NewJobStatusHandler creates a new JobStatusHandler.
func NewJobStatusHandler(jobs storage.JobStore) *JobStatusHandler {
	return &JobStatusHandler{jobs: jobs}
}

func (h *JobStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	id := chi.URLParam(r, "id")
	job, err := h.jobs.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to load job", "job_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	writeJSON(w, http.StatusOK, JobStatusResponse{
		ID:           job.ID,
		WorkspaceID:  job.WorkspaceID,
		ResourceType: job.ResourceType,
		ResourceID:   job.ResourceID,
		Status:       job.Status,
		Attempts:     job.Attempts,
		ErrorMessage: job.ErrorMessage,
	})
}
