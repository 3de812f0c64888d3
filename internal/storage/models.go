package storage

import "time"

// JobStatus is the lifecycle state of an indexing job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// ResourceType identifies the kind of workspace content a job refers to.
type ResourceType string

const (
	ResourceFile  ResourceType = "file"
	ResourceBlock ResourceType = "block"
	ResourceDoc   ResourceType = "doc"
	ResourceTable ResourceType = "table"
)

// ValidResourceType reports whether t is one of the known resource types.
func ValidResourceType(t ResourceType) bool {
	switch t {
	case ResourceFile, ResourceBlock, ResourceDoc, ResourceTable:
		return true
	}
	return false
}

// IndexingJob is one unit of scheduled indexing work.
type IndexingJob struct {
	ID           string // UUID
	WorkspaceID  string
	ResourceType ResourceType
	ResourceID   string
	Status       JobStatus
	Attempts     int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Parent is the indexed top-level record for one source resource.
// It owns zero or more chunks; chunks are fully replaced on re-index.
type Parent struct {
	ID               string // UUID
	WorkspaceID      string
	ProjectID        string // optional scoping, empty when absent
	TabID            string // optional scoping, empty when absent
	SourceType       ResourceType
	SourceID         string
	Summary          string
	SummaryEmbedding []float32
	ContentHash      string // SHA-256 hex of the fetched text
	LastIndexedAt    time.Time
}

// Chunk is a retrievable fragment of a parent's content.
type Chunk struct {
	ID         string // UUID (doubles as the remote index point ID)
	ParentID   string
	ChunkIndex int // dense, zero-based within parent
	Content    string
	Embedding  []float32
}
