package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_index.go -package=mocks workspace-ai/internal/vectorstore VectorIndex

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// Match is a single similarity-search hit.
type Match struct {
	PointID string
	Score   float32
}

// VectorIndex is the server-side similarity-search facility used for parent
// gating. Implementations must treat minScore == 0 as "no threshold".
type VectorIndex interface {
	// Upsert inserts or overwrites points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Query returns up to k points for the given workspace whose similarity
	// to the query vector is at least minScore, best first.
	Query(ctx context.Context, collection string, query []float32, k int, minScore float32, workspaceID string) ([]Match, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error
}
