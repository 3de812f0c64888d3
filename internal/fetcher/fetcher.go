// Package fetcher resolves workspace resources into plain text for indexing.
// Each resource type has its own Source implementation; adding a new type is
// adding one implementation plus a registry entry, not editing a conditional.
package fetcher

import (
	"context"
	"database/sql"
	"fmt"

	"workspace-ai/internal/storage"
)

// Content is the fetched representation of one resource: plain text plus
// optional scoping metadata.
type Content struct {
	Text      string
	ProjectID string
	TabID     string
}

// Source fetches content for a single resource type.
// Fetch returns (nil, nil) for missing or unreadable resources; errors are
// reserved for infrastructure failures.
type Source interface {
	Fetch(ctx context.Context, id string) (*Content, error)
	// Title returns a human-readable label for the resource, used for
	// citations. Returns "" when the resource is missing.
	Title(ctx context.Context, id string) (string, error)
}

// Registry routes fetches by resource type.
type Registry struct {
	sources map[storage.ResourceType]Source
}

// NewRegistry creates a registry with the standard sources backed by the
// workspace content tables.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{
		sources: map[storage.ResourceType]Source{
			storage.ResourceFile:  &fileSource{db: db},
			storage.ResourceBlock: &blockSource{db: db},
			storage.ResourceDoc:   &docSource{db: db},
			storage.ResourceTable: &tableSource{db: db},
		},
	}
}

// Register adds or replaces the source for a resource type.
func (r *Registry) Register(resourceType storage.ResourceType, source Source) {
	r.sources[resourceType] = source
}

// Fetch resolves a resource to its content. Missing resources return
// (nil, nil); an unknown resource type is an error.
func (r *Registry) Fetch(ctx context.Context, resourceType storage.ResourceType, id string) (*Content, error) {
	source, ok := r.sources[resourceType]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for resource type %q", resourceType)
	}
	return source.Fetch(ctx, id)
}

// Title resolves a human-readable label for a resource.
func (r *Registry) Title(ctx context.Context, resourceType storage.ResourceType, id string) (string, error) {
	source, ok := r.sources[resourceType]
	if !ok {
		return "", fmt.Errorf("no fetcher registered for resource type %q", resourceType)
	}
	return source.Title(ctx, id)
}

func scanMiss(err error) bool {
	return err == sql.ErrNoRows
}
