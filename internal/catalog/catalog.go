package catalog

import (
	"context"
	"time"
)

// Part is one catalog entry: a physical part with its spec attributes
// and alternate part numbers.
type Part struct {
	ID          string
	Name        string
	Description string
	Category    string
	ImageRef    string
	Attributes  map[string]string
	CrossRefs   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Fitment links a part to an engine, with an optional position label
// such as "left bank" or "front".
type Fitment struct {
	EngineID string
	PartID   string
	Position string
}

// Repository defines the catalog store contract. All write operations
// keep the part record, its attribute and cross-reference sets, and the
// full-text shadow index mutually consistent.
type Repository interface {
	// Upsert inserts or replaces the part together with its attribute
	// set, cross-reference list, and search shadow entry, atomically.
	Upsert(ctx context.Context, part *Part) error
	// Get returns the part with attributes and cross-references
	// populated, or storage.ErrNotFound.
	Get(ctx context.Context, id string) (*Part, error)
	// ListAll returns all parts ordered by display name. Attributes and
	// cross-references are not populated; listing is a light projection.
	ListAll(ctx context.Context) ([]*Part, error)
	// Search runs a prefix match against the shadow index and returns
	// live parts ranked by relevance. Blank queries return nothing
	// without touching storage.
	Search(ctx context.Context, query string, limit int) ([]*Part, error)

	ListByEngine(ctx context.Context, engineID string) ([]*Part, error)
	ListByCategory(ctx context.Context, category string) ([]*Part, error)
	ListCategories(ctx context.Context) ([]string, error)

	// Associate links a part to an engine; re-associating overwrites the
	// position label in place.
	Associate(ctx context.Context, partID, engineID, position string) error
	Dissociate(ctx context.Context, partID, engineID string) error

	// Delete removes the part; attribute, cross-reference, fitment, and
	// shadow rows go with it via the schema's cascades.
	Delete(ctx context.Context, id string) error
	// BulkImport upserts every part, then every fitment, inside one
	// outer transaction; any failure rolls back the entire batch.
	BulkImport(ctx context.Context, parts []*Part, fitments []Fitment) error

	Close() error
}
