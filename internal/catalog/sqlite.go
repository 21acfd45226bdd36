package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/storage"
)

// DefaultSearchLimit bounds Search results when the caller passes no limit.
const DefaultSearchLimit = 25

// SQLiteRepository implements Repository over one catalog store file.
type SQLiteRepository struct {
	db *storage.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// Open opens or creates the catalog store at path and brings its schema
// up to date.
func Open(path string) (*SQLiteRepository, error) {
	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog store: %w", err)
	}
	if err := storage.Migrate(context.Background(), db, Migrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate catalog store: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Close releases the store's file handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Upsert writes the part record, replaces its attribute and
// cross-reference sets, and resyncs the search shadow entry, all in one
// transaction. Any step failing rolls back all four.
func (r *SQLiteRepository) Upsert(ctx context.Context, part *Part) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.upsertWithQuerier(ctx, tx, part); err != nil {
		return err
	}
	return tx.Commit()
}

// upsertWithQuerier is the internal implementation that uses a querier,
// so BulkImport can run it inside its outer transaction.
func (r *SQLiteRepository) upsertWithQuerier(ctx context.Context, q storage.Querier, part *Part) error {
	now := time.Now()
	query := `
		INSERT INTO parts (id, name, description, category, image_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			image_ref = excluded.image_ref,
			updated_at = excluded.updated_at
		RETURNING created_at
	`
	err := q.QueryRowContext(ctx, query,
		part.ID, part.Name, part.Description, part.Category, part.ImageRef,
		now, now).Scan(&part.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert part: %w", storage.Classify(err))
	}
	part.UpdatedAt = now

	// Attribute set is replaced wholesale, never partially updated.
	if _, err := q.ExecContext(ctx, "DELETE FROM part_attributes WHERE part_id = ?", part.ID); err != nil {
		return fmt.Errorf("failed to clear attributes: %w", storage.Classify(err))
	}
	keys := make([]string, 0, len(part.Attributes))
	for k := range part.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO part_attributes (part_id, key, value) VALUES (?, ?, ?)",
			part.ID, k, part.Attributes[k]); err != nil {
			return fmt.Errorf("failed to insert attribute %q: %w", k, storage.Classify(err))
		}
	}

	// Same replace-all discipline for cross references.
	if _, err := q.ExecContext(ctx, "DELETE FROM part_xrefs WHERE part_id = ?", part.ID); err != nil {
		return fmt.Errorf("failed to clear cross references: %w", storage.Classify(err))
	}
	for _, ref := range part.CrossRefs {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO part_xrefs (part_id, ref) VALUES (?, ?)",
			part.ID, ref); err != nil {
			return fmt.Errorf("failed to insert cross reference %q: %w", ref, storage.Classify(err))
		}
	}

	// Shadow entry is rebuilt as a delete+insert pair, never updated in
	// place, so the index can't go stale against the part record.
	if _, err := q.ExecContext(ctx, "DELETE FROM parts_fts WHERE part_id = ?", part.ID); err != nil {
		return fmt.Errorf("failed to clear shadow entry: %w", storage.Classify(err))
	}
	if _, err := q.ExecContext(ctx,
		"INSERT INTO parts_fts (part_id, name, description, category) VALUES (?, ?, ?, ?)",
		part.ID, part.Name, part.Description, part.Category); err != nil {
		return fmt.Errorf("failed to insert shadow entry: %w", storage.Classify(err))
	}

	return nil
}

// Get returns the part with attributes and cross-references populated.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Part, error) {
	query := `
		SELECT id, name, description, category, image_ref, created_at, updated_at
		FROM parts
		WHERE id = ?
	`
	var part Part
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&part.ID, &part.Name, &part.Description, &part.Category, &part.ImageRef,
		&part.CreatedAt, &part.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	part.Attributes = make(map[string]string)
	rows, err := r.db.QueryContext(ctx,
		"SELECT key, value FROM part_attributes WHERE part_id = ? ORDER BY key", id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		part.Attributes[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	xrows, err := r.db.QueryContext(ctx,
		"SELECT ref FROM part_xrefs WHERE part_id = ? ORDER BY rowid", id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = xrows.Close() }()
	part.CrossRefs = make([]string, 0)
	for xrows.Next() {
		var ref string
		if err := xrows.Scan(&ref); err != nil {
			return nil, err
		}
		part.CrossRefs = append(part.CrossRefs, ref)
	}
	if err := xrows.Err(); err != nil {
		return nil, err
	}

	return &part, nil
}

// ListAll returns every part ordered by display name, as a light
// projection without attributes or cross-references.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]*Part, error) {
	query := `
		SELECT id, name, description, category, image_ref, created_at, updated_at
		FROM parts
		ORDER BY name COLLATE NOCASE, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanParts(rows)
}

// Search matches query terms as prefixes against the shadow index and
// joins back to live part records, ranked by relevance. Blank or
// unusable queries return an empty result without touching storage.
func (r *SQLiteRepository) Search(ctx context.Context, query string, limit int) ([]*Part, error) {
	match := ftsPrefixQuery(query)
	if match == "" {
		return []*Part{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	// rank is FTS5's built-in BM25 relevance column; lower is better.
	// The MATCH left operand must be the FTS table's real name, so the
	// virtual table stays unaliased here.
	sqlQuery := `
		SELECT p.id, p.name, p.description, p.category, p.image_ref, p.created_at, p.updated_at
		FROM parts_fts
		JOIN parts p ON p.id = parts_fts.part_id
		WHERE parts_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, sqlQuery, match, limit)
	if err != nil {
		return nil, err
	}
	return scanParts(rows)
}

// ftsPrefixQuery turns free text into an FTS5 prefix-match expression.
// Tokens are stripped of FTS operator characters and quoted, so user
// input can't inject query syntax.
func ftsPrefixQuery(query string) string {
	terms := make([]string, 0, 4)
	for _, field := range strings.Fields(query) {
		var b strings.Builder
		for _, r := range field {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r > 127:
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			terms = append(terms, `"`+b.String()+`"*`)
		}
	}
	return strings.Join(terms, " ")
}

// ListByEngine returns the parts associated with an engine, ordered by name.
func (r *SQLiteRepository) ListByEngine(ctx context.Context, engineID string) ([]*Part, error) {
	query := `
		SELECT p.id, p.name, p.description, p.category, p.image_ref, p.created_at, p.updated_at
		FROM parts p
		JOIN engine_parts ep ON ep.part_id = p.id
		WHERE ep.engine_id = ?
		ORDER BY p.name COLLATE NOCASE, p.id
	`
	rows, err := r.db.QueryContext(ctx, query, engineID)
	if err != nil {
		return nil, err
	}
	return scanParts(rows)
}

// ListByCategory returns the parts in one category, ordered by name.
func (r *SQLiteRepository) ListByCategory(ctx context.Context, category string) ([]*Part, error) {
	query := `
		SELECT id, name, description, category, image_ref, created_at, updated_at
		FROM parts
		WHERE category = ?
		ORDER BY name COLLATE NOCASE, id
	`
	rows, err := r.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, err
	}
	return scanParts(rows)
}

// ListCategories returns the distinct non-empty category labels in use.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT category FROM parts WHERE category != '' ORDER BY category")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Associate links a part to an engine. Re-associating an existing pair
// overwrites the position label in place.
func (r *SQLiteRepository) Associate(ctx context.Context, partID, engineID, position string) error {
	return r.associateWithQuerier(ctx, r.db, partID, engineID, position)
}

func (r *SQLiteRepository) associateWithQuerier(ctx context.Context, q storage.Querier, partID, engineID, position string) error {
	query := `
		INSERT INTO engine_parts (engine_id, part_id, position)
		VALUES (?, ?, ?)
		ON CONFLICT(engine_id, part_id) DO UPDATE SET position = excluded.position
	`
	if _, err := q.ExecContext(ctx, query, engineID, partID, position); err != nil {
		return fmt.Errorf("failed to associate part: %w", storage.Classify(err))
	}
	return nil
}

// Dissociate removes the engine/part link if present.
func (r *SQLiteRepository) Dissociate(ctx context.Context, partID, engineID string) error {
	_, err := r.db.Exec(ctx,
		"DELETE FROM engine_parts WHERE engine_id = ? AND part_id = ?", engineID, partID)
	return err
}

// Delete removes the part record. Attribute, cross-reference, and
// fitment rows cascade through foreign keys; the shadow entry cascades
// through the schema's delete trigger.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, "DELETE FROM parts WHERE id = ?", id)
	return err
}

// BulkImport applies Upsert for every part, then every fitment, in one
// outer transaction. A failure at any point rolls back the entire
// batch, so a document never half-imports.
func (r *SQLiteRepository) BulkImport(ctx context.Context, parts []*Part, fitments []Fitment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, part := range parts {
		if err := r.upsertWithQuerier(ctx, tx, part); err != nil {
			return fmt.Errorf("bulk import failed at part %q: %w", part.ID, err)
		}
	}
	for _, f := range fitments {
		if err := r.associateWithQuerier(ctx, tx, f.PartID, f.EngineID, f.Position); err != nil {
			return fmt.Errorf("bulk import failed at fitment %s/%s: %w", f.EngineID, f.PartID, err)
		}
	}
	return tx.Commit()
}

// scanParts drains a part projection result set.
func scanParts(rows *sql.Rows) ([]*Part, error) {
	defer func() { _ = rows.Close() }()

	parts := make([]*Part, 0)
	for rows.Next() {
		var part Part
		err := rows.Scan(
			&part.ID, &part.Name, &part.Description, &part.Category, &part.ImageRef,
			&part.CreatedAt, &part.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		parts = append(parts, &part)
	}
	return parts, rows.Err()
}
