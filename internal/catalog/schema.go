package catalog

import (
	"context"
	"database/sql"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/storage"
)

const schemaV1 = `
-- Parts table
CREATE TABLE IF NOT EXISTS parts (
    id TEXT PRIMARY KEY CHECK (length(id) > 0),
    name TEXT NOT NULL CHECK (length(name) > 0),
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    image_ref TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_parts_name ON parts(name);
CREATE INDEX IF NOT EXISTS idx_parts_category ON parts(category);

-- Spec attributes, replaced wholesale on every save
CREATE TABLE IF NOT EXISTS part_attributes (
    part_id TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (part_id) REFERENCES parts(id) ON DELETE CASCADE,
    UNIQUE(part_id, key)
);

CREATE INDEX IF NOT EXISTS idx_part_attributes_part ON part_attributes(part_id);

-- Alternate part numbers, replaced wholesale on every save
CREATE TABLE IF NOT EXISTS part_xrefs (
    part_id TEXT NOT NULL,
    ref TEXT NOT NULL,
    FOREIGN KEY (part_id) REFERENCES parts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_part_xrefs_part ON part_xrefs(part_id);
`

const schemaV2 = `
-- Engine fitments
CREATE TABLE IF NOT EXISTS engine_parts (
    engine_id TEXT NOT NULL,
    part_id TEXT NOT NULL,
    position TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (engine_id, part_id),
    FOREIGN KEY (part_id) REFERENCES parts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_engine_parts_part ON engine_parts(part_id);
`

const schemaV3 = `
-- Full-text shadow index over searchable part fields. Insert/update
-- resync is explicit in the repository; only the delete cascade is
-- schema-defined.
CREATE VIRTUAL TABLE IF NOT EXISTS parts_fts USING fts5(
    part_id UNINDEXED, name, description, category
);

CREATE TRIGGER IF NOT EXISTS parts_fts_cascade AFTER DELETE ON parts BEGIN
    DELETE FROM parts_fts WHERE part_id = old.id;
END;

-- Backfill shadow entries for parts that predate the index
INSERT INTO parts_fts (part_id, name, description, category)
    SELECT id, name, description, category FROM parts
    WHERE id NOT IN (SELECT part_id FROM parts_fts);
`

// Migrations returns the catalog store's schema history.
func Migrations() []storage.Migration {
	return []storage.Migration{
		{Version: 1, Description: "parts, attributes, cross references", Apply: execSchema(schemaV1)},
		{Version: 2, Description: "engine fitments", Apply: execSchema(schemaV2)},
		{Version: 3, Description: "full-text shadow index", Apply: execSchema(schemaV3)},
	}
}

func execSchema(ddl string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, ddl)
		return err
	}
}
