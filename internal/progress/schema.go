package progress

import (
	"context"
	"database/sql"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/storage"
)

const schemaV1 = `
-- Current in-flight repair state, one row per (repair, engine)
CREATE TABLE IF NOT EXISTS repair_progress (
    repair_id TEXT NOT NULL,
    engine_id TEXT NOT NULL,
    steps TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (repair_id, engine_id)
);

CREATE INDEX IF NOT EXISTS idx_repair_progress_updated ON repair_progress(updated_at);
`

const schemaV2 = `
-- Append-only completion log
CREATE TABLE IF NOT EXISTS repair_history (
    id TEXT PRIMARY KEY,
    repair_id TEXT NOT NULL,
    repair_name TEXT NOT NULL DEFAULT '',
    engine_id TEXT NOT NULL,
    engine_name TEXT NOT NULL DEFAULT '',
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    duration_min INTEGER NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    rating INTEGER
);

CREATE INDEX IF NOT EXISTS idx_repair_history_engine ON repair_history(engine_id);
CREATE INDEX IF NOT EXISTS idx_repair_history_finished ON repair_history(finished_at);

-- Running aggregates, folded incrementally from repair_history appends
CREATE TABLE IF NOT EXISTS repair_stats (
    repair_id TEXT NOT NULL,
    engine_id TEXT NOT NULL,
    times_completed INTEGER NOT NULL,
    total_minutes INTEGER NOT NULL,
    avg_minutes REAL NOT NULL,
    last_completed_at TIMESTAMP NOT NULL,
    PRIMARY KEY (repair_id, engine_id)
);
`

const schemaV3 = `
-- Last-write-wins app preferences
CREATE TABLE IF NOT EXISTS preferences (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

// Migrations returns the progress store's schema history.
func Migrations() []storage.Migration {
	return []storage.Migration{
		{Version: 1, Description: "repair progress", Apply: execSchema(schemaV1)},
		{Version: 2, Description: "history and statistics", Apply: execSchema(schemaV2)},
		{Version: 3, Description: "preferences", Apply: execSchema(schemaV3)},
	}
}

func execSchema(ddl string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, ddl)
		return err
	}
}
