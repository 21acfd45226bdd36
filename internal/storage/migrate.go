package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// Migration is one versioned schema step. Versions must be unique within
// a registration set; duplicates are a programming error on the caller's
// side, not something the engine defends against.
type Migration struct {
	Version     int
	Description string
	Apply       func(ctx context.Context, tx *sql.Tx) error
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
)`

// Migrate applies every registered migration whose version exceeds the
// recorded schema version, in ascending order, each inside its own
// transaction. The new version is recorded in the same transaction as
// the step itself, so a failed step leaves the database at the last
// committed version and the next run retries from that point.
//
// Re-running with the same migration set on an up-to-date database
// performs no writes.
func Migrate(ctx context.Context, db *DB, migrations []Migration) error {
	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("%w: create tracking table: %v", ErrMigration, err)
	}

	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	pending := make([]Migration, len(migrations))
	copy(pending, migrations)
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, m := range pending {
		if m.Version <= current {
			continue // already applied
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
		current = m.Version
	}
	return nil
}

// applyMigration runs one step and records its version atomically.
func applyMigration(ctx context.Context, db *DB, m Migration) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin version %d: %v", ErrMigration, m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := m.Apply(ctx, tx); err != nil {
		return fmt.Errorf("%w: version %d (%s): %v", ErrMigration, m.Version, m.Description, err)
	}

	appliedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		m.Version, appliedAt); err != nil {
		return fmt.Errorf("%w: record version %d: %v", ErrMigration, m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit version %d: %v", ErrMigration, m.Version, err)
	}
	return nil
}

// SchemaVersion reports the highest recorded migration version, or 0 when
// the tracking table is empty or absent.
func SchemaVersion(ctx context.Context, db *DB) (int, error) {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_migrations'").Scan(&name)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: check tracking table: %v", ErrMigration, err)
	}

	var version sql.NullInt64
	if err := db.QueryRowContext(ctx,
		"SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("%w: read schema version: %v", ErrMigration, err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
