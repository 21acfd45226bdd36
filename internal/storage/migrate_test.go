package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create widgets",
			Apply: func(ctx context.Context, tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL)")
				return err
			},
		},
		{
			Version:     2,
			Description: "widgets name index",
			Apply: func(ctx context.Context, tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, "CREATE INDEX idx_widgets_name ON widgets(name)")
				return err
			},
		},
	}
}

func TestMigrate_AppliesAllVersions(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, testMigrations()))

	version, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	var name string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='widgets'").Scan(&name)
	require.NoError(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, testMigrations()))

	var before []string
	rows, err := db.QueryContext(ctx, "SELECT version || '@' || applied_at FROM schema_migrations ORDER BY version")
	require.NoError(t, err)
	for rows.Next() {
		var rec string
		require.NoError(t, rows.Scan(&rec))
		before = append(before, rec)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())

	// Second run must perform zero writes: identical tracking rows.
	require.NoError(t, Migrate(ctx, db, testMigrations()))

	var after []string
	rows, err = db.QueryContext(ctx, "SELECT version || '@' || applied_at FROM schema_migrations ORDER BY version")
	require.NoError(t, err)
	for rows.Next() {
		var rec string
		require.NoError(t, rows.Scan(&rec))
		after = append(after, rec)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())

	assert.Equal(t, before, after)
	assert.Len(t, after, 2)
}

func TestMigrate_OrderIndependentRegistration(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	migrations := testMigrations()
	migrations[0], migrations[1] = migrations[1], migrations[0]

	// Version 2 depends on the table created by version 1; sorting makes
	// registration order irrelevant.
	require.NoError(t, Migrate(ctx, db, migrations))

	version, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestMigrate_FailedStepRollsBack(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	boom := errors.New("boom")
	migrations := append(testMigrations(), Migration{
		Version:     3,
		Description: "partial then fail",
		Apply: func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, "CREATE TABLE doomed (id INTEGER PRIMARY KEY)"); err != nil {
				return err
			}
			return boom
		},
	})

	err = Migrate(ctx, db, migrations)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMigration)

	// Database left at the last successfully committed version.
	version, verr := SchemaVersion(ctx, db)
	require.NoError(t, verr)
	assert.Equal(t, 2, version)

	// None of the failed step's DDL is visible.
	var name string
	scanErr := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='doomed'").Scan(&name)
	assert.ErrorIs(t, scanErr, sql.ErrNoRows)
}

func TestMigrate_RetriesFromLastGoodVersion(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	fail := true
	third := Migration{
		Version:     3,
		Description: "flaky step",
		Apply: func(ctx context.Context, tx *sql.Tx) error {
			if fail {
				return errors.New("transient")
			}
			_, err := tx.ExecContext(ctx, "CREATE TABLE recovered (id INTEGER PRIMARY KEY)")
			return err
		},
	}
	migrations := append(testMigrations(), third)

	require.Error(t, Migrate(ctx, db, migrations))

	fail = false
	require.NoError(t, Migrate(ctx, db, migrations))

	version, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestSchemaVersion_EmptyDatabase(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	version, err := SchemaVersion(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}
