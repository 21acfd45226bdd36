package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repository methods are written against it so the same implementation
// serves both direct calls and calls inside an enclosing transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB owns the single exclusive connection to one on-disk store file.
// All statements for that store go through it. It is not safe for
// overlapping transactions; callers serialize access per handle.
type DB struct {
	sql  *sql.DB
	path string
}

// Open creates the containing directory if absent, opens or creates the
// database file, and configures the connection. Open failure wraps
// ErrConnection and is fatal for the store.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: create directory %s: %v", ErrConnection, dir, err)
			}
		}
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrConnection, path, err)
	}

	// Single writer: the embedded engine serializes all access behind one
	// connection, so overlapping transactions never occur on this handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable WAL mode for better read concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: enable WAL mode: %v", ErrConnection, err)
	}

	// Enable foreign keys so deletes cascade per schema
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: enable foreign keys: %v", ErrConnection, err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: set busy timeout: %v", ErrConnection, err)
	}

	return &DB{sql: db, path: path}, nil
}

// Path returns the on-disk location of the store file.
func (d *DB) Path() string {
	return d.path
}

// Close releases the underlying file handle. The handle must not be used
// after Close.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Exec runs a single statement and returns the affected row count.
// Constraint violations are classified so callers can errors.Is against
// ErrConstraint.
func (d *DB) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := d.sql.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, Classify(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Begin starts a scoped transaction. Callers pair it with
// defer tx.Rollback() so every exit path rolls back unless Commit ran;
// Rollback after Commit is a no-op.
func (d *DB) Begin(ctx context.Context) (*sql.Tx, error) {
	return d.sql.BeginTx(ctx, nil)
}

// ExecContext implements Querier against the base connection.
func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return d.sql.ExecContext(ctx, query, args...)
}

// QueryContext implements Querier against the base connection.
func (d *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, query, args...)
}

// QueryRowContext implements Querier against the base connection.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return d.sql.QueryRowContext(ctx, query, args...)
}
