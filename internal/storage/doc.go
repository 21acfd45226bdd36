// Package storage provides the SQLite connection handle and the
// schema-migration engine shared by the catalog and progress stores.
//
// Each logical store is one self-contained database file owned by a
// single DB handle. The handle serializes all access behind one
// connection; callers that need concurrency open independent stores.
//
// # Basic Usage
//
//	db, err := storage.Open(filepath.Join(dataDir, "catalog.db"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := storage.Migrate(ctx, db, catalog.Migrations()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Migrations
//
// Migrations are integer-versioned steps applied in ascending order,
// each inside its own transaction. Applied versions are recorded in the
// schema_migrations table, so re-running the engine is a no-op and an
// interrupted run resumes from the last committed version on the next
// startup.
//
// # Build Tags
//
// Two driver configurations are supported:
//
// CGO build (sqlite_cgo tag; sqlite_fts5 is required so the mattn
// driver compiles the FTS5 module the catalog schema depends on):
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5" ./...
//
// Pure Go build (default, or the purego tag; FTS5 is always compiled
// in):
//
//	CGO_ENABLED=0 go build ./...
package storage
