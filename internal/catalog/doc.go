// Package catalog persists the parts catalog: part records, their spec
// attributes and alternate part numbers, engine fitment associations,
// and an FTS5 shadow index for search.
//
// The shadow index is kept consistent with part records by an explicit
// delete+reinsert inside every write transaction. For every live part
// there is exactly one shadow entry with identical projected fields.
//
// The store is one self-contained SQLite file, independent from the
// progress store, so both repositories can be used from different
// goroutines without shared locking.
package catalog
