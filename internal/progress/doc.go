// Package progress persists per-user repair state: in-flight step
// progress, the append-only completion history, running statistics
// folded from that history, and app preferences.
//
// The store is one self-contained SQLite file, independent from the
// catalog store. History appends and statistic folds share a
// transaction so the aggregates never drift from the log.
package progress
