package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrConnection is returned when the database file cannot be opened or created
	ErrConnection = errors.New("connection failed")
	// ErrMigration is returned when a migration step fails
	ErrMigration = errors.New("migration failed")
	// ErrConstraint is returned when a statement violates a uniqueness,
	// foreign-key, or check constraint
	ErrConstraint = errors.New("constraint violation")
)

// Classify wraps a driver error with the matching sentinel so callers can
// test with errors.Is. Both the mattn and modernc drivers surface
// constraint failures with "constraint" in the message; neither exposes a
// typed error common to both builds, so message matching is the portable
// check.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "constraint") {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}
