package progress

import (
	"context"
	"time"
)

// Progress is the current in-flight state of one repair on one engine:
// the set of completed step numbers. It is distinct from history; a
// repair in progress has a Progress row, a finished repair has a
// HistoryEntry.
type Progress struct {
	RepairID  string
	EngineID  string
	Steps     []int
	UpdatedAt time.Time
}

// HistoryEntry is the immutable record of one completed repair. Name
// fields are snapshots taken at completion time, so the log stays
// readable even if the catalog changes later.
type HistoryEntry struct {
	ID          string
	RepairID    string
	RepairName  string
	EngineID    string
	EngineName  string
	StartedAt   time.Time
	FinishedAt  time.Time
	DurationMin int
	Notes       string
	Rating      *int
}

// Statistics is the running aggregate over all history entries sharing
// one (repair, engine) pair, maintained incrementally on each append.
type Statistics struct {
	RepairID        string
	EngineID        string
	TimesCompleted  int
	TotalMinutes    int
	AvgMinutes      float64
	LastCompletedAt time.Time
}

// Repository defines the progress store contract.
type Repository interface {
	// SaveProgress upserts the completed-step set for a repair. The set
	// is stored deduplicated and sorted; an empty set is stored as an
	// empty string and still reports HasProgress == false.
	SaveProgress(ctx context.Context, repairID, engineID string, steps []int) error
	// LoadProgress returns the completed steps in ascending order.
	// Missing rows and empty step strings yield an empty slice;
	// malformed tokens are skipped, not errors.
	LoadProgress(ctx context.Context, repairID, engineID string) ([]int, error)
	ClearProgress(ctx context.Context, repairID, engineID string) error
	HasProgress(ctx context.Context, repairID, engineID string) (bool, error)
	// ListAllProgress returns every progress row, most recently updated first.
	ListAllProgress(ctx context.Context) ([]*Progress, error)

	// LogCompletedRepair appends the history entry and folds its
	// duration into the aggregate statistic in one transaction, so
	// statistics never drift from history. A missing entry ID is
	// generated; DurationMin is derived from the start and end times.
	LogCompletedRepair(ctx context.Context, entry *HistoryEntry) error
	// GetHistory returns entries ordered by completion time descending,
	// optionally filtered by engine (empty engineID means all), bounded
	// by limit.
	GetHistory(ctx context.Context, engineID string, limit int) ([]*HistoryEntry, error)
	// DeleteHistoryEntry removes one history row. The associated
	// aggregate statistic is intentionally not decremented; history
	// deletion is pruning, not correction.
	DeleteHistoryEntry(ctx context.Context, id string) error
	// GetStatistics returns the aggregate for a (repair, engine) pair,
	// or storage.ErrNotFound.
	GetStatistics(ctx context.Context, repairID, engineID string) (*Statistics, error)

	// Preferences are last-write-wins key/value settings.
	SetPreference(ctx context.Context, key, value string) error
	Preference(ctx context.Context, key string) (string, error)
	PreferenceString(ctx context.Context, key, fallback string) string
	PreferenceBool(ctx context.Context, key string, fallback bool) bool
	PreferenceInt(ctx context.Context, key string, fallback int) int
	DeletePreference(ctx context.Context, key string) error

	// ClearAllData empties progress, history, statistics, and
	// preferences. Each table is cleared independently; this is an
	// explicit reset, not a transaction.
	ClearAllData(ctx context.Context) error

	Close() error
}
