package progress

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/storage"
)

// DefaultHistoryLimit bounds GetHistory when the caller passes no limit.
const DefaultHistoryLimit = 50

// SQLiteRepository implements Repository over one progress store file.
type SQLiteRepository struct {
	db *storage.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// Open opens or creates the progress store at path and brings its
// schema up to date.
func Open(path string) (*SQLiteRepository, error) {
	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress store: %w", err)
	}
	if err := storage.Migrate(context.Background(), db, Migrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate progress store: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Close releases the store's file handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// encodeSteps serializes a step set canonically: deduplicated, sorted
// ascending, comma-joined. The empty set encodes as the empty string.
func encodeSteps(steps []int) string {
	seen := make(map[int]bool, len(steps))
	unique := make([]int, 0, len(steps))
	for _, s := range steps {
		if !seen[s] {
			seen[s] = true
			unique = append(unique, s)
		}
	}
	sort.Ints(unique)

	tokens := make([]string, len(unique))
	for i, s := range unique {
		tokens[i] = strconv.Itoa(s)
	}
	return strings.Join(tokens, ",")
}

// decodeSteps parses a stored step string. Malformed tokens are
// silently skipped.
func decodeSteps(raw string) []int {
	steps := make([]int, 0)
	if raw == "" {
		return steps
	}
	for _, token := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			continue
		}
		steps = append(steps, n)
	}
	return steps
}

// SaveProgress upserts the completed-step set for one repair.
func (r *SQLiteRepository) SaveProgress(ctx context.Context, repairID, engineID string, steps []int) error {
	query := `
		INSERT INTO repair_progress (repair_id, engine_id, steps, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(repair_id, engine_id) DO UPDATE SET
			steps = excluded.steps,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(ctx, query, repairID, engineID, encodeSteps(steps), time.Now()); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// LoadProgress returns the completed steps in ascending order, empty
// when no row exists or the step string is empty.
func (r *SQLiteRepository) LoadProgress(ctx context.Context, repairID, engineID string) ([]int, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		"SELECT steps FROM repair_progress WHERE repair_id = ? AND engine_id = ?",
		repairID, engineID).Scan(&raw)
	if err == sql.ErrNoRows {
		return []int{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSteps(raw), nil
}

// ClearProgress removes the progress row if present.
func (r *SQLiteRepository) ClearProgress(ctx context.Context, repairID, engineID string) error {
	_, err := r.db.Exec(ctx,
		"DELETE FROM repair_progress WHERE repair_id = ? AND engine_id = ?", repairID, engineID)
	return err
}

// HasProgress reports whether any completed steps are recorded. A row
// holding an empty step string does not count.
func (r *SQLiteRepository) HasProgress(ctx context.Context, repairID, engineID string) (bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		"SELECT steps FROM repair_progress WHERE repair_id = ? AND engine_id = ?",
		repairID, engineID).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return raw != "", nil
}

// ListAllProgress returns every progress row, most recently updated first.
func (r *SQLiteRepository) ListAllProgress(ctx context.Context) ([]*Progress, error) {
	query := `
		SELECT repair_id, engine_id, steps, updated_at
		FROM repair_progress
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	all := make([]*Progress, 0)
	for rows.Next() {
		var p Progress
		var raw string
		if err := rows.Scan(&p.RepairID, &p.EngineID, &raw, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Steps = decodeSteps(raw)
		all = append(all, &p)
	}
	return all, rows.Err()
}

// LogCompletedRepair appends the history row and folds its duration
// into the aggregate statistic. Both writes commit together; failure of
// either rolls back both.
func (r *SQLiteRepository) LogCompletedRepair(ctx context.Context, entry *HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.DurationMin = int(entry.FinishedAt.Sub(entry.StartedAt).Minutes())

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	historyQuery := `
		INSERT INTO repair_history (
			id, repair_id, repair_name, engine_id, engine_name,
			started_at, finished_at, duration_min, notes, rating
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var rating interface{}
	if entry.Rating != nil {
		rating = *entry.Rating
	}
	if _, err := tx.ExecContext(ctx, historyQuery,
		entry.ID, entry.RepairID, entry.RepairName, entry.EngineID, entry.EngineName,
		entry.StartedAt, entry.FinishedAt, entry.DurationMin, entry.Notes, rating); err != nil {
		return fmt.Errorf("failed to append history: %w", storage.Classify(err))
	}

	// Unqualified columns in DO UPDATE refer to the existing row, so the
	// fold reads the old count and total.
	statsQuery := `
		INSERT INTO repair_stats (
			repair_id, engine_id, times_completed, total_minutes, avg_minutes, last_completed_at
		) VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(repair_id, engine_id) DO UPDATE SET
			times_completed = times_completed + 1,
			total_minutes = total_minutes + excluded.total_minutes,
			avg_minutes = CAST(total_minutes + excluded.total_minutes AS REAL) / (times_completed + 1),
			last_completed_at = excluded.last_completed_at
	`
	if _, err := tx.ExecContext(ctx, statsQuery,
		entry.RepairID, entry.EngineID, entry.DurationMin, float64(entry.DurationMin),
		entry.FinishedAt); err != nil {
		return fmt.Errorf("failed to update statistics: %w", storage.Classify(err))
	}

	return tx.Commit()
}

// GetHistory returns entries ordered by completion time descending.
// An empty engineID returns history across all engines.
func (r *SQLiteRepository) GetHistory(ctx context.Context, engineID string, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT id, repair_id, repair_name, engine_id, engine_name,
		       started_at, finished_at, duration_min, notes, rating
		FROM repair_history
	`
	args := make([]interface{}, 0, 2)
	if engineID != "" {
		query += " WHERE engine_id = ?"
		args = append(args, engineID)
	}
	query += " ORDER BY finished_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*HistoryEntry, 0)
	for rows.Next() {
		var entry HistoryEntry
		var rating sql.NullInt64
		err := rows.Scan(
			&entry.ID, &entry.RepairID, &entry.RepairName, &entry.EngineID, &entry.EngineName,
			&entry.StartedAt, &entry.FinishedAt, &entry.DurationMin, &entry.Notes, &rating,
		)
		if err != nil {
			return nil, err
		}
		if rating.Valid {
			v := int(rating.Int64)
			entry.Rating = &v
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// DeleteHistoryEntry removes one history row by identifier. The
// aggregate statistic for its (repair, engine) pair is left untouched.
func (r *SQLiteRepository) DeleteHistoryEntry(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, "DELETE FROM repair_history WHERE id = ?", id)
	return err
}

// GetStatistics returns the aggregate for a (repair, engine) pair.
func (r *SQLiteRepository) GetStatistics(ctx context.Context, repairID, engineID string) (*Statistics, error) {
	query := `
		SELECT repair_id, engine_id, times_completed, total_minutes, avg_minutes, last_completed_at
		FROM repair_stats
		WHERE repair_id = ? AND engine_id = ?
	`
	var stats Statistics
	err := r.db.QueryRowContext(ctx, query, repairID, engineID).Scan(
		&stats.RepairID, &stats.EngineID, &stats.TimesCompleted,
		&stats.TotalMinutes, &stats.AvgMinutes, &stats.LastCompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetPreference stores a key/value pair, last write wins.
func (r *SQLiteRepository) SetPreference(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO preferences (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(ctx, query, key, value, time.Now())
	return err
}

// Preference returns the stored value or storage.ErrNotFound.
func (r *SQLiteRepository) Preference(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// PreferenceString returns the stored value or fallback when absent.
func (r *SQLiteRepository) PreferenceString(ctx context.Context, key, fallback string) string {
	value, err := r.Preference(ctx, key)
	if err != nil {
		return fallback
	}
	return value
}

// PreferenceBool returns the stored value parsed as a bool, or fallback
// when absent or unparsable.
func (r *SQLiteRepository) PreferenceBool(ctx context.Context, key string, fallback bool) bool {
	value, err := r.Preference(ctx, key)
	if err != nil {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// PreferenceInt returns the stored value parsed as an int, or fallback
// when absent or unparsable.
func (r *SQLiteRepository) PreferenceInt(ctx context.Context, key string, fallback int) int {
	value, err := r.Preference(ctx, key)
	if err != nil {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// DeletePreference removes a key if present.
func (r *SQLiteRepository) DeletePreference(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, "DELETE FROM preferences WHERE key = ?", key)
	return err
}

// ClearAllData empties progress, history, statistics, and preferences.
// Each delete commits independently; an interruption mid-call leaves a
// partially cleared store, which is acceptable for this explicit reset
// only.
func (r *SQLiteRepository) ClearAllData(ctx context.Context) error {
	for _, table := range []string{"repair_progress", "repair_history", "repair_stats", "preferences"} {
		if _, err := r.db.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
