package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/storage"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	repo, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testEntry(repairID, engineID string, start time.Time, minutes int) *HistoryEntry {
	return &HistoryEntry{
		RepairID:   repairID,
		RepairName: "Water Pump Replacement",
		EngineID:   engineID,
		EngineName: "LS1 5.7L",
		StartedAt:  start,
		FinishedAt: start.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestSaveLoadProgress_Canonical(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveProgress(ctx, "water_pump", "ls1", []int{3, 1, 2, 3}))

	steps, err := repo.LoadProgress(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, steps)

	has, err := repo.HasProgress(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSaveProgress_Overwrites(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveProgress(ctx, "water_pump", "ls1", []int{1, 2}))
	require.NoError(t, repo.SaveProgress(ctx, "water_pump", "ls1", []int{5}))

	steps, err := repo.LoadProgress(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.Equal(t, []int{5}, steps)
}

func TestSaveProgress_EmptySet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveProgress(ctx, "water_pump", "ls1", nil))

	steps, err := repo.LoadProgress(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.Empty(t, steps)

	// A row with no completed steps does not count as progress.
	has, err := repo.HasProgress(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLoadProgress_MissingRow(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	steps, err := repo.LoadProgress(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.NotNil(t, steps)
	assert.Empty(t, steps)

	has, err := repo.HasProgress(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLoadProgress_SkipsMalformedTokens(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.db.Exec(ctx,
		"INSERT INTO repair_progress (repair_id, engine_id, steps, updated_at) VALUES (?, ?, ?, ?)",
		"water_pump", "ls1", "1,garbage,3,", time.Now())
	require.NoError(t, err)

	steps, err := repo.LoadProgress(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, steps)
}

func TestClearProgress(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveProgress(ctx, "water_pump", "ls1", []int{1}))
	require.NoError(t, repo.ClearProgress(ctx, "water_pump", "ls1"))

	has, err := repo.HasProgress(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.False(t, has)

	// Clearing an absent row is not an error.
	require.NoError(t, repo.ClearProgress(ctx, "water_pump", "ls1"))
}

func TestListAllProgress_RecentFirst(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	now := time.Now()
	for i, repairID := range []string{"older", "newer"} {
		_, err := repo.db.Exec(ctx,
			"INSERT INTO repair_progress (repair_id, engine_id, steps, updated_at) VALUES (?, ?, ?, ?)",
			repairID, "ls1", "1", now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	all, err := repo.ListAllProgress(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "newer", all[0].RepairID)
	assert.Equal(t, "older", all[1].RepairID)
	assert.Equal(t, []int{1}, all[0].Steps)
}

func TestLogCompletedRepair_FillsIDAndDuration(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	entry := testEntry("water_pump", "ls1", time.Now().Add(-90*time.Minute), 90)
	require.NoError(t, repo.LogCompletedRepair(ctx, entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, 90, entry.DurationMin)

	entries, err := repo.GetHistory(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, "Water Pump Replacement", entries[0].RepairName)
	assert.Nil(t, entries[0].Rating)
}

func TestLogCompletedRepair_FoldsStatistics(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	start := time.Now().Add(-2 * time.Hour)
	require.NoError(t, repo.LogCompletedRepair(ctx, testEntry("water_pump", "ls1", start, 30)))
	require.NoError(t, repo.LogCompletedRepair(ctx, testEntry("water_pump", "ls1", start.Add(time.Hour), 50)))

	stats, err := repo.GetStatistics(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TimesCompleted)
	assert.Equal(t, 80, stats.TotalMinutes)
	assert.InDelta(t, 40.0, stats.AvgMinutes, 0.001)
	assert.WithinDuration(t, start.Add(time.Hour+50*time.Minute), stats.LastCompletedAt, time.Second)
}

func TestLogCompletedRepair_StatsPerPair(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	start := time.Now().Add(-time.Hour)
	require.NoError(t, repo.LogCompletedRepair(ctx, testEntry("water_pump", "ls1", start, 30)))
	require.NoError(t, repo.LogCompletedRepair(ctx, testEntry("water_pump", "lt1", start, 45)))

	stats, err := repo.GetStatistics(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TimesCompleted)
	assert.Equal(t, 30, stats.TotalMinutes)
}

func TestLogCompletedRepair_PersistsRating(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rating := 4
	entry := testEntry("water_pump", "ls1", time.Now().Add(-time.Hour), 60)
	entry.Rating = &rating
	entry.Notes = "replaced gasket too"
	require.NoError(t, repo.LogCompletedRepair(ctx, entry))

	entries, err := repo.GetHistory(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Rating)
	assert.Equal(t, 4, *entries[0].Rating)
	assert.Equal(t, "replaced gasket too", entries[0].Notes)
}

func TestGetHistory_FilterAndLimit(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	start := time.Now().Add(-5 * time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.LogCompletedRepair(ctx,
			testEntry("water_pump", "ls1", start.Add(time.Duration(i)*time.Hour), 30)))
	}
	require.NoError(t, repo.LogCompletedRepair(ctx, testEntry("thermostat", "lt1", start, 20)))

	entries, err := repo.GetHistory(ctx, "ls1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Most recent completion first.
	assert.True(t, entries[0].FinishedAt.After(entries[1].FinishedAt))

	entries, err = repo.GetHistory(ctx, "ls1", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = repo.GetHistory(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestDeleteHistoryEntry_LeavesStatistics(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	entry := testEntry("water_pump", "ls1", time.Now().Add(-time.Hour), 30)
	require.NoError(t, repo.LogCompletedRepair(ctx, entry))
	require.NoError(t, repo.DeleteHistoryEntry(ctx, entry.ID))

	entries, err := repo.GetHistory(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Pruning the log does not rewrite the aggregates.
	stats, err := repo.GetStatistics(ctx, "water_pump", "ls1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TimesCompleted)
	assert.Equal(t, 30, stats.TotalMinutes)
}

func TestGetStatistics_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetStatistics(context.Background(), "water_pump", "ls1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPreferences_LastWriteWins(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetPreference(ctx, "units", "metric"))
	require.NoError(t, repo.SetPreference(ctx, "units", "imperial"))

	value, err := repo.Preference(ctx, "units")
	require.NoError(t, err)
	assert.Equal(t, "imperial", value)

	_, err = repo.Preference(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPreferences_TypedGetters(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetPreference(ctx, "dark_mode", "true"))
	require.NoError(t, repo.SetPreference(ctx, "history_limit", "25"))
	require.NoError(t, repo.SetPreference(ctx, "bad_int", "lots"))

	assert.Equal(t, "true", repo.PreferenceString(ctx, "dark_mode", "false"))
	assert.Equal(t, "fallback", repo.PreferenceString(ctx, "missing", "fallback"))

	assert.True(t, repo.PreferenceBool(ctx, "dark_mode", false))
	assert.False(t, repo.PreferenceBool(ctx, "missing", false))
	assert.True(t, repo.PreferenceBool(ctx, "bad_int", true))

	assert.Equal(t, 25, repo.PreferenceInt(ctx, "history_limit", 50))
	assert.Equal(t, 50, repo.PreferenceInt(ctx, "missing", 50))
	assert.Equal(t, 50, repo.PreferenceInt(ctx, "bad_int", 50))
}

func TestDeletePreference(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetPreference(ctx, "units", "metric"))
	require.NoError(t, repo.DeletePreference(ctx, "units"))

	_, err := repo.Preference(ctx, "units")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, repo.DeletePreference(ctx, "units"))
}

func TestClearAllData(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveProgress(ctx, "water_pump", "ls1", []int{1, 2}))
	require.NoError(t, repo.LogCompletedRepair(ctx, testEntry("water_pump", "ls1", time.Now().Add(-time.Hour), 30)))
	require.NoError(t, repo.SetPreference(ctx, "units", "metric"))

	require.NoError(t, repo.ClearAllData(ctx))

	all, err := repo.ListAllProgress(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	entries, err := repo.GetHistory(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = repo.GetStatistics(ctx, "water_pump", "ls1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.Preference(ctx, "units")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEncodeSteps(t *testing.T) {
	assert.Equal(t, "", encodeSteps(nil))
	assert.Equal(t, "", encodeSteps([]int{}))
	assert.Equal(t, "1,2,3", encodeSteps([]int{3, 1, 2}))
	assert.Equal(t, "1,2", encodeSteps([]int{2, 1, 2, 1}))
}
