package weather

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breadline/bakeplan/internal/database"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

func fp(v float64) *float64 { return &v }

func TestUpsertRangeReplacesOverlap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.UpsertRange([]Observation{
		{Date: "2025-03-03", MaxTemp: fp(20), RainMM: fp(1)},
		{Date: "2025-03-04", MaxTemp: fp(22), RainMM: fp(0)},
	}, "forecast"))

	// Re-sync the same range with revised values
	require.NoError(t, repo.UpsertRange([]Observation{
		{Date: "2025-03-03", MaxTemp: fp(25), RainMM: fp(3)},
		{Date: "2025-03-04", MaxTemp: fp(21), RainMM: fp(0)},
	}, "archive"))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM weather").Scan(&count))
	assert.Equal(t, 2, count)

	weekStart := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC) // Monday
	week, err := repo.WeekByWeekday(weekStart)
	require.NoError(t, err)

	require.Contains(t, week, 1)
	assert.Equal(t, 25.0, *week[1].MaxTemp)
}

func TestWeekByWeekdayOmitsMissingDays(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.UpsertRange([]Observation{
		{Date: "2025-03-05", MaxTemp: fp(18)}, // Wednesday, no rain value
	}, "forecast"))

	week, err := repo.WeekByWeekday(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, week, 1)
	require.Contains(t, week, 3)
	assert.Equal(t, 18.0, *week[3].MaxTemp)
	assert.Nil(t, week[3].RainMM)
}

func TestUpsertRangeEmptyIsNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	require.NoError(t, repo.UpsertRange(nil, "forecast"))
}
