package forecasting

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breadline/bakeplan/internal/database"
	"github.com/breadline/bakeplan/internal/modules/calendar"
	"github.com/breadline/bakeplan/internal/modules/sales"
	"github.com/breadline/bakeplan/internal/modules/settings"
	"github.com/breadline/bakeplan/internal/modules/weather"
)

func TestNextMonday(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want string
	}{
		{"monday counts as itself", time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC), "2025-03-03"},
		{"tuesday rolls forward", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), "2025-03-10"},
		{"sunday is one day out", time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC), "2025-03-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextMonday(tt.from)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestTypicalWeekNote(t *testing.T) {
	// Historical weekly totals: mean 100, std 10, threshold 1.5
	stats := weekStats{Mean: 100, StdDev: 10}

	tests := []struct {
		name     string
		forecast float64
		want     string
	}{
		{"inside the band", 100, "As expected"},
		{"exactly on the upper bound", 115, "As expected"},
		{"just above the band", 116, "Higher than usual (+16%)"},
		{"exactly on the lower bound", 85, "As expected"},
		{"just below the band", 84, "Lower than usual (-16%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, typicalWeekNote(tt.forecast, stats, 1.5))
		})
	}
}

func TestTypicalWeekNoteNoHistory(t *testing.T) {
	assert.Equal(t, "No typical week yet", typicalWeekNote(50, weekStats{}, 1.5))
	// Zero spread keeps everything "As expected"
	assert.Equal(t, "As expected", typicalWeekNote(500, weekStats{Mean: 100, StdDev: 0}, 1.5))
}

func TestWeeklyStats(t *testing.T) {
	mon := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	history := []sales.HistoryRow{
		// Week one: 10 + 20
		{Date: mon, ItemID: 1, Quantity: 10},
		{Date: mon.AddDate(0, 0, 3), ItemID: 1, Quantity: 20},
		// Week two: 40, entered on a Saturday
		{Date: mon.AddDate(0, 0, 12), ItemID: 1, Quantity: 40},
	}

	stats := weeklyStats(history)
	require.Contains(t, stats, int64(1))
	assert.InDelta(t, 35.0, stats[1].Mean, 1e-9)
	assert.Greater(t, stats[1].StdDev, 0.0)
}

func newForecastService(t *testing.T, db *database.DB) *Service {
	t.Helper()
	log := zerolog.Nop()
	return NewService(
		db,
		settings.NewRepository(db, log),
		weather.NewRepository(db, log),
		calendar.NewRepository(db, log),
		log,
	)
}

func TestGenerateRejectsBadBlendWeight(t *testing.T) {
	db := setupTestDB(t)
	svc := newForecastService(t, db)

	_, err := svc.Generate(nil, true, 1.5)
	assert.Error(t, err)
	_, err = svc.Generate(nil, true, -0.1)
	assert.Error(t, err)
}

func TestGenerateEmptyHistory(t *testing.T) {
	db := setupTestDB(t)
	svc := newForecastService(t, db)

	table, err := svc.Generate(nil, false, 0.5)
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.Empty(t, table.RunID)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM forecasts").Scan(&count))
	assert.Zero(t, count)
}

// seedRecentItem inserts sales history covering the weeks right before
// weekStart so the lookback window finds it.
func seedRecentItem(t *testing.T, db *database.DB, name string, weekStart time.Time, weeks int, qty int) int64 {
	t.Helper()

	res, err := db.Exec("INSERT INTO items(canonical_name) VALUES (?)", name)
	require.NoError(t, err)
	itemID, err := res.LastInsertId()
	require.NoError(t, err)

	// Start two weeks back so no seeded row lands in the future when
	// weekStart is beyond today.
	for w := 2; w <= weeks+1; w++ {
		monday := weekStart.AddDate(0, 0, -7*w)
		for d := 0; d < 6; d++ {
			date := monday.AddDate(0, 0, d)
			_, err = db.Exec(
				"INSERT INTO sales_data(date, item_name, quantity_sold, item_id) VALUES (?, ?, ?, ?)",
				date.Format("2006-01-02"), name, qty, itemID,
			)
			require.NoError(t, err)
		}
	}
	return itemID
}

func TestGeneratePersistsRun(t *testing.T) {
	db := setupTestDB(t)
	svc := newForecastService(t, db)

	weekStart := NextMonday(time.Now())
	seedRecentItem(t, db, "Rye Loaf", weekStart, 8, 10)

	table, err := svc.Generate(&weekStart, false, 0.5)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.NotEmpty(t, table.RunID)

	row := table.Rows[0]
	assert.Equal(t, "Rye Loaf", row.ItemName)
	// Constant demand of 10/day across Mon..Sat
	assert.Equal(t, 60, row.WeeklyTotal)
	assert.Equal(t, 10, row.Mon)
	assert.Equal(t, 10, row.Sat)
	assert.Equal(t, "As expected", row.Notes)

	repo := NewForecastRepository(db, zerolog.Nop())
	runs, err := repo.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, table.RunID, runs[0].RunID)
	assert.Equal(t, 1, runs[0].Items)

	stored, err := repo.GetRun(table.RunID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 10, stored[0].Wed)
	assert.Equal(t, weekStart.Format("2006-01-02"), stored[0].WeekStartDate)
}

func TestGenerateAppliesBatchFloor(t *testing.T) {
	db := setupTestDB(t)
	svc := newForecastService(t, db)

	weekStart := NextMonday(time.Now())
	seedRecentItem(t, db, "Rare Tart", weekStart, 8, 2)

	// Default min_batch_size is 6: a steady 2/day forecast floors up
	table, err := svc.Generate(&weekStart, false, 0.5)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, 6, table.Rows[0].Mon)
}

func TestGenerateBlendWeightZeroMatchesBaseline(t *testing.T) {
	db := setupTestDB(t)
	svc := newForecastService(t, db)

	weekStart := NextMonday(time.Now())
	itemID := seedRecentItem(t, db, "Rye Loaf", weekStart, 10, 10)

	// Train a model so the blend path actually runs
	trainer := NewTrainer(db, settings.NewRepository(db, zerolog.Nop()), zerolog.Nop())
	res, err := trainer.TrainItem(itemID)
	require.NoError(t, err)
	require.True(t, res.Saved)

	baseline, err := svc.Generate(&weekStart, false, 0.5)
	require.NoError(t, err)
	blended, err := svc.Generate(&weekStart, true, 0.0)
	require.NoError(t, err)

	// Weight zero keeps the baseline numbers exactly
	require.Len(t, blended.Rows, 1)
	assert.Equal(t, baseline.Rows[0].WeeklyTotal, blended.Rows[0].WeeklyTotal)
	assert.Equal(t, baseline.Rows[0].Mon, blended.Rows[0].Mon)
	assert.Equal(t, baseline.Rows[0].Sat, blended.Rows[0].Sat)
}

func TestGenerateBlendWeightOneMatchesModel(t *testing.T) {
	db := setupTestDB(t)
	svc := newForecastService(t, db)
	log := zerolog.Nop()

	weekStart := NextMonday(time.Now())
	itemID := seedRecentItem(t, db, "Rye Loaf", weekStart, 10, 10)

	trainer := NewTrainer(db, settings.NewRepository(db, log), log)
	res, err := trainer.TrainItem(itemID)
	require.NoError(t, err)
	require.True(t, res.Saved)

	// Run the prediction path by hand from the stored artifact, the same
	// inputs the blender uses.
	art, err := NewModelRepository(db, log).Get(itemID)
	require.NoError(t, err)
	require.NotNil(t, art)

	history, err := sales.NewRepository(db, log).ItemHistory(itemID)
	require.NoError(t, err)
	week, err := weather.NewRepository(db, log).WeekByWeekday(weekStart)
	require.NoError(t, err)
	holidays, err := calendar.NewRepository(db, log).HolidaysBetween(
		weekStart.Format("2006-01-02"), weekStart.AddDate(0, 0, 5).Format("2006-01-02"))
	require.NoError(t, err)

	preds := predictWeek(art, history, weekStart, week, holidays)

	// Weight one drops the baseline entirely: every day is the model
	// prediction, with only the minimum-batch floor applied on top.
	table, err := svc.Generate(&weekStart, true, 1.0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	got := []int{row.Mon, row.Tue, row.Wed, row.Thu, row.Fri, row.Sat}
	for d := 0; d < 6; d++ {
		want := int(preds[d])
		if want > 0 && want < 6 {
			want = 6 // default min_batch_size
		}
		assert.Equal(t, want, got[d], "day offset %d", d)
	}
}
