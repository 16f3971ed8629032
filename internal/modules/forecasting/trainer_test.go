package forecasting

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breadline/bakeplan/internal/database"
	"github.com/breadline/bakeplan/internal/modules/settings"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

// seedItem inserts an item with `days` consecutive days of sales (Sundays
// skipped) ending well in the past of no particular anchor, returning the
// item id.
func seedItem(t *testing.T, db *database.DB, name string, days int) int64 {
	t.Helper()

	res, err := db.Exec("INSERT INTO items(canonical_name) VALUES (?)", name)
	require.NoError(t, err)
	itemID, err := res.LastInsertId()
	require.NoError(t, err)

	date := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	inserted := 0
	for inserted < days {
		if date.Weekday() != time.Sunday {
			qty := 10 + int(date.Weekday())*3
			_, err = db.Exec(
				"INSERT INTO sales_data(date, item_name, quantity_sold, item_id) VALUES (?, ?, ?, ?)",
				date.Format("2006-01-02"), name, qty, itemID,
			)
			require.NoError(t, err)
			inserted++
		}
		date = date.AddDate(0, 0, 1)
	}
	return itemID
}

func newTrainer(db *database.DB) *Trainer {
	return NewTrainer(db, settings.NewRepository(db, zerolog.Nop()), zerolog.Nop())
}

func TestTrainItemTooLittleHistory(t *testing.T) {
	db := setupTestDB(t)
	itemID := seedItem(t, db, "Rye Loaf", 10)

	res, err := newTrainer(db).TrainItem(itemID)
	require.NoError(t, err)
	assert.False(t, res.Saved)
	assert.Equal(t, 10, res.NSamples)

	art, err := NewModelRepository(db, zerolog.Nop()).Get(itemID)
	require.NoError(t, err)
	assert.Nil(t, art)
}

func TestTrainItemNoHistory(t *testing.T) {
	db := setupTestDB(t)

	res, err := newTrainer(db).TrainItem(999)
	require.NoError(t, err)
	assert.False(t, res.Saved)
	assert.Zero(t, res.NSamples)
}

func TestTrainItemSavesArtifact(t *testing.T) {
	db := setupTestDB(t)
	itemID := seedItem(t, db, "Rye Loaf", 60)

	res, err := newTrainer(db).TrainItem(itemID)
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Equal(t, 60, res.NSamples)
	require.NotNil(t, res.CVMAPE)
	// The seeded demand is a pure weekday function; the model should nail it
	assert.Less(t, *res.CVMAPE, 15.0)

	repo := NewModelRepository(db, zerolog.Nop())
	art, err := repo.Get(itemID)
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Equal(t, ridgeAlgo, art.Algo)
	assert.Equal(t, FeatureNames(), art.FeatureNames)
	assert.Len(t, art.Model.Weights, len(art.FeatureNames))
}

func TestTrainItemRetrainReplaces(t *testing.T) {
	db := setupTestDB(t)
	itemID := seedItem(t, db, "Rye Loaf", 60)

	trainer := newTrainer(db)
	_, err := trainer.TrainItem(itemID)
	require.NoError(t, err)

	var first string
	require.NoError(t, db.QueryRow("SELECT updated_at FROM models WHERE item_id = ?", itemID).Scan(&first))

	_, err = trainer.TrainItem(itemID)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM models WHERE item_id = ?", itemID).Scan(&count))
	assert.Equal(t, 1, count)

	// Nanosecond timestamps keep back-to-back retrains strictly ordered
	// even within the same wall-clock second.
	var second string
	require.NoError(t, db.QueryRow("SELECT updated_at FROM models WHERE item_id = ?", itemID).Scan(&second))
	firstAt, err := time.Parse(time.RFC3339Nano, first)
	require.NoError(t, err)
	secondAt, err := time.Parse(time.RFC3339Nano, second)
	require.NoError(t, err)
	assert.True(t, secondAt.After(firstAt), "retrain timestamp %s not after %s", second, first)
}

func TestTrainAllRespectsMinSamples(t *testing.T) {
	db := setupTestDB(t)
	richID := seedItem(t, db, "Rye Loaf", 60)
	seedItem(t, db, "Rare Special", 5)

	results, err := newTrainer(db).TrainAll(20)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, richID, results[0].ItemID)
	assert.True(t, results[0].Saved)
}

func TestModelRepositoryList(t *testing.T) {
	db := setupTestDB(t)
	itemID := seedItem(t, db, "Rye Loaf", 60)

	_, err := newTrainer(db).TrainItem(itemID)
	require.NoError(t, err)

	infos, err := NewModelRepository(db, zerolog.Nop()).List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, itemID, infos[0].ItemID)
	assert.Equal(t, 60, infos[0].NSamples)
	assert.NotEmpty(t, infos[0].UpdatedAt)
}
