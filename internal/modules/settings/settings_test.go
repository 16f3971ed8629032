package settings

import (
	"path/filepath"
	"testing"

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

func TestLoadDefaults(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	cfg, err := repo.Load()
	require.NoError(t, err)

	assert.Equal(t, 0.15, cfg.CoefTemp)
	assert.Equal(t, 0.10, cfg.CoefRain)
	assert.Equal(t, 6, cfg.MinBatchSize)
	assert.Equal(t, 1.5, cfg.StdAlertThreshold)
	assert.Equal(t, 26, cfg.LookbackWeeks)
	assert.True(t, cfg.SundayClosed)
	assert.Equal(t, 15.0, cfg.HolidayUpliftPct)
	assert.Equal(t, []float64{0.6, 0.75, 0.9}, cfg.CVTrainFractions)
	assert.Equal(t, 10, cfg.CVMinFoldRows)
	assert.NotEmpty(t, cfg.CanonRules)
}

func TestLoadOverrides(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Set("min_batch_size", "12"))
	require.NoError(t, repo.Set("coef_temp", "0.3"))
	require.NoError(t, repo.Set("sunday_closed", "0"))
	require.NoError(t, repo.Set("cv_train_fractions", "0.5,0.8"))

	cfg, err := repo.Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.MinBatchSize)
	assert.Equal(t, 0.3, cfg.CoefTemp)
	assert.False(t, cfg.SundayClosed)
	assert.Equal(t, []float64{0.5, 0.8}, cfg.CVTrainFractions)
}

func TestLoadMalformedFallsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Set("min_batch_size", "banana"))
	require.NoError(t, repo.Set("cv_train_fractions", "0.5,nope"))

	cfg, err := repo.Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultMinBatchSize, cfg.MinBatchSize)
	assert.Equal(t, DefaultCVTrainFractions(), cfg.CVTrainFractions)
}

func TestCanonRuleOrderingAndSkipping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	// A malformed rule must be skipped without failing the load
	require.NoError(t, repo.Set("canon_rule_9", "no separator here"))
	require.NoError(t, repo.Set("canon_rule_10", `(?i)croissant.* => Croissant`))

	cfg, err := repo.Load()
	require.NoError(t, err)

	var ids []int
	for _, rule := range cfg.CanonRules {
		ids = append(ids, rule.ID)
	}
	assert.IsIncreasing(t, ids)
	assert.NotContains(t, ids, 9)
	assert.Contains(t, ids, 10)
}

func TestParseCanonRule(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", `(?i)hot\s*choc.* => Hot Chocolate`, false},
		{"missing separator", "just a pattern", true},
		{"empty canonical", "pattern => ", true},
		{"empty pattern", " => Name", true},
		{"bad regex", "([unclosed => Name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ParseCanonRule(1, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, rule.Pattern.MatchString("Hot Choc 200ml"))
			assert.Equal(t, "Hot Chocolate", rule.Canonical)
		})
	}
}

func TestRepositoryGetSetAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	missing, err := repo.Get("does_not_exist")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Set("custom_key", "v1"))
	require.NoError(t, repo.Set("custom_key", "v2")) // upsert

	got, err := repo.Get("custom_key")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v2", *got)

	all, err := repo.All()
	require.NoError(t, err)
	assert.Equal(t, "v2", all["custom_key"])
}
