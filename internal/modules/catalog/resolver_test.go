package catalog

import (
	"path/filepath"
	"testing"

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

func testRules(t *testing.T) []settings.CanonRule {
	t.Helper()
	r1, err := settings.ParseCanonRule(1, `(?i)hot\s*choc.* => Hot Chocolate`)
	require.NoError(t, err)
	r2, err := settings.ParseCanonRule(2, `(?i)coffee.* => Coffee`)
	require.NoError(t, err)
	return []settings.CanonRule{r1, r2}
}

func TestResolveEmptyName(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(NewRepository(db, zerolog.Nop()), nil, zerolog.Nop())

	_, err := resolver.Resolve("   ", nil)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestResolveSelfCanonical(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	resolver := NewResolver(repo, nil, zerolog.Nop())

	id, err := resolver.Resolve("Sourdough Loaf", nil)
	require.NoError(t, err)

	item, err := repo.GetItem(id)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Sourdough Loaf", item.CanonicalName)
	assert.True(t, item.Active)
}

func TestResolveRuleMatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	resolver := NewResolver(repo, testRules(t), zerolog.Nop())

	// Two raw spellings hit the same rule and share one item
	id1, err := resolver.Resolve("Hot Choc 200ml", nil)
	require.NoError(t, err)
	id2, err := resolver.Resolve("HOT CHOCOLATE large", nil)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	item, err := repo.GetItem(id1)
	require.NoError(t, err)
	assert.Equal(t, "Hot Chocolate", item.CanonicalName)
}

func TestResolveRulePrecedence(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	// Lower rule id wins even when both patterns match
	r1, err := settings.ParseCanonRule(1, `(?i).*special.* => First Rule`)
	require.NoError(t, err)
	r2, err := settings.ParseCanonRule(2, `(?i).*special.* => Second Rule`)
	require.NoError(t, err)

	resolver := NewResolver(repo, []settings.CanonRule{r1, r2}, zerolog.Nop())
	id, err := resolver.Resolve("Special Cake", nil)
	require.NoError(t, err)

	item, err := repo.GetItem(id)
	require.NoError(t, err)
	assert.Equal(t, "First Rule", item.CanonicalName)
}

func TestResolveIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	resolver := NewResolver(repo, testRules(t), zerolog.Nop())

	id1, err := resolver.Resolve("Coffee Regular", nil)
	require.NoError(t, err)
	id2, err := resolver.Resolve("Coffee Regular", nil)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	// Exactly one item and one alias row, not one per call
	items, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestResolveTrimsWhitespace(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(NewRepository(db, zerolog.Nop()), nil, zerolog.Nop())

	id1, err := resolver.Resolve("  Baguette  ", nil)
	require.NoError(t, err)
	id2, err := resolver.Resolve("Baguette", nil)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestResolveCategoryOnCreate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	resolver := NewResolver(repo, nil, zerolog.Nop())

	category := "drinks"
	id, err := resolver.Resolve("Flat White", &category)
	require.NoError(t, err)

	item, err := repo.GetItem(id)
	require.NoError(t, err)
	require.NotNil(t, item.Category)
	assert.Equal(t, "drinks", *item.Category)
}

func TestServiceResolveCommits(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, settings.NewRepository(db, zerolog.Nop()), zerolog.Nop())

	// Seeded canon_rule_1 maps hot choc variants
	id1, err := service.Resolve("hot choc small", nil)
	require.NoError(t, err)
	id2, err := service.Resolve("Hot Chocolate", nil)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	item, err := service.Item(id1)
	require.NoError(t, err)
	assert.Equal(t, "Hot Chocolate", item.CanonicalName)
}
