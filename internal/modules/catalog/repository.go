package catalog

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
)

// Repository handles item and alias database operations. It works against
// either a *sql.DB or an open transaction, so resolution can participate in
// the caller's transactional unit.
type Repository struct {
	db  database.Queryer
	log zerolog.Logger
}

// NewRepository creates a new catalog repository.
func NewRepository(db database.Queryer, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "catalog").Logger(),
	}
}

// GetItemIDByAlias returns the item id an alias points to, or nil when the
// alias is unknown.
func (r *Repository) GetItemIDByAlias(alias string) (*int64, error) {
	var id int64
	err := r.db.QueryRow("SELECT item_id FROM item_aliases WHERE alias = ?", alias).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query alias: %w", err)
	}
	return &id, nil
}

// GetItemIDByCanonical returns the id of the item with the given canonical
// name, or nil when no such item exists.
func (r *Repository) GetItemIDByCanonical(canonical string) (*int64, error) {
	var id int64
	err := r.db.QueryRow("SELECT id FROM items WHERE canonical_name = ?", canonical).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item by canonical name: %w", err)
	}
	return &id, nil
}

// GetItem returns a full item row, or nil when not found.
func (r *Repository) GetItem(id int64) (*Item, error) {
	var item Item
	var category sql.NullString
	var active int

	err := r.db.QueryRow(
		"SELECT id, canonical_name, category, active FROM items WHERE id = ?", id,
	).Scan(&item.ID, &item.CanonicalName, &category, &active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item: %w", err)
	}

	if category.Valid {
		item.Category = &category.String
	}
	item.Active = active != 0
	return &item, nil
}

// GetAll returns all items ordered by canonical name.
func (r *Repository) GetAll() ([]Item, error) {
	rows, err := r.db.Query("SELECT id, canonical_name, category, active FROM items ORDER BY canonical_name")
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var category sql.NullString
		var active int
		if err := rows.Scan(&item.ID, &item.CanonicalName, &category, &active); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if category.Valid {
			item.Category = &category.String
		}
		item.Active = active != 0
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// CreateAlias links a raw name to an existing item.
func (r *Repository) CreateAlias(alias string, itemID int64) error {
	_, err := r.db.Exec("INSERT INTO item_aliases(alias, item_id) VALUES (?, ?)", alias, itemID)
	if err != nil {
		return fmt.Errorf("failed to create alias: %w", err)
	}
	return nil
}

// CreateItemWithAlias inserts a new item and the alias pointing to it.
// The caller is responsible for running this inside a transaction when
// atomicity with other writes is required.
func (r *Repository) CreateItemWithAlias(canonical, alias string, category *string) (int64, error) {
	res, err := r.db.Exec(
		"INSERT INTO items(canonical_name, category, active) VALUES (?, ?, 1)",
		canonical, category,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create item: %w", err)
	}

	itemID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new item id: %w", err)
	}

	if err := r.CreateAlias(alias, itemID); err != nil {
		return 0, err
	}

	return itemID, nil
}

// UpdateItem mutates the operator-editable fields of an item.
func (r *Repository) UpdateItem(id int64, category *string, active bool) error {
	activeInt := 0
	if active {
		activeInt = 1
	}
	res, err := r.db.Exec(
		"UPDATE items SET category = ?, active = ? WHERE id = ?",
		category, activeInt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item %d not found", id)
	}
	return nil
}
