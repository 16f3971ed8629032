// Package settings manages the runtime tunables stored in the config table.
// Settings are key-value string pairs (forecast coefficients, batch floors,
// canonicalization rules) edited by operators at runtime; they are loaded
// once per operation into an immutable typed snapshot rather than re-parsed
// at each use site.
package settings

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
)

// Repository handles config table access.
type Repository struct {
	db  database.Queryer
	log zerolog.Logger
}

// NewRepository creates a new settings repository.
func NewRepository(db database.Queryer, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "settings").Logger(),
	}
}

// Get retrieves a setting value by name.
// Returns nil if the setting doesn't exist (not an error).
func (r *Repository) Get(name string) (*string, error) {
	var value sql.NullString
	err := r.db.QueryRow(
		"SELECT setting_value FROM config WHERE setting_name = ?", name,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", name, err)
	}
	if !value.Valid {
		return nil, nil
	}
	return &value.String, nil
}

// Set stores a setting value, inserting or updating as needed.
func (r *Repository) Set(name, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO config (setting_name, setting_value)
		VALUES (?, ?)
		ON CONFLICT(setting_name) DO UPDATE SET
			setting_value = excluded.setting_value
	`, name, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", name, err)
	}
	return nil
}

// All returns every setting as a name -> value map.
func (r *Repository) All() (map[string]string, error) {
	rows, err := r.db.Query("SELECT setting_name, setting_value FROM config")
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name string
		var value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out[name] = value.String
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}

	return out, nil
}
