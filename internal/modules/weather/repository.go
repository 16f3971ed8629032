// Package weather stores daily weather observations and forecasts. At most
// one logical value exists per date; refreshing a date range deletes the
// overlap before inserting, so repeated syncs never accumulate duplicates.
package weather

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
)

const dateLayout = "2006-01-02"

// Repository handles weather table access.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new weather repository.
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "weather").Logger(),
	}
}

// UpsertRange replaces all rows within [first, last] dates of the batch
// with the batch contents, in one transaction.
func (r *Repository) UpsertRange(obs []Observation, source string) error {
	if len(obs) == 0 {
		return nil
	}

	first, last := obs[0].Date, obs[0].Date
	for _, o := range obs {
		if o.Date < first {
			first = o.Date
		}
		if o.Date > last {
			last = o.Date
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM weather WHERE date BETWEEN ? AND ?", first, last); err != nil {
		return fmt.Errorf("failed to clear weather range: %w", err)
	}

	for _, o := range obs {
		if _, err := tx.Exec(
			"INSERT INTO weather(date, max_temp, rain_mm, source) VALUES (?, ?, ?, ?)",
			o.Date, o.MaxTemp, o.RainMM, source,
		); err != nil {
			return fmt.Errorf("failed to insert weather row %s: %w", o.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.log.Info().Int("rows", len(obs)).Str("source", source).
		Str("from", first).Str("to", last).Msg("Upserted weather range")
	return nil
}

// WeekByWeekday returns the known weather for the six days Mon..Sat of the
// week starting at weekStart, keyed by weekday (0=Sun..6=Sat). Days with no
// stored row are simply absent.
func (r *Repository) WeekByWeekday(weekStart time.Time) (map[int]Observation, error) {
	first := weekStart.Format(dateLayout)
	last := weekStart.AddDate(0, 0, 5).Format(dateLayout)

	rows, err := r.db.Query(
		"SELECT date, max_temp, rain_mm FROM weather WHERE date BETWEEN ? AND ?",
		first, last,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query week weather: %w", err)
	}
	defer rows.Close()

	out := make(map[int]Observation)
	for rows.Next() {
		var o Observation
		var maxTemp, rainMM sql.NullFloat64
		if err := rows.Scan(&o.Date, &maxTemp, &rainMM); err != nil {
			return nil, fmt.Errorf("failed to scan weather row: %w", err)
		}
		if maxTemp.Valid {
			o.MaxTemp = &maxTemp.Float64
		}
		if rainMM.Valid {
			o.RainMM = &rainMM.Float64
		}

		d, err := time.Parse(dateLayout, o.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid weather date: %w", err)
		}
		out[int(d.Weekday())] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weather rows: %w", err)
	}

	return out, nil
}
