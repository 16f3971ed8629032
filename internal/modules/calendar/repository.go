// Package calendar stores demand-relevant calendar events: public holidays
// and ad-hoc uplift events (markets, festivals, promotions).
package calendar

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
)

const dateLayout = "2006-01-02"

// Repository handles events table access.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new calendar repository.
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "calendar").Logger(),
	}
}

// ReplaceHolidays swaps out all public_holiday rows within the date span of
// the batch for the batch contents. Other event types are untouched.
func (r *Repository) ReplaceHolidays(events []Event) error {
	if len(events) == 0 {
		return nil
	}

	first, last := events[0].Date, events[0].Date
	for _, e := range events {
		if e.Date < first {
			first = e.Date
		}
		if e.Date > last {
			last = e.Date
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM events WHERE date BETWEEN ? AND ? AND event_type = ?",
		first, last, EventTypeHoliday,
	); err != nil {
		return fmt.Errorf("failed to clear holiday range: %w", err)
	}

	for _, e := range events {
		if _, err := tx.Exec(
			"INSERT INTO events(date, event_name, event_type, uplift_pct) VALUES (?, ?, ?, ?)",
			e.Date, e.Name, EventTypeHoliday, e.UpliftPct,
		); err != nil {
			return fmt.Errorf("failed to insert holiday %s: %w", e.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.log.Info().Int("rows", len(events)).Str("from", first).Str("to", last).
		Msg("Replaced holiday events")
	return nil
}

// Add inserts a single event.
func (r *Repository) Add(e Event) error {
	if _, err := time.Parse(dateLayout, e.Date); err != nil {
		return fmt.Errorf("invalid event date %q: %w", e.Date, err)
	}

	var eventType interface{}
	if e.Type != "" {
		eventType = e.Type
	}
	_, err := r.db.Exec(
		"INSERT INTO events(date, event_name, event_type, uplift_pct) VALUES (?, ?, ?, ?)",
		e.Date, e.Name, eventType, e.UpliftPct,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// WeekEvents returns all events in the six days Mon..Sat of the week
// starting at weekStart, ordered by date.
func (r *Repository) WeekEvents(weekStart time.Time) ([]Event, error) {
	first := weekStart.Format(dateLayout)
	last := weekStart.AddDate(0, 0, 5).Format(dateLayout)

	rows, err := r.db.Query(
		"SELECT date, event_name, event_type, uplift_pct FROM events WHERE date BETWEEN ? AND ? ORDER BY date",
		first, last,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query week events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var eventType sql.NullString
		if err := rows.Scan(&e.Date, &e.Name, &eventType, &e.UpliftPct); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Type = eventType.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return out, nil
}

// HolidaysBetween returns dates (YYYY-MM-DD) within [first, last] that
// carry a holiday or positive-uplift event.
func (r *Repository) HolidaysBetween(first, last string) (map[string]bool, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT date FROM events
		 WHERE date BETWEEN ? AND ?
		   AND (event_type = ? OR COALESCE(uplift_pct, 0) > 0)`,
		first, last, EventTypeHoliday,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan holiday date: %w", err)
		}
		out[d] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holidays: %w", err)
	}

	return out, nil
}
