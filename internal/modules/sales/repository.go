package sales

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
)

const dateLayout = "2006-01-02"

// Repository handles sales_data access.
type Repository struct {
	db  database.Queryer
	log zerolog.Logger
}

// NewRepository creates a new sales repository.
func NewRepository(db database.Queryer, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "sales").Logger(),
	}
}

// Insert adds one observation. The unique (date, item_id) index makes a
// second observation for the same day fail loudly instead of overwriting.
func (r *Repository) Insert(date string, itemID int64, itemName string, quantity int, deviceStore *string, isPromo bool) error {
	promo := 0
	if isPromo {
		promo = 1
	}
	_, err := r.db.Exec(
		`INSERT INTO sales_data(date, item_name, quantity_sold, device_store, is_promo, item_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		date, itemName, quantity, deviceStore, promo, itemID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sales row (%s, item %d): %w", date, itemID, err)
	}
	return nil
}

// HistorySince returns all observations on or after cutoff, joined with
// canonical display names, ordered by date.
func (r *Repository) HistorySince(cutoff time.Time) ([]HistoryRow, error) {
	rows, err := r.db.Query(
		`SELECT s.date, s.item_id, s.quantity_sold, i.canonical_name
		 FROM sales_data s
		 JOIN items i ON i.id = s.item_id
		 WHERE s.date >= ?
		 ORDER BY s.date`,
		cutoff.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales history: %w", err)
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		var dateStr string
		if err := rows.Scan(&dateStr, &h.ItemID, &h.Quantity, &h.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan sales row: %w", err)
		}
		h.Date, err = time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid date in sales row: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales history: %w", err)
	}

	return out, nil
}

// ItemHistory returns the full daily history for one item joined with
// weather and a holiday flag, ordered by date. A day counts as a holiday
// when an event of type public_holiday or with a positive uplift falls on
// it.
func (r *Repository) ItemHistory(itemID int64) ([]ItemDay, error) {
	rows, err := r.db.Query(
		`SELECT s.date, CAST(s.quantity_sold AS REAL), w.max_temp, w.rain_mm,
		        EXISTS (
		          SELECT 1 FROM events e
		          WHERE e.date = s.date
		            AND (e.event_type = 'public_holiday' OR COALESCE(e.uplift_pct, 0) > 0)
		        )
		 FROM sales_data s
		 LEFT JOIN weather w ON w.date = s.date
		 WHERE s.item_id = ?
		 ORDER BY s.date`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query item history: %w", err)
	}
	defer rows.Close()

	var out []ItemDay
	for rows.Next() {
		var d ItemDay
		var dateStr string
		var maxTemp, rainMM sql.NullFloat64
		var isHoliday int
		if err := rows.Scan(&dateStr, &d.Quantity, &maxTemp, &rainMM, &isHoliday); err != nil {
			return nil, fmt.Errorf("failed to scan item history row: %w", err)
		}
		d.Date, err = time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid date in item history: %w", err)
		}
		if maxTemp.Valid {
			d.MaxTemp = &maxTemp.Float64
		}
		if rainMM.Valid {
			d.RainMM = &rainMM.Float64
		}
		d.Weekday = int(d.Date.Weekday())
		d.IsHoliday = isHoliday != 0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item history: %w", err)
	}

	return out, nil
}

// ItemCounts returns, for every item with at least minSamples observations,
// the observation count, most numerous first.
func (r *Repository) ItemCounts(minSamples int) ([]ItemCount, error) {
	rows, err := r.db.Query(
		`SELECT item_id, COUNT(*) AS n
		 FROM sales_data
		 GROUP BY item_id
		 HAVING n >= ?
		 ORDER BY n DESC`,
		minSamples,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query item counts: %w", err)
	}
	defer rows.Close()

	var out []ItemCount
	for rows.Next() {
		var c ItemCount
		if err := rows.Scan(&c.ItemID, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan item count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item counts: %w", err)
	}

	return out, nil
}
