package forecasting

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
)

// StoredForecast is one persisted forecast row. The table is append-only;
// rows sharing a run id form one generation run.
type StoredForecast struct {
	RunID         string `json:"run_id"`
	WeekStartDate string `json:"week_start_date"`
	ItemName      string `json:"item_name"`
	Mon           int    `json:"mon"`
	Tue           int    `json:"tue"`
	Wed           int    `json:"wed"`
	Thu           int    `json:"thu"`
	Fri           int    `json:"fri"`
	Sat           int    `json:"sat"`
	Notes         string `json:"notes"`
	CreatedAt     string `json:"created_at"`
}

// ForecastRepository handles the append-only forecast run log.
type ForecastRepository struct {
	db  database.Queryer
	log zerolog.Logger
}

// NewForecastRepository creates a new forecast repository.
func NewForecastRepository(db database.Queryer, log zerolog.Logger) *ForecastRepository {
	return &ForecastRepository{
		db:  db,
		log: log.With().Str("repo", "forecasts").Logger(),
	}
}

// Insert appends one forecast row.
func (r *ForecastRepository) Insert(f StoredForecast) error {
	_, err := r.db.Exec(`
		INSERT INTO forecasts(run_id, week_start_date, item_name, mon, tue, wed, thu, fri, sat, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.RunID, f.WeekStartDate, f.ItemName, f.Mon, f.Tue, f.Wed, f.Thu, f.Fri, f.Sat, f.Notes, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert forecast row: %w", err)
	}
	return nil
}

// RunSummary describes one persisted generation run.
type RunSummary struct {
	RunID         string `json:"run_id"`
	WeekStartDate string `json:"week_start_date"`
	CreatedAt     string `json:"created_at"`
	Items         int    `json:"items"`
}

// ListRuns returns the most recent runs, newest first.
func (r *ForecastRepository) ListRuns(limit int) ([]RunSummary, error) {
	rows, err := r.db.Query(`
		SELECT run_id, week_start_date, MIN(created_at), COUNT(*)
		FROM forecasts
		GROUP BY run_id, week_start_date
		ORDER BY MIN(created_at) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.WeekStartDate, &s.CreatedAt, &s.Items); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return out, nil
}

// GetRun returns all rows of one run, ordered by item name.
func (r *ForecastRepository) GetRun(runID string) ([]StoredForecast, error) {
	rows, err := r.db.Query(`
		SELECT run_id, week_start_date, item_name, mon, tue, wed, thu, fri, sat, notes, created_at
		FROM forecasts
		WHERE run_id = ?
		ORDER BY item_name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []StoredForecast
	for rows.Next() {
		var f StoredForecast
		if err := rows.Scan(&f.RunID, &f.WeekStartDate, &f.ItemName,
			&f.Mon, &f.Tue, &f.Wed, &f.Thu, &f.Fri, &f.Sat, &f.Notes, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan forecast row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast rows: %w", err)
	}

	return out, nil
}

// timestamp formats a persistence time the way the run log stores it.
func timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
