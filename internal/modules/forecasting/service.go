package forecasting

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/database"
	"github.com/breadline/bakeplan/internal/modules/calendar"
	"github.com/breadline/bakeplan/internal/modules/sales"
	"github.com/breadline/bakeplan/internal/modules/settings"
	"github.com/breadline/bakeplan/internal/modules/weather"
	"github.com/breadline/bakeplan/pkg/formulas"
)

// ForecastRow is one line of the order sheet handed to collaborators.
type ForecastRow struct {
	ItemName    string `json:"item_name"`
	WeeklyTotal int    `json:"weekly_total"`
	Mon         int    `json:"mon"`
	Tue         int    `json:"tue"`
	Wed         int    `json:"wed"`
	Thu         int    `json:"thu"`
	Fri         int    `json:"fri"`
	Sat         int    `json:"sat"`
	Notes       string `json:"notes"`
}

// ForecastTable is the result of one forecast generation.
type ForecastTable struct {
	RunID      string        `json:"run_id"`
	WeekStart  string        `json:"week_start"`
	Rows       []ForecastRow `json:"rows"`
	EventNotes []string      `json:"event_notes,omitempty"`
}

// Service generates the weekly order recommendation: baseline, optional
// per-item model blend, batch floors, typical-week notes, and the persisted
// run log.
type Service struct {
	db           *database.DB
	settingsRepo *settings.Repository
	baseline     *BaselineForecaster
	weatherRepo  *weather.Repository
	calendarRepo *calendar.Repository
	log          zerolog.Logger
}

// NewService creates a new forecasting service.
func NewService(db *database.DB, settingsRepo *settings.Repository, weatherRepo *weather.Repository, calendarRepo *calendar.Repository, log zerolog.Logger) *Service {
	return &Service{
		db:           db,
		settingsRepo: settingsRepo,
		baseline:     NewBaselineForecaster(weatherRepo, calendarRepo, log),
		weatherRepo:  weatherRepo,
		calendarRepo: calendarRepo,
		log:          log.With().Str("service", "forecasting").Logger(),
	}
}

// NextMonday returns the next upcoming Monday, counting today when today
// already is one.
func NextMonday(from time.Time) time.Time {
	daysSinceMonday := (int(from.Weekday()) + 6) % 7
	offset := (7 - daysSinceMonday) % 7
	d := from.AddDate(0, 0, offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Generate builds and persists the order sheet for the week starting at
// weekStart (next Monday when nil). With useModel set, items that have a
// trained model get a convex blend of model prediction and baseline;
// everything else keeps the pure baseline. An empty history yields an
// empty table and persists nothing.
func (s *Service) Generate(weekStart *time.Time, useModel bool, blendWeight float64) (*ForecastTable, error) {
	if blendWeight < 0 || blendWeight > 1 {
		return nil, fmt.Errorf("blend weight must be within [0,1], got %g", blendWeight)
	}

	cfg, err := s.settingsRepo.Load()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ws := NextMonday(now)
	if weekStart != nil {
		ws = *weekStart
	}

	cutoff := now.AddDate(0, 0, -cfg.LookbackWeeks*7)
	salesRepo := sales.NewRepository(s.db, s.log)
	history, err := salesRepo.HistorySince(cutoff)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		s.log.Warn().Msg("No sales history in lookback window, nothing to forecast")
		return &ForecastTable{WeekStart: ws.Format("2006-01-02")}, nil
	}

	base, err := s.baseline.Forecast(history, ws, cfg)
	if err != nil {
		return nil, err
	}

	if useModel {
		if err := s.blendModels(base.Entries, ws, blendWeight); err != nil {
			return nil, err
		}
	}

	ApplyBatchFloor(base.Entries, cfg.MinBatchSize)

	stats := weeklyStats(history)

	table := &ForecastTable{
		RunID:      uuid.New().String(),
		WeekStart:  ws.Format("2006-01-02"),
		EventNotes: base.EventNotes,
	}

	createdAt := timestamp(now)
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	forecastRepo := NewForecastRepository(tx, s.log)
	for _, e := range base.Entries {
		total := 0
		var days [6]int
		for d := 0; d < 6; d++ {
			days[d] = int(e.Days[d])
			total += days[d]
		}

		note := typicalWeekNote(float64(total), stats[e.ItemID], cfg.StdAlertThreshold)

		row := ForecastRow{
			ItemName:    e.Name,
			WeeklyTotal: total,
			Mon:         days[0],
			Tue:         days[1],
			Wed:         days[2],
			Thu:         days[3],
			Fri:         days[4],
			Sat:         days[5],
			Notes:       note,
		}
		table.Rows = append(table.Rows, row)

		if err := forecastRepo.Insert(StoredForecast{
			RunID:         table.RunID,
			WeekStartDate: table.WeekStart,
			ItemName:      row.ItemName,
			Mon:           row.Mon,
			Tue:           row.Tue,
			Wed:           row.Wed,
			Thu:           row.Thu,
			Fri:           row.Fri,
			Sat:           row.Sat,
			Notes:         row.Notes,
			CreatedAt:     createdAt,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.log.Info().Str("run_id", table.RunID).Str("week_start", table.WeekStart).
		Int("items", len(table.Rows)).Bool("use_model", useModel).
		Msg("Generated forecast")
	return table, nil
}

// blendModels replaces each modeled item's days with the convex blend
// blend = w·model + (1-w)·baseline, rounded and clamped at zero. Items
// without a stored model keep the pure baseline.
func (s *Service) blendModels(entries []*BaselineEntry, weekStart time.Time, blendWeight float64) error {
	modelRepo := NewModelRepository(s.db, s.log)
	salesRepo := sales.NewRepository(s.db, s.log)

	weekWeather, err := s.weatherRepo.WeekByWeekday(weekStart)
	if err != nil {
		return err
	}
	holidays, err := s.calendarRepo.HolidaysBetween(
		weekStart.Format("2006-01-02"),
		weekStart.AddDate(0, 0, 5).Format("2006-01-02"),
	)
	if err != nil {
		return err
	}

	for _, e := range entries {
		art, err := modelRepo.Get(e.ItemID)
		if err != nil {
			return err
		}
		if art == nil {
			continue
		}

		history, err := salesRepo.ItemHistory(e.ItemID)
		if err != nil {
			return err
		}

		preds := predictWeek(art, history, weekStart, weekWeather, holidays)
		for d := 0; d < 6; d++ {
			blended := blendWeight*preds[d] + (1-blendWeight)*e.Days[d]
			e.Days[d] = math.Max(0, math.Round(blended))
		}
	}

	return nil
}

// weekStats holds an item's historical weekly-total distribution.
type weekStats struct {
	Mean   float64
	StdDev float64
}

// weeklyStats sums each calendar week's total per item (weeks start on
// Monday) and returns mean and sample standard deviation of those totals.
func weeklyStats(history []sales.HistoryRow) map[int64]weekStats {
	totals := make(map[int64]map[string]float64)
	for _, h := range history {
		wk := mondayOf(h.Date).Format("2006-01-02")
		if totals[h.ItemID] == nil {
			totals[h.ItemID] = make(map[string]float64)
		}
		totals[h.ItemID][wk] += h.Quantity
	}

	out := make(map[int64]weekStats, len(totals))
	for id, weeks := range totals {
		values := make([]float64, 0, len(weeks))
		for _, v := range weeks {
			values = append(values, v)
		}
		out[id] = weekStats{
			Mean:   formulas.Mean(values),
			StdDev: formulas.StdDev(values),
		}
	}
	return out
}

func mondayOf(d time.Time) time.Time {
	return d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
}

// typicalWeekNote classifies a forecasted weekly total against the item's
// historical weekly distribution. The band is exclusive: a total exactly on
// mean ± threshold·stddev reads "As expected".
func typicalWeekNote(forecastTotal float64, stats weekStats, threshold float64) string {
	if stats.Mean <= 0 {
		return "No typical week yet"
	}

	diffPct := (forecastTotal - stats.Mean) / stats.Mean * 100

	switch {
	case stats.StdDev > 0 && forecastTotal > stats.Mean+threshold*stats.StdDev:
		return fmt.Sprintf("Higher than usual (+%.0f%%)", diffPct)
	case stats.StdDev > 0 && forecastTotal < math.Max(stats.Mean-threshold*stats.StdDev, 0):
		return fmt.Sprintf("Lower than usual (%.0f%%)", diffPct)
	default:
		return "As expected"
	}
}
