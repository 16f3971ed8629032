package forecasting

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/breadline/bakeplan/internal/modules/calendar"
	"github.com/breadline/bakeplan/internal/modules/sales"
	"github.com/breadline/bakeplan/internal/modules/settings"
	"github.com/breadline/bakeplan/internal/modules/weather"
	"github.com/breadline/bakeplan/pkg/formulas"
)

// Smoothing factor for the weekday baseline: the most recent observation
// carries the highest weight.
const baselineAlpha = 0.5

// Observations per (item, weekday) bucket considered for the baseline.
const baselineWindow = 8

// Neutral anchors for the weather adjustment: at 20°C and 1mm of rain the
// forecast is unscaled.
const (
	anchorTempC  = 20.0
	anchorRainMM = 1.0
)

var weekdayAbbrev = [6]string{"MON", "TUE", "WED", "THU", "FRI", "SAT"}

// BaselineEntry is one item's raw weekday quantities Mon..Sat.
type BaselineEntry struct {
	ItemID int64
	Name   string
	Days   [6]float64 // Mon..Sat
}

// BaselineResult is the weather- and event-adjusted weekday baseline for
// every item in the history window.
type BaselineResult struct {
	Entries    []*BaselineEntry // sorted by display name
	EventNotes []string         // one per event day adjustment
}

// BaselineForecaster computes the exponentially-weighted weekday baseline
// and adjusts it with the stored weather and event signals. Absent signals
// mean no adjustment; a missing data source never fails the forecast.
type BaselineForecaster struct {
	weatherRepo  *weather.Repository
	calendarRepo *calendar.Repository
	log          zerolog.Logger
}

// NewBaselineForecaster creates a new baseline forecaster.
func NewBaselineForecaster(weatherRepo *weather.Repository, calendarRepo *calendar.Repository, log zerolog.Logger) *BaselineForecaster {
	return &BaselineForecaster{
		weatherRepo:  weatherRepo,
		calendarRepo: calendarRepo,
		log:          log.With().Str("component", "baseline").Logger(),
	}
}

// Forecast builds the adjusted baseline for the week starting at weekStart
// (a Monday) from the given history.
func (b *BaselineForecaster) Forecast(history []sales.HistoryRow, weekStart time.Time, cfg *settings.Settings) (*BaselineResult, error) {
	entries := WeekdayBaseline(history)

	weekWeather, err := b.weatherRepo.WeekByWeekday(weekStart)
	if err != nil {
		return nil, err
	}
	ApplyWeather(entries, weekWeather, cfg.CoefTemp, cfg.CoefRain)

	events, err := b.calendarRepo.WeekEvents(weekStart)
	if err != nil {
		return nil, err
	}
	notes := ApplyEvents(entries, events)

	return &BaselineResult{Entries: entries, EventNotes: notes}, nil
}

// WeekdayBaseline groups history by (item, weekday) and computes the
// exponentially weighted mean of the chronologically last eight
// observations in each bucket. Buckets with no history stay at zero.
func WeekdayBaseline(history []sales.HistoryRow) []*BaselineEntry {
	type bucket struct {
		values []float64
	}

	entries := make(map[int64]*BaselineEntry)
	buckets := make(map[int64]*[7]bucket)

	// History arrives date-ordered, so each bucket is chronological.
	for _, h := range history {
		e, ok := entries[h.ItemID]
		if !ok {
			e = &BaselineEntry{ItemID: h.ItemID, Name: h.DisplayName}
			entries[h.ItemID] = e
			buckets[h.ItemID] = &[7]bucket{}
		}
		wd := int(h.Date.Weekday())
		buckets[h.ItemID][wd].values = append(buckets[h.ItemID][wd].values, h.Quantity)
	}

	out := make([]*BaselineEntry, 0, len(entries))
	for id, e := range entries {
		for wd := 1; wd <= 6; wd++ {
			values := buckets[id][wd].values
			if len(values) > baselineWindow {
				values = values[len(values)-baselineWindow:]
			}
			e.Days[wd-1] = formulas.ExpWeightedMean(values, baselineAlpha)
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ApplyWeather scales each day by the temperature and rainfall deviation
// from the neutral anchors, rounding after each step and clamping at zero.
// Days without a stored observation are left untouched.
func ApplyWeather(entries []*BaselineEntry, week map[int]weather.Observation, coefTemp, coefRain float64) {
	for d := 0; d < 6; d++ {
		obs, ok := week[d+1] // weekday 1=Mon .. 6=Sat
		if !ok {
			continue
		}

		for _, e := range entries {
			q := e.Days[d]
			if obs.MaxTemp != nil {
				q = math.Round(q * (1 + coefTemp*(*obs.MaxTemp-anchorTempC)/10))
			}
			if obs.RainMM != nil {
				q = math.Round(q * (1 + coefRain*(*obs.RainMM-anchorRainMM)/10))
			}
			e.Days[d] = math.Max(q, 0)
		}
	}
}

// ApplyEvents scales the single day of each event by its uplift and
// returns one note per applied adjustment. Events on Sundays are ignored.
func ApplyEvents(entries []*BaselineEntry, events []calendar.Event) []string {
	var notes []string
	for _, ev := range events {
		d, err := time.Parse("2006-01-02", ev.Date)
		if err != nil {
			continue
		}
		wd := int(d.Weekday())
		if wd < 1 || wd > 6 {
			continue
		}

		factor := 1 + ev.UpliftPct/100
		for _, e := range entries {
			e.Days[wd-1] = math.Round(e.Days[wd-1] * factor)
		}
		notes = append(notes, fmt.Sprintf("%s +%g%% on %s", ev.Date, ev.UpliftPct, weekdayAbbrev[wd-1]))
	}
	return notes
}

// ApplyBatchFloor raises every positive quantity to at least minBatch.
// Zero stays zero; the floor never creates demand from nothing.
func ApplyBatchFloor(entries []*BaselineEntry, minBatch int) {
	for _, e := range entries {
		for d := 0; d < 6; d++ {
			q := math.Round(e.Days[d])
			if q > 0 && q < float64(minBatch) {
				q = float64(minBatch)
			}
			if q < 0 {
				q = 0
			}
			e.Days[d] = q
		}
	}
}
