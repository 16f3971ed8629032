package forecasting

import (
	"math"
	"time"

	"github.com/breadline/bakeplan/internal/modules/sales"
	"github.com/breadline/bakeplan/internal/modules/weather"
	"github.com/breadline/bakeplan/pkg/formulas"
)

// predictWeek returns six model predictions (Mon..Sat) for the week
// starting at weekStart, rounded with negatives clamped to zero. Future
// rows reuse the training feature set: forecast weather, holiday flags,
// month seasonality, and the item's recent same-weekday averages carried
// forward. Values the artifact's feature list doesn't recognize default to
// zero; missing ones are imputed by the stored pipeline.
func predictWeek(art *Artifact, history []sales.ItemDay, weekStart time.Time, week map[int]weather.Observation, holidays map[string]bool) []float64 {
	last4, last8 := carriedRollingMeans(history)

	X := make([][]float64, 6)
	for i := 0; i < 6; i++ {
		date := weekStart.AddDate(0, 0, i)
		wd := i + 1 // Mon..Sat

		values := map[string]float64{
			"max_temp":      math.NaN(),
			"rain_mm":       math.NaN(),
			"last4_same_wd": last4[wd],
			"last8_same_wd": last8[wd],
		}
		if obs, ok := week[wd]; ok {
			if obs.MaxTemp != nil {
				values["max_temp"] = *obs.MaxTemp
			}
			if obs.RainMM != nil {
				values["rain_mm"] = *obs.RainMM
			}
		}
		if holidays[date.Format("2006-01-02")] {
			values["is_holiday"] = 1
		}
		values["month_sin"], values["month_cos"] = monthSeasonality(date)
		values[weekdayFeature(wd)] = 1

		row := make([]float64, len(art.FeatureNames))
		for j, name := range art.FeatureNames {
			if v, ok := values[name]; ok {
				row[j] = v
			}
		}
		X[i] = row
	}

	preds := art.Model.Predict(X)
	for i, v := range preds {
		preds[i] = math.Max(0, math.Round(v))
	}
	return preds
}

// carriedRollingMeans computes, per weekday, the same-weekday trailing
// means over the item's full history: the last 4 observations (minimum 2)
// and the last 8 (minimum 3). NaN where too little history exists.
func carriedRollingMeans(history []sales.ItemDay) (last4, last8 [7]float64) {
	var byWeekday [7][]float64
	for _, day := range history {
		byWeekday[day.Weekday] = append(byWeekday[day.Weekday], day.Quantity)
	}

	for wd := 0; wd < 7; wd++ {
		last4[wd] = tailMean(byWeekday[wd], 4, 2)
		last8[wd] = tailMean(byWeekday[wd], 8, 3)
	}
	return last4, last8
}

func tailMean(values []float64, window, minPeriods int) float64 {
	if len(values) < minPeriods {
		return math.NaN()
	}
	if len(values) > window {
		values = values[len(values)-window:]
	}
	return formulas.Mean(values)
}

func weekdayFeature(wd int) string {
	switch wd {
	case 1:
		return "wd_1"
	case 2:
		return "wd_2"
	case 3:
		return "wd_3"
	case 4:
		return "wd_4"
	case 5:
		return "wd_5"
	default:
		return "wd_6"
	}
}
