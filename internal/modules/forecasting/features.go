package forecasting

import (
	"math"
	"time"

	"github.com/breadline/bakeplan/internal/modules/sales"
	"github.com/breadline/bakeplan/pkg/formulas"
)

// Feature column order is fixed; persisted artifacts carry it so stored
// models keep predicting correctly if the builder ever changes.
var featureNames = []string{
	"max_temp", "rain_mm",
	"last4_same_wd", "last8_same_wd",
	"is_holiday",
	"month_sin", "month_cos",
	"wd_1", "wd_2", "wd_3", "wd_4", "wd_5", "wd_6",
}

// FeatureNames returns the builder's column order.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// rollingSameWeekday computes, for every observation, the trailing mean of
// the previous `window` observations on the same weekday. The current value
// never contributes (one-step lag), so features at position i only depend
// on observations strictly before i. NaN until minPeriods prior same-weekday
// observations exist.
func rollingSameWeekday(history []sales.ItemDay, window, minPeriods int) []float64 {
	out := make([]float64, len(history))
	// Last `window` quantities seen per weekday, oldest first.
	recent := make(map[int][]float64, 7)

	for i, day := range history {
		prior := recent[day.Weekday]
		if len(prior) >= minPeriods {
			out[i] = formulas.Mean(prior)
		} else {
			out[i] = math.NaN()
		}

		prior = append(prior, day.Quantity)
		if len(prior) > window {
			prior = prior[1:]
		}
		recent[day.Weekday] = prior
	}

	return out
}

// monthSeasonality returns the cyclic month features sin(2πm/12), cos(2πm/12).
func monthSeasonality(date time.Time) (float64, float64) {
	m := float64(date.Month())
	return math.Sin(2 * math.Pi * m / 12), math.Cos(2 * math.Pi * m / 12)
}

// featureRow assembles one row in featureNames order. Missing weather and
// rolling values stay NaN for the imputation step.
func featureRow(weekday int, date time.Time, maxTemp, rainMM *float64, isHoliday bool, last4, last8 float64) []float64 {
	row := make([]float64, len(featureNames))

	row[0] = nanOr(maxTemp)
	row[1] = nanOr(rainMM)
	row[2] = last4
	row[3] = last8
	if isHoliday {
		row[4] = 1
	}
	row[5], row[6] = monthSeasonality(date)

	// Weekday one-hots wd_1..wd_6 (Mon..Sat); Sunday leaves all six zero.
	if weekday >= 1 && weekday <= 6 {
		row[6+weekday] = 1
	}

	return row
}

// BuildFeatures turns an item's daily history into a leakage-free feature
// matrix and target vector. When sundayClosed is set, Sunday rows are
// dropped after the rolling features are computed. Remaining NaNs are
// imputed with the column median over the kept rows, or zero when a column
// is entirely missing.
func BuildFeatures(history []sales.ItemDay, sundayClosed bool) (X [][]float64, y []float64, names []string) {
	last4 := rollingSameWeekday(history, 4, 2)
	last8 := rollingSameWeekday(history, 8, 3)

	for i, day := range history {
		if sundayClosed && day.Weekday == 0 {
			continue
		}
		X = append(X, featureRow(day.Weekday, day.Date, day.MaxTemp, day.RainMM, day.IsHoliday, last4[i], last8[i]))
		y = append(y, day.Quantity)
	}

	imputeColumnMedians(X)
	return X, y, FeatureNames()
}

// imputeColumnMedians replaces NaNs in place with the column median, or
// zero when the median itself is undefined.
func imputeColumnMedians(X [][]float64) {
	if len(X) == 0 {
		return
	}

	cols := len(X[0])
	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		med := formulas.Median(col)
		if math.IsNaN(med) {
			med = 0
		}
		for i := range X {
			if math.IsNaN(X[i][j]) {
				X[i][j] = med
			}
		}
	}
}

func nanOr(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
