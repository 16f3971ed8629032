package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values.
// Returns 0 for fewer than two observations.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Median returns the median of the values, ignoring NaNs.
// Returns NaN when no finite values remain.
func Median(data []float64) float64 {
	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	mid := len(clean) / 2
	if len(clean)%2 == 1 {
		return clean[mid]
	}
	return (clean[mid-1] + clean[mid]) / 2
}

// ExpWeightedMean computes an exponentially weighted mean over data in
// chronological order (oldest first). The most recent observation carries
// the highest weight: weight_i = (1-alpha)^(n-1-i), normalized.
func ExpWeightedMean(data []float64, alpha float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	var num, denom float64
	for i, v := range data {
		w := math.Pow(1-alpha, float64(n-1-i))
		num += w * v
		denom += w
	}
	if denom == 0 {
		return 0
	}
	return num / denom
}

// MAPE computes the mean absolute percentage error between true and
// predicted values. A true value of zero contributes with denominator 1 to
// avoid division by zero. Returns NaN for empty input.
func MAPE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return math.NaN()
	}

	var sum float64
	for i := range yTrue {
		denom := yTrue[i]
		if denom == 0 {
			denom = 1
		}
		sum += math.Abs(yTrue[i]-yPred[i]) / math.Abs(denom)
	}
	return sum / float64(len(yTrue)) * 100
}
