package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestStdDev(t *testing.T) {
	// Fewer than two observations has no spread
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, StdDev([]float64{5}))

	// Sample (n-1) variant: {2,4,4,4,5,5,7,9} has sample std ~2.138
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 2.1381, got, 1e-4)
}

func TestMedian(t *testing.T) {
	assert.True(t, math.IsNaN(Median(nil)))
	assert.True(t, math.IsNaN(Median([]float64{math.NaN()})))

	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 2, 3}))

	// NaNs are ignored, not counted
	assert.Equal(t, 2.0, Median([]float64{math.NaN(), 1, 2, 3}))
}

func TestExpWeightedMean(t *testing.T) {
	assert.Equal(t, 0.0, ExpWeightedMean(nil, 0.5))
	assert.Equal(t, 7.0, ExpWeightedMean([]float64{7}, 0.5))

	// alpha=0.5 over [1,2,3]: weights 0.25,0.5,1 -> (0.25+1+3)/1.75
	got := ExpWeightedMean([]float64{1, 2, 3}, 0.5)
	assert.InDelta(t, 4.25/1.75, got, 1e-12)

	// Recency: reversing the series must change the result
	asc := ExpWeightedMean([]float64{1, 2, 3, 4}, 0.5)
	desc := ExpWeightedMean([]float64{4, 3, 2, 1}, 0.5)
	assert.Greater(t, asc, desc)
}

func TestMAPE(t *testing.T) {
	assert.True(t, math.IsNaN(MAPE(nil, nil)))
	assert.True(t, math.IsNaN(MAPE([]float64{1}, []float64{1, 2})))

	// Perfect prediction
	assert.Equal(t, 0.0, MAPE([]float64{1, 2}, []float64{1, 2}))

	// 10% off on both
	got := MAPE([]float64{10, 20}, []float64{11, 22})
	assert.InDelta(t, 10.0, got, 1e-9)

	// Zero true values use denominator 1 instead of exploding
	got = MAPE([]float64{0}, []float64{3})
	assert.InDelta(t, 300.0, got, 1e-9)
}
