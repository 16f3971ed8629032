package forecasting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitRidgeRecoversLinearSignal(t *testing.T) {
	// y = 3*x1 - 2*x2 + 10 with plenty of rows and mild regularization
	var X [][]float64
	var y []float64
	for i := 0; i < 60; i++ {
		x1 := float64(i % 7)
		x2 := float64((i * 3) % 5)
		X = append(X, []float64{x1, x2})
		y = append(y, 3*x1-2*x2+10)
	}

	model, err := FitRidge(X, y, 0.001)
	require.NoError(t, err)

	preds := model.Predict(X)
	for i := range y {
		assert.InDelta(t, y[i], preds[i], 0.1)
	}
}

func TestFitRidgeConstantColumn(t *testing.T) {
	// A zero-variance column must not blow up the scaler
	X := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}}
	y := []float64{2, 4, 6, 8}

	model, err := FitRidge(X, y, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, model.Stds[1])

	preds := model.Predict(X)
	// Regularized fit still tracks the trend direction
	assert.Greater(t, preds[3], preds[0])
}

func TestFitRidgeImputesNaN(t *testing.T) {
	X := [][]float64{{1}, {math.NaN()}, {3}, {5}}
	y := []float64{1, 2, 3, 5}

	model, err := FitRidge(X, y, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, model.Medians[0])

	// Predicting a NaN row falls back to the stored median too
	preds := model.Predict([][]float64{{math.NaN()}})
	assert.False(t, math.IsNaN(preds[0]))
}

func TestFitRidgeRejectsBadInput(t *testing.T) {
	_, err := FitRidge(nil, nil, 1.0)
	assert.Error(t, err)

	_, err = FitRidge([][]float64{{1}}, []float64{1, 2}, 1.0)
	assert.Error(t, err)
}

func TestRidgeShrinksWithAlpha(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		X = append(X, []float64{float64(i)})
		y = append(y, 2*float64(i))
	}

	loose, err := FitRidge(X, y, 0.001)
	require.NoError(t, err)
	tight, err := FitRidge(X, y, 1000)
	require.NoError(t, err)

	assert.Less(t, math.Abs(tight.Weights[0]), math.Abs(loose.Weights[0]))
}

func TestCrossValidateMAPE(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 60; i++ {
		X = append(X, []float64{float64(i % 7)})
		y = append(y, 10+3*float64(i%7))
	}

	score := crossValidateMAPE(X, y, []float64{0.6, 0.75, 0.9}, 5)
	require.NotNil(t, score)
	assert.Less(t, *score, 5.0)

	// Too few samples: undefined, not zero
	assert.Nil(t, crossValidateMAPE(X[:20], y[:20], []float64{0.6}, 5))

	// No fold leaves enough rows on both sides: undefined
	assert.Nil(t, crossValidateMAPE(X, y, []float64{0.5}, 40))
}
