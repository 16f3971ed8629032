package forecasting

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/breadline/bakeplan/pkg/formulas"
)

const ridgeAlpha = 1.0

// Ridge is an L2-regularized linear regression fitted on standardized
// inputs. Medians, Means and Stds are the training-time imputation and
// scaling parameters; they travel with the model so predictions on
// partially missing future rows reproduce the training pipeline.
type Ridge struct {
	Alpha     float64   `msgpack:"alpha"`
	Weights   []float64 `msgpack:"weights"`
	Intercept float64   `msgpack:"intercept"`
	Medians   []float64 `msgpack:"medians"`
	Means     []float64 `msgpack:"means"`
	Stds      []float64 `msgpack:"stds"`
}

// FitRidge fits a ridge regression on X, y. NaN cells are imputed with the
// column median first; columns are then standardized (zero-variance columns
// scale by 1). The system (Z'Z + αI)w = Z'(y - ȳ) is solved with a Cholesky
// factorization, which always exists for α > 0.
func FitRidge(X [][]float64, y []float64, alpha float64) (*Ridge, error) {
	n := len(X)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("ridge fit needs matching non-empty X and y, got %d and %d rows", n, len(y))
	}
	p := len(X[0])

	m := &Ridge{
		Alpha:   alpha,
		Medians: make([]float64, p),
		Means:   make([]float64, p),
		Stds:    make([]float64, p),
	}

	// Imputation and scaling parameters per column.
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			col[i] = X[i][j]
		}
		med := formulas.Median(col)
		if math.IsNaN(med) {
			med = 0
		}
		m.Medians[j] = med

		for i := range col {
			if math.IsNaN(col[i]) {
				col[i] = med
			}
		}
		m.Means[j] = formulas.Mean(col)
		sd := populationStd(col, m.Means[j])
		if sd == 0 {
			sd = 1
		}
		m.Stds[j] = sd
	}

	// Standardized design matrix.
	z := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			v := X[i][j]
			if math.IsNaN(v) {
				v = m.Medians[j]
			}
			z.Set(i, j, (v-m.Means[j])/m.Stds[j])
		}
	}

	yMean := formulas.Mean(y)
	yc := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yc.SetVec(i, y[i]-yMean)
	}

	// Gram matrix Z'Z + αI.
	var gram mat.SymDense
	gram.SymOuterK(1, z.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+alpha)
	}

	var rhs mat.VecDense
	rhs.MulVec(z.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, fmt.Errorf("ridge system is not positive definite")
	}

	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &rhs); err != nil {
		return nil, fmt.Errorf("failed to solve ridge system: %w", err)
	}

	m.Weights = make([]float64, p)
	for j := 0; j < p; j++ {
		m.Weights[j] = w.AtVec(j)
	}
	m.Intercept = yMean

	return m, nil
}

// Predict applies the fitted pipeline (impute, standardize, linear) to each
// row of X.
func (m *Ridge) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		pred := m.Intercept
		for j, v := range row {
			if j >= len(m.Weights) {
				break
			}
			if math.IsNaN(v) {
				v = m.Medians[j]
			}
			pred += m.Weights[j] * (v - m.Means[j]) / m.Stds[j]
		}
		out[i] = pred
	}
	return out
}

// populationStd is the biased standard deviation used for feature scaling.
func populationStd(data []float64, mean float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(data)))
}
