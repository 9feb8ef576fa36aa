package interpolation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// CrossValidate performs leave-one-out cross validation: every sample is
// predicted from all the others using the model's power and transform, and
// the root mean square error of those predictions is returned.
//
// A NaN prediction makes the result NaN.
func CrossValidate[C Coord[C]](m *IDW[C]) (float64, error) {
	if m.Len() < 2 {
		return math.NaN(), fmt.Errorf("%w: cross validation needs at least 2 samples, got %d",
			ErrInvalidInput, m.Len())
	}

	residuals := make([]float64, m.Len())
	for i, p := range m.points {
		residuals[i] = m.evaluate(p, i)
	}
	floats.Sub(residuals, m.values)

	return math.Sqrt(floats.Dot(residuals, residuals) / float64(len(residuals))), nil
}

// OptimizePower picks the candidate power with the lowest leave-one-out
// error. The first candidate wins ties and candidates whose error is NaN are
// never chosen.
func OptimizePower[C Coord[C]](m *IDW[C], candidates []float64) (best, rmse float64, err error) {
	if len(candidates) == 0 {
		return math.NaN(), math.NaN(), fmt.Errorf("%w: no candidate powers given", ErrInvalidInput)
	}

	best, rmse = math.NaN(), math.NaN()
	for _, p := range candidates {
		e, err := CrossValidate(m.Power(p))
		if err != nil {
			return math.NaN(), math.NaN(), err
		}
		if math.IsNaN(e) {
			continue
		}
		if math.IsNaN(rmse) || e < rmse {
			best, rmse = p, e
		}
	}

	if math.IsNaN(best) {
		return best, rmse, fmt.Errorf("%w: every candidate power produced an undefined error", ErrInvalidInput)
	}
	return best, rmse, nil
}
