// Package interpolation implements Inverse Distance Weighting (IDW) over
// scattered samples in one, two or three dimensions.
//
// The weight of sample i for a query position is
//
//	weightᵢ = f(1 / distance(pointᵢ, position)ᵖ)
//
// where p is the power parameter (2 by default) and f is an optional weight
// transform (identity by default). The interpolated value is the weighted
// average Σ weightᵢ·valueᵢ / Σ weightᵢ. A query that coincides with a sample
// returns that sample's value unchanged.
package interpolation

import (
	"fmt"
	"math"
	"slices"
)

// DefaultPower is the power parameter a new model starts with
const DefaultPower = 2.0

// IDW is an Inverse Distance Weighting interpolator over points of type C.
//
// An IDW is immutable: Power and WeightedFunction return modified copies, so a
// model may be shared between goroutines and evaluated concurrently.
type IDW[C Coord[C]] struct {
	points   []C
	values   []float64
	dims     int
	power    float64
	weightFn WeightFunc
}

// New creates an interpolator from points and their associated values.
// points[i] is paired with values[i].
//
// It returns ErrInvalidInput when no points are given or when the two slices
// differ in length, and an *ErrDimensionMismatch when the points do not all
// share one dimensionality between 1 and 3.
//
// The slices are copied, but the elements of a PointN are not and must not be
// modified during the lifetime of the model.
func New[C Coord[C]](points []C, values []float64) (*IDW[C], error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: points must not be empty", ErrInvalidInput)
	}
	if len(points) != len(values) {
		return nil, fmt.Errorf("%w: got %d points but %d values",
			ErrInvalidInput, len(points), len(values))
	}

	dims := points[0].Dims()
	if dims < 1 || dims > MaxDims {
		return nil, fmt.Errorf("%w: points have %d dimensions, want 1 to %d",
			ErrInvalidInput, dims, MaxDims)
	}
	for i, p := range points {
		if p.Dims() != dims {
			return nil, fmt.Errorf("point %d: %w", i, &ErrDimensionMismatch{Expected: dims, Actual: p.Dims()})
		}
	}

	return &IDW[C]{
		points: slices.Clone(points),
		values: slices.Clone(values),
		dims:   dims,
		power:  DefaultPower,
	}, nil
}

// Power returns a copy of the model using p as the power parameter.
//
// Any value is accepted. Zero turns every weight into 1 so the result is the
// plain mean of the values; negative powers favour distant samples.
func (m *IDW[C]) Power(p float64) *IDW[C] {
	c := *m
	c.power = p
	return &c
}

// WeightedFunction returns a copy of the model that passes every raw weight
// through f before averaging. f must be pure since it is called once per
// sample per evaluation, possibly from several goroutines. A nil f restores
// the identity.
func (m *IDW[C]) WeightedFunction(f WeightFunc) *IDW[C] {
	c := *m
	c.weightFn = f
	return &c
}

// Len returns the number of samples
func (m *IDW[C]) Len() int { return len(m.points) }

// Dims returns the dimensionality shared by all sample points
func (m *IDW[C]) Dims() int { return m.dims }

// PowerParameter returns the current power parameter
func (m *IDW[C]) PowerParameter() float64 { return m.power }

// Points returns a copy of the sample points
func (m *IDW[C]) Points() []C { return slices.Clone(m.points) }

// Values returns a copy of the sample values
func (m *IDW[C]) Values() []float64 { return slices.Clone(m.values) }

// Evaluate returns the interpolated value at position.
//
// If position equals a sample point the value of the first such sample is
// returned. If the transformed weights sum to zero the result is NaN; callers
// that install aggressive transforms or negative powers should check for it.
//
// position must have the model's dimensionality. For PointN models use
// EvaluateChecked to get an error instead of a panic.
func (m *IDW[C]) Evaluate(position C) float64 {
	return m.evaluate(position, -1)
}

// EvaluateChecked is Evaluate with a dimensionality check on position.
func (m *IDW[C]) EvaluateChecked(position C) (float64, error) {
	if position.Dims() != m.dims {
		return math.NaN(), &ErrDimensionMismatch{Expected: m.dims, Actual: position.Dims()}
	}
	return m.evaluate(position, -1), nil
}

// evaluate computes the weighted average while ignoring the sample at index
// skip (-1 keeps every sample).
func (m *IDW[C]) evaluate(position C, skip int) float64 {
	var sum, weightSum float64

	for i, p := range m.points {
		if i == skip {
			continue
		}

		distance := p.DistanceTo(position)
		if distance == 0 {
			return m.values[i]
		}

		weight := 1 / math.Pow(distance, m.power)
		if m.weightFn != nil {
			weight = m.weightFn(weight)
		}

		sum += weight * m.values[i]
		weightSum += weight
	}

	if weightSum == 0 {
		return math.NaN()
	}
	return sum / weightSum
}
