package interpolation

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"idwinterp/internal/models"
)

// MaxGridCells bounds the number of lattice points a grid evaluation may allocate
const MaxGridCells = 1 << 28

// Axis describes evenly spaced sample coordinates from Min to Max inclusive
type Axis struct {
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Steps int     `yaml:"steps"`
}

// Coordinate returns the coordinate of step i
func (a Axis) Coordinate(i int) float64 {
	if a.Steps <= 1 {
		return a.Min
	}
	return a.Min + float64(i)*a.Spacing()
}

// Spacing returns the distance between neighbouring steps
func (a Axis) Spacing() float64 {
	if a.Steps <= 1 {
		return 0
	}
	return (a.Max - a.Min) / float64(a.Steps-1)
}

// Validate checks that the axis has at least one step and is not inverted
func (a Axis) Validate() error {
	if a.Steps < 1 {
		return fmt.Errorf("%w: axis needs at least 1 step, got %d", ErrInvalidInput, a.Steps)
	}
	if a.Max < a.Min {
		return fmt.Errorf("%w: axis max %g is below min %g", ErrInvalidInput, a.Max, a.Min)
	}
	return nil
}

// GridCells validates axes and returns the number of lattice points they span.
// Lattices above MaxGridCells are rejected with ErrInvalidInput.
func GridCells(axes ...Axis) (int, error) {
	cells := 1
	for i, a := range axes {
		if err := a.Validate(); err != nil {
			return 0, err
		}
		if a.Steps > MaxGridCells/cells {
			return 0, fmt.Errorf("%w: grid exceeds %d cells at axis %d", ErrInvalidInput, MaxGridCells, i)
		}
		cells *= a.Steps
	}
	return cells, nil
}

// single is the degenerate axis used for unused grid dimensions
var single = Axis{Steps: 1}

// EvaluateGrid2D evaluates a 2D model on the lattice spanned by x and y.
// Row r, column c of the result holds the value at (x.Coordinate(c), y.Coordinate(r)).
func EvaluateGrid2D(ctx context.Context, m *IDW[Point2D], x, y Axis, opts BatchOptions) (*mat.Dense, error) {
	vol, err := evaluateLattice(ctx, m, x, y, single, func(px, py, _ float64) Point2D {
		return Point2D{X: px, Y: py}
	}, opts)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(vol.Height, vol.Width, vol.Data), nil
}

// EvaluateGrid3D evaluates a 3D model on the lattice spanned by x, y and z
func EvaluateGrid3D(ctx context.Context, m *IDW[Point3D], x, y, z Axis, opts BatchOptions) (*models.Volume, error) {
	return evaluateLattice(ctx, m, x, y, z, func(px, py, pz float64) Point3D {
		return Point3D{X: px, Y: py, Z: pz}
	}, opts)
}

// EvaluateGrid evaluates a runtime-dimensional model on a lattice. axes must
// hold one axis per model dimension; the unused volume dimensions have a
// single cell.
func EvaluateGrid(ctx context.Context, m *IDW[PointN], axes []Axis, opts BatchOptions) (*models.Volume, error) {
	if len(axes) != m.Dims() {
		return nil, &ErrDimensionMismatch{Expected: m.Dims(), Actual: len(axes)}
	}

	full := [3]Axis{single, single, single}
	copy(full[:], axes)

	dims := len(axes)
	return evaluateLattice(ctx, m, full[0], full[1], full[2], func(px, py, pz float64) PointN {
		return PointN([]float64{px, py, pz}[:dims])
	}, opts)
}

func evaluateLattice[C Coord[C]](ctx context.Context, m *IDW[C], x, y, z Axis, mk func(x, y, z float64) C, opts BatchOptions) (*models.Volume, error) {
	cells, err := GridCells(x, y, z)
	if err != nil {
		return nil, err
	}

	positions := make([]C, 0, cells)
	for k := 0; k < z.Steps; k++ {
		for j := 0; j < y.Steps; j++ {
			for i := 0; i < x.Steps; i++ {
				positions = append(positions, mk(x.Coordinate(i), y.Coordinate(j), z.Coordinate(k)))
			}
		}
	}

	data, err := EvaluateAll(ctx, m, positions, opts)
	if err != nil {
		return nil, err
	}

	return &models.Volume{
		Data:    data,
		Width:   x.Steps,
		Height:  y.Steps,
		Depth:   z.Steps,
		Origin:  [3]float64{x.Min, y.Min, z.Min},
		Spacing: [3]float64{x.Spacing(), y.Spacing(), z.Spacing()},
	}, nil
}
