package interpolation

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxDims is the highest supported point dimensionality
const MaxDims = 3

// Coord is implemented by every point type an IDW model can be built over.
// C is the point type itself so distances are only defined between points of
// the same shape.
type Coord[C any] interface {
	// DistanceTo returns the Euclidean distance to rhs
	DistanceTo(rhs C) float64

	// Dims returns the number of coordinates
	Dims() int
}

// Point1D is a position on a line
type Point1D float64

// DistanceTo returns |rhs - p|
func (p Point1D) DistanceTo(rhs Point1D) float64 {
	return math.Abs(float64(rhs - p))
}

// Dims returns 1
func (p Point1D) Dims() int { return 1 }

// Point2D represents a 2D point
type Point2D struct {
	X, Y float64
}

// DistanceTo returns the Euclidean distance between two points
func (p Point2D) DistanceTo(rhs Point2D) float64 {
	dx := rhs.X - p.X
	dy := rhs.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Dims returns 2
func (p Point2D) Dims() int { return 2 }

// Point3D represents a 3D point
type Point3D struct {
	X, Y, Z float64
}

// DistanceTo returns the Euclidean distance between two points
func (p Point3D) DistanceTo(rhs Point3D) float64 {
	dx := rhs.X - p.X
	dy := rhs.Y - p.Y
	dz := rhs.Z - p.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Dims returns 3
func (p Point3D) Dims() int { return 3 }

// PointN is a point whose dimensionality is only known at runtime, e.g. when
// samples come from a config file. A model over PointN checks that all of its
// points agree at construction; query positions are checked by EvaluateChecked.
type PointN []float64

// DistanceTo returns the Euclidean distance between two points.
// It panics if the points differ in length.
func (p PointN) DistanceTo(rhs PointN) float64 {
	return floats.Distance(p, rhs, 2)
}

// Dims returns the number of coordinates
func (p PointN) Dims() int { return len(p) }
