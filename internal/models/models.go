package models

import (
	"math"
)

// Sample is a single scattered data point as read from configuration
type Sample struct {
	// Position holds 1, 2 or 3 coordinates
	Position []float64 `yaml:"position"`

	// Value is the scalar measured at Position
	Value float64 `yaml:"value"`
}

// Dims returns the number of coordinates of the sample position
func (s Sample) Dims() int { return len(s.Position) }

// Volume represents a regular grid of interpolated values
type Volume struct {
	// Data is the grid as a 1D array in row-major order (x fastest, then y, then z)
	Data []float64

	// Width, Height, Depth are the grid dimensions in cells
	Width  int
	Height int
	Depth  int

	// Origin is the world coordinate of cell (0,0,0)
	Origin [3]float64

	// Spacing is the world distance between neighbouring cells along each axis
	Spacing [3]float64
}

// NewVolume allocates a zeroed volume of the given size
func NewVolume(width, height, depth int) *Volume {
	return &Volume{
		Data:   make([]float64, width*height*depth),
		Width:  width,
		Height: height,
		Depth:  depth,
	}
}

// Index returns the offset of cell (x, y, z) in Data
func (v *Volume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}

// At returns the value stored at cell (x, y, z)
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[v.Index(x, y, z)]
}

// Range returns the smallest and largest finite values in the volume.
// NaN cells are skipped; an all-NaN volume yields (0, 0).
func (v *Volume) Range() (lo, hi float64) {
	first := true
	for _, d := range v.Data {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		if first {
			lo, hi = d, d
			first = false
			continue
		}
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	return lo, hi
}
