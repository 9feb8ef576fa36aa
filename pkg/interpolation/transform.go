package interpolation

import (
	"fmt"
	"math"
	"strings"
)

// WeightFunc transforms a raw weight 1/dᵖ into the weight used for averaging
type WeightFunc func(weight float64) float64

// Identity returns the weight unchanged
func Identity(weight float64) float64 { return weight }

// Sine maps a weight onto (1 + sin(4πw)) / 2, which oscillates between 0 and 1
func Sine(weight float64) float64 {
	return (1 + math.Sin(4*math.Pi*weight)) * 0.5
}

// Constant returns a transform that ignores the weight and always yields c.
// With any non-zero c the model degrades to the arithmetic mean of its values.
func Constant(c float64) WeightFunc {
	return func(float64) float64 { return c }
}

// Clamp returns a transform that limits weights to [lo, hi]
func Clamp(lo, hi float64) WeightFunc {
	return func(weight float64) float64 {
		return math.Max(lo, math.Min(hi, weight))
	}
}

// TransformByName resolves the transforms that can be selected from a config
// file. The empty name and "identity" both resolve to nil, which a model
// treats as the identity.
func TransformByName(name string) (WeightFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "identity", "none":
		return nil, nil
	case "constant":
		return Constant(1), nil
	case "sine":
		return Sine, nil
	default:
		return nil, fmt.Errorf("%w: unknown weight transform %q", ErrInvalidInput, name)
	}
}
