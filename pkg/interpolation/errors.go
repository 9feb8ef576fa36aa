package interpolation

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a model or one of its helpers is given
// arguments it cannot work with: empty sample sets, points/values length
// mismatches, unknown transform names or degenerate grid axes.
var ErrInvalidInput = errors.New("invalid input")

// ErrDimensionMismatch indicates that a point does not have the
// dimensionality the model was built with.
//
// It also matches ErrInvalidInput under errors.Is.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports whether target is ErrInvalidInput.
func (e *ErrDimensionMismatch) Is(target error) bool {
	return target == ErrInvalidInput
}
