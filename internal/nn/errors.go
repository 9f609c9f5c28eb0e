package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/ffnet/internal/tensor"
)

// Common errors.
var (
	ErrInvalidArchitecture = errors.New("invalid architecture")
	ErrShapeMismatch       = errors.New("shape mismatch")
)

// ShapeError provides detailed information about a shape disagreement
// between a model and a batch or a state dict.
//
// ShapeError matches ErrShapeMismatch with errors.Is.
type ShapeError struct {
	Name     string       // Parameter or input involved (e.g., "output.weight", "input")
	Expected tensor.Shape // Shape the model requires
	Got      tensor.Shape // Shape that was supplied
	Details  string       // Additional details
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	msg := ErrShapeMismatch.Error()
	if e.Name != "" {
		msg += fmt.Sprintf(": %q", e.Name)
	}
	if e.Expected != nil || e.Got != nil {
		msg += fmt.Sprintf(": expected %v, got %v", e.Expected, e.Got)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}
