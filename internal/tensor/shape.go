// Package tensor holds shape metadata and the small set of gonum matrix
// helpers shared by the model, the optimizers and the checkpoint codec.
//
// All numeric buffers in ffnet are row-major *mat.Dense values created
// with mat.NewDense, so their backing slice is contiguous and can be copied
// directly to and from serialized state.
package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape represents the dimensions of a parameter buffer.
//
// Weights have shape [out_features, in_features], biases [out_features].
type Shape []int

// NumElements returns the total number of elements described by the shape.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("empty shape")
	}
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// String formats the shape as [d0 d1 ...].
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = strconv.Itoa(dim)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
