package nn

import (
	"fmt"
	"slices"

	"github.com/born-ml/ffnet/internal/tensor"
)

// Architecture describes the layer sizes of a feed-forward classifier.
//
// Hidden layer i maps HiddenSizes[i-1] (InputSize for i == 0) to
// HiddenSizes[i]; the output layer maps the last hidden size to OutputSize.
type Architecture struct {
	InputSize   int   // Number of input features (e.g., 784 for 28×28 images)
	OutputSize  int   // Number of classes
	HiddenSizes []int // Widths of the hidden layers, in order
}

// LayerShape is the [out, in] shape of one affine layer.
type LayerShape struct {
	In  int
	Out int
}

// Validate checks that every size is positive and at least one hidden
// layer is present.
//
// Returns an error matching ErrInvalidArchitecture.
func (a Architecture) Validate() error {
	if a.InputSize <= 0 {
		return fmt.Errorf("%w: input size must be positive, got %d", ErrInvalidArchitecture, a.InputSize)
	}
	if a.OutputSize <= 0 {
		return fmt.Errorf("%w: output size must be positive, got %d", ErrInvalidArchitecture, a.OutputSize)
	}
	if len(a.HiddenSizes) == 0 {
		return fmt.Errorf("%w: at least one hidden layer is required", ErrInvalidArchitecture)
	}
	for i, size := range a.HiddenSizes {
		if size <= 0 {
			return fmt.Errorf("%w: hidden layer %d size must be positive, got %d", ErrInvalidArchitecture, i, size)
		}
	}
	return nil
}

// Layers returns the shape of every affine layer, hidden layers first and
// the output layer last.
func (a Architecture) Layers() []LayerShape {
	layers := make([]LayerShape, 0, len(a.HiddenSizes)+1)
	in := a.InputSize
	for _, out := range a.HiddenSizes {
		layers = append(layers, LayerShape{In: in, Out: out})
		in = out
	}
	return append(layers, LayerShape{In: in, Out: a.OutputSize})
}

// layerName returns the parameter prefix of layer i out of n layers.
func layerName(i, n int) string {
	if i == n-1 {
		return "output"
	}
	return fmt.Sprintf("hidden_layers.%d", i)
}

// CheckStateDict verifies that sd holds exactly the tensors a model built
// from a would have, by position, name and shape. No parameters are
// allocated, so an untrusted state dict can be checked before building.
//
// Returns an error matching ErrShapeMismatch on the first disagreement.
func (a Architecture) CheckStateDict(sd StateDict) error {
	layers := a.Layers()
	if want := 2 * len(layers); len(sd) != want {
		return &ShapeError{
			Details: fmt.Sprintf("state dict has %d tensors, architecture %v needs %d", len(sd), a, want),
		}
	}

	for i, layer := range layers {
		prefix := layerName(i, len(layers))
		expected := []Tensor{
			{Name: prefix + ".weight", Shape: tensor.Shape{layer.Out, layer.In}},
			{Name: prefix + ".bias", Shape: tensor.Shape{layer.Out}},
		}
		for j, want := range expected {
			got := sd[2*i+j]
			if got.Name != want.Name {
				details := fmt.Sprintf("position %d holds %q", 2*i+j, got.Name)
				if _, ok := sd.Lookup(want.Name); !ok {
					details += ", tensor is missing"
				}
				return &ShapeError{Name: want.Name, Details: details}
			}
			if !got.Shape.Equal(want.Shape) {
				return &ShapeError{Name: want.Name, Expected: want.Shape, Got: got.Shape.Clone()}
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the architecture.
func (a Architecture) Clone() Architecture {
	a.HiddenSizes = slices.Clone(a.HiddenSizes)
	return a
}

// Equal reports whether two architectures describe the same layer shapes.
func (a Architecture) Equal(other Architecture) bool {
	return a.InputSize == other.InputSize &&
		a.OutputSize == other.OutputSize &&
		slices.Equal(a.HiddenSizes, other.HiddenSizes)
}

// String formats the architecture as "784 -> [128 64] -> 10".
func (a Architecture) String() string {
	return fmt.Sprintf("%d -> %v -> %d", a.InputSize, a.HiddenSizes, a.OutputSize)
}
