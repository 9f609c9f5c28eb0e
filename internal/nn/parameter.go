package nn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters wrap a dense matrix that the optimizer updates in place; the
// matrix pointer never changes, which is how gradients returned by the
// tape are matched back to their parameter.
//
// Example:
//
//	// Access the buffer
//	w := weight.Value()
//
//	// Get gradient after an optimizer step
//	grad := weight.Grad()
type Parameter struct {
	name  string       // Parameter name (e.g., "hidden_layers.0.weight")
	shape tensor.Shape // Reported shape ([out, in] for weights, [out] for biases)
	value *mat.Dense   // The parameter buffer
	grad  *mat.Dense   // Gradient from the last step (nil when cleared)
}

// NewParameter creates a new trainable parameter.
//
// shape is the logical shape reported to callers and serialized into
// checkpoints; it must describe the same number of elements as value.
func NewParameter(name string, shape tensor.Shape, value *mat.Dense) *Parameter {
	return &Parameter{
		name:  name,
		shape: shape.Clone(),
		value: value,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Shape returns a copy of the logical parameter shape.
func (p *Parameter) Shape() tensor.Shape {
	return p.shape.Clone()
}

// Value returns the parameter buffer.
func (p *Parameter) Value() *mat.Dense {
	return p.value
}

// Data returns the contiguous backing slice of the buffer.
func (p *Parameter) Data() []float64 {
	return tensor.Data(p.value)
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient is held (before a step or after ZeroGrad).
func (p *Parameter) Grad() *mat.Dense {
	return p.grad
}

// SetGrad sets the gradient tensor.
//
// This is called by the optimizer when it consumes a step's gradients.
func (p *Parameter) SetGrad(grad *mat.Dense) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
//
// This must be called after every step so gradients from distinct batches
// never accumulate.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}
