package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/autodiff"
	"github.com/born-ml/ffnet/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input matrix with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output matrix with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features], stored as a 1×out row
}

// NewLinear creates a new Linear layer whose parameters are named
// "<prefix>.weight" and "<prefix>.bias".
//
// Parameters:
//   - prefix: Layer name (e.g., "hidden_layers.0", "output")
//   - inFeatures: Number of input features
//   - outFeatures: Number of output features
//   - rng: Source of randomness for weight initialization
func NewLinear(prefix string, inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight: NewParameter(prefix+".weight",
			tensor.Shape{outFeatures, inFeatures}, Xavier(inFeatures, outFeatures, rng)),
		bias: NewParameter(prefix+".bias",
			tensor.Shape{outFeatures}, Zeros(1, outFeatures)),
	}
}

// Forward computes y = x @ W.T + b, recording on tape when it is recording.
//
// Returns an error matching ErrShapeMismatch if x does not have
// in_features columns.
func (l *Linear) Forward(tape *autodiff.GradientTape, input *mat.Dense) (*mat.Dense, error) {
	rows, cols := input.Dims()
	if cols != l.inFeatures {
		return nil, &ShapeError{
			Name:     l.weight.name,
			Expected: tensor.Shape{rows, l.inFeatures},
			Got:      tensor.Shape{rows, cols},
		}
	}
	return autodiff.Affine(tape, input, l.weight.value, l.bias.value), nil
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}

// String describes the layer like "Linear(in=784, out=128)".
func (l *Linear) String() string {
	return fmt.Sprintf("Linear(in=%d, out=%d)", l.inFeatures, l.outFeatures)
}
