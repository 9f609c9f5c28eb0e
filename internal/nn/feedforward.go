package nn

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/autodiff"
	"github.com/born-ml/ffnet/internal/tensor"
)

// DefaultDropout is the dropout probability used when none is configured.
const DefaultDropout = 0.5

// Option configures a FeedForward model.
type Option func(*options)

type options struct {
	dropout float64
	seed    int64
	seeded  bool
	tape    *autodiff.GradientTape
}

// WithDropout sets the probability of zeroing a hidden unit during training.
// p must be in [0, 1); 0 disables dropout.
func WithDropout(p float64) Option {
	return func(o *options) {
		o.dropout = p
	}
}

// WithSeed makes weight initialization and dropout masks reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithTape records forward passes on an existing gradient tape instead of
// a private one.
func WithTape(tape *autodiff.GradientTape) Option {
	return func(o *options) {
		o.tape = tape
	}
}

// FeedForward is a fully connected classifier.
//
// Architecture:
//   - For every hidden size: Linear → ReLU → Dropout (training mode only)
//   - Output: Linear → LogSoftmax
//
// The model starts in training mode. Its only mutable state is the
// parameter store, the mode flag and the dropout random source.
//
// Example:
//
//	model, err := nn.New(nn.Architecture{
//	    InputSize:   784,
//	    OutputSize:  10,
//	    HiddenSizes: []int{128, 64},
//	}, nn.WithDropout(0.2))
//
//	logProbs, err := model.Forward(batch) // [batch_size, 10]
type FeedForward struct {
	arch     Architecture
	hidden   []*Linear
	output   *Linear
	store    *ParameterStore
	dropout  float64
	training bool
	tape     *autodiff.GradientTape
	rng      *rand.Rand
}

// New constructs a model whose parameter layout is derived from arch.
//
// Returns an error matching ErrInvalidArchitecture if arch is invalid or
// the dropout probability is outside [0, 1).
func New(arch Architecture, opts ...Option) (*FeedForward, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}

	o := options{dropout: DefaultDropout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dropout < 0 || o.dropout >= 1 {
		return nil, fmt.Errorf("%w: dropout probability must be in [0, 1), got %v", ErrInvalidArchitecture, o.dropout)
	}
	if !o.seeded {
		o.seed = time.Now().UnixNano()
	}
	if o.tape == nil {
		o.tape = autodiff.NewGradientTape()
	}

	//nolint:gosec // Using math/rand for initialization and dropout (not security-critical)
	rng := rand.New(rand.NewSource(o.seed))

	m := &FeedForward{
		arch:     arch.Clone(),
		dropout:  o.dropout,
		training: true,
		tape:     o.tape,
		rng:      rng,
	}

	layers := arch.Layers()
	modules := make([]Module, 0, len(layers))
	for i, shape := range layers[:len(layers)-1] {
		layer := NewLinear(layerName(i, len(layers)), shape.In, shape.Out, rng)
		m.hidden = append(m.hidden, layer)
		modules = append(modules, layer)
	}
	last := layers[len(layers)-1]
	m.output = NewLinear(layerName(len(layers)-1, len(layers)), last.In, last.Out, rng)
	modules = append(modules, m.output)

	m.store = NewParameterStore(modules...)
	return m, nil
}

// Forward computes per-class log-probabilities for a batch.
//
// Input shape: [batch_size, input_size]
// Output shape: [batch_size, output_size]; exp of every row sums to 1.
//
// In training mode hidden activations pass through dropout; in evaluation
// mode the pass is deterministic. Operations are recorded on the model's
// tape whenever it is recording.
//
// Returns an error matching ErrShapeMismatch if the batch width differs
// from the input size.
func (m *FeedForward) Forward(input *mat.Dense) (*mat.Dense, error) {
	rows, cols := input.Dims()
	if cols != m.arch.InputSize {
		return nil, &ShapeError{
			Name:     "input",
			Expected: tensor.Shape{rows, m.arch.InputSize},
			Got:      tensor.Shape{rows, cols},
		}
	}

	x := input
	for _, layer := range m.hidden {
		h, err := layer.Forward(m.tape, x)
		if err != nil {
			return nil, err
		}
		x = autodiff.ReLU(m.tape, h)
		if m.training {
			x = autodiff.Dropout(m.tape, x, m.dropout, m.rng)
		}
	}

	logits, err := m.output.Forward(m.tape, x)
	if err != nil {
		return nil, err
	}
	return autodiff.LogSoftmax(m.tape, logits), nil
}

// Predict returns the most likely class for every row of the batch.
//
// Runs in an inference region, so dropout is off and nothing is recorded.
func (m *FeedForward) Predict(input *mat.Dense) ([]int, error) {
	var classes []int
	err := m.Inference(func() error {
		logProbs, err := m.Forward(input)
		if err != nil {
			return err
		}
		classes = tensor.ArgMaxRows(logProbs)
		return nil
	})
	return classes, err
}

// Train switches the model to training mode (dropout active).
func (m *FeedForward) Train() {
	m.training = true
}

// Eval switches the model to evaluation mode (dropout disabled).
func (m *FeedForward) Eval() {
	m.training = false
}

// Training reports whether the model is in training mode.
func (m *FeedForward) Training() bool {
	return m.training
}

// Inference runs fn with the model in evaluation mode and gradient
// recording stopped.
//
// The previous mode and recording state are restored when fn returns,
// including when it returns an error or panics.
func (m *FeedForward) Inference(fn func() error) error {
	wasTraining := m.training
	wasRecording := m.tape.IsRecording()
	m.training = false
	m.tape.StopRecording()
	defer func() {
		m.training = wasTraining
		if wasRecording {
			m.tape.StartRecording()
		}
	}()

	return fn()
}

// Parameters returns all trainable parameters in serialization order:
// hidden_layers.0.weight, hidden_layers.0.bias, ..., output.weight, output.bias.
func (m *FeedForward) Parameters() []*Parameter {
	return m.store.Parameters()
}

// NumParameters returns the total number of trainable scalars.
func (m *FeedForward) NumParameters() int {
	return m.store.NumElements()
}

// StateDict returns a deep copy of all parameter values.
func (m *FeedForward) StateDict() StateDict {
	return m.store.Snapshot()
}

// LoadStateDict installs parameter values one-for-one by position.
//
// Returns an error matching ErrShapeMismatch if the state dict was taken
// from a model with a different architecture; the model is left unchanged.
func (m *FeedForward) LoadStateDict(sd StateDict) error {
	if err := m.store.Install(sd); err != nil {
		return fmt.Errorf("failed to load state dict: %w", err)
	}
	return nil
}

// Architecture returns a copy of the model's architecture descriptor.
func (m *FeedForward) Architecture() Architecture {
	return m.arch.Clone()
}

// Dropout returns the configured dropout probability.
func (m *FeedForward) Dropout() float64 {
	return m.dropout
}

// Tape returns the gradient tape forward passes are recorded on.
func (m *FeedForward) Tape() *autodiff.GradientTape {
	return m.tape
}

// String renders a layer summary, one line per module.
func (m *FeedForward) String() string {
	var b strings.Builder
	b.WriteString("FeedForward(\n")
	for i, layer := range m.hidden {
		fmt.Fprintf(&b, "  (hidden_layers.%d): %v\n", i, layer)
	}
	fmt.Fprintf(&b, "  (output): %v\n", m.output)
	fmt.Fprintf(&b, "  (dropout): Dropout(p=%v)\n", m.dropout)
	b.WriteString(")")
	return b.String()
}
