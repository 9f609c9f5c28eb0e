package checkpoint

import (
	"fmt"

	"github.com/born-ml/ffnet/internal/nn"
)

// Record is the in-memory form of a checkpoint: the architecture and a
// detached copy of every parameter.
type Record struct {
	Architecture nn.Architecture
	StateDict    nn.StateDict
}

// NewRecord snapshots model. Every buffer is copied, so later training
// steps cannot change the record.
func NewRecord(model *nn.FeedForward) *Record {
	return &Record{
		Architecture: model.Architecture(),
		StateDict:    model.StateDict(),
	}
}

// Build constructs a new model from the stored architecture and installs
// the stored parameters into it.
//
// The stored tensors are checked against the architecture before any
// model buffer is allocated, so a record whose architecture claims more
// than its tensors hold is rejected without building anything.
//
// Returns an error matching nn.ErrInvalidArchitecture if the stored
// architecture is invalid, or nn.ErrShapeMismatch if any stored buffer
// disagrees with it.
func (r *Record) Build(opts ...nn.Option) (*nn.FeedForward, error) {
	if err := r.Architecture.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	if err := r.Architecture.CheckStateDict(r.StateDict); err != nil {
		return nil, err
	}

	model, err := nn.New(r.Architecture, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	if err := model.LoadStateDict(r.StateDict); err != nil {
		return nil, err
	}
	return model, nil
}

// InstallInto copies the stored parameters into an existing model after
// checking that input size, output size and hidden layers all match.
//
// Returns an error matching nn.ErrShapeMismatch on any disagreement; the
// model is left unchanged.
func (r *Record) InstallInto(model *nn.FeedForward) error {
	if got := model.Architecture(); !got.Equal(r.Architecture) {
		return &nn.ShapeError{
			Name:    "architecture",
			Details: fmt.Sprintf("checkpoint has %v, model has %v", r.Architecture, got),
		}
	}
	return model.LoadStateDict(r.StateDict)
}
