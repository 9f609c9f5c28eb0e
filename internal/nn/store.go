package nn

import (
	"fmt"
	"slices"

	"github.com/born-ml/ffnet/internal/tensor"
)

// Tensor is a named, detached copy of one parameter buffer.
type Tensor struct {
	Name  string       // Parameter name
	Shape tensor.Shape // Logical shape
	Data  []float64    // Row-major values
}

// StateDict is an ordered snapshot of parameter values.
//
// Entries appear in the same order as the model's Parameters(). A state
// dict never aliases live model buffers.
type StateDict []Tensor

// Lookup returns the entry with the given name.
func (sd StateDict) Lookup(name string) (Tensor, bool) {
	for _, t := range sd {
		if t.Name == name {
			return t, true
		}
	}
	return Tensor{}, false
}

// Clone returns a deep copy of the state dict.
func (sd StateDict) Clone() StateDict {
	out := make(StateDict, len(sd))
	for i, t := range sd {
		out[i] = Tensor{
			Name:  t.Name,
			Shape: t.Shape.Clone(),
			Data:  slices.Clone(t.Data),
		}
	}
	return out
}

// ParameterStore owns the ordered parameter buffers of a model.
type ParameterStore struct {
	params []*Parameter
}

// NewParameterStore collects the parameters of the given modules in order.
func NewParameterStore(modules ...Module) *ParameterStore {
	s := &ParameterStore{}
	for _, m := range modules {
		s.params = append(s.params, m.Parameters()...)
	}
	return s
}

// Parameters returns the parameters in serialization order.
func (s *ParameterStore) Parameters() []*Parameter {
	return slices.Clone(s.params)
}

// NumElements returns the total number of trainable scalars.
func (s *ParameterStore) NumElements() int {
	n := 0
	for _, p := range s.params {
		n += p.shape.NumElements()
	}
	return n
}

// Snapshot copies every buffer by value into a new state dict.
func (s *ParameterStore) Snapshot() StateDict {
	sd := make(StateDict, len(s.params))
	for i, p := range s.params {
		sd[i] = Tensor{
			Name:  p.name,
			Shape: p.shape.Clone(),
			Data:  slices.Clone(p.Data()),
		}
	}
	return sd
}

// Install copies a state dict into the store, one entry per parameter by
// position.
//
// Every entry is checked before any buffer is written, so a rejected state
// dict leaves the store untouched. Count, name, shape or length
// disagreements return an error matching ErrShapeMismatch.
func (s *ParameterStore) Install(sd StateDict) error {
	if len(sd) != len(s.params) {
		return &ShapeError{
			Details: fmt.Sprintf("state dict has %d tensors, model has %d parameters", len(sd), len(s.params)),
		}
	}

	for i, p := range s.params {
		t := sd[i]
		if t.Name != p.name {
			return &ShapeError{
				Name:    p.name,
				Details: fmt.Sprintf("position %d holds %q", i, t.Name),
			}
		}
		if !t.Shape.Equal(p.shape) {
			return &ShapeError{Name: p.name, Expected: p.Shape(), Got: t.Shape.Clone()}
		}
		if len(t.Data) != p.shape.NumElements() {
			return &ShapeError{
				Name:    p.name,
				Details: fmt.Sprintf("%d values for %d elements", len(t.Data), p.shape.NumElements()),
			}
		}
	}

	for i, p := range s.params {
		copy(p.Data(), sd[i].Data)
	}
	return nil
}
