// Package autodiff implements reverse-mode automatic differentiation for the
// closed set of operations a feed-forward classifier needs.
//
// Architecture:
//   - GradientTape: records operations during the forward pass
//   - Operation interface: each op (Affine, ReLU, Dropout, LogSoftmax, NLL)
//     implements its own backward pass
//   - Reverse-mode AD: walks the tape backwards applying the chain rule
//
// Matrices are gonum *mat.Dense values and are identified by pointer, so a
// parameter buffer keeps the same identity across steps while the optimizer
// mutates its contents in place.
//
// Usage:
//
//	tape := autodiff.NewGradientTape()
//	tape.StartRecording()
//	h := autodiff.Affine(tape, x, w, b)
//	logp := autodiff.LogSoftmax(tape, h)
//	loss := autodiff.NLL(tape, logp, labels)
//	grads := tape.Backward(loss)
//	dW := grads[w]
package autodiff

import (
	"gonum.org/v1/gonum/mat"
)

// Gradients maps a matrix to the gradient of the tape output with respect
// to it.
type Gradients map[*mat.Dense]*mat.Dense

// Operation is a recorded forward computation that knows how to propagate
// a gradient from its output back to its inputs.
type Operation interface {
	// Inputs returns the matrices the operation read, in a fixed order.
	Inputs() []*mat.Dense

	// Output returns the matrix the operation produced.
	Output() *mat.Dense

	// Backward returns one gradient per input (nil where no gradient flows).
	Backward(outputGrad *mat.Dense) []*mat.Dense
}

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients := tape.Backward(loss)
type GradientTape struct {
	operations []Operation // Recorded operations (in execution order)
	recording  bool        // Whether tape is currently recording
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]Operation, 0, 16),
		recording:  false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
// A nil tape never records.
func (t *GradientTape) IsRecording() bool {
	return t != nil && t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op Operation) {
	if t.IsRecording() {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	clear(t.operations)
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward computes gradients of output with respect to every matrix that
// took part in the recorded computation.
//
// Algorithm:
//  1. Seed the output with a gradient of ones (1 for a scalar loss)
//  2. Walk operations in reverse order
//  3. For each operation with an incoming gradient, compute input gradients
//  4. Accumulate gradients when the same matrix is used multiple times
//
// Recording is suspended while walking the tape and restored afterwards.
func (t *GradientTape) Backward(output *mat.Dense) Gradients {
	grads := make(Gradients)
	if len(t.operations) == 0 || output == nil {
		return grads
	}

	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	r, c := output.Dims()
	seed := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			seed.Set(i, j, 1)
		}
	}
	grads[output] = seed

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		t.accumulateGrads(op, op.Backward(outGrad), grads)
	}

	return grads
}

// accumulateGrads accumulates gradients for each input matrix.
func (t *GradientTape) accumulateGrads(op Operation, inputGrads []*mat.Dense, grads Gradients) {
	for j, input := range op.Inputs() {
		if j >= len(inputGrads) {
			break
		}
		inputGrad := inputGrads[j]
		if inputGrad == nil || input == nil {
			continue
		}
		if existing, ok := grads[input]; ok {
			var sum mat.Dense
			sum.Add(existing, inputGrad)
			grads[input] = &sum
		} else {
			grads[input] = inputGrad
		}
	}
}
