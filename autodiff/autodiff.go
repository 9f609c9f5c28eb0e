// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation for the
// operations of a feed-forward classifier.
//
// Operations record themselves on a GradientTape while it is recording;
// Backward walks the tape in reverse and returns the gradient of the output
// with respect to every matrix that took part.
//
// Example:
//
//	tape := autodiff.NewGradientTape()
//	tape.StartRecording()
//	logProbs := autodiff.LogSoftmax(tape, autodiff.Affine(tape, x, w, b))
//	loss := autodiff.NLL(tape, logProbs, labels)
//	grads := tape.Backward(loss)
package autodiff

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/autodiff"
)

// GradientTape records operations for the backward pass.
type GradientTape = autodiff.GradientTape

// Gradients maps each matrix to its gradient.
type Gradients = autodiff.Gradients

// Operation is a recorded differentiable operation.
type Operation = autodiff.Operation

// NewGradientTape creates a tape that is not yet recording.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// Affine computes x @ W.T + b.
func Affine(tape *GradientTape, x, w, b *mat.Dense) *mat.Dense {
	return autodiff.Affine(tape, x, w, b)
}

// ReLU applies max(0, x) element-wise.
func ReLU(tape *GradientTape, x *mat.Dense) *mat.Dense {
	return autodiff.ReLU(tape, x)
}

// Dropout applies inverted dropout with probability p.
func Dropout(tape *GradientTape, x *mat.Dense, p float64, rng *rand.Rand) *mat.Dense {
	return autodiff.Dropout(tape, x, p, rng)
}

// LogSoftmax computes a numerically stable row-wise log-softmax.
func LogSoftmax(tape *GradientTape, x *mat.Dense) *mat.Dense {
	return autodiff.LogSoftmax(tape, x)
}

// NLL returns the mean negative log-likelihood of labels as a 1×1 matrix.
func NLL(tape *GradientTape, logProbs *mat.Dense, labels []int) *mat.Dense {
	return autodiff.NLL(tape, logProbs, labels)
}
