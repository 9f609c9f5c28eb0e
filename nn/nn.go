// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/autodiff"
	"github.com/born-ml/ffnet/internal/nn"
)

// Errors

// ErrInvalidArchitecture is returned when a model cannot be built from a descriptor.
var ErrInvalidArchitecture = nn.ErrInvalidArchitecture

// ErrShapeMismatch is returned when a batch or state dict does not fit a model.
var ErrShapeMismatch = nn.ErrShapeMismatch

// ShapeError describes a shape disagreement in detail.
type ShapeError = nn.ShapeError

// Model

// Architecture describes input size, output size and hidden widths.
type Architecture = nn.Architecture

// LayerShape is the input and output width of one linear layer.
type LayerShape = nn.LayerShape

// FeedForward is a fully connected classifier with log-softmax output.
type FeedForward = nn.FeedForward

// Option configures a FeedForward model.
type Option = nn.Option

// DefaultDropout is the dropout probability used when none is configured.
const DefaultDropout = nn.DefaultDropout

// New constructs a model whose parameter layout is derived from arch.
//
// Example:
//
//	model, err := nn.New(nn.Architecture{InputSize: 784, OutputSize: 10, HiddenSizes: []int{128, 64}})
func New(arch Architecture, opts ...Option) (*FeedForward, error) {
	return nn.New(arch, opts...)
}

// WithDropout sets the dropout probability, in [0, 1).
func WithDropout(p float64) Option {
	return nn.WithDropout(p)
}

// WithSeed makes initialization and dropout reproducible.
func WithSeed(seed int64) Option {
	return nn.WithSeed(seed)
}

// WithTape records forward passes on an existing gradient tape.
func WithTape(tape *autodiff.GradientTape) Option {
	return nn.WithTape(tape)
}

// Parameters

// Module is anything that owns parameters.
type Module = nn.Module

// Parameter is a named trainable buffer with an optional gradient.
type Parameter = nn.Parameter

// Tensor is a named, detached copy of one parameter buffer.
type Tensor = nn.Tensor

// StateDict is an ordered snapshot of parameter values.
type StateDict = nn.StateDict

// Layers

// Linear is a fully connected layer: y = x @ W.T + b.
type Linear = nn.Linear

// NewLinear creates a linear layer with Xavier-initialized weights and zero bias.
//
// Example:
//
//	layer := nn.NewLinear("fc", 784, 128, rand.New(rand.NewSource(1)))
func NewLinear(prefix string, inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.NewLinear(prefix, inFeatures, outFeatures, rng)
}

// Loss

// NLLLoss computes the mean negative log-likelihood of the labels.
func NLLLoss(tape *autodiff.GradientTape, logProbs *mat.Dense, labels []int) (float64, *mat.Dense, error) {
	return nn.NLLLoss(tape, logProbs, labels)
}

// CountCorrect returns how many rows have their arg-max at the label.
func CountCorrect(logProbs *mat.Dense, labels []int) int {
	return nn.CountCorrect(logProbs, labels)
}

// Initialization

// Xavier returns an [out, in] matrix with Xavier/Glorot uniform values.
func Xavier(fanIn, fanOut int, rng *rand.Rand) *mat.Dense {
	return nn.Xavier(fanIn, fanOut, rng)
}
