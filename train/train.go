// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train runs the mini-batch training loop for ffnet models.
//
// Example:
//
//	trainer := train.New(train.Config{Epochs: 2, EvalEvery: 40}, train.WithLogger(slog.Default()))
//	history, err := trainer.Train(model, trainLoader, valLoader, nn.NLLLoss, optimizer)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	last, _ := history.LastEval()
//	fmt.Printf("accuracy: %.3f\n", last.Accuracy)
package train

import (
	"log/slog"

	"github.com/born-ml/ffnet/internal/data"
	"github.com/born-ml/ffnet/internal/train"
)

// Errors
var (
	ErrEmptySource = train.ErrEmptySource
	ErrDiverged    = train.ErrDiverged
)

// Trainer runs the training loop.
type Trainer = train.Trainer

// Config holds training loop settings.
type Config = train.Config

// Option configures a Trainer.
type Option = train.Option

// Model is the part of a classifier the training loop drives.
type Model = train.Model

// LossFunc computes a scalar loss from log-probabilities and labels.
type LossFunc = train.LossFunc

// History collects the metrics of a training run.
type History = train.History

// EpochMetrics summarizes one pass over the training source.
type EpochMetrics = train.EpochMetrics

// EvalMetrics is the result of one validation pass.
type EvalMetrics = train.EvalMetrics

// New creates a trainer.
func New(cfg Config, opts ...Option) *Trainer {
	return train.New(cfg, opts...)
}

// WithLogger sets the structured logger progress is reported to.
func WithLogger(logger *slog.Logger) Option {
	return train.WithLogger(logger)
}

// Evaluate computes the example-weighted mean loss and accuracy of model
// over src without changing its parameters.
func Evaluate(model Model, src data.Source, lossFn LossFunc) (loss, accuracy float64, err error) {
	return train.Evaluate(model, src, lossFn)
}
