// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training models.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	tape := model.Tape()
//	tape.StartRecording()
//	logProbs, err := model.Forward(batch.Inputs)
//	_, loss, err := nn.NLLLoss(tape, logProbs, batch.Labels)
//	grads := tape.Backward(loss)
//
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
//	tape.Clear()
//
// Optimizers mutate parameter buffers in place; parameters without an
// entry in the gradient map are left unchanged.
package optim
