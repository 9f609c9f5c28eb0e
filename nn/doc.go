// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the feed-forward classifier and its building blocks.
//
// # Overview
//
// This package contains:
//   - FeedForward: Linear → ReLU → Dropout per hidden layer, Linear → LogSoftmax output
//   - Architecture: input size, output size and hidden widths
//   - StateDict: ordered, detached snapshots of the parameters
//   - NLLLoss: negative log-likelihood over log-probabilities
//   - Initialization: Xavier, Zeros
//
// # Basic Usage
//
//	import "github.com/born-ml/ffnet/nn"
//
//	func main() {
//	    model, err := nn.New(nn.Architecture{
//	        InputSize:   784,
//	        OutputSize:  10,
//	        HiddenSizes: []int{512, 256, 128},
//	    }, nn.WithDropout(0.5))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Forward pass: [batch_size, 784] → [batch_size, 10] log-probabilities
//	    logProbs, err := model.Forward(batch)
//	}
//
// # Modes
//
// Models start in training mode, where hidden activations pass through
// inverted dropout. Eval switches dropout off. Inference runs a function in
// evaluation mode with gradient recording stopped and restores the previous
// state afterwards:
//
//	err := model.Inference(func() error {
//	    classes, err = model.Predict(batch)
//	    return err
//	})
//
// # Errors
//
// Construction with a bad architecture returns an error matching
// ErrInvalidArchitecture. Any disagreement between a batch or state dict
// and the model's shapes returns an error matching ErrShapeMismatch; use
// errors.As with *ShapeError for details.
package nn
