// Package optim implements update rules for training ffnet models.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Design inspired by PyTorch's torch.optim.
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	tape.StartRecording()
//	logProbs, _ := model.Forward(batch.Inputs)
//	_, loss, _ := nn.NLLLoss(tape, logProbs, batch.Labels)
//	grads := tape.Backward(loss)
//
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
//	tape.Clear()
package optim

import (
	"fmt"
	"strings"

	"github.com/born-ml/ffnet/internal/autodiff"
	"github.com/born-ml/ffnet/internal/nn"
	"github.com/born-ml/ffnet/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step applies gradient updates to all parameters in place.
	//
	// Takes the gradient map from GradientTape.Backward. Parameters with
	// no entry in the map are left unchanged.
	Step(grads autodiff.Gradients)

	// ZeroGrad clears all parameter gradients.
	//
	// This must be called after every Step so the next batch starts
	// from a clean gradient.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config selects and configures an optimizer by name.
type Config struct {
	Name     string     // "sgd" or "adam"
	LR       float64    // Learning rate (0 uses the optimizer default)
	Momentum float64    // SGD momentum
	Betas    [2]float64 // Adam betas
	Eps      float64    // Adam epsilon
}

// New creates the optimizer named in config over params.
func New(params []*nn.Parameter, config Config) (Optimizer, error) {
	switch strings.ToLower(config.Name) {
	case "sgd":
		if config.Momentum < 0 || config.Momentum >= 1 {
			return nil, fmt.Errorf("sgd momentum must be in [0, 1), got %v", config.Momentum)
		}
		return NewSGD(params, SGDConfig{LR: config.LR, Momentum: config.Momentum}), nil
	case "adam", "":
		return NewAdam(params, AdamConfig{LR: config.LR, Betas: config.Betas, Eps: config.Eps}), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", config.Name)
	}
}

// getGradient retrieves the gradient for a parameter and attaches it to the
// parameter until the next ZeroGrad.
//
// Returns nil if the parameter wasn't part of the computation graph.
func getGradient(param *nn.Parameter, grads autodiff.Gradients) []float64 {
	if param == nil {
		return nil
	}
	grad, ok := grads[param.Value()]
	if !ok {
		return nil
	}
	param.SetGrad(grad)
	return tensor.Data(grad)
}

func zeroGrad(params []*nn.Parameter) {
	for _, param := range params {
		param.ZeroGrad()
	}
}
