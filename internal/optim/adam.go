package optim

import (
	"math"

	"github.com/born-ml/ffnet/internal/autodiff"
	"github.com/born-ml/ffnet/internal/nn"
)

// Adam implements the Adam optimizer (Adaptive Moment Estimation).
//
// Update rule:
//
//	m = beta1 * m + (1 - beta1) * grad
//	v = beta2 * v + (1 - beta2) * grad²
//	m_hat = m / (1 - beta1^t)
//	v_hat = v / (1 - beta2^t)
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
//
// Example:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
type Adam struct {
	params []*nn.Parameter
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int                         // Timestep for bias correction
	m      map[*nn.Parameter][]float64 // First moment estimates
	v      map[*nn.Parameter][]float64 // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer, filling zero config fields with
// the defaults.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*nn.Parameter][]float64),
		v:      make(map[*nn.Parameter][]float64),
	}
}

// Step performs a single optimization step.
func (a *Adam) Step(grads autodiff.Gradients) {
	a.t++

	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		m, ok := a.m[param]
		if !ok {
			m = make([]float64, len(grad))
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = make([]float64, len(grad))
			a.v[param] = v
		}

		data := param.Data()
		for i, g := range grad {
			m[i] = a.beta1*m[i] + (1.0-a.beta1)*g
			v[i] = a.beta2*v[i] + (1.0-a.beta2)*g*g
			mHat := m[i] / biasCorrection1
			vHat := v[i] / biasCorrection2
			data[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam) ZeroGrad() {
	zeroGrad(a.params)
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// Timestep returns the number of steps taken so far.
func (a *Adam) Timestep() int {
	return a.t
}
