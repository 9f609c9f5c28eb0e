package optim_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/autodiff"
	"github.com/born-ml/ffnet/internal/nn"
	"github.com/born-ml/ffnet/internal/optim"
	"github.com/born-ml/ffnet/internal/tensor"
)

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func scalarParam(name string, v float64) *nn.Parameter {
	return nn.NewParameter(name, tensor.Shape{1}, mat.NewDense(1, 1, []float64{v}))
}

func gradFor(param *nn.Parameter, g float64) autodiff.Gradients {
	return autodiff.Gradients{param.Value(): mat.NewDense(1, 1, []float64{g})}
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	param := scalarParam("x", 2.0)
	optimizer := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1})

	optimizer.Step(gradFor(param, 1.0))

	// Expected: x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	if got := param.Data()[0]; !floatEqual(got, 1.9, 1e-12) {
		t.Errorf("SGD update: got %f, want 1.9", got)
	}
}

// TestSGD_WithMomentum tests SGD with momentum.
func TestSGD_WithMomentum(t *testing.T) {
	param := scalarParam("x", 1.0)
	optimizer := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// v_1 = 1.0, x_1 = 1.0 - 0.1 * 1.0 = 0.9
	optimizer.Step(gradFor(param, 1.0))
	if got := param.Data()[0]; !floatEqual(got, 0.9, 1e-12) {
		t.Errorf("SGD momentum step 1: got %f, want 0.9", got)
	}

	// v_2 = 0.9 * 1.0 + 1.0 = 1.9, x_2 = 0.9 - 0.1 * 1.9 = 0.71
	optimizer.Step(gradFor(param, 1.0))
	if got := param.Data()[0]; !floatEqual(got, 0.71, 1e-12) {
		t.Errorf("SGD momentum step 2: got %f, want 0.71", got)
	}
}

// TestSGD_SkipsParametersWithoutGradient tests that untouched parameters stay put.
func TestSGD_SkipsParametersWithoutGradient(t *testing.T) {
	a := scalarParam("a", 1.0)
	b := scalarParam("b", 1.0)
	optimizer := optim.NewSGD([]*nn.Parameter{a, b}, optim.SGDConfig{LR: 0.5})

	optimizer.Step(gradFor(a, 1.0))

	if a.Data()[0] != 0.5 {
		t.Errorf("a: got %f, want 0.5", a.Data()[0])
	}
	if b.Data()[0] != 1.0 {
		t.Errorf("b: got %f, want 1.0 (no gradient)", b.Data()[0])
	}
	if b.Grad() != nil {
		t.Error("b should not receive a gradient")
	}
}

// TestSGD_ZeroGrad tests that Step attaches gradients and ZeroGrad clears them.
func TestSGD_ZeroGrad(t *testing.T) {
	param := scalarParam("x", 1.0)
	optimizer := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1})

	optimizer.Step(gradFor(param, 5.0))
	if param.Grad() == nil {
		t.Fatal("Grad should be attached after Step")
	}

	optimizer.ZeroGrad()
	if param.Grad() != nil {
		t.Error("Grad should be nil after ZeroGrad")
	}
}

// TestSGD_GetSetLR tests learning rate getter/setter.
func TestSGD_GetSetLR(t *testing.T) {
	optimizer := optim.NewSGD(nil, optim.SGDConfig{LR: 0.01})
	if optimizer.GetLR() != 0.01 {
		t.Errorf("GetLR: got %f, want 0.01", optimizer.GetLR())
	}

	optimizer.SetLR(0.001)
	if optimizer.GetLR() != 0.001 {
		t.Errorf("SetLR: got %f, want 0.001", optimizer.GetLR())
	}

	if def := optim.NewSGD(nil, optim.SGDConfig{}); def.GetLR() != 0.01 {
		t.Errorf("default LR: got %f, want 0.01", def.GetLR())
	}
}

// TestAdam_FirstStep tests that the first bias-corrected step moves by lr.
func TestAdam_FirstStep(t *testing.T) {
	param := scalarParam("x", 1.0)
	optimizer := optim.NewAdam([]*nn.Parameter{param}, optim.AdamConfig{LR: 0.1})

	// m_hat = g, v_hat = g², step = lr * g / (|g| + eps) ≈ lr
	optimizer.Step(gradFor(param, 3.0))

	if got := param.Data()[0]; !floatEqual(got, 0.9, 1e-6) {
		t.Errorf("Adam step 1: got %f, want 0.9", got)
	}
	if optimizer.Timestep() != 1 {
		t.Errorf("Timestep: got %d, want 1", optimizer.Timestep())
	}
}

// TestAdam_Defaults tests default hyperparameters.
func TestAdam_Defaults(t *testing.T) {
	optimizer := optim.NewAdam(nil, optim.AdamConfig{})
	if optimizer.GetLR() != 0.001 {
		t.Errorf("default LR: got %f, want 0.001", optimizer.GetLR())
	}
}

// TestAdam_MinimizesQuadratic tests convergence on f(x) = (x - 3)².
func TestAdam_MinimizesQuadratic(t *testing.T) {
	param := scalarParam("x", 0.0)
	optimizer := optim.NewAdam([]*nn.Parameter{param}, optim.AdamConfig{LR: 0.1})

	for i := 0; i < 500; i++ {
		x := param.Data()[0]
		optimizer.Step(gradFor(param, 2*(x-3)))
		optimizer.ZeroGrad()
	}

	if got := param.Data()[0]; !floatEqual(got, 3.0, 0.1) {
		t.Errorf("Adam did not converge: got %f, want 3.0", got)
	}
}

// TestNew tests optimizer selection by name.
func TestNew(t *testing.T) {
	params := []*nn.Parameter{scalarParam("x", 1.0)}

	tests := []struct {
		config  optim.Config
		wantLR  float64
		wantErr bool
	}{
		{config: optim.Config{Name: "sgd", LR: 0.05, Momentum: 0.9}, wantLR: 0.05},
		{config: optim.Config{Name: "Adam", LR: 0.003}, wantLR: 0.003},
		{config: optim.Config{}, wantLR: 0.001},
		{config: optim.Config{Name: "sgd", Momentum: 1.5}, wantErr: true},
		{config: optim.Config{Name: "rmsprop"}, wantErr: true},
	}

	for _, tt := range tests {
		opt, err := optim.New(params, tt.config)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%+v): expected error", tt.config)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%+v): %v", tt.config, err)
			continue
		}
		if !floatEqual(opt.GetLR(), tt.wantLR, 1e-12) {
			t.Errorf("New(%+v): LR %f, want %f", tt.config, opt.GetLR(), tt.wantLR)
		}
	}
}
