package train

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/data"
	"github.com/born-ml/ffnet/internal/nn"
	"github.com/born-ml/ffnet/internal/optim"
)

func newModel(t *testing.T, arch nn.Architecture, opts ...nn.Option) *nn.FeedForward {
	t.Helper()
	model, err := nn.New(arch, append([]nn.Option{nn.WithSeed(1)}, opts...)...)
	require.NoError(t, err)
	return model
}

func randomBatch(rng *rand.Rand, n, features, classes int) data.Batch {
	inputs := mat.NewDense(n, features, nil)
	inputs.Apply(func(_, _ int, _ float64) float64 { return rng.Float64()*2 - 1 }, inputs)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = rng.Intn(classes)
	}
	return data.Batch{Inputs: inputs, Labels: labels}
}

func newAdam(t *testing.T, model *nn.FeedForward, lr float64) optim.Optimizer {
	t.Helper()
	opt, err := optim.New(model.Parameters(), optim.Config{Name: "adam", LR: lr})
	require.NoError(t, err)
	return opt
}

// One training step on a 784/10/[128,64] model with four random examples
// yields a finite positive loss and changes at least one parameter.
func TestTrain_SingleStepUpdatesParameters(t *testing.T) {
	model := newModel(t, nn.Architecture{InputSize: 784, OutputSize: 10, HiddenSizes: []int{128, 64}})
	rng := rand.New(rand.NewSource(3))
	src := data.StaticSource{randomBatch(rng, 4, 784, 10)}
	before := model.StateDict()

	history, err := New(Config{Epochs: 1}).Train(model, src, nil, nn.NLLLoss, newAdam(t, model, 0.001))
	require.NoError(t, err)

	require.Len(t, history.Epochs, 1)
	loss := history.Epochs[0].TrainLoss
	assert.False(t, math.IsNaN(loss) || math.IsInf(loss, 0))
	assert.Greater(t, loss, 0.0)
	assert.Equal(t, 1, history.Epochs[0].Batches)

	after := model.StateDict()
	changed := false
	for i := range before {
		for j := range before[i].Data {
			if before[i].Data[j] != after[i].Data[j] {
				changed = true
			}
		}
	}
	assert.True(t, changed, "at least one parameter must change")
	assert.Zero(t, model.Tape().NumOps(), "tape is cleared after every batch")
	assert.False(t, model.Tape().IsRecording())
	for _, p := range model.Parameters() {
		assert.Nil(t, p.Grad(), "%s gradient must be cleared", p.Name())
	}
}

func TestTrain_LossDecreases(t *testing.T) {
	ds, err := data.Synthetic(120, 8, 3, 5)
	require.NoError(t, err)
	loader, err := data.NewLoader(ds, 16, data.WithShuffle(true), data.WithRand(rand.New(rand.NewSource(9))))
	require.NoError(t, err)

	model := newModel(t, nn.Architecture{InputSize: 8, OutputSize: 3, HiddenSizes: []int{16}}, nn.WithDropout(0.1))
	history, err := New(Config{Epochs: 15}).Train(model, loader, nil, nn.NLLLoss, newAdam(t, model, 0.01))
	require.NoError(t, err)

	require.Len(t, history.Epochs, 15)
	first := history.Epochs[0]
	last, ok := history.LastEpoch()
	require.True(t, ok)
	assert.Less(t, last.TrainLoss, first.TrainLoss)

	_, accuracy, err := Evaluate(model, loader, nn.NLLLoss)
	require.NoError(t, err)
	assert.Greater(t, accuracy, 0.8)
}

func TestEvaluate_DoesNotMutateModel(t *testing.T) {
	model := newModel(t, nn.Architecture{InputSize: 6, OutputSize: 3, HiddenSizes: []int{5}})
	rng := rand.New(rand.NewSource(11))
	src := data.StaticSource{randomBatch(rng, 7, 6, 3), randomBatch(rng, 3, 6, 3)}

	model.Train()
	model.Tape().StartRecording()
	before := model.StateDict()

	loss1, acc1, err := Evaluate(model, src, nn.NLLLoss)
	require.NoError(t, err)
	loss2, acc2, err := Evaluate(model, src, nn.NLLLoss)
	require.NoError(t, err)

	assert.Equal(t, before, model.StateDict())
	assert.Equal(t, loss1, loss2, "evaluation is deterministic")
	assert.Equal(t, acc1, acc2)
	assert.True(t, model.Training(), "training mode restored")
	assert.True(t, model.Tape().IsRecording(), "recording restored")
	assert.Zero(t, model.Tape().NumOps(), "nothing recorded during evaluation")
}

func TestEvaluate_WeightsByExamples(t *testing.T) {
	model := newModel(t, nn.Architecture{InputSize: 4, OutputSize: 2, HiddenSizes: []int{3}})
	rng := rand.New(rand.NewSource(2))
	big := randomBatch(rng, 6, 4, 2)
	small := randomBatch(rng, 2, 4, 2)

	joined := mat.NewDense(8, 4, nil)
	joined.Stack(big.Inputs, small.Inputs)
	whole := data.Batch{Inputs: joined, Labels: append(append([]int{}, big.Labels...), small.Labels...)}

	splitLoss, splitAcc, err := Evaluate(model, data.StaticSource{big, small}, nn.NLLLoss)
	require.NoError(t, err)
	wholeLoss, wholeAcc, err := Evaluate(model, data.StaticSource{whole}, nn.NLLLoss)
	require.NoError(t, err)

	assert.InDelta(t, wholeLoss, splitLoss, 1e-12)
	assert.InDelta(t, wholeAcc, splitAcc, 1e-12)
}

func TestTrain_EvalEvery(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	var batches data.StaticSource
	for range 5 {
		batches = append(batches, randomBatch(rng, 4, 6, 3))
	}
	val := data.StaticSource{randomBatch(rng, 8, 6, 3)}

	tests := []struct {
		name      string
		evalEvery int
		wantSteps []int
	}{
		{name: "every two batches", evalEvery: 2, wantSteps: []int{2, 4, 6, 8, 10}},
		{name: "end of epoch", evalEvery: 0, wantSteps: []int{5, 10}},
		{name: "interval longer than run", evalEvery: 20, wantSteps: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := newModel(t, nn.Architecture{InputSize: 6, OutputSize: 3, HiddenSizes: []int{4}})
			history, err := New(Config{Epochs: 2, EvalEvery: tt.evalEvery}).
				Train(model, batches, val, nn.NLLLoss, newAdam(t, model, 0.001))
			require.NoError(t, err)

			var steps []int
			for _, e := range history.Evals {
				steps = append(steps, e.Step)
				assert.GreaterOrEqual(t, e.Accuracy, 0.0)
				assert.LessOrEqual(t, e.Accuracy, 1.0)
				assert.Greater(t, e.ValLoss, 0.0)
			}
			assert.Equal(t, tt.wantSteps, steps)
			assert.True(t, model.Training(), "evaluation restores training mode")
		})
	}
}

func TestTrain_ShapeMismatchFailsFast(t *testing.T) {
	model := newModel(t, nn.Architecture{InputSize: 6, OutputSize: 3, HiddenSizes: []int{4}})
	rng := rand.New(rand.NewSource(8))
	src := data.StaticSource{
		randomBatch(rng, 4, 6, 3),
		randomBatch(rng, 4, 5, 3), // wrong width
		randomBatch(rng, 4, 6, 3),
	}

	history, err := New(Config{Epochs: 3}).Train(model, src, nil, nn.NLLLoss, newAdam(t, model, 0.001))
	require.Error(t, err)
	assert.True(t, errors.Is(err, nn.ErrShapeMismatch))
	assert.Contains(t, err.Error(), "epoch 1 step 2")
	assert.Empty(t, history.Epochs, "the failing epoch is not reported")
	assert.Zero(t, model.Tape().NumOps())
}

func TestTrain_BadLabelsFailFast(t *testing.T) {
	model := newModel(t, nn.Architecture{InputSize: 2, OutputSize: 2, HiddenSizes: []int{2}})
	src := data.StaticSource{{Inputs: mat.NewDense(1, 2, nil), Labels: []int{2}}}

	_, err := New(Config{Epochs: 1}).Train(model, src, nil, nn.NLLLoss, newAdam(t, model, 0.001))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
}

func TestTrain_EmptySource(t *testing.T) {
	model := newModel(t, nn.Architecture{InputSize: 2, OutputSize: 2, HiddenSizes: []int{2}})

	_, err := New(Config{Epochs: 1}).Train(model, data.StaticSource{}, nil, nn.NLLLoss, newAdam(t, model, 0.001))
	assert.ErrorIs(t, err, ErrEmptySource)

	_, _, err = Evaluate(model, data.StaticSource{}, nn.NLLLoss)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestTrain_InvalidConfig(t *testing.T) {
	model := newModel(t, nn.Architecture{InputSize: 2, OutputSize: 2, HiddenSizes: []int{2}})
	src := data.StaticSource{{Inputs: mat.NewDense(1, 2, nil), Labels: []int{0}}}

	_, err := New(Config{Epochs: 0}).Train(model, src, nil, nn.NLLLoss, newAdam(t, model, 0.001))
	assert.Error(t, err)
	_, err = New(Config{Epochs: 1, EvalEvery: -1}).Train(model, src, nil, nn.NLLLoss, newAdam(t, model, 0.001))
	assert.Error(t, err)
}

func TestTrain_LogsWithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	model := newModel(t, nn.Architecture{InputSize: 3, OutputSize: 2, HiddenSizes: []int{2}})
	rng := rand.New(rand.NewSource(6))
	src := data.StaticSource{randomBatch(rng, 2, 3, 2)}

	_, err := New(Config{Epochs: 1}, WithLogger(logger)).Train(model, src, src, nn.NLLLoss, newAdam(t, model, 0.001))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "run_id=")
	assert.Contains(t, out, `msg="epoch finished"`)
	assert.Contains(t, out, "msg=evaluation")
	assert.Contains(t, out, "val_loss=")
	assert.Equal(t, 4, strings.Count(out, "run_id="), "start, epoch, evaluation and finish lines")
}

func TestTrain_NonFiniteOutputDiverges(t *testing.T) {
	model := newModel(t, nn.Architecture{InputSize: 2, OutputSize: 2, HiddenSizes: []int{2}}, nn.WithDropout(0))
	params := model.Parameters()
	bias := params[len(params)-1]
	bias.Data()[0] = math.NaN()
	weights := append([]float64(nil), params[0].Data()...)

	src := data.StaticSource{{Inputs: mat.NewDense(1, 2, []float64{0.5, 1}), Labels: []int{0}}}
	_, err := New(Config{Epochs: 1}).Train(model, src, nil, nn.NLLLoss, newAdam(t, model, 0.001))
	assert.ErrorIs(t, err, ErrDiverged)
	assert.Equal(t, weights, params[0].Data(), "no update is applied")
}
