package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ffnet/internal/nn"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	arch := cfg.Architecture()
	assert.Equal(t, 784, arch.InputSize)
	assert.Equal(t, 10, arch.OutputSize)
	assert.Equal(t, []int{512, 256, 128}, arch.HiddenSizes)
	assert.Equal(t, 0.5, cfg.Model.Dropout)
	assert.Equal(t, 64, cfg.Train.BatchSize)
	assert.Equal(t, 2, cfg.Train.Epochs)
	assert.Equal(t, 40, cfg.Train.EvalEvery)
	assert.Equal(t, "adam", cfg.Optimizer.Name)
	assert.Equal(t, 0.001, cfg.Optimizer.LR)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	input := `
model:
  hidden_layers: [128, 64]
  dropout: 0.2
  seed: 7
train:
  epochs: 5
optimizer:
  name: sgd
  lr: 0.01
  momentum: 0.9
`
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []int{128, 64}, cfg.Model.HiddenLayers)
	assert.Equal(t, 784, cfg.Model.InputSize, "unset fields keep defaults")
	assert.Equal(t, 5, cfg.Train.Epochs)
	assert.Equal(t, 64, cfg.Train.BatchSize)

	opt := cfg.OptimizerConfig()
	assert.Equal(t, "sgd", opt.Name)
	assert.Equal(t, 0.9, opt.Momentum)

	model, err := nn.New(cfg.Architecture(), cfg.ModelOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 0.2, model.Dropout())

	tc := cfg.TrainConfig()
	assert.Equal(t, 5, tc.Epochs)
	assert.Equal(t, 40, tc.EvalEvery)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown field", "model:\n  layers: [1]\n"},
		{"empty hidden layers", "model:\n  hidden_layers: []\n"},
		{"zero width", "model:\n  hidden_layers: [0]\n"},
		{"dropout one", "model:\n  dropout: 1\n"},
		{"zero epochs", "train:\n  epochs: 0\n"},
		{"zero batch", "train:\n  batch_size: 0\n"},
		{"negative eval interval", "train:\n  eval_every: -1\n"},
		{"split", "train:\n  validation_split: 1.5\n"},
		{"optimizer", "optimizer:\n  name: rmsprop\n"},
		{"learning rate", "optimizer:\n  lr: 0\n"},
		{"std", "data:\n  std: 0\n"},
		{"malformed", "model: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParse_InvalidArchitectureError(t *testing.T) {
	_, err := Parse(strings.NewReader("model:\n  output_size: -1\n"))
	assert.ErrorIs(t, err, nn.ErrInvalidArchitecture)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte("train:\n  epochs: 3\ncheckpoint:\n  path: out.ffck\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Train.Epochs)
	assert.Equal(t, "out.ffck", cfg.Checkpoint.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Model.HiddenLayers = []int{32}
	cfg.Optimizer.Name = "sgd"

	out, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "hidden_layers:")

	back, err := Parse(strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
