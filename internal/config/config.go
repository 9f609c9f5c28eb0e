// Package config loads training job configuration from YAML.
//
// A job file overlays the defaults, so it only needs the fields it changes:
//
//	model:
//	  hidden_layers: [256, 128]
//	  dropout: 0.2
//	train:
//	  epochs: 5
//	optimizer:
//	  name: sgd
//	  lr: 0.01
//	  momentum: 0.9
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/ffnet/internal/nn"
	"github.com/born-ml/ffnet/internal/optim"
	"github.com/born-ml/ffnet/internal/train"
)

// Config is a complete training job description.
type Config struct {
	Model      Model      `yaml:"model"`
	Train      Train      `yaml:"train"`
	Optimizer  Optimizer  `yaml:"optimizer"`
	Data       Data       `yaml:"data"`
	Checkpoint Checkpoint `yaml:"checkpoint"`
}

// Model describes the network.
type Model struct {
	InputSize    int     `yaml:"input_size"`
	OutputSize   int     `yaml:"output_size"`
	HiddenLayers []int   `yaml:"hidden_layers"`
	Dropout      float64 `yaml:"dropout"`
	Seed         int64   `yaml:"seed"` // 0 = seed from the clock
}

// Train holds training loop settings.
type Train struct {
	Epochs          int     `yaml:"epochs"`
	BatchSize       int     `yaml:"batch_size"`
	EvalEvery       int     `yaml:"eval_every"` // 0 = once per epoch
	ValidationSplit float64 `yaml:"validation_split"`
	Shuffle         bool    `yaml:"shuffle"`
}

// Optimizer selects the update rule.
type Optimizer struct {
	Name     string     `yaml:"name"` // "adam" or "sgd"
	LR       float64    `yaml:"lr"`
	Momentum float64    `yaml:"momentum"`
	Betas    [2]float64 `yaml:"betas"`
	Eps      float64    `yaml:"eps"`
}

// Data locates the dataset.
type Data struct {
	Dir        string  `yaml:"dir"`         // Directory holding IDX files
	Synthetic  bool    `yaml:"synthetic"`   // Use generated clusters instead of files
	Samples    int     `yaml:"samples"`     // Synthetic sample count
	MaxSamples int     `yaml:"max_samples"` // 0 = all
	Mean       float64 `yaml:"mean"`        // Normalization mean
	Std        float64 `yaml:"std"`         // Normalization standard deviation
}

// Checkpoint sets where the trained model is written.
type Checkpoint struct {
	Path string `yaml:"path"`
}

// Default returns the configuration of the Fashion-MNIST exercise:
// 784 inputs, 10 classes, hidden layers [512, 256, 128], dropout 0.5,
// batch size 64, 2 epochs, evaluation every 40 batches and Adam at 0.001.
func Default() Config {
	return Config{
		Model: Model{
			InputSize:    784,
			OutputSize:   10,
			HiddenLayers: []int{512, 256, 128},
			Dropout:      nn.DefaultDropout,
		},
		Train: Train{
			Epochs:          2,
			BatchSize:       64,
			EvalEvery:       40,
			ValidationSplit: 0.1,
			Shuffle:         true,
		},
		Optimizer: Optimizer{
			Name:  "adam",
			LR:    0.001,
			Betas: [2]float64{0.9, 0.999},
			Eps:   1e-8,
		},
		Data: Data{
			Dir:     "./data",
			Samples: 2000,
			Mean:    0.5,
			Std:     0.5,
		},
		Checkpoint: Checkpoint{
			Path: "checkpoint.ffck",
		},
	}
}

// Load reads a YAML job file and overlays it on Default.
func Load(path string) (Config, error) {
	//nolint:gosec // G304: config path comes from the command line
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML from r over Default and validates the result.
// Unknown fields are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Architecture().Validate(); err != nil {
		return err
	}
	if c.Model.Dropout < 0 || c.Model.Dropout >= 1 {
		return fmt.Errorf("%w: dropout must be in [0, 1), got %v", nn.ErrInvalidArchitecture, c.Model.Dropout)
	}
	if err := c.TrainConfig().Validate(); err != nil {
		return err
	}
	if c.Train.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.Train.BatchSize)
	}
	if c.Train.ValidationSplit < 0 || c.Train.ValidationSplit >= 1 {
		return fmt.Errorf("validation split must be in [0, 1), got %v", c.Train.ValidationSplit)
	}
	switch strings.ToLower(c.Optimizer.Name) {
	case "adam", "sgd":
	default:
		return fmt.Errorf("unknown optimizer %q", c.Optimizer.Name)
	}
	if c.Optimizer.LR <= 0 {
		return fmt.Errorf("learning rate must be positive, got %v", c.Optimizer.LR)
	}
	if c.Data.Std == 0 {
		return fmt.Errorf("normalization std must be non-zero")
	}
	if c.Data.Synthetic && c.Data.Samples <= 0 {
		return fmt.Errorf("synthetic sample count must be positive, got %d", c.Data.Samples)
	}
	return nil
}

// Architecture returns the model descriptor.
func (c Config) Architecture() nn.Architecture {
	return nn.Architecture{
		InputSize:   c.Model.InputSize,
		OutputSize:  c.Model.OutputSize,
		HiddenSizes: append([]int(nil), c.Model.HiddenLayers...),
	}
}

// ModelOptions returns the nn options for the model section.
func (c Config) ModelOptions() []nn.Option {
	opts := []nn.Option{nn.WithDropout(c.Model.Dropout)}
	if c.Model.Seed != 0 {
		opts = append(opts, nn.WithSeed(c.Model.Seed))
	}
	return opts
}

// TrainConfig returns the training loop settings.
func (c Config) TrainConfig() train.Config {
	return train.Config{Epochs: c.Train.Epochs, EvalEvery: c.Train.EvalEvery}
}

// OptimizerConfig returns the optimizer settings.
func (c Config) OptimizerConfig() optim.Config {
	return optim.Config{
		Name:     c.Optimizer.Name,
		LR:       c.Optimizer.LR,
		Momentum: c.Optimizer.Momentum,
		Betas:    c.Optimizer.Betas,
		Eps:      c.Optimizer.Eps,
	}
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}
