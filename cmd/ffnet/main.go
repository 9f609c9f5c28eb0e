// Package main provides the ffnet command line tool.
//
// Usage:
//
//	ffnet train   [-config job.yaml] [-data DIR | -synthetic] [-epochs N] [-lr F] [-out PATH]
//	ffnet eval    -checkpoint PATH [-data DIR | -synthetic -seed N]
//	ffnet inspect PATH
//	ffnet version
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/born-ml/ffnet/internal/checkpoint"
	"github.com/born-ml/ffnet/internal/config"
	"github.com/born-ml/ffnet/internal/data"
	"github.com/born-ml/ffnet/internal/nn"
	"github.com/born-ml/ffnet/internal/optim"
	"github.com/born-ml/ffnet/internal/parallel"
	"github.com/born-ml/ffnet/internal/train"
)

const version = "v0.1.0"

// errUsage marks command line mistakes; main exits with status 2 for them.
var errUsage = errors.New("usage error")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "ffnet: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return nil
	}

	switch args[0] {
	case "train":
		return runTrain(args[1:], stdout, stderr)
	case "eval":
		return runEval(args[1:], stdout, stderr)
	case "inspect":
		return runInspect(args[1:], stdout)
	case "version":
		printVersion(stdout)
		return nil
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "ffnet %s - feed-forward classifier training\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  train      Train a model and write a checkpoint")
	fmt.Fprintln(w, "  eval       Evaluate a checkpoint on the test split")
	fmt.Fprintln(w, "  inspect    Show the architecture and tensors of a checkpoint")
	fmt.Fprintln(w, "  version    Show version")
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "ffnet %s\n", version)
	cpu := parallel.DetectCPU()
	fmt.Fprintf(w, "cpu: %s (%d cores, %d threads, avx2=%v, fma=%v)\n",
		cpu.Brand, cpu.PhysicalCores, cpu.LogicalCores, cpu.AVX2, cpu.FMA3)
}

func newLogger(w io.Writer, quiet bool) *slog.Logger {
	if quiet {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// dataFlags are shared by train and eval.
type dataFlags struct {
	dir        string
	synthetic  bool
	maxSamples int
}

func (d *dataFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&d.dir, "data", "", "Directory containing MNIST-format IDX files")
	fs.BoolVar(&d.synthetic, "synthetic", false, "Use synthetic data (for testing without data files)")
	fs.IntVar(&d.maxSamples, "samples", 0, "Max samples to load (0 = all)")
}

// apply overrides the data section with the flags that were set.
func (d *dataFlags) apply(fs *flag.FlagSet, cfg *config.Data) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Dir = d.dir
		case "synthetic":
			cfg.Synthetic = d.synthetic
		case "samples":
			cfg.MaxSamples = d.maxSamples
		}
	})
}

// loadDataset loads the requested split with the configured normalization.
// Synthetic data ignores the split and is generated from seed.
func loadDataset(cfg config.Config, trainSplit bool, seed int64) (*data.Dataset, error) {
	arch := cfg.Architecture()
	if cfg.Data.Synthetic {
		samples := cfg.Data.Samples
		if cfg.Data.MaxSamples > 0 {
			samples = min(samples, cfg.Data.MaxSamples)
		}
		return data.Synthetic(samples, arch.InputSize, arch.OutputSize, seed)
	}

	ds, err := data.LoadMNIST(cfg.Data.Dir, trainSplit, cfg.Data.MaxSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to load data from %s: %w", cfg.Data.Dir, err)
	}
	if ds.Features() != arch.InputSize || ds.Classes != arch.OutputSize {
		return nil, &nn.ShapeError{
			Name:    "dataset",
			Details: fmt.Sprintf("dataset has %d features and %d classes, model expects %d and %d", ds.Features(), ds.Classes, arch.InputSize, arch.OutputSize),
		}
	}
	if err := ds.Normalize(cfg.Data.Mean, cfg.Data.Std); err != nil {
		return nil, err
	}
	return ds, nil
}

func runTrain(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML job file (defaults are used when empty)")
	epochs := fs.Int("epochs", 0, "Number of training epochs")
	batchSize := fs.Int("batch", 0, "Batch size")
	lr := fs.Float64("lr", 0, "Learning rate")
	evalEvery := fs.Int("eval-every", 0, "Evaluate every N batches (0 = once per epoch)")
	seed := fs.Int64("seed", 0, "Random seed for initialization, dropout and shuffling")
	out := fs.String("out", "", "Checkpoint output path")
	quiet := fs.Bool("quiet", false, "Suppress progress logs")
	var df dataFlags
	df.register(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "epochs":
			cfg.Train.Epochs = *epochs
		case "batch":
			cfg.Train.BatchSize = *batchSize
		case "lr":
			cfg.Optimizer.LR = *lr
		case "eval-every":
			cfg.Train.EvalEvery = *evalEvery
		case "seed":
			cfg.Model.Seed = *seed
		case "out":
			cfg.Checkpoint.Path = *out
		}
	})
	df.apply(fs, &cfg.Data)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(stderr, *quiet)
	runSeed := cfg.Model.Seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}
	//nolint:gosec // Shuffling and splitting are not security-critical
	rng := rand.New(rand.NewSource(runSeed))

	ds, err := loadDataset(cfg, true, runSeed)
	if err != nil {
		return err
	}

	trainSet, valSet := ds, (*data.Dataset)(nil)
	if cfg.Train.ValidationSplit > 0 {
		trainSet, valSet, err = ds.Split(cfg.Train.ValidationSplit, rng)
		if err != nil {
			return fmt.Errorf("failed to split data: %w", err)
		}
	}

	trainLoader, err := data.NewLoader(trainSet, cfg.Train.BatchSize, data.WithShuffle(cfg.Train.Shuffle), data.WithRand(rng))
	if err != nil {
		return err
	}
	var valSource data.Source
	if valSet != nil {
		valLoader, err := data.NewLoader(valSet, cfg.Train.BatchSize)
		if err != nil {
			return err
		}
		valSource = valLoader
	}

	model, err := nn.New(cfg.Architecture(), append(cfg.ModelOptions(), nn.WithSeed(runSeed))...)
	if err != nil {
		return err
	}
	optimizer, err := optim.New(model.Parameters(), cfg.OptimizerConfig())
	if err != nil {
		return err
	}

	logger.Info("model created",
		slog.String("architecture", cfg.Architecture().String()),
		slog.Int("parameters", model.NumParameters()),
		slog.Int64("seed", runSeed),
		slog.Int("train_samples", trainSet.NumSamples()),
		slog.Int("batches_per_epoch", trainLoader.NumBatches()))

	trainer := train.New(cfg.TrainConfig(), train.WithLogger(logger))
	history, err := trainer.Train(model, trainLoader, valSource, nn.NLLLoss, optimizer)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	manager := checkpoint.NewManager(checkpoint.WithLogger(logger))
	if err := manager.Save(model, cfg.Checkpoint.Path); err != nil {
		return err
	}

	if last, ok := history.LastEpoch(); ok {
		fmt.Fprintf(stdout, "Epoch %d/%d: train loss %.4f\n", last.Epoch, cfg.Train.Epochs, last.TrainLoss)
	}
	if eval, ok := history.LastEval(); ok {
		fmt.Fprintf(stdout, "Validation: loss %.4f, accuracy %.2f%%\n", eval.ValLoss, eval.Accuracy*100)
	}
	fmt.Fprintf(stdout, "Seed: %d\n", runSeed)
	fmt.Fprintf(stdout, "Checkpoint written to %s\n", cfg.Checkpoint.Path)
	return nil
}

func runEval(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("checkpoint", "", "Checkpoint to evaluate")
	configPath := fs.String("config", "", "YAML job file for data settings")
	batchSize := fs.Int("batch", 256, "Batch size")
	seed := fs.Int64("seed", 0, "Seed the synthetic data was generated with (required with -synthetic unless the job file sets model.seed)")
	quiet := fs.Bool("quiet", false, "Suppress progress logs")
	var df dataFlags
	df.register(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *path == "" {
		return fmt.Errorf("%w: -checkpoint is required", errUsage)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	df.apply(fs, &cfg.Data)

	dataSeed := cfg.Model.Seed
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			dataSeed = *seed
		}
	})
	if cfg.Data.Synthetic && dataSeed == 0 {
		return fmt.Errorf("%w: -seed is required with -synthetic (use the seed printed by train)", errUsage)
	}

	manager := checkpoint.NewManager(checkpoint.WithLogger(newLogger(stderr, *quiet)))
	model, err := manager.Load(*path)
	if err != nil {
		return err
	}

	arch := model.Architecture()
	cfg.Model.InputSize, cfg.Model.OutputSize, cfg.Model.HiddenLayers = arch.InputSize, arch.OutputSize, arch.HiddenSizes
	ds, err := loadDataset(cfg, false, dataSeed)
	if err != nil {
		return err
	}
	loader, err := data.NewLoader(ds, *batchSize)
	if err != nil {
		return err
	}

	loss, accuracy, err := train.Evaluate(model, loader, nn.NLLLoss)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	fmt.Fprintf(stdout, "Test loss: %.4f\n", loss)
	fmt.Fprintf(stdout, "Test accuracy: %.2f%% (%d samples)\n", accuracy*100, ds.NumSamples())
	return nil
}

func runInspect(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: inspect takes exactly one checkpoint path", errUsage)
	}

	header, err := checkpoint.ReadHeader(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Architecture: %v\n", header.Architecture())
	fmt.Fprintf(stdout, "Parameters: %d\n", header.NumElements())
	for _, t := range header.StateDict {
		fmt.Fprintf(stdout, "  %-24s %-8s %v\n", t.Name, t.DType, t.Shape)
	}
	return nil
}
