// Package train drives mini-batch training of a classifier: forward pass,
// loss, backward pass and optimizer update per batch, with running loss
// accumulation, per-epoch reporting and periodic validation.
package train

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/autodiff"
	"github.com/born-ml/ffnet/internal/data"
	"github.com/born-ml/ffnet/internal/nn"
	"github.com/born-ml/ffnet/internal/optim"
	"github.com/born-ml/ffnet/internal/tensor"
)

// Common errors.
var (
	ErrEmptySource = errors.New("data source produced no batches")
	ErrDiverged    = errors.New("training diverged: non-finite log-probabilities")
)

// Model is the part of a classifier the training loop drives.
// *nn.FeedForward implements it.
type Model interface {
	// Forward returns per-class log-probabilities for a batch.
	Forward(input *mat.Dense) (*mat.Dense, error)

	// Train switches the model to training mode.
	Train()

	// Inference runs fn in evaluation mode with recording stopped.
	Inference(fn func() error) error

	// Tape returns the gradient tape forward passes are recorded on.
	Tape() *autodiff.GradientTape
}

// LossFunc computes a scalar loss from log-probabilities and labels.
// It returns the loss value and the node to run backward from.
// nn.NLLLoss satisfies it.
type LossFunc func(tape *autodiff.GradientTape, logProbs *mat.Dense, labels []int) (float64, *mat.Dense, error)

// Config holds training loop settings.
type Config struct {
	Epochs    int // Number of passes over the training source
	EvalEvery int // Evaluate every N batches (0 = once at the end of each epoch)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.EvalEvery < 0 {
		return fmt.Errorf("eval interval must be non-negative, got %d", c.EvalEvery)
	}
	return nil
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the structured logger progress is reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trainer) {
		t.logger = logger
	}
}

// Trainer runs the training loop.
//
// Example:
//
//	trainer := train.New(train.Config{Epochs: 2, EvalEvery: 40}, train.WithLogger(logger))
//	history, err := trainer.Train(model, trainLoader, valLoader, nn.NLLLoss, optimizer)
type Trainer struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a trainer. Without WithLogger progress is discarded.
func New(cfg Config, opts ...Option) *Trainer {
	t := &Trainer{cfg: cfg}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	return t
}

// Config returns the trainer's configuration.
func (t *Trainer) Config() Config {
	return t.cfg
}

// Train runs cfg.Epochs passes over trainSrc, updating the model's
// parameters through opt after every batch.
//
// For each batch:
//  1. Switch the model to training mode and start recording
//  2. Forward pass and loss
//  3. Backward pass over the tape
//  4. opt.Step with the gradients, then opt.ZeroGrad
//  5. Clear the tape so nothing carries over to the next batch
//
// When valSrc is non-nil the model is evaluated every cfg.EvalEvery batches
// (or at the end of each epoch when EvalEvery is 0). Evaluation runs under
// model.Inference and does not touch parameters.
//
// A malformed batch stops training immediately with its error (an
// ErrShapeMismatch for wrong widths or labels). The returned history holds
// every metric recorded before the failure.
func (t *Trainer) Train(model Model, trainSrc, valSrc data.Source, lossFn LossFunc, opt optim.Optimizer) (*History, error) {
	if err := t.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}

	logger := t.logger.With(slog.String("run_id", uuid.NewString()))
	history := &History{}
	tape := model.Tape()

	logger.Info("training started",
		slog.Int("epochs", t.cfg.Epochs),
		slog.Int("eval_every", t.cfg.EvalEvery),
		slog.Float64("lr", opt.GetLR()))

	step := 0
	sinceEval := 0
	lossSinceEval := 0.0

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		runningLoss := 0.0
		batches := 0

		for batch := range trainSrc.Batches() {
			model.Train()
			tape.Clear()
			tape.StartRecording()

			loss, err := t.step(model, batch, lossFn, opt)
			tape.StopRecording()
			tape.Clear()
			if err != nil {
				return history, fmt.Errorf("epoch %d step %d: %w", epoch, step+1, err)
			}

			step++
			batches++
			runningLoss += loss
			sinceEval++
			lossSinceEval += loss

			if valSrc != nil && t.cfg.EvalEvery > 0 && step%t.cfg.EvalEvery == 0 {
				metrics, err := t.evaluate(model, valSrc, lossFn, epoch, step, lossSinceEval/float64(sinceEval))
				if err != nil {
					return history, err
				}
				history.Evals = append(history.Evals, metrics)
				logger.Info("evaluation", metrics.attrs(t.cfg.Epochs)...)
				sinceEval, lossSinceEval = 0, 0
			}
		}

		if batches == 0 {
			return history, fmt.Errorf("epoch %d: %w", epoch, ErrEmptySource)
		}

		epochMetrics := EpochMetrics{
			Epoch:     epoch,
			TrainLoss: runningLoss / float64(batches),
			Batches:   batches,
		}
		history.Epochs = append(history.Epochs, epochMetrics)
		logger.Info("epoch finished",
			slog.Int("epoch", epoch),
			slog.Int("epochs", t.cfg.Epochs),
			slog.Float64("train_loss", epochMetrics.TrainLoss),
			slog.Int("batches", batches))

		if valSrc != nil && t.cfg.EvalEvery == 0 {
			metrics, err := t.evaluate(model, valSrc, lossFn, epoch, step, epochMetrics.TrainLoss)
			if err != nil {
				return history, err
			}
			history.Evals = append(history.Evals, metrics)
			logger.Info("evaluation", metrics.attrs(t.cfg.Epochs)...)
			sinceEval, lossSinceEval = 0, 0
		}
	}

	logger.Info("training finished", slog.Int("steps", step))
	return history, nil
}

// step runs forward, loss, backward and update for one batch.
func (t *Trainer) step(model Model, batch data.Batch, lossFn LossFunc, opt optim.Optimizer) (float64, error) {
	logProbs, err := model.Forward(batch.Inputs)
	if err != nil {
		return 0, fmt.Errorf("failed forward pass: %w", err)
	}
	if !tensor.IsFinite(logProbs) {
		return 0, ErrDiverged
	}

	loss, node, err := lossFn(model.Tape(), logProbs, batch.Labels)
	if err != nil {
		return 0, fmt.Errorf("failed to compute loss: %w", err)
	}

	grads := model.Tape().Backward(node)
	opt.Step(grads)
	opt.ZeroGrad()
	return loss, nil
}

func (t *Trainer) evaluate(model Model, src data.Source, lossFn LossFunc, epoch, step int, trainLoss float64) (EvalMetrics, error) {
	valLoss, accuracy, err := Evaluate(model, src, lossFn)
	if err != nil {
		return EvalMetrics{}, fmt.Errorf("evaluation at step %d failed: %w", step, err)
	}
	return EvalMetrics{
		Epoch:     epoch,
		Step:      step,
		TrainLoss: trainLoss,
		ValLoss:   valLoss,
		Accuracy:  accuracy,
	}, nil
}

// Evaluate computes the mean loss and accuracy of model over src.
//
// Runs inside model.Inference: dropout is off, nothing is recorded and the
// previous mode is restored afterwards. Loss and accuracy are weighted by
// the number of examples, so a short final batch counts proportionally.
func Evaluate(model Model, src data.Source, lossFn LossFunc) (loss, accuracy float64, err error) {
	var totalLoss float64
	var correct, total int

	err = model.Inference(func() error {
		for batch := range src.Batches() {
			logProbs, err := model.Forward(batch.Inputs)
			if err != nil {
				return fmt.Errorf("failed forward pass: %w", err)
			}
			batchLoss, _, err := lossFn(nil, logProbs, batch.Labels)
			if err != nil {
				return fmt.Errorf("failed to compute loss: %w", err)
			}
			n := batch.Size()
			totalLoss += batchLoss * float64(n)
			correct += nn.CountCorrect(logProbs, batch.Labels)
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	if total == 0 {
		return 0, 0, ErrEmptySource
	}
	return totalLoss / float64(total), float64(correct) / float64(total), nil
}
