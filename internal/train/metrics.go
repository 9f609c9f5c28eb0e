package train

import "log/slog"

// EpochMetrics summarizes one pass over the training source.
type EpochMetrics struct {
	Epoch     int     // 1-based epoch number
	TrainLoss float64 // Running loss divided by the number of batches
	Batches   int     // Batches processed in the epoch
}

// EvalMetrics is the result of one validation pass.
type EvalMetrics struct {
	Epoch     int     // Epoch during which the evaluation ran
	Step      int     // Global batch count at evaluation time
	TrainLoss float64 // Mean training loss since the previous evaluation
	ValLoss   float64 // Example-weighted validation loss
	Accuracy  float64 // Fraction of validation examples classified correctly
}

func (m EvalMetrics) attrs(epochs int) []any {
	return []any{
		slog.Int("epoch", m.Epoch),
		slog.Int("epochs", epochs),
		slog.Int("step", m.Step),
		slog.Float64("train_loss", m.TrainLoss),
		slog.Float64("val_loss", m.ValLoss),
		slog.Float64("accuracy", m.Accuracy),
	}
}

// History collects the metrics of a training run.
type History struct {
	Epochs []EpochMetrics
	Evals  []EvalMetrics
}

// LastEpoch returns the metrics of the final completed epoch.
func (h *History) LastEpoch() (EpochMetrics, bool) {
	if len(h.Epochs) == 0 {
		return EpochMetrics{}, false
	}
	return h.Epochs[len(h.Epochs)-1], true
}

// LastEval returns the most recent evaluation.
func (h *History) LastEval() (EvalMetrics, bool) {
	if len(h.Evals) == 0 {
		return EvalMetrics{}, false
	}
	return h.Evals[len(h.Evals)-1], true
}
