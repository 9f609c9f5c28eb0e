package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/autodiff"
	"github.com/born-ml/ffnet/internal/tensor"
)

// NLLLoss computes the negative log-likelihood loss.
//
// Loss = -mean(logProbs[i, labels[i]])
//
// It expects log-probabilities (the output of FeedForward.Forward), so
// NLLLoss after LogSoftmax is the usual cross-entropy. When tape is
// recording the operation is recorded and the returned node is the 1×1
// matrix to call tape.Backward on.
//
// Parameters:
//   - tape: Gradient tape (may be nil)
//   - logProbs: Log-probabilities with shape [batch_size, num_classes]
//   - labels: Class index per row, each in [0, num_classes)
//
// Returns the loss value, the loss node and an error matching
// ErrShapeMismatch when labels do not fit logProbs.
func NLLLoss(tape *autodiff.GradientTape, logProbs *mat.Dense, labels []int) (float64, *mat.Dense, error) {
	rows, cols := logProbs.Dims()
	if len(labels) != rows {
		return 0, nil, &ShapeError{
			Name:     "labels",
			Expected: tensor.Shape{rows},
			Got:      tensor.Shape{len(labels)},
		}
	}
	for i, label := range labels {
		if label < 0 || label >= cols {
			return 0, nil, &ShapeError{
				Name:    "labels",
				Details: fmt.Sprintf("label %d at row %d is outside [0, %d)", label, i, cols),
			}
		}
	}

	node := autodiff.NLL(tape, logProbs, labels)
	return node.At(0, 0), node, nil
}

// CountCorrect returns how many rows have their arg-max at the label.
func CountCorrect(logProbs *mat.Dense, labels []int) int {
	correct := 0
	for i, class := range tensor.ArgMaxRows(logProbs) {
		if i < len(labels) && class == labels[i] {
			correct++
		}
	}
	return correct
}
