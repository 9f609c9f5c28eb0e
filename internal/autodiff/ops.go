package autodiff

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/parallel"
	"github.com/born-ml/ffnet/internal/tensor"
)

// AffineOp records y = x @ W.T + b.
//
// Shapes: x [batch, in], W [out, in], b [1, out], y [batch, out].
type AffineOp struct {
	x, w, b *mat.Dense
	output  *mat.Dense
}

// Affine computes x @ W.T + b and records the operation on the tape.
//
// b must be a 1×out row that is broadcast over the batch.
func Affine(tape *GradientTape, x, w, b *mat.Dense) *mat.Dense {
	batch, _ := x.Dims()
	out, _ := w.Dims()

	y := mat.NewDense(batch, out, nil)
	y.Mul(x, w.T())
	bias := b.RawRowView(0)
	for i := 0; i < batch; i++ {
		floats.Add(y.RawRowView(i), bias)
	}

	tape.Record(&AffineOp{x: x, w: w, b: b, output: y})
	return y
}

// Inputs returns [x, W, b].
func (op *AffineOp) Inputs() []*mat.Dense { return []*mat.Dense{op.x, op.w, op.b} }

// Output returns y.
func (op *AffineOp) Output() *mat.Dense { return op.output }

// Backward computes:
//
//	dx = dy @ W
//	dW = dy.T @ x
//	db = sum over batch of dy
func (op *AffineOp) Backward(outputGrad *mat.Dense) []*mat.Dense {
	batch, in := op.x.Dims()
	out, _ := op.w.Dims()

	dx := mat.NewDense(batch, in, nil)
	dx.Mul(outputGrad, op.w)

	dw := mat.NewDense(out, in, nil)
	dw.Mul(outputGrad.T(), op.x)

	return []*mat.Dense{dx, dw, tensor.ColSums(outputGrad)}
}

// ReLUOp records y = max(0, x).
type ReLUOp struct {
	input  *mat.Dense
	output *mat.Dense
}

// ReLU applies max(0, x) element-wise and records the operation on the tape.
func ReLU(tape *GradientTape, x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	y := mat.NewDense(r, c, nil)
	src, dst := tensor.Data(x), tensor.Data(y)
	for i, v := range src {
		if v > 0 {
			dst[i] = v
		}
	}

	tape.Record(&ReLUOp{input: x, output: y})
	return y
}

// Inputs returns [x].
func (op *ReLUOp) Inputs() []*mat.Dense { return []*mat.Dense{op.input} }

// Output returns y.
func (op *ReLUOp) Output() *mat.Dense { return op.output }

// Backward passes the gradient through where x > 0.
func (op *ReLUOp) Backward(outputGrad *mat.Dense) []*mat.Dense {
	r, c := op.input.Dims()
	dx := mat.NewDense(r, c, nil)
	src, g, dst := tensor.Data(op.input), tensor.Data(outputGrad), tensor.Data(dx)
	for i, v := range src {
		if v > 0 {
			dst[i] = g[i]
		}
	}
	return []*mat.Dense{dx}
}

// DropoutOp records y = x * mask where mask holds 0 or 1/(1-p).
type DropoutOp struct {
	input  *mat.Dense
	mask   *mat.Dense
	output *mat.Dense
}

// Dropout zeroes every element of x independently with probability p and
// scales the survivors by 1/(1-p) so the expected activation is unchanged.
//
// p must be in [0, 1). With p == 0 the input is returned unchanged and
// nothing is recorded.
func Dropout(tape *GradientTape, x *mat.Dense, p float64, rng *rand.Rand) *mat.Dense {
	if p <= 0 {
		return x
	}
	r, c := x.Dims()
	mask := mat.NewDense(r, c, nil)
	keep := 1 / (1 - p)
	m := tensor.Data(mask)
	for i := range m {
		if rng.Float64() >= p {
			m[i] = keep
		}
	}

	y := mat.NewDense(r, c, nil)
	y.MulElem(x, mask)

	tape.Record(&DropoutOp{input: x, mask: mask, output: y})
	return y
}

// Inputs returns [x].
func (op *DropoutOp) Inputs() []*mat.Dense { return []*mat.Dense{op.input} }

// Output returns y.
func (op *DropoutOp) Output() *mat.Dense { return op.output }

// Mask returns the scaled keep mask drawn in the forward pass.
func (op *DropoutOp) Mask() *mat.Dense { return op.mask }

// Backward multiplies the gradient by the same mask used in the forward pass.
func (op *DropoutOp) Backward(outputGrad *mat.Dense) []*mat.Dense {
	r, c := op.input.Dims()
	dx := mat.NewDense(r, c, nil)
	dx.MulElem(outputGrad, op.mask)
	return []*mat.Dense{dx}
}

// LogSoftmaxOp records a row-wise log-softmax.
type LogSoftmaxOp struct {
	input  *mat.Dense
	output *mat.Dense
}

// LogSoftmax computes log(softmax(x)) independently for every row.
//
// Uses the log-sum-exp trick: the row maximum is subtracted before
// exponentiation so large logits cannot overflow. Large batches are split
// across goroutines by row.
func LogSoftmax(tape *GradientTape, x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	y := mat.NewDense(r, c, nil)
	parallel.Rows(r, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			row := x.RawRowView(i)
			lse := floats.LogSumExp(row)
			out := y.RawRowView(i)
			for j, v := range row {
				out[j] = v - lse
			}
		}
	})

	tape.Record(&LogSoftmaxOp{input: x, output: y})
	return y
}

// Inputs returns [x].
func (op *LogSoftmaxOp) Inputs() []*mat.Dense { return []*mat.Dense{op.input} }

// Output returns y.
func (op *LogSoftmaxOp) Output() *mat.Dense { return op.output }

// Backward computes dx = dy - softmax(x) * sum(dy) per row.
func (op *LogSoftmaxOp) Backward(outputGrad *mat.Dense) []*mat.Dense {
	r, c := op.output.Dims()
	dx := mat.NewDense(r, c, nil)
	parallel.Rows(r, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			g := outputGrad.RawRowView(i)
			y := op.output.RawRowView(i)
			total := floats.Sum(g)
			out := dx.RawRowView(i)
			for j := range out {
				out[j] = g[j] - math.Exp(y[j])*total
			}
		}
	})
	return []*mat.Dense{dx}
}

// NLLOp records the mean negative log-likelihood of the target classes.
type NLLOp struct {
	input  *mat.Dense
	labels []int
	output *mat.Dense
}

// NLL returns a 1×1 matrix holding -mean(logProbs[i, labels[i]]).
//
// Labels must already be validated: one per row, each in [0, cols).
func NLL(tape *GradientTape, logProbs *mat.Dense, labels []int) *mat.Dense {
	var total float64
	for i, label := range labels {
		total -= logProbs.At(i, label)
	}
	y := mat.NewDense(1, 1, []float64{total / float64(len(labels))})

	tape.Record(&NLLOp{input: logProbs, labels: labels, output: y})
	return y
}

// Inputs returns [logProbs].
func (op *NLLOp) Inputs() []*mat.Dense { return []*mat.Dense{op.input} }

// Output returns the scalar loss.
func (op *NLLOp) Output() *mat.Dense { return op.output }

// Backward places -g/N at each target position and zero elsewhere.
func (op *NLLOp) Backward(outputGrad *mat.Dense) []*mat.Dense {
	r, c := op.input.Dims()
	dx := mat.NewDense(r, c, nil)
	scale := -outputGrad.At(0, 0) / float64(len(op.labels))
	for i, label := range op.labels {
		dx.Set(i, label, scale)
	}
	return []*mat.Dense{dx}
}
