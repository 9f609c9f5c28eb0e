package data

import (
	"fmt"
	"iter"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Loader batches a dataset, optionally reshuffling at the start of every
// epoch. The last batch may be smaller when the batch size does not divide
// the dataset.
//
// Example:
//
//	loader, err := data.NewLoader(trainSet, 64, data.WithShuffle(true))
//	for batch := range loader.Batches() {
//	    // batch.Inputs: [64, 784], batch.Labels: [64]
//	}
type Loader struct {
	dataset   *Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithShuffle enables per-epoch shuffling.
func WithShuffle(shuffle bool) LoaderOption {
	return func(l *Loader) {
		l.shuffle = shuffle
	}
}

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) LoaderOption {
	return func(l *Loader) {
		l.rng = rng
	}
}

// NewLoader creates a loader over dataset.
func NewLoader(dataset *Dataset, batchSize int, opts ...LoaderOption) (*Loader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if dataset.NumSamples() == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	l := &Loader{dataset: dataset, batchSize: batchSize}
	for _, opt := range opts {
		opt(l)
	}
	if l.rng == nil {
		//nolint:gosec // Shuffling is not security-critical
		l.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return l, nil
}

// NumBatches returns the number of batches per epoch.
func (l *Loader) NumBatches() int {
	return (l.dataset.NumSamples() + l.batchSize - 1) / l.batchSize
}

// Batches returns an iterator over one epoch. Each call starts a new epoch
// and, when shuffling, draws a new order.
func (l *Loader) Batches() iter.Seq[Batch] {
	n := l.dataset.NumSamples()
	var order []int
	if l.shuffle {
		order = l.rng.Perm(n)
	}

	return func(yield func(Batch) bool) {
		features := l.dataset.Features()
		for start := 0; start < n; start += l.batchSize {
			end := min(start+l.batchSize, n)
			inputs := mat.NewDense(end-start, features, nil)
			labels := make([]int, end-start)
			for i := start; i < end; i++ {
				idx := i
				if order != nil {
					idx = order[i]
				}
				inputs.SetRow(i-start, l.dataset.Inputs.RawRowView(idx))
				labels[i-start] = l.dataset.Labels[idx]
			}
			if !yield(Batch{Inputs: inputs, Labels: labels}) {
				return
			}
		}
	}
}
