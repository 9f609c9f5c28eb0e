// Package data provides labelled image datasets and the batch sources the
// training loop consumes.
//
// A Source yields a finite sequence of batches each time Batches is
// called, so the same source serves every epoch.
package data

import (
	"fmt"
	"iter"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Batch is one mini-batch: N input rows and one integer label per row.
type Batch struct {
	Inputs *mat.Dense // [batch_size, features]
	Labels []int      // [batch_size]
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int {
	return len(b.Labels)
}

// Source produces a finite, restartable sequence of batches.
type Source interface {
	// Batches returns an iterator over one epoch of batches.
	Batches() iter.Seq[Batch]
}

// StaticSource replays a fixed list of batches every epoch.
type StaticSource []Batch

// Batches yields the batches in order.
func (s StaticSource) Batches() iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		for _, b := range s {
			if !yield(b) {
				return
			}
		}
	}
}

// Dataset holds labelled examples as rows of a dense matrix.
type Dataset struct {
	Inputs  *mat.Dense // [num_samples, features]
	Labels  []int      // [num_samples]
	Classes int        // Number of distinct classes
}

// NewDataset validates and wraps inputs and labels.
func NewDataset(inputs *mat.Dense, labels []int, classes int) (*Dataset, error) {
	rows, _ := inputs.Dims()
	if rows != len(labels) {
		return nil, fmt.Errorf("inputs have %d rows but %d labels were given", rows, len(labels))
	}
	if classes <= 0 {
		return nil, fmt.Errorf("class count must be positive, got %d", classes)
	}
	for i, label := range labels {
		if label < 0 || label >= classes {
			return nil, fmt.Errorf("label %d at row %d is outside [0, %d)", label, i, classes)
		}
	}
	return &Dataset{Inputs: inputs, Labels: labels, Classes: classes}, nil
}

// NumSamples returns the number of examples.
func (d *Dataset) NumSamples() int {
	return len(d.Labels)
}

// Features returns the number of input features per example.
func (d *Dataset) Features() int {
	_, cols := d.Inputs.Dims()
	return cols
}

// Normalize maps every input x to (x - mean) / std in place.
//
// With mean 0.5 and std 0.5 pixels in [0, 1] end up in [-1, 1].
func (d *Dataset) Normalize(mean, std float64) error {
	if std == 0 {
		return fmt.Errorf("standard deviation must be non-zero")
	}
	d.Inputs.Apply(func(_, _ int, v float64) float64 {
		return (v - mean) / std
	}, d.Inputs)
	return nil
}

// Subset returns a new dataset holding the rows at indices, copied.
func (d *Dataset) Subset(indices []int) *Dataset {
	features := d.Features()
	inputs := mat.NewDense(len(indices), features, nil)
	labels := make([]int, len(indices))
	for i, idx := range indices {
		inputs.SetRow(i, d.Inputs.RawRowView(idx))
		labels[i] = d.Labels[idx]
	}
	return &Dataset{Inputs: inputs, Labels: labels, Classes: d.Classes}
}

// Split shuffles the samples with rng and splits off a validation set
// holding the given fraction of them.
//
// Returns an error if either side would be empty.
func (d *Dataset) Split(fraction float64, rng *rand.Rand) (train, validation *Dataset, err error) {
	n := d.NumSamples()
	valSize := int(float64(n) * fraction)
	if fraction <= 0 || fraction >= 1 || valSize == 0 || valSize == n {
		return nil, nil, fmt.Errorf("cannot split %d samples with fraction %v", n, fraction)
	}

	perm := rng.Perm(n)
	return d.Subset(perm[valSize:]), d.Subset(perm[:valSize]), nil
}
