package data

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Synthetic generates a labelled dataset of Gaussian clusters, one per
// class, for smoke tests and demos when no image files are available.
//
// Every class gets a random center in [-1, 1]^features; samples are drawn
// around it with standard deviation 0.3. Labels cycle through the classes
// so each class is represented. The same seed always yields the same data.
func Synthetic(samples, features, classes int, seed int64) (*Dataset, error) {
	if samples <= 0 || features <= 0 || classes <= 0 {
		return nil, fmt.Errorf("synthetic dataset needs positive sizes, got samples=%d features=%d classes=%d",
			samples, features, classes)
	}

	//nolint:gosec // Synthetic data is not security-critical
	rng := rand.New(rand.NewSource(seed))

	centers := mat.NewDense(classes, features, nil)
	centers.Apply(func(_, _ int, _ float64) float64 {
		return rng.Float64()*2 - 1
	}, centers)

	inputs := mat.NewDense(samples, features, nil)
	labels := make([]int, samples)
	for i := range samples {
		label := i % classes
		labels[i] = label
		center := centers.RawRowView(label)
		row := inputs.RawRowView(i)
		for j := range row {
			row[j] = center[j] + 0.3*rng.NormFloat64()
		}
	}

	return NewDataset(inputs, labels, classes)
}
