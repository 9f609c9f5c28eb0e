package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This initialization helps maintain variance of activations across layers.
//
// Parameters:
//   - fanIn: Number of input units
//   - fanOut: Number of output units
//   - rng: Source of randomness
//
// Returns a [fanOut, fanIn] matrix.
func Xavier(fanIn, fanOut int, rng *rand.Rand) *mat.Dense {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	data := make([]float64, fanOut*fanIn)
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = (rng.Float64()*2.0 - 1.0) * bound
	}
	return mat.NewDense(fanOut, fanIn, data)
}

// Zeros creates a rows×cols matrix filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros(rows, cols int) *mat.Dense {
	return mat.NewDense(rows, cols, nil)
}
