// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides shape metadata and helpers over gonum matrices.
package tensor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/tensor"
)

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// ShapeOf returns the [rows, cols] shape of m.
func ShapeOf(m mat.Matrix) Shape {
	return tensor.ShapeOf(m)
}

// FromRows builds a dense matrix from equal-length rows.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	return tensor.FromRows(rows)
}

// ArgMaxRows returns the column index of the largest value in every row.
func ArgMaxRows(m *mat.Dense) []int {
	return tensor.ArgMaxRows(m)
}
