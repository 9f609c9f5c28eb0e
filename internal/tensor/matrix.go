package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ShapeOf returns the [rows, cols] shape of a matrix.
func ShapeOf(m mat.Matrix) Shape {
	r, c := m.Dims()
	return Shape{r, c}
}

// Data returns the contiguous backing slice of a dense matrix.
//
// Panics if the matrix is a strided view, which never happens for buffers
// created with mat.NewDense.
func Data(m *mat.Dense) []float64 {
	raw := m.RawMatrix()
	if raw.Stride != raw.Cols {
		panic(fmt.Sprintf("tensor.Data: non-contiguous matrix (stride %d, cols %d)", raw.Stride, raw.Cols))
	}
	return raw.Data[:raw.Rows*raw.Cols]
}

// FromRows packs equally sized rows into a new dense matrix.
//
// Returns an error if rows is empty or the rows differ in length.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows")
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("empty row")
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// ArgMaxRows returns the column index of the largest value in every row.
// Ties resolve to the lowest index.
func ArgMaxRows(m *mat.Dense) []int {
	r, _ := m.Dims()
	idx := make([]int, r)
	for i := 0; i < r; i++ {
		idx[i] = floats.MaxIdx(m.RawRowView(i))
	}
	return idx
}

// ColSums returns a 1×cols matrix holding the sum of every column.
func ColSums(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(1, c, nil)
	sums := out.RawRowView(0)
	for i := 0; i < r; i++ {
		floats.Add(sums, m.RawRowView(i))
	}
	return out
}

// IsFinite reports whether every element of the matrix is a finite number.
func IsFinite(m *mat.Dense) bool {
	for _, v := range Data(m) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
