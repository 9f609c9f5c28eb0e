package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{10}, 10},
		{Shape{128, 784}, 100352},
		{Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.shape.NumElements(), "shape %v", tt.shape)
	}
}

func TestShape_Validate(t *testing.T) {
	assert.NoError(t, Shape{64, 128}.Validate())
	assert.Error(t, Shape{}.Validate())
	assert.Error(t, Shape{3, 0}.Validate())
	assert.Error(t, Shape{-1}.Validate())
}

func TestShape_EqualAndClone(t *testing.T) {
	s := Shape{10, 64}
	c := s.Clone()
	assert.True(t, s.Equal(c))

	c[0] = 11
	assert.Equal(t, 10, s[0], "clone shares no storage")
	assert.False(t, s.Equal(c))
	assert.False(t, s.Equal(Shape{10}))
	assert.Equal(t, "[10 64]", s.String())
}

func TestShapeOf(t *testing.T) {
	assert.Equal(t, Shape{3, 5}, ShapeOf(mat.NewDense(3, 5, nil)))
}

func TestFromRows(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, Data(m))

	_, err = FromRows(nil)
	assert.Error(t, err)
	_, err = FromRows([][]float64{{}})
	assert.Error(t, err)
	_, err = FromRows([][]float64{{1, 2}, {3}})
	assert.ErrorContains(t, err, "row 1")
}

func TestData_PanicsOnStridedView(t *testing.T) {
	m := mat.NewDense(3, 3, nil)
	view := m.Slice(0, 2, 0, 2).(*mat.Dense)
	assert.Panics(t, func() { Data(view) })
}

func TestArgMaxRows(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		0.1, 0.7, 0.2,
		-1, -3, -2,
		5, 5, 1,
	})
	assert.Equal(t, []int{1, 0, 0}, ArgMaxRows(m))
}

func TestColSums(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	sums := ColSums(m)
	assert.Equal(t, Shape{1, 3}, ShapeOf(sums))
	assert.Equal(t, []float64{5, 7, 9}, Data(sums))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(mat.NewDense(1, 2, []float64{-1e300, 0})))
	assert.False(t, IsFinite(mat.NewDense(1, 2, []float64{1, math.NaN()})))
	assert.False(t, IsFinite(mat.NewDense(1, 1, []float64{math.Inf(-1)})))
}
