// Package matrix_test: kernels (Mul, Transpose, MatVec) and vector helpers.
package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/numlath/matrix"
)

func TestMul(t *testing.T) {
	a, err := matrix.FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	b, err := matrix.FromRows([][]float64{{5, 6}, {7, 8}})
	require.NoError(t, err)

	c, err := matrix.Mul(a, b)
	require.NoError(t, err)

	want := [][]float64{{19, 22}, {43, 50}}
	var i, j int
	for i = 0; i < 2; i++ {
		for j = 0; j < 2; j++ {
			v, _ := c.At(i, j)
			assert.InDelta(t, want[i][j], v, 1e-14)
		}
	}

	bad := mustDense(t, 3, 3)
	_, err = matrix.Mul(a, bad)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestTranspose(t *testing.T) {
	a, err := matrix.FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	at, err := matrix.Transpose(a)
	require.NoError(t, err)
	require.Equal(t, 3, at.Rows())
	require.Equal(t, 2, at.Cols())

	var i, j int
	for i = 0; i < 2; i++ {
		for j = 0; j < 3; j++ {
			av, _ := a.At(i, j)
			tv, _ := at.At(j, i)
			if av != tv {
				t.Fatalf("Transpose mismatch at (%d,%d)", i, j)
			}
		}
	}
}

func TestVectorHelpers(t *testing.T) {
	d, err := matrix.Dot([]float64{1, 2, 3}, []float64{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 32.0, d)

	_, err = matrix.Dot([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	assert.InDelta(t, 5.0, matrix.Norm([]float64{3, 4}), 1e-15)

	dst := []float64{1, 1}
	matrix.AddScaled(dst, 2, []float64{1, 2})
	assert.Equal(t, []float64{3, 5}, dst)
}

func TestFrobeniusNorm(t *testing.T) {
	m, err := matrix.FromRows([][]float64{{1, 2}, {2, 4}})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(25), matrix.FrobeniusNorm(m), 1e-14)
}

func TestCSRRoundTripAndApply(t *testing.T) {
	d, err := matrix.FromRows([][]float64{
		{4, 0, 0, 1},
		{0, 3, 0, 0},
		{0, 0, 2, 0},
	})
	require.NoError(t, err)

	s, err := matrix.NewCSRFromDense(d, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, s.NNZ())
	assert.Equal(t, 3, s.Rows())
	assert.Equal(t, 4, s.Cols())
	assert.InDelta(t, 4.0/12.0, s.Density(), 1e-15)

	y, err := s.Apply([]float64{1, 1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 3, 2}, y)

	assert.Equal(t, []float64{4, 3, 2}, s.Diagonal())
	assert.Equal(t, []float64{5, 3, 2}, s.RowSums())

	back, err := s.ToDense()
	require.NoError(t, err)
	var i, j int
	for i = 0; i < 3; i++ {
		for j = 0; j < 4; j++ {
			dv, _ := d.At(i, j)
			bv, _ := back.At(i, j)
			if dv != bv {
				t.Fatalf("CSR round-trip mismatch at (%d,%d): %g vs %g", i, j, dv, bv)
			}
		}
	}

	_, err = s.Apply([]float64{1})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}
