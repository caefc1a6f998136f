package kahan

import (
	"errors"
	"math"

	"github.com/katalvlaran/numlath/matrix"
)

// Kahan — compensated floating-point summation
//
// Description:
//
//	Kahan summation maintains a running compensation term that captures
//	the low-order bits lost when a small addend meets a large partial
//	sum. It reduces the worst-case error of naive accumulation from
//	O(n·ε) to O(ε), which matters inside the factorization and solver
//	packages whenever magnitudes are badly mixed.
//
// Algorithm Outline:
//  1. sum = 0, c = 0 (compensation)
//  2. For each x[i]:
//     y   = x[i] - c
//     t   = sum + y
//     c   = (t - sum) - y   (recovered rounding error)
//     sum = t
//
// Complexity:
//
//	Time   = O(n)
//	Memory = O(1)
//
// Errors:
//   - ErrLengthMismatch — Dot inputs of different length.
var (
	// ErrLengthMismatch indicates Dot inputs of unequal length.
	ErrLengthMismatch = errors.New("kahan: input vectors must have equal length")
)

// Sum returns the compensated sum of x. An empty slice sums to 0.
func Sum(x []float64) float64 {
	if len(x) == 0 {
		return 0.0
	}
	sum := x[0]
	var c, y, t float64
	for i := 1; i < len(x); i++ {
		y = x[i] - c
		t = sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum
}

// Dot returns the compensated inner product Σ x[i]·y[i].
// The products are compensated as they are accumulated, so no
// intermediate product slice is allocated.
func Dot(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, ErrLengthMismatch
	}
	if len(x) == 0 {
		return 0.0, nil
	}
	sum := x[0] * y[0]
	var c, yy, t float64
	for i := 1; i < len(x); i++ {
		yy = x[i]*y[i] - c
		t = sum + yy
		c = (t - sum) - yy
		sum = t
	}

	return sum, nil
}

// NormSquared returns the compensated squared Euclidean norm Σ x[i]².
func NormSquared(x []float64) float64 {
	if len(x) == 0 {
		return 0.0
	}
	sum := x[0] * x[0]
	var c, y, t float64
	for i := 1; i < len(x); i++ {
		y = x[i]*x[i] - c
		t = sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum
}

// Norm returns the compensated Euclidean norm √(Σ x[i]²).
func Norm(x []float64) float64 {
	return math.Sqrt(NormSquared(x))
}

// SumRows reduces m along columns: out[i] = Σ_j m[i,j], applying the 1-D
// compensated loop per row slice.
func SumRows(m *matrix.Dense) ([]float64, error) {
	if err := matrix.ValidateNotNil(m); err != nil {
		return nil, err
	}
	rows, cols := m.Shape()
	data := m.Data()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = Sum(data[i*cols : (i+1)*cols])
	}

	return out, nil
}

// SumCols reduces m along rows: out[j] = Σ_i m[i,j]. Each column is
// gathered into a scratch buffer so the same 1-D loop applies.
func SumCols(m *matrix.Dense) ([]float64, error) {
	if err := matrix.ValidateNotNil(m); err != nil {
		return nil, err
	}
	rows, cols := m.Shape()
	data := m.Data()
	out := make([]float64, cols)
	scratch := make([]float64, rows)
	var i, j int
	for j = 0; j < cols; j++ {
		for i = 0; i < rows; i++ {
			scratch[i] = data[i*cols+j]
		}
		out[j] = Sum(scratch)
	}

	return out, nil
}
