// SPDX-License-Identifier: MIT

// Package matrix: dense kernels and vector helpers shared by the solver
// packages. All kernels use the central validators, fixed loop orders,
// and allocate fresh results; operands are never mutated.

package matrix

import "math"

// Transpose returns a fresh c×r matrix with out[j,i] = m[i,j].
// Complexity: O(r*c).
func Transpose(m *Dense) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, err
	}
	out, err := NewDense(m.c, m.r)
	if err != nil {
		return nil, err
	}
	var i, j int
	for i = 0; i < m.r; i++ {
		for j = 0; j < m.c; j++ {
			out.data[j*out.c+i] = m.data[i*m.c+j]
		}
	}

	return out, nil
}

// Mul computes the matrix product a·b into a fresh (a.r × b.c) Dense.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (a.Cols != b.Rows).
//
// Complexity: O(a.r * a.c * b.c), i→k→j loop order for cache locality.
func Mul(a, b *Dense) (*Dense, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, err
	}
	if err := ValidateNotNil(b); err != nil {
		return nil, err
	}
	if a.c != b.r {
		return nil, ErrDimensionMismatch
	}
	out, err := NewDense(a.r, b.c)
	if err != nil {
		return nil, err
	}
	var (
		i, k, j int
		av      float64
	)
	for i = 0; i < a.r; i++ {
		for k = 0; k < a.c; k++ {
			av = a.data[i*a.c+k]
			if av == 0 {
				continue
			}
			for j = 0; j < b.c; j++ {
				out.data[i*out.c+j] += av * b.data[k*b.c+j]
			}
		}
	}

	return out, nil
}

// MatVec computes m·x; alias of the LinearOperator fast-path kept for
// call-site readability in the solver packages.
func MatVec(m *Dense, x []float64) ([]float64, error) {
	return m.Apply(x)
}

// MatTransVec computes mᵀ·x without materializing the transpose.
func MatTransVec(m *Dense, x []float64) ([]float64, error) {
	return m.ApplyTrans(x)
}

// ---------- vector helpers ----------

// Dot returns the inner product of x and y.
// Returns ErrDimensionMismatch when lengths differ.
// Complexity: O(n).
func Dot(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, ErrDimensionMismatch
	}
	var acc float64
	for i := range x {
		acc += x[i] * y[i]
	}

	return acc, nil
}

// Norm returns the Euclidean norm of x.
// Complexity: O(n).
func Norm(x []float64) float64 {
	var acc float64
	for _, v := range x {
		acc += v * v
	}

	return math.Sqrt(acc)
}

// AddScaled computes dst[i] += alpha*x[i] in place; a building block for
// the iterative solvers. Lengths must already agree (programmer contract,
// unexported callers only run it on validated buffers).
func AddScaled(dst []float64, alpha float64, x []float64) {
	for i := range dst {
		dst[i] += alpha * x[i]
	}
}

// FrobeniusNorm returns the Frobenius norm of m.
// Complexity: O(r*c).
func FrobeniusNorm(m *Dense) float64 {
	var acc float64
	for _, v := range m.data {
		acc += v * v
	}

	return math.Sqrt(acc)
}
