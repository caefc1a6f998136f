// SPDX-License-Identifier: MIT

// Package matrix: the LinearOperator abstraction.
//
// Every solver in numlath consumes operators through this interface:
// dense matrices, CSR sparse matrices and preconditioners all implement
// it. An operator references immutable inputs for its lifetime and never
// owns another operator's storage.

package matrix

// LinearOperator exposes a matrix-like action y = Op·x.
//
// Contract:
//   - Shape reports (rows, cols); Apply requires len(x) == cols and
//     returns a fresh slice of length rows.
//   - Apply must not mutate x and must not retain the returned slice.
//   - Implementations are deterministic: same x, same result.
type LinearOperator interface {
	// Shape returns the operator dimensions (rows, cols).
	Shape() (rows, cols int)

	// Apply computes Op·x into a freshly allocated vector.
	// Returns ErrDimensionMismatch when len(x) != cols.
	Apply(x []float64) ([]float64, error)
}

// Apply computes m·x. Satisfies LinearOperator on *Dense.
// Fast-path: direct walk of the flat row-major buffer.
// Complexity: O(r*c).
func (m *Dense) Apply(x []float64) ([]float64, error) {
	if err := ValidateVecLen(x, m.c); err != nil {
		return nil, err
	}
	y := make([]float64, m.r)
	var (
		i, j, base int
		acc, xv    float64
	)
	for i = 0; i < m.r; i++ {
		base = i * m.c
		acc = 0
		for j = 0; j < m.c; j++ {
			xv = x[j]
			if xv != 0 { // micro-optimization: skip zero multiplications
				acc += m.data[base+j] * xv
			}
		}
		y[i] = acc
	}

	return y, nil
}

// ApplyTrans computes mᵀ·x without materializing the transpose.
// Complexity: O(r*c).
func (m *Dense) ApplyTrans(x []float64) ([]float64, error) {
	if err := ValidateVecLen(x, m.r); err != nil {
		return nil, err
	}
	y := make([]float64, m.c)
	var i, j, base int
	var xv float64
	for i = 0; i < m.r; i++ {
		xv = x[i]
		if xv == 0 {
			continue
		}
		base = i * m.c
		for j = 0; j < m.c; j++ {
			y[j] += m.data[base+j] * xv
		}
	}

	return y, nil
}
