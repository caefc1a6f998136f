// SPDX-License-Identifier: MIT

// Package matrix - CSR sparse storage (compressed sparse row).
//
// Purpose:
//   - Represent large, mostly-zero matrices with O(nnz) memory and
//     O(nnz) matrix-vector products.
//   - Keep backend selection explicit: the sparse code path is entered
//     only when a caller constructs a CSR, never inferred from density.
//
// Layout (standard CSR triplet):
//   - rowPtr has length r+1; row i occupies [rowPtr[i], rowPtr[i+1]).
//   - colIdx/values hold column indices and entries in row-major order,
//     columns strictly increasing within a row.

package matrix

import "math"

// CSR is a compressed sparse row matrix. Immutable after construction.
type CSR struct {
	r, c   int
	rowPtr []int
	colIdx []int
	values []float64
}

var _ LinearOperator = (*CSR)(nil)

// NewCSRFromDense compresses d, dropping entries with |v| <= dropTol.
// A negative dropTol keeps exact zeros out (treated as 0).
//
// Complexity: O(r*c) scan, O(nnz) storage.
func NewCSRFromDense(d *Dense, dropTol float64) (*CSR, error) {
	if err := ValidateNotNil(d); err != nil {
		return nil, err
	}
	if dropTol < 0 {
		dropTol = 0
	}
	s := &CSR{
		r:      d.r,
		c:      d.c,
		rowPtr: make([]int, d.r+1),
	}
	var i, j int
	var v float64
	for i = 0; i < d.r; i++ {
		for j = 0; j < d.c; j++ {
			v = d.data[i*d.c+j]
			if math.Abs(v) > dropTol {
				s.colIdx = append(s.colIdx, j)
				s.values = append(s.values, v)
			}
		}
		s.rowPtr[i+1] = len(s.values)
	}

	return s, nil
}

// Rows returns the row count. Complexity: O(1).
func (s *CSR) Rows() int { return s.r }

// Cols returns the column count. Complexity: O(1).
func (s *CSR) Cols() int { return s.c }

// Shape returns (rows, cols). Complexity: O(1).
func (s *CSR) Shape() (rows, cols int) { return s.r, s.c }

// NNZ returns the number of stored entries. Complexity: O(1).
func (s *CSR) NNZ() int { return len(s.values) }

// Apply computes s·x. Satisfies LinearOperator.
// Complexity: O(nnz).
func (s *CSR) Apply(x []float64) ([]float64, error) {
	if err := ValidateVecLen(x, s.c); err != nil {
		return nil, err
	}
	y := make([]float64, s.r)
	var i, k int
	var acc float64
	for i = 0; i < s.r; i++ {
		acc = 0
		for k = s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			acc += s.values[k] * x[s.colIdx[k]]
		}
		y[i] = acc
	}

	return y, nil
}

// Diagonal extracts the main diagonal into a fresh slice (zeros where no
// entry is stored). Complexity: O(nnz).
func (s *CSR) Diagonal() []float64 {
	n := s.r
	if s.c < n {
		n = s.c
	}
	d := make([]float64, n)
	var i, k int
	for i = 0; i < n; i++ {
		for k = s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			if s.colIdx[k] == i {
				d[i] = s.values[k]
				break
			}
		}
	}

	return d
}

// RowSums returns the per-row entry sums (degrees for an affinity
// matrix). Complexity: O(nnz).
func (s *CSR) RowSums() []float64 {
	sums := make([]float64, s.r)
	var i, k int
	for i = 0; i < s.r; i++ {
		for k = s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			sums[i] += s.values[k]
		}
	}

	return sums
}

// ToDense materializes the sparse matrix; intended for small matrices
// and the dense fallback paths. Complexity: O(r*c + nnz).
func (s *CSR) ToDense() (*Dense, error) {
	d, err := NewDense(s.r, s.c)
	if err != nil {
		return nil, err
	}
	var i, k int
	for i = 0; i < s.r; i++ {
		for k = s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			d.data[i*d.c+s.colIdx[k]] = s.values[k]
		}
	}

	return d, nil
}

// Density returns nnz/(r*c); used by the preconditioner Choose heuristic
// to decide whether IC(0) is worthwhile. Complexity: O(1).
func (s *CSR) Density() float64 {
	return float64(len(s.values)) / float64(s.r*s.c)
}
