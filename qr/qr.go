package qr

import (
	"errors"
	"math"

	"github.com/katalvlaran/numlath/matrix"
)

// QR — Householder orthogonal factorization
//
// Description:
//
//	Factor computes A = Q·R by applying one Householder reflection per
//	column. The pivot uses the sign-flipped α = -sign(x₀)·‖x‖ so the
//	subtraction v₀ = x₀ - α never cancels. Reflections are applied to
//	the trailing block of R and accumulated into Q by right-
//	multiplication restricted to the active column block.
//
// Algorithm Outline:
//  1. R ← copy of A (m×n), Q ← I(m).
//  2. For j = 0..min(m-1,n)-1:
//     x = R[j:, j]; skip when ‖x‖ = 0.
//     α = -sign(x₀)·‖x‖; skip when |α| < machine eps.
//     v = x; v₀ -= α; v /= ‖v‖ (skip when ‖v‖ < machine eps).
//     R[j:, j:] -= 2·v·(vᵀ·R[j:, j:])
//     Q[:, j:]  -= 2·(Q[:, j:]·v)·vᵀ
//  3. Force strict upper-triangularity of R (zero residual rounding
//     below the diagonal).
//  4. Reduced mode slices Q to (m, k) and R to (k, n), k = min(m,n).
//
// Complexity:
//
//	Time   = O(m·n²)
//	Memory = O(m² ) for the Q accumulator (O(m·k) returned in Reduced)
//
// Errors:
//   - ErrEmptyMatrix — nil input (empty matrices cannot be constructed).
//   - ErrInvalidMode — mode outside {Reduced, Full}.
var (
	// ErrEmptyMatrix indicates a nil or empty input matrix; QR of nothing
	// is a configuration error, not a numerical condition.
	ErrEmptyMatrix = errors.New("qr: empty matrix not supported")

	// ErrInvalidMode indicates a Mode outside {Reduced, Full}.
	ErrInvalidMode = errors.New("qr: mode must be Reduced or Full")
)

// Mode selects the factorization shape.
type Mode int

const (
	// Reduced produces Q (m×k) and R (k×n) with k = min(m,n).
	Reduced Mode = iota
	// Full produces Q (m×m) and R (m×n).
	Full
)

// String implements fmt.Stringer for diagnostics and test names.
func (md Mode) String() string {
	switch md {
	case Reduced:
		return "reduced"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// machEps is the float64 machine epsilon used by the skip guards and the
// default rcond.
const machEps = 2.220446049250313e-16

// Factor computes the Householder QR factorization of a.
// See the package outline above for the algorithm; a is not mutated.
func Factor(a *matrix.Dense, mode Mode) (q, r *matrix.Dense, err error) {
	if a == nil {
		return nil, nil, ErrEmptyMatrix
	}
	if mode != Reduced && mode != Full {
		return nil, nil, ErrInvalidMode
	}

	m, n := a.Shape()
	k := m
	if n < k {
		k = n
	}

	// Working copies: R starts as A, Q as the m×m identity.
	r = a.Clone()
	q, err = matrix.Identity(m)
	if err != nil {
		return nil, nil, err
	}
	rd := r.Data()
	qd := q.Data()

	// One reflection per column.
	v := make([]float64, m) // Householder vector (active length m-j)
	var (
		j, i, col, vlen int
		norm, alpha, s  float64
	)
	for j = 0; j < min(m-1, n); j++ {
		// Extract the sub-column below (and including) the diagonal.
		vlen = m - j
		norm = 0
		for i = 0; i < vlen; i++ {
			v[i] = rd[(j+i)*n+j]
			norm += v[i] * v[i]
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue // column already zero below the diagonal
		}

		// Sign-flipped pivot avoids cancellation in v₀ = x₀ - α.
		alpha = -math.Copysign(norm, v[0])
		if math.Abs(alpha) < machEps {
			continue
		}
		v[0] -= alpha
		norm = 0
		for i = 0; i < vlen; i++ {
			norm += v[i] * v[i]
		}
		norm = math.Sqrt(norm)
		if norm < machEps {
			continue
		}
		for i = 0; i < vlen; i++ {
			v[i] /= norm
		}

		// R[j:, j:] -= 2·v·(vᵀ·R[j:, j:]). One pass per trailing column.
		for col = j; col < n; col++ {
			s = 0
			for i = 0; i < vlen; i++ {
				s += v[i] * rd[(j+i)*n+col]
			}
			s *= 2
			for i = 0; i < vlen; i++ {
				rd[(j+i)*n+col] -= s * v[i]
			}
		}

		// Q[:, j:] -= 2·(Q[:, j:]·v)·vᵀ. Only columns j: are affected.
		for i = 0; i < m; i++ {
			s = 0
			for col = 0; col < vlen; col++ {
				s += qd[i*m+j+col] * v[col]
			}
			s *= 2
			for col = 0; col < vlen; col++ {
				qd[i*m+j+col] -= s * v[col]
			}
		}
	}

	// Remove residual rounding below the diagonal.
	for j = 0; j < min(m, n); j++ {
		for i = j + 1; i < m; i++ {
			rd[i*n+j] = 0
		}
	}

	if mode == Full {
		return q, r, nil
	}

	// Reduced mode: slice Q to (m,k) and R to (k,n).
	qRed, err := matrix.NewDense(m, k)
	if err != nil {
		return nil, nil, err
	}
	rRed, err := matrix.NewDense(k, n)
	if err != nil {
		return nil, nil, err
	}
	qrd := qRed.Data()
	rrd := rRed.Data()
	for i = 0; i < m; i++ {
		copy(qrd[i*k:(i+1)*k], qd[i*m:i*m+k])
	}
	copy(rrd, rd[:k*n])

	return qRed, rRed, nil
}
