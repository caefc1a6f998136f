package spectral

import (
	"math"
	"sort"

	"github.com/katalvlaran/numlath/matrix"
)

// Eigs computes the k smallest eigenpairs of the symmetric matrix l
// with the dense Jacobi-rotation backend.
//
// Implementation:
//   - Stage 1: validate a symmetric square input within opts.Tol.
//   - Stage 2: repeatedly pick (p,q) with the largest |A[p,q]| in
//     deterministic i→j order and apply a Jacobi rotation, accumulating
//     the rotations into Q.
//   - Stage 3: sort the eigenpairs ascending and slice the first k;
//     each returned eigenvector is unit-normalized.
//
// Returns the eigenvalues (ascending) and an n×k matrix whose columns
// are the matching eigenvectors.
//
// Errors:
//   - ErrKTooSmall — k < 1; ErrKTooLarge — k > n.
//   - matrix.ErrAsymmetry — l is not symmetric within tolerance.
//   - ErrNoConvergence — the rotation budget ran out with the largest
//     off-diagonal entry still above tolerance.
//
// Complexity: at most maxIter rotations, O(n²) pivot scan plus O(n)
// update each, O(n²) space.
func Eigs(l *matrix.Dense, k int, opts Options) ([]float64, *matrix.Dense, error) {
	if err := matrix.ValidateNotNil(l); err != nil {
		return nil, nil, err
	}
	if k < 1 {
		return nil, nil, ErrKTooSmall
	}
	if k > l.Rows() {
		return nil, nil, ErrKTooLarge
	}
	opts.normalize()

	vals, vecs, err := jacobiEigen(l, opts.Tol, opts.MaxIter)
	if err != nil {
		return nil, nil, err
	}
	sortEigenAscending(vals, vecs)

	kVals := make([]float64, k)
	copy(kVals, vals[:k])
	kVecs, err := leadingColumns(vecs, k)
	if err != nil {
		return nil, nil, err
	}

	return kVals, kVecs, nil
}

// jacobiEigen diagonalizes a symmetric matrix by classical Jacobi
// rotations: the largest off-diagonal element is annihilated each
// step, with the fixed pivot-scan order keeping runs deterministic.
func jacobiEigen(m *matrix.Dense, tol float64, maxIter int) ([]float64, *matrix.Dense, error) {
	if err := matrix.ValidateSymmetric(m, tol); err != nil {
		return nil, nil, err
	}
	n := m.Rows()
	if maxIter <= 0 {
		// Classical Jacobi needs a few full sweeps; n²/2 rotations per
		// sweep makes 50·n² a generous cap for n up to a few hundred.
		maxIter = 50 * n * n
	}

	a := m.Clone()
	q, err := matrix.Identity(n)
	if err != nil {
		return nil, nil, err
	}
	ad := a.Data()
	qd := q.Data()

	var (
		iter, i, j, p, pq  int
		maxOff, off        float64
		app, aqq, apq      float64
		theta, t, c, s     float64
		aip, aiq, qip, qiq float64
		newIP, newIQ       float64
	)
	for iter = 0; iter < maxIter; iter++ {
		// Pivot: largest |A[i,j]| above the diagonal, first found wins.
		maxOff = 0
		for i = 0; i < n; i++ {
			for j = i + 1; j < n; j++ {
				off = math.Abs(ad[i*n+j])
				if off > maxOff {
					maxOff, p, pq = off, i, j
				}
			}
		}
		if maxOff < tol {
			break
		}

		app = ad[p*n+p]
		aqq = ad[pq*n+pq]
		apq = ad[p*n+pq]

		// θ = (a_qq − a_pp)/(2·a_pq); t = sign(θ)/(|θ|+√(θ²+1)).
		theta = (aqq - app) / (2 * apq)
		t = math.Copysign(1.0/(math.Abs(theta)+math.Hypot(theta, 1)), theta)
		c = 1.0 / math.Sqrt(t*t+1)
		s = t * c

		for i = 0; i < n; i++ {
			if i == p || i == pq {
				continue
			}
			aip = ad[i*n+p]
			aiq = ad[i*n+pq]
			newIP = c*aip - s*aiq
			newIQ = s*aip + c*aiq
			ad[i*n+p], ad[p*n+i] = newIP, newIP
			ad[i*n+pq], ad[pq*n+i] = newIQ, newIQ
		}
		ad[p*n+p] = c*c*app - 2*c*s*apq + s*s*aqq
		ad[pq*n+pq] = s*s*app + 2*c*s*apq + c*c*aqq
		ad[p*n+pq], ad[pq*n+p] = 0, 0

		for i = 0; i < n; i++ {
			qip = qd[i*n+p]
			qiq = qd[i*n+pq]
			qd[i*n+p] = c*qip - s*qiq
			qd[i*n+pq] = s*qip + c*qiq
		}
	}
	if iter == maxIter {
		// Re-check: the budget may have run out exactly at convergence.
		maxOff = 0
		for i = 0; i < n; i++ {
			for j = i + 1; j < n; j++ {
				if off = math.Abs(ad[i*n+j]); off > maxOff {
					maxOff = off
				}
			}
		}
		if maxOff >= tol {
			return nil, nil, ErrNoConvergence
		}
	}

	vals := make([]float64, n)
	for i = 0; i < n; i++ {
		vals[i] = ad[i*n+i]
	}

	return vals, q, nil
}

// sortEigenAscending reorders eigenvalues ascending and permutes the
// eigenvector columns to match.
func sortEigenAscending(vals []float64, vecs *matrix.Dense) {
	n := len(vals)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool { return vals[perm[a]] < vals[perm[b]] })

	sortedVals := make([]float64, n)
	vd := vecs.Data()
	sortedVecs := make([]float64, len(vd))
	for newJ, oldJ := range perm {
		sortedVals[newJ] = vals[oldJ]
		for i := 0; i < n; i++ {
			sortedVecs[i*n+newJ] = vd[i*n+oldJ]
		}
	}
	copy(vals, sortedVals)
	copy(vd, sortedVecs)
}

// leadingColumns copies the first k columns of v into a fresh matrix.
func leadingColumns(v *matrix.Dense, k int) (*matrix.Dense, error) {
	n := v.Rows()
	out, err := matrix.NewDense(n, k)
	if err != nil {
		return nil, err
	}
	od := out.Data()
	vd := v.Data()
	cols := v.Cols()
	for i := 0; i < n; i++ {
		copy(od[i*k:(i+1)*k], vd[i*cols:i*cols+k])
	}

	return out, nil
}
