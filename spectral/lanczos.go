package spectral

import (
	"math/rand"

	"github.com/katalvlaran/numlath/kahan"
	"github.com/katalvlaran/numlath/matrix"
)

// spectrumBounded is implemented by operators that know a cheap upper
// bound on their largest eigenvalue (the Laplacian operators do).
type spectrumBounded interface {
	SpectrumBound() float64
}

// SpectrumBound returns a Gershgorin-style upper bound on the largest
// Laplacian eigenvalue: 2·max(d) for the combinatorial form, 2 for the
// normalized ones.
func (op *laplacianOp) SpectrumBound() float64 {
	if op.norm != NormNone {
		return 2.0
	}
	maxD := 0.0
	for _, v := range op.d {
		if v > maxD {
			maxD = v
		}
	}

	return 2.0 * maxD
}

// EigsSparse computes the k smallest eigenpairs of a symmetric
// positive-semidefinite operator with a Lanczos iteration.
//
// Implementation:
//   - The iteration runs on the shifted operator c·I − L, whose
//     largest eigenvalues are L's smallest; c comes from the
//     operator's SpectrumBound when available, otherwise from a short
//     seeded power iteration.
//   - The Krylov basis is fully reorthogonalized each step, trading
//     memory for the numerical stability small spectral gaps need.
//   - The start vector is drawn from Options.Seed; fixing the seed
//     fixes the result exactly.
//   - A random-walk Laplacian operator from LaplacianCSR is asymmetric
//     and handled specially: the iteration runs on its similar
//     sym-normalized twin and the eigenvectors are mapped back.
//
// Errors:
//   - ErrKTooSmall / ErrKTooLarge — k out of [1, n].
//   - ErrNoConvergence — the projected eigenproblem did not converge.
//   - matrix sentinels — shape violations from the operator.
func EigsSparse(op matrix.LinearOperator, k int, opts Options) ([]float64, *matrix.Dense, error) {
	if op == nil {
		return nil, nil, matrix.ErrNilMatrix
	}
	rows, cols := op.Shape()
	if rows != cols {
		return nil, nil, matrix.ErrNonSquare
	}
	if k < 1 {
		return nil, nil, ErrKTooSmall
	}
	if k > rows {
		return nil, nil, ErrKTooLarge
	}
	opts.normalize()

	// The random-walk Laplacian is asymmetric and breaks the Lanczos
	// three-term recurrence. It is similar to the sym-normalized form
	// (L_rw = D^{−1/2}·L_sym·D^{1/2}), so run the iteration on the
	// symmetric twin and map the eigenvectors back by D^{−1/2} scaling;
	// the eigenvalues transfer unchanged.
	if lap, ok := op.(*laplacianOp); ok && lap.norm == NormRW {
		vals, vecs, err := EigsSparse(&laplacianOp{w: lap.w, norm: NormSym, d: lap.d}, k, opts)
		if err != nil {
			return nil, nil, err
		}
		if err = scaleToRandomWalk(vecs, lap.d); err != nil {
			return nil, nil, err
		}

		return vals, vecs, nil
	}
	n := rows
	rng := rand.New(rand.NewSource(opts.Seed))

	shift, err := spectrumShift(op, rng)
	if err != nil {
		return nil, nil, err
	}

	dim := 2*k + 8
	if opts.MaxIter > 0 {
		dim = opts.MaxIter
	}
	if dim > n {
		dim = n
	}
	if dim < k {
		dim = k
	}

	basis, alpha, beta, steps, err := lanczosTridiagonalize(op, shift, n, dim, opts.Tol, rng)
	if err != nil {
		return nil, nil, err
	}

	// Eigenpairs of the projected tridiagonal T.
	tMat, err := matrix.NewDense(steps, steps)
	if err != nil {
		return nil, nil, err
	}
	td := tMat.Data()
	for i := 0; i < steps; i++ {
		td[i*steps+i] = alpha[i]
		if i+1 < steps {
			td[i*steps+i+1] = beta[i]
			td[(i+1)*steps+i] = beta[i]
		}
	}
	tVals, tVecs, err := jacobiEigen(tMat, opts.Tol, 0)
	if err != nil {
		return nil, nil, err
	}
	sortEigenAscending(tVals, tVecs)

	// Largest Ritz values of the shifted operator are L's smallest:
	// walk T's spectrum from the top.
	vals := make([]float64, k)
	vecs, err := matrix.NewDense(n, k)
	if err != nil {
		return nil, nil, err
	}
	sd := tVecs.Data()
	var norm float64
	for j := 0; j < k; j++ {
		src := steps - 1 - j
		vals[j] = shift - tVals[src]

		// Ritz vector y = V·s, normalized.
		y := make([]float64, n)
		for step := 0; step < steps; step++ {
			coeff := sd[step*steps+src]
			for i := 0; i < n; i++ {
				y[i] += coeff * basis[step][i]
			}
		}
		norm = kahan.Norm(y)
		if norm > 0 {
			for i := range y {
				y[i] /= norm
			}
		}
		if err = vecs.SetCol(j, y); err != nil {
			return nil, nil, err
		}
	}

	return vals, vecs, nil
}

// lanczosTridiagonalize builds a fully reorthogonalized Krylov basis
// of the shifted operator, returning the basis vectors and the
// tridiagonal coefficients. steps may come back smaller than dim on a
// happy breakdown (invariant subspace found early).
func lanczosTridiagonalize(
	op matrix.LinearOperator, shift float64, n, dim int, tol float64, rng *rand.Rand,
) (basis [][]float64, alpha, beta []float64, steps int, err error) {
	v := randomUnit(n, rng)
	basis = make([][]float64, 0, dim)
	alpha = make([]float64, 0, dim)
	beta = make([]float64, 0, dim)

	var w []float64
	var a, b float64
	for j := 0; j < dim; j++ {
		basis = append(basis, v)

		// w = (shift·I − L)·v
		if w, err = op.Apply(v); err != nil {
			return nil, nil, nil, 0, err
		}
		for i := 0; i < n; i++ {
			w[i] = shift*v[i] - w[i]
		}

		if a, err = kahan.Dot(w, v); err != nil {
			return nil, nil, nil, 0, err
		}
		alpha = append(alpha, a)

		// Full reorthogonalization against every basis vector.
		for _, u := range basis {
			var proj float64
			if proj, err = kahan.Dot(w, u); err != nil {
				return nil, nil, nil, 0, err
			}
			for i := 0; i < n; i++ {
				w[i] -= proj * u[i]
			}
		}

		b = kahan.Norm(w)
		if j+1 == dim {
			break
		}
		if b < tol {
			// Invariant subspace found: restart with a fresh random
			// direction orthogonal to the basis. The zero coupling
			// keeps T block-tridiagonal and its spectrum valid.
			v = restartVector(basis, n, rng)
			if v == nil {
				break
			}
			beta = append(beta, 0)

			continue
		}
		beta = append(beta, b)
		v = make([]float64, n)
		for i := 0; i < n; i++ {
			v[i] = w[i] / b
		}
	}

	return basis, alpha, beta, len(basis), nil
}

// restartVector draws a random direction orthogonal to the basis, or
// nil when the basis already spans the whole space.
func restartVector(basis [][]float64, n int, rng *rand.Rand) []float64 {
	for attempt := 0; attempt < 3; attempt++ {
		v := randomUnit(n, rng)
		for _, u := range basis {
			proj, _ := kahan.Dot(v, u)
			for i := 0; i < n; i++ {
				v[i] -= proj * u[i]
			}
		}
		norm := kahan.Norm(v)
		if norm > 1e-8 {
			for i := range v {
				v[i] /= norm
			}

			return v
		}
	}

	return nil
}

// spectrumShift returns an upper bound on the operator's largest
// eigenvalue, preferring the operator's own bound over a power-method
// estimate.
func spectrumShift(op matrix.LinearOperator, rng *rand.Rand) (float64, error) {
	if bounded, ok := op.(spectrumBounded); ok {
		return bounded.SpectrumBound(), nil
	}

	n, _ := op.Shape()
	v := randomUnit(n, rng)
	est := 0.0
	var w []float64
	var err error
	for iter := 0; iter < 12; iter++ {
		if w, err = op.Apply(v); err != nil {
			return 0, err
		}
		norm := kahan.Norm(w)
		if norm == 0 {
			break
		}
		est = norm
		for i := range w {
			w[i] /= norm
		}
		v = w
	}

	// Headroom keeps the shifted operator positive semidefinite even
	// when the power estimate undershoots.
	return 1.25*est + machEps, nil
}

// randomUnit draws a unit-norm start vector from rng.
func randomUnit(n int, rng *rand.Rand) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	norm := kahan.Norm(v)
	if norm == 0 {
		v[0] = 1
		norm = 1
	}
	for i := range v {
		v[i] /= norm
	}

	return v
}
