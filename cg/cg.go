package cg

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/numlath/kahan"
	"github.com/katalvlaran/numlath/matrix"
)

// Errors:
//   - ErrNonSquareOperator — Solve requires a square operator.
//   - matrix sentinels are propagated from the validators and the
//     operator applications.
var (
	// ErrNonSquareOperator indicates the operator passed to Solve is
	// not square.
	ErrNonSquareOperator = errors.New("cg: operator must be square")
)

// Default iteration controls.
const (
	// DefaultTol is the relative residual tolerance ‖r‖/‖b‖.
	DefaultTol = 1e-8
)

// Options configures a conjugate-gradient run. The zero value selects
// defaults: zero initial guess, no preconditioner, tol 1e-8, maxiter n.
type Options struct {
	// X0 is the initial guess; nil means the zero vector.
	X0 []float64
	// M applies the preconditioner M⁻¹; nil disables preconditioning.
	M matrix.LinearOperator
	// Tol is the relative residual tolerance; ≤0 selects DefaultTol.
	Tol float64
	// MaxIter bounds the iteration count; ≤0 selects n.
	MaxIter int
	// Logger receives per-run debug events; nil silences them.
	Logger *zerolog.Logger
}

// normalize applies defaults for the system size n.
func (o *Options) normalize(n int) {
	if o.Tol <= 0 {
		o.Tol = DefaultTol
	}
	if o.MaxIter <= 0 {
		o.MaxIter = n
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}

// Result reports the outcome of a conjugate-gradient run.
type Result struct {
	// X is the final iterate.
	X []float64
	// Iterations is the number of CG steps performed.
	Iterations int
	// ResidualNorm is ‖b - A·X‖ at exit.
	ResidualNorm float64
	// RelativeResidual is ResidualNorm / ‖b‖ (zero when b = 0).
	RelativeResidual float64
	// Converged reports whether the tolerance was met.
	Converged bool
	// ResidualHistory holds ‖r_k‖ after each iteration.
	ResidualHistory []float64
	// BreakdownDetected reports a non-positive curvature p·Ap ≤ 0.
	BreakdownDetected bool
}

// Solve runs preconditioned conjugate gradients on A·x = b.
//
// Algorithm (standard PCG):
//  1. r₀ = b - A·x₀, z₀ = M⁻¹·r₀, p₀ = z₀.
//  2. α = (r·z)/(p·Ap); x += α·p; r -= α·Ap.
//  3. Stop when ‖r‖ ≤ tol·‖b‖, on p·Ap ≤ 0, or after MaxIter steps.
//  4. β = (r'·z')/(r·z); p = z' + β·p.
//
// Behavior highlights:
//   - b = 0 returns the zero vector immediately, converged in 0 steps.
//   - Breakdown (p·Ap ≤ 0) is non-fatal: the current iterate is
//     returned with BreakdownDetected set.
//   - Inner products use compensated summation for determinism on
//     long, badly scaled vectors.
//
// Errors:
//   - ErrNonSquareOperator — A is not square.
//   - matrix.ErrDimensionMismatch — len(b), len(X0), or the
//     preconditioner shape disagree with A.
//
// Complexity: O(MaxIter · cost(A.Apply)) time, O(n) extra space.
func Solve(a matrix.LinearOperator, b []float64, opts Options) (*Result, error) {
	if err := validateSystem(a, b, &opts); err != nil {
		return nil, err
	}
	n := len(b)
	opts.normalize(n)
	log := opts.Logger

	res := &Result{X: make([]float64, n)}
	if opts.X0 != nil {
		copy(res.X, opts.X0)
	}

	bNorm := kahan.Norm(b)
	if bNorm == 0 {
		// Homogeneous system: x = 0 is exact regardless of the guess.
		for i := range res.X {
			res.X[i] = 0
		}
		res.Converged = true

		return res, nil
	}

	// r = b - A·x.
	r, err := residual(a, res.X, b)
	if err != nil {
		return nil, err
	}

	z, err := applyPrecond(opts.M, r)
	if err != nil {
		return nil, err
	}
	p := make([]float64, n)
	copy(p, z)

	rz, err := kahan.Dot(r, z)
	if err != nil {
		return nil, err
	}

	threshold := opts.Tol * bNorm
	var (
		ap           []float64
		pAp, alpha   float64
		rzNext, beta float64
		rNorm        float64
	)
	for k := 0; k < opts.MaxIter; k++ {
		ap, err = a.Apply(p)
		if err != nil {
			return nil, err
		}
		pAp, err = kahan.Dot(p, ap)
		if err != nil {
			return nil, err
		}
		if pAp <= 0 {
			res.BreakdownDetected = true
			log.Debug().Int("iteration", k).Float64("curvature", pAp).
				Msg("cg: non-positive curvature, stopping")

			break
		}

		alpha = rz / pAp
		for i := 0; i < n; i++ {
			res.X[i] += alpha * p[i]
			r[i] -= alpha * ap[i]
		}
		res.Iterations = k + 1

		rNorm = kahan.Norm(r)
		res.ResidualHistory = append(res.ResidualHistory, rNorm)
		if rNorm <= threshold {
			res.Converged = true

			break
		}

		z, err = applyPrecond(opts.M, r)
		if err != nil {
			return nil, err
		}
		rzNext, err = kahan.Dot(r, z)
		if err != nil {
			return nil, err
		}
		beta = rzNext / rz
		rz = rzNext
		for i := 0; i < n; i++ {
			p[i] = z[i] + beta*p[i]
		}
	}

	res.ResidualNorm = kahan.Norm(r)
	res.RelativeResidual = res.ResidualNorm / bNorm
	if !res.Converged {
		res.Converged = res.ResidualNorm <= threshold
	}
	log.Debug().Int("iterations", res.Iterations).
		Float64("relative_residual", res.RelativeResidual).
		Bool("converged", res.Converged).
		Msg("cg: finished")

	return res, nil
}

// SolveMatrix solves A·X = B column by column with a shared Options
// value. It returns the solution matrix and the per-column results.
func SolveMatrix(a matrix.LinearOperator, bMat *matrix.Dense, opts Options) (*matrix.Dense, []*Result, error) {
	if err := matrix.ValidateNotNil(bMat); err != nil {
		return nil, nil, err
	}
	rows, cols := a.Shape()
	if rows != cols {
		return nil, nil, ErrNonSquareOperator
	}
	if bMat.Rows() != rows {
		return nil, nil, matrix.ErrDimensionMismatch
	}

	x, err := matrix.NewDense(rows, bMat.Cols())
	if err != nil {
		return nil, nil, err
	}
	results := make([]*Result, bMat.Cols())
	var col []float64
	var res *Result
	for j := 0; j < bMat.Cols(); j++ {
		if col, err = bMat.Col(j); err != nil {
			return nil, nil, err
		}
		if res, err = Solve(a, col, opts); err != nil {
			return nil, nil, err
		}
		if err = x.SetCol(j, res.X); err != nil {
			return nil, nil, err
		}
		results[j] = res
	}

	return x, results, nil
}

// SolveNormal runs CG on the normal equations AᵀA·x = Aᵀb without
// forming AᵀA: the operator applies A then Aᵀ per step. Suitable for
// well-conditioned rectangular least-squares problems; the effective
// condition number is squared, so ill-conditioned systems should use
// a factorization instead.
func SolveNormal(a *matrix.Dense, b []float64, opts Options) (*Result, error) {
	if err := matrix.ValidateNotNil(a); err != nil {
		return nil, err
	}
	if err := matrix.ValidateVecLen(b, a.Rows()); err != nil {
		return nil, err
	}

	atb, err := matrix.MatTransVec(a, b)
	if err != nil {
		return nil, err
	}

	return Solve(&normalOperator{a: a}, atb, opts)
}

// normalOperator applies x ↦ Aᵀ(A·x) without materializing AᵀA.
type normalOperator struct {
	a *matrix.Dense
}

func (op *normalOperator) Shape() (rows, cols int) {
	n := op.a.Cols()

	return n, n
}

func (op *normalOperator) Apply(x []float64) ([]float64, error) {
	ax, err := op.a.Apply(x)
	if err != nil {
		return nil, err
	}

	return matrix.MatTransVec(op.a, ax)
}

// validateSystem checks the operator and vector shapes before a run.
func validateSystem(a matrix.LinearOperator, b []float64, opts *Options) error {
	if a == nil {
		return matrix.ErrNilMatrix
	}
	rows, cols := a.Shape()
	if rows != cols {
		return ErrNonSquareOperator
	}
	if err := matrix.ValidateVecLen(b, rows); err != nil {
		return err
	}
	if opts.X0 != nil {
		if err := matrix.ValidateVecLen(opts.X0, rows); err != nil {
			return err
		}
	}
	if opts.M != nil {
		mr, mc := opts.M.Shape()
		if mr != rows || mc != cols {
			return matrix.ErrDimensionMismatch
		}
	}

	return nil
}

// residual computes b - A·x.
func residual(a matrix.LinearOperator, x, b []float64) ([]float64, error) {
	ax, err := a.Apply(x)
	if err != nil {
		return nil, err
	}
	r := make([]float64, len(b))
	for i := range b {
		r[i] = b[i] - ax[i]
	}

	return r, nil
}

// applyPrecond applies M⁻¹ or the identity when m is nil.
func applyPrecond(m matrix.LinearOperator, r []float64) ([]float64, error) {
	if m == nil {
		z := make([]float64, len(r))
		copy(z, r)

		return z, nil
	}

	return m.Apply(r)
}
