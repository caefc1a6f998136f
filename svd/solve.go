package svd

import (
	"errors"
	"math"

	"github.com/katalvlaran/numlath/matrix"
)

// Info carries per-solve diagnostics. Produced fresh per call and never
// mutated afterwards.
type Info struct {
	// RankUsed is the effective rank of the truncated pseudo-inverse.
	RankUsed int
	// ResidualNorm is ‖A·x - b‖₂ (‖b‖₂ when RankUsed == 0).
	ResidualNorm float64
	// SolutionNorm is ‖x‖₂.
	SolutionNorm float64
	// Condition is σ_max/σ_min over the retained spectrum.
	Condition float64
	// TruncationError is the 2-norm of the discarded singular values.
	TruncationError float64
}

// Solve computes the regularized least-squares solution of A·x ≈ b via
// the truncated pseudo-inverse x = V·Σ⁻¹·Uᵀ·b.
//
// A zero effective rank returns the zero vector with residual ‖b‖ — a
// degenerate but well-defined answer, not an error.
//
// Errors:
//   - ErrEmptyMatrix — nil coefficient matrix.
//   - matrix.ErrDimensionMismatch — len(b) != m.
//   - ErrNoConvergence — Jacobi sweep cap hit (best-effort x returned).
func Solve(a *matrix.Dense, b []float64, opts Options) ([]float64, Info, error) {
	if a == nil {
		return nil, Info{}, ErrEmptyMatrix
	}
	m, n := a.Shape()
	if err := matrix.ValidateVecLen(b, m); err != nil {
		return nil, Info{}, err
	}

	res, ferr := Factor(a, opts)
	if ferr != nil && !errors.Is(ferr, ErrNoConvergence) {
		return nil, Info{}, ferr
	}

	if res.Rank == 0 {
		x := make([]float64, n)
		info := Info{
			RankUsed:        0,
			ResidualNorm:    matrix.Norm(b),
			TruncationError: res.TruncationError(),
		}

		return x, info, ferr
	}

	// Uᵀb, then Σ⁻¹ element-wise, then Vᵀᵀ = V application.
	utb, err := matrix.MatTransVec(res.U, b)
	if err != nil {
		return nil, Info{}, err
	}
	for i := range utb {
		utb[i] /= res.S[i]
	}
	x, err := matrix.MatTransVec(res.Vt, utb)
	if err != nil {
		return nil, Info{}, err
	}

	ax, err := matrix.MatVec(a, x)
	if err != nil {
		return nil, Info{}, err
	}
	diff := make([]float64, m)
	for i := range diff {
		diff[i] = ax[i] - b[i]
	}

	info := Info{
		RankUsed:        res.Rank,
		ResidualNorm:    matrix.Norm(diff),
		SolutionNorm:    matrix.Norm(x),
		Condition:       res.Condition(),
		TruncationError: res.TruncationError(),
	}

	return x, info, ferr
}

// SolveMatrix solves A·X ≈ B column by column. The returned Info is the
// first column's (columns share the factorization parameters, so rank
// and condition agree; residual refers to the whole block). A sweep-cap
// hit on any column surfaces as ErrNoConvergence with the best-effort X
// still returned.
func SolveMatrix(a, b *matrix.Dense, opts Options) (*matrix.Dense, Info, error) {
	if a == nil || b == nil {
		return nil, Info{}, ErrEmptyMatrix
	}
	m, n := a.Shape()
	br, bc := b.Shape()
	if br != m {
		return nil, Info{}, matrix.ErrDimensionMismatch
	}

	x, err := matrix.NewDense(n, bc)
	if err != nil {
		return nil, Info{}, err
	}
	var first Info
	var sweepErr error
	for j := 0; j < bc; j++ {
		col, cerr := b.Col(j)
		if cerr != nil {
			return nil, Info{}, cerr
		}
		xj, info, serr := Solve(a, col, opts)
		if serr != nil {
			if !errors.Is(serr, ErrNoConvergence) {
				return nil, Info{}, serr
			}
			sweepErr = serr
		}
		if j == 0 {
			first = info
		}
		if err = x.SetCol(j, xj); err != nil {
			return nil, Info{}, err
		}
	}

	// Block residual over all columns.
	ax, err := matrix.Mul(a, x)
	if err != nil {
		return nil, Info{}, err
	}
	axd, bd := ax.Data(), b.Data()
	var acc float64
	for i := range axd {
		d := axd[i] - bd[i]
		acc += d * d
	}
	first.ResidualNorm = math.Sqrt(acc)

	return x, first, sweepErr
}
