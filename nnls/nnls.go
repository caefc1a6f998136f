package nnls

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/numlath/kahan"
	"github.com/katalvlaran/numlath/matrix"
	"github.com/katalvlaran/numlath/qr"
)

// Default iteration controls.
const (
	// DefaultTol is the KKT violation tolerance.
	DefaultTol = 1e-10
	// DefaultMaxIter bounds the number of outer iterations.
	DefaultMaxIter = 10000
)

// Options configures an NNLS run. The zero value selects the defaults.
type Options struct {
	// Tol is the KKT tolerance; ≤0 selects DefaultTol.
	Tol float64
	// MaxIter bounds the outer iterations; ≤0 selects DefaultMaxIter.
	MaxIter int
	// Logger receives per-iteration debug events; nil silences them.
	Logger *zerolog.Logger
}

func (o *Options) normalize() {
	if o.Tol <= 0 {
		o.Tol = DefaultTol
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}

// Result reports the outcome of an NNLS run.
type Result struct {
	// Converged reports whether the KKT conditions were met within Tol.
	Converged bool
	// Iterations is the number of outer iterations consumed.
	Iterations int
	// Objective is ½·‖A·x − b‖² at the final iterate.
	Objective float64
	// ResidualNorm is ‖A·x − b‖.
	ResidualNorm float64
	// ActiveSet lists the indices with x_i > 0, ascending.
	ActiveSet []int
	// Multipliers holds the Lagrange multipliers λ: max(0, g_i) for
	// variables at the bound, 0 for interior variables.
	Multipliers []float64
	// KKT is the final validation report.
	KKT KKTReport
}

// Solve runs the active-set NNLS algorithm on A·x ≈ b, x ≥ 0.
//
// Behavior highlights:
//   - The passive-set subproblem min ‖A_P·x_P − b‖ is solved through a
//     Householder QR of the column submatrix, which minimizes the same
//     objective as the normal equations without forming AᵀA.
//   - An infeasible subsolution triggers the ratio test: the largest
//     step α keeping x ≥ 0, the first variable reaching zero being
//     removed (smallest α, then smallest index).
//   - Degenerate stalls are bounded: the inner loop is capped at
//     |P|+1 passes per outer iteration; exceeding the cap marks the
//     run non-converged instead of cycling.
//   - b = 0 (or any b with no dual violation) returns x = 0,
//     converged.
//
// Errors:
//   - matrix.ErrNilMatrix / matrix.ErrInvalidDimensions — malformed A.
//   - matrix.ErrDimensionMismatch — len(b) ≠ rows(A).
//
// Complexity: O(MaxIter · m·n²) worst case, typically far less.
func Solve(a *matrix.Dense, b []float64, opts Options) ([]float64, *Result, error) {
	if err := matrix.ValidateNotNil(a); err != nil {
		return nil, nil, err
	}
	if err := matrix.ValidateVecLen(b, a.Rows()); err != nil {
		return nil, nil, err
	}
	opts.normalize()
	log := opts.Logger

	n := a.Cols()
	x := make([]float64, n)
	passive := make([]bool, n)

	res := &Result{}
	var (
		grad    []float64
		err     error
		kkViol  float64
		jAdd    int
		minGrad float64
		outer   int
		stalled bool
		aborted bool
	)
	for outer = 0; outer < opts.MaxIter; outer++ {
		grad, err = gradient(a, x, b)
		if err != nil {
			return nil, nil, err
		}

		kkViol = kktViolation(x, grad, passive, opts.Tol)
		log.Debug().Int("iteration", outer).Float64("kkt_violation", kkViol).
			Msg("nnls: outer step")
		if kkViol <= opts.Tol {
			res.Converged = true

			break
		}

		// Entering variable: most negative gradient among the zeros.
		jAdd, minGrad = -1, 0.0
		for j := 0; j < n; j++ {
			if !passive[j] && grad[j] < minGrad {
				jAdd, minGrad = j, grad[j]
			}
		}
		if jAdd < 0 || minGrad >= -opts.Tol {
			// No significant dual violation left.
			res.Converged = true

			break
		}
		passive[jAdd] = true

		if stalled, err = refinePassiveSet(a, b, x, passive, opts.Tol); err != nil {
			return nil, nil, err
		}
		if stalled {
			log.Warn().Int("iteration", outer).
				Msg("nnls: inner loop stalled, aborting")
			aborted = true

			break
		}
	}

	res.Iterations = outer
	if res.Converged {
		res.Iterations = outer + 1
	} else if !aborted {
		res.Iterations = opts.MaxIter
	}

	finalize(a, b, x, opts.Tol, res)
	log.Debug().Bool("converged", res.Converged).
		Float64("residual_norm", res.ResidualNorm).
		Bool("kkt_satisfied", res.KKT.Satisfied).
		Msg("nnls: finished")

	return x, res, nil
}

// gradient computes g = Aᵀ(A·x − b).
func gradient(a *matrix.Dense, x, b []float64) ([]float64, error) {
	ax, err := a.Apply(x)
	if err != nil {
		return nil, err
	}
	for i := range ax {
		ax[i] -= b[i]
	}

	return matrix.MatTransVec(a, ax)
}

// kktViolation returns the largest violation of the stationarity
// conditions: |g_i| for interior variables, max(0, −g_i) for variables
// at the bound.
func kktViolation(x, grad []float64, passive []bool, tol float64) float64 {
	var worst float64
	for i := range x {
		if passive[i] && x[i] > tol {
			if v := math.Abs(grad[i]); v > worst {
				worst = v
			}
		} else if x[i] <= tol {
			if v := -grad[i]; v > worst {
				worst = v
			}
		}
	}

	return worst
}

// refinePassiveSet solves the subproblem restricted to the passive set
// and repeats the ratio test until the iterate is feasible. The pass
// count is capped at |P|+1; exceeding it reports a stall.
func refinePassiveSet(a *matrix.Dense, b, x []float64, passive []bool, tol float64) (stalled bool, err error) {
	maxPasses := countPassive(passive) + 1
	var (
		pList []int
		sub   *matrix.Dense
		xP    []float64
	)
	for pass := 0; pass < maxPasses; pass++ {
		pList = passiveIndices(passive)
		if len(pList) == 0 {
			return false, nil
		}

		if sub, err = columnSubmatrix(a, pList); err != nil {
			return false, err
		}
		if xP, err = qr.Solve(sub, b, qr.Options{}); err != nil {
			return false, err
		}

		if feasible(xP, tol) {
			for i := range x {
				x[i] = 0
			}
			for i, p := range pList {
				x[p] = math.Max(xP[i], 0)
			}

			return false, nil
		}

		ratioTestStep(x, xP, pList, passive)
	}

	return true, nil
}

// ratioTestStep interpolates toward the infeasible subsolution by the
// largest step keeping x ≥ 0 and removes the first variable reaching
// zero (smallest α, smallest index on ties).
func ratioTestStep(x, xP []float64, pList []int, passive []bool) {
	alpha := math.Inf(1)
	remove := -1
	for i, p := range pList {
		if xP[i] < 0 && x[p] > 0 {
			if a := x[p] / (x[p] - xP[i]); a < alpha {
				alpha, remove = a, p
			}
		}
	}
	if remove < 0 {
		// All infeasible components start at zero: no positive step
		// exists, pin the most negative one instead.
		worst := 0.0
		for i, p := range pList {
			if xP[i] < worst {
				worst, remove = xP[i], p
			}
		}
		if remove >= 0 {
			passive[remove] = false
			x[remove] = 0
		}

		return
	}

	for i, p := range pList {
		x[p] += alpha * (xP[i] - x[p])
		if x[p] < 0 {
			x[p] = 0
		}
	}
	passive[remove] = false
	x[remove] = 0
}

// finalize fills the result with the residual metrics, the active set,
// the Lagrange multipliers, and the full KKT validation.
func finalize(a *matrix.Dense, b, x []float64, tol float64, res *Result) {
	r, _ := a.Apply(x)
	for i := range r {
		r[i] -= b[i]
	}
	grad, _ := matrix.MatTransVec(a, r)

	n := len(x)
	lambda := make([]float64, n)
	active := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if x[i] <= tol {
			lambda[i] = math.Max(0, grad[i])
		} else {
			active = append(active, i)
		}
	}
	sort.Ints(active)

	res.ResidualNorm = kahan.Norm(r)
	res.Objective = 0.5 * res.ResidualNorm * res.ResidualNorm
	res.ActiveSet = active
	res.Multipliers = lambda
	res.KKT = validateKKT(x, grad, lambda, tol)
}

func countPassive(passive []bool) int {
	c := 0
	for _, p := range passive {
		if p {
			c++
		}
	}

	return c
}

func passiveIndices(passive []bool) []int {
	idx := make([]int, 0, len(passive))
	for i, p := range passive {
		if p {
			idx = append(idx, i)
		}
	}

	return idx
}

func feasible(v []float64, tol float64) bool {
	for _, e := range v {
		if e < -tol {
			return false
		}
	}

	return true
}

// columnSubmatrix extracts the columns of a listed in cols, in order.
func columnSubmatrix(a *matrix.Dense, cols []int) (*matrix.Dense, error) {
	sub, err := matrix.NewDense(a.Rows(), len(cols))
	if err != nil {
		return nil, err
	}
	var col []float64
	for j, c := range cols {
		if col, err = a.Col(c); err != nil {
			return nil, err
		}
		if err = sub.SetCol(j, col); err != nil {
			return nil, err
		}
	}

	return sub, nil
}
