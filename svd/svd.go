package svd

import (
	"errors"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/numlath/matrix"
)

// SVD — truncated singular value decomposition
//
// Description:
//
//	Factor computes A = U·Σ·Vᵀ with one-sided Jacobi rotations: columns
//	of a working copy are orthogonalized pairwise until every pair is
//	numerically orthogonal; column norms then read off the singular
//	values. The method is slower than bidiagonalization but simple,
//	deterministic, and accurate to high relative precision — exactly
//	what the rank-revealing role of this package needs.
//
// Algorithm Outline:
//  1. Work on the tall orientation: B = A when m ≥ n, else B = Aᵀ
//     (factors swap back on return).
//  2. Sweep all column pairs (p,q), p<q: with a = ‖B_p‖², b = ‖B_q‖²,
//     c = B_p·B_q, skip when |c| ≤ tol·√(a·b); otherwise apply the
//     Jacobi rotation that zeroes c, to B and to the V accumulator.
//  3. Repeat sweeps until none rotates (or the sweep cap is hit).
//  4. σ_j = ‖B_j‖, U_j = B_j/σ_j; sort all factors by σ descending.
//  5. Numerical rank = #{σ > rcond·σ_max}; effective rank additionally
//     capped by the requested rank. Factors are truncated to it.
//
// Complexity:
//
//	Time   = O(sweeps · m·n²), sweeps typically ≤ 10 for n ≤ 200
//	Memory = O(m·n + n²)
//
// Errors:
//   - ErrEmptyMatrix      — nil input.
//   - ErrNoConvergence    — the sweep cap was reached with rotations
//     still pending (returned alongside best-effort factors).
var (
	// ErrEmptyMatrix indicates a nil input matrix.
	ErrEmptyMatrix = errors.New("svd: empty matrix not supported")

	// ErrNoConvergence indicates the Jacobi sweep cap was exhausted.
	ErrNoConvergence = errors.New("svd: jacobi sweeps did not converge")
)

const (
	machEps = 2.220446049250313e-16

	// jacobiTol is the pairwise orthogonality threshold: a column pair
	// with |B_p·B_q| ≤ jacobiTol·‖B_p‖·‖B_q‖ is left untouched.
	jacobiTol = 1e-15

	// maxSweeps caps the Jacobi iteration; convergence is quadratic once
	// sweeps start, so hitting this means pathological input.
	maxSweeps = 100
)

// Options configures Factor and Solve.
type Options struct {
	// Rank caps the effective rank; 0 keeps the full numerical rank
	// (conservative, least-squares-compatible default).
	Rank int

	// Rcond is the relative singular-value threshold; values
	// ≤ Rcond·σ_max are discarded. 0 selects eps·max(m,n).
	Rcond float64

	// Logger receives debug-level progress lines; nil disables logging.
	Logger *zerolog.Logger
}

func (o *Options) normalize(m, n int) {
	if o.Rcond <= 0 {
		o.Rcond = machEps * float64(max(m, n))
	}
	if o.Rank < 0 {
		o.Rank = 0
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}

// Result holds the truncated factors. When Rank == 0 (zero matrix) the
// factor fields are nil and only FullValues is populated.
type Result struct {
	// U is m×Rank: left singular vectors of the retained spectrum.
	U *matrix.Dense
	// S holds the retained singular values, descending.
	S []float64
	// Vt is Rank×n: transposed right singular vectors.
	Vt *matrix.Dense
	// Rank is the effective rank after rcond filtering and the optional
	// requested-rank cap.
	Rank int
	// FullValues is the complete singular spectrum (descending), kept for
	// diagnostics: condition numbers, truncation error, scree analysis.
	FullValues []float64
}

// Condition returns σ_max/σ_min over the retained values; +Inf when
// nothing was retained.
func (r Result) Condition() float64 {
	if len(r.S) == 0 {
		return math.Inf(1)
	}

	return r.S[0] / r.S[len(r.S)-1]
}

// TruncationError returns the 2-norm of the discarded singular values —
// the Eckart–Young reconstruction error of the truncated factorization.
func (r Result) TruncationError() float64 {
	var acc float64
	for i := r.Rank; i < len(r.FullValues); i++ {
		acc += r.FullValues[i] * r.FullValues[i]
	}

	return math.Sqrt(acc)
}

// Factor computes the truncated SVD of a. See the package outline; a is
// not mutated. On sweep exhaustion the best-effort factors are returned
// together with ErrNoConvergence.
func Factor(a *matrix.Dense, opts Options) (Result, error) {
	if a == nil {
		return Result{}, ErrEmptyMatrix
	}
	m, n := a.Shape()
	opts.normalize(m, n)

	// Tall orientation: B is rows×cols with rows ≥ cols.
	transposed := m < n
	var b *matrix.Dense
	var err error
	if transposed {
		b, err = matrix.Transpose(a)
		if err != nil {
			return Result{}, err
		}
	} else {
		b = a.Clone()
	}
	rows, cols := b.Shape()
	bd := b.Data()

	v, err := matrix.Identity(cols)
	if err != nil {
		return Result{}, err
	}
	vd := v.Data()

	// Jacobi sweeps.
	var (
		sweep, p, q, i   int
		app, aqq, apq    float64
		zeta, tt, cs, sn float64
		bp, bq, vp, vq   float64
		rotated          bool
	)
	converged := false
	for sweep = 0; sweep < maxSweeps; sweep++ {
		rotated = false
		for p = 0; p < cols-1; p++ {
			for q = p + 1; q < cols; q++ {
				app, aqq, apq = 0, 0, 0
				for i = 0; i < rows; i++ {
					bp = bd[i*cols+p]
					bq = bd[i*cols+q]
					app += bp * bp
					aqq += bq * bq
					apq += bp * bq
				}
				if math.Abs(apq) <= jacobiTol*math.Sqrt(app*aqq) {
					continue
				}
				rotated = true

				// Rotation zeroing the (p,q) inner product.
				zeta = (aqq - app) / (2 * apq)
				tt = math.Copysign(1.0/(math.Abs(zeta)+math.Hypot(zeta, 1)), zeta)
				cs = 1.0 / math.Sqrt(tt*tt+1)
				sn = tt * cs

				for i = 0; i < rows; i++ {
					bp = bd[i*cols+p]
					bq = bd[i*cols+q]
					bd[i*cols+p] = cs*bp - sn*bq
					bd[i*cols+q] = sn*bp + cs*bq
				}
				for i = 0; i < cols; i++ {
					vp = vd[i*cols+p]
					vq = vd[i*cols+q]
					vd[i*cols+p] = cs*vp - sn*vq
					vd[i*cols+q] = sn*vp + cs*vq
				}
			}
		}
		if !rotated {
			converged = true
			break
		}
	}

	// Column norms are the singular values; normalize U's columns.
	sigma := make([]float64, cols)
	for q = 0; q < cols; q++ {
		var acc float64
		for i = 0; i < rows; i++ {
			acc += bd[i*cols+q] * bd[i*cols+q]
		}
		sigma[q] = math.Sqrt(acc)
		if sigma[q] > 0 {
			inv := 1.0 / sigma[q]
			for i = 0; i < rows; i++ {
				bd[i*cols+q] *= inv
			}
		}
	}

	// Sort the spectrum descending, permuting columns of U (=B) and V.
	perm := make([]int, cols)
	for i = range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(x, y int) bool { return sigma[perm[x]] > sigma[perm[y]] })

	sortedS := make([]float64, cols)
	uSorted, err := matrix.NewDense(rows, cols)
	if err != nil {
		return Result{}, err
	}
	vSorted, err := matrix.NewDense(cols, cols)
	if err != nil {
		return Result{}, err
	}
	ud := uSorted.Data()
	vsd := vSorted.Data()
	for q = 0; q < cols; q++ {
		src := perm[q]
		sortedS[q] = sigma[src]
		for i = 0; i < rows; i++ {
			ud[i*cols+q] = bd[i*cols+src]
		}
		for i = 0; i < cols; i++ {
			vsd[i*cols+q] = vd[i*cols+src]
		}
	}

	// Numerical rank from the rcond threshold, then the requested cap.
	rankNum := 0
	if sortedS[0] > 0 {
		thresh := opts.Rcond * sortedS[0]
		for _, s := range sortedS {
			if s > thresh {
				rankNum++
			}
		}
	}
	rankEff := rankNum
	if opts.Rank > 0 && opts.Rank < rankEff {
		rankEff = opts.Rank
	}

	opts.Logger.Debug().
		Int("rank_eff", rankEff).
		Int("rank_num", rankNum).
		Int("sweeps", sweep).
		Msg("svd: factorization complete")

	res := Result{Rank: rankEff, FullValues: sortedS}
	if rankEff > 0 {
		// Truncate: U m'×k, S k, Vt k×n' in the tall orientation.
		uT, terr := truncateCols(uSorted, rankEff)
		if terr != nil {
			return Result{}, terr
		}
		vT, terr := truncateCols(vSorted, rankEff)
		if terr != nil {
			return Result{}, terr
		}
		vtT, terr := matrix.Transpose(vT)
		if terr != nil {
			return Result{}, terr
		}
		res.S = sortedS[:rankEff]
		if transposed {
			// A = (Aᵀ)ᵀ = (U'ΣV'ᵀ)ᵀ = V'·Σ·U'ᵀ.
			res.U = vT
			uTt, terr2 := matrix.Transpose(uT)
			if terr2 != nil {
				return Result{}, terr2
			}
			res.Vt = uTt
		} else {
			res.U = uT
			res.Vt = vtT
		}
	}

	if !converged {
		return res, ErrNoConvergence
	}

	return res, nil
}

// truncateCols copies the leading k columns of m into a fresh matrix.
func truncateCols(m *matrix.Dense, k int) (*matrix.Dense, error) {
	rows, cols := m.Shape()
	out, err := matrix.NewDense(rows, k)
	if err != nil {
		return nil, err
	}
	md, od := m.Data(), out.Data()
	var i, j int
	for i = 0; i < rows; i++ {
		for j = 0; j < k; j++ {
			od[i*k+j] = md[i*cols+j]
		}
	}

	return out, nil
}

// Values returns the full singular spectrum of a, descending.
func Values(a *matrix.Dense) ([]float64, error) {
	res, err := Factor(a, Options{})
	if err != nil && !errors.Is(err, ErrNoConvergence) {
		return nil, err
	}

	return res.FullValues, nil
}

// NumericalRank counts singular values above rcond·σ_max (rcond ≤ 0
// selects the default).
func NumericalRank(a *matrix.Dense, rcond float64) (int, error) {
	if a == nil {
		return 0, ErrEmptyMatrix
	}
	m, n := a.Shape()
	if rcond <= 0 {
		rcond = machEps * float64(max(m, n))
	}
	s, err := Values(a)
	if err != nil {
		return 0, err
	}
	if len(s) == 0 || s[0] == 0 {
		return 0, nil
	}
	thresh := rcond * s[0]
	rank := 0
	for _, v := range s {
		if v > thresh {
			rank++
		}
	}

	return rank, nil
}

// ConditionNumber returns σ_max/σ_min over strictly positive singular
// values; +Inf when the matrix is exactly zero.
func ConditionNumber(a *matrix.Dense) (float64, error) {
	s, err := Values(a)
	if err != nil {
		return 0, err
	}
	var last float64
	for _, v := range s {
		if v > 0 {
			last = v
		}
	}
	if last == 0 {
		return math.Inf(1), nil
	}

	return s[0] / last, nil
}
