package lsq

import (
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/numlath/gate"
	"github.com/katalvlaran/numlath/kahan"
	"github.com/katalvlaran/numlath/matrix"
	"github.com/katalvlaran/numlath/nnls"
	"github.com/katalvlaran/numlath/qr"
	"github.com/katalvlaran/numlath/svd"
)

// Errors:
//   - ErrNNLSMatrixRHS — NNLS handles a single right-hand side only;
//     a matrix RHS under a non-negativity constraint is a
//     configuration error.
var (
	// ErrNNLSMatrixRHS indicates a matrix right-hand side routed to NNLS.
	ErrNNLSMatrixRHS = errors.New("lsq: nnls requires a vector right-hand side")
)

// Routing notes surfaced through Diagnostics.Notes.
const (
	noteNonNeg       = "routed by nonnegativity"
	noteCondition    = "routed by condition number"
	noteNotConverged = "nnls did not converge within the iteration budget"
	noteSweepBudget  = "svd exhausted its sweep budget; best-effort solution"
)

// Options configures a unified solve. The zero value routes by
// conditioning with QR preferred and library-default tolerances.
type Options struct {
	// NonNeg constrains the solution to x ≥ 0 (routes to NNLS).
	NonNeg bool
	// Prefer is the unconstrained solver used when well-conditioned.
	Prefer gate.Solver
	// Rcond is the relative rank tolerance forwarded to QR/SVD, and
	// the KKT tolerance forwarded to NNLS; ≤0 selects each solver's
	// default.
	Rcond float64
	// Rank caps the SVD truncation rank; ≤0 means full numerical rank.
	Rank int
	// MaxIter bounds NNLS outer iterations; ≤0 selects the default.
	MaxIter int
	// Logger receives routing events; nil silences them.
	Logger *zerolog.Logger
}

func (o *Options) normalize() {
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}

// Diagnostics describes how a solve was performed. The record is
// fresh per call and never mutated after return.
type Diagnostics struct {
	// Method is the solver that actually ran.
	Method gate.Solver
	// Condition is cond(A) estimated through the SVD.
	Condition float64
	// Elapsed is the wall-clock duration of the solver itself,
	// excluding the routing decision.
	Elapsed time.Duration
	// ResidualNorm is ‖A·x − b‖ (Frobenius for matrix RHS).
	ResidualNorm float64
	// RankUsed is the numerical rank the solver worked with;
	// −1 when the method has no rank notion (QR solve, NNLS).
	RankUsed int
	// Notes records the routing reason and any degradation.
	Notes string
}

// Solve computes a least-squares solution of A·x ≈ b with automatic
// solver selection.
//
// Routing (see gate.ChooseSolver): NonNeg ⇒ NNLS; cond(A) above the
// routing threshold ⇒ truncated SVD; otherwise the preferred
// unconstrained solver. The condition number is computed once, before
// routing, and recorded in the diagnostics; the timer wraps only the
// chosen solver.
//
// A truncated-SVD sweep-cap hit is not fatal: the best-effort solution
// is returned and the degradation recorded in Diagnostics.Notes.
//
// Errors:
//   - matrix sentinels — malformed inputs.
//   - solver sentinels — propagated unchanged.
func Solve(a *matrix.Dense, b []float64, opts Options) ([]float64, Diagnostics, error) {
	if err := matrix.ValidateNotNil(a); err != nil {
		return nil, Diagnostics{}, err
	}
	if err := matrix.ValidateVecLen(b, a.Rows()); err != nil {
		return nil, Diagnostics{}, err
	}
	opts.normalize()

	route, diag, err := routeAndPrepare(a, opts)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	var x []float64
	start := time.Now()
	switch route {
	case gate.SolverNNLS:
		x, err = solveNNLS(a, b, opts, &diag)
	case gate.SolverSVDTrunc:
		x, err = solveSVD(a, b, opts, &diag)
	default:
		x, err = solveQR(a, b, opts, &diag)
	}
	diag.Elapsed = time.Since(start)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	opts.Logger.Debug().Str("method", diag.Method.String()).
		Float64("condition", diag.Condition).
		Float64("residual_norm", diag.ResidualNorm).
		Dur("elapsed", diag.Elapsed).
		Msg("lsq: solved")

	return x, diag, nil
}

// SolveMatrix solves A·X ≈ B for a matrix right-hand side. The SVD
// route factors once and solves per column; the QR route reuses one
// factorization as well. A non-negativity constraint is rejected: the
// NNLS path takes a single right-hand side only.
func SolveMatrix(a, b *matrix.Dense, opts Options) (*matrix.Dense, Diagnostics, error) {
	if err := matrix.ValidateNotNil(a); err != nil {
		return nil, Diagnostics{}, err
	}
	if err := matrix.ValidateNotNil(b); err != nil {
		return nil, Diagnostics{}, err
	}
	if a.Rows() != b.Rows() {
		return nil, Diagnostics{}, matrix.ErrDimensionMismatch
	}
	opts.normalize()

	route, diag, err := routeAndPrepare(a, opts)
	if err != nil {
		return nil, Diagnostics{}, err
	}
	if route == gate.SolverNNLS {
		return nil, Diagnostics{}, ErrNNLSMatrixRHS
	}

	var x *matrix.Dense
	start := time.Now()
	if route == gate.SolverSVDTrunc {
		var info svd.Info
		x, info, err = svd.SolveMatrix(a, b, svd.Options{Rank: opts.Rank, Rcond: opts.Rcond, Logger: opts.Logger})
		err = absorbSweepExhaustion(err, &diag)
		diag.RankUsed = info.RankUsed
		diag.ResidualNorm = info.ResidualNorm
	} else {
		x, err = qr.SolveMatrix(a, b, qr.Options{Rcond: opts.Rcond, Logger: opts.Logger})
		if err == nil {
			diag.ResidualNorm, err = matrixResidual(a, x, b)
		}
	}
	diag.Elapsed = time.Since(start)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	return x, diag, nil
}

// routeAndPrepare computes the condition number, picks the solver, and
// seeds the diagnostics record.
func routeAndPrepare(a *matrix.Dense, opts Options) (gate.Solver, Diagnostics, error) {
	cond, err := gate.ConditionNumber(a, gate.MethodSVD)
	if err != nil {
		return 0, Diagnostics{}, err
	}

	route, err := gate.ChooseSolver(a, gate.Opts{Prefer: opts.Prefer, NonNeg: opts.NonNeg})
	if err != nil {
		return 0, Diagnostics{}, err
	}

	diag := Diagnostics{Method: route, Condition: cond, RankUsed: -1}
	switch route {
	case gate.SolverNNLS:
		diag.Notes = noteNonNeg
	case gate.SolverSVDTrunc:
		if cond > gate.CondRouteThreshold {
			diag.Notes = noteCondition
		}
	}

	return route, diag, nil
}

func solveNNLS(a *matrix.Dense, b []float64, opts Options, diag *Diagnostics) ([]float64, error) {
	x, res, err := nnls.Solve(a, b, nnls.Options{Tol: opts.Rcond, MaxIter: opts.MaxIter, Logger: opts.Logger})
	if err != nil {
		return nil, err
	}
	diag.ResidualNorm = res.ResidualNorm
	if !res.Converged {
		diag.Notes = appendNote(diag.Notes, noteNotConverged)
	}

	return x, nil
}

func solveSVD(a *matrix.Dense, b []float64, opts Options, diag *Diagnostics) ([]float64, error) {
	x, info, err := svd.Solve(a, b, svd.Options{Rank: opts.Rank, Rcond: opts.Rcond, Logger: opts.Logger})
	if err = absorbSweepExhaustion(err, diag); err != nil {
		return nil, err
	}
	diag.RankUsed = info.RankUsed
	diag.ResidualNorm = info.ResidualNorm

	return x, nil
}

// absorbSweepExhaustion downgrades a Jacobi sweep-cap hit from a fatal
// error to a diagnostics note: the truncated solver still returned a
// usable best-effort solution. Any other error passes through.
func absorbSweepExhaustion(err error, diag *Diagnostics) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, svd.ErrNoConvergence) {
		diag.Notes = appendNote(diag.Notes, noteSweepBudget)

		return nil
	}

	return err
}

// appendNote joins routing and degradation notes with "; ".
func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}

	return notes + "; " + note
}

func solveQR(a *matrix.Dense, b []float64, opts Options, diag *Diagnostics) ([]float64, error) {
	x, err := qr.Solve(a, b, qr.Options{Rcond: opts.Rcond, Logger: opts.Logger})
	if err != nil {
		return nil, err
	}
	ax, err := a.Apply(x)
	if err != nil {
		return nil, err
	}
	for i := range ax {
		ax[i] -= b[i]
	}
	diag.ResidualNorm = kahan.Norm(ax)

	return x, nil
}

// matrixResidual computes ‖A·X − B‖_F.
func matrixResidual(a, x, b *matrix.Dense) (float64, error) {
	ax, err := matrix.Mul(a, x)
	if err != nil {
		return 0, err
	}
	var sum, d float64
	var av, bv float64
	for i := 0; i < b.Rows(); i++ {
		for j := 0; j < b.Cols(); j++ {
			if av, err = ax.At(i, j); err != nil {
				return 0, err
			}
			if bv, err = b.At(i, j); err != nil {
				return 0, err
			}
			d = av - bv
			sum += d * d
		}
	}

	return math.Sqrt(sum), nil
}
