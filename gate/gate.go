package gate

import (
	"errors"
	"math"

	"github.com/katalvlaran/numlath/matrix"
	"github.com/katalvlaran/numlath/qr"
	"github.com/katalvlaran/numlath/svd"
)

// Errors:
//   - ErrInvalidMethod — unknown condition-number estimator.
var (
	// ErrInvalidMethod indicates an unknown Method value.
	ErrInvalidMethod = errors.New("gate: invalid condition-number method")
)

// CondRouteThreshold is the condition number above which unconstrained
// problems are routed to truncated SVD instead of QR.
const CondRouteThreshold = 1e3

// Method selects the condition-number estimator.
type Method int

const (
	// MethodSVD computes σ_max/σ_min exactly through the SVD.
	MethodSVD Method = iota
	// MethodQR approximates the ratio through the diagonal of R.
	MethodQR
)

// String implements fmt.Stringer.
func (m Method) String() string {
	switch m {
	case MethodSVD:
		return "svd"
	case MethodQR:
		return "qr"
	default:
		return "unknown"
	}
}

// Solver identifies a routing target.
type Solver int

const (
	// SolverQR is the Householder-QR least-squares path.
	SolverQR Solver = iota
	// SolverSVDTrunc is the truncated-SVD pseudo-inverse path.
	SolverSVDTrunc
	// SolverNNLS is the non-negative least-squares path.
	SolverNNLS
)

// String implements fmt.Stringer.
func (s Solver) String() string {
	switch s {
	case SolverQR:
		return "qr"
	case SolverSVDTrunc:
		return "svd_trunc"
	case SolverNNLS:
		return "nnls"
	default:
		return "unknown"
	}
}

// ConditionNumber estimates cond(A) = σ_max/σ_min.
//
// MethodSVD takes the exact ratio over the strictly positive singular
// values; MethodQR approximates it as max|R_ii|/min|R_ii| over the
// nonzero diagonal of the Householder R factor. Both return +Inf for
// an effectively zero matrix.
//
// Errors:
//   - ErrInvalidMethod — method is neither MethodSVD nor MethodQR.
//   - matrix/svd/qr sentinels — malformed or empty input.
func ConditionNumber(a *matrix.Dense, method Method) (float64, error) {
	switch method {
	case MethodSVD:
		return svd.ConditionNumber(a)
	case MethodQR:
		return qrConditionNumber(a)
	default:
		return 0, ErrInvalidMethod
	}
}

// qrConditionNumber computes max|R_ii|/min|R_ii| over positive entries.
func qrConditionNumber(a *matrix.Dense) (float64, error) {
	if err := matrix.ValidateNotNil(a); err != nil {
		return 0, err
	}
	_, r, err := qr.Factor(a, qr.Reduced)
	if err != nil {
		return 0, err
	}

	k := r.Rows()
	if r.Cols() < k {
		k = r.Cols()
	}
	maxD, minD := 0.0, math.Inf(1)
	var d float64
	for i := 0; i < k; i++ {
		if d, err = r.At(i, i); err != nil {
			return 0, err
		}
		d = math.Abs(d)
		if d == 0 {
			continue
		}
		if d > maxD {
			maxD = d
		}
		if d < minD {
			minD = d
		}
	}
	if maxD == 0 {
		return math.Inf(1), nil
	}

	return maxD / minD, nil
}

// Opts configures ChooseSolver.
type Opts struct {
	// Prefer is the unconstrained solver used when A is
	// well-conditioned; the zero value prefers QR.
	Prefer Solver
	// NonNeg forces the NNLS route regardless of conditioning.
	NonNeg bool
}

// ChooseSolver decides which solver should handle A:
//
//	NonNeg ⇒ SolverNNLS
//	cond(A) > CondRouteThreshold ⇒ SolverSVDTrunc
//	otherwise ⇒ Prefer (SolverQR unless SolverSVDTrunc was asked for)
//
// The condition number is estimated with MethodSVD.
func ChooseSolver(a *matrix.Dense, opts Opts) (Solver, error) {
	if opts.NonNeg {
		return SolverNNLS, nil
	}

	cond, err := ConditionNumber(a, MethodSVD)
	if err != nil {
		return 0, err
	}
	if cond > CondRouteThreshold {
		return SolverSVDTrunc, nil
	}
	if opts.Prefer == SolverSVDTrunc {
		return SolverSVDTrunc, nil
	}

	return SolverQR, nil
}
