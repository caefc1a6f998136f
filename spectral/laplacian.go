package spectral

import (
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/numlath/matrix"
)

// Errors:
//   - ErrInvalidNorm — unknown normalization value.
//   - ErrKTooSmall / ErrKTooLarge — eigenpair count out of range.
//   - ErrNoConvergence — eigensolver exhausted its iteration budget.
var (
	// ErrInvalidNorm indicates an unknown Norm value.
	ErrInvalidNorm = errors.New("spectral: invalid laplacian normalization")
	// ErrKTooSmall indicates a k below the operation's minimum.
	ErrKTooSmall = errors.New("spectral: k too small")
	// ErrKTooLarge indicates a k reaching the matrix dimension.
	ErrKTooLarge = errors.New("spectral: k too large for matrix size")
	// ErrNoConvergence indicates the eigensolver did not converge.
	ErrNoConvergence = errors.New("spectral: eigensolver did not converge")
)

const (
	machEps = 2.220446049250313e-16

	// symTol is the asymmetry threshold triggering (W+Wᵀ)/2.
	symTol = 1e-12

	// DefaultTol is the eigensolver convergence threshold.
	DefaultTol = 1e-10
)

// Norm selects the Laplacian normalization.
type Norm int

const (
	// NormNone is the combinatorial Laplacian D − W.
	NormNone Norm = iota
	// NormSym is the symmetric normalization I − D^{−1/2}·W·D^{−1/2}.
	NormSym
	// NormRW is the random-walk normalization I − D^{−1}·W.
	NormRW
)

// String implements fmt.Stringer.
func (n Norm) String() string {
	switch n {
	case NormNone:
		return "none"
	case NormSym:
		return "sym"
	case NormRW:
		return "rw"
	default:
		return "unknown"
	}
}

// Options configures the eigensolver backends.
type Options struct {
	// Norm selects the Laplacian normalization used by the high-level
	// helpers (NormNone by default).
	Norm Norm
	// Tol is the eigensolver convergence threshold; ≤0 selects
	// DefaultTol.
	Tol float64
	// MaxIter caps the eigensolver work (Jacobi rotations for the
	// dense backend, Krylov dimension for Lanczos); ≤0 selects a
	// size-dependent default.
	MaxIter int
	// Seed fixes the Lanczos start vector. Identical seeds and inputs
	// reproduce identical results; 0 selects seed 1.
	Seed int64
	// Logger receives backend events; nil silences them.
	Logger *zerolog.Logger
}

func (o *Options) normalize() {
	if o.Tol <= 0 {
		o.Tol = DefaultTol
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}

// Laplacian builds the graph Laplacian of the affinity matrix w.
//
// Behavior highlights:
//   - w is symmetrized as (W+Wᵀ)/2 when ‖W−Wᵀ‖_max exceeds 1e-12.
//   - Degrees d_i = Σ_j w_ij are clamped to machine epsilon, so the
//     normalized variants stay finite on isolated vertices.
//   - The result never aliases w.
//
// Errors:
//   - ErrInvalidNorm — norm is not one of the three variants.
//   - matrix.ErrNonSquare / matrix.ErrNilMatrix — malformed input.
func Laplacian(w *matrix.Dense, norm Norm) (*matrix.Dense, error) {
	if err := matrix.ValidateNotNil(w); err != nil {
		return nil, err
	}
	if err := matrix.ValidateSquare(w); err != nil {
		return nil, err
	}
	if norm != NormNone && norm != NormSym && norm != NormRW {
		return nil, ErrInvalidNorm
	}

	n := w.Rows()
	sym := symmetrize(w)
	d := clampedDegrees(sym)

	l, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	ld := l.Data()
	sd := sym.Data()

	var i, j int
	switch norm {
	case NormNone:
		for i = 0; i < n; i++ {
			for j = 0; j < n; j++ {
				ld[i*n+j] = -sd[i*n+j]
			}
			ld[i*n+i] += d[i]
		}
	case NormSym:
		dInvSqrt := make([]float64, n)
		for i = 0; i < n; i++ {
			dInvSqrt[i] = 1.0 / math.Sqrt(d[i])
		}
		for i = 0; i < n; i++ {
			for j = 0; j < n; j++ {
				ld[i*n+j] = -dInvSqrt[i] * sd[i*n+j] * dInvSqrt[j]
			}
			ld[i*n+i] += 1.0
		}
	case NormRW:
		for i = 0; i < n; i++ {
			inv := 1.0 / d[i]
			for j = 0; j < n; j++ {
				ld[i*n+j] = -inv * sd[i*n+j]
			}
			ld[i*n+i] += 1.0
		}
	}

	return l, nil
}

// LaplacianCSR builds a matrix-free Laplacian operator over a sparse
// affinity matrix. The operator applies L·x without materializing L,
// which keeps the cost proportional to the nonzero count; it is the
// input for EigsSparse.
//
// The input is used as given: a CSR affinity is expected to be
// symmetric already (a violation skews the spectrum but does not
// fail).
func LaplacianCSR(w *matrix.CSR, norm Norm) (matrix.LinearOperator, error) {
	if w == nil {
		return nil, matrix.ErrNilMatrix
	}
	rows, cols := w.Shape()
	if rows != cols {
		return nil, matrix.ErrNonSquare
	}
	if norm != NormNone && norm != NormSym && norm != NormRW {
		return nil, ErrInvalidNorm
	}

	d := w.RowSums()
	for i := range d {
		if d[i] < machEps {
			d[i] = machEps
		}
	}

	return &laplacianOp{w: w, norm: norm, d: d}, nil
}

// laplacianOp applies the Laplacian of a CSR affinity on the fly.
type laplacianOp struct {
	w    *matrix.CSR
	norm Norm
	d    []float64
}

func (op *laplacianOp) Shape() (rows, cols int) { return op.w.Shape() }

func (op *laplacianOp) Apply(x []float64) ([]float64, error) {
	n := len(op.d)
	if err := matrix.ValidateVecLen(x, n); err != nil {
		return nil, err
	}

	var wx []float64
	var err error
	switch op.norm {
	case NormSym:
		// D^{−1/2}·W·D^{−1/2}·x
		scaled := make([]float64, n)
		for i := 0; i < n; i++ {
			scaled[i] = x[i] / math.Sqrt(op.d[i])
		}
		if wx, err = op.w.Apply(scaled); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			wx[i] = x[i] - wx[i]/math.Sqrt(op.d[i])
		}

		return wx, nil
	case NormRW:
		if wx, err = op.w.Apply(x); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			wx[i] = x[i] - wx[i]/op.d[i]
		}

		return wx, nil
	default:
		if wx, err = op.w.Apply(x); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			wx[i] = op.d[i]*x[i] - wx[i]
		}

		return wx, nil
	}
}

// scaleToRandomWalk maps symmetric-form eigenvectors onto random-walk
// ones: row i is scaled by d_i^{−1/2}, then each column is renormalized
// to unit length. The mapping follows from the similarity
// L_rw = D^{−1/2}·L_sym·D^{1/2}.
func scaleToRandomWalk(vecs *matrix.Dense, d []float64) error {
	rows, cols := vecs.Shape()
	if len(d) != rows {
		return matrix.ErrDimensionMismatch
	}

	vd := vecs.Data()
	var i, j int
	for i = 0; i < rows; i++ {
		s := 1.0 / math.Sqrt(d[i])
		for j = 0; j < cols; j++ {
			vd[i*cols+j] *= s
		}
	}
	var acc, norm float64
	for j = 0; j < cols; j++ {
		acc = 0
		for i = 0; i < rows; i++ {
			acc += vd[i*cols+j] * vd[i*cols+j]
		}
		norm = math.Sqrt(acc)
		if norm > 0 {
			for i = 0; i < rows; i++ {
				vd[i*cols+j] /= norm
			}
		}
	}

	return nil
}

// symmetrize returns w when already symmetric within symTol, otherwise
// a fresh (W+Wᵀ)/2 copy.
func symmetrize(w *matrix.Dense) *matrix.Dense {
	if matrix.IsSymmetric(w, symTol) {
		return w
	}

	n := w.Rows()
	out, _ := matrix.NewDense(n, n)
	od := out.Data()
	wd := w.Data()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			od[i*n+j] = 0.5 * (wd[i*n+j] + wd[j*n+i])
		}
	}

	return out
}

// clampedDegrees returns the row sums of w clamped to machine epsilon.
func clampedDegrees(w *matrix.Dense) []float64 {
	n := w.Rows()
	wd := w.Data()
	d := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		sum = 0
		for j := 0; j < n; j++ {
			sum += wd[i*n+j]
		}
		if sum < machEps {
			sum = machEps
		}
		d[i] = sum
	}

	return d
}
