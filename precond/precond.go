package precond

import (
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/numlath/matrix"
)

// Errors:
//   - ErrInvalidOmega — SSOR relaxation parameter outside (0, 2).
//   - matrix.ErrNonSquare / matrix.ErrNilMatrix — propagated from the
//     central validators on malformed snapshots.
var (
	// ErrInvalidOmega indicates an SSOR relaxation factor outside (0,2).
	ErrInvalidOmega = errors.New("precond: omega must be in (0,2)")
)

const machEps = 2.220446049250313e-16

// Heuristic constants for Choose. The density bound decides when the
// IC(0) pattern is sparse enough to be worth a triangular factor.
const (
	// sparseDensityMax: at most this fraction of entries may be nonzero
	// for a matrix to count as sparse in the Choose heuristic.
	sparseDensityMax = 0.25

	// symmetryEps is the tolerance for the symmetry test in Choose/NewIC0.
	symmetryEps = 1e-10
)

// Kind identifies the concrete preconditioner behind the interface.
type Kind int

const (
	// KindJacobi is inverse-diagonal scaling.
	KindJacobi Kind = iota
	// KindSSOR is symmetric successive over-relaxation.
	KindSSOR
	// KindIC0 is incomplete Cholesky with zero fill-in.
	KindIC0
)

// String implements fmt.Stringer for logs and diagnostics.
func (k Kind) String() string {
	switch k {
	case KindJacobi:
		return "jacobi"
	case KindSSOR:
		return "ssor"
	case KindIC0:
		return "ic0"
	default:
		return "unknown"
	}
}

// Preconditioner is a LinearOperator representing M⁻¹, tagged with the
// concrete scheme actually in effect (relevant when IC(0) falls back).
type Preconditioner interface {
	matrix.LinearOperator
	Kind() Kind
}

// ---------- Jacobi ----------

type jacobi struct {
	invDiag []float64
}

var _ Preconditioner = (*jacobi)(nil)

// NewJacobi builds the inverse-diagonal preconditioner from a snapshot
// of A. Diagonal entries with |d| < machine eps are clamped to 1 to
// avoid division by zero (the operator degenerates to identity there).
//
// Complexity: O(n) build, O(n) apply.
func NewJacobi(a *matrix.Dense) (Preconditioner, error) {
	if err := matrix.ValidateNotNil(a); err != nil {
		return nil, err
	}
	if err := matrix.ValidateSquare(a); err != nil {
		return nil, err
	}
	n := a.Rows()
	ad := a.Data()
	inv := make([]float64, n)
	var d float64
	for i := 0; i < n; i++ {
		d = ad[i*n+i]
		if math.Abs(d) < machEps {
			d = 1.0
		}
		inv[i] = 1.0 / d
	}

	return &jacobi{invDiag: inv}, nil
}

func (j *jacobi) Kind() Kind { return KindJacobi }

func (j *jacobi) Shape() (rows, cols int) { return len(j.invDiag), len(j.invDiag) }

func (j *jacobi) Apply(x []float64) ([]float64, error) {
	if err := matrix.ValidateVecLen(x, len(j.invDiag)); err != nil {
		return nil, err
	}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = x[i] * j.invDiag[i]
	}

	return y, nil
}

// ---------- SSOR ----------

type ssor struct {
	n     int
	omega float64
	a     *matrix.Dense // private snapshot of A (lower/upper/diag read from it)
	diag  []float64
}

var _ Preconditioner = (*ssor)(nil)

// NewSSOR builds the SSOR(ω) preconditioner
// M = (D+ωL)·D⁻¹·(D+ωU)/(ω(2-ω)); applying M⁻¹ costs two triangular
// solves. ω = 1 is symmetric Gauss–Seidel.
//
// Errors:
//   - ErrInvalidOmega — ω outside (0,2).
//
// Complexity: O(n²) apply on a dense snapshot.
func NewSSOR(a *matrix.Dense, omega float64) (Preconditioner, error) {
	if err := matrix.ValidateNotNil(a); err != nil {
		return nil, err
	}
	if err := matrix.ValidateSquare(a); err != nil {
		return nil, err
	}
	if omega <= 0 || omega >= 2 {
		return nil, ErrInvalidOmega
	}
	n := a.Rows()
	snap := a.Clone()
	sd := snap.Data()
	diag := make([]float64, n)
	var d float64
	for i := 0; i < n; i++ {
		d = sd[i*n+i]
		if math.Abs(d) < machEps {
			d = 1.0 // same clamp as Jacobi: keep the solves well-defined
		}
		diag[i] = d
	}

	return &ssor{n: n, omega: omega, a: snap, diag: diag}, nil
}

func (s *ssor) Kind() Kind { return KindSSOR }

func (s *ssor) Shape() (rows, cols int) { return s.n, s.n }

// Apply solves M·z = x in two stages:
//
//	(D+ωL)·y = x
//	(D+ωU)·z = D·y/(ω(2-ω))
func (s *ssor) Apply(x []float64) ([]float64, error) {
	if err := matrix.ValidateVecLen(x, s.n); err != nil {
		return nil, err
	}
	ad := s.a.Data()
	n := s.n
	w := s.omega

	// Forward solve with the lower factor.
	y := make([]float64, n)
	var i, j int
	var acc float64
	for i = 0; i < n; i++ {
		acc = x[i]
		for j = 0; j < i; j++ {
			acc -= w * ad[i*n+j] * y[j]
		}
		y[i] = acc / s.diag[i]
	}

	// Scale by D/(ω(2-ω)).
	scale := 1.0 / (w * (2 - w))
	for i = 0; i < n; i++ {
		y[i] *= s.diag[i] * scale
	}

	// Backward solve with the upper factor.
	z := make([]float64, n)
	for i = n - 1; i >= 0; i-- {
		acc = y[i]
		for j = i + 1; j < n; j++ {
			acc -= w * ad[i*n+j] * z[j]
		}
		z[i] = acc / s.diag[i]
	}

	return z, nil
}

// ---------- IC(0) ----------

type ic0 struct {
	n int
	l *matrix.Dense // lower-triangular incomplete factor
}

var _ Preconditioner = (*ic0)(nil)

// NewIC0 builds the incomplete-Cholesky preconditioner with zero
// fill-in: L keeps A's lower-triangular sparsity pattern and A ≈ L·Lᵀ.
// A non-symmetric snapshot or a non-positive pivot aborts the
// factorization and falls back to Jacobi (logged when log != nil,
// never fatal); inspect Kind() to see which scheme is in effect.
//
// Complexity: O(n³) worst-case build on a dense pattern, O(n²) apply.
func NewIC0(a *matrix.Dense, log *zerolog.Logger) (Preconditioner, error) {
	if err := matrix.ValidateNotNil(a); err != nil {
		return nil, err
	}
	if err := matrix.ValidateSquare(a); err != nil {
		return nil, err
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	if !matrix.IsSymmetric(a, symmetryEps) {
		log.Debug().Msg("precond: matrix not symmetric, IC(0) falling back to Jacobi")

		return NewJacobi(a)
	}

	n := a.Rows()
	ad := a.Data()
	l, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	ld := l.Data()

	// Column-oriented incomplete Cholesky restricted to A's pattern.
	var i, j, k int
	var sum float64
	for k = 0; k < n; k++ {
		sum = ad[k*n+k]
		for j = 0; j < k; j++ {
			sum -= ld[k*n+j] * ld[k*n+j]
		}
		if sum <= 0 {
			log.Debug().Int("pivot", k).Msg("precond: non-positive pivot, IC(0) falling back to Jacobi")

			return NewJacobi(a)
		}
		ld[k*n+k] = math.Sqrt(sum)

		for i = k + 1; i < n; i++ {
			if ad[i*n+k] == 0 {
				continue // zero fill-in: keep A's sparsity pattern
			}
			sum = ad[i*n+k]
			for j = 0; j < k; j++ {
				sum -= ld[i*n+j] * ld[k*n+j]
			}
			ld[i*n+k] = sum / ld[k*n+k]
		}
	}

	return &ic0{n: n, l: l}, nil
}

func (c *ic0) Kind() Kind { return KindIC0 }

func (c *ic0) Shape() (rows, cols int) { return c.n, c.n }

// Apply solves L·Lᵀ·z = x with a forward and a backward substitution.
func (c *ic0) Apply(x []float64) ([]float64, error) {
	if err := matrix.ValidateVecLen(x, c.n); err != nil {
		return nil, err
	}
	ld := c.l.Data()
	n := c.n

	y := make([]float64, n)
	var i, j int
	var acc float64
	for i = 0; i < n; i++ {
		acc = x[i]
		for j = 0; j < i; j++ {
			acc -= ld[i*n+j] * y[j]
		}
		y[i] = acc / ld[i*n+i]
	}

	z := make([]float64, n)
	for i = n - 1; i >= 0; i-- {
		acc = y[i]
		for j = i + 1; j < n; j++ {
			acc -= ld[j*n+i] * z[j] // Lᵀ[i,j] = L[j,i]
		}
		z[i] = acc / ld[i*n+i]
	}

	return z, nil
}

// ---------- Choose ----------

// Choose picks a preconditioner for A:
//
//   - strictly diagonal-dominant rows ⇒ Jacobi (cheapest, effective)
//   - symmetric, positive diagonal, sparse pattern ⇒ IC(0)
//   - otherwise ⇒ SSOR(1)
//
// The decision is a heuristic over cheap structural checks; it never
// inspects the spectrum.
func Choose(a *matrix.Dense, log *zerolog.Logger) (Preconditioner, error) {
	if err := matrix.ValidateNotNil(a); err != nil {
		return nil, err
	}
	if err := matrix.ValidateSquare(a); err != nil {
		return nil, err
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	n := a.Rows()
	ad := a.Data()

	// Diagonal dominance: |a_ii| >= Σ_{j≠i} |a_ij| for every row.
	dominant := true
	positiveDiag := true
	nnz := 0
	var i, j int
	var offSum, d, v float64
	for i = 0; i < n; i++ {
		d = ad[i*n+i]
		if d <= 0 {
			positiveDiag = false
		}
		offSum = 0
		for j = 0; j < n; j++ {
			v = ad[i*n+j]
			if v != 0 {
				nnz++
			}
			if j != i {
				offSum += math.Abs(v)
			}
		}
		if math.Abs(d) < offSum {
			dominant = false
		}
	}

	if dominant {
		log.Debug().Msg("precond: choosing Jacobi (diagonal dominant)")

		return NewJacobi(a)
	}

	density := float64(nnz) / float64(n*n)
	if positiveDiag && density <= sparseDensityMax && matrix.IsSymmetric(a, symmetryEps) {
		log.Debug().Float64("density", density).Msg("precond: choosing IC(0) (symmetric sparse)")

		return NewIC0(a, log)
	}

	log.Debug().Msg("precond: choosing SSOR (general case)")

	return NewSSOR(a, 1.0)
}
