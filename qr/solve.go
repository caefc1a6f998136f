package qr

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/numlath/matrix"
)

// Options configures the least-squares solve.
type Options struct {
	// Rcond is the relative threshold for rank determination from the R
	// diagonal: entries with |r_jj| <= Rcond·max|r_jj| are treated as
	// zero. 0 selects the default eps·max(m,n).
	Rcond float64

	// Logger receives debug-level progress lines. nil disables logging;
	// the package never touches a process-global logger.
	Logger *zerolog.Logger
}

// normalize applies documented defaults for a given problem shape.
func (o *Options) normalize(m, n int) {
	if o.Rcond <= 0 {
		o.Rcond = machEps * float64(max(m, n))
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}

// Solve computes the least-squares solution of A·x ≈ b via QR.
//
// For m ≥ n the system is solved by back-substituting Qᵀb against R,
// truncated to the numerical rank read off the R diagonal; trailing
// unknowns of a rank-deficient system are zero (diagnosed via Rank, not
// fatal). For m < n the minimum-norm solution is obtained from the QR
// factorization of Aᵀ.
//
// Errors:
//   - ErrEmptyMatrix — nil coefficient matrix.
//   - matrix.ErrDimensionMismatch — len(b) != m.
//
// Complexity: O(m·n²).
func Solve(a *matrix.Dense, b []float64, opts Options) ([]float64, error) {
	if a == nil {
		return nil, ErrEmptyMatrix
	}
	m, n := a.Shape()
	if err := matrix.ValidateVecLen(b, m); err != nil {
		return nil, err
	}
	opts.normalize(m, n)

	if m >= n {
		return solveTall(a, b, opts)
	}

	return solveWide(a, b, opts)
}

// solveTall handles the overdetermined / square case (m ≥ n).
func solveTall(a *matrix.Dense, b []float64, opts Options) ([]float64, error) {
	_, n := a.Shape()
	q, r, err := Factor(a, Reduced)
	if err != nil {
		return nil, err
	}

	// Qᵀb via the transpose-free kernel.
	qtb, err := matrix.MatTransVec(q, b)
	if err != nil {
		return nil, err
	}

	rank := rankFromDiag(r, opts.Rcond)
	if rank < n {
		opts.Logger.Debug().
			Int("rank", rank).
			Int("n", n).
			Msg("qr: rank-deficient system, zero-padding trailing unknowns")
	}

	x := make([]float64, n)
	backSubstitute(r, qtb, x, rank)

	return x, nil
}

// solveWide handles the underdetermined case (m < n): the minimum-norm
// solution x = Q₁·y where Aᵀ = Q₁·R₁ and R₁ᵀ·y = b.
func solveWide(a *matrix.Dense, b []float64, opts Options) ([]float64, error) {
	m, _ := a.Shape()
	at, err := matrix.Transpose(a)
	if err != nil {
		return nil, err
	}
	qt, rt, err := Factor(at, Reduced) // qt: n×m, rt: m×m
	if err != nil {
		return nil, err
	}

	// Forward-substitute the lower-triangular R₁ᵀ·y = b. A negligible
	// pivot zero-pads that component (rank deficiency, non-fatal).
	rd := rt.Data()
	_, rtCols := rt.Shape()
	maxDiag := 0.0
	for i := 0; i < m; i++ {
		if d := math.Abs(rd[i*rtCols+i]); d > maxDiag {
			maxDiag = d
		}
	}
	thresh := opts.Rcond * maxDiag
	y := make([]float64, m)
	var i, j int
	var s, d float64
	for i = 0; i < m; i++ {
		s = b[i]
		for j = 0; j < i; j++ {
			s -= rd[j*rtCols+i] * y[j] // R₁ᵀ[i,j] = R₁[j,i]
		}
		d = rd[i*rtCols+i]
		if math.Abs(d) <= thresh {
			y[i] = 0
			opts.Logger.Debug().Int("row", i).Msg("qr: negligible pivot in min-norm solve")
			continue
		}
		y[i] = s / d
	}

	return matrix.MatVec(qt, y)
}

// SolveMatrix solves A·X ≈ B column by column, for matrix right-hand
// sides. B must have m rows; the result has n rows and B's column count.
func SolveMatrix(a, b *matrix.Dense, opts Options) (*matrix.Dense, error) {
	if a == nil || b == nil {
		return nil, ErrEmptyMatrix
	}
	m, n := a.Shape()
	br, bc := b.Shape()
	if br != m {
		return nil, matrix.ErrDimensionMismatch
	}
	x, err := matrix.NewDense(n, bc)
	if err != nil {
		return nil, err
	}
	for j := 0; j < bc; j++ {
		col, err := b.Col(j)
		if err != nil {
			return nil, err
		}
		xj, err := Solve(a, col, opts)
		if err != nil {
			return nil, err
		}
		if err = x.SetCol(j, xj); err != nil {
			return nil, err
		}
	}

	return x, nil
}

// Rank returns the numerical rank of a from the R diagonal of its
// reduced QR factorization. rcond <= 0 selects the default.
func Rank(a *matrix.Dense, rcond float64) (int, error) {
	if a == nil {
		return 0, ErrEmptyMatrix
	}
	m, n := a.Shape()
	if rcond <= 0 {
		rcond = machEps * float64(max(m, n))
	}
	_, r, err := Factor(a, Reduced)
	if err != nil {
		return 0, err
	}

	return rankFromDiag(r, rcond), nil
}

// rankFromDiag counts diagonal entries of R above rcond·max|diag|.
func rankFromDiag(r *matrix.Dense, rcond float64) int {
	k, n := r.Shape()
	if n < k {
		k = n
	}
	rd := r.Data()
	_, cols := r.Shape()
	maxDiag := 0.0
	var i int
	var d float64
	for i = 0; i < k; i++ {
		if d = math.Abs(rd[i*cols+i]); d > maxDiag {
			maxDiag = d
		}
	}
	if maxDiag == 0 {
		return 0
	}
	thresh := rcond * maxDiag
	rank := 0
	for i = 0; i < k; i++ {
		if math.Abs(rd[i*cols+i]) > thresh {
			rank++
		}
	}

	return rank
}

// backSubstitute solves the leading rank×rank upper-triangular block of
// R against the leading entries of y, writing into x (pre-zeroed by the
// caller); trailing unknowns stay zero.
func backSubstitute(r *matrix.Dense, y, x []float64, rank int) {
	rd := r.Data()
	_, cols := r.Shape()
	var i, j int
	var s float64
	for i = rank - 1; i >= 0; i-- {
		s = y[i]
		for j = i + 1; j < rank; j++ {
			s -= rd[i*cols+j] * x[j]
		}
		x[i] = s / rd[i*cols+i]
	}
}
