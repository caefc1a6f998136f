package cg_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/numlath/cg"
	"github.com/katalvlaran/numlath/matrix"
	"github.com/katalvlaran/numlath/precond"
)

// tridiagonalSPD builds the n×n matrix with diag on the diagonal and
// off on both adjacent bands.
func tridiagonalSPD(t *testing.T, n int, diag, off float64) *matrix.Dense {
	t.Helper()
	a, err := matrix.NewDense(n, n)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, a.Set(i, i, diag))
		if i+1 < n {
			require.NoError(t, a.Set(i, i+1, off))
			require.NoError(t, a.Set(i+1, i, off))
		}
	}

	return a
}

func TestSolveSmallSPD(t *testing.T) {
	a, err := matrix.FromRows([][]float64{
		{4, 1},
		{1, 3},
	})
	require.NoError(t, err)

	res, err := cg.Solve(a, []float64{1, 2}, cg.Options{})
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.False(t, res.BreakdownDetected)

	// Exact solution of the 2x2 system: x = (1/11)·(1, 7).
	assert.InDelta(t, 1.0/11.0, res.X[0], 1e-10)
	assert.InDelta(t, 7.0/11.0, res.X[1], 1e-10)
}

func TestSolveZeroRHS(t *testing.T) {
	a, err := matrix.Identity(4)
	require.NoError(t, err)

	res, err := cg.Solve(a, make([]float64, 4), cg.Options{X0: []float64{1, 2, 3, 4}})
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 0, res.Iterations)
	for _, v := range res.X {
		assert.Zero(t, v)
	}
}

func TestSolveLargeTridiagonal(t *testing.T) {
	// n = 200 discrete Laplacian, known solution recovered to 1e-8.
	n := 200
	a := tridiagonalSPD(t, n, 2, -1)

	rng := rand.New(rand.NewSource(7))
	want := make([]float64, n)
	for i := range want {
		want[i] = rng.NormFloat64()
	}
	b, err := a.Apply(want)
	require.NoError(t, err)

	res, err := cg.Solve(a, b, cg.Options{Tol: 1e-12, MaxIter: 2 * n})
	require.NoError(t, err)
	require.True(t, res.Converged)

	var num, den float64
	for i := range want {
		num += (res.X[i] - want[i]) * (res.X[i] - want[i])
		den += want[i] * want[i]
	}
	assert.Less(t, math.Sqrt(num/den), 1e-8)
}

func TestPreconditionerDoesNotSlowConvergence(t *testing.T) {
	// Badly scaled diagonal plus coupling: Jacobi should cut the
	// iteration count, and must never increase it.
	n := 60
	a, err := matrix.NewDense(n, n)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, a.Set(i, i, float64(i+1)*float64(i+1)))
		if i+1 < n {
			require.NoError(t, a.Set(i, i+1, 0.5))
			require.NoError(t, a.Set(i+1, i, 0.5))
		}
	}
	b := make([]float64, n)
	for i := range b {
		b[i] = 1
	}

	plain, err := cg.Solve(a, b, cg.Options{Tol: 1e-10, MaxIter: 10 * n})
	require.NoError(t, err)
	require.True(t, plain.Converged)

	m, err := precond.NewJacobi(a)
	require.NoError(t, err)
	pre, err := cg.Solve(a, b, cg.Options{Tol: 1e-10, MaxIter: 10 * n, M: m})
	require.NoError(t, err)
	require.True(t, pre.Converged)

	assert.LessOrEqual(t, pre.Iterations, plain.Iterations)
}

func TestSolveWithIC0Preconditioner(t *testing.T) {
	n := 50
	a := tridiagonalSPD(t, n, 2, -1)

	m, err := precond.NewIC0(a, nil)
	require.NoError(t, err)
	require.Equal(t, precond.KindIC0, m.Kind())

	b := make([]float64, n)
	b[0], b[n-1] = 1, 1

	res, err := cg.Solve(a, b, cg.Options{M: m})
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Less(t, res.RelativeResidual, 1e-8)
}

func TestSolveBreakdownOnIndefinite(t *testing.T) {
	a, err := matrix.FromRows([][]float64{
		{1, 0},
		{0, -1},
	})
	require.NoError(t, err)

	res, err := cg.Solve(a, []float64{0, 1}, cg.Options{})
	require.NoError(t, err)
	assert.True(t, res.BreakdownDetected)
	assert.False(t, res.Converged)
}

func TestSolveValidation(t *testing.T) {
	rect, err := matrix.NewDense(3, 2)
	require.NoError(t, err)
	_, err = cg.Solve(rect, []float64{1, 2, 3}, cg.Options{})
	assert.ErrorIs(t, err, cg.ErrNonSquareOperator)

	sq, err := matrix.Identity(3)
	require.NoError(t, err)
	_, err = cg.Solve(sq, []float64{1, 2}, cg.Options{})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = cg.Solve(sq, []float64{1, 2, 3}, cg.Options{X0: []float64{1}})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestSolveResidualHistoryDecreasesOverall(t *testing.T) {
	n := 30
	a := tridiagonalSPD(t, n, 4, 1)
	b := make([]float64, n)
	for i := range b {
		b[i] = float64(i%3) - 1
	}

	res, err := cg.Solve(a, b, cg.Options{Tol: 1e-10})
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.NotEmpty(t, res.ResidualHistory)

	first := res.ResidualHistory[0]
	last := res.ResidualHistory[len(res.ResidualHistory)-1]
	assert.Less(t, last, first)
}

func TestSolveMatrixColumns(t *testing.T) {
	a, err := matrix.FromRows([][]float64{
		{3, 1},
		{1, 2},
	})
	require.NoError(t, err)
	bMat, err := matrix.FromRows([][]float64{
		{3, 1},
		{1, 2},
	})
	require.NoError(t, err)

	x, results, err := cg.SolveMatrix(a, bMat, cg.Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Converged)
	}

	// B's columns are A's own columns, so X ≈ I.
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			got, errAt := x.At(i, j)
			require.NoError(t, errAt)
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, got, 1e-8)
		}
	}
}

func TestSolveNormalLeastSquares(t *testing.T) {
	// Overdetermined consistent system: exact recovery through the
	// normal equations.
	a, err := matrix.FromRows([][]float64{
		{1, 0},
		{0, 1},
		{1, 1},
	})
	require.NoError(t, err)
	want := []float64{2, -1}
	b, err := a.Apply(want)
	require.NoError(t, err)

	res, err := cg.SolveNormal(a, b, cg.Options{Tol: 1e-12})
	require.NoError(t, err)
	require.True(t, res.Converged)
	assert.InDelta(t, want[0], res.X[0], 1e-8)
	assert.InDelta(t, want[1], res.X[1], 1e-8)
}

func TestSolveCSROperator(t *testing.T) {
	dense := tridiagonalSPD(t, 40, 2, -1)
	sparse, err := matrix.NewCSRFromDense(dense, 0)
	require.NoError(t, err)

	b := make([]float64, 40)
	b[20] = 1

	res, err := cg.Solve(sparse, b, cg.Options{Tol: 1e-10, MaxIter: 200})
	require.NoError(t, err)
	assert.True(t, res.Converged)

	check, err := dense.Apply(res.X)
	require.NoError(t, err)
	for i := range b {
		assert.InDelta(t, b[i], check[i], 1e-7)
	}
}
