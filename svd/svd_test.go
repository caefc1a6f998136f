// Package svd_test verifies the truncated factorization (reconstruction
// monotonicity, rank revelation) and the pseudo-inverse solve.
package svd_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/numlath/matrix"
	"github.com/katalvlaran/numlath/svd"
)

func randDense(t *testing.T, rng *rand.Rand, m, n int) *matrix.Dense {
	t.Helper()
	a, err := matrix.NewDense(m, n)
	require.NoError(t, err)
	d := a.Data()
	for i := range d {
		d[i] = rng.NormFloat64()
	}

	return a
}

// reconstructError returns ‖A - U·diag(S)·Vt‖_F for a truncated result.
func reconstructError(t *testing.T, a *matrix.Dense, res svd.Result) float64 {
	t.Helper()
	us := res.U.Clone()
	usd := us.Data()
	rows, k := us.Shape()
	for i := 0; i < rows; i++ {
		for j := 0; j < k; j++ {
			usd[i*k+j] *= res.S[j]
		}
	}
	rec, err := matrix.Mul(us, res.Vt)
	require.NoError(t, err)
	ad, rd := a.Data(), rec.Data()
	var acc float64
	for i := range ad {
		d := ad[i] - rd[i]
		acc += d * d
	}

	return math.Sqrt(acc)
}

func TestFactorNilInput(t *testing.T) {
	_, err := svd.Factor(nil, svd.Options{})
	assert.ErrorIs(t, err, svd.ErrEmptyMatrix)
}

func TestFactorDiagonalExact(t *testing.T) {
	a, err := matrix.Diagonal([]float64{3, 2, 1})
	require.NoError(t, err)

	res, err := svd.Factor(a, svd.Options{})
	require.NoError(t, err)
	require.Equal(t, 3, res.Rank)
	assert.InDelta(t, 3.0, res.S[0], 1e-14)
	assert.InDelta(t, 2.0, res.S[1], 1e-14)
	assert.InDelta(t, 1.0, res.S[2], 1e-14)
	assert.InDelta(t, 3.0, res.Condition(), 1e-12)
}

func TestFactorFullReconstruction(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, tc := range []struct {
		name string
		m, n int
	}{
		{"tall", 15, 6},
		{"square", 9, 9},
		{"wide", 5, 12},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := randDense(t, rng, tc.m, tc.n)
			res, err := svd.Factor(a, svd.Options{})
			require.NoError(t, err)

			tol := 1e-12 * matrix.FrobeniusNorm(a)
			assert.Less(t, reconstructError(t, a, res), tol)

			// Shapes: U m×k, Vt k×n.
			ur, uc := res.U.Shape()
			vr, vc := res.Vt.Shape()
			assert.Equal(t, tc.m, ur)
			assert.Equal(t, res.Rank, uc)
			assert.Equal(t, res.Rank, vr)
			assert.Equal(t, tc.n, vc)

			// Spectrum descending.
			for i := 1; i < len(res.S); i++ {
				assert.LessOrEqual(t, res.S[i], res.S[i-1])
			}
		})
	}
}

// TestTruncationMonotone: reconstruction error is non-increasing as the
// requested rank grows.
func TestTruncationMonotone(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	a := randDense(t, rng, 12, 8)

	prev := math.Inf(1)
	for rank := 1; rank <= 8; rank++ {
		res, err := svd.Factor(a, svd.Options{Rank: rank})
		require.NoError(t, err)
		e := reconstructError(t, a, res)
		assert.LessOrEqual(t, e, prev+1e-12, "rank %d", rank)
		prev = e
	}
}

// TestRankRevealing: a true-rank-2 matrix must expose rank_eff ≤ 2.
func TestRankRevealing(t *testing.T) {
	// Outer-product construction: rank exactly 2.
	u1 := []float64{1, 2, 3, 4, 5}
	u2 := []float64{1, -1, 1, -1, 1}
	v1 := []float64{2, 0, 1}
	v2 := []float64{0, 1, 1}
	a, err := matrix.NewDense(5, 3)
	require.NoError(t, err)
	ad := a.Data()
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			ad[i*3+j] = u1[i]*v1[j] + u2[i]*v2[j]
		}
	}

	res, err := svd.Factor(a, svd.Options{})
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Rank, 2)

	rank, err := svd.NumericalRank(a, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)
}

func TestSolveRecoversSolution(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	a := randDense(t, rng, 20, 6)
	xTrue := []float64{1, 2, -1, 0.5, -2, 3}
	b, err := matrix.MatVec(a, xTrue)
	require.NoError(t, err)

	x, info, err := svd.Solve(a, b, svd.Options{})
	require.NoError(t, err)
	require.Equal(t, 6, info.RankUsed)
	assert.Less(t, info.ResidualNorm, 1e-10)
	for i := range xTrue {
		assert.InDelta(t, xTrue[i], x[i], 1e-10)
	}
}

// TestSolveZeroRank: the zero matrix has rank 0; the solve degenerates
// to the zero vector with residual ‖b‖.
func TestSolveZeroRank(t *testing.T) {
	a, err := matrix.NewDense(4, 3)
	require.NoError(t, err)
	b := []float64{3, 0, 4, 0}

	x, info, err := svd.Solve(a, b, svd.Options{})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, x)
	assert.Equal(t, 0, info.RankUsed)
	assert.InDelta(t, 5.0, info.ResidualNorm, 1e-14)
}

func TestSolveIllConditionedTruncates(t *testing.T) {
	a, err := matrix.Diagonal([]float64{1, 1e-8, 1e-12, 1e-16})
	require.NoError(t, err)
	b := []float64{1, 1, 1, 1}

	x, info, err := svd.Solve(a, b, svd.Options{Rcond: 1e-10})
	require.NoError(t, err)
	assert.Less(t, info.RankUsed, 4, "tiny singular values must be truncated")
	// Truncation keeps the solution bounded.
	assert.Less(t, matrix.Norm(x), 1e9)
}

func TestConditionNumber(t *testing.T) {
	a, err := matrix.Diagonal([]float64{1, 1e-8, 1e-12, 1e-16})
	require.NoError(t, err)
	cond, err := svd.ConditionNumber(a)
	require.NoError(t, err)
	assert.InEpsilon(t, 1e16, cond, 1e-6)

	zero, err := matrix.NewDense(2, 2)
	require.NoError(t, err)
	cond, err = svd.ConditionNumber(zero)
	require.NoError(t, err)
	assert.True(t, math.IsInf(cond, 1))
}

func TestEffectiveConditionElbow(t *testing.T) {
	// Strong drop after the second value: elbow clips the moderate tail.
	a, err := matrix.Diagonal([]float64{10, 8, 1e-3, 8e-4})
	require.NoError(t, err)
	eff, err := svd.EffectiveCondition(a)
	require.NoError(t, err)
	exact, err := svd.ConditionNumber(a)
	require.NoError(t, err)
	assert.LessOrEqual(t, eff, exact)

	// Extreme conditions pass through untouched.
	ext, err := matrix.Diagonal([]float64{1, 1e-7, 1e-11, 1e-15})
	require.NoError(t, err)
	eff, err = svd.EffectiveCondition(ext)
	require.NoError(t, err)
	assert.InEpsilon(t, 1e15, eff, 1e-6)
}

func TestSolveMatrixPerColumn(t *testing.T) {
	a, err := matrix.Diagonal([]float64{2, 4})
	require.NoError(t, err)
	b, err := matrix.FromRows([][]float64{{2, 4}, {4, 8}})
	require.NoError(t, err)

	x, info, err := svd.SolveMatrix(a, b, svd.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, info.RankUsed)

	want := [][]float64{{1, 2}, {1, 2}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v, aerr := x.At(i, j)
			require.NoError(t, aerr)
			assert.InDelta(t, want[i][j], v, 1e-12)
		}
	}
}
