package precond_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/numlath/matrix"
	"github.com/katalvlaran/numlath/precond"
)

func TestJacobiApply(t *testing.T) {
	a, err := matrix.FromRows([][]float64{
		{4, 1, 0},
		{1, 3, 1},
		{0, 1, 2},
	})
	require.NoError(t, err)

	m, err := precond.NewJacobi(a)
	require.NoError(t, err)
	assert.Equal(t, precond.KindJacobi, m.Kind())

	z, err := m.Apply([]float64{4, 6, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, z[0], 1e-15)
	assert.InDelta(t, 2.0, z[1], 1e-15)
	assert.InDelta(t, 1.0, z[2], 1e-15)
}

func TestJacobiZeroDiagonalClamp(t *testing.T) {
	a, err := matrix.FromRows([][]float64{
		{0, 1},
		{1, 2},
	})
	require.NoError(t, err)

	m, err := precond.NewJacobi(a)
	require.NoError(t, err)

	// Clamped entry behaves like identity scaling.
	z, err := m.Apply([]float64{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, z[0], 1e-15)
	assert.InDelta(t, 2.0, z[1], 1e-15)
}

func TestJacobiRejectsNonSquare(t *testing.T) {
	a, err := matrix.NewDense(2, 3)
	require.NoError(t, err)

	_, err = precond.NewJacobi(a)
	assert.ErrorIs(t, err, matrix.ErrNonSquare)
}

func TestSSOROmegaValidation(t *testing.T) {
	a, err := matrix.Identity(3)
	require.NoError(t, err)

	for _, omega := range []float64{0, -0.5, 2, 2.5} {
		_, err = precond.NewSSOR(a, omega)
		assert.ErrorIs(t, err, precond.ErrInvalidOmega, "omega=%v", omega)
	}
}

func TestSSORDiagonalMatrixIsExact(t *testing.T) {
	// For a diagonal A and omega=1, M = D, so Apply inverts A exactly.
	a, err := matrix.Diagonal([]float64{2, 4, 8})
	require.NoError(t, err)

	m, err := precond.NewSSOR(a, 1.0)
	require.NoError(t, err)
	assert.Equal(t, precond.KindSSOR, m.Kind())

	z, err := m.Apply([]float64{2, 4, 8})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0, z[i], 1e-14)
	}
}

func TestSSORApplyConsistentWithExplicitM(t *testing.T) {
	// M = (D+L)·D⁻¹·(D+U) for omega=1. Check M·(M⁻¹x) == x.
	a, err := matrix.FromRows([][]float64{
		{4, 1, 0},
		{1, 3, 1},
		{0, 1, 2},
	})
	require.NoError(t, err)

	m, err := precond.NewSSOR(a, 1.0)
	require.NoError(t, err)

	x := []float64{1, -2, 3}
	z, err := m.Apply(x)
	require.NoError(t, err)

	// Reconstruct M·z by hand: u = (D+U)z, v = D⁻¹u, w = (D+L)v.
	n := 3
	u := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v, _ := a.At(i, j)
			u[i] += v * z[j]
		}
	}
	for i := 0; i < n; i++ {
		d, _ := a.At(i, i)
		u[i] /= d
	}
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v, _ := a.At(i, j)
			w[i] += v * u[j]
		}
	}
	for i := 0; i < n; i++ {
		assert.InDelta(t, x[i], w[i], 1e-12)
	}
}

func TestIC0ExactOnSPD(t *testing.T) {
	// Dense SPD pattern: IC(0) coincides with full Cholesky, so the
	// preconditioner inverts A exactly.
	a, err := matrix.FromRows([][]float64{
		{4, 2, 1},
		{2, 5, 2},
		{1, 2, 6},
	})
	require.NoError(t, err)

	m, err := precond.NewIC0(a, nil)
	require.NoError(t, err)
	assert.Equal(t, precond.KindIC0, m.Kind())

	// Pick x, compute b = A·x, verify Apply(b) ≈ x.
	x := []float64{1, -1, 2}
	b, err := a.Apply(x)
	require.NoError(t, err)

	z, err := m.Apply(b)
	require.NoError(t, err)
	for i := range x {
		assert.InDelta(t, x[i], z[i], 1e-12)
	}
}

func TestIC0FallbackOnAsymmetry(t *testing.T) {
	a, err := matrix.FromRows([][]float64{
		{4, 1},
		{2, 3},
	})
	require.NoError(t, err)

	m, err := precond.NewIC0(a, nil)
	require.NoError(t, err)
	assert.Equal(t, precond.KindJacobi, m.Kind())
}

func TestIC0FallbackOnNonPositivePivot(t *testing.T) {
	// Symmetric but indefinite: leading pivot is negative.
	a, err := matrix.FromRows([][]float64{
		{-1, 0},
		{0, 2},
	})
	require.NoError(t, err)

	m, err := precond.NewIC0(a, nil)
	require.NoError(t, err)
	assert.Equal(t, precond.KindJacobi, m.Kind())
}

func TestChooseRouting(t *testing.T) {
	t.Run("diagonal dominant picks Jacobi", func(t *testing.T) {
		a, err := matrix.FromRows([][]float64{
			{10, 1, 1},
			{1, 10, 1},
			{1, 1, 10},
		})
		require.NoError(t, err)

		m, err := precond.Choose(a, nil)
		require.NoError(t, err)
		assert.Equal(t, precond.KindJacobi, m.Kind())
	})

	t.Run("symmetric sparse picks IC0", func(t *testing.T) {
		// Sparse SPD with one non-dominant row (|3| < 2+1.5 on row 0).
		n := 8
		a, err := matrix.NewDense(n, n)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			require.NoError(t, a.Set(i, i, 3))
		}
		require.NoError(t, a.Set(0, 1, -2))
		require.NoError(t, a.Set(1, 0, -2))
		require.NoError(t, a.Set(0, 2, -1.5))
		require.NoError(t, a.Set(2, 0, -1.5))

		m, err := precond.Choose(a, nil)
		require.NoError(t, err)
		assert.Equal(t, precond.KindIC0, m.Kind())
	})

	t.Run("general dense picks SSOR", func(t *testing.T) {
		a, err := matrix.FromRows([][]float64{
			{2, 3, 1},
			{1, 2, 3},
			{3, 1, 2},
		})
		require.NoError(t, err)

		m, err := precond.Choose(a, nil)
		require.NoError(t, err)
		assert.Equal(t, precond.KindSSOR, m.Kind())
	})
}
