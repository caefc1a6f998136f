package gate_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/numlath/gate"
	"github.com/katalvlaran/numlath/matrix"
)

func TestConditionNumberIdentity(t *testing.T) {
	a, err := matrix.Identity(5)
	require.NoError(t, err)

	for _, method := range []gate.Method{gate.MethodSVD, gate.MethodQR} {
		cond, errC := gate.ConditionNumber(a, method)
		require.NoError(t, errC, method.String())
		assert.InDelta(t, 1.0, cond, 1e-10, method.String())
	}
}

func TestConditionNumberDiagonal(t *testing.T) {
	a, err := matrix.Diagonal([]float64{100, 10, 1})
	require.NoError(t, err)

	condSVD, err := gate.ConditionNumber(a, gate.MethodSVD)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, condSVD, 1e-8)

	condQR, err := gate.ConditionNumber(a, gate.MethodQR)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, condQR, 1e-8)
}

func TestConditionNumberExtreme(t *testing.T) {
	a, err := matrix.Diagonal([]float64{1, 1e-8, 1e-12, 1e-16})
	require.NoError(t, err)

	cond, err := gate.ConditionNumber(a, gate.MethodSVD)
	require.NoError(t, err)
	assert.InEpsilon(t, 1e16, cond, 0.1)
}

func TestConditionNumberZeroMatrix(t *testing.T) {
	a, err := matrix.NewDense(3, 3)
	require.NoError(t, err)

	for _, method := range []gate.Method{gate.MethodSVD, gate.MethodQR} {
		cond, errC := gate.ConditionNumber(a, method)
		require.NoError(t, errC, method.String())
		assert.True(t, math.IsInf(cond, 1), method.String())
	}
}

func TestConditionNumberInvalidMethod(t *testing.T) {
	a, err := matrix.Identity(2)
	require.NoError(t, err)

	_, err = gate.ConditionNumber(a, gate.Method(99))
	assert.ErrorIs(t, err, gate.ErrInvalidMethod)
}

func TestMethodAndSolverStrings(t *testing.T) {
	assert.Equal(t, "svd", gate.MethodSVD.String())
	assert.Equal(t, "qr", gate.MethodQR.String())
	assert.Equal(t, "qr", gate.SolverQR.String())
	assert.Equal(t, "svd_trunc", gate.SolverSVDTrunc.String())
	assert.Equal(t, "nnls", gate.SolverNNLS.String())
}

func TestChooseSolver(t *testing.T) {
	t.Run("nonneg forces nnls", func(t *testing.T) {
		a, err := matrix.Identity(3)
		require.NoError(t, err)

		s, err := gate.ChooseSolver(a, gate.Opts{NonNeg: true})
		require.NoError(t, err)
		assert.Equal(t, gate.SolverNNLS, s)
	})

	t.Run("ill-conditioned routes to svd_trunc", func(t *testing.T) {
		a, err := matrix.Diagonal([]float64{1, 1e-8, 1e-12, 1e-16})
		require.NoError(t, err)

		s, err := gate.ChooseSolver(a, gate.Opts{Prefer: gate.SolverQR})
		require.NoError(t, err)
		assert.Equal(t, gate.SolverSVDTrunc, s)
	})

	t.Run("well-conditioned honors qr preference", func(t *testing.T) {
		a, err := matrix.Identity(10)
		require.NoError(t, err)

		s, err := gate.ChooseSolver(a, gate.Opts{Prefer: gate.SolverQR})
		require.NoError(t, err)
		assert.Equal(t, gate.SolverQR, s)
	})

	t.Run("well-conditioned honors svd preference", func(t *testing.T) {
		a, err := matrix.Identity(4)
		require.NoError(t, err)

		s, err := gate.ChooseSolver(a, gate.Opts{Prefer: gate.SolverSVDTrunc})
		require.NoError(t, err)
		assert.Equal(t, gate.SolverSVDTrunc, s)
	})
}
