// Package kahan_test validates the compensated summation primitives on
// adversarial magnitude-disparate inputs.
package kahan_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/numlath/kahan"
	"github.com/katalvlaran/numlath/matrix"
)

// naiveSum is the uncompensated reference the adversarial tests compare
// against.
func naiveSum(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}

	return s
}

func TestSumEmptyAndTrivial(t *testing.T) {
	assert.Zero(t, kahan.Sum(nil))
	assert.Zero(t, kahan.Sum([]float64{}))
	assert.Equal(t, 42.0, kahan.Sum([]float64{42}))
	assert.Equal(t, 6.0, kahan.Sum([]float64{1, 2, 3}))
}

// TestSumAdversarialMagnitudes: 1.0 followed by a million tiny addends.
// Naive summation loses most of them; Kahan must not do worse and is
// expected to be strictly closer to the exact value here.
func TestSumAdversarialMagnitudes(t *testing.T) {
	const (
		large = 1.0
		small = 1e-16
		count = 1_000_000
	)
	x := make([]float64, count+1)
	x[0] = large
	for i := 1; i <= count; i++ {
		x[i] = small
	}
	expected := large + float64(count)*small

	errNaive := math.Abs(naiveSum(x) - expected)
	errKahan := math.Abs(kahan.Sum(x) - expected)

	assert.LessOrEqual(t, errKahan, errNaive,
		"compensated sum must not lose more than naive summation")
	assert.Less(t, errKahan, 1e-12*expected)
}

// TestSumCancellation: alternating ±1 with a tiny residue; catastrophic
// cancellation magnifies rounding error in the naive loop.
func TestSumCancellation(t *testing.T) {
	const n = 100_000
	x := make([]float64, n)
	for i := range x {
		if i%2 == 0 {
			x[i] = 1.0 + 1e-15
		} else {
			x[i] = -1.0
		}
	}
	expected := float64(n/2) * 1e-15

	errNaive := math.Abs(naiveSum(x) - expected)
	errKahan := math.Abs(kahan.Sum(x) - expected)

	assert.LessOrEqual(t, errKahan, errNaive)
}

func TestDot(t *testing.T) {
	d, err := kahan.Dot([]float64{1, 2, 3}, []float64{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 32.0, d)

	_, err = kahan.Dot([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, kahan.ErrLengthMismatch)

	d, err = kahan.Dot(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestNormSquared(t *testing.T) {
	assert.Equal(t, 25.0, kahan.NormSquared([]float64{3, 4}))
	assert.Zero(t, kahan.NormSquared(nil))
}

func TestNorm(t *testing.T) {
	assert.Equal(t, 5.0, kahan.Norm([]float64{3, 4}))
	assert.Zero(t, kahan.Norm(nil))

	// Many equal tiny squares: the compensated accumulation keeps the
	// norm exact where the naive loop drifts.
	x := make([]float64, 1_000_000)
	for i := range x {
		x[i] = 1e-8
	}
	assert.InDelta(t, 1e-5, kahan.Norm(x), 1e-18)
}

func TestAxisReductions(t *testing.T) {
	m, err := matrix.FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	require.NoError(t, err)

	rows, err := kahan.SumRows(m)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 15}, rows)

	cols, err := kahan.SumCols(m)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7, 9}, cols)

	_, err = kahan.SumRows(nil)
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)
}
