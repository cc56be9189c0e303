package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactorizeAndSolveIdentity(t *testing.T) {
	a, err := newDense(2)
	require.NoError(t, err)
	a.set(0, 0, 2)
	a.set(1, 1, 3)

	fact := factorize(a, 1e-6)
	assert.False(t, fact.singular)

	x := fact.solve([]float64{4, 9})
	assert.InDelta(t, 2.0, x[0], 1e-9)
	assert.InDelta(t, 3.0, x[1], 1e-9)
}

func TestFactorizeDetectsSingular(t *testing.T) {
	a, err := newDense(2)
	require.NoError(t, err)
	a.set(0, 0, 1e-9)
	a.set(1, 1, 1)

	fact := factorize(a, 1e-3)
	assert.True(t, fact.singular)
}

func TestFactorizeSymmetricTwoByTwo(t *testing.T) {
	// Round-trip linear solve (spec property 7): A*p = w within
	// 10*MinLinearDiagonal for a purely linear network.
	a, err := newDense(2)
	require.NoError(t, err)
	a.set(0, 0, 2)
	a.set(0, 1, -1)
	a.set(1, 0, -1)
	a.set(1, 1, 2)

	w := []float64{1, 0}
	fact := factorize(a, 1e-6)
	x := fact.solve(w)

	residual0 := a.at(0, 0)*x[0] + a.at(0, 1)*x[1] - w[0]
	residual1 := a.at(1, 0)*x[0] + a.at(1, 1)*x[1] - w[1]
	assert.Less(t, math.Abs(residual0), 1e-6*10)
	assert.Less(t, math.Abs(residual1), 1e-6*10)
}
