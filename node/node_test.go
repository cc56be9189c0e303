package node

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyName(t *testing.T) {
	n, err := New("")
	assert.Nil(t, n)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestResetFlowsClearsAccumulators(t *testing.T) {
	n, err := New("bus1")
	require.NoError(t, err)

	require.NoError(t, n.CollectInflux(2.0))
	require.NoError(t, n.CollectOutflux(1.0))
	n.IntegrateFlows(0.1)
	assert.Equal(t, 1.0, n.NetFlux())
	assert.Equal(t, 1.0, n.ThroughFlux())

	n.ResetFlows()
	assert.Equal(t, 0.0, n.Influx())
	assert.Equal(t, 0.0, n.Outflux())
	assert.Equal(t, 0.0, n.NetFlux())
	assert.Equal(t, 0.0, n.ThroughFlux())
}

func TestCollectRejectsNegativeRate(t *testing.T) {
	n, err := New("bus1")
	require.NoError(t, err)
	assert.ErrorIs(t, n.CollectInflux(-1), ErrNegativeRate)
	assert.ErrorIs(t, n.CollectOutflux(-1), ErrNegativeRate)
}

func TestGroundIgnoresPotentialWrites(t *testing.T) {
	g := NewGround("ground", 3, 0.0)
	assert.True(t, g.IsGround())
	require.NoError(t, g.SetPotential(42))
	assert.Equal(t, 0.0, g.Potential())
}

func TestSetPotentialRejectsNonFinite(t *testing.T) {
	n, err := New("bus1")
	require.NoError(t, err)
	assert.ErrorIs(t, n.SetPotential(math.NaN()), ErrNonFinitePotential)
}
