package links

import (
	"math"
	"testing"

	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNode(t *testing.T, name string) *node.Node {
	t.Helper()
	n, err := node.New(name)
	require.NoError(t, err)
	return n
}

func TestConductorSymmetricAndFlux(t *testing.T) {
	a := mustNode(t, "a")
	g := node.NewGround("ground", 1, 0)

	c, err := NewConductor("r1", 0, 1, a, g, 2.0)
	require.NoError(t, err)
	require.NoError(t, c.Step(0.01))
	assert.True(t, c.Stamp().IsSymmetric(1e-9))

	c.SetPotentials([]float64{3, 0})
	require.NoError(t, c.ComputeFlows(0.01))
	assert.InDelta(t, 6.0, c.Flux(), 1e-9)
	assert.InDelta(t, 6.0, a.Outflux(), 1e-9)
}

func TestConductorRejectsNegativeConductance(t *testing.T) {
	a := mustNode(t, "a")
	g := node.NewGround("ground", 1, 0)
	_, err := NewConductor("r1", 0, 1, a, g, -1)
	assert.ErrorIs(t, err, ErrNegativeConductance)
}

func TestCapacitorIntegratesStoredQuantity(t *testing.T) {
	a := mustNode(t, "a")
	g := node.NewGround("ground", 1, 0)

	cap, err := NewCapacitor("c1", 0, 1, a, g, 1.0)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, cap.Step(0.1))
		cap.SetPotentials([]float64{1.0, 0})
		require.NoError(t, cap.ComputeFlows(0.1))
	}
	// Stored quantity should be climbing toward 1.0 as p holds at 1V.
	assert.Greater(t, cap.StoredQuantity(), 0.0)
	assert.LessOrEqual(t, cap.StoredQuantity(), 1.0+1e-6)
}

func TestPotentialSourceDrivesSetpoint(t *testing.T) {
	a := mustNode(t, "a")
	g := node.NewGround("ground", 1, 0)

	src, err := NewPotentialSource("v1", 0, 1, a, g, 1000, 1.0)
	require.NoError(t, err)
	require.NoError(t, src.Step(0.01))

	stamp := src.Stamp()
	assert.InDelta(t, 1000, stamp.At(0, 0), 1e-9)
	assert.InDelta(t, 1000, stamp.W[0], 1e-9)
}

func TestSwitchRejectsInvalidPriority(t *testing.T) {
	a := mustNode(t, "a")
	g := node.NewGround("ground", 1, 0)
	_, err := NewSwitch("sw1", 0, 1, a, g, 1.0, 0, 10.0)
	assert.Error(t, err)
}

func TestSwitchTripsOnOvercurrentAndOpens(t *testing.T) {
	a := mustNode(t, "a")
	g := node.NewGround("ground", 1, 0)

	sw, err := NewSwitch("breaker", 0, 1, a, g, 1.0, 1, 5.0)
	require.NoError(t, err)
	require.NoError(t, sw.Step(0.01))
	sw.SetPotentials([]float64{10, 0}) // current = G*V = 10 > 5A limit

	// Convergence is required before a trip can fire.
	result := sw.ConfirmSolutionAcceptable(1, 0)
	assert.Equal(t, result.String(), "confirm")
	assert.True(t, sw.Manager.TripOccurred())

	verdict := sw.VerifyTimeToTrip(1)
	assert.Equal(t, verdict.String(), "reject")
	assert.False(t, sw.Closed())
}

func TestSwitchFromConfigStartsAsConfigured(t *testing.T) {
	a := mustNode(t, "a")
	g := node.NewGround("ground", 1, 0)

	cfg := SwitchConfig{
		Config:           link.Config{Name: "breaker", Ports: []int{0, 1}},
		Conductance:      1.0,
		Priority:         1,
		OvercurrentLimit: 5.0,
	}
	in := SwitchInput{Closed: false}
	sw, err := NewSwitchFromConfig(cfg, in, a, g)
	require.NoError(t, err)
	assert.False(t, sw.Closed())
}

func TestConverterOutputFromConfigAppliesTripLimits(t *testing.T) {
	out := mustNode(t, "out")
	ret := node.NewGround("return", 1, 0)

	cfg := ConverterOutputConfig{
		Config:          link.Config{Name: "conv", Ports: []int{0, 1}},
		RegulatorType:   RegulatorVoltage,
		LoadConductance: 0.2,
		StateFlipsLimit: 10,
		OC:              TripLimit{Threshold: 10, Priority: 1},
	}
	in := ConverterOutputInput{Setpoint: 100}
	c, err := NewConverterOutputFromConfig(cfg, in, out, ret)
	require.NoError(t, err)
	require.NoError(t, c.Step(0.01))

	// Unlimited, the regulator holds V=100 and the 0.2S load draws 20A > 10A.
	c.SetPotentials([]float64{100, 0})
	result := c.ConfirmSolutionAcceptable(1, 0)
	assert.Equal(t, "reject", result.String())
	assert.Equal(t, LimitOC, c.GetLimitState())
}

func TestConverterOutputVoltageRegulatorOCLimit(t *testing.T) {
	out := mustNode(t, "out")
	ret := node.NewGround("return", 1, 0)

	c, err := NewConverterOutput("conv", 0, 1, out, ret, RegulatorVoltage, 100, 0.2, 10)
	require.NoError(t, err)
	require.NoError(t, c.SetTripLimits(TripLimit{}, TripLimit{}, TripLimit{Threshold: 10, Priority: 1}))
	require.NoError(t, c.Step(0.01))

	// Unlimited, the regulator holds V=100, so the G=0.2S load draws 20A,
	// above the 10A OC limit; the limited operating point is V=50 at I=10A.
	c.SetPotentials([]float64{100, 0})
	result := c.ConfirmSolutionAcceptable(1, 0)
	assert.Equal(t, "reject", result.String())
	assert.Equal(t, LimitOC, c.GetLimitState())
}

func TestConverterOutputReverseBiasFlipBound(t *testing.T) {
	out := mustNode(t, "out")
	ret := node.NewGround("return", 1, 0)

	c, err := NewConverterOutput("conv", 0, 1, out, ret, RegulatorVoltage, 10, 0.1, 2)
	require.NoError(t, err)
	require.NoError(t, c.Step(0.01))

	for i := 0; i < 10; i++ {
		c.SetPotentials([]float64{20, 0}) // p_out > setpoint => reverse bias
		c.ConfirmSolutionAcceptable(1, i)
	}
	assert.LessOrEqual(t, c.ReverseBiasFlips(), 2)
}

func TestConverterInputLeadsInterface(t *testing.T) {
	in, err := NewConverterInput("in1", true)
	require.NoError(t, err)
	assert.True(t, in.LeadsInterface())
	assert.InDelta(t, 12.0, in.ComputeInputVoltage(12.0), 1e-9)

	in.SetInputPower(5.0)
	assert.InDelta(t, 5.0, in.InputPower(), 1e-9)
}

func TestSelectorRoutesOnlySelectedPosition(t *testing.T) {
	p0 := mustNode(t, "p0")
	p1 := mustNode(t, "p1")
	common := mustNode(t, "common")

	sel, err := NewSelector("sel", []int{0, 1}, []node.Interface{p0, p1}, 2, common, 2.0)
	require.NoError(t, err)
	require.NoError(t, sel.SetPosition(1))
	require.NoError(t, sel.Step(0.01))

	stamp := sel.Stamp()
	assert.InDelta(t, 2.0, stamp.At(1, 1), 1e-9)
	assert.InDelta(t, 0.0, stamp.At(0, 0), 1e-9)

	sel.SetPotentials([]float64{5, 5, 0})
	require.NoError(t, sel.ComputeFlows(0.01))
	assert.InDelta(t, 0.0, sel.Flux(0), 1e-9)
	assert.InDelta(t, 10.0, sel.Flux(1), 1e-9)
}

func TestSelectorRejectsOutOfRangePosition(t *testing.T) {
	p0 := mustNode(t, "p0")
	common := mustNode(t, "common")
	sel, err := NewSelector("sel", []int{0}, []node.Interface{p0}, 1, common, 1.0)
	require.NoError(t, err)
	assert.ErrorIs(t, sel.SetPosition(5), ErrPositionOutOfRange)
}

func mathIsNaN(v float64) bool { return math.IsNaN(v) }

var _ link.Link = (*ConverterOutput)(nil)
var _ link.Link = (*Selector)(nil)
