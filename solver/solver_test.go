package solver

import (
	"testing"

	"github.com/flowmesh/netsim"
	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticLink is a fixed-admittance two-port link for solver-level tests: it
// never changes its stamp after the first Step, so AdmittanceDirty is only
// true on the very first call.
type staticLink struct {
	name    string
	ports   []int
	stamp   link.Stamp
	stepped bool
}

func newStaticLink(name string, ports []int, a00, a01, a10, a11, w0, w1 float64) *staticLink {
	s := link.NewStamp(2)
	s.Set(0, 0, a00)
	s.Set(0, 1, a01)
	s.Set(1, 0, a10)
	s.Set(1, 1, a11)
	s.W[0] = w0
	s.W[1] = w1
	return &staticLink{name: name, ports: ports, stamp: s}
}

func (l *staticLink) Name() string                          { return l.name }
func (l *staticLink) Ports() []int                           { return l.ports }
func (l *staticLink) PortDirections() []netsim.PortDirection { return make([]netsim.PortDirection, 2) }
func (l *staticLink) Step(dt float64) error                  { l.stepped = true; return nil }
func (l *staticLink) Stamp() link.Stamp                      { return l.stamp }
func (l *staticLink) AdmittanceDirty() bool                  { return false }
func (l *staticLink) SetPotentials(p []float64)              {}
func (l *staticLink) ComputeFlows(dt float64) error          { return nil }
func (l *staticLink) RestartModel()                          {}

func TestSolverLinearSteadyState(t *testing.T) {
	n0, err := node.New("bus")
	require.NoError(t, err)
	ground := node.NewGround("ground", 1, 0.0)

	// Current source of 1A into node0 through a 1S conductance to ground:
	// A[0][0]=1, W[0]=1 => p0 = 1.
	l := newStaticLink("source+conductor", []int{0, 1}, 1, -1, -1, 1, 1, 0)

	s, err := New(DefaultConfig("test"), []node.Interface{n0, ground}, []link.Link{l})
	require.NoError(t, err)

	report, err := s.Step(0.01)
	require.NoError(t, err)
	assert.True(t, report.Converged)
	assert.InDelta(t, 1.0, n0.Potential(), 1e-6)
	assert.Equal(t, 0.0, ground.Potential())
}

func TestSolverHoldsGroundPotential(t *testing.T) {
	// Scenario / property 3: ground-immunity.
	n0, err := node.New("bus")
	require.NoError(t, err)
	ground := node.NewGround("ground", 1, 0.0)
	l := newStaticLink("conductor", []int{0, 1}, 1, -1, -1, 1, 0, 0)

	s, err := New(DefaultConfig("test"), []node.Interface{n0, ground}, []link.Link{l})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := s.Step(0.01)
		require.NoError(t, err)
	}
	assert.Equal(t, 0.0, ground.Potential())
}

func TestSolverRejectsEmptyName(t *testing.T) {
	n0, _ := node.New("bus")
	_, err := New(Config{}, []node.Interface{n0}, nil)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestSolverRejectsNoNodes(t *testing.T) {
	_, err := New(DefaultConfig("test"), nil, nil)
	assert.ErrorIs(t, err, ErrNoNodes)
}

// flippingLink is a NonLinear link that delays on an unconverged step and
// otherwise rejects until it has issued maxFlips rejections, then confirms,
// used to exercise the non-convergence
// bailout (spec scenario 6) when maxFlips exceeds MaxMinorSteps.
type flippingLink struct {
	staticLink
	flips    int
	maxFlips int
}

func (f *flippingLink) MinorStep(dt float64, minorIdx int) error { return nil }

func (f *flippingLink) ConfirmSolutionAcceptable(convergedStep, absoluteStep int) netsim.SolutionResult {
	if convergedStep == 0 {
		return netsim.Delay
	}
	if f.flips < f.maxFlips {
		f.flips++
		return netsim.Reject
	}
	return netsim.Confirm
}

func TestSolverNonConvergenceBailoutCompletesWithinCap(t *testing.T) {
	n0, err := node.New("bus")
	require.NoError(t, err)
	ground := node.NewGround("ground", 1, 0.0)
	base := newStaticLink("oscillator", []int{0, 1}, 1, -1, -1, 1, 1, 0)
	fl := &flippingLink{staticLink: *base, maxFlips: 100}

	cfg := DefaultConfig("test")
	cfg.MaxMinorSteps = 20
	s, err := New(cfg, []node.Interface{n0, ground}, []link.Link{fl})
	require.NoError(t, err)

	report, err := s.Step(0.01)
	require.NoError(t, err)
	assert.False(t, report.Converged)
	assert.LessOrEqual(t, report.MinorSteps, 20)
	assert.False(t, mathIsNaNOrInf(n0.Potential()))
}

func mathIsNaNOrInf(v float64) bool {
	return v != v || v > 1e300 || v < -1e300
}
