package floworch

import (
	"testing"

	"github.com/flowmesh/netsim"
	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLink records the order in which ComputeFlows is called, so tests
// can assert on spec §4.6's reverse-registration-order requirement.
type recordingLink struct {
	name  string
	order *[]string
}

func (l *recordingLink) Name() string                          { return l.name }
func (l *recordingLink) Ports() []int                           { return nil }
func (l *recordingLink) PortDirections() []netsim.PortDirection { return nil }
func (l *recordingLink) Step(dt float64) error                  { return nil }
func (l *recordingLink) Stamp() link.Stamp                      { return link.Stamp{} }
func (l *recordingLink) AdmittanceDirty() bool                  { return false }
func (l *recordingLink) SetPotentials(p []float64)              {}
func (l *recordingLink) ComputeFlows(dt float64) error {
	*l.order = append(*l.order, l.name)
	return nil
}
func (l *recordingLink) RestartModel() {}

func TestUpdateComputesFlowsInReverseRegistrationOrder(t *testing.T) {
	var order []string
	links := []link.Link{
		&recordingLink{name: "first", order: &order},
		&recordingLink{name: "second", order: &order},
		&recordingLink{name: "third", order: &order},
	}

	o := New(nil, links, Options{})
	require.NoError(t, o.Update(0.01))

	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestUpdateSkipsGroundIntegration(t *testing.T) {
	n0, err := node.New("bus")
	require.NoError(t, err)
	require.NoError(t, n0.CollectInflux(3))
	require.NoError(t, n0.CollectOutflux(1))

	ground := node.NewGround("ground", 1, 0.0)
	require.NoError(t, ground.CollectInflux(5))

	o := New([]node.Interface{n0, ground}, nil, Options{})
	require.NoError(t, o.Update(0.01))

	assert.Equal(t, 2.0, n0.NetFlux())
	// Ground never gets IntegrateFlows called on it; its net flux stays zero
	// even though it accumulated influx.
	assert.Equal(t, 0.0, ground.NetFlux())
}
