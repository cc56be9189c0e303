package island

import (
	"testing"

	"github.com/flowmesh/netsim"
	"github.com/flowmesh/netsim/link"
	"github.com/stretchr/testify/assert"
)

// fakeLink is a minimal link.Link used only to exercise Decompose's
// adjacency walk; it never steps or computes flows.
type fakeLink struct {
	name   string
	ports  []int
	stamp  link.Stamp
}

func newFakeLink(name string, ports []int, conductance float64) *fakeLink {
	s := link.NewStamp(len(ports))
	for i := 0; i < len(ports); i++ {
		for j := 0; j < len(ports); j++ {
			if i != j {
				s.Set(i, j, conductance)
			}
		}
	}
	return &fakeLink{name: name, ports: ports, stamp: s}
}

func (f *fakeLink) Name() string                                  { return f.name }
func (f *fakeLink) Ports() []int                                  { return f.ports }
func (f *fakeLink) PortDirections() []netsim.PortDirection         { return make([]netsim.PortDirection, len(f.ports)) }
func (f *fakeLink) Step(dt float64) error                         { return nil }
func (f *fakeLink) Stamp() link.Stamp                             { return f.stamp }
func (f *fakeLink) AdmittanceDirty() bool                         { return false }
func (f *fakeLink) SetPotentials(p []float64)                     {}
func (f *fakeLink) ComputeFlows(dt float64) error                 { return nil }
func (f *fakeLink) RestartModel()                                 {}

// TestIslandPartition exercises scenario 4 from spec §8: six nodes, two
// disjoint triangles plus Ground, must decompose into exactly two islands
// of three nodes each.
func TestIslandPartition(t *testing.T) {
	const ground = 6
	links := []link.Link{
		newFakeLink("t1a", []int{0, 1}, 1.0),
		newFakeLink("t1b", []int{1, 2}, 1.0),
		newFakeLink("t1c", []int{2, 0}, 1.0),
		newFakeLink("t2a", []int{3, 4}, 1.0),
		newFakeLink("t2b", []int{4, 5}, 1.0),
		newFakeLink("t2c", []int{5, 3}, 1.0),
	}
	islands := Decompose(7, ground, links, 1e-9)
	assert.Len(t, islands, 2)
	for _, isl := range islands {
		assert.Len(t, isl.Nodes, 3)
	}
}

func TestIslandExcludesGround(t *testing.T) {
	links := []link.Link{
		newFakeLink("r1", []int{0, 2}, 1.0), // 2 is ground
	}
	islands := Decompose(3, 2, links, 1e-9)
	require := assert.New(t)
	require.Len(islands, 2) // {0} and the unconnected node {1}; never ground
	require.Equal([]int{0}, islands[0].Nodes)
}

func TestIslandZeroConductanceDoesNotConnect(t *testing.T) {
	links := []link.Link{
		newFakeLink("open-switch", []int{0, 1}, 0.0),
	}
	islands := Decompose(3, 2, links, 1e-9)
	assert.Len(t, islands, 2)
}
