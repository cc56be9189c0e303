// Package links holds the concrete Link variants: the passive conductor,
// capacitor, potential source, breaker/switch, and converter input/output
// pair (spec §3, §4.2, §4.3). Each wraps the node.Interface of its endpoints
// directly rather than indexing back into a shared node slice, per the
// Link contract's note that concrete variants "call collect_influx /
// collect_outflux on endpoint nodes" from ComputeFlows — a signature with no
// node-slice parameter, so the reference must already be held.
package links

import (
	"errors"

	"github.com/flowmesh/netsim"
	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
)

// Sentinel errors shared across the concrete link variants.
var (
	// ErrEmptyName indicates a link was constructed with an empty name.
	ErrEmptyName = errors.New("links: name is empty")

	// ErrNegativeConductance indicates a negative conductance/capacitance
	// was supplied at construction (spec §7: InitializationFailure).
	ErrNegativeConductance = errors.New("links: conductance must be >= 0")

	// ErrInvalidEfficiency indicates an efficiency outside (0,1].
	ErrInvalidEfficiency = errors.New("links: efficiency must be in (0,1]")
)

// twoPort is the embeddable state every two-port passive/source link shares:
// a stable name, its two endpoint nodes, the last potentials the solver
// handed back, the current stamp, and the admittance-dirty bookkeeping.
type twoPort struct {
	name     string
	ports    []int
	a, b     node.Interface
	blockage link.Blockage

	potentials [2]float64
	stamp      link.Stamp
	prevA      []float64
	dirty      bool
}

func newTwoPort(name string, portA, portB int, a, b node.Interface) twoPort {
	return twoPort{
		name:  name,
		ports: []int{portA, portB},
		a:     a,
		b:     b,
		stamp: link.NewStamp(2),
	}
}

func (t *twoPort) Name() string                          { return t.name }
func (t *twoPort) Ports() []int                           { return t.ports }
func (t *twoPort) PortDirections() []netsim.PortDirection { return []netsim.PortDirection{netsim.DirectionNone, netsim.DirectionNone} }
func (t *twoPort) Stamp() link.Stamp                      { return t.stamp }
func (t *twoPort) AdmittanceDirty() bool                  { return t.dirty }

func (t *twoPort) SetPotentials(p []float64) {
	t.potentials[0] = p[0]
	t.potentials[1] = p[1]
}

// setStamp writes the two-port's symmetric conductance stamp
// [[g,-g],[-g,g]] with source terms w0, w1, and marks admittance-dirty iff
// any entry changed by more than eps since the last call.
func (t *twoPort) setStamp(g, w0, w1, eps float64) {
	next := link.NewStamp(2)
	next.Set(0, 0, g)
	next.Set(0, 1, -g)
	next.Set(1, 0, -g)
	next.Set(1, 1, g)
	next.W[0] = w0
	next.W[1] = w1

	if t.prevA == nil {
		t.dirty = true
	} else {
		t.dirty = false
		for i := range next.A {
			d := next.A[i] - t.prevA[i]
			if d < -eps || d > eps {
				t.dirty = true
				break
			}
		}
	}
	t.prevA = append(t.prevA[:0], next.A...)
	t.stamp = next
}

// effectiveConductance applies the shared blockage malfunction (spec §3): a
// fraction in [0,1] of the nominal conductance is removed.
func effectiveConductance(nominal float64, b link.Blockage) float64 {
	if !b.Active {
		return nominal
	}
	return nominal * (1 - b.Fraction)
}

func (t *twoPort) RestartModel() {
	t.prevA = nil
	t.dirty = true
}

// OffsetPorts shifts both port indices by offset, letting a network
// renumber a sub-network's links into a shared super-network index space
// (spec §5) without reconstructing the link.
func (t *twoPort) OffsetPorts(offset int) {
	t.ports[0] += offset
	t.ports[1] += offset
}
