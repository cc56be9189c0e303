package links

import (
	"github.com/flowmesh/netsim"
	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
)

// PotentialSource is a linear two-port link that pins one port's potential
// relative to the other at a fixed setpoint, implemented as the classic
// large-conductance admittance trick: a very large conductance G dominates
// the island's system so the solved potential difference converges on
// Setpoint regardless of everything else feeding that node (spec scenario
// 1's "PotentialSource(1V, node A<->Ground, large G=1000)").
type PotentialSource struct {
	twoPort
	conductance float64
	setpoint    float64
	flux        float64
}

// NewPotentialSource constructs a PotentialSource driving node a (port 0)
// to setpoint above node b (port 1), using the given large conductance.
// Returns ErrEmptyName or ErrNegativeConductance.
func NewPotentialSource(name string, portA, portB int, a, b node.Interface, conductance, setpoint float64) (*PotentialSource, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if conductance < 0 {
		return nil, ErrNegativeConductance
	}
	return &PotentialSource{twoPort: newTwoPort(name, portA, portB, a, b), conductance: conductance, setpoint: setpoint}, nil
}

// SetSetpoint updates the driven potential difference for subsequent steps.
func (p *PotentialSource) SetSetpoint(v float64) { p.setpoint = v }

// Setpoint returns the currently configured potential difference.
func (p *PotentialSource) Setpoint() float64 { return p.setpoint }

func (p *PotentialSource) Step(dt float64) error {
	g := effectiveConductance(p.conductance, p.blockage)
	p.setStamp(g, g*p.setpoint, -g*p.setpoint, netsim.Epsilon)
	return nil
}

// SetBlockage installs the fractional flow-reducing malfunction (spec §3).
func (p *PotentialSource) SetBlockage(b link.Blockage) error {
	if err := b.Validate(); err != nil {
		return err
	}
	p.blockage = b
	return nil
}

func (p *PotentialSource) ComputeFlows(dt float64) error {
	g := effectiveConductance(p.conductance, p.blockage)
	p.flux = g * (p.setpoint - (p.potentials[0] - p.potentials[1]))
	if p.flux >= 0 {
		if err := p.b.CollectOutflux(p.flux); err != nil {
			return err
		}
		return p.a.CollectInflux(p.flux)
	}
	if err := p.a.CollectOutflux(-p.flux); err != nil {
		return err
	}
	return p.b.CollectInflux(-p.flux)
}

// Flux returns the most recently computed source flux.
func (p *PotentialSource) Flux() float64 { return p.flux }

var _ link.Link = (*PotentialSource)(nil)
