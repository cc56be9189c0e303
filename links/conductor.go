package links

import (
	"github.com/flowmesh/netsim"
	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
)

// Conductor is a linear, symmetric two-port passive link: a resistor
// (conductance G = 1/R) or any other fixed-conductance element. It never
// rejects or delays a solution (it is not link.NonLinear).
type Conductor struct {
	twoPort
	conductance float64
	flux        float64
}

// NewConductor constructs a Conductor of the given conductance (Siemens,
// i.e. 1/Ohm) between node a (port 0) and node b (port 1). Returns
// ErrEmptyName or ErrNegativeConductance.
func NewConductor(name string, portA, portB int, a, b node.Interface, conductance float64) (*Conductor, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if conductance < 0 {
		return nil, ErrNegativeConductance
	}
	return &Conductor{twoPort: newTwoPort(name, portA, portB, a, b), conductance: conductance}, nil
}

// SetBlockage installs the fractional flow-reducing malfunction (spec §3).
func (c *Conductor) SetBlockage(b link.Blockage) error {
	if err := b.Validate(); err != nil {
		return err
	}
	c.blockage = b
	return nil
}

// Step computes this step's admittance contribution. A Conductor's
// conductance is fixed at construction modulo blockage, so Step only needs
// recomputing when the blockage state changes; it recomputes unconditionally
// since the cost is negligible and the dirty check in setStamp absorbs it.
func (c *Conductor) Step(dt float64) error {
	g := effectiveConductance(c.conductance, c.blockage)
	c.setStamp(g, 0, 0, netsim.Epsilon)
	return nil
}

// ComputeFlows derives the port-to-port flux from the accepted potentials
// and reports it into both endpoint nodes.
func (c *Conductor) ComputeFlows(dt float64) error {
	g := effectiveConductance(c.conductance, c.blockage)
	c.flux = g * (c.potentials[0] - c.potentials[1])
	if c.flux >= 0 {
		if err := c.a.CollectOutflux(c.flux); err != nil {
			return err
		}
		return c.b.CollectInflux(c.flux)
	}
	if err := c.b.CollectOutflux(-c.flux); err != nil {
		return err
	}
	return c.a.CollectInflux(-c.flux)
}

// Flux returns the most recently computed port-to-port flux (positive from
// a to b).
func (c *Conductor) Flux() float64 { return c.flux }

var _ link.Link = (*Conductor)(nil)
