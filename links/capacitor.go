package links

import (
	"github.com/flowmesh/netsim"
	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
)

// Capacitor is a linear two-port energy-storage link. It contributes a
// companion conductance G_eq = C/dt to the admittance matrix and a current
// source derived from its stored quantity at the start of the step (the
// standard implicit-Euler companion model), then integrates StoredQuantity
// from the accepted flux in ComputeFlows (spec §4.2: "capacitor integrates
// its stored quantity from the flux").
type Capacitor struct {
	twoPort
	capacitance float64
	stored      float64 // charge/mass/heat on hand, in the domain's native units
	lastDt      float64
}

// NewCapacitor constructs a Capacitor of the given capacitance between node
// a (port 0) and node b (port 1), with zero initial stored quantity.
// Returns ErrEmptyName or ErrNegativeConductance.
func NewCapacitor(name string, portA, portB int, a, b node.Interface, capacitance float64) (*Capacitor, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if capacitance < 0 {
		return nil, ErrNegativeConductance
	}
	return &Capacitor{twoPort: newTwoPort(name, portA, portB, a, b), capacitance: capacitance}, nil
}

// StoredQuantity returns the capacitor's current stored charge/mass/heat,
// satisfying link.Capacitive.
func (c *Capacitor) StoredQuantity() float64 { return c.stored }

// Step assembles the companion-model stamp for this dt. A zero or
// vanishing dt disables the capacitor's contribution rather than dividing
// by zero, degrading to an open circuit for that step.
func (c *Capacitor) Step(dt float64) error {
	c.lastDt = dt
	if dt <= 0 || c.capacitance == 0 {
		c.setStamp(0, 0, 0, netsim.Epsilon)
		return nil
	}
	g := c.capacitance / dt
	// Companion current source drives p toward the voltage the stored
	// quantity implies, i.e. w = g * (stored/capacitance) at port 0 and the
	// mirror at port 1.
	v := c.stored / c.capacitance
	c.setStamp(g, g*v, -g*v, netsim.Epsilon)
	return nil
}

// ComputeFlows derives port-to-port flux from the accepted potentials and
// integrates it into StoredQuantity.
func (c *Capacitor) ComputeFlows(dt float64) error {
	if c.lastDt <= 0 || c.capacitance == 0 {
		return nil
	}
	g := c.capacitance / c.lastDt
	v := c.stored / c.capacitance
	flux := g * ((c.potentials[0] - c.potentials[1]) - v)
	c.stored += flux * c.lastDt

	if flux >= 0 {
		if err := c.a.CollectOutflux(flux); err != nil {
			return err
		}
		return c.b.CollectInflux(flux)
	}
	if err := c.b.CollectOutflux(-flux); err != nil {
		return err
	}
	return c.a.CollectInflux(-flux)
}

var _ link.Capacitive = (*Capacitor)(nil)
