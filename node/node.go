// Package node defines Node and FluidNode, the potential-bearing vertices
// of a simulated network (spec §3, §4.1).
//
// A Node owns a scalar potential (electrical: volts; fluid: kPa; thermal:
// K), accumulates incident fluxes for the current major step, and carries
// convergence-related quantities (capacitance, a capacitance-column
// request) that the solver in this module does not read. Nodes are created
// at network init with a stable name and are never reparented; links name
// them by integer index in their port lists and also hold a node.Interface
// reference to each endpoint.
package node

import (
	"errors"
	"math"
)

// Sentinel errors for Node operations.
var (
	// ErrEmptyName indicates a Node was constructed with an empty name.
	ErrEmptyName = errors.New("node: name is empty")

	// ErrNegativeRate indicates CollectInflux/CollectOutflux was called
	// with a negative rate; both accumulators must stay >= 0.
	ErrNegativeRate = errors.New("node: rate must be >= 0")

	// ErrNonFinitePotential indicates SetPotential was given a non-finite
	// value (NaN or +/-Inf); potential must always be finite.
	ErrNonFinitePotential = errors.New("node: potential must be finite")
)

// Node is a junction with a scalar potential. See package doc for the
// physical interpretation of "potential" per domain.
type Node struct {
	// Name is the stable identifier for this Node within its Network.
	Name string

	// Index is this Node's position in the Network's node slice. NewGround
	// sets it; New leaves it 0, and no other code in this module assigns it.
	Index int

	// potential is the node's current scalar potential, written by the
	// solver after each island solve.
	potential float64

	// influx / outflux accumulate this step's incident flows. Both are
	// always >= 0 (spec invariant).
	influx  float64
	outflux float64

	// netFlux and throughFlux are derived by IntegrateFlows: net = influx -
	// outflux, through = min(influx, outflux).
	netFlux     float64
	throughFlux float64

	// capacitance is the effective dA/dp recorded for this node. The solver
	// in this module does not read it.
	capacitance float64

	// wantCapacitanceColumn is the capacitance-column request flag. The
	// solver in this module does not read it and computes no column of A^-1.
	wantCapacitanceColumn bool

	// scheduledOutflux is communicated by links to the node ahead of
	// IntegrateFlows, for overflow detection (spec §4.4).
	scheduledOutflux float64

	// island is an opaque membership token set via SetIsland; nodes do not
	// interpret it, only carry and report it. Neither the island decomposer
	// nor the solver calls SetIsland.
	island interface{}

	// ground marks this node as the distinguished Ground reference: its
	// potential is never written by the solver.
	ground bool
}

// New constructs a Node with the given stable name. Returns ErrEmptyName if
// name is empty.
func New(name string) (*Node, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Node{Name: name}, nil
}

// NewGround constructs the distinguished Ground node at the given index,
// fixed at the given potential (conventionally 0) for the lifetime of the
// network.
func NewGround(name string, index int, potential float64) *Node {
	return &Node{Name: name, Index: index, potential: potential, ground: true}
}

// IsGround reports whether this Node is the network's Ground reference.
func (n *Node) IsGround() bool { return n.ground }

// StableName returns the node's stable diagnostic name (the Name field,
// exposed as a method so Node satisfies node.Interface).
func (n *Node) StableName() string { return n.Name }

// Potential returns the node's current potential.
func (n *Node) Potential() float64 { return n.potential }

// SetPotential writes the node's potential. Ground nodes silently ignore
// writes (spec property 3: ground-immunity) rather than erroring, since the
// solver writes potentials to every non-ground node in a solved island in
// one pass without special-casing Ground.
func (n *Node) SetPotential(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrNonFinitePotential
	}
	if n.ground {
		return nil
	}
	n.potential = p
	return nil
}

// Capacitance returns the effective dA/dp recorded by SetCapacitance.
func (n *Node) Capacitance() float64 { return n.capacitance }

// SetCapacitance records the node's effective dA/dp for this step.
func (n *Node) SetCapacitance(c float64) { n.capacitance = c }

// RequestCapacitanceColumn sets the capacitance-column request flag. The
// solver does not act on it; no column of A^-1 is computed.
func (n *Node) RequestCapacitanceColumn(want bool) { n.wantCapacitanceColumn = want }

// CapacitanceColumnRequested reports the current request flag.
func (n *Node) CapacitanceColumnRequested() bool { return n.wantCapacitanceColumn }

// Island returns the opaque island-membership token last passed to
// SetIsland, or nil if it was never set. The island decomposer and solver
// do not set it, so it stays nil unless a caller sets it.
func (n *Node) Island() interface{} { return n.island }

// SetIsland records an island-membership token for this node.
func (n *Node) SetIsland(island interface{}) { n.island = island }

// ScheduledOutflux returns the outflux a link has told this node to expect
// over the coming IntegrateFlows call, used for overflow detection.
func (n *Node) ScheduledOutflux() float64 { return n.scheduledOutflux }

// SetScheduledOutflux records a link's advance notice of outflux.
func (n *Node) SetScheduledOutflux(v float64) { n.scheduledOutflux = v }

// ResetFlows clears influx, outflux, net, and through-flux. Called by the
// solver at the start of each major step, before any link contributes.
func (n *Node) ResetFlows() {
	n.influx = 0
	n.outflux = 0
	n.netFlux = 0
	n.throughFlux = 0
	n.scheduledOutflux = 0
}

// CollectInflux accumulates incoming flow for this step. rate must be >= 0.
func (n *Node) CollectInflux(rate float64) error {
	if rate < 0 {
		return ErrNegativeRate
	}
	n.influx += rate
	return nil
}

// CollectOutflux accumulates outgoing flow for this step. rate must be >= 0.
func (n *Node) CollectOutflux(rate float64) error {
	if rate < 0 {
		return ErrNegativeRate
	}
	n.outflux += rate
	return nil
}

// Influx returns the accumulated influx for the current step.
func (n *Node) Influx() float64 { return n.influx }

// Outflux returns the accumulated outflux for the current step.
func (n *Node) Outflux() float64 { return n.outflux }

// NetFlux returns influx - outflux, valid after IntegrateFlows.
func (n *Node) NetFlux() float64 { return n.netFlux }

// ThroughFlux returns min(influx, outflux), valid after IntegrateFlows.
func (n *Node) ThroughFlux() float64 { return n.throughFlux }

// IntegrateFlows derives net and through flux from this step's accumulated
// influx/outflux. FluidNode overrides this to additionally mix inflow into
// its bulk content and update mass error; Node's base behavior is exactly
// the derivation spec §4.1 describes for a non-capacitive node.
func (n *Node) IntegrateFlows(dt float64) {
	n.netFlux = n.influx - n.outflux
	if n.influx < n.outflux {
		n.throughFlux = n.influx
	} else {
		n.throughFlux = n.outflux
	}
}

// PressureCorrection always returns 0 for a plain Node; only FluidNode
// accumulates a mass-error-driven correction (spec §4.1, §4.8 step 7).
func (n *Node) PressureCorrection() float64 { return 0 }
