package node

// Interface is the polymorphic view the solver, Flow Orchestrator, and
// Network Base share over a node, satisfied by both *Node and *FluidNode.
// Go embedding does not give virtual dispatch across the two concrete
// types directly, so components that must treat a mix of plain and fluid
// nodes uniformly — exactly the mix a super-network composition (spec §5)
// may contain — operate over a slice of Interface rather than []*Node.
type Interface interface {
	// IsGround reports whether this is the network's distinguished Ground.
	IsGround() bool
	// Potential returns the node's current potential.
	Potential() float64
	// SetPotential writes the node's potential (a no-op on Ground).
	SetPotential(p float64) error
	// ResetFlows clears this step's influx/outflux/net/through-flux.
	ResetFlows()
	// CollectInflux accumulates incoming flow for this step.
	CollectInflux(rate float64) error
	// CollectOutflux accumulates outgoing flow for this step.
	CollectOutflux(rate float64) error
	// IntegrateFlows derives this step's net/through-flux (and, for a fluid
	// node, mixes inflow into bulk content and updates mass error).
	IntegrateFlows(dt float64)
	// PressureCorrection returns the correction the solver should add to p
	// after acceptance (spec §4.8 step 7); always 0 for a plain Node.
	PressureCorrection() float64
	// StableName returns the node's stable diagnostic name. Named
	// StableName rather than Name since Name is already Node's public
	// field and a type cannot declare both a field and a method under the
	// same identifier.
	StableName() string
}

var (
	_ Interface = (*Node)(nil)
	_ Interface = (*FluidNode)(nil)
)
