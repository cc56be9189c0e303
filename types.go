package netsim

// SolutionResult is a link's verdict on the solution just computed for a
// minor step (spec §4.2, §4.8). The solver aggregates the worst result
// across all non-linear links every minor step: Reject dominates Delay
// dominates Confirm.
type SolutionResult int

const (
	// Confirm means "I am satisfied with p"; if every link confirms, the
	// minor-step loop ends and the major step proceeds to flow computation.
	Confirm SolutionResult = iota

	// Delay means "do not accept yet; keep iterating but do not roll back."
	// Delay does not restore a prior p; the converged-step counter advances
	// if successive potentials changed by less than the convergence
	// tolerance and restarts from zero otherwise.
	Delay

	// Reject asks the solver to discard p and re-iterate, rolling back to
	// the previous accepted snapshot and restarting the converged-step
	// counter. A link returning Reject must also have changed state that
	// will make A or w different on the next minor step, or the loop makes
	// no progress.
	Reject
)

// String renders the SolutionResult for diagnostics.
func (r SolutionResult) String() string {
	switch r {
	case Confirm:
		return "confirm"
	case Delay:
		return "delay"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Worst returns whichever of r and other dominates, under the ordering
// Reject > Delay > Confirm. Used by the solver to fold per-link verdicts
// into a single step-level decision in one pass.
func (r SolutionResult) Worst(other SolutionResult) SolutionResult {
	if r == Reject || other == Reject {
		return Reject
	}
	if r == Delay || other == Delay {
		return Delay
	}
	return Confirm
}

// PortDirection constrains how a link's port may move flow relative to its
// attached node (spec §3). A port marked Source only yields positive flow
// into the attached node during compute_flows; Sink is the mirror case.
type PortDirection int

const (
	// DirectionNone places no constraint on flow direction at this port.
	DirectionNone PortDirection = iota
	// DirectionSource constrains this port to deliver flow into its node.
	DirectionSource
	// DirectionSink constrains this port to draw flow from its node.
	DirectionSink
	// DirectionBoth behaves like DirectionNone but documents that the link
	// intentionally supports flow in either direction at this port.
	DirectionBoth
)

// String renders the PortDirection for diagnostics.
func (d PortDirection) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case DirectionSource:
		return "source"
	case DirectionSink:
		return "sink"
	case DirectionBoth:
		return "both"
	default:
		return "unknown"
	}
}
