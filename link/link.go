// Package link defines the Link capability-set contract (spec §3, §4.2):
// the polymorphic interface the solver interacts with for every concrete
// link variant, plus the shared port-direction and admittance-stamp types
// every variant carries.
//
// Rather than a deep virtual-inheritance chain (spec §9), a Link is a small
// interface; optional behaviors — non-linearity, trip participation — are
// expressed as further interfaces a concrete variant may additionally
// satisfy, and the solver type-switches on them.
package link

import (
	"errors"

	"github.com/flowmesh/netsim"
)

// Sentinel errors for the link contract surface.
var (
	// ErrPortCountMismatch indicates Initialize was given a different
	// number of ports than the link's fixed port count P.
	ErrPortCountMismatch = errors.New("link: port count mismatch")

	// ErrInvalidNodeIndex indicates a port's node index is negative or not
	// less than the network's node count.
	ErrInvalidNodeIndex = errors.New("link: invalid node index")

	// ErrBlockageOutOfRange indicates a blockage fraction outside [0,1].
	ErrBlockageOutOfRange = errors.New("link: blockage fraction out of range")
)

// Stamp is a link's P×P admittance contribution plus its length-P source
// vector contribution — the "admittance stamp" and "source vector
// contribution" from the GLOSSARY. Both are stored dense and small, since P
// is fixed and tiny per concrete link (almost always 1 or 2).
type Stamp struct {
	// A is the admittance contribution, stored row-major, P*P entries.
	A []float64
	// W is the source-vector contribution, P entries.
	W []float64
	// P is the number of ports this stamp covers.
	P int
}

// NewStamp allocates a zeroed Stamp for p ports.
func NewStamp(p int) Stamp {
	return Stamp{A: make([]float64, p*p), W: make([]float64, p), P: p}
}

// At returns A[i][j] from the row-major backing slice.
func (s Stamp) At(i, j int) float64 { return s.A[i*s.P+j] }

// Set writes A[i][j] into the row-major backing slice.
func (s Stamp) Set(i, j int, v float64) { s.A[i*s.P+j] = v }

// IsSymmetric reports whether A is symmetric within eps, the invariant
// spec §3 requires of every passive link's admittance contribution
// (testable property 2).
func (s Stamp) IsSymmetric(eps float64) bool {
	for i := 0; i < s.P; i++ {
		for j := i + 1; j < s.P; j++ {
			d := s.At(i, j) - s.At(j, i)
			if d < -eps || d > eps {
				return false
			}
		}
	}
	return true
}

// Blockage models the fractional flow-reducing malfunction every link may
// carry (spec §3): Active gates whether Fraction applies.
type Blockage struct {
	Active   bool
	Fraction float64 // in [0,1]
}

// Config is the common immutable configuration fields every link variant's
// own Config struct embeds (spec §9's redesign flag: "Config + Input + Model
// triad per class" becomes a plain immutable config struct plus a mutable
// initial-state struct per variant, not parallel config-data/input-data
// class hierarchies). Name and Ports are shared by every variant; variant-
// specific fields (conductance, setpoint, trip priority, ...) live in the
// variant's own Config type alongside an embedded link.Config.
type Config struct {
	// Name is the link's stable diagnostic identifier.
	Name string
	// Ports are the node indices this link attaches to, in port order.
	Ports []int
}

// Input is the common mutable initial-state fields a link variant's own
// Input struct embeds (e.g. links.SwitchInput). A variant without an
// applicable notion of blockage (e.g. ConverterOutput) does not embed it.
type Input struct {
	// Blockage is the fractional flow-reducing malfunction applied from
	// construction (spec §3); zero-valued means none.
	Blockage Blockage
}

// Validate returns ErrBlockageOutOfRange if Fraction is outside [0,1].
func (b Blockage) Validate() error {
	if b.Fraction < 0 || b.Fraction > 1 {
		return ErrBlockageOutOfRange
	}
	return nil
}

// Link is the contract every concrete variant implements (spec §4.2). The
// solver and Flow Orchestrator interact only through this interface and the
// optional NonLinear/TripAware/Capacitive interfaces below.
type Link interface {
	// Name returns the link's stable diagnostic identifier.
	Name() string

	// Ports returns the ordered node indices this link is attached to,
	// length P, fixed for the life of the link.
	Ports() []int

	// PortDirections returns the length-P port-direction constraints.
	PortDirections() []netsim.PortDirection

	// Step computes this link's admittance and source-vector contribution
	// for the current major step (or, for a non-linear link, its first
	// minor step) and stores it internally; Stamp returns the result.
	// Step also sets the admittance-dirty flag iff any entry changed by
	// more than the solver's tolerance since the last step.
	Step(dt float64) error

	// Stamp returns the link's current admittance/source contribution.
	Stamp() Stamp

	// AdmittanceDirty reports whether Stamp changed since the last time the
	// solver read it, so the solver knows whether to redecompose islands.
	AdmittanceDirty() bool

	// SetPotentials is called by the solver after each solve with the
	// link's own ports' potentials, in port order, so the link can derive
	// per-port quantities during ComputeFlows/ConfirmSolutionAcceptable
	// without reaching back into the node slice itself.
	SetPotentials(p []float64)

	// ComputeFlows is called once per major step, after the minor-step loop
	// ends (or aborts), in reverse registration order. Implementations
	// compute per-port flux from the accepted potentials, update any
	// internal dynamics, and report flows into their endpoint nodes through
	// the node references the link itself holds.
	ComputeFlows(dt float64) error

	// RestartModel resets non-checkpointed, non-config state (spec §4.2).
	RestartModel()
}

// NonLinear is implemented by links whose contribution may need more than
// one minor step to settle (spec §4.2, §4.8).
type NonLinear interface {
	Link

	// MinorStep recomputes the link's contribution for minor step
	// minorIdx, after an initial Step(dt) established the linear baseline.
	MinorStep(dt float64, minorIdx int) error

	// ConfirmSolutionAcceptable returns this link's verdict on the solution
	// just computed. convergedStep is the monotonic counter of successive
	// converged minor steps; absoluteStep is the unconditional minor-step
	// index since the start of this major step. Per spec §9's resolved
	// open question, implementations must return Delay (never Confirm)
	// when convergedStep == 0, since a decision on an unconverged solution
	// cannot yet be trusted.
	ConfirmSolutionAcceptable(convergedStep, absoluteStep int) netsim.SolutionResult
}

// TripAware is implemented by links that participate in prioritized trip
// coordination (spec §4.5); the solver polls VerifyTimeToTrip on every
// minor step, passing the current converged-step counter.
type TripAware interface {
	// VerifyTimeToTrip advances this link's trip manager given the current
	// converged-step counter and returns its verdict.
	VerifyTimeToTrip(convergedStep int) netsim.SolutionResult
}

// Capacitive is implemented by links that accumulate state integrated by
// ComputeFlows (e.g. a capacitor's stored charge), used by diagnostics that
// want to distinguish stateful from purely resistive links.
type Capacitive interface {
	Link
	StoredQuantity() float64
}
