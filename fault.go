package netsim

import (
	"errors"
	"fmt"
)

// Kind classifies a Fault so callers can branch without string matching.
// It replaces the source material's GUNNS_ERROR/TS_EPS_* macros (spec §9):
// a single structured error type carrying kind, component name, and cause,
// leaving logging to whatever reporter the caller wires in.
type Kind int

const (
	// KindInitialization marks invalid configuration discovered during
	// Initialize: negative conductance, priority < 1, inverted sensor
	// range, efficiency outside (0,1], missing fluid config. Always
	// surfaced; the owning network is unusable if any link fails init.
	KindInitialization Kind = iota

	// KindOutOfBounds marks a runtime setter given an invalid value:
	// negative volume, expansion scale outside [0,1], trace-compound
	// index out of range. The operation is rejected; state is unchanged.
	KindOutOfBounds

	// KindSingular marks a diagonal that fell below MinLinearDiagonal
	// during factorization. p is held constant for the step.
	KindSingular

	// KindNonConvergence marks MaxMinorSteps exhausted without Confirm.
	// The last p is used and flows are still computed.
	KindNonConvergence

	// KindConservation marks a fluid-node overflow where scheduled flow
	// exceeded available mass. The step continues with clamped masses.
	KindConservation

	// KindSaturation marks a value silently clamped at a min/max bound
	// (e.g. sensor range saturation).
	KindSaturation
)

// String renders the Kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindInitialization:
		return "initialization"
	case KindOutOfBounds:
		return "out-of-bounds"
	case KindSingular:
		return "singular"
	case KindNonConvergence:
		return "non-convergence"
	case KindConservation:
		return "conservation"
	case KindSaturation:
		return "saturation"
	default:
		return "unknown"
	}
}

// Fault is the structured error type shared by every component in this
// module. It carries a Kind, the name of the component that raised it, and
// an optional wrapped cause, so callers can use errors.Is/errors.As against
// either the Fault itself or the underlying sentinel.
type Fault struct {
	Kind      Kind
	Component string
	Cause     error
}

// NewFault constructs a Fault. cause may be nil.
func NewFault(kind Kind, component string, cause error) *Fault {
	return &Fault{Kind: kind, Component: component, Cause: cause}
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("netsim: %s[%s]: %v", f.Kind, f.Component, f.Cause)
	}
	return fmt.Sprintf("netsim: %s[%s]", f.Kind, f.Component)
}

// Unwrap exposes Cause to errors.Is / errors.As.
func (f *Fault) Unwrap() error { return f.Cause }

// Is reports whether target is a *Fault with the same Kind, letting callers
// write errors.Is(err, &netsim.Fault{Kind: netsim.KindSingular}) without
// needing to know the component name or cause.
func (f *Fault) Is(target error) bool {
	var other *Fault
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == f.Kind
}
