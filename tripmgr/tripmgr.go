// Package tripmgr implements the Trip Manager (spec §4.5): it serializes
// competing trip events across links so that multiple concurrent trip
// candidates fire in a deterministic order driven by priority, not by link
// registration order.
//
// A Manager is owned per-link (spec §3's ownership model: "the trip manager
// is owned per-link"); its state is confined to its owning link and is
// never shared.
package tripmgr

import (
	"errors"

	"github.com/flowmesh/netsim"
)

// ErrInvalidPriority indicates a priority less than 1 was supplied to New;
// trip priority must be >= 1 per spec §6.
var ErrInvalidPriority = errors.New("tripmgr: priority must be >= 1")

// Manager tracks one link's pending trip and its priority-gated firing.
type Manager struct {
	// priority gates when this trip may fire: it fires only once
	// convergedStep >= priority. Lower priorities fire earlier.
	priority int

	// tripOccurred is set by the owning link when its own trip condition
	// (e.g. overcurrent) is sensed.
	tripOccurred bool

	// waitingToTrip is set once tripOccurred is seen and timeToTrip has not
	// yet fired.
	waitingToTrip bool

	// timeToTrip is set the step this trip actually fires.
	timeToTrip bool
}

// New constructs a Manager with the given priority (>= 1).
func New(priority int) (*Manager, error) {
	if priority < 1 {
		return nil, ErrInvalidPriority
	}
	return &Manager{priority: priority}, nil
}

// Priority returns this trip's configured priority.
func (m *Manager) Priority() int { return m.priority }

// TripOccurred reports whether the owning link has sensed its trip
// condition since the last Reset.
func (m *Manager) TripOccurred() bool { return m.tripOccurred }

// TimeToTrip reports whether this trip has actually fired.
func (m *Manager) TimeToTrip() bool { return m.timeToTrip }

// SetTripCondition is called by the owning link each minor step to report
// whether its sensed trip condition is currently true, mirroring the
// original source's computeTripState: while tripped, it latches
// waitingToTrip true until this trip actually fires (timeToTrip), then
// latches it back to false so an already-fired trip does not keep
// re-issuing Reject on every later minor step; once the condition clears,
// every trip flag (including timeToTrip) is reset, so a transient
// condition that clears before its priority step never fires and an
// already-fired trip's owning link can re-arm by clearing the condition.
func (m *Manager) SetTripCondition(tripped bool) {
	m.tripOccurred = tripped
	if !tripped {
		m.waitingToTrip = false
		m.timeToTrip = false
		return
	}
	m.waitingToTrip = !m.timeToTrip
}

// VerifyTimeToTrip advances the manager given the current converged-step
// counter and returns its verdict (spec §4.5):
//
//   - if waiting and convergedStep >= priority: sets timeToTrip and returns
//     Reject, so the link's trip fires this step and the solver re-solves
//     with the link disabled;
//   - if waiting but convergedStep < priority: returns Delay, since a
//     higher-priority link may still pre-empt this one by changing the
//     topology before this trip's priority step is reached;
//   - otherwise: returns Confirm.
func (m *Manager) VerifyTimeToTrip(convergedStep int) netsim.SolutionResult {
	if !m.waitingToTrip {
		return netsim.Confirm
	}
	if convergedStep >= m.priority {
		m.timeToTrip = true
		return netsim.Reject
	}
	return netsim.Delay
}

// Reset clears all trip state, for restart_model / re-close of a breaker.
func (m *Manager) Reset() {
	m.tripOccurred = false
	m.waitingToTrip = false
	m.timeToTrip = false
}
