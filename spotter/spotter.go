// Package spotter implements the Spotter capability (spec §2 component E):
// a pre/post-solver callback hook for sensors, monitors, and telemetry that
// never participates in the solve itself.
package spotter

// Snapshot is the read-only view of a completed major step a Spotter's
// PostSolver receives — just enough to drive telemetry without the spotter
// package depending on the solver or node packages directly (spotters are
// leaves; the network wires them to its own internals).
type Snapshot struct {
	// NodePotentials maps each node's stable name (Ground included) to its
	// potential after this step.
	NodePotentials map[string]float64

	// IslandCount is the number of islands the decomposer produced this
	// step.
	IslandCount int

	// MinorSteps is the number of minor-step iterations the solver ran.
	MinorSteps int

	// Converged reports whether the minor-step loop ended via Confirm
	// rather than the MaxMinorSteps cap.
	Converged bool

	// SingularIslands lists island IDs whose factorization was singular
	// this step.
	SingularIslands []int

	// TripEvents names links whose trip fired this step.
	TripEvents []string
}

// Spotter is implemented by every pre/post-solver callback (spec §2 step 1,
// step 4). PreSolver runs before the solver resets per-step state; PostSolver
// runs after the Flow Orchestrator has integrated flows.
type Spotter interface {
	// PreSolver is called once per major step, before any node/link state
	// is reset for the step.
	PreSolver(dt float64) error

	// PostSolver is called once per major step, after flows have been
	// integrated, with a snapshot of what happened this step.
	PostSolver(dt float64, snap Snapshot) error
}
