// Package network implements Network Base (spec §2 component H): it wires
// a node/link set to a Solver, a Flow Orchestrator, and a set of Spotters
// and drives one major step's data/control flow (spec §2):
//
//  1. spotters run PreSolver(dt).
//  2. the Solver runs its major/minor-step loop.
//  3. the Flow Orchestrator computes and integrates flows.
//  4. spotters run PostSolver(dt, snapshot).
//
// It also implements sub-network embedding and super-network composition
// (spec §5): Compose renumbers each sub-network's nodes into a shared index
// space with a per-subnet offset, in an order grounded on this module's
// own three-color-DFS topological sort (styled after the teacher's
// dfs.TopologicalSort), so a sub-network only embeds after everything it
// declares a dependency on.
package network

import (
	"errors"

	"github.com/flowmesh/netsim/floworch"
	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
	"github.com/flowmesh/netsim/solver"
	"github.com/flowmesh/netsim/spotter"
)

// ErrNoNodes indicates New or Compose was given no nodes.
var ErrNoNodes = errors.New("network: no nodes")

// PortOffsettable is implemented by link variants that can be renumbered
// into a shared node-index space (every concrete variant in the links
// package). Compose type-switches on it when embedding a sub-network;
// a link that does not implement it cannot be composed into a
// super-network and Compose returns an error naming it.
type PortOffsettable interface {
	OffsetPorts(offset int)
}

// ErrNotOffsettable indicates a sub-network link does not implement
// PortOffsettable and so cannot be embedded into a super-network.
var ErrNotOffsettable = errors.New("network: link does not support port offsetting")

// tripFirer is implemented by link variants that can report whether their
// trip logic fired this step (Switch, ConverterOutput), used only to
// populate Snapshot.TripEvents for spotters; a variant that does not
// implement it is simply never reported as a trip source.
type tripFirer interface {
	Name() string
	TimeToTrip() bool
}

// Network owns a node/link set, a Solver, a Flow Orchestrator, and the
// Spotters observing it. It is the unit Compose assembles sub-networks
// into, and the unit a standalone simulation runs directly.
type Network struct {
	name  string
	nodes []node.Interface
	links []link.Link

	solver   *solver.Solver
	orch     *floworch.Orchestrator
	spotters []spotter.Spotter

	// isSubNetwork marks this Network as embedded into a super-network
	// (spec §5's netIsSubNetwork flag): Step skips its own Solver
	// invocation, since the super-network's single Solver already solved
	// every node this Network owns.
	isSubNetwork bool
}

// Option configures a Network at construction, following this module's
// functional-options convention.
type Option func(*Network)

// WithSpotters installs the given Spotters, run in the order given on every
// Step.
func WithSpotters(spotters ...spotter.Spotter) Option {
	return func(n *Network) { n.spotters = append(n.spotters, spotters...) }
}

// WithFlowOptions overrides the Flow Orchestrator's Options (e.g. Verbose).
func WithFlowOptions(opts floworch.Options) Option {
	return func(n *Network) { n.orch = floworch.New(n.nodes, n.links, opts) }
}

// AsSubNetwork marks a Network as embedded in a manually-managed
// super-network (spec §5's netIsSubNetwork flag): its Step skips its own
// Solver invocation. Compose does not need this option itself — it flattens
// every SubNetwork into one Solver up front — but a caller composing
// Networks by hand (rather than via Compose's SubNetwork/node-offsetting
// path) can use it to suppress a sub-Network's redundant solve.
func AsSubNetwork() Option {
	return func(n *Network) { n.isSubNetwork = true }
}

// New constructs a standalone Network: its own Solver, its own Flow
// Orchestrator, over the given nodes and links. cfg configures the Solver
// (see solver.Config); solverOpts are passed through to solver.New.
func New(name string, cfg solver.Config, nodes []node.Interface, links []link.Link, opts []Option, solverOpts ...solver.SolverOption) (*Network, error) {
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}
	s, err := solver.New(cfg, nodes, links, solverOpts...)
	if err != nil {
		return nil, err
	}
	n := &Network{
		name:  name,
		nodes: nodes,
		links: links,
		solver: s,
		orch:  floworch.New(nodes, links, floworch.Options{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Name returns this Network's diagnostic name.
func (n *Network) Name() string { return n.name }

// Nodes returns this Network's node slice (shared, not copied).
func (n *Network) Nodes() []node.Interface { return n.nodes }

// Links returns this Network's link slice (shared, not copied).
func (n *Network) Links() []link.Link { return n.links }

// Solver returns the underlying Solver, for callers inspecting island
// decomposition or installing a fault handler after construction.
func (n *Network) Solver() *solver.Solver { return n.solver }

// Step drives one major time step of duration dt through the full
// data/control flow (spec §2): PreSolver, the Solver's major/minor-step
// loop (skipped if this Network is embedded as a sub-network), the Flow
// Orchestrator, then PostSolver.
func (n *Network) Step(dt float64) (solver.StepReport, error) {
	for _, sp := range n.spotters {
		if err := sp.PreSolver(dt); err != nil {
			return solver.StepReport{}, err
		}
	}

	var report solver.StepReport
	if !n.isSubNetwork {
		var err error
		report, err = n.solver.Step(dt)
		if err != nil {
			return report, err
		}
	}

	if err := n.orch.Update(dt); err != nil {
		return report, err
	}

	snap := n.snapshot(report)
	for _, sp := range n.spotters {
		if err := sp.PostSolver(dt, snap); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (n *Network) snapshot(report solver.StepReport) spotter.Snapshot {
	potentials := make(map[string]float64, len(n.nodes))
	for _, nd := range n.nodes {
		potentials[nd.StableName()] = nd.Potential()
	}

	var tripEvents []string
	for _, l := range n.links {
		if tf, ok := l.(tripFirer); ok && tf.TimeToTrip() {
			tripEvents = append(tripEvents, tf.Name())
		}
	}

	islandCount := 0
	if n.solver != nil {
		islandCount = len(n.solver.Islands())
	}

	return spotter.Snapshot{
		NodePotentials:  potentials,
		IslandCount:     islandCount,
		MinorSteps:      report.MinorSteps,
		Converged:       report.Converged || report.MinorSteps == 0,
		SingularIslands: report.SingularIslands,
		TripEvents:      tripEvents,
	}
}
