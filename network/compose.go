package network

import (
	"fmt"

	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
	"github.com/flowmesh/netsim/solver"
)

// SubNetwork is one network's worth of nodes and links, declared for
// embedding into a super-network (spec §5). Its nodes and links are built
// exactly as they would be for a standalone Network — in their own local
// index space starting at 0 — and Compose renumbers them.
//
// By convention, and per this package's composition model, a SubNetwork's
// last node is its own Ground (spec §3: "index equals num_nodes - 1"); when
// embedded, that node keeps its IsGround() status but is no longer at the
// super-network's final index unless it happens to be the last sub-network
// in initialization order. Only the overall super-network's final node
// (the last sub-network's last node) is used as the Solver's groundIndex;
// every other sub-network's Ground node still reports IsGround() true and
// so is still excluded from flow integration and immune to SetPotential,
// but is not excluded from island decomposition by index the way the
// designated groundIndex is. Networks composing more than one internally-
// grounded sub-network should tie those extra Ground nodes to the shared
// reference via a PotentialSource rather than relying on index exclusion.
type SubNetwork struct {
	// Name identifies this sub-network for dependency declaration and
	// diagnostics.
	Name string
	// Nodes are this sub-network's nodes, in local index order.
	Nodes []node.Interface
	// Links are this sub-network's links, with port indices relative to
	// Nodes (local index space). Every link must implement
	// PortOffsettable for Compose to succeed.
	Links []link.Link
	// DependsOn names other sub-networks that must be embedded (and, by
	// this package's convention, initialized) before this one.
	DependsOn []string
}

// Compose assembles subnets into a single super-network (spec §5): it
// computes an initialization order via topoSort over each SubNetwork's
// DependsOn, then renumbers every sub-network's nodes and links into a
// shared index space in that order, offsetting each sub-network's link
// ports by its cumulative node offset. The resulting Network's Solver runs
// once over every node; none of the original sub-networks retain their own
// Solver (spec §5: "The solver runs only on the super-network").
//
// Returns ErrNoNodes if subnets is empty, ErrCycleDetected if DependsOn
// describes a cycle, or ErrNotOffsettable naming the first link that
// cannot be renumbered.
func Compose(name string, cfg solver.Config, subnets []SubNetwork, opts []Option, solverOpts ...solver.SolverOption) (*Network, error) {
	if len(subnets) == 0 {
		return nil, ErrNoNodes
	}

	byName := make(map[string]SubNetwork, len(subnets))
	names := make([]string, 0, len(subnets))
	deps := make(map[string][]string, len(subnets))
	for _, sn := range subnets {
		byName[sn.Name] = sn
		names = append(names, sn.Name)
		deps[sn.Name] = sn.DependsOn
	}

	order, err := topoSort(names, deps)
	if err != nil {
		return nil, err
	}

	var nodes []node.Interface
	var links []link.Link
	for _, name := range order {
		sn := byName[name]
		offset := len(nodes)
		nodes = append(nodes, sn.Nodes...)
		for _, l := range sn.Links {
			off, ok := l.(PortOffsettable)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrNotOffsettable, l.Name())
			}
			off.OffsetPorts(offset)
			links = append(links, l)
		}
	}

	return New(name, cfg, nodes, links, opts, solverOpts...)
}
