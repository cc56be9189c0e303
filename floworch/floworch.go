// Package floworch implements the Flow Orchestrator (spec §4.6): after the
// solver's minor-step loop ends, it drives post-solve flow computation on
// every link and flow integration on every node, in the strict ordering
// spec §5 requires.
//
// Options follow this module's ambient convention, grounded on the
// teacher's flow package: a small Options struct with an opt-in Verbose
// trace printed via fmt.Printf, no logging dependency.
package floworch

import (
	"fmt"

	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
)

// Options configures Orchestrator.Update.
//
//   - Verbose: if true, prints each link's ComputeFlows call via fmt.Printf.
type Options struct {
	Verbose bool
}

// Orchestrator owns references to the link slice, node slice, and drives
// them through one major step's post-solve transport (spec §4.6).
type Orchestrator struct {
	nodes []node.Interface
	links []link.Link
	opts  Options
}

// New constructs an Orchestrator over the given nodes and links. Both
// slices are shared with (not copied from) the owning network, per this
// module's ownership model: the network owns nodes by value/index and
// links by polymorphic reference in registration order.
func New(nodes []node.Interface, links []link.Link, opts Options) *Orchestrator {
	return &Orchestrator{nodes: nodes, links: links, opts: opts}
}

// Update runs one major step's flow computation and integration (spec
// §4.6):
//
//  1. Iterate links in reverse registration order, calling ComputeFlows(dt).
//     Reverse order is required because composite links (e.g. a
//     distributed interface containing an inner converter input/output
//     pair) depend on their children having already processed flows.
//  2. Iterate nodes, excluding Ground, calling IntegrateFlows(dt).
//
// All link ComputeFlows calls complete before any node IntegrateFlows call
// (spec §5), since the two loops are strictly sequential here.
func (o *Orchestrator) Update(dt float64) error {
	for i := len(o.links) - 1; i >= 0; i-- {
		l := o.links[i]
		if o.opts.Verbose {
			fmt.Printf("floworch: compute_flows %s\n", l.Name())
		}
		if err := l.ComputeFlows(dt); err != nil {
			return err
		}
	}

	for _, n := range o.nodes {
		if n.IsGround() {
			continue
		}
		n.IntegrateFlows(dt)
	}
	return nil
}
