// Package netsim is the root of a general-purpose network simulation engine
// that models physical flow systems — electrical circuits, fluid plumbing,
// thermal circuits — as graphs of nodes connected by polymorphic links.
//
// The engine discretizes each circuit into a linear system A·p = w over node
// potentials p, reduces and solves that system each integration tick, and
// then drives the links to transport flows and update their internal state.
// Non-linear behaviors (switches, diodes, saturation, trips, bias reversal,
// valve limiting) are handled by a minor-step iteration loop in which links
// may reject the solution and cause re-solving within a single major step.
//
// Subpackages:
//
//	node:     Node and FluidNode, the potential-bearing graph vertices.
//	link:     the Link capability-set contract and shared port types.
//	links:    concrete Link variants (resistor, capacitor, source, switch,
//	          selector, converter input/output) used to exercise and test
//	          the core.
//	tripmgr:  priority-ordered trip coordination across competing links.
//	island:   partitions the node graph into independent solve islands.
//	solver:   admittance assembly, per-island LU factorization/solve, and
//	          the major/minor-step non-linear iteration loop.
//	floworch: post-solve flow computation and flow integration ordering.
//	spotter:  pre/post-solver callbacks for sensors, monitors, telemetry.
//	network:  network base — init order, sub-network embedding, and
//	          super-network composition.
//
// This root package holds only what every subpackage shares: the structured
// Fault error type, the SolutionResult and PortDirection enums, and the
// default numeric tolerances.
package netsim
