// Package island implements the Island Decomposer (spec §4.7): after any
// link's admittance contribution changes, it walks the graph induced by
// non-zero off-diagonal admittance entries among non-Ground nodes and
// partitions them into islands — maximal sets of nodes mutually reachable
// through a non-zero admittance path.
//
// The traversal itself is a breadth-first walk over an adjacency list
// built from each link's ports (queue of frontier items, visited set keyed
// by node index).
package island

import (
	"github.com/flowmesh/netsim/link"
)

// Island is a maximal set of mutually reachable non-Ground nodes (spec
// §3's Island type): an ordered sequence of node indices and an integer ID.
// Ground is never a member of any Island.
type Island struct {
	// ID identifies this island within the current decomposition.
	ID int
	// Nodes holds this island's member node indices in ascending order.
	Nodes []int
}

// frontierItem is one entry in the BFS frontier queue: just the node index,
// since islands don't need depth or parent bookkeeping.
type frontierItem struct {
	index int
}

// Decompose partitions the node indices [0,numNodes) — excluding
// groundIndex — into Islands, using the adjacency induced by every link's
// Ports(): two nodes share an island iff some link attaches to both and is
// non-zero in the current admittance Stamp. A link whose Stamp has every
// off-diagonal entry within eps of zero for a given port pair does not
// connect those ports (e.g. a fully-open switch with zero conductance).
//
// Complexity: O(V + sum(P_i^2)) time, O(V) space, matching the teacher's
// bfs package's O(V+E) traversal bound with E taken over link port pairs.
func Decompose(numNodes, groundIndex int, links []link.Link, eps float64) []*Island {
	if numNodes <= 0 {
		return nil
	}
	adjacency := make([][]int, numNodes)
	for _, l := range links {
		ports := l.Ports()
		stamp := l.Stamp()
		for i := 0; i < len(ports); i++ {
			for j := i + 1; j < len(ports); j++ {
				if ports[i] == groundIndex || ports[j] == groundIndex {
					continue
				}
				if !nonZeroOffDiagonal(stamp, i, j, eps) {
					continue
				}
				adjacency[ports[i]] = append(adjacency[ports[i]], ports[j])
				adjacency[ports[j]] = append(adjacency[ports[j]], ports[i])
			}
		}
	}

	visited := make([]bool, numNodes)
	visited[groundIndexOrNone(groundIndex, numNodes)] = true

	var islands []*Island
	nextID := 0
	for start := 0; start < numNodes; start++ {
		if visited[start] {
			continue
		}
		queue := []frontierItem{{index: start}}
		visited[start] = true
		members := []int{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range adjacency[cur.index] {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				members = append(members, nb)
				queue = append(queue, frontierItem{index: nb})
			}
		}
		sortInts(members)
		islands = append(islands, &Island{ID: nextID, Nodes: members})
		nextID++
	}
	return islands
}

// groundIndexOrNone returns groundIndex if it is a valid node index, or
// numNodes-1 (the conventional Ground position) otherwise, so an
// out-of-range groundIndex does not index out of bounds when pre-marking it
// visited; in that case the last node is excluded from every island.
func groundIndexOrNone(groundIndex, numNodes int) int {
	if groundIndex < 0 || groundIndex >= numNodes {
		return numNodes - 1
	}
	return groundIndex
}

func nonZeroOffDiagonal(s link.Stamp, i, j int, eps float64) bool {
	v := s.At(i, j)
	return v < -eps || v > eps
}

// sortInts sorts a small slice of node indices ascending; islands are
// always small relative to the network, so insertion sort is sufficient
// and avoids importing sort for a handful of elements in the hot path.
func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		v := xs[i]
		j := i - 1
		for j >= 0 && xs[j] > v {
			xs[j+1] = xs[j]
			j--
		}
		xs[j+1] = v
	}
}
