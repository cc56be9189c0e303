package network

import (
	"errors"
)

// ErrCycleDetected indicates the declared sub-network dependency graph
// contains a cycle, so no valid initialization order exists.
var ErrCycleDetected = errors.New("network: dependency cycle detected")

const (
	white = 0
	gray  = 1
	black = 2
)

// topoSort computes an initialization order over sub-network names such
// that every name appears after all the names it depends on, using a
// three-color DFS with back-edge detection. Since deps edges point at
// dependencies, the DFS post-order is already the result and is not
// reversed. deps maps a sub-network name to the names it depends on (must
// initialize first).
func topoSort(names []string, deps map[string][]string) ([]string, error) {
	state := make(map[string]int, len(names))
	order := make([]string, 0, len(names))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case gray:
			return ErrCycleDetected
		case black:
			return nil
		}
		state[name] = gray
		for _, dep := range deps[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = black
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if state[name] == white {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}
