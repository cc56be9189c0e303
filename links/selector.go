package links

import (
	"errors"

	"github.com/flowmesh/netsim"
	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
)

// ErrNoPositions indicates a Selector was constructed with zero position
// nodes, leaving nothing to mux.
var ErrNoPositions = errors.New("links: selector needs at least one position")

// ErrPositionOutOfRange indicates SetPosition was given an index outside
// [0, len(positions)).
var ErrPositionOutOfRange = errors.New("links: selector position out of range")

// Selector is an N-to-one mux across a set of potential "position" nodes
// (spec §3): exactly one position node is conductively joined to the common
// node at a time, selected by an externally commanded index; every other
// position sees zero conductance. It has P = len(positions) + 1 ports: the
// positions first, in declaration order, then the common node last.
type Selector struct {
	name     string
	ports    []int
	common   node.Interface
	position []node.Interface
	blockage link.Blockage

	conductance float64
	selected    int

	potentials []float64
	stamp      link.Stamp
	prevA      []float64
	dirty      bool

	flux []float64
}

// NewSelector constructs a Selector joining each of position (by node index
// and interface, in parallel slices) to common through conductance when
// selected. Returns ErrEmptyName, ErrNoPositions, or ErrNegativeConductance.
func NewSelector(name string, positionPorts []int, position []node.Interface, commonPort int, common node.Interface, conductance float64) (*Selector, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(position) == 0 || len(positionPorts) != len(position) {
		return nil, ErrNoPositions
	}
	if conductance < 0 {
		return nil, ErrNegativeConductance
	}
	ports := make([]int, 0, len(positionPorts)+1)
	ports = append(ports, positionPorts...)
	ports = append(ports, commonPort)

	return &Selector{
		name:        name,
		ports:       ports,
		common:      common,
		position:    position,
		conductance: conductance,
		selected:    0,
		stamp:       link.NewStamp(len(ports)),
		flux:        make([]float64, len(position)),
	}, nil
}

// SetPosition commands which position node is conductively joined to common.
// Returns ErrPositionOutOfRange if idx is outside the configured set.
func (s *Selector) SetPosition(idx int) error {
	if idx < 0 || idx >= len(s.position) {
		return ErrPositionOutOfRange
	}
	s.selected = idx
	return nil
}

// Position returns the currently selected position index.
func (s *Selector) Position() int { return s.selected }

// SetBlockage installs the fractional flow-reducing malfunction (spec §3),
// applied to the selected conductance.
func (s *Selector) SetBlockage(b link.Blockage) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.blockage = b
	return nil
}

func (s *Selector) Name() string                          { return s.name }
func (s *Selector) Ports() []int                           { return s.ports }
func (s *Selector) Stamp() link.Stamp                      { return s.stamp }
func (s *Selector) AdmittanceDirty() bool                  { return s.dirty }

// PortDirections reports DirectionNone for every position and the common
// port: the selector itself imposes no directional constraint.
func (s *Selector) PortDirections() []netsim.PortDirection {
	dirs := make([]netsim.PortDirection, len(s.ports))
	for i := range dirs {
		dirs[i] = netsim.DirectionNone
	}
	return dirs
}

func (s *Selector) SetPotentials(p []float64) {
	s.potentials = append(s.potentials[:0], p...)
}

// Step stamps a symmetric conductance between the selected position port
// and the common port, zero everywhere else.
func (s *Selector) Step(dt float64) error {
	n := len(s.ports)
	next := link.NewStamp(n)
	g := effectiveConductance(s.conductance, s.blockage)
	commonIdx := n - 1
	next.Set(s.selected, s.selected, g)
	next.Set(commonIdx, commonIdx, g)
	next.Set(s.selected, commonIdx, -g)
	next.Set(commonIdx, s.selected, -g)

	if s.prevA == nil {
		s.dirty = true
	} else {
		s.dirty = false
		for i := range next.A {
			d := next.A[i] - s.prevA[i]
			if d < -netsim.Epsilon || d > netsim.Epsilon {
				s.dirty = true
				break
			}
		}
	}
	s.prevA = append(s.prevA[:0], next.A...)
	s.stamp = next
	return nil
}

// ComputeFlows derives flux between the selected position and common from
// the accepted potentials; unselected positions carry zero flux.
func (s *Selector) ComputeFlows(dt float64) error {
	g := effectiveConductance(s.conductance, s.blockage)
	commonIdx := len(s.ports) - 1
	for i := range s.position {
		if i != s.selected {
			s.flux[i] = 0
			continue
		}
		flux := g * (s.potentials[i] - s.potentials[commonIdx])
		s.flux[i] = flux
		if flux >= 0 {
			if err := s.position[i].CollectOutflux(flux); err != nil {
				return err
			}
			if err := s.common.CollectInflux(flux); err != nil {
				return err
			}
			continue
		}
		if err := s.common.CollectOutflux(-flux); err != nil {
			return err
		}
		if err := s.position[i].CollectInflux(-flux); err != nil {
			return err
		}
	}
	return nil
}

// Flux returns the most recently computed flux for position i (positive
// from position i to common); always 0 for an unselected position.
func (s *Selector) Flux(i int) float64 { return s.flux[i] }

func (s *Selector) RestartModel() {
	s.prevA = nil
	s.dirty = true
}

// OffsetPorts shifts every port index by offset (spec §5 sub-network
// embedding), mirroring twoPort.OffsetPorts for the wider N-port selector.
func (s *Selector) OffsetPorts(offset int) {
	for i := range s.ports {
		s.ports[i] += offset
	}
}

var _ link.Link = (*Selector)(nil)
