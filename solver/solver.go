package solver

import (
	"errors"

	"github.com/flowmesh/netsim"
	"github.com/flowmesh/netsim/island"
	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
)

// Sentinel errors for Solver construction and stepping.
var (
	// ErrNoNodes indicates New was given an empty node slice.
	ErrNoNodes = errors.New("solver: network has no nodes")

	// ErrEmptyName indicates Config.Name was left empty.
	ErrEmptyName = errors.New("solver: config name is empty")
)

// Option configures a Config via functional options, following this
// module's ambient configuration convention (panics on programmer-error
// inputs, mirrors the teacher's builder.BuilderOption style).
type Option func(*Config)

// Config holds the recognized solver configuration (spec §6).
type Config struct {
	Name                 string
	ConvergenceTolerance float64
	MinLinearDiagonal    float64
	MaxMinorSteps        int
	DecompositionLimit   int
}

// DefaultConfig returns a Config with spec §6's documented defaults for the
// given diagnostic name.
func DefaultConfig(name string) Config {
	return Config{
		Name:                 name,
		ConvergenceTolerance: netsim.DefaultConvergenceTolerance,
		MinLinearDiagonal:    netsim.DefaultMinLinearDiagonal,
		MaxMinorSteps:        netsim.DefaultMaxMinorSteps,
		DecompositionLimit:   0, // 0 means "no limit" until WithDecompositionLimit is set
	}
}

// WithConvergenceTolerance overrides the per-node successive-change
// threshold. Panics if tol <= 0.
func WithConvergenceTolerance(tol float64) Option {
	if tol <= 0 {
		panic("solver: convergence tolerance must be > 0")
	}
	return func(c *Config) { c.ConvergenceTolerance = tol }
}

// WithMinLinearDiagonal overrides the singular-matrix detection threshold.
// Panics if v <= 0.
func WithMinLinearDiagonal(v float64) Option {
	if v <= 0 {
		panic("solver: min linear diagonal must be > 0")
	}
	return func(c *Config) { c.MinLinearDiagonal = v }
}

// WithMaxMinorSteps overrides the non-linear iteration cap. Panics if n <= 0.
func WithMaxMinorSteps(n int) Option {
	if n <= 0 {
		panic("solver: max minor steps must be > 0")
	}
	return func(c *Config) { c.MaxMinorSteps = n }
}

// WithDecompositionLimit overrides the maximum island size before the
// solver would switch algorithms (reserved for larger networks; this
// module's dense per-island factorization handles every island size the
// shipped link variants exercise). Panics if n <= 0.
func WithDecompositionLimit(n int) Option {
	if n <= 0 {
		panic("solver: decomposition limit must be > 0")
	}
	return func(c *Config) { c.DecompositionLimit = n }
}

// StepReport summarizes the outcome of one Solver.Step call, for callers
// that want to observe convergence behavior (e.g. a Spotter).
type StepReport struct {
	// MinorSteps is the number of minor-step iterations executed.
	MinorSteps int
	// ConvergedStep is the final converged-step counter value.
	ConvergedStep int
	// Converged is true iff the loop ended via Confirm rather than the
	// MaxMinorSteps cap.
	Converged bool
	// SingularIslands lists the island IDs whose factorization was
	// declared singular this step (p held constant for those islands).
	SingularIslands []int
}

// Solver is the Network Solver (spec §4.8): it assembles A, factorizes per
// island, solves for p, and runs the major/minor-step non-linear iteration
// loop. It borrows node potentials and link stamps for the duration of a
// Step call and does not retain pointers beyond it, other than the node and
// link slices themselves (owned by the network, per spec §3's ownership
// model).
type Solver struct {
	cfg         Config
	nodes       []node.Interface
	links       []link.Link
	groundIndex int
	islands     []*island.Island

	// onFault, if non-nil, is invoked for every Singular/NonConvergence
	// Fault raised during Step — the explicit logger-handle seam this
	// module uses instead of a global message bus (spec §9).
	onFault func(*netsim.Fault)
}

// SolverOption configures non-numeric Solver behavior at construction.
type SolverOption func(*Solver)

// WithFaultHandler installs a callback invoked with every Fault raised
// during Step, in place of a direct logging dependency.
func WithFaultHandler(fn func(*netsim.Fault)) SolverOption {
	return func(s *Solver) { s.onFault = fn }
}

// New constructs a Solver for the given nodes and links. The last node is
// treated as Ground (spec §3: "index equals num_nodes - 1"). Returns
// ErrEmptyName or ErrNoNodes on invalid input.
func New(cfg Config, nodes []node.Interface, links []link.Link, opts ...SolverOption) (*Solver, error) {
	if cfg.Name == "" {
		return nil, ErrEmptyName
	}
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}
	s := &Solver{
		cfg:         cfg,
		nodes:       nodes,
		links:       links,
		groundIndex: len(nodes) - 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.islands = island.Decompose(len(nodes), s.groundIndex, links, netsim.Epsilon)
	return s, nil
}

// Islands returns the solver's current island decomposition.
func (s *Solver) Islands() []*island.Island { return s.islands }

func (s *Solver) fault(f *netsim.Fault) {
	if s.onFault != nil {
		s.onFault(f)
	}
}

// Step executes one major time step of duration dt (spec §2, §4.8):
// resetting per-step state, stamping every link's contribution, assembling
// and factorizing each island, and running the non-linear minor-step loop
// to convergence or MaxMinorSteps. It does not call ComputeFlows or
// IntegrateFlows; spec §4.6 assigns that to the Flow Orchestrator, invoked
// by the network after Step returns.
func (s *Solver) Step(dt float64) (StepReport, error) {
	for _, n := range s.nodes {
		n.ResetFlows()
	}

	if err := s.stampAll(dt); err != nil {
		return StepReport{}, err
	}

	anyDirty := false
	for _, l := range s.links {
		if l.AdmittanceDirty() {
			anyDirty = true
			break
		}
	}
	if anyDirty || s.islands == nil {
		s.islands = island.Decompose(len(s.nodes), s.groundIndex, s.links, netsim.Epsilon)
	}

	potentials := s.currentPotentials()
	report, err := s.solveAndIterate(dt, potentials)
	if err != nil {
		return report, err
	}

	s.writePotentials(potentials)
	s.applyPressureCorrections(potentials)
	s.writePotentials(potentials)

	return report, nil
}

// currentPotentials snapshots every node's current potential into a flat
// slice indexed the same way as the node slice, used as the minor-step
// loop's working and rollback state.
func (s *Solver) currentPotentials() []float64 {
	p := make([]float64, len(s.nodes))
	for i, n := range s.nodes {
		p[i] = n.Potential()
	}
	return p
}

func (s *Solver) writePotentials(p []float64) {
	for i, n := range s.nodes {
		_ = n.SetPotential(p[i])
	}
	s.broadcastPotentials(p)
}

// broadcastPotentials hands each link its own ports' potentials, in port
// order, per the Link.SetPotentials contract.
func (s *Solver) broadcastPotentials(p []float64) {
	for _, l := range s.links {
		ports := l.Ports()
		view := make([]float64, len(ports))
		for i, idx := range ports {
			view[i] = p[idx]
		}
		l.SetPotentials(view)
	}
}

func (s *Solver) applyPressureCorrections(p []float64) {
	for i, n := range s.nodes {
		p[i] += n.PressureCorrection()
	}
}

// stampAll calls Step(dt) on every link in registration order (spec §5:
// "link step(dt) is called in registration order").
func (s *Solver) stampAll(dt float64) error {
	for _, l := range s.links {
		if err := l.Step(dt); err != nil {
			return err
		}
	}
	return nil
}

// solveAndIterate assembles+factorizes+solves each island, then — if any
// link is non-linear or trip-aware — runs the minor-step loop described in
// spec §2 step 2 and §4.8 step 6. p is mutated in place and also returned.
func (s *Solver) solveAndIterate(dt float64, p []float64) (StepReport, error) {
	report := StepReport{}

	nonLinear := s.nonLinearLinks()
	tripAware := s.tripAwareLinks()

	if err := s.solveIslands(p, &report); err != nil {
		return report, err
	}
	s.broadcastPotentials(p)

	if len(nonLinear) == 0 && len(tripAware) == 0 {
		report.Converged = true
		return report, nil
	}

	convergedStep := 0
	accepted := append([]float64(nil), p...)

	for minorIdx := 0; minorIdx < s.cfg.MaxMinorSteps; minorIdx++ {
		report.MinorSteps = minorIdx + 1

		worst := netsim.Confirm
		for _, nl := range nonLinear {
			worst = worst.Worst(nl.ConfirmSolutionAcceptable(convergedStep, minorIdx))
		}
		for _, ta := range tripAware {
			worst = worst.Worst(ta.VerifyTimeToTrip(convergedStep))
		}

		switch worst {
		case netsim.Confirm:
			report.Converged = true
			report.ConvergedStep = convergedStep
			copy(p, accepted)
			s.broadcastPotentials(p)
			return report, nil

		case netsim.Reject:
			copy(p, accepted)
			convergedStep = 0
			for _, nl := range nonLinear {
				if err := nl.MinorStep(dt, minorIdx); err != nil {
					return report, err
				}
			}
			if err := s.stampAll(dt); err != nil {
				return report, err
			}
			if err := s.solveIslands(p, &report); err != nil {
				return report, err
			}
			s.broadcastPotentials(p)

		case netsim.Delay:
			if s.converged(accepted, p) {
				convergedStep++
			} else {
				convergedStep = 0
			}
			copy(accepted, p)
			for _, nl := range nonLinear {
				if err := nl.MinorStep(dt, minorIdx); err != nil {
					return report, err
				}
			}
			if err := s.stampAll(dt); err != nil {
				return report, err
			}
			if err := s.solveIslands(p, &report); err != nil {
				return report, err
			}
			s.broadcastPotentials(p)
		}
	}

	report.Converged = false
	report.ConvergedStep = convergedStep
	s.fault(netsim.NewFault(netsim.KindNonConvergence, s.cfg.Name, nil))
	copy(p, accepted)
	return report, nil
}

// converged reports whether every non-Ground potential changed by less
// than ConvergenceTolerance between prev and next.
func (s *Solver) converged(prev, next []float64) bool {
	for i := range next {
		if i == s.groundIndex {
			continue
		}
		d := next[i] - prev[i]
		if d < 0 {
			d = -d
		}
		if d >= s.cfg.ConvergenceTolerance {
			return false
		}
	}
	return true
}

func (s *Solver) nonLinearLinks() []link.NonLinear {
	var out []link.NonLinear
	for _, l := range s.links {
		if nl, ok := l.(link.NonLinear); ok {
			out = append(out, nl)
		}
	}
	return out
}

func (s *Solver) tripAwareLinks() []link.TripAware {
	var out []link.TripAware
	for _, l := range s.links {
		if ta, ok := l.(link.TripAware); ok {
			out = append(out, ta)
		}
	}
	return out
}

// solveIslands assembles and factorizes each island's dense sub-matrix and
// writes its solved sub-vector back into p. A singular island holds its
// members' entries of p unchanged and records a KindSingular Fault rather
// than aborting the whole step (spec §7: "p is held constant for the step;
// execution continues").
func (s *Solver) solveIslands(p []float64, report *StepReport) error {
	for _, isl := range s.islands {
		n := len(isl.Nodes)
		if n == 0 {
			continue
		}
		index := make(map[int]int, n)
		for local, global := range isl.Nodes {
			index[global] = local
		}

		a, err := newDense(n)
		if err != nil {
			return err
		}
		w := make([]float64, n)

		for _, l := range s.links {
			ports := l.Ports()
			stamp := l.Stamp()
			for pi, gi := range ports {
				li, ok := index[gi]
				if !ok {
					continue
				}
				w[li] += stamp.W[pi]
				for pj, gj := range ports {
					lj, ok2 := index[gj]
					if !ok2 {
						continue
					}
					a.add(li, lj, stamp.At(pi, pj))
				}
			}
		}

		fact := factorize(a, s.cfg.MinLinearDiagonal)
		if fact.singular {
			report.SingularIslands = append(report.SingularIslands, isl.ID)
			s.fault(netsim.NewFault(netsim.KindSingular, s.cfg.Name, nil))
			continue
		}

		x := fact.solve(w)
		for local, global := range isl.Nodes {
			p[global] = x[local]
		}
	}
	return nil
}
