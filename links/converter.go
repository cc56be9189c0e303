package links

import (
	"errors"

	"github.com/flowmesh/netsim"
	"github.com/flowmesh/netsim/link"
	"github.com/flowmesh/netsim/node"
	"github.com/flowmesh/netsim/tripmgr"
)

// RegulatorType selects a Converter Output's regulation law (spec §4.3).
type RegulatorType int

const (
	// RegulatorVoltage holds the output at Setpoint.
	RegulatorVoltage RegulatorType = iota
	// RegulatorCurrent holds the output current at Setpoint.
	RegulatorCurrent
	// RegulatorPower holds the output power at Setpoint (I = sqrt(P/Rload)).
	RegulatorPower
	// RegulatorTransformer scales Setpoint by the paired Input's sensed
	// input voltage rather than holding a fixed setpoint.
	RegulatorTransformer
)

// LimitState is a Converter Output's current regulation-limit state.
type LimitState int

const (
	LimitNone LimitState = iota
	LimitOV
	LimitUV
	LimitOC
)

func (s LimitState) String() string {
	switch s {
	case LimitOV:
		return "LIMIT_OV"
	case LimitUV:
		return "LIMIT_UV"
	case LimitOC:
		return "LIMIT_OC"
	default:
		return "NO_LIMIT"
	}
}

// ErrInvalidStateFlipsLimit indicates a non-positive state-flip cap.
var ErrInvalidStateFlipsLimit = errors.New("links: state flips limit must be > 0")

// TripLimit is one trip sub-logic's configuration (spec §4.3): a threshold
// and the priority its Trip Manager fires at.
type TripLimit struct {
	Threshold float64
	Priority  int
}

// ConverterOutput is the regulated source side of a converter pair (spec
// §4.3). It is NonLinear (its regulation law and limit state can require
// several minor steps to settle) and TripAware (it hosts OV/UV/OC trips).
type ConverterOutput struct {
	twoPort

	enabled       bool
	regulatorType RegulatorType
	setpoint      float64
	loadConductance float64 // small conductance aiding convergence when open-circuited

	input *ConverterInput

	reverseBias      bool
	reverseBiasFlips int

	limitState      LimitState
	limitStateFlips int
	stateFlipsLimit int

	ovLimit, uvLimit, ocLimit TripLimit
	ovTrip, uvTrip, ocTrip    *tripmgr.Manager

	flux float64
}

// NewConverterOutput constructs a ConverterOutput. stateFlipsLimit must be
// > 0 (testable property 4 bounds reverse_bias_flips by this same cap).
func NewConverterOutput(name string, portOut, portRet int, out, ret node.Interface, regulatorType RegulatorType, setpoint, loadConductance float64, stateFlipsLimit int) (*ConverterOutput, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if stateFlipsLimit <= 0 {
		return nil, ErrInvalidStateFlipsLimit
	}
	return &ConverterOutput{
		twoPort:         newTwoPort(name, portOut, portRet, out, ret),
		enabled:         true,
		regulatorType:   regulatorType,
		setpoint:        setpoint,
		loadConductance: loadConductance,
		stateFlipsLimit: stateFlipsLimit,
	}, nil
}

// ConverterOutputConfig is ConverterOutput's immutable configuration (spec
// §9's Config+Input triad): its regulation law and load/flip-cap fixed for
// its lifetime.
type ConverterOutputConfig struct {
	link.Config
	RegulatorType   RegulatorType
	LoadConductance float64
	StateFlipsLimit int
	OV, UV, OC      TripLimit
}

// ConverterOutputInput is ConverterOutput's mutable initial state: its
// regulation setpoint.
type ConverterOutputInput struct {
	Setpoint float64
}

// NewConverterOutputFromConfig constructs a ConverterOutput from its
// Config+Input pair (spec §9), an alternative to NewConverterOutput for
// callers assembling link configuration data-driven rather than as inline
// constructor arguments. It also applies cfg's trip limits via
// SetTripLimits, folding what would otherwise be a second call into
// construction.
func NewConverterOutputFromConfig(cfg ConverterOutputConfig, in ConverterOutputInput, out, ret node.Interface) (*ConverterOutput, error) {
	if len(cfg.Ports) != 2 {
		return nil, link.ErrPortCountMismatch
	}
	c, err := NewConverterOutput(cfg.Name, cfg.Ports[0], cfg.Ports[1], out, ret, cfg.RegulatorType, in.Setpoint, cfg.LoadConductance, cfg.StateFlipsLimit)
	if err != nil {
		return nil, err
	}
	if err := c.SetTripLimits(cfg.OV, cfg.UV, cfg.OC); err != nil {
		return nil, err
	}
	return c, nil
}

// SetTripLimits configures the OV/UV/OC trip sub-logic. A zero-value
// TripLimit.Priority leaves that trip disabled.
func (c *ConverterOutput) SetTripLimits(ov, uv, oc TripLimit) error {
	c.ovLimit, c.uvLimit, c.ocLimit = ov, uv, oc
	var err error
	if ov.Priority > 0 {
		if c.ovTrip, err = tripmgr.New(ov.Priority); err != nil {
			return err
		}
	}
	if uv.Priority > 0 {
		if c.uvTrip, err = tripmgr.New(uv.Priority); err != nil {
			return err
		}
	}
	if oc.Priority > 0 {
		if c.ocTrip, err = tripmgr.New(oc.Priority); err != nil {
			return err
		}
	}
	return nil
}

// SetInput attaches the companion Converter Input so the Transformer
// regulator can scale Setpoint by its sensed input voltage.
func (c *ConverterOutput) SetInput(in *ConverterInput) { c.input = in }

// SetEnabled enables or disables the regulator (disabled contributes zero
// admittance and source, as if the link were open).
func (c *ConverterOutput) SetEnabled(enabled bool) { c.enabled = enabled }

// GetLimitState returns the current regulation-limit state.
func (c *ConverterOutput) GetLimitState() LimitState { return c.limitState }

// ReverseBiasFlips returns the number of forward<->reverse transitions this
// major step, bounded by stateFlipsLimit (testable property 4).
func (c *ConverterOutput) ReverseBiasFlips() int { return c.reverseBiasFlips }

// TimeToTrip reports whether any of the OC/OV/UV trip sub-logics has fired,
// letting callers (e.g. a network's telemetry collection) detect a trip
// event uniformly across link variants without knowing which sub-logic
// fired.
func (c *ConverterOutput) TimeToTrip() bool {
	return (c.ocTrip != nil && c.ocTrip.TimeToTrip()) ||
		(c.ovTrip != nil && c.ovTrip.TimeToTrip()) ||
		(c.uvTrip != nil && c.uvTrip.TimeToTrip())
}

func (c *ConverterOutput) effectiveSetpoint() float64 {
	if c.regulatorType == RegulatorTransformer && c.input != nil {
		return c.setpoint * c.input.sensedInputVoltage
	}
	return c.setpoint
}

// Step establishes the linear baseline stamp for the first minor step.
func (c *ConverterOutput) Step(dt float64) error {
	c.limitStateFlips = 0
	c.reverseBiasFlips = 0
	c.assembleStamp()
	return nil
}

// MinorStep re-assembles the stamp after a limit-state or reverse-bias
// transition changed the regulation law.
func (c *ConverterOutput) MinorStep(dt float64, minorIdx int) error {
	c.assembleStamp()
	return nil
}

func (c *ConverterOutput) assembleStamp() {
	if !c.enabled {
		c.setStamp(0, 0, 0, netsim.Epsilon)
		return
	}
	if c.reverseBias {
		c.setStamp(c.loadConductance, 0, 0, netsim.Epsilon)
		return
	}

	switch {
	case c.limitState == LimitOC || c.regulatorType == RegulatorCurrent:
		current := c.ocLimit.Threshold
		if c.regulatorType == RegulatorCurrent {
			current = c.setpoint
		}
		// Current source: w contributes +/-current, a small conductance to
		// ground aids convergence when open-circuited.
		c.setStamp(c.loadConductance, current, -current, netsim.Epsilon)
	case c.regulatorType == RegulatorPower:
		rLoad := 1.0
		if c.loadConductance > 0 {
			rLoad = 1 / c.loadConductance
		}
		current := 0.0
		if c.setpoint > 0 && rLoad > 0 {
			current = sqrtApprox(c.setpoint / rLoad)
		}
		c.setStamp(c.loadConductance, current, -current, netsim.Epsilon)
	default: // Voltage, Transformer
		const bigG = 1000.0
		v := c.effectiveSetpoint()
		c.setStamp(bigG, bigG*v, -bigG*v, netsim.Epsilon)
	}
}

// sqrtApprox avoids importing math solely for one call site's sqrt; kept as
// a thin wrapper so a future constant-power regulator refinement can swap
// algorithms without touching call sites.
func sqrtApprox(x float64) float64 {
	if x <= 0 {
		return 0
	}
	z := x
	for i := 0; i < 20; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

// ConfirmSolutionAcceptable senses the operating point and walks the
// limit-state and reverse-bias state machines, returning Reject whenever a
// transition occurs (spec §4.3: "each transition sets Reject"), Delay on an
// unconverged solution, and Confirm otherwise.
func (c *ConverterOutput) ConfirmSolutionAcceptable(convergedStep, absoluteStep int) netsim.SolutionResult {
	voltage := c.potentials[0] - c.potentials[1]
	current := c.senseCurrent(voltage)

	transitioned := false

	if c.regulatorType == RegulatorVoltage || c.regulatorType == RegulatorTransformer {
		wantReverse := voltage > c.effectiveSetpoint()
		if wantReverse != c.reverseBias {
			allowed := !wantReverse || convergedStep > 0 // forward->reverse only on a converged step
			if allowed && c.reverseBiasFlips < c.stateFlipsLimit {
				c.reverseBias = wantReverse
				c.reverseBiasFlips++
				transitioned = true
			}
		}
		if c.limitState == LimitNone && c.ocLimit.Priority > 0 && current > c.ocLimit.Threshold {
			c.setLimitState(LimitOC)
			transitioned = true
		} else if c.limitState == LimitOC && voltage > c.effectiveSetpoint() {
			c.setLimitState(LimitNone)
			transitioned = true
		}
	} else {
		switch {
		case c.limitState == LimitNone && c.ovLimit.Priority > 0 && voltage > c.ovLimit.Threshold:
			c.setLimitState(LimitOV)
			transitioned = true
		case c.limitState == LimitNone && c.uvLimit.Priority > 0 && voltage < c.uvLimit.Threshold:
			c.setLimitState(LimitUV)
			transitioned = true
		case c.limitState != LimitNone && voltage <= c.ovLimit.Threshold && voltage >= c.uvLimit.Threshold:
			c.setLimitState(LimitNone)
			transitioned = true
		}
	}

	if transitioned {
		return netsim.Reject
	}
	if convergedStep == 0 {
		return netsim.Delay
	}
	return netsim.Confirm
}

func (c *ConverterOutput) setLimitState(s LimitState) {
	if c.limitStateFlips < c.stateFlipsLimit {
		c.limitState = s
		c.limitStateFlips++
	}
}

func (c *ConverterOutput) senseCurrent(voltage float64) float64 {
	g := c.loadConductance
	if c.limitState == LimitOC {
		return c.ocLimit.Threshold
	}
	return g * voltage
}

// VerifyTimeToTrip polls whichever trip sub-logic is active (priority gates
// across OV/UV/OC independently; the solver sees the worst of all three via
// SolutionResult.Worst).
func (c *ConverterOutput) VerifyTimeToTrip(convergedStep int) netsim.SolutionResult {
	result := netsim.Confirm
	voltage := c.potentials[0] - c.potentials[1]
	current := c.senseCurrent(voltage)

	if c.ocTrip != nil {
		c.ocTrip.SetTripCondition(current > c.ocLimit.Threshold)
		result = result.Worst(c.ocTrip.VerifyTimeToTrip(convergedStep))
	}
	if c.ovTrip != nil {
		c.ovTrip.SetTripCondition(voltage > c.ovLimit.Threshold)
		result = result.Worst(c.ovTrip.VerifyTimeToTrip(convergedStep))
	}
	if c.uvTrip != nil {
		c.uvTrip.SetTripCondition(voltage < c.uvLimit.Threshold)
		result = result.Worst(c.uvTrip.VerifyTimeToTrip(convergedStep))
	}
	if result == netsim.Reject {
		c.enabled = false
	}
	return result
}

func (c *ConverterOutput) ComputeFlows(dt float64) error {
	voltage := c.potentials[0] - c.potentials[1]
	c.flux = c.senseCurrent(voltage)
	if c.flux >= 0 {
		if err := c.a.CollectOutflux(c.flux); err != nil {
			return err
		}
		return c.b.CollectInflux(c.flux)
	}
	if err := c.b.CollectOutflux(-c.flux); err != nil {
		return err
	}
	return c.a.CollectInflux(-c.flux)
}

func (c *ConverterOutput) RestartModel() {
	c.twoPort.RestartModel()
	c.reverseBias = false
	c.reverseBiasFlips = 0
	c.limitState = LimitNone
	c.limitStateFlips = 0
	if c.ovTrip != nil {
		c.ovTrip.Reset()
	}
	if c.uvTrip != nil {
		c.uvTrip.Reset()
	}
	if c.ocTrip != nil {
		c.ocTrip.Reset()
	}
}

// ConverterInput is the companion demand-side half of a converter pair
// (spec §4.3): it senses its own input voltage for the paired Output's
// Transformer regulator, and accepts the Output's power draw.
type ConverterInput struct {
	name string

	sensedInputVoltage float64
	inputPower         float64
	leadsInterface     bool
}

// NewConverterInput constructs a ConverterInput. leadsInterface marks
// whichever side of the pair initializes last, per spec §4.3: it pulls data
// from the other side each step instead of relying on sequential ordering.
func NewConverterInput(name string, leadsInterface bool) (*ConverterInput, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	return &ConverterInput{name: name, leadsInterface: leadsInterface}, nil
}

// Name returns the Converter Input's stable diagnostic identifier.
func (in *ConverterInput) Name() string { return in.name }

// ComputeInputVoltage reports the Input side's current sensed input
// voltage to its paired Output, called each step the interface is driven.
func (in *ConverterInput) ComputeInputVoltage(sensed float64) float64 {
	in.sensedInputVoltage = sensed
	return in.sensedInputVoltage
}

// SetInputPower accepts an updated power draw from the paired Output.
func (in *ConverterInput) SetInputPower(p float64) { in.inputPower = p }

// InputPower returns the last power draw reported by the paired Output.
func (in *ConverterInput) InputPower() float64 { return in.inputPower }

// LeadsInterface reports whether this side pulls data from its pair rather
// than relying on registration-order sequencing.
func (in *ConverterInput) LeadsInterface() bool { return in.leadsInterface }

var (
	_ link.NonLinear = (*ConverterOutput)(nil)
	_ link.TripAware = (*ConverterOutput)(nil)
)
