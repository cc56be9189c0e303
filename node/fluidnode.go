package node

import (
	"errors"
	"math"
)

// Sentinel errors specific to FluidNode.
var (
	// ErrNegativeVolume indicates SetVolume was given a negative value.
	ErrNegativeVolume = errors.New("node: volume must be >= 0")

	// ErrTraceIndexOutOfRange indicates a trace-compound index outside the
	// configured composition.
	ErrTraceIndexOutOfRange = errors.New("node: trace compound index out of range")
)

// EquationOfState is the external collaborator a FluidNode calls into for
// density and temperature relationships. The concrete fluid thermodynamics
// library (PolyFluid, trace compound chemistry) is out of this module's
// scope per spec §1; this interface is the seam the core touches it
// through, matching spec §9's guidance to model external collaborators as
// explicit interfaces rather than reaching into a concrete physics library.
type EquationOfState interface {
	// Density returns fluid density (mass/volume) at the given pressure,
	// temperature, and composition.
	Density(pressure, temperature float64, composition Composition) (float64, error)

	// Temperature is the inverse lookup compute_temperature(h) from spec
	// §4.4: given specific enthalpy and composition, returns temperature.
	Temperature(specificEnthalpy float64, composition Composition) (float64, error)

	// IsentropicDeltaT returns the temperature delta from isentropic
	// expansion/compression as pressure moves from pPrev to p, scaled by
	// expansionScale in [0,1] (1 = fully isentropic, 0 = none).
	IsentropicDeltaT(expansionScale, pPrev, p float64, composition Composition) float64
}

// Composition maps trace-compound name to mass fraction. A nil or empty
// Composition means a single-compound (bulk-only) fluid.
type Composition map[string]float64

// Clone returns a deep copy of c.
func (c Composition) Clone() Composition {
	if c == nil {
		return nil
	}
	out := make(Composition, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// FluidContent is the mutable bulk fluid state of a FluidNode (spec §3's
// mContent): mass, pressure, temperature, specific enthalpy, and trace
// composition.
type FluidContent struct {
	Mass              float64
	Pressure          float64
	Temperature       float64
	SpecificEnthalpy  float64
	Composition       Composition
}

// FluidNode extends Node with a mutable bulk fluid state, transient
// accumulation fluids, trace-compound flows, a volume, and mass-error
// tracking with an adaptive pressure-correction gain (spec §3, §4.4).
type FluidNode struct {
	Node

	eos EquationOfState

	// Content is the node's current bulk fluid state (mContent).
	Content FluidContent

	// inflow / outflow are the transient accumulation fluids (mInflow,
	// mOutflow) collected over the current step by attached links.
	inflow  FluidContent
	outflow FluidContent

	// tcInflow holds standalone additive trace-compound flows (mTcInflow)
	// applied alongside the proportional mixing rule.
	tcInflow Composition

	// volume is 0 for a non-capacitive, pass-through node (its fluid
	// properties become those of the inflow).
	volume float64

	// prevPressure / prevTemperature / prevVolume are snapshotted at the
	// start of IntegrateFlows, before this step's mixing is applied.
	prevPressure    float64
	prevTemperature float64
	prevVolume      float64

	// thermalCapacitance and thermalSource are the per-step contributions
	// computed per spec §4.4 step 1 (c_t and c_t·(T-T_prev)).
	thermalCapacitance float64
	thermalSource      float64

	// compressionSource is the per-step compression contribution c_v from
	// spec §4.4 step 2.
	compressionSource float64

	// thermalDampingMass blends new enthalpy toward a mixture-at-old-T
	// baseline when > 0 (spec §4.4 step 3).
	thermalDampingMass float64

	// expansionScale in [0,1] scales the isentropic expansion delta-T.
	expansionScale float64

	// massError and pressureCorrection implement the mass-washback loop
	// from spec §4.1/§4.4 step 4.
	massError          float64
	prevMassErrorSign  int
	pressureCorrection float64
	correctGain        float64

	// molarMass is the fluid's molar mass, used by the thermal/compression
	// source computations and the mass-error/density check.
	molarMass float64

	// warn is called when IntegrateFlows detects the solver-scheduled
	// outflux exceeded available mass (spec §4.4 step 3); nil is a no-op.
	// This replaces a direct logging dependency with an explicit handle,
	// per this module's ambient logging convention (spec §9: pass an
	// explicit logger handle into Initialize rather than reach a global bus).
	warn conservationWarningFn
}

// conservationWarningFn is called when IntegrateFlows detects the
// solver-scheduled outflux exceeded available mass (spec §4.4 step 3).
type conservationWarningFn func(nodeName string, requested, available float64)

// NewFluid constructs a FluidNode with the given stable name, equation of
// state, molar mass, and initial volume. Returns ErrEmptyName or
// ErrNegativeVolume.
func NewFluid(name string, eos EquationOfState, molarMass, volume float64) (*FluidNode, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if volume < 0 {
		return nil, ErrNegativeVolume
	}
	return &FluidNode{
		Node:        Node{Name: name},
		eos:         eos,
		volume:      volume,
		molarMass:   molarMass,
		correctGain: 0.1,
	}, nil
}

// SetConservationWarningFunc installs the callback invoked when scheduled
// outflux exceeds mass on hand.
func (f *FluidNode) SetConservationWarningFunc(fn conservationWarningFn) { f.warn = fn }

// SetPotential writes the node's potential and, since a fluid node's
// potential is its pressure (spec §3), mirrors it into Content.Pressure so
// the solver's admittance-solved value reaches the equation-of-state and
// mass-error computations the next time IntegrateFlows/ComputeThermalCapacitance/
// ComputeCompressionSource run (matches the original source's
// GunnsFluidNode::setPotential, which updates mContent's pressure alongside
// the base node potential).
func (f *FluidNode) SetPotential(p float64) error {
	if err := f.Node.SetPotential(p); err != nil {
		return err
	}
	if f.IsGround() {
		return nil
	}
	f.Content.Pressure = p
	return nil
}

// Volume returns the node's current volume. 0 means non-capacitive /
// pass-through: the node's fluid properties become those of the inflow.
func (f *FluidNode) Volume() float64 { return f.volume }

// SetVolume sets the node's volume. Returns ErrNegativeVolume if v < 0.
func (f *FluidNode) SetVolume(v float64) error {
	if v < 0 {
		return ErrNegativeVolume
	}
	f.volume = v
	return nil
}

// SetExpansionScale stores the isentropic expansion scale factor as given.
// It neither clamps nor rejects values outside [0,1], and nothing else in
// this module checks the stored value.
func (f *FluidNode) SetExpansionScale(scale float64) { f.expansionScale = scale }

// MassError returns the most recently computed mass-conservation error.
func (f *FluidNode) MassError() float64 { return f.massError }

// PressureCorrection returns the most recently computed pressure
// correction; the solver adds this to p on the next step (spec §4.8 step 7).
func (f *FluidNode) PressureCorrection() float64 { return f.pressureCorrection }

// CollectFluidInflux mixes rate (mass/time) of the given fluid content into
// this step's inflow accumulator, weighted by dt at IntegrateFlows time.
// The scalar CollectInflux/CollectOutflux on the embedded Node still track
// generic flux magnitudes for Kirchhoff bookkeeping; this carries the
// accompanying thermal state.
func (f *FluidNode) CollectFluidInflux(rate float64, content FluidContent) error {
	if rate < 0 {
		return ErrNegativeRate
	}
	f.inflow = mixRate(f.inflow, content, rate)
	return f.Node.CollectInflux(rate)
}

// CollectFluidOutflux records outgoing fluid flow; see CollectFluidInflux.
func (f *FluidNode) CollectFluidOutflux(rate float64, content FluidContent) error {
	if rate < 0 {
		return ErrNegativeRate
	}
	f.outflow = mixRate(f.outflow, content, rate)
	return f.Node.CollectOutflux(rate)
}

// mixRate folds an additional (rate, content) pair into an accumulator that
// tracks a rate-weighted content, used to build up inflow/outflow ahead of
// IntegrateFlows.
func mixRate(acc FluidContent, content FluidContent, rate float64) FluidContent {
	if rate <= 0 {
		return acc
	}
	totalRate := acc.Mass + rate
	if totalRate <= 0 {
		return acc
	}
	out := FluidContent{
		Mass:             totalRate,
		Pressure:         content.Pressure,
		Temperature:      (acc.Mass*acc.Temperature + rate*content.Temperature) / totalRate,
		SpecificEnthalpy: (acc.Mass*acc.SpecificEnthalpy + rate*content.SpecificEnthalpy) / totalRate,
		Composition:      mixComposition(acc.Composition, acc.Mass, content.Composition, rate),
	}
	return out
}

func mixComposition(a Composition, massA float64, b Composition, massB float64) Composition {
	if a == nil && b == nil {
		return nil
	}
	total := massA + massB
	if total <= 0 {
		return nil
	}
	out := make(Composition)
	keys := make(map[string]struct{})
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	for k := range keys {
		out[k] = (a[k]*massA + b[k]*massB) / total
	}
	return out
}

// AddTraceInflow registers a standalone additive trace-compound flow
// (mTcInflow from spec §4.4 step 3), applied on top of the proportional
// mixing rule during IntegrateFlows.
func (f *FluidNode) AddTraceInflow(compound string, massRate float64) error {
	if compound == "" {
		return ErrTraceIndexOutOfRange
	}
	if f.tcInflow == nil {
		f.tcInflow = make(Composition)
	}
	f.tcInflow[compound] += massRate
	return nil
}

// SetMolarMass configures the fluid's molar mass, used by the thermal and
// compression source computations and the mass-error/density check.
func (f *FluidNode) SetMolarMass(molarMass float64) { f.molarMass = molarMass }

// MolarMass returns the configured molar mass.
func (f *FluidNode) MolarMass() float64 { return f.molarMass }

// ComputeThermalCapacitance computes and stores c_t = (V/MW)*(drho/dT),
// evaluated by a +/-0.1% perturbation of T at constant P (spec §4.4 step 1),
// along with the accompanying thermal source c_t*(T - T_prev). Requires a
// molar mass > 0 (see SetMolarMass).
func (f *FluidNode) ComputeThermalCapacitance() error {
	if f.eos == nil || f.volume <= 0 || f.molarMass <= 0 {
		f.thermalCapacitance = 0
		f.thermalSource = 0
		return nil
	}
	const perturbation = 0.001
	tLow := f.Content.Temperature * (1 - perturbation)
	tHigh := f.Content.Temperature * (1 + perturbation)
	rhoLow, err := f.eos.Density(f.Content.Pressure, tLow, f.Content.Composition)
	if err != nil {
		return err
	}
	rhoHigh, err := f.eos.Density(f.Content.Pressure, tHigh, f.Content.Composition)
	if err != nil {
		return err
	}
	deltaT := tHigh - tLow
	if deltaT == 0 {
		f.thermalCapacitance = 0
	} else {
		f.thermalCapacitance = (f.volume / f.molarMass) * (rhoHigh - rhoLow) / deltaT
	}
	f.thermalSource = f.thermalCapacitance * (f.Content.Temperature - f.prevTemperature)
	return nil
}

// ComputeCompressionSource computes and stores c_v = rho*(V_prev - V)/MW
// (spec §4.4 step 2). Requires a molar mass > 0 (see SetMolarMass).
func (f *FluidNode) ComputeCompressionSource() error {
	if f.eos == nil || f.molarMass <= 0 {
		f.compressionSource = 0
		return nil
	}
	rho, err := f.eos.Density(f.Content.Pressure, f.Content.Temperature, f.Content.Composition)
	if err != nil {
		return err
	}
	f.compressionSource = rho * (f.prevVolume - f.volume) / f.molarMass
	return nil
}

// ThermalCapacitance returns the last computed c_t.
func (f *FluidNode) ThermalCapacitance() float64 { return f.thermalCapacitance }

// ThermalSource returns the last computed thermal source term.
func (f *FluidNode) ThermalSource() float64 { return f.thermalSource }

// CompressionSource returns the last computed compression source term.
func (f *FluidNode) CompressionSource() float64 { return f.compressionSource }

// SetThermalDampingMass configures the damping mass used to blend new
// enthalpy toward a mixture-at-old-T baseline (spec §4.4 step 3).
func (f *FluidNode) SetThermalDampingMass(m float64) { f.thermalDampingMass = m }

// IntegrateFlows performs the fluid-node step from spec §4.4 step 3-4: it
// determines scheduled outflux, mixes inflow into remaining content by
// mass-weighted average, applies trace-compound flows, derives new specific
// enthalpy (with thermal damping and isentropic expansion), inverts for
// temperature via the equation of state, and updates mass error and its
// filtered pressure correction. The conservation-warning callback installed
// via SetConservationWarningFunc, if any, is called on a conservation-warning
// condition (scheduled outflux exceeding mass on hand).
func (f *FluidNode) IntegrateFlows(dt float64) {
	f.Node.IntegrateFlows(dt)

	f.prevPressure = f.Content.Pressure
	f.prevTemperature = f.Content.Temperature
	f.prevVolume = f.volume

	if f.volume == 0 {
		// Pass-through node: properties become those of the inflow.
		if f.inflow.Mass > 0 {
			f.Content = f.inflow
		}
		f.resetTransients()
		f.massError = 0
		f.pressureCorrection = 0
		return
	}

	// Scheduled outflux, split into "from contents" vs "from through-flow",
	// capped at mass on hand.
	scheduled := f.ScheduledOutflux() * dt
	massOnHand := f.Content.Mass
	fromContents := math.Min(scheduled, massOnHand)
	if scheduled > massOnHand && f.warn != nil {
		f.warn(f.Name, scheduled, massOnHand)
	}
	remainingMass := massOnHand - fromContents

	oldMass := remainingMass
	oldEnthalpy := f.Content.SpecificEnthalpy
	oldComposition := f.Content.Composition

	// Mix inflow into remaining contents via mass-weighted average. The
	// inflow accumulator holds a rate; over dt it delivers rate*dt of mass.
	inflowMass := f.inflow.Mass * dt
	newMass := oldMass + inflowMass
	var newComposition Composition
	if newMass > 0 {
		newComposition = mixComposition(oldComposition, oldMass, f.inflow.Composition, inflowMass)
	}

	// Standalone additive trace-compound flows.
	if f.tcInflow != nil && newMass > 0 {
		if newComposition == nil {
			newComposition = make(Composition)
		}
		for compound, rate := range f.tcInflow {
			added := rate * dt
			existingMass := newComposition[compound] * newMass
			newComposition[compound] = (existingMass + added) / newMass
			if newComposition[compound] < 0 {
				newComposition[compound] = 0
			}
		}
	}

	// New specific enthalpy from net heat flux.
	netHeatFlux := f.thermalSource + f.compressionSource
	var newEnthalpy float64
	if newMass > 0 {
		newEnthalpy = (oldMass*oldEnthalpy + netHeatFlux*dt + inflowMass*f.inflow.SpecificEnthalpy) / newMass
		if f.thermalDampingMass > 0 {
			hMix := (oldMass*oldEnthalpy + inflowMass*f.inflow.SpecificEnthalpy) / newMass
			newEnthalpy = (newEnthalpy-hMix)*newMass/(newMass+f.thermalDampingMass) + hMix
		}
	}

	f.Content.Mass = newMass
	f.Content.Composition = newComposition
	f.Content.SpecificEnthalpy = newEnthalpy

	if f.eos != nil && newMass > 0 {
		if newT, err := f.eos.Temperature(newEnthalpy, newComposition); err == nil {
			deltaT := f.eos.IsentropicDeltaT(f.expansionScale, f.prevPressure, f.Content.Pressure, newComposition)
			f.Content.Temperature = newT + deltaT
		}
	}

	f.resetTransients()

	// Mass error and filtered pressure correction.
	if f.eos != nil && f.molarMass > 0 {
		if rho, err := f.eos.Density(f.Content.Pressure, f.Content.Temperature, f.Content.Composition); err == nil {
			f.massError = f.Content.Mass - rho*f.volume
			f.updatePressureCorrection()
		}
	}
}

func (f *FluidNode) resetTransients() {
	f.inflow = FluidContent{}
	f.outflow = FluidContent{}
	f.tcInflow = nil
}

// updatePressureCorrection implements spec §4.1's adaptive gain: halves on
// sign reversal, grows 1% otherwise, clamped to [1e-9, 1].
func (f *FluidNode) updatePressureCorrection() {
	const threshold = 1e-9
	const epsilon = 1e-9
	if math.Abs(f.massError) <= threshold {
		f.pressureCorrection = 0
		return
	}
	sign := 1
	if f.massError < 0 {
		sign = -1
	}
	if f.prevMassErrorSign != 0 && sign != f.prevMassErrorSign {
		f.correctGain /= 2
	} else {
		f.correctGain *= 1.01
	}
	if f.correctGain < epsilon {
		f.correctGain = epsilon
	}
	if f.correctGain > 1 {
		f.correctGain = 1
	}
	f.prevMassErrorSign = sign
	f.pressureCorrection = float64(sign) * f.correctGain * math.Abs(f.massError)
}
