package physics

import (
	"fmt"
	"math"

	"github.com/raterudder/energysim/pkg/types"
)

// ConservationToleranceKW is the largest energy-balance error accepted without
// a warning, one watt for the timestep.
const ConservationToleranceKW = 1e-3

// DefaultDeltaHours is the default timestep length.
const DefaultDeltaHours = 1.0

// PVConverter converts weather into AC power.
type PVConverter interface {
	PVPower(in PVInput) (float64, error)
}

// BatteryModel advances a battery by one timestep.
type BatteryModel interface {
	Simulate(in BatteryInput) (types.BatteryResult, error)
}

// Stepper advances a whole site by one timestep.
type Stepper interface {
	Step(prior types.SystemState, specs types.ComponentSpecs, in types.StepInputs) (types.SystemState, *ConservationWarning, error)
}

// PVFunc adapts a function to PVConverter.
type PVFunc func(in PVInput) (float64, error)

// PVPower calls f.
func (f PVFunc) PVPower(in PVInput) (float64, error) {
	return f(in)
}

// BatteryFunc adapts a function to BatteryModel.
type BatteryFunc func(in BatteryInput) (types.BatteryResult, error)

// Simulate calls f.
func (f BatteryFunc) Simulate(in BatteryInput) (types.BatteryResult, error) {
	return f(in)
}

// Engine is the deterministic site model. It holds only immutable
// configuration, so one Engine can step any number of independent runs
// concurrently.
type Engine struct {
	pv         PVConverter
	battery    BatteryModel
	tariff     types.Tariff
	deltaHours float64
}

// Option configures an Engine.
type Option func(e *Engine)

// WithTariff sets the import/export prices.
func WithTariff(t types.Tariff) Option {
	return func(e *Engine) { e.tariff = t }
}

// WithDeltaHours sets the timestep length.
func WithDeltaHours(h float64) Option {
	return func(e *Engine) { e.deltaHours = h }
}

// WithPVConverter replaces the PV model.
func WithPVConverter(pv PVConverter) Option {
	return func(e *Engine) { e.pv = pv }
}

// WithBatteryModel replaces the battery model.
func WithBatteryModel(b BatteryModel) Option {
	return func(e *Engine) { e.battery = b }
}

// NewEngine creates an Engine with the default tariff and a one hour
// timestep unless overridden.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		pv:         PVFunc(CalculatePVPower),
		battery:    BatteryFunc(SimulateBattery),
		tariff:     types.DefaultTariff(),
		deltaHours: DefaultDeltaHours,
	}
	for _, o := range opts {
		o(e)
	}
	if err := e.tariff.Validate(); err != nil {
		return nil, err
	}
	if err := types.CheckPositive("timestep", e.deltaHours); err != nil {
		return nil, err
	}
	if e.pv == nil || e.battery == nil {
		return nil, invalidf("pv and battery models are required")
	}
	return e, nil
}

// Tariff returns the engine's tariff.
func (e *Engine) Tariff() types.Tariff {
	return e.tariff
}

// DeltaHours returns the engine's timestep length.
func (e *Engine) DeltaHours() float64 {
	return e.deltaHours
}

// PVPower runs the engine's PV model.
func (e *Engine) PVPower(in PVInput) (float64, error) {
	return e.pv.PVPower(in)
}

// Simulate runs the engine's battery model.
func (e *Engine) Simulate(in BatteryInput) (types.BatteryResult, error) {
	return e.battery.Simulate(in)
}

// Step returns the state following prior given one timestep of inputs.
//
// The battery request is ControlAction scaled against the charge limit (when
// positive) or the discharge limit (when negative). The grid covers whatever
// remains:
//
//	grid = load − pv + battery
//
// so a charging battery adds to demand and a discharging one offsets it. A
// non-nil ConservationWarning accompanies a valid state when the energy
// balance misses by more than ConservationToleranceKW.
func (e *Engine) Step(prior types.SystemState, specs types.ComponentSpecs, in types.StepInputs) (types.SystemState, *ConservationWarning, error) {
	if err := specs.Validate(); err != nil {
		return types.SystemState{}, nil, err
	}
	if err := in.Validate(); err != nil {
		return types.SystemState{}, nil, err
	}

	pvKW, err := e.pv.PVPower(PVInputFromSpecs(specs, in.GHI, in.TemperatureC))
	if err != nil {
		return types.SystemState{}, nil, err
	}

	requestKW := in.ControlAction * specs.MaxChargeKW
	if in.ControlAction < 0 {
		requestKW = in.ControlAction * specs.MaxDischargeKW
	}
	battery, err := e.battery.Simulate(BatteryInputFromSpecs(specs, prior.SOC, requestKW, e.deltaHours))
	if err != nil {
		return types.SystemState{}, nil, err
	}
	if battery.NewSOC < specs.MinSOC || battery.NewSOC > specs.MaxSOC || math.IsNaN(battery.NewSOC) {
		return types.SystemState{}, nil, fmt.Errorf("battery model returned soc %v outside [%v, %v]", battery.NewSOC, specs.MinSOC, specs.MaxSOC)
	}

	gridKW := in.LoadKW - pvKW + battery.PowerKW

	var stepCost, stepRevenue, exportKWH float64
	if gridKW > 0 {
		stepCost = gridKW * e.deltaHours * e.tariff.ImportDollarsPerKWH
	} else if gridKW < 0 {
		exportKWH = -gridKW * e.deltaHours
		stepRevenue = exportKWH * e.tariff.ExportDollarsPerKWH
	}

	next := types.SystemState{
		Timestep:            prior.Timestep + 1,
		SOC:                 battery.NewSOC,
		PVKW:                pvKW,
		LoadKW:              in.LoadKW,
		BatteryKW:           battery.PowerKW,
		GridKW:              gridKW,
		TotalCostDollars:    prior.TotalCostDollars + stepCost,
		TotalRevenueDollars: prior.TotalRevenueDollars + stepRevenue,
		BatteryCycles:       prior.BatteryCycles + math.Abs(battery.PowerKW)*e.deltaHours/(2*specs.BatteryCapacityKWH),
		// the grid has unlimited capacity so no load goes unmet
		UnmetLoadKWH: prior.UnmetLoadKWH,
		ExcessPVKWH:  prior.ExcessPVKWH + exportKWH,
	}

	warn := CheckConservation(pvKW, in.LoadKW, battery.PowerKW, gridKW)
	if warn != nil {
		warn.Timestep = next.Timestep
	}
	return next, warn, nil
}

// CheckConservation compares the power entering the site bus (pv, battery
// discharge, grid import) with the power leaving it (load, battery charge,
// grid export) and returns a warning if they differ by more than
// ConservationToleranceKW.
func CheckConservation(pvKW, loadKW, batteryKW, gridKW float64) *ConservationWarning {
	var dischargeKW, chargeKW, importKW, exportKW float64
	if batteryKW < 0 {
		dischargeKW = -batteryKW
	} else {
		chargeKW = batteryKW
	}
	if gridKW > 0 {
		importKW = gridKW
	} else {
		exportKW = -gridKW
	}

	w := &ConservationWarning{
		InKW:  pvKW + dischargeKW + importKW,
		OutKW: loadKW + chargeKW + exportKW,
	}
	if w.ErrorKW() > ConservationToleranceKW || math.IsNaN(w.ErrorKW()) {
		return w
	}
	return nil
}

var (
	_ PVConverter  = (*Engine)(nil)
	_ BatteryModel = (*Engine)(nil)
	_ Stepper      = (*Engine)(nil)
)
