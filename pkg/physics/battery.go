package physics

import (
	"math"

	"github.com/raterudder/energysim/pkg/types"
)

// BatteryInput is a request to move power in or out of the battery for one
// timestep.
type BatteryInput struct {
	CurrentSOC float64
	// DemandKW is the requested terminal power. Positive charges the battery,
	// negative discharges it, zero leaves it idle.
	DemandKW       float64
	CapacityKWH    float64
	MaxChargeKW    float64
	MaxDischargeKW float64
	Efficiency     float64
	DeltaHours     float64
	MinSOC         float64
	MaxSOC         float64
}

// BatteryInputFromSpecs builds a BatteryInput for a request against specs.
func BatteryInputFromSpecs(specs types.ComponentSpecs, soc, demandKW, deltaHours float64) BatteryInput {
	return BatteryInput{
		CurrentSOC:     soc,
		DemandKW:       demandKW,
		CapacityKWH:    specs.BatteryCapacityKWH,
		MaxChargeKW:    specs.MaxChargeKW,
		MaxDischargeKW: specs.MaxDischargeKW,
		Efficiency:     specs.BatteryEfficiency,
		DeltaHours:     deltaHours,
		MinSOC:         specs.MinSOC,
		MaxSOC:         specs.MaxSOC,
	}
}

// Validate rejects inputs that describe an impossible battery.
func (in BatteryInput) Validate() error {
	if err := types.CheckFraction("battery efficiency", in.Efficiency); err != nil {
		return err
	}
	if err := types.CheckPositive("battery capacity", in.CapacityKWH); err != nil {
		return err
	}
	if err := types.CheckSOCBounds(in.MinSOC, in.MaxSOC); err != nil {
		return err
	}
	if err := types.CheckPositive("battery charge limit", in.MaxChargeKW); err != nil {
		return err
	}
	if err := types.CheckPositive("battery discharge limit", in.MaxDischargeKW); err != nil {
		return err
	}
	if err := types.CheckPositive("timestep", in.DeltaHours); err != nil {
		return err
	}
	if err := types.CheckFinite("power demand", in.DemandKW); err != nil {
		return err
	}
	if math.IsNaN(in.CurrentSOC) || in.CurrentSOC < in.MinSOC || in.CurrentSOC > in.MaxSOC {
		return invalidf("current soc %v outside [%v, %v]", in.CurrentSOC, in.MinSOC, in.MaxSOC)
	}
	return nil
}

// SimulateBattery advances the battery by one timestep.
//
// The request is first clamped to [-MaxDischargeKW, MaxChargeKW] and then to
// the power that keeps SoC within [MinSOC, MaxSOC]; the tighter of the two
// wins. A request that would overshoot a SoC bound is reduced, not rejected.
// Charging stores power×dt×efficiency in the cell. Discharging removes
// |power|×dt/efficiency from the cell, so the cell loses more than it
// delivers.
func SimulateBattery(in BatteryInput) (types.BatteryResult, error) {
	if err := in.Validate(); err != nil {
		return types.BatteryResult{}, err
	}

	powerKW := min(max(in.DemandKW, -in.MaxDischargeKW), in.MaxChargeKW)
	res := types.BatteryResult{NewSOC: in.CurrentSOC}

	switch {
	case powerKW > 0:
		headroomKWH := (in.MaxSOC - in.CurrentSOC) * in.CapacityKWH
		feasibleKW := max(headroomKWH/(in.DeltaHours*in.Efficiency), 0)
		powerKW = min(powerKW, feasibleKW)

		terminalKWH := powerKW * in.DeltaHours
		res.PowerKW = powerKW
		res.EnergyStoredKWH = terminalKWH * in.Efficiency
		res.EfficiencyLossKWH = terminalKWH - res.EnergyStoredKWH
		res.NewSOC = in.CurrentSOC + res.EnergyStoredKWH/in.CapacityKWH
	case powerKW < 0:
		availableKWH := (in.CurrentSOC - in.MinSOC) * in.CapacityKWH
		feasibleKW := max(availableKWH*in.Efficiency/in.DeltaHours, 0)
		dischargeKW := min(-powerKW, feasibleKW)
		if dischargeKW == 0 {
			break
		}

		terminalKWH := dischargeKW * in.DeltaHours
		res.PowerKW = -dischargeKW
		res.EnergyRemovedKWH = terminalKWH / in.Efficiency
		res.EfficiencyLossKWH = res.EnergyRemovedKWH - terminalKWH
		res.NewSOC = in.CurrentSOC - res.EnergyRemovedKWH/in.CapacityKWH
	}

	// floating point can land a hair outside the bounds
	res.NewSOC = min(max(res.NewSOC, in.MinSOC), in.MaxSOC)
	return res, nil
}
