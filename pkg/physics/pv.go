package physics

import (
	"github.com/raterudder/energysim/pkg/types"
)

// Standard test conditions for PV modules.
const (
	STCIrradiance   = 1000.0 // W/m²
	STCTemperatureC = 25.0

	// CellTemperatureOffsetC approximates cell temperature as ambient plus a
	// fixed offset. Accurate to roughly ±5%.
	CellTemperatureOffsetC = 20.0
)

// PVInput holds everything needed to convert irradiance into AC power.
type PVInput struct {
	GHI                    float64 // W/m²
	TemperatureC           float64 // ambient
	CapacityKW             float64
	PanelEfficiency        float64
	TemperatureCoefficient float64 // per °C
	InverterEfficiency     float64
}

// PVInputFromSpecs builds a PVInput for the given weather from specs.
func PVInputFromSpecs(specs types.ComponentSpecs, ghi, temperatureC float64) PVInput {
	return PVInput{
		GHI:                    ghi,
		TemperatureC:           temperatureC,
		CapacityKW:             specs.PVCapacityKW,
		PanelEfficiency:        specs.PanelEfficiency,
		TemperatureCoefficient: specs.TemperatureCoefficient,
		InverterEfficiency:     specs.InverterEfficiency,
	}
}

// Validate rejects negative irradiance and out-of-range component values. The
// temperature coefficient only needs to be finite.
func (in PVInput) Validate() error {
	if err := types.CheckNonNegative("ghi", in.GHI); err != nil {
		return err
	}
	if err := types.CheckFinite("temperature", in.TemperatureC); err != nil {
		return err
	}
	if err := types.CheckPositive("pv capacity", in.CapacityKW); err != nil {
		return err
	}
	if err := types.CheckFraction("panel efficiency", in.PanelEfficiency); err != nil {
		return err
	}
	if err := types.CheckFraction("inverter efficiency", in.InverterEfficiency); err != nil {
		return err
	}
	if err := types.CheckFinite("temperature coefficient", in.TemperatureCoefficient); err != nil {
		return err
	}
	return nil
}

// CalculatePVPower returns the AC output (kW) of the array:
//
//	capacity × (ghi / 1000) × inverter_eff × (1 + temp_coeff × (T_cell − 25))
//
// with T_cell = ambient + 20°C. Panel efficiency is already folded into the
// rated capacity and is only validated. The temperature factor is floored at
// zero so extreme heat yields no power rather than negative power.
func CalculatePVPower(in PVInput) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if in.GHI == 0 {
		return 0, nil
	}

	cellTemperature := in.TemperatureC + CellTemperatureOffsetC
	tempFactor := 1 + in.TemperatureCoefficient*(cellTemperature-STCTemperatureC)
	if tempFactor < 0 {
		tempFactor = 0
	}

	return in.CapacityKW * (in.GHI / STCIrradiance) * in.InverterEfficiency * tempFactor, nil
}
