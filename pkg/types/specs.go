package types

// Defaults for component specifications.
const (
	DefaultPanelEfficiency        = 0.20
	DefaultBatteryEfficiency      = 0.95
	DefaultInverterEfficiency     = 0.98
	DefaultTemperatureCoefficient = -0.004
	DefaultMinSOC                 = 0.1
	DefaultMaxSOC                 = 0.9
	DefaultInitialSOC             = 0.5

	// DefaultRoofM2PerKW is the panel area one kW of PV occupies.
	DefaultRoofM2PerKW = 5.0
)

// ComponentSpecs describes the PV array, inverter and battery of a site. It is
// supplied once per simulation run and never mutated.
type ComponentSpecs struct {
	PVCapacityKW           float64 `json:"pvCapacityKW" yaml:"pv_capacity_kw"`
	PanelEfficiency        float64 `json:"panelEfficiency" yaml:"panel_efficiency"`
	InverterEfficiency     float64 `json:"inverterEfficiency" yaml:"inverter_efficiency"`
	TemperatureCoefficient float64 `json:"temperatureCoefficient" yaml:"temperature_coefficient"` // per °C, expected negative

	BatteryCapacityKWH float64 `json:"batteryCapacityKWH" yaml:"battery_capacity_kwh"`
	MaxChargeKW        float64 `json:"maxChargeKW" yaml:"max_charge_kw"`
	MaxDischargeKW     float64 `json:"maxDischargeKW" yaml:"max_discharge_kw"`
	BatteryEfficiency  float64 `json:"batteryEfficiency" yaml:"battery_efficiency"` // round-trip
	MinSOC             float64 `json:"minSOC" yaml:"min_soc"`                       // 0-1
	MaxSOC             float64 `json:"maxSOC" yaml:"max_soc"`                       // 0-1
	InitialSOC         float64 `json:"initialSOC" yaml:"initial_soc"`               // 0-1
}

// DefaultComponentSpecs returns specs for a PV array of pvKW and a battery of
// batteryKWH whose charge and discharge limits are both batteryKW. Every other
// field takes its default.
func DefaultComponentSpecs(pvKW, batteryKWH, batteryKW float64) ComponentSpecs {
	return ComponentSpecs{
		PVCapacityKW:           pvKW,
		PanelEfficiency:        DefaultPanelEfficiency,
		InverterEfficiency:     DefaultInverterEfficiency,
		TemperatureCoefficient: DefaultTemperatureCoefficient,
		BatteryCapacityKWH:     batteryKWH,
		MaxChargeKW:            batteryKW,
		MaxDischargeKW:         batteryKW,
		BatteryEfficiency:      DefaultBatteryEfficiency,
		MinSOC:                 DefaultMinSOC,
		MaxSOC:                 DefaultMaxSOC,
		InitialSOC:             DefaultInitialSOC,
	}
}

// NewComponentSpecs validates s and returns it.
func NewComponentSpecs(s ComponentSpecs) (ComponentSpecs, error) {
	if err := s.Validate(); err != nil {
		return ComponentSpecs{}, err
	}
	return s, nil
}

// Validate checks every field of the specs.
func (s ComponentSpecs) Validate() error {
	if err := CheckPositive("pv capacity", s.PVCapacityKW); err != nil {
		return err
	}
	if err := CheckFraction("panel efficiency", s.PanelEfficiency); err != nil {
		return err
	}
	if err := CheckFraction("inverter efficiency", s.InverterEfficiency); err != nil {
		return err
	}
	if err := CheckFinite("temperature coefficient", s.TemperatureCoefficient); err != nil {
		return err
	}
	if err := CheckPositive("battery capacity", s.BatteryCapacityKWH); err != nil {
		return err
	}
	if err := CheckPositive("battery charge limit", s.MaxChargeKW); err != nil {
		return err
	}
	if err := CheckPositive("battery discharge limit", s.MaxDischargeKW); err != nil {
		return err
	}
	if err := CheckFraction("battery efficiency", s.BatteryEfficiency); err != nil {
		return err
	}
	if err := CheckSOCBounds(s.MinSOC, s.MaxSOC); err != nil {
		return err
	}
	if !finite(s.InitialSOC) || s.InitialSOC < s.MinSOC || s.InitialSOC > s.MaxSOC {
		return invalidf("initial soc %v outside [%v, %v]", s.InitialSOC, s.MinSOC, s.MaxSOC)
	}
	return nil
}

// CapitalCost returns the installed cost of the PV array and battery.
func (s ComponentSpecs) CapitalCost(pvDollarsPerKW, batteryDollarsPerKWH float64) float64 {
	return s.PVCapacityKW*pvDollarsPerKW + s.BatteryCapacityKWH*batteryDollarsPerKWH
}

// RoofArea returns the roof area (m²) the PV array needs.
func (s ComponentSpecs) RoofArea(m2PerKW float64) float64 {
	return s.PVCapacityKW * m2PerKW
}
