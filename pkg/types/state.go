package types

// SystemState is a snapshot of the site after a timestep. The engine never
// mutates a state in place; every step returns a new value.
type SystemState struct {
	Timestep int     `json:"timestep"`
	SOC      float64 `json:"soc"` // 0-1, within [MinSOC, MaxSOC]

	PVKW      float64 `json:"pvKW"`
	LoadKW    float64 `json:"loadKW"`
	BatteryKW float64 `json:"batteryKW"` // positive for charging, negative for discharging
	GridKW    float64 `json:"gridKW"`    // positive for import, negative for export

	// Running totals, never reset mid-run
	TotalCostDollars    float64 `json:"totalCostDollars"`
	TotalRevenueDollars float64 `json:"totalRevenueDollars"`
	BatteryCycles       float64 `json:"batteryCycles"`
	UnmetLoadKWH        float64 `json:"unmetLoadKWH"`
	ExcessPVKWH         float64 `json:"excessPVKWH"`
}

// InitialState returns the timestep 0 state for specs at the given SoC.
func InitialState(specs ComponentSpecs, soc float64) (SystemState, error) {
	if err := CheckSOCBounds(specs.MinSOC, specs.MaxSOC); err != nil {
		return SystemState{}, err
	}
	if !finite(soc) || soc < specs.MinSOC || soc > specs.MaxSOC {
		return SystemState{}, invalidf("initial soc %v outside [%v, %v]", soc, specs.MinSOC, specs.MaxSOC)
	}
	return SystemState{SOC: soc}, nil
}

// IsCharging reports whether the battery was absorbing power.
func (s SystemState) IsCharging() bool {
	return s.BatteryKW > 0
}

// IsDischarging reports whether the battery was supplying power.
func (s SystemState) IsDischarging() bool {
	return s.BatteryKW < 0
}

// IsImporting reports whether power flowed in from the grid.
func (s SystemState) IsImporting() bool {
	return s.GridKW > 0
}

// IsExporting reports whether power flowed out to the grid.
func (s SystemState) IsExporting() bool {
	return s.GridKW < 0
}

// NetCost is the cumulative cost minus the cumulative revenue.
func (s SystemState) NetCost() float64 {
	return s.TotalCostDollars - s.TotalRevenueDollars
}
