package types

// BatteryResult is what happened to the battery during one timestep.
type BatteryResult struct {
	NewSOC float64 `json:"newSOC"`
	// PowerKW is the achieved flow at the terminals after rate and SoC
	// clamping. Positive for charging, negative for discharging.
	PowerKW           float64 `json:"powerKW"`
	EnergyStoredKWH   float64 `json:"energyStoredKWH"`   // added to the cell
	EnergyRemovedKWH  float64 `json:"energyRemovedKWH"`  // taken from the cell
	EfficiencyLossKWH float64 `json:"efficiencyLossKWH"` // terminal energy minus cell energy change
}

// IsCharging reports whether the battery absorbed power.
func (r BatteryResult) IsCharging() bool {
	return r.PowerKW > 0
}

// IsDischarging reports whether the battery supplied power.
func (r BatteryResult) IsDischarging() bool {
	return r.PowerKW < 0
}

// IsIdle reports whether no power crossed the terminals.
func (r BatteryResult) IsIdle() bool {
	return r.PowerKW == 0
}
