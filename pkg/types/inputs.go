package types

// StepInputs are the exogenous inputs for one timestep.
type StepInputs struct {
	GHI           float64 `json:"ghi"`          // W/m²
	TemperatureC  float64 `json:"temperatureC"` // ambient
	LoadKW        float64 `json:"loadKW"`
	ControlAction float64 `json:"controlAction"` // -1 (discharge at limit) to 1 (charge at limit)
}

// NewStepInputs validates the inputs and returns them.
func NewStepInputs(ghi, temperatureC, loadKW, controlAction float64) (StepInputs, error) {
	in := StepInputs{
		GHI:           ghi,
		TemperatureC:  temperatureC,
		LoadKW:        loadKW,
		ControlAction: controlAction,
	}
	if err := in.Validate(); err != nil {
		return StepInputs{}, err
	}
	return in, nil
}

// Validate checks the inputs without clamping anything.
func (in StepInputs) Validate() error {
	if err := CheckNonNegative("ghi", in.GHI); err != nil {
		return err
	}
	if err := CheckFinite("temperature", in.TemperatureC); err != nil {
		return err
	}
	if err := CheckNonNegative("load demand", in.LoadKW); err != nil {
		return err
	}
	if !finite(in.ControlAction) || in.ControlAction < -1 || in.ControlAction > 1 {
		return invalidf("control action must be in [-1, 1], got %v", in.ControlAction)
	}
	return nil
}
