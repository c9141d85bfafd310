package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/raterudder/energysim/pkg/types"
)

// Observation is what a controller sees before each timestep.
type Observation struct {
	Timestep int
	TS       time.Time
	SOC      float64
	// PVKW is the array's output for the coming timestep given its weather.
	PVKW   float64
	LoadKW float64
	Specs  types.ComponentSpecs
}

// NetKW is load minus PV. Positive means a deficit the battery or grid must
// cover.
func (o Observation) NetKW() float64 {
	return o.LoadKW - o.PVKW
}

// Controller picks the battery control action for each timestep.
type Controller interface {
	// Name identifies the strategy in logs and stored runs.
	Name() string
	// Action returns a value in [-1, 1]: positive charges at that fraction
	// of the charge limit, negative discharges at that fraction of the
	// discharge limit.
	Action(ctx context.Context, obs Observation) (float64, error)
}

// Config selects and parameterizes a Controller.
type Config struct {
	// Name is "constant", "self_consumption" or "schedule".
	Name string `json:"name" yaml:"name"`

	// Action is the fixed action of a constant controller.
	Action float64 `json:"action,omitempty" yaml:"action,omitempty"`

	// Schedule windows as HH:MM in the timestep's location.
	ChargeStart     string  `json:"chargeStart,omitempty" yaml:"charge_start,omitempty"`
	ChargeEnd       string  `json:"chargeEnd,omitempty" yaml:"charge_end,omitempty"`
	DischargeStart  string  `json:"dischargeStart,omitempty" yaml:"discharge_start,omitempty"`
	DischargeEnd    string  `json:"dischargeEnd,omitempty" yaml:"discharge_end,omitempty"`
	ChargeAction    float64 `json:"chargeAction,omitempty" yaml:"charge_action,omitempty"`
	DischargeAction float64 `json:"dischargeAction,omitempty" yaml:"discharge_action,omitempty"`
}

// New returns the Controller described by c. An empty name selects
// self-consumption.
func New(c Config) (Controller, error) {
	switch c.Name {
	case "constant":
		k, err := NewConstant(c.Action)
		if err != nil {
			return nil, err
		}
		return k, nil
	case "", "self_consumption":
		return SelfConsumption{}, nil
	case "schedule":
		s, err := NewSchedule(ScheduleParams{
			ChargeStart:     c.ChargeStart,
			ChargeEnd:       c.ChargeEnd,
			DischargeStart:  c.DischargeStart,
			DischargeEnd:    c.DischargeEnd,
			ChargeAction:    c.ChargeAction,
			DischargeAction: c.DischargeAction,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown controller: %s", c.Name)
	}
}

func checkAction(field string, v float64) error {
	if err := types.CheckFinite(field, v); err != nil {
		return err
	}
	if v < -1 || v > 1 {
		return fmt.Errorf("%s must be in [-1, 1], got %v: %w", field, v, types.ErrInvalidInput)
	}
	return nil
}
