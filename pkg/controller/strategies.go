package controller

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/raterudder/energysim/pkg/log"
	"github.com/raterudder/energysim/pkg/types"
)

// Constant always returns the same action. A zero Constant leaves the battery
// idle and the grid covers every imbalance.
type Constant struct {
	action float64
}

// NewConstant validates action and returns a Constant.
func NewConstant(action float64) (Constant, error) {
	if err := checkAction("constant action", action); err != nil {
		return Constant{}, err
	}
	return Constant{action: action}, nil
}

func (c Constant) Name() string { return "constant" }

// Action implements Controller.
func (c Constant) Action(ctx context.Context, obs Observation) (float64, error) {
	return c.action, nil
}

// SelfConsumption stores surplus PV and discharges into any deficit, sized so
// that the battery alone would close the gap. The engine's SoC clamp decides
// how much actually flows.
type SelfConsumption struct{}

func (SelfConsumption) Name() string { return "self_consumption" }

// Action implements Controller.
func (SelfConsumption) Action(ctx context.Context, obs Observation) (float64, error) {
	net := obs.NetKW()
	var action float64
	switch {
	case net < 0:
		if obs.Specs.MaxChargeKW <= 0 {
			return 0, nil
		}
		action = math.Min(-net/obs.Specs.MaxChargeKW, 1)
	case net > 0:
		if obs.Specs.MaxDischargeKW <= 0 {
			return 0, nil
		}
		action = -math.Min(net/obs.Specs.MaxDischargeKW, 1)
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"self consumption action",
		slog.Int("timestep", obs.Timestep),
		slog.Float64("netKW", net),
		slog.Float64("soc", obs.SOC),
		slog.Float64("action", action),
	)
	return action, nil
}

// ScheduleParams describes a daily charge window and discharge window.
type ScheduleParams struct {
	ChargeStart string // "HH:MM"
	// ChargeEnd defaults to DischargeStart.
	ChargeEnd      string
	DischargeStart string // "HH:MM"
	// DischargeEnd defaults to ChargeStart.
	DischargeEnd string
	// ChargeAction and DischargeAction are magnitudes in (0, 1]. Zero means 1.
	ChargeAction    float64
	DischargeAction float64
}

// Schedule charges inside its charge window, discharges inside its discharge
// window and idles otherwise. Windows are [start, end) on a 24h clock and wrap
// across midnight when start > end. The charge window wins if they overlap.
type Schedule struct {
	params ScheduleParams

	csMins int
	ceMins int
	dsMins int
	deMins int
}

// NewSchedule parses the windows in p.
func NewSchedule(p ScheduleParams) (*Schedule, error) {
	cs, err := parseHHMM(p.ChargeStart)
	if err != nil {
		return nil, fmt.Errorf("charge start: %w", err)
	}
	ds, err := parseHHMM(p.DischargeStart)
	if err != nil {
		return nil, fmt.Errorf("discharge start: %w", err)
	}
	if cs == ds {
		return nil, fmt.Errorf("charge and discharge windows both start at %s: %w", p.ChargeStart, types.ErrInvalidInput)
	}
	ce := ds
	if strings.TrimSpace(p.ChargeEnd) != "" {
		if ce, err = parseHHMM(p.ChargeEnd); err != nil {
			return nil, fmt.Errorf("charge end: %w", err)
		}
	}
	de := cs
	if strings.TrimSpace(p.DischargeEnd) != "" {
		if de, err = parseHHMM(p.DischargeEnd); err != nil {
			return nil, fmt.Errorf("discharge end: %w", err)
		}
	}

	if p.ChargeAction == 0 {
		p.ChargeAction = 1
	}
	if p.DischargeAction == 0 {
		p.DischargeAction = 1
	}
	p.ChargeAction = math.Abs(p.ChargeAction)
	p.DischargeAction = math.Abs(p.DischargeAction)
	if err := checkAction("charge action", p.ChargeAction); err != nil {
		return nil, err
	}
	if err := checkAction("discharge action", p.DischargeAction); err != nil {
		return nil, err
	}

	return &Schedule{
		params: p,
		csMins: cs,
		ceMins: ce,
		dsMins: ds,
		deMins: de,
	}, nil
}

func (s *Schedule) Name() string { return "schedule" }

// Action implements Controller.
func (s *Schedule) Action(ctx context.Context, obs Observation) (float64, error) {
	mins := obs.TS.Hour()*60 + obs.TS.Minute()
	if inWindow(mins, s.csMins, s.ceMins) {
		return s.params.ChargeAction, nil
	}
	if inWindow(mins, s.dsMins, s.deMins) {
		return -s.params.DischargeAction, nil
	}
	return 0, nil
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// inWindow reports whether mins is in [start, end). Equal bounds are empty.
func inWindow(mins, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return mins >= start && mins < end
	}
	return mins >= start || mins < end
}

var (
	_ Controller = Constant{}
	_ Controller = SelfConsumption{}
	_ Controller = (*Schedule)(nil)
)
