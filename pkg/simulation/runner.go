package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/raterudder/energysim/pkg/controller"
	"github.com/raterudder/energysim/pkg/load"
	"github.com/raterudder/energysim/pkg/log"
	"github.com/raterudder/energysim/pkg/metrics"
	"github.com/raterudder/energysim/pkg/physics"
	"github.com/raterudder/energysim/pkg/storage"
	"github.com/raterudder/energysim/pkg/types"
	"github.com/raterudder/energysim/pkg/weather"
)

// ErrLengthMismatch is returned when weather and load disagree on the number
// of timesteps.
var ErrLengthMismatch = errors.New("weather and load lengths differ")

// Scenario is one simulation to run.
type Scenario struct {
	// ID is generated when empty.
	ID         string
	Name       string
	Specs      types.ComponentSpecs
	Start      time.Time
	Hours      int
	Weather    weather.Source
	Load       load.Generator
	Controller controller.Controller
	// FailOnWarning aborts the run at the first conservation warning.
	FailOnWarning bool
}

// Validate checks the scenario before any data is fetched.
func (s Scenario) Validate() error {
	if err := s.Specs.Validate(); err != nil {
		return err
	}
	if s.Hours <= 0 {
		return fmt.Errorf("hours must be positive, got %d: %w", s.Hours, types.ErrInvalidInput)
	}
	if s.Weather == nil || s.Load == nil || s.Controller == nil {
		return fmt.Errorf("weather, load and controller are required: %w", types.ErrInvalidInput)
	}
	return nil
}

// Result is a finished run.
type Result struct {
	Run      types.Run
	States   []types.SystemState
	Warnings []*physics.ConservationWarning
}

// Final returns the last state of the run.
func (r Result) Final() types.SystemState {
	if len(r.States) == 0 {
		return types.SystemState{}
	}
	return r.States[len(r.States)-1]
}

// Runner drives an Engine through a Scenario one timestep at a time.
type Runner struct {
	engine  *physics.Engine
	db      storage.Database
	metrics *metrics.Recorder
	now     func() time.Time
}

// Option configures a Runner.
type Option func(r *Runner)

// WithStorage persists every successful run to db.
func WithStorage(db storage.Database) Option {
	return func(r *Runner) { r.db = db }
}

// WithMetrics records step and run metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock replaces time.Now for run timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner returns a Runner around engine.
func NewRunner(engine *physics.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run simulates sc. Weather and load are hourly, so a run covers Hours in
// ceil(Hours/dt) steps and each step reads the sample for the hour it starts
// in. The context is checked between timesteps. Conservation
// warnings are logged and collected unless FailOnWarning is set, in which case
// the first one is returned as the error.
func (r *Runner) Run(ctx context.Context, sc Scenario) (Result, error) {
	began := r.now()
	ctrlName := "unknown"
	if sc.Controller != nil {
		ctrlName = sc.Controller.Name()
	}

	res, err := r.run(ctx, sc)
	elapsed := r.now().Sub(began)
	switch {
	case err == nil:
		final := res.Final()
		r.metrics.ObserveRun(ctrlName, metrics.ResultSuccess, elapsed, final.SOC, final.NetCost())
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		r.metrics.ObserveRun(ctrlName, metrics.ResultCanceled, elapsed, 0, 0)
	default:
		r.metrics.ObserveRun(ctrlName, metrics.ResultError, elapsed, 0, 0)
	}
	return res, err
}

func (r *Runner) run(ctx context.Context, sc Scenario) (Result, error) {
	if err := sc.Validate(); err != nil {
		return Result{}, err
	}
	id := sc.ID
	if id == "" {
		id = uuid.NewString()
	}
	ctx = log.WithRun(ctx, id)
	ctrlName := sc.Controller.Name()
	dt := r.engine.DeltaHours()

	points, err := sc.Weather.Hourly(ctx, sc.Start, sc.Hours)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get weather: %w", err)
	}
	profile, err := sc.Load.Generate(ctx, sc.Start, sc.Hours)
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate load: %w", err)
	}
	if len(points) != sc.Hours || profile.Hours() != sc.Hours {
		return Result{}, fmt.Errorf("%w: weather=%d load=%d hours=%d", ErrLengthMismatch, len(points), profile.Hours(), sc.Hours)
	}

	state, err := types.InitialState(sc.Specs, sc.Specs.InitialSOC)
	if err != nil {
		return Result{}, err
	}

	steps := stepCount(sc.Hours, dt)
	log.Ctx(ctx).InfoContext(
		ctx,
		"simulation started",
		slog.String("controller", ctrlName),
		slog.Int("hours", sc.Hours),
		slog.Int("steps", steps),
		slog.Float64("timestepHours", dt),
		slog.Float64("initialSOC", state.SOC),
	)

	res := Result{States: make([]types.SystemState, 0, steps)}
	for i := range steps {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		hour := sampleIndex(i, dt, sc.Hours)
		p := points[hour]

		pvKW, err := r.engine.PVPower(physics.PVInputFromSpecs(sc.Specs, p.GHI, p.TemperatureC))
		if err != nil {
			return Result{}, fmt.Errorf("timestep %d: %w", i+1, err)
		}
		obs := controller.Observation{
			Timestep: state.Timestep,
			TS:       stepTime(sc.Start, i, dt),
			SOC:      state.SOC,
			PVKW:     pvKW,
			LoadKW:   profile.At(hour),
			Specs:    sc.Specs,
		}
		action, err := sc.Controller.Action(ctx, obs)
		if err != nil {
			return Result{}, fmt.Errorf("controller %s at timestep %d: %w", ctrlName, i+1, err)
		}

		next, warn, err := r.engine.Step(state, sc.Specs, types.StepInputs{
			GHI:           p.GHI,
			TemperatureC:  p.TemperatureC,
			LoadKW:        obs.LoadKW,
			ControlAction: action,
		})
		if err != nil {
			return Result{}, fmt.Errorf("timestep %d: %w", i+1, err)
		}
		r.metrics.ObserveStep(ctrlName, warn != nil)
		if warn != nil {
			log.Ctx(ctx).WarnContext(
				ctx,
				"energy conservation violated",
				slog.Int("timestep", warn.Timestep),
				slog.Float64("inKW", warn.InKW),
				slog.Float64("outKW", warn.OutKW),
				slog.Float64("errorKW", warn.ErrorKW()),
			)
			if sc.FailOnWarning {
				return Result{}, warn
			}
			res.Warnings = append(res.Warnings, warn)
		}
		log.Ctx(ctx).DebugContext(
			ctx,
			"simulated timestep",
			slog.Int("timestep", next.Timestep),
			slog.Float64("action", action),
			slog.Float64("soc", next.SOC),
			slog.Float64("pvKW", next.PVKW),
			slog.Float64("batteryKW", next.BatteryKW),
			slog.Float64("gridKW", next.GridKW),
		)

		res.States = append(res.States, next)
		state = next
	}

	res.Run = types.Run{
		ID:            id,
		Version:       types.CurrentRunVersion,
		Name:          sc.Name,
		Controller:    ctrlName,
		Start:         sc.Start,
		TimestepHours: dt,
		Specs:         sc.Specs,
		Tariff:        r.engine.Tariff(),
		Steps:         len(res.States),
		Warnings:      len(res.Warnings),
		Metrics:       Summarize(res.States, dt),
		CreatedAt:     r.now(),
	}

	if r.db != nil {
		if err := r.db.SaveRun(ctx, res.Run, res.States); err != nil {
			return Result{}, fmt.Errorf("failed to save run: %w", err)
		}
	}

	m := res.Run.Metrics
	log.Ctx(ctx).InfoContext(
		ctx,
		"simulation finished",
		slog.Int("steps", res.Run.Steps),
		slog.Int("warnings", res.Run.Warnings),
		slog.Float64("finalSOC", state.SOC),
		slog.Float64("pvKWH", m.TotalPVKWH),
		slog.Float64("loadKWH", m.TotalLoadKWH),
		slog.Float64("importKWH", m.TotalGridImportKWH),
		slog.Float64("exportKWH", m.TotalGridExportKWH),
		slog.Float64("netCostDollars", m.NetCostDollars),
		slog.Float64("batteryCycles", m.BatteryCycles),
		slog.Float64("selfSufficiency", m.SelfSufficiency),
	)
	return res, nil
}

// stepEpsilon absorbs float error in i*dt so a step landing exactly on an
// hour boundary maps to that hour.
const stepEpsilon = 1e-9

// stepCount is the number of dt-hour steps needed to cover hours.
func stepCount(hours int, dt float64) int {
	return int(math.Ceil(float64(hours)/dt - stepEpsilon))
}

// sampleIndex is the hourly sample step i starts in.
func sampleIndex(i int, dt float64, hours int) int {
	return min(int(math.Floor(float64(i)*dt+stepEpsilon)), hours-1)
}

func stepTime(start time.Time, i int, dt float64) time.Time {
	return start.Add(time.Duration(float64(i) * dt * float64(time.Hour)))
}
