package simulation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/energysim/pkg/controller"
	"github.com/raterudder/energysim/pkg/load"
	"github.com/raterudder/energysim/pkg/metrics"
	"github.com/raterudder/energysim/pkg/physics"
	"github.com/raterudder/energysim/pkg/storage"
	"github.com/raterudder/energysim/pkg/storage/storagemock"
	"github.com/raterudder/energysim/pkg/types"
	"github.com/raterudder/energysim/pkg/weather"
)

var day0 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func exampleSpecs() types.ComponentSpecs {
	specs := types.DefaultComponentSpecs(10, 20, 5)
	specs.InverterEfficiency = 0.96
	specs.MinSOC = 0.2
	return specs
}

func exampleScenario(c controller.Controller) Scenario {
	return Scenario{
		ID:         "test-run",
		Name:       "example",
		Specs:      exampleSpecs(),
		Start:      day0,
		Hours:      48,
		Weather:    weather.ClearSky{},
		Load:       load.Residential{},
		Controller: c,
	}
}

func newEngine(t *testing.T, opts ...physics.Option) *physics.Engine {
	t.Helper()
	e, err := physics.NewEngine(opts...)
	require.NoError(t, err)
	return e
}

type shortWeather struct{}

func (shortWeather) Hourly(ctx context.Context, start time.Time, hours int) ([]types.WeatherPoint, error) {
	return weather.ClearSky{}.Hourly(ctx, start, hours-1)
}

type failingController struct{}

func (failingController) Name() string { return "failing" }

func (failingController) Action(ctx context.Context, obs controller.Observation) (float64, error) {
	return 0, errors.New("no decision")
}

func TestRunnerSelfConsumption(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()
	rec, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	r := NewRunner(newEngine(t), WithStorage(db), WithMetrics(rec))
	res, err := r.Run(ctx, exampleScenario(controller.SelfConsumption{}))
	require.NoError(t, err)

	require.Len(t, res.States, 48)
	assert.Empty(t, res.Warnings)
	specs := exampleSpecs()
	for i, s := range res.States {
		assert.Equal(t, i+1, s.Timestep)
		assert.GreaterOrEqual(t, s.SOC, specs.MinSOC)
		assert.LessOrEqual(t, s.SOC, specs.MaxSOC)
		assert.InDelta(t, s.LoadKW-s.PVKW+s.BatteryKW, s.GridKW, 1e-9)
	}

	// the battery covers the first overnight hours entirely
	assert.InDelta(t, 0, res.States[0].GridKW, 1e-9)
	assert.InDelta(t, -2, res.States[0].BatteryKW, 1e-9)

	run := res.Run
	assert.Equal(t, "test-run", run.ID)
	assert.Equal(t, "self_consumption", run.Controller)
	assert.Equal(t, 48, run.Steps)
	assert.Equal(t, types.CurrentRunVersion, run.Version)
	assert.Greater(t, run.Metrics.SelfSufficiency, 0.0)
	assert.Greater(t, run.Metrics.TotalDischargedKWH, 0.0)
	assert.Equal(t, res.Final().BatteryCycles, run.Metrics.BatteryCycles)

	stored, err := db.GetRun(ctx, "test-run")
	require.NoError(t, err)
	assert.Equal(t, run.Metrics, stored.Metrics)
	states, err := db.GetRunStates(ctx, "test-run", 1, 49)
	require.NoError(t, err)
	assert.Equal(t, res.States, states)

	assert.Equal(t, 48.0, testutil.ToFloat64(rec.StepsTotal.WithLabelValues("self_consumption")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RunsTotal.WithLabelValues("self_consumption", metrics.ResultSuccess)))
	assert.Equal(t, res.Final().SOC, testutil.ToFloat64(rec.FinalSOC.WithLabelValues("self_consumption")))
}

func TestRunnerNeutralControl(t *testing.T) {
	ctx := context.Background()
	idle, err := controller.NewConstant(0)
	require.NoError(t, err)

	sc := exampleScenario(idle)
	sc.ID = ""
	res, err := NewRunner(newEngine(t)).Run(ctx, sc)
	require.NoError(t, err)
	require.Len(t, res.States, 48)

	for _, s := range res.States {
		assert.Equal(t, 0.0, s.BatteryKW)
		assert.Equal(t, 0.5, s.SOC)
		assert.InDelta(t, s.LoadKW-s.PVKW, s.GridKW, 1e-9)
	}
	assert.Zero(t, res.Final().BatteryCycles)
	assert.InDelta(t, 2*0.15, res.States[0].TotalCostDollars, 1e-9)

	// both days are identical, so day two doubles every accumulator
	day1 := res.States[23]
	assert.InDelta(t, 2*day1.TotalCostDollars, res.Final().TotalCostDollars, 1e-9)
	assert.InDelta(t, 2*day1.ExcessPVKWH, res.Final().ExcessPVKWH, 1e-9)
	assert.Len(t, res.Run.ID, 36)
}

func TestRunnerErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Invalid Scenario", func(t *testing.T) {
		sc := exampleScenario(controller.SelfConsumption{})
		sc.Hours = 0
		_, err := NewRunner(newEngine(t)).Run(ctx, sc)
		assert.ErrorIs(t, err, types.ErrInvalidInput)

		sc = exampleScenario(nil)
		_, err = NewRunner(newEngine(t)).Run(ctx, sc)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})

	t.Run("Length Mismatch", func(t *testing.T) {
		sc := exampleScenario(controller.SelfConsumption{})
		sc.Weather = shortWeather{}
		_, err := NewRunner(newEngine(t)).Run(ctx, sc)
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("Weather Out Of Range", func(t *testing.T) {
		series, err := weather.NewSeries([]types.WeatherPoint{{TS: day0, GHI: 0, TemperatureC: 10}})
		require.NoError(t, err)
		sc := exampleScenario(controller.SelfConsumption{})
		sc.Weather = series
		_, err = NewRunner(newEngine(t)).Run(ctx, sc)
		assert.ErrorIs(t, err, weather.ErrOutOfRange)
	})

	t.Run("Controller Error", func(t *testing.T) {
		rec, err := metrics.New(prometheus.NewRegistry())
		require.NoError(t, err)
		_, err = NewRunner(newEngine(t), WithMetrics(rec)).Run(ctx, exampleScenario(failingController{}))
		assert.ErrorContains(t, err, "no decision")
		assert.Equal(t, 1.0, testutil.ToFloat64(rec.RunsTotal.WithLabelValues("failing", metrics.ResultError)))
	})

	t.Run("Canceled", func(t *testing.T) {
		rec, err := metrics.New(prometheus.NewRegistry())
		require.NoError(t, err)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = NewRunner(newEngine(t), WithMetrics(rec)).Run(cctx, exampleScenario(controller.SelfConsumption{}))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1.0, testutil.ToFloat64(rec.RunsTotal.WithLabelValues("self_consumption", metrics.ResultCanceled)))
	})

	t.Run("Storage Error", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("SaveRun", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("unavailable"))
		_, err := NewRunner(newEngine(t), WithStorage(db)).Run(ctx, exampleScenario(controller.SelfConsumption{}))
		assert.ErrorContains(t, err, "unavailable")
		db.AssertExpectations(t)
	})
}

func TestRunnerConservationWarnings(t *testing.T) {
	ctx := context.Background()
	// a battery model reporting NaN power breaks the balance every step
	broken := physics.BatteryFunc(func(in physics.BatteryInput) (types.BatteryResult, error) {
		return types.BatteryResult{NewSOC: in.CurrentSOC, PowerKW: math.NaN()}, nil
	})

	t.Run("Collected", func(t *testing.T) {
		sc := exampleScenario(controller.SelfConsumption{})
		sc.Hours = 3
		res, err := NewRunner(newEngine(t, physics.WithBatteryModel(broken))).Run(ctx, sc)
		require.NoError(t, err)
		require.Len(t, res.Warnings, 3)
		assert.Equal(t, 1, res.Warnings[0].Timestep)
		assert.Equal(t, 3, res.Run.Warnings)
	})

	t.Run("Fail On Warning", func(t *testing.T) {
		sc := exampleScenario(controller.SelfConsumption{})
		sc.FailOnWarning = true
		_, err := NewRunner(newEngine(t, physics.WithBatteryModel(broken))).Run(ctx, sc)
		var warn *physics.ConservationWarning
		require.ErrorAs(t, err, &warn)
		assert.Equal(t, 1, warn.Timestep)
	})
}

type recordingController struct {
	obs []controller.Observation
}

func (r *recordingController) Name() string { return "recording" }

func (r *recordingController) Action(ctx context.Context, obs controller.Observation) (float64, error) {
	r.obs = append(r.obs, obs)
	return 0, nil
}

func TestRunnerSubHourSteps(t *testing.T) {
	ctx := context.Background()

	t.Run("Observations Align With Weather", func(t *testing.T) {
		rec := &recordingController{}
		sc := exampleScenario(rec)
		sc.Hours = 24

		res, err := NewRunner(newEngine(t, physics.WithDeltaHours(0.5))).Run(ctx, sc)
		require.NoError(t, err)
		assert.Equal(t, 48, res.Run.Steps)
		require.Len(t, rec.obs, 48)

		points, err := weather.ClearSky{}.Hourly(ctx, day0, 24)
		require.NoError(t, err)
		for i, obs := range rec.obs {
			p := points[i/2]
			assert.False(t, obs.TS.Before(p.TS), "step %d at %s before hour %s", i, obs.TS, p.TS)
			assert.True(t, obs.TS.Before(p.TS.Add(time.Hour)), "step %d at %s after hour %s", i, obs.TS, p.TS)
		}
		assert.Equal(t, day0.Add(23*time.Hour+30*time.Minute), rec.obs[47].TS)

		hourly, err := NewRunner(newEngine(t)).Run(ctx, func() Scenario {
			sc := exampleScenario(&recordingController{})
			sc.Hours = 24
			return sc
		}())
		require.NoError(t, err)
		assert.InDelta(t, hourly.Run.Metrics.TotalPVKWH, res.Run.Metrics.TotalPVKWH, 1e-9)
		assert.InDelta(t, hourly.Run.Metrics.TotalLoadKWH, res.Run.Metrics.TotalLoadKWH, 1e-9)
	})

	t.Run("Half Hour Night Load", func(t *testing.T) {
		idle, err := controller.NewConstant(0)
		require.NoError(t, err)
		sc := exampleScenario(idle)
		sc.Load = load.Flat{KW: 1}
		sc.Hours = 4

		res, err := NewRunner(newEngine(t, physics.WithDeltaHours(0.5))).Run(ctx, sc)
		require.NoError(t, err)
		assert.Equal(t, 0.5, res.Run.TimestepHours)
		assert.Equal(t, 8, res.Run.Steps)
		assert.InDelta(t, 4, res.Run.Metrics.TotalLoadKWH, 1e-9)
		assert.InDelta(t, 4*0.15, res.Final().TotalCostDollars, 1e-9)
	})

	t.Run("Longer Steps Round Up", func(t *testing.T) {
		idle, err := controller.NewConstant(0)
		require.NoError(t, err)
		sc := exampleScenario(idle)
		sc.Load = load.Flat{KW: 1}
		sc.Hours = 5

		res, err := NewRunner(newEngine(t, physics.WithDeltaHours(2))).Run(ctx, sc)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Run.Steps)
		assert.Equal(t, 3, res.Final().Timestep)
	})
}

func TestSampleIndex(t *testing.T) {
	tests := []struct {
		dt    float64
		hours int
		steps int
		index []int
	}{
		{1, 3, 3, []int{0, 1, 2}},
		{0.5, 2, 4, []int{0, 0, 1, 1}},
		{0.25, 1, 4, []int{0, 0, 0, 0}},
		{0.1, 1, 10, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{2, 5, 3, []int{0, 2, 4}},
		{3, 4, 2, []int{0, 3}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.steps, stepCount(tt.hours, tt.dt), "dt=%v hours=%d", tt.dt, tt.hours)
		for i, want := range tt.index {
			assert.Equal(t, want, sampleIndex(i, tt.dt, tt.hours), "dt=%v step=%d", tt.dt, i)
		}
	}
}
