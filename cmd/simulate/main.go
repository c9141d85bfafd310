package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/raterudder/energysim/pkg/config"
	"github.com/raterudder/energysim/pkg/controller"
	"github.com/raterudder/energysim/pkg/load"
	"github.com/raterudder/energysim/pkg/log"
	"github.com/raterudder/energysim/pkg/metrics"
	"github.com/raterudder/energysim/pkg/physics"
	"github.com/raterudder/energysim/pkg/simulation"
	"github.com/raterudder/energysim/pkg/storage"
	"github.com/raterudder/energysim/pkg/types"
	"github.com/raterudder/energysim/pkg/utility"
	"github.com/raterudder/energysim/pkg/weather"
)

func main() {
	// init packages
	site := config.Configured()
	tariffs := utility.Configured()
	s := storage.Configured()

	controllerName := lflag.String("controller", "", "Override the site's controller (available: constant, self_consumption, schedule)")
	weatherFile := lflag.String("weather-file", "", "JSON array of hourly weather points to use instead of clear-sky weather")
	metricsFile := lflag.String("metrics-textfile", "", "Write Prometheus metrics to this file when the run finishes")
	failOnWarning := lflag.Bool("fail-on-warning", false, "Abort at the first energy conservation warning")

	// parse flags
	lflag.Configure()

	// lflag automatically sets llog's level, but we need to set the slog level
	level, err := log.LevelFromLLog(llog.GetLevel())
	if err != nil {
		panic(err)
	}
	log.SetDefaultLogLevel(level)
	slog.SetDefault(log.NewJSON(os.Stdout))
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	res, err := run(ctx, site, tariffs, s, reg, *controllerName, *weatherFile, *failOnWarning)
	if *metricsFile != "" {
		if werr := prometheus.WriteToTextfile(*metricsFile, reg); werr != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to write metrics", "error", werr)
		}
	}
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "simulation failed", "error", err)
		cancel()
		os.Exit(1)
	}

	log.Ctx(ctx).InfoContext(
		ctx,
		"simulation exited cleanly",
		slog.String("runID", res.Run.ID),
		slog.Float64("capitalCostDollars", site.CapitalCost()),
		slog.Float64("roofAreaM2", site.Specs.RoofArea(types.DefaultRoofM2PerKW)),
	)
}

func run(
	ctx context.Context,
	site *config.Site,
	tariffs *utility.Selection,
	db storage.Database,
	reg prometheus.Registerer,
	controllerName string,
	weatherFile string,
	failOnWarning bool,
) (simulation.Result, error) {
	tariff, err := tariffs.Resolve(site.Tariff)
	if err != nil {
		return simulation.Result{}, err
	}
	engine, err := physics.NewEngine(
		physics.WithTariff(tariff),
		physics.WithDeltaHours(site.TimestepHours),
	)
	if err != nil {
		return simulation.Result{}, err
	}

	ctrlCfg := site.Controller
	if controllerName != "" {
		ctrlCfg.Name = controllerName
	}
	ctrl, err := controller.New(ctrlCfg)
	if err != nil {
		return simulation.Result{}, err
	}
	gen, err := load.New(site.Load)
	if err != nil {
		return simulation.Result{}, err
	}

	start := site.StartTime(time.Now())
	var src weather.Source = weather.ClearSky{PeakGHI: site.PeakGHI}
	if weatherFile != "" {
		series, err := loadWeatherFile(weatherFile)
		if err != nil {
			return simulation.Result{}, err
		}
		src = series
		if site.Start.IsZero() {
			start = series.Start()
		}
	}

	rec, err := metrics.New(reg)
	if err != nil {
		return simulation.Result{}, err
	}

	runner := simulation.NewRunner(engine, simulation.WithStorage(db), simulation.WithMetrics(rec))
	return runner.Run(ctx, simulation.Scenario{
		Name:          site.Name,
		Specs:         site.Specs,
		Start:         start,
		Hours:         site.Hours,
		Weather:       src,
		Load:          gen,
		Controller:    ctrl,
		FailOnWarning: failOnWarning,
	})
}

func loadWeatherFile(path string) (*weather.Series, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var points []types.WeatherPoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("failed to parse weather file %s: %w", path, err)
	}
	return weather.NewSeries(points)
}
