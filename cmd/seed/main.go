package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"
	"golang.org/x/sync/errgroup"

	"github.com/raterudder/energysim/pkg/config"
	"github.com/raterudder/energysim/pkg/controller"
	"github.com/raterudder/energysim/pkg/load"
	"github.com/raterudder/energysim/pkg/log"
	"github.com/raterudder/energysim/pkg/physics"
	"github.com/raterudder/energysim/pkg/simulation"
	"github.com/raterudder/energysim/pkg/storage"
	"github.com/raterudder/energysim/pkg/weather"
)

// seedControllers is one example run per strategy.
var seedControllers = []controller.Config{
	{Name: "constant"},
	{Name: "self_consumption"},
	{
		Name:           "schedule",
		ChargeStart:    "10:00",
		ChargeEnd:      "15:00",
		DischargeStart: "17:00",
		DischargeEnd:   "22:00",
	},
}

func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	s := storage.Configured()
	runLength := lflag.Duration("seed-duration", 7*24*time.Hour, "Length of each seeded run")
	lflag.Configure()

	ctx := context.Background()
	defer s.Close()

	log.Ctx(ctx).InfoContext(ctx, "seeding example runs")

	site := config.DefaultSite()
	site.Hours = int(runLength.Hours())
	engine, err := physics.NewEngine(physics.WithTariff(site.Tariff))
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to create engine", "error", err)
		os.Exit(1)
	}
	runner := simulation.NewRunner(engine, simulation.WithStorage(s))
	start := site.StartTime(time.Now()).Add(-time.Duration(site.Hours) * time.Hour)

	// the engine holds no per-run state, so runs share it
	g, gctx := errgroup.WithContext(ctx)
	for _, cfg := range seedControllers {
		g.Go(func() error {
			ctrl, err := controller.New(cfg)
			if err != nil {
				return err
			}
			res, err := runner.Run(gctx, simulation.Scenario{
				Name:       "seed " + cfg.Name,
				Specs:      site.Specs,
				Start:      start,
				Hours:      site.Hours,
				Weather:    weather.ClearSky{},
				Load:       load.Residential{},
				Controller: ctrl,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.Name, err)
			}
			fmt.Printf("Seeded run %s (%s): net cost $%.2f, cycles %.2f\n",
				res.Run.ID, cfg.Name, res.Run.Metrics.NetCostDollars, res.Run.Metrics.BatteryCycles)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to seed runs", "error", err)
		os.Exit(1)
	}

	log.Ctx(ctx).InfoContext(ctx, "seeded example runs successfully")
}
