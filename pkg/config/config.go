package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/levenlabs/go-lflag"
	"gopkg.in/yaml.v3"

	"github.com/raterudder/energysim/pkg/controller"
	"github.com/raterudder/energysim/pkg/load"
	"github.com/raterudder/energysim/pkg/types"
)

// Capital cost defaults used to price a site.
const (
	DefaultPVDollarsPerKW       = 1000.0
	DefaultBatteryDollarsPerKWH = 500.0
)

// Site is the on-disk description of a simulation (YAML).
type Site struct {
	Name          string               `yaml:"name"`
	Specs         types.ComponentSpecs `yaml:"specs"`
	Tariff        types.Tariff         `yaml:"tariff"`
	TimestepHours float64              `yaml:"timestep_hours"`
	Hours         int                  `yaml:"hours"`
	// Start is the first simulated hour. Zero means midnight UTC today.
	Start      time.Time         `yaml:"start"`
	Controller controller.Config `yaml:"controller"`
	Load       load.Config       `yaml:"load"`
	// PeakGHI scales the clear-sky weather. Zero keeps the default.
	PeakGHI float64 `yaml:"peak_ghi"`

	PVDollarsPerKW       float64 `yaml:"pv_dollars_per_kw"`
	BatteryDollarsPerKWH float64 `yaml:"battery_dollars_per_kwh"`
}

// DefaultSite is a 10 kW array with a 20 kWh, 5 kW battery simulated for 48
// hours under the residential load pattern.
func DefaultSite() Site {
	specs := types.DefaultComponentSpecs(10, 20, 5)
	specs.InverterEfficiency = 0.96
	specs.MinSOC = 0.2
	return Site{
		Name:                 "example",
		Specs:                specs,
		Tariff:               types.DefaultTariff(),
		TimestepHours:        1,
		Hours:                48,
		Controller:           controller.Config{Name: "self_consumption"},
		Load:                 load.Config{Profile: "residential"},
		PVDollarsPerKW:       DefaultPVDollarsPerKW,
		BatteryDollarsPerKWH: DefaultBatteryDollarsPerKWH,
	}
}

// Load reads the YAML file at path over DefaultSite, so omitted fields keep
// their defaults, and validates the result.
func Load(path string) (*Site, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes YAML over DefaultSite and validates the result.
func Parse(raw []byte) (*Site, error) {
	s := DefaultSite()
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse site config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every section of the site.
func (s *Site) Validate() error {
	if s == nil {
		return errors.New("site config is nil")
	}
	if err := s.Specs.Validate(); err != nil {
		return fmt.Errorf("specs invalid: %w", err)
	}
	if err := s.Tariff.Validate(); err != nil {
		return fmt.Errorf("tariff invalid: %w", err)
	}
	if err := types.CheckPositive("timestep hours", s.TimestepHours); err != nil {
		return err
	}
	if s.Hours <= 0 {
		return fmt.Errorf("hours must be positive, got %d: %w", s.Hours, types.ErrInvalidInput)
	}
	if _, err := controller.New(s.Controller); err != nil {
		return fmt.Errorf("controller invalid: %w", err)
	}
	if _, err := load.New(s.Load); err != nil {
		return fmt.Errorf("load invalid: %w", err)
	}
	if err := types.CheckNonNegative("peak ghi", s.PeakGHI); err != nil {
		return err
	}
	return nil
}

// CapitalCost prices the site's PV array and battery.
func (s *Site) CapitalCost() float64 {
	return s.Specs.CapitalCost(s.PVDollarsPerKW, s.BatteryDollarsPerKWH)
}

// StartTime returns Start, or midnight UTC of now's day when unset.
func (s *Site) StartTime(now time.Time) time.Time {
	if !s.Start.IsZero() {
		return s.Start
	}
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Configured registers the site flags and returns the site once flags are
// parsed. An empty -site-config uses DefaultSite.
func Configured() *Site {
	path := lflag.String("site-config", "", "Path to a YAML site file (empty uses the built-in example site)")
	hours := lflag.String("hours", "", "Override the number of hours to simulate")

	site := new(Site)

	lflag.Do(func() {
		*site = DefaultSite()
		if *path != "" {
			loaded, err := Load(*path)
			if err != nil {
				panic(fmt.Sprintf("site config failed: %v", err))
			}
			*site = *loaded
		}
		if *hours != "" {
			h, err := strconv.Atoi(*hours)
			if err != nil || h <= 0 {
				panic(fmt.Sprintf("invalid hours: %q", *hours))
			}
			site.Hours = h
		}
	})

	return site
}
