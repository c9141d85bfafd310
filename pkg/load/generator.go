package load

import (
	"context"
	"fmt"
	"time"

	"github.com/raterudder/energysim/pkg/types"
)

// Generator produces a load profile for a simulation horizon.
type Generator interface {
	Generate(ctx context.Context, start time.Time, hours int) (*Profile, error)
}

// Flat is a constant load.
type Flat struct {
	KW float64
}

// Generate implements Generator.
func (f Flat) Generate(ctx context.Context, start time.Time, hours int) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hours <= 0 {
		return nil, fmt.Errorf("hours must be positive, got %d: %w", hours, types.ErrInvalidInput)
	}
	kw := make([]float64, hours)
	for i := range kw {
		kw[i] = f.KW
	}
	return NewProfile(start, kw)
}

// residentialDay is a household's demand in kW by hour of day: a 2 kW
// overnight base, a breakfast peak at 08:00 and an evening peak at 18:00-19:00.
var residentialDay = [24]float64{
	2, 2, 2, 2, 2, 2,
	3, 5, 7, 4, 4, 4,
	6, 4, 4, 4, 4, 7,
	8, 8, 6, 5, 4, 3,
}

// Residential repeats a typical household day. The hour of day is taken from
// start's location.
type Residential struct {
	// Scale multiplies every hour. Zero means 1.
	Scale float64
}

// Generate implements Generator.
func (r Residential) Generate(ctx context.Context, start time.Time, hours int) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hours <= 0 {
		return nil, fmt.Errorf("hours must be positive, got %d: %w", hours, types.ErrInvalidInput)
	}
	scale := r.Scale
	if scale == 0 {
		scale = 1
	}
	kw := make([]float64, hours)
	for i := range kw {
		kw[i] = residentialDay[start.Add(time.Duration(i)*time.Hour).Hour()] * scale
	}
	return NewProfile(start, kw)
}

// Config selects and parameterizes a Generator.
type Config struct {
	// Profile is "residential" or "flat".
	Profile string  `json:"profile" yaml:"profile"`
	KW      float64 `json:"kw,omitempty" yaml:"kw,omitempty"`
	Scale   float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// New returns the Generator described by c.
func New(c Config) (Generator, error) {
	switch c.Profile {
	case "", "residential":
		if err := types.CheckNonNegative("load scale", c.Scale); err != nil {
			return nil, err
		}
		return Residential{Scale: c.Scale}, nil
	case "flat":
		if err := types.CheckNonNegative("flat load", c.KW); err != nil {
			return nil, err
		}
		return Flat{KW: c.KW}, nil
	default:
		return nil, fmt.Errorf("unknown load profile: %s", c.Profile)
	}
}

var (
	_ Generator = Flat{}
	_ Generator = Residential{}
)
