package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raterudder/energysim/pkg/types"
)

// ErrOutOfRange is returned when a Source cannot cover the requested hours.
var ErrOutOfRange = errors.New("weather: requested range not covered")

// Source provides hourly weather for a simulation horizon.
type Source interface {
	// Hourly returns exactly hours consecutive points beginning at start.
	Hourly(ctx context.Context, start time.Time, hours int) ([]types.WeatherPoint, error)
}

// Validate checks that points are finite, have non-negative irradiance and are
// spaced exactly one hour apart. Gaps are an error; nothing is filled in.
func Validate(points []types.WeatherPoint) error {
	if len(points) == 0 {
		return fmt.Errorf("no weather points: %w", types.ErrInvalidInput)
	}
	for i, p := range points {
		if err := types.CheckNonNegative(fmt.Sprintf("ghi at %d", i), p.GHI); err != nil {
			return err
		}
		if err := types.CheckFinite(fmt.Sprintf("temperature at %d", i), p.TemperatureC); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		if d := p.TS.Sub(points[i-1].TS); d != time.Hour {
			return fmt.Errorf("point %d is %s after the previous one, want 1h: %w", i, d, types.ErrInvalidInput)
		}
	}
	return nil
}

// Series is a fixed, caller-supplied run of hourly points.
type Series struct {
	points []types.WeatherPoint
}

// NewSeries validates points and wraps them in a Series.
func NewSeries(points []types.WeatherPoint) (*Series, error) {
	if err := Validate(points); err != nil {
		return nil, err
	}
	return &Series{points: points}, nil
}

// Start returns the time of the first point.
func (s *Series) Start() time.Time {
	return s.points[0].TS
}

// Hourly implements Source.
func (s *Series) Hourly(ctx context.Context, start time.Time, hours int) ([]types.WeatherPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hours <= 0 {
		return nil, fmt.Errorf("hours must be positive, got %d: %w", hours, types.ErrInvalidInput)
	}
	first := s.points[0].TS
	offset := start.Sub(first)
	if offset < 0 || offset%time.Hour != 0 {
		return nil, fmt.Errorf("start %s is not an hour within the series beginning %s: %w", start, first, ErrOutOfRange)
	}
	i := int(offset / time.Hour)
	if i+hours > len(s.points) {
		return nil, fmt.Errorf("series has %d points from %s, need %d: %w", len(s.points)-i, start, hours, ErrOutOfRange)
	}
	out := make([]types.WeatherPoint, hours)
	copy(out, s.points[i:i+hours])
	return out, nil
}

var _ Source = (*Series)(nil)
