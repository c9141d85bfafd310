package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/raterudder/energysim/pkg/types"
)

// DefaultPeakGHI is the solar-noon irradiance of a ClearSky day.
const DefaultPeakGHI = 900.0

// clearSkyShape is the hourly irradiance as a fraction of the noon peak.
var clearSkyShape = [24]float64{
	6:  50.0 / 900,
	7:  150.0 / 900,
	8:  300.0 / 900,
	9:  500.0 / 900,
	10: 700.0 / 900,
	11: 850.0 / 900,
	12: 1,
	13: 850.0 / 900,
	14: 700.0 / 900,
	15: 500.0 / 900,
	16: 300.0 / 900,
	17: 150.0 / 900,
	18: 50.0 / 900,
}

// ClearSky generates the same cloudless day over and over. Irradiance is
// zero outside 06:00-18:00 and peaks at noon. Temperature climbs from 12°C
// before dawn to 30°C at noon and falls back through the evening.
type ClearSky struct {
	// PeakGHI overrides DefaultPeakGHI when positive.
	PeakGHI float64
	// OffsetC is added to every temperature.
	OffsetC float64
}

// Hourly implements Source. The hour of day is taken from start's location.
func (c ClearSky) Hourly(ctx context.Context, start time.Time, hours int) ([]types.WeatherPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hours <= 0 {
		return nil, fmt.Errorf("hours must be positive, got %d: %w", hours, types.ErrInvalidInput)
	}
	peak := c.PeakGHI
	if peak <= 0 {
		peak = DefaultPeakGHI
	}

	out := make([]types.WeatherPoint, hours)
	for i := range out {
		ts := start.Add(time.Duration(i) * time.Hour)
		h := ts.Hour()
		out[i] = types.WeatherPoint{
			TS:           ts,
			GHI:          peak * clearSkyShape[h],
			TemperatureC: clearSkyTemperature(h) + c.OffsetC,
		}
	}
	return out, nil
}

func clearSkyTemperature(hour int) float64 {
	switch {
	case hour < 6:
		return 12 + float64(hour)*0.5
	case hour < 12:
		return 15 + float64(hour-6)*2.5
	case hour < 18:
		return 30 - float64(hour-12)*2
	default:
		return 18 - float64(hour-18)
	}
}

var _ Source = ClearSky{}
