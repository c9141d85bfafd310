package weather

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/energysim/pkg/types"
)

var day0 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func hourlyPoints(n int) []types.WeatherPoint {
	points := make([]types.WeatherPoint, n)
	for i := range points {
		points[i] = types.WeatherPoint{
			TS:           day0.Add(time.Duration(i) * time.Hour),
			GHI:          float64(i * 10),
			TemperatureC: 20,
		}
	}
	return points
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, Validate(hourlyPoints(5)))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.ErrorIs(t, Validate(nil), types.ErrInvalidInput)
	})

	t.Run("Negative GHI", func(t *testing.T) {
		points := hourlyPoints(3)
		points[1].GHI = -5
		assert.ErrorIs(t, Validate(points), types.ErrInvalidInput)
	})

	t.Run("Gap", func(t *testing.T) {
		points := hourlyPoints(3)
		points[2].TS = points[2].TS.Add(time.Hour)
		assert.ErrorIs(t, Validate(points), types.ErrInvalidInput)
	})
}

func TestSeries(t *testing.T) {
	ctx := context.Background()
	s, err := NewSeries(hourlyPoints(10))
	require.NoError(t, err)

	t.Run("Window", func(t *testing.T) {
		got, err := s.Hourly(ctx, day0.Add(2*time.Hour), 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, 20.0, got[0].GHI)
		assert.Equal(t, 40.0, got[2].GHI)
	})

	t.Run("Past End", func(t *testing.T) {
		_, err := s.Hourly(ctx, day0.Add(8*time.Hour), 3)
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("Before Start", func(t *testing.T) {
		_, err := s.Hourly(ctx, day0.Add(-time.Hour), 3)
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("Canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Hourly(cctx, day0, 1)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := NewSeries(nil)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})
}

func TestClearSky(t *testing.T) {
	ctx := context.Background()

	t.Run("Default Day", func(t *testing.T) {
		points, err := ClearSky{}.Hourly(ctx, day0, 48)
		require.NoError(t, err)
		require.Len(t, points, 48)
		require.NoError(t, Validate(points))

		assert.Equal(t, 0.0, points[0].GHI)
		assert.Equal(t, 0.0, points[5].GHI)
		assert.InDelta(t, 50, points[6].GHI, 1e-9)
		assert.InDelta(t, 900, points[12].GHI, 1e-9)
		assert.InDelta(t, 850, points[13].GHI, 1e-9)
		assert.Equal(t, 0.0, points[19].GHI)
		assert.Equal(t, points[12], types.WeatherPoint{TS: points[36].TS.Add(-24 * time.Hour), GHI: points[36].GHI, TemperatureC: points[36].TemperatureC})

		assert.Equal(t, 12.0, points[0].TemperatureC)
		assert.Equal(t, 30.0, points[12].TemperatureC)
		assert.Equal(t, 18.0, points[18].TemperatureC)
		assert.Equal(t, 13.0, points[23].TemperatureC)
	})

	t.Run("Scaled", func(t *testing.T) {
		points, err := ClearSky{PeakGHI: 1000, OffsetC: 5}.Hourly(ctx, day0.Add(12*time.Hour), 1)
		require.NoError(t, err)
		assert.InDelta(t, 1000, points[0].GHI, 1e-9)
		assert.Equal(t, 35.0, points[0].TemperatureC)
	})

	t.Run("Invalid Hours", func(t *testing.T) {
		_, err := ClearSky{}.Hourly(ctx, day0, 0)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})
}

func TestSeriesStart(t *testing.T) {
	s, err := NewSeries(hourlyPoints(3))
	require.NoError(t, err)
	assert.Equal(t, day0, s.Start())
}
