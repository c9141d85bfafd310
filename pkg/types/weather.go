package types

import "time"

// WeatherPoint is one hourly weather observation.
type WeatherPoint struct {
	TS           time.Time `json:"ts"`
	GHI          float64   `json:"ghi"`          // W/m²
	TemperatureC float64   `json:"temperatureC"` // ambient
}
