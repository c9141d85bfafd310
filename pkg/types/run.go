package types

import "time"

// CurrentRunVersion is stored with every persisted run. Increment it when the
// shape of Run or SystemState changes.
const CurrentRunVersion = 1

// Run describes one simulation run.
type Run struct {
	ID            string         `json:"id"`
	Version       int            `json:"version"`
	Name          string         `json:"name,omitempty"`
	Controller    string         `json:"controller"`
	Start         time.Time      `json:"start"`
	TimestepHours float64        `json:"timestepHours"`
	Specs         ComponentSpecs `json:"specs"`
	Tariff        Tariff         `json:"tariff"`
	Steps         int            `json:"steps"`
	Warnings      int            `json:"warnings"`
	Metrics       RunMetrics     `json:"metrics"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// RunMetrics summarizes a run.
type RunMetrics struct {
	TotalPVKWH          float64 `json:"totalPVKWH"`
	TotalLoadKWH        float64 `json:"totalLoadKWH"`
	TotalGridImportKWH  float64 `json:"totalGridImportKWH"`
	TotalGridExportKWH  float64 `json:"totalGridExportKWH"`
	TotalChargedKWH     float64 `json:"totalChargedKWH"`
	TotalDischargedKWH  float64 `json:"totalDischargedKWH"`
	SelfConsumption     float64 `json:"selfConsumption"` // 0-1
	SelfSufficiency     float64 `json:"selfSufficiency"` // 0-1
	TotalCostDollars    float64 `json:"totalCostDollars"`
	TotalRevenueDollars float64 `json:"totalRevenueDollars"`
	NetCostDollars      float64 `json:"netCostDollars"`
	BatteryCycles       float64 `json:"batteryCycles"`
	UnmetLoadKWH        float64 `json:"unmetLoadKWH"`
	ExcessPVKWH         float64 `json:"excessPVKWH"`
	AvgSOC              float64 `json:"avgSOC"`
	MinSOC              float64 `json:"minSOC"`
	MaxSOC              float64 `json:"maxSOC"`
}
