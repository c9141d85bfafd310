package simulation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/raterudder/energysim/pkg/types"
)

// Summarize computes run metrics from a state sequence with timesteps of
// deltaHours. Power totals are converted to energy by deltaHours. The
// accumulators come from the final state. Ratios are clamped to [0, 1] and
// are zero when their denominator is.
func Summarize(states []types.SystemState, deltaHours float64) types.RunMetrics {
	if len(states) == 0 {
		return types.RunMetrics{}
	}

	n := len(states)
	pv := make([]float64, n)
	load := make([]float64, n)
	imports := make([]float64, n)
	exports := make([]float64, n)
	charged := make([]float64, n)
	discharged := make([]float64, n)
	soc := make([]float64, n)
	for i, s := range states {
		pv[i] = s.PVKW
		load[i] = s.LoadKW
		imports[i] = max(s.GridKW, 0)
		exports[i] = max(-s.GridKW, 0)
		charged[i] = max(s.BatteryKW, 0)
		discharged[i] = max(-s.BatteryKW, 0)
		soc[i] = s.SOC
	}

	last := states[n-1]
	m := types.RunMetrics{
		TotalPVKWH:          floats.Sum(pv) * deltaHours,
		TotalLoadKWH:        floats.Sum(load) * deltaHours,
		TotalGridImportKWH:  floats.Sum(imports) * deltaHours,
		TotalGridExportKWH:  floats.Sum(exports) * deltaHours,
		TotalChargedKWH:     floats.Sum(charged) * deltaHours,
		TotalDischargedKWH:  floats.Sum(discharged) * deltaHours,
		TotalCostDollars:    last.TotalCostDollars,
		TotalRevenueDollars: last.TotalRevenueDollars,
		NetCostDollars:      last.NetCost(),
		BatteryCycles:       last.BatteryCycles,
		UnmetLoadKWH:        last.UnmetLoadKWH,
		ExcessPVKWH:         last.ExcessPVKWH,
		AvgSOC:              stat.Mean(soc, nil),
		MinSOC:              floats.Min(soc),
		MaxSOC:              floats.Max(soc),
	}
	if m.TotalPVKWH > 0 {
		m.SelfConsumption = clamp01((m.TotalPVKWH - m.TotalGridExportKWH) / m.TotalPVKWH)
	}
	if m.TotalLoadKWH > 0 {
		m.SelfSufficiency = clamp01((m.TotalLoadKWH - m.TotalGridImportKWH) / m.TotalLoadKWH)
	}
	return m
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
