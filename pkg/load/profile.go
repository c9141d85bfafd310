package load

import (
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/raterudder/energysim/pkg/types"
)

// Profile is an hourly series of load demand in kW.
type Profile struct {
	start time.Time
	kw    []float64
}

// NewProfile validates kw and returns a Profile beginning at start. The slice
// is copied.
func NewProfile(start time.Time, kw []float64) (*Profile, error) {
	if len(kw) == 0 {
		return nil, fmt.Errorf("load profile cannot be empty: %w", types.ErrInvalidInput)
	}
	for i, v := range kw {
		if err := types.CheckNonNegative(fmt.Sprintf("load at hour %d", i), v); err != nil {
			return nil, err
		}
	}
	return &Profile{start: start, kw: slices.Clone(kw)}, nil
}

// Start returns the time of the first hour.
func (p *Profile) Start() time.Time {
	return p.start
}

// Hours returns the number of hourly values.
func (p *Profile) Hours() int {
	return len(p.kw)
}

// At returns the load in hour i.
func (p *Profile) At(i int) float64 {
	return p.kw[i]
}

// Values returns a copy of the hourly values.
func (p *Profile) Values() []float64 {
	return slices.Clone(p.kw)
}

// Mean returns the average load in kW.
func (p *Profile) Mean() float64 {
	return stat.Mean(p.kw, nil)
}

// Peak returns the highest load in kW.
func (p *Profile) Peak() float64 {
	return floats.Max(p.kw)
}

// Min returns the lowest load in kW.
func (p *Profile) Min() float64 {
	return floats.Min(p.kw)
}

// StdDev returns the population standard deviation of the load.
func (p *Profile) StdDev() float64 {
	_, std := stat.PopMeanStdDev(p.kw, nil)
	return std
}

// TotalKWH returns the energy consumed over the whole profile.
func (p *Profile) TotalKWH() float64 {
	return floats.Sum(p.kw)
}

// LoadFactor returns mean/peak, or 0 for an all-zero profile.
func (p *Profile) LoadFactor() float64 {
	peak := p.Peak()
	if peak == 0 {
		return 0
	}
	return p.Mean() / peak
}

// Percentile returns the smallest hourly value at or above the q quantile,
// where q is in [0, 1].
func (p *Profile) Percentile(q float64) (float64, error) {
	if q < 0 || q > 1 {
		return 0, fmt.Errorf("quantile must be in [0, 1], got %v: %w", q, types.ErrInvalidInput)
	}
	sorted := slices.Clone(p.kw)
	slices.Sort(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil), nil
}

// Daily splits the profile into whole 24 hour days. A trailing partial day is
// dropped.
func (p *Profile) Daily() []*Profile {
	days := make([]*Profile, 0, len(p.kw)/24)
	for i := 0; i+24 <= len(p.kw); i += 24 {
		days = append(days, &Profile{
			start: p.start.Add(time.Duration(i) * time.Hour),
			kw:    slices.Clone(p.kw[i : i+24]),
		})
	}
	return days
}

// Statistics summarizes a Profile.
type Statistics struct {
	Hours        int     `json:"hours"`
	MeanKW       float64 `json:"meanKW"`
	StdDevKW     float64 `json:"stdDevKW"`
	MinKW        float64 `json:"minKW"`
	PeakKW       float64 `json:"peakKW"`
	TotalKWH     float64 `json:"totalKWH"`
	LoadFactor   float64 `json:"loadFactor"`
	Percentile25 float64 `json:"p25"`
	Percentile50 float64 `json:"p50"`
	Percentile75 float64 `json:"p75"`
	Percentile95 float64 `json:"p95"`
}

// Statistics computes every summary value at once.
func (p *Profile) Statistics() Statistics {
	sorted := slices.Clone(p.kw)
	slices.Sort(sorted)
	mean, std := stat.PopMeanStdDev(p.kw, nil)
	s := Statistics{
		Hours:        len(p.kw),
		MeanKW:       mean,
		StdDevKW:     std,
		MinKW:        sorted[0],
		PeakKW:       sorted[len(sorted)-1],
		TotalKWH:     floats.Sum(p.kw),
		Percentile25: stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Percentile50: stat.Quantile(0.50, stat.Empirical, sorted, nil),
		Percentile75: stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Percentile95: stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
	if s.PeakKW > 0 {
		s.LoadFactor = mean / s.PeakKW
	}
	return s
}
