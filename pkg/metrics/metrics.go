package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "energysim_"

	ResultSuccess  = "success"
	ResultError    = "error"
	ResultCanceled = "canceled"
)

// Recorder bundles simulation metrics. A nil Recorder records nothing.
type Recorder struct {
	StepsTotal    *prometheus.CounterVec
	WarningsTotal *prometheus.CounterVec
	RunsTotal     *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	FinalSOC      *prometheus.GaugeVec
	NetCost       *prometheus.GaugeVec
}

// New constructs the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	m := &Recorder{
		StepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "steps_total",
				Help: "Total simulated timesteps by controller",
			},
			[]string{"controller"},
		),
		WarningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "conservation_warnings_total",
				Help: "Total energy conservation warnings by controller",
			},
			[]string{"controller"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total simulation runs by controller and result",
			},
			[]string{"controller", "result"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_duration_seconds",
				Help:    "Simulation run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"controller"},
		),
		FinalSOC: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "final_soc_ratio",
				Help: "Battery state of charge at the end of the last run",
			},
			[]string{"controller"},
		),
		NetCost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "net_cost_dollars",
				Help: "Import cost minus export revenue of the last run",
			},
			[]string{"controller"},
		),
	}
	for _, c := range []prometheus.Collector{
		m.StepsTotal,
		m.WarningsTotal,
		m.RunsTotal,
		m.RunDuration,
		m.FinalSOC,
		m.NetCost,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveStep counts one timestep.
func (m *Recorder) ObserveStep(controller string, warned bool) {
	if m == nil {
		return
	}
	m.StepsTotal.WithLabelValues(controller).Inc()
	if warned {
		m.WarningsTotal.WithLabelValues(controller).Inc()
	}
}

// ObserveRun records a finished run. finalSOC and netCost are only set for
// successful runs.
func (m *Recorder) ObserveRun(controller, result string, elapsed time.Duration, finalSOC, netCost float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(controller, result).Inc()
	m.RunDuration.WithLabelValues(controller).Observe(elapsed.Seconds())
	if result == ResultSuccess {
		m.FinalSOC.WithLabelValues(controller).Set(finalSOC)
		m.NetCost.WithLabelValues(controller).Set(netCost)
	}
}
