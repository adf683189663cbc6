package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PlannerCollector exposes pass-planning metrics.
type PlannerCollector struct {
	gatherer prometheus.Gatherer

	SweepsTotal       *prometheus.CounterVec
	SweepDuration     *prometheus.HistogramVec
	PassesFound       *prometheus.CounterVec
	SatelliteFailures prometheus.Counter
	PlanDuration      prometheus.Histogram
	CatalogSatellites prometheus.Gauge
	TrackerRefreshes  prometheus.Counter
}

// NewPlannerCollector registers planner metrics against the provided registerer.
func NewPlannerCollector(reg prometheus.Registerer) (*PlannerCollector, error) {
	reg, gatherer := resolveRegistry(reg)

	sweeps, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_sweeps_total",
		Help: "Completed pass sweeps, labeled by sweep kind and outcome.",
	}, []string{"kind", "outcome"}), "planner_sweeps_total")
	if err != nil {
		return nil, err
	}

	sweepDuration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_sweep_duration_seconds",
		Help:    "Wall-clock duration of a single satellite/target sweep.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"}), "planner_sweep_duration_seconds")
	if err != nil {
		return nil, err
	}

	passes, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_passes_found_total",
		Help: "Passes produced by sweeps, labeled by sweep kind.",
	}, []string{"kind"}), "planner_passes_found_total")
	if err != nil {
		return nil, err
	}

	failures, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planner_satellite_failures_total",
		Help: "Satellites whose sweeps failed and were isolated from the rest of a plan.",
	}), "planner_satellite_failures_total")
	if err != nil {
		return nil, err
	}

	planDuration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_plan_duration_seconds",
		Help:    "Wall-clock duration of a full plan across all satellites and targets.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}), "planner_plan_duration_seconds")
	if err != nil {
		return nil, err
	}

	catalog, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planner_catalog_satellites",
		Help: "Current number of satellites in the catalogue.",
	}), "planner_catalog_satellites")
	if err != nil {
		return nil, err
	}

	refreshes, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracker_refreshes_total",
		Help: "Rolling-window pass recomputations performed by the tracker.",
	}), "tracker_refreshes_total")
	if err != nil {
		return nil, err
	}

	return &PlannerCollector{
		gatherer:          gatherer,
		SweepsTotal:       sweeps,
		SweepDuration:     sweepDuration,
		PassesFound:       passes,
		SatelliteFailures: failures,
		PlanDuration:      planDuration,
		CatalogSatellites: catalog,
		TrackerRefreshes:  refreshes,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *PlannerCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveSweep records one finished sweep.
func (c *PlannerCollector) ObserveSweep(kind, outcome string, d time.Duration, passes int) {
	if c == nil {
		return
	}
	if c.SweepsTotal != nil {
		c.SweepsTotal.WithLabelValues(kind, outcome).Inc()
	}
	if c.SweepDuration != nil {
		c.SweepDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
	if c.PassesFound != nil && passes > 0 {
		c.PassesFound.WithLabelValues(kind).Add(float64(passes))
	}
}

// IncSatelliteFailures counts a satellite isolated from a plan.
func (c *PlannerCollector) IncSatelliteFailures() {
	if c == nil || c.SatelliteFailures == nil {
		return
	}
	c.SatelliteFailures.Inc()
}

// ObservePlan records a full plan duration.
func (c *PlannerCollector) ObservePlan(d time.Duration) {
	if c == nil || c.PlanDuration == nil {
		return
	}
	c.PlanDuration.Observe(d.Seconds())
}

// SetCatalogSize updates the catalogue gauge.
func (c *PlannerCollector) SetCatalogSize(n int) {
	if c == nil || c.CatalogSatellites == nil {
		return
	}
	c.CatalogSatellites.Set(float64(n))
}

// IncTrackerRefresh counts one tracker window recomputation.
func (c *PlannerCollector) IncTrackerRefresh() {
	if c == nil || c.TrackerRefreshes == nil {
		return
	}
	c.TrackerRefreshes.Inc()
}
