// Package planner fans pass sweeps out across the satellite catalogue and
// merges the results.
package planner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/pass-planner/core"
	"github.com/signalsfoundry/pass-planner/internal/logging"
	"github.com/signalsfoundry/pass-planner/internal/observability"
	"github.com/signalsfoundry/pass-planner/kb"
	"github.com/signalsfoundry/pass-planner/model"
	"github.com/signalsfoundry/pass-planner/tle"
)

const tracerName = "github.com/signalsfoundry/pass-planner/internal/planner"

// Sweep kinds used for metric labels and span attributes.
const (
	KindPoint     = "point"
	KindArea      = "area"
	KindElevation = "elevation"
)

// Request describes one planning run.
type Request struct {
	Targets   []model.AreaTarget
	Start     time.Time
	End       time.Time
	MaxPasses int // per satellite and target; 0 means no cap

	// Categories and SensorTypes restrict the satellites considered. Empty
	// means no restriction.
	Categories  []string
	SensorTypes []model.SensorType
	// Geosynchronous satellites are skipped unless this is set.
	IncludeGeosynchronous bool
}

// SatelliteError is a failure isolated to one satellite, optionally for one
// target.
type SatelliteError struct {
	SatelliteID string
	Target      string
	Err         error
}

func (e SatelliteError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("satellite %s: %v", e.SatelliteID, e.Err)
	}
	return fmt.Sprintf("satellite %s, target %s: %v", e.SatelliteID, e.Target, e.Err)
}

func (e SatelliteError) Unwrap() error { return e.Err }

// Result is the merged output of a plan.
type Result struct {
	PlanID   string
	Passes   []model.Pass
	Failures []SatelliteError
	// Skipped lists satellites excluded by the request filters.
	Skipped []string
}

// Options configures a Planner.
type Options struct {
	// Workers bounds concurrent sweeps; zero means GOMAXPROCS.
	Workers  int
	Daylight core.DaylightPolicy
	Orbits   *core.OrbitRegistry
	Metrics  *observability.PlannerCollector
	Logger   logging.Logger
}

// Planner runs point and area sweeps for every eligible satellite and
// target pair.
type Planner struct {
	catalog *kb.Catalog
	orbits  *core.OrbitRegistry
	point   *core.PointPassSweeper
	area    *core.AreaPassSweeper
	workers int
	metrics *observability.PlannerCollector
	log     logging.Logger
	tracer  trace.Tracer
}

// New constructs a planner reading satellites from catalog.
func New(catalog *kb.Catalog, opts Options) *Planner {
	log := logging.OrNoop(opts.Logger)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	orbits := opts.Orbits
	if orbits == nil {
		orbits = core.NewOrbitRegistry()
	}
	return &Planner{
		catalog: catalog,
		orbits:  orbits,
		point:   core.NewPointPassSweeper(log),
		area:    core.NewAreaPassSweeper(opts.Daylight, log),
		workers: workers,
		metrics: opts.Metrics,
		log:     log,
		tracer:  observability.Tracer(tracerName),
	}
}

// Orbits exposes the orbit cache so other components can share it.
func (p *Planner) Orbits() *core.OrbitRegistry { return p.orbits }

func validateRequest(req Request) error {
	if err := core.ValidateTargets(req.Targets); err != nil {
		return err
	}
	if req.Start.IsZero() || req.End.IsZero() || !req.Start.Before(req.End) {
		return fmt.Errorf("%w: plan window [%s, %s] is empty", core.ErrInvalidInput,
			req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339))
	}
	if req.MaxPasses < 0 {
		return fmt.Errorf("%w: negative pass cap %d", core.ErrInvalidInput, req.MaxPasses)
	}
	return nil
}

type job struct {
	obs    core.Observer
	target model.AreaTarget
}

type jobResult struct {
	passes []model.Pass
	err    error
}

// Plan validates req, selects satellites and runs every sweep. Failures of
// individual satellites are reported in Result.Failures and never abort the
// plan; only request errors and cancellation are returned as errors.
func (p *Planner) Plan(ctx context.Context, req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}

	planID := logging.NewID()
	log := p.log.With(logging.String("plan_id", planID))
	ctx, span := observability.StartPlanSpan(ctx, p.tracer, planID, len(req.Targets))
	defer span.End()
	began := time.Now()

	res := Result{PlanID: planID}
	var jobs []job
	for _, sat := range p.catalog.List() {
		if !matchesFilters(sat, req) {
			res.Skipped = append(res.Skipped, sat.ID)
			continue
		}
		obs, err := ObserverFor(p.orbits, sat)
		if err != nil {
			log.Warn(ctx, "satellite excluded from plan", logging.String("satellite", sat.ID), logging.Err(err))
			p.metrics.IncSatelliteFailures()
			res.Failures = append(res.Failures, SatelliteError{SatelliteID: sat.ID, Err: err})
			continue
		}
		if !req.IncludeGeosynchronous && isGeosynchronous(sat, obs.Orbit) {
			res.Skipped = append(res.Skipped, sat.ID)
			continue
		}
		for _, target := range req.Targets {
			jobs = append(jobs, job{obs: obs, target: target})
		}
	}
	log.Info(ctx, "plan started",
		logging.Int("sweeps", len(jobs)),
		logging.Int("skipped", len(res.Skipped)),
		logging.Time("start", req.Start),
		logging.Time("end", req.End),
	)

	window := core.SweepWindow{Start: req.Start, End: req.End, MaxPasses: req.MaxPasses}
	results := p.run(ctx, jobs, window)

	lists := make([][]model.Pass, 0, len(results))
	failed := make(map[string]bool)
	for i, r := range results {
		if r.err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(r.err, ctxErr) {
				observability.FinishPlanSpan(span, 0, 0, ctxErr)
				return Result{}, ctxErr
			}
			j := jobs[i]
			log.Warn(ctx, "sweep failed",
				logging.String("satellite", j.obs.ID),
				logging.String("target", j.target.Name),
				logging.Err(r.err),
			)
			if !failed[j.obs.ID] {
				failed[j.obs.ID] = true
				p.metrics.IncSatelliteFailures()
			}
			res.Failures = append(res.Failures, SatelliteError{SatelliteID: j.obs.ID, Target: j.target.Name, Err: r.err})
		}
		// Passes found before a failure are still valid.
		lists = append(lists, r.passes)
	}
	res.Passes = core.Aggregate(lists...)

	elapsed := time.Since(began)
	p.metrics.ObservePlan(elapsed)
	observability.FinishPlanSpan(span, len(res.Passes), len(res.Failures), nil)
	log.Info(ctx, "plan complete",
		logging.Int("passes", len(res.Passes)),
		logging.Int("failures", len(res.Failures)),
		logging.Duration("elapsed", elapsed),
	)
	return res, nil
}

// run executes jobs on a bounded pool. Each result lands in the slot of
// its job so the merge does not depend on completion order.
func (p *Planner) run(ctx context.Context, jobs []job, w core.SweepWindow) []jobResult {
	results := make([]jobResult, len(jobs))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i := range jobs {
		select {
		case <-ctx.Done():
			results[i] = jobResult{err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			passes, err := p.sweep(ctx, jobs[i], w)
			results[i] = jobResult{passes: passes, err: err}
		}(i)
	}
	wg.Wait()
	return results
}

func (p *Planner) sweep(ctx context.Context, j job, w core.SweepWindow) ([]model.Pass, error) {
	kind := KindArea
	if j.target.IsPoint() {
		kind = KindPoint
	}
	ctx, span := observability.StartSweepSpan(ctx, p.tracer, j.obs.ID, j.target.Name, kind)
	defer span.End()

	began := time.Now()
	var (
		passes []model.Pass
		err    error
	)
	if kind == KindPoint {
		passes, err = p.point.Sweep(ctx, j.obs, j.target.Station(), j.target.Name, w)
	} else {
		passes, err = p.area.Sweep(ctx, j.obs, j.target, w)
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.FinishSweepSpan(span, len(passes), err)
	p.metrics.ObserveSweep(kind, outcome, time.Since(began), len(passes))
	return passes, err
}

// ObserverFor builds the sweep view of sat, reusing cached orbit models.
func ObserverFor(orbits *core.OrbitRegistry, sat model.Satellite) (core.Observer, error) {
	set, err := tle.ParseLines(sat.Name, sat.Line1, sat.Line2)
	if err != nil {
		return core.Observer{}, err
	}
	orbit, err := orbits.Get(sat.ID, set)
	if err != nil {
		return core.Observer{}, err
	}
	return core.NewObserver(sat, orbit), nil
}

func matchesFilters(sat model.Satellite, req Request) bool {
	if len(req.Categories) > 0 {
		ok := false
		for _, c := range req.Categories {
			if strings.EqualFold(strings.TrimSpace(c), sat.Category) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(req.SensorTypes) > 0 {
		ok := false
		for _, s := range req.SensorTypes {
			if s == sat.Sensor {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// isGeosynchronous prefers the catalogue classification and falls back to
// the orbital period.
func isGeosynchronous(sat model.Satellite, orbit *core.OrbitModel) bool {
	if sat.OrbitalType != model.OrbitUnknown {
		return sat.OrbitalType == model.OrbitGeosynchronous
	}
	return orbit.IsGeosynchronous()
}
