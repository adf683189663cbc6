package planner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/pass-planner/core"
	"github.com/signalsfoundry/pass-planner/internal/logging"
	"github.com/signalsfoundry/pass-planner/internal/observability"
	"github.com/signalsfoundry/pass-planner/kb"
	"github.com/signalsfoundry/pass-planner/model"
	"github.com/signalsfoundry/pass-planner/timectrl"
)

// Rolling window bounds. Passes are predicted over
// [now-trackerLookback, now+trackerLookahead] and reused while now stays
// within [now-trackerLookback, now+trackerCacheAhead] of the last refresh.
const (
	trackerLookback   = 24 * time.Hour
	trackerCacheAhead = 24 * time.Hour
	trackerLookahead  = 4 * 24 * time.Hour

	DefaultTrackerMaxPasses = 20
)

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	Station      model.GroundStation
	MinElevation float64 // degrees; zero means core.DefaultMinElevation
	MaxPasses    int     // per satellite; zero means DefaultTrackerMaxPasses
	Orbits       *core.OrbitRegistry
	Metrics      *observability.PlannerCollector
	Logger       logging.Logger
}

type trackedSatellite struct {
	cacheStart, cacheEnd time.Time
	passes               []model.ElevationPass
	intervals            *core.PassIntervalCollection
}

func (ts *trackedSatellite) fresh(now time.Time) bool {
	return ts != nil && !now.Before(ts.cacheStart) && !now.After(ts.cacheEnd)
}

// Tracker keeps a rolling set of elevation passes over one ground station
// for every catalogued satellite.
type Tracker struct {
	catalog   *kb.Catalog
	orbits    *core.OrbitRegistry
	sweeper   *core.ElevationPassSweeper
	station   model.GroundStation
	maxPasses int
	metrics   *observability.PlannerCollector
	tracer    trace.Tracer
	log       logging.Logger

	refreshMu sync.Mutex

	mu      sync.RWMutex
	tracked map[string]*trackedSatellite

	ready       atomic.Bool
	unsubscribe func()
}

// NewTracker validates the station and subscribes to catalogue changes so
// updated or removed satellites are recomputed on the next refresh.
func NewTracker(catalog *kb.Catalog, opts TrackerOptions) (*Tracker, error) {
	if err := core.ValidateStation(opts.Station); err != nil {
		return nil, err
	}
	log := logging.OrNoop(opts.Logger)
	minEl := opts.MinElevation
	if minEl == 0 {
		minEl = core.DefaultMinElevation
	}
	maxPasses := opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultTrackerMaxPasses
	}
	orbits := opts.Orbits
	if orbits == nil {
		orbits = core.NewOrbitRegistry()
	}

	t := &Tracker{
		catalog:   catalog,
		orbits:    orbits,
		sweeper:   core.NewElevationPassSweeper(minEl, log),
		station:   opts.Station,
		maxPasses: maxPasses,
		metrics:   opts.Metrics,
		tracer:    observability.Tracer(tracerName),
		log:       log,
		tracked:   make(map[string]*trackedSatellite),
	}
	t.unsubscribe = catalog.Subscribe(t.onCatalogEvent)
	return t, nil
}

func (t *Tracker) onCatalogEvent(ev kb.Event) {
	if ev.Type == kb.EventSatelliteAdded {
		return
	}
	t.mu.Lock()
	delete(t.tracked, ev.Satellite.ID)
	t.mu.Unlock()
	if ev.Type == kb.EventSatelliteRemoved {
		t.orbits.Invalidate(ev.Satellite.ID)
	}
}

// Close stops listening to the catalogue.
func (t *Tracker) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
}

// Attach refreshes the tracker on every tick of tc.
func (t *Tracker) Attach(tc *timectrl.TimeController) {
	tc.AddListener(func(now time.Time) {
		_ = t.Refresh(context.Background(), now)
	})
}

// Ready reports whether at least one refresh has completed.
func (t *Tracker) Ready() bool { return t.ready.Load() }

// Refresh recomputes passes for every satellite whose cached window no
// longer covers now. Per-satellite failures are logged and joined into the
// returned error; other satellites are still refreshed.
func (t *Tracker) Refresh(ctx context.Context, now time.Time) error {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	ctx, span := observability.StartRefreshSpan(ctx, t.tracer, now)
	defer span.End()

	var errs []error
	recomputed := 0
	for _, sat := range t.catalog.List() {
		t.mu.RLock()
		ts := t.tracked[sat.ID]
		t.mu.RUnlock()
		if ts.fresh(now) {
			continue
		}

		next, err := t.compute(ctx, sat, now)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			t.log.Warn(ctx, "tracker refresh failed", logging.String("satellite", sat.ID), logging.Err(err))
			errs = append(errs, SatelliteError{SatelliteID: sat.ID, Err: err})
			continue
		}
		if !t.store(sat, next) {
			t.log.Debug(ctx, "discarding window built from superseded elements", logging.String("satellite", sat.ID))
			continue
		}
		recomputed++
		t.metrics.IncTrackerRefresh()
	}
	t.pruneRemoved()
	t.metrics.SetCatalogSize(t.catalog.Len())
	t.ready.Store(true)
	observability.FinishRefreshSpan(span, recomputed, len(errs))
	return errors.Join(errs...)
}

// store caches ts for sat unless the catalogue entry changed while it was
// being computed. The check runs under t.mu so a concurrent catalogue event
// either sees the stored window and drops it, or makes the check fail.
func (t *Tracker) store(sat model.Satellite, ts *trackedSatellite) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.catalog.Get(sat.ID)
	if !ok || cur.Line1 != sat.Line1 || cur.Line2 != sat.Line2 {
		return false
	}
	t.tracked[sat.ID] = ts
	return true
}

func (t *Tracker) compute(ctx context.Context, sat model.Satellite, now time.Time) (*trackedSatellite, error) {
	obs, err := ObserverFor(t.orbits, sat)
	if err != nil {
		return nil, err
	}
	w := core.SweepWindow{
		Start:     now.Add(-trackerLookback),
		End:       now.Add(trackerLookahead),
		MaxPasses: t.maxPasses,
	}
	began := time.Now()
	passes, err := t.sweeper.Sweep(ctx, obs, t.station, w)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	t.metrics.ObserveSweep(KindElevation, outcome, time.Since(began), len(passes))
	if err != nil {
		return nil, err
	}
	t.log.Debug(ctx, "tracker window recomputed",
		logging.String("satellite", sat.ID),
		logging.Int("passes", len(passes)),
		logging.Time("now", now),
	)
	return &trackedSatellite{
		cacheStart: now.Add(-trackerLookback),
		cacheEnd:   now.Add(trackerCacheAhead),
		passes:     passes,
		intervals:  core.IntervalsFromElevationPasses(passes),
	}, nil
}

func (t *Tracker) pruneRemoved() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.tracked {
		if _, ok := t.catalog.Get(id); !ok {
			delete(t.tracked, id)
		}
	}
}

// InPass reports whether satellite id is above the station at time at.
func (t *Tracker) InPass(id string, at time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ts, ok := t.tracked[id]
	if !ok {
		return false
	}
	return ts.intervals.Contains(at)
}

// Passes returns a copy of the cached passes for id.
func (t *Tracker) Passes(id string) ([]model.ElevationPass, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ts, ok := t.tracked[id]
	if !ok {
		return nil, false
	}
	return append([]model.ElevationPass(nil), ts.passes...), true
}

// Upcoming returns passes of all satellites that have not ended by now and
// start before now+ahead, ordered by start time.
func (t *Tracker) Upcoming(now time.Time, ahead time.Duration) []model.ElevationPass {
	horizon := now.Add(ahead)
	t.mu.RLock()
	lists := make([][]model.ElevationPass, 0, len(t.tracked))
	for _, ts := range t.tracked {
		var sel []model.ElevationPass
		for _, p := range ts.passes {
			if p.End.After(now) && p.Start.Before(horizon) {
				sel = append(sel, p)
			}
		}
		lists = append(lists, sel)
	}
	t.mu.RUnlock()
	return core.AggregateElevation(lists...)
}
