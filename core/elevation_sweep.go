package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/pass-planner/internal/logging"
	"github.com/signalsfoundry/pass-planner/model"
)

// Elevation sweep step sizes.
const (
	elevationInPassStep = 5 * time.Second
	elevationFineStep   = 2 * time.Second
)

// DefaultMinElevation is the mask a pass's peak must exceed to be kept.
const DefaultMinElevation = 45.0

// ElevationPassSweeper finds horizon-to-horizon passes over a station and
// keeps those whose peak elevation exceeds MinElevation. It steps
// adaptively on the elevation trend: coarse while the satellite is far
// below the horizon, fine near rise, and it skips most of an orbit once the
// satellite is moving away.
type ElevationPassSweeper struct {
	MinElevation float64
	log          logging.Logger
}

// NewElevationPassSweeper returns a sweeper with the given mask in degrees.
func NewElevationPassSweeper(minElevation float64, log logging.Logger) *ElevationPassSweeper {
	return &ElevationPassSweeper{MinElevation: minElevation, log: logging.OrNoop(log)}
}

// Sweep runs the elevation state machine over the window.
func (s *ElevationPassSweeper) Sweep(ctx context.Context, obs Observer, station model.GroundStation, w SweepWindow) ([]model.ElevationPass, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	if obs.Orbit == nil {
		return nil, fmt.Errorf("%w: observer %q has no orbit", ErrInvalidInput, obs.ID)
	}
	if err := ValidateStation(station); err != nil {
		return nil, err
	}
	log := logging.OrNoop(s.log)

	topo := NewTopocentric(station.Location)
	skip := orbitSkip(obs.Orbit.OrbitalPeriod())
	steps := stepCounter{limit: w.budget(elevationFineStep)}

	var (
		passes []model.ElevationPass
		open   *model.ElevationPass
		lastEl = -180.0
	)
	full := func() bool { return w.MaxPasses > 0 && len(passes) >= w.MaxPasses }

	t := w.Start
	for !t.After(w.End) && !full() {
		if err := steps.next(ctx); err != nil {
			return passes, err
		}
		pos, err := obs.Orbit.PositionECF(t)
		if err != nil {
			return passes, fmt.Errorf("satellite %s: %w", obs.ID, err)
		}
		la := topo.LookAngles(pos)
		el := la.Elevation

		if el > 0 {
			if open == nil {
				open = &model.ElevationPass{
					SatelliteID:   obs.ID,
					SatelliteName: obs.Name,
					Start:         t,
					AzimuthStart:  la.Azimuth,
					AzimuthApex:   la.Azimuth,
					MaxElevation:  el,
				}
			} else if el > open.MaxElevation {
				open.MaxElevation = el
				open.AzimuthApex = la.Azimuth
			}
			t = t.Add(elevationInPassStep)
			continue
		}

		if open != nil {
			open.End = t
			open.AzimuthEnd = la.Azimuth
			if open.MaxElevation > s.MinElevation {
				passes = append(passes, *open)
			}
			open = nil
			lastEl = -180
			t = t.Add(skip)
			continue
		}

		delta := el - lastEl
		lastEl = el
		if delta < 0 {
			// Setting; the next rise is most of an orbit away.
			lastEl = -180
			t = t.Add(skip)
			continue
		}
		switch {
		case el < -20:
			t = t.Add(5 * time.Minute)
		case el < -5:
			t = t.Add(time.Minute)
		case el < -1:
			t = t.Add(5 * time.Second)
		default:
			t = t.Add(elevationFineStep)
		}
	}

	if open != nil && !full() && w.End.After(open.Start) {
		open.End = w.End
		open.Truncated = true
		if pos, err := obs.Orbit.PositionECF(w.End); err == nil {
			open.AzimuthEnd = topo.LookAngles(pos).Azimuth
		}
		if open.MaxElevation > s.MinElevation {
			passes = append(passes, *open)
		}
	}

	log.Debug(ctx, "elevation sweep complete",
		logging.String("satellite", obs.ID),
		logging.Int("passes", len(passes)),
		logging.Int("iterations", steps.used),
	)
	return passes, nil
}

// orbitSkip is three quarters of the period in whole minutes, at least one.
func orbitSkip(periodMinutes float64) time.Duration {
	m := math.Trunc(0.75 * periodMinutes)
	if m < 1 {
		m = 1
	}
	return time.Duration(m) * time.Minute
}
