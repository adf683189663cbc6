package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/pass-planner/internal/logging"
	"github.com/signalsfoundry/pass-planner/model"
)

// DefaultPointStep is the fixed sampling interval of the point sweep.
const DefaultPointStep = 6 * time.Second

type pointState int

const (
	pointOutside   pointState = iota // station below the horizon
	pointAscending                   // above the horizon, outside the envelope
	pointInPass
)

// PointPassSweeper finds the intervals during which a ground station lies
// inside a satellite's pointing envelope.
type PointPassSweeper struct {
	Step time.Duration
	log  logging.Logger
}

// NewPointPassSweeper returns a sweeper with the default step.
func NewPointPassSweeper(log logging.Logger) *PointPassSweeper {
	return &PointPassSweeper{Step: DefaultPointStep, log: logging.OrNoop(log)}
}

// Sweep walks the window in fixed steps. A pass opens at the first step
// where |pitch| <= roll+xHalf and |side| <= sideSwing+yHalf and closes at
// the first step where either bound is exceeded or the station drops below
// the horizon.
func (s *PointPassSweeper) Sweep(ctx context.Context, obs Observer, station model.GroundStation, targetName string, w SweepWindow) ([]model.Pass, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	if err := obs.validate(); err != nil {
		return nil, err
	}
	if err := ValidateStation(station); err != nil {
		return nil, err
	}
	step := s.Step
	if step <= 0 {
		step = DefaultPointStep
	}
	log := logging.OrNoop(s.log)

	topo := NewTopocentric(station.Location)
	site := topo.ECEF()
	pitchLimit := obs.Envelope.PitchLimit()
	sideLimit := obs.Envelope.SideLimit()

	b := passBuilder{max: w.MaxPasses}
	guard := degeneracyGuard{log: log}
	steps := stepCounter{limit: w.budget(step)}
	state := pointOutside

	for t := w.Start; !t.After(w.End) && !b.full(); t = t.Add(step) {
		if err := steps.next(ctx); err != nil {
			return b.passes, err
		}

		pos, err := obs.Orbit.PositionECF(t)
		if err != nil {
			return b.passes, fmt.Errorf("satellite %s: %w", obs.ID, err)
		}
		if !topo.Above(pos) {
			if state == pointInPass {
				b.close(t)
			}
			state = pointOutside
			guard.reset()
			continue
		}

		prev, err := obs.Orbit.PositionECF(t.Add(-prevSampleOffset))
		if err != nil {
			return b.passes, fmt.Errorf("satellite %s: %w", obs.ID, err)
		}
		tf, err := NewTrackFrame(pos, prev)
		if err != nil {
			if err := guard.skip(ctx, t, err); err != nil {
				return b.passes, err
			}
			continue
		}
		pitch, side, err := tf.PointingAngles(site)
		if err != nil {
			if err := guard.skip(ctx, t, err); err != nil {
				return b.passes, err
			}
			continue
		}
		guard.reset()

		inView := math.Abs(pitch) <= pitchLimit && math.Abs(side) <= sideLimit
		switch {
		case state != pointInPass && inView && t.Before(w.End):
			p := pitch
			b.start(model.Pass{
				SatelliteID:    obs.ID,
				SatelliteName:  obs.Name,
				TargetName:     targetName,
				Start:          t,
				SideSwingAngle: signedSide(tf, side),
				Pitch:          &p,
				SideSway:       true,
			})
			state = pointInPass
		case state == pointInPass && !inView:
			b.close(t)
			state = pointAscending
		case state == pointOutside:
			state = pointAscending
		}
	}

	passes := b.finish(w.End)
	log.Debug(ctx, "point sweep complete",
		logging.String("satellite", obs.ID),
		logging.String("target", targetName),
		logging.Int("passes", len(passes)),
		logging.Int("iterations", steps.used),
	)
	return passes, nil
}

// signedSide applies the track direction sign without producing -0.
func signedSide(tf TrackFrame, side float64) float64 {
	if side == 0 {
		return 0
	}
	return tf.SideSign() * side
}
