package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/pass-planner/geometry"
	"github.com/signalsfoundry/pass-planner/internal/logging"
	"github.com/signalsfoundry/pass-planner/model"
)

// DefaultAreaStep is the sampling interval while footprint geometry is
// being evaluated.
const DefaultAreaStep = 2 * time.Second

// AreaPassSweeper finds the intervals during which a sensor's reachable
// footprint intersects a polygonal target.
type AreaPassSweeper struct {
	Step time.Duration
	// Daylight gates sensors that need daylight. Nil disables gating.
	Daylight DaylightPolicy
	log      logging.Logger
	// maxSteps replaces the window-derived iteration budget when positive.
	maxSteps int
}

// NewAreaPassSweeper returns a sweeper with the default step and the given
// daylight policy.
func NewAreaPassSweeper(daylight DaylightPolicy, log logging.Logger) *AreaPassSweeper {
	return &AreaPassSweeper{Step: DefaultAreaStep, Daylight: daylight, log: logging.OrNoop(log)}
}

// Sweep walks the window. Steps where no vertex sees the satellite above its
// horizon are skipped cheaply; otherwise the footprint is projected and
// tested against the target with PolygonCrossPolygon.
func (s *AreaPassSweeper) Sweep(ctx context.Context, obs Observer, target model.AreaTarget, w SweepWindow) ([]model.Pass, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	if err := obs.validate(); err != nil {
		return nil, err
	}
	if len(target.Vertices) < 3 {
		return nil, fmt.Errorf("%w: area target %q needs at least 3 vertices, has %d",
			ErrInvalidGeometry, target.Name, len(target.Vertices))
	}
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}
	step := s.Step
	if step <= 0 {
		step = DefaultAreaStep
	}
	log := logging.OrNoop(s.log)

	sites := make([]Topocentric, len(target.Vertices))
	vertices := make([]Vec3, len(target.Vertices))
	for i, v := range target.Vertices {
		sites[i] = NewTopocentric(v)
		vertices[i] = sites[i].ECEF()
	}
	polygon := target.Polygon()
	centroid := target.Centroid()

	var gate DaylightPolicy
	if obs.Sensor.RequiresDaylight() {
		gate = s.Daylight
	}

	b := passBuilder{max: w.MaxPasses}
	guard := degeneracyGuard{log: log}
	steps := stepCounter{limit: w.budget(step)}
	if s.maxSteps > 0 {
		steps.limit = s.maxSteps
	}

	for t := w.Start; !t.After(w.End) && !b.full(); t = t.Add(step) {
		if err := steps.next(ctx); err != nil {
			return b.passes, err
		}

		if gate != nil {
			if next, ok := gate.Resume(t, centroid); !ok {
				b.close(t)
				if !next.After(t) {
					next = t.Add(step)
				}
				// Each jump costs one extra iteration.
				steps.limit++
				t = next.Add(-step)
				continue
			}
		}

		pos, err := obs.Orbit.PositionECF(t)
		if err != nil {
			return b.passes, fmt.Errorf("satellite %s: %w", obs.ID, err)
		}
		if !anyAbove(sites, pos) {
			b.close(t)
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
		fp, err := ProjectFootprint(tf, obs.Envelope)
		if err != nil {
			if err := guard.skip(ctx, t, err); err != nil {
				return b.passes, err
			}
			continue
		}

		cross := geometry.PolygonCrossPolygon(polygon, fp.Polygon())
		switch {
		case cross && !b.isOpen() && t.Before(w.End):
			angle, err := representativeSideSwing(tf, vertices, obs.Envelope.SideSwing)
			if err != nil {
				if err := guard.skip(ctx, t, err); err != nil {
					return b.passes, err
				}
				continue
			}
			b.start(model.Pass{
				SatelliteID:    obs.ID,
				SatelliteName:  obs.Name,
				TargetName:     target.Name,
				Start:          t,
				SideSwingAngle: angle,
				SideSway:       angle != 0,
			})
		case !cross && b.isOpen():
			b.close(t)
		}
		guard.reset()
	}

	passes := b.finish(w.End)
	log.Debug(ctx, "area sweep complete",
		logging.String("satellite", obs.ID),
		logging.String("target", target.Name),
		logging.Int("passes", len(passes)),
		logging.Int("iterations", steps.used),
	)
	return passes, nil
}

func anyAbove(sites []Topocentric, pos Vec3) bool {
	for _, s := range sites {
		if s.Above(pos) {
			return true
		}
	}
	return false
}

// representativeSideSwing averages the per-vertex side angles when every
// vertex lies on the same side of the ground track, clamped to the swing
// limit. Mixed sides report zero.
func representativeSideSwing(tf TrackFrame, vertices []Vec3, limit float64) (float64, error) {
	var sum float64
	sign := 0
	for _, v := range vertices {
		_, side, err := tf.PointingAngles(v)
		if err != nil {
			return 0, err
		}
		sum += side
		if side > 0 {
			sign++
		} else {
			sign--
		}
	}

	n := len(vertices)
	if n == 0 || absInt(sign) != n {
		return 0, nil
	}
	avg := sum / float64(n)
	angle := avg
	if math.Abs(avg) >= limit {
		angle = math.Copysign(limit, avg)
	}
	if angle == 0 {
		return 0, nil
	}
	return tf.SideSign() * angle, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
