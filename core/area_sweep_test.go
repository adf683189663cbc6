package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/pass-planner/model"
)

var wideEnvelope = model.SensorEnvelope{SideSwing: 0, XHalfAngle: 5, YHalfAngle: 5}

func TestAreaSweepOnePassPerOrbit(t *testing.T) {
	obs := testObserver(t, model.SensorRadar, wideEnvelope)
	s := NewAreaPassSweeper(DefaultHourWindow(time.UTC), nil)

	passes, err := s.Sweep(context.Background(), obs, squareTarget("box", 0, 0, 0.5), dayWindow())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(passes) != 16 {
		t.Fatalf("got %d passes, want 16 (radar ignores daylight)", len(passes))
	}
	assertOrdered(t, passes)

	// The footprint reaches 0.39 deg either side of the track and the box is
	// 0.5 deg, so contact lasts while the sub-point is within ~0.89 deg.
	for k, p := range passes {
		node := nodeCrossing(k)
		if node.Before(p.Start) || !node.Before(p.End) {
			t.Errorf("pass %d [%v, %v) does not contain node crossing %v", k, p.Start, p.End, node)
		}
		if d := p.Duration(); d < 20*time.Second || d > 34*time.Second {
			t.Errorf("pass %d duration = %v", k, d)
		}
		if p.SideSway || p.SideSwingAngle != 0 {
			t.Errorf("pass %d straddles the track, want zero side swing, got %v", k, p.SideSwingAngle)
		}
		if p.Pitch != nil {
			t.Errorf("area pass %d carries pitch", k)
		}
	}
}

func TestAreaSweepDaylightGate(t *testing.T) {
	obs := testObserver(t, model.SensorOptical, wideEnvelope)
	s := NewAreaPassSweeper(DefaultHourWindow(time.UTC), nil)

	passes, err := s.Sweep(context.Background(), obs, squareTarget("box", 0, 0, 0.5), dayWindow())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	// Crossings every 90 minutes; 09:00 through 18:00 fall inside [09, 19).
	if len(passes) != 7 {
		t.Fatalf("got %d passes, want 7 daylight passes", len(passes))
	}
	if want := testEpoch.Add(9 * time.Hour); !passes[0].Start.Equal(want) {
		t.Fatalf("first pass starts %v, want gate opening %v", passes[0].Start, want)
	}
	for _, p := range passes {
		if h := p.Start.Hour(); h < 9 || h >= 19 {
			t.Fatalf("pass outside daylight window: %v", p.Start)
		}
	}
}

type cutoffPolicy struct{ at time.Time }

func (c cutoffPolicy) Resume(t time.Time, _ model.GeodeticPoint) (time.Time, bool) {
	if t.Before(c.at) {
		return t, true
	}
	return c.at.Add(24 * time.Hour), false
}

func TestAreaSweepGateClosesOpenPass(t *testing.T) {
	obs := testObserver(t, model.SensorOptical, wideEnvelope)
	node := nodeCrossing(6)
	s := NewAreaPassSweeper(cutoffPolicy{at: node.Add(4 * time.Second)}, nil)

	w := SweepWindow{Start: node.Add(-time.Minute), End: node.Add(time.Minute)}
	passes, err := s.Sweep(context.Background(), obs, squareTarget("box", 0, 0, 0.5), w)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(passes) != 1 {
		t.Fatalf("got %d passes, want 1", len(passes))
	}
	if !passes[0].End.Equal(node.Add(4*time.Second)) || passes[0].Truncated {
		t.Fatalf("pass should close at the gate, got %+v", passes[0])
	}
}

func TestAreaSweepRepresentativeSideSwing(t *testing.T) {
	env := model.SensorEnvelope{SideSwing: 20, XHalfAngle: 5, YHalfAngle: 5}
	obs := testObserver(t, model.SensorRadar, env)
	s := NewAreaPassSweeper(nil, nil)
	w := SweepWindow{Start: testEpoch.Add(-5 * time.Minute), End: testEpoch.Add(5 * time.Minute)}

	sweepOne := func(target model.AreaTarget) model.Pass {
		t.Helper()
		passes, err := s.Sweep(context.Background(), obs, target, w)
		if err != nil {
			t.Fatalf("Sweep(%s): %v", target.Name, err)
		}
		if len(passes) != 1 {
			t.Fatalf("Sweep(%s) = %d passes, want 1", target.Name, len(passes))
		}
		return passes[0]
	}

	near := sweepOne(squareTarget("near-north", 0, 1, 0.25))
	if a := math.Abs(near.SideSwingAngle); a < 10 || a > 15 || !near.SideSway {
		t.Fatalf("near target side swing = %v, want ~12.5", near.SideSwingAngle)
	}

	south := sweepOne(squareTarget("near-south", 0, -1, 0.25))
	if math.Abs(near.SideSwingAngle+south.SideSwingAngle) > 1e-6 {
		t.Fatalf("mirrored targets should have opposite angles: %v vs %v", near.SideSwingAngle, south.SideSwingAngle)
	}

	far := sweepOne(squareTarget("far-north", 0, 2, 0.5))
	if a := math.Abs(far.SideSwingAngle); a != 20 {
		t.Fatalf("far target side swing = %v, want clamped to 20", far.SideSwingAngle)
	}
	if math.Signbit(far.SideSwingAngle) != math.Signbit(near.SideSwingAngle) {
		t.Fatalf("targets on the same side should share a sign")
	}
}

func TestAreaSweepRejectsDegenerateTargets(t *testing.T) {
	obs := testObserver(t, model.SensorRadar, wideEnvelope)
	s := NewAreaPassSweeper(nil, nil)

	single := model.AreaTarget{Name: "pin", Vertices: []model.GeodeticPoint{{}}}
	if _, err := s.Sweep(context.Background(), obs, single, dayWindow()); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("single vertex error = %v, want ErrInvalidGeometry", err)
	}
	pair := model.AreaTarget{Name: "pair", Vertices: []model.GeodeticPoint{{}, {Longitude: 1}}}
	if _, err := s.Sweep(context.Background(), obs, pair, dayWindow()); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("two vertex error = %v, want ErrInvalidGeometry", err)
	}
}

// A single-vertex target goes to the point sweep; the closest area
// equivalent is a tiny square around the same station. Both must see the
// satellite once per orbit around the same node crossing.
func TestPointAndTinyAreaAgree(t *testing.T) {
	obs := testObserver(t, model.SensorRadar, narrowEnvelope)

	points, err := NewPointPassSweeper(nil).Sweep(context.Background(), obs, equatorStation, "pin", dayWindow())
	if err != nil {
		t.Fatalf("point Sweep: %v", err)
	}
	areas, err := NewAreaPassSweeper(nil, nil).Sweep(context.Background(), obs, squareTarget("pin", 0, 0, 0.001), dayWindow())
	if err != nil {
		t.Fatalf("area Sweep: %v", err)
	}
	if len(points) != len(areas) {
		t.Fatalf("point sweep found %d passes, area sweep %d", len(points), len(areas))
	}
	for i := range points {
		if d := points[i].Start.Sub(areas[i].Start); d < -30*time.Second || d > 30*time.Second {
			t.Fatalf("pass %d starts differ by %v", i, d)
		}
	}
}

func TestAreaSweepIsIdempotent(t *testing.T) {
	obs := testObserver(t, model.SensorOptical, wideEnvelope)
	s := NewAreaPassSweeper(DefaultHourWindow(time.UTC), nil)
	target := squareTarget("box", 0, 0, 0.5)

	first, err := s.Sweep(context.Background(), obs, target, dayWindow())
	if err != nil {
		t.Fatalf("first Sweep: %v", err)
	}
	second, err := s.Sweep(context.Background(), obs, target, dayWindow())
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(first) == 0 || !bytes.Equal(a, b) {
		t.Fatalf("sweeps differ:\n%s\n%s", a, b)
	}
}

func TestAreaSweepBudgetCoversDaylightJumps(t *testing.T) {
	obs := testObserver(t, model.SensorOptical, wideEnvelope)
	target := squareTarget("box", 0, 0, 0.5)
	w := SweepWindow{Start: testEpoch.Add(-time.Minute), End: testEpoch.Add(72*time.Hour - time.Minute)}

	// Three nights of gating; each jump must be paid for by the budget.
	passes, err := NewAreaPassSweeper(DefaultHourWindow(time.UTC), nil).Sweep(context.Background(), obs, target, w)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(passes) != 21 {
		t.Fatalf("got %d passes, want 7 per day over 3 days", len(passes))
	}
	assertOrdered(t, passes)

	s := NewAreaPassSweeper(DefaultHourWindow(time.UTC), nil)
	s.maxSteps = 500
	if _, err := s.Sweep(context.Background(), obs, target, w); !errors.Is(err, ErrIterationBudget) {
		t.Fatalf("Sweep error = %v, want ErrIterationBudget", err)
	}
}
