package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/signalsfoundry/pass-planner/model"
)

func TestElevationSweepOverheadPasses(t *testing.T) {
	obs := testObserver(t, model.SensorOptical, model.DefaultEnvelope())
	s := NewElevationPassSweeper(DefaultMinElevation, nil)
	w := SweepWindow{Start: testEpoch.Add(-30 * time.Minute), End: testEpoch.Add(24*time.Hour - 30*time.Minute)}

	passes, err := s.Sweep(context.Background(), obs, equatorStation, w)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(passes) != 16 {
		t.Fatalf("got %d passes, want 16", len(passes))
	}

	// From 500 km the horizon is 0.3837 rad of orbit away: 329.7 s.
	const halfPass = 330 * time.Second
	for k, p := range passes {
		node := nodeCrossing(k)
		if d := p.Start.Sub(node.Add(-halfPass)); d < -5*time.Second || d > 5*time.Second {
			t.Errorf("pass %d rises at %v, want ~%v", k, p.Start, node.Add(-halfPass))
		}
		if d := p.End.Sub(node.Add(halfPass)); d < -5*time.Second || d > 10*time.Second {
			t.Errorf("pass %d sets at %v, want ~%v", k, p.End, node.Add(halfPass))
		}
		if p.MaxElevation < 85 {
			t.Errorf("pass %d max elevation = %v, want overhead", k, p.MaxElevation)
		}
		if k > 0 && passes[k-1].End.After(p.Start) {
			t.Errorf("pass %d overlaps the previous one", k)
		}
	}
}

// A window opening while the satellite is still below the horizon but
// rising must not treat the first sample as a descent and skip the pass.
func TestElevationSweepFirstSampleDoesNotSkip(t *testing.T) {
	obs := testObserver(t, model.SensorOptical, model.DefaultEnvelope())
	node := nodeCrossing(1)
	w := SweepWindow{Start: node.Add(-10 * time.Minute), End: node.Add(30 * time.Minute)}

	passes, err := NewElevationPassSweeper(DefaultMinElevation, nil).Sweep(context.Background(), obs, equatorStation, w)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(passes) != 1 {
		t.Fatalf("got %d passes, want the one at %v", len(passes), node)
	}
	if node.Before(passes[0].Start) || !node.Before(passes[0].End) {
		t.Fatalf("pass [%v, %v) does not contain %v", passes[0].Start, passes[0].End, node)
	}
}

func TestElevationSweepMaskAndCap(t *testing.T) {
	obs := testObserver(t, model.SensorOptical, model.DefaultEnvelope())
	w := SweepWindow{Start: testEpoch.Add(-30 * time.Minute), End: testEpoch.Add(24*time.Hour - 30*time.Minute)}

	// 10 degrees north of the track the peak elevation is far below 45.
	offTrack := model.GroundStation{Location: model.GeodeticPoint{Latitude: 10}}
	passes, err := NewElevationPassSweeper(DefaultMinElevation, nil).Sweep(context.Background(), obs, offTrack, w)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(passes) != 0 {
		t.Fatalf("masked sweep returned %d passes", len(passes))
	}

	w.MaxPasses = 2
	passes, err = NewElevationPassSweeper(0, nil).Sweep(context.Background(), obs, equatorStation, w)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(passes) != 2 {
		t.Fatalf("capped sweep returned %d passes, want 2", len(passes))
	}
}

func TestElevationSweepTruncatesOpenPass(t *testing.T) {
	obs := testObserver(t, model.SensorOptical, model.DefaultEnvelope())
	w := SweepWindow{Start: testEpoch.Add(-30 * time.Minute), End: testEpoch}

	passes, err := NewElevationPassSweeper(DefaultMinElevation, nil).Sweep(context.Background(), obs, equatorStation, w)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(passes) != 1 || !passes[0].Truncated || !passes[0].End.Equal(testEpoch) {
		t.Fatalf("want one truncated pass ending at the window end, got %+v", passes)
	}
}

func TestElevationSweepErrors(t *testing.T) {
	s := NewElevationPassSweeper(DefaultMinElevation, nil)
	w := SweepWindow{Start: testEpoch, End: testEpoch.Add(time.Hour)}

	if _, err := s.Sweep(context.Background(), Observer{ID: "none"}, equatorStation, w); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing orbit error = %v", err)
	}

	dead, _ := NewOrbitModel("dead", failingPropagator{}, 90)
	if _, err := s.Sweep(context.Background(), Observer{ID: "dead", Orbit: dead}, equatorStation, w); !errors.Is(err, ErrPropagation) {
		t.Fatalf("propagation error = %v", err)
	}
}

func TestOrbitSkip(t *testing.T) {
	if got := orbitSkip(90); got != 67*time.Minute {
		t.Fatalf("orbitSkip(90) = %v, want 67m", got)
	}
	if got := orbitSkip(0.5); got != time.Minute {
		t.Fatalf("orbitSkip(0.5) = %v, want 1m floor", got)
	}
}
