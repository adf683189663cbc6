package core

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/pass-planner/model"
)

// testEpoch is when the mock satellite crosses longitude 0 on the equator.
var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	testAltitude = 500000.0
	testPeriod   = 90 * time.Minute
)

// groundTrackOrbit is a circular equatorial orbit defined in the Earth-fixed
// frame, so its ground track repeats exactly every period. Positions are
// handed out in ECI kilometres like a real propagator.
type groundTrackOrbit struct {
	epoch  time.Time
	period time.Duration
	radius float64
}

func (o groundTrackOrbit) ecf(t time.Time) Vec3 {
	theta := 2 * math.Pi * t.Sub(o.epoch).Seconds() / o.period.Seconds()
	return Vec3{X: o.radius * math.Cos(theta), Y: o.radius * math.Sin(theta)}
}

func (o groundTrackOrbit) Propagate(t time.Time) (Vec3, Vec3, error) {
	return ECFToECI(o.ecf(t), GMST(t)).Scale(1 / kmToM), Vec3{}, nil
}

// fixedPoint never moves in the Earth-fixed frame.
type fixedPoint struct{ ecf Vec3 }

func (f fixedPoint) Propagate(t time.Time) (Vec3, Vec3, error) {
	return ECFToECI(f.ecf, GMST(t)).Scale(1 / kmToM), Vec3{}, nil
}

type failingPropagator struct{}

func (failingPropagator) Propagate(time.Time) (Vec3, Vec3, error) {
	return Vec3{}, Vec3{}, fmt.Errorf("%w: element set expired", ErrPropagation)
}

func newTestOrbit(t *testing.T) *OrbitModel {
	t.Helper()
	m, err := NewOrbitModel("MOCK-1", groundTrackOrbit{
		epoch:  testEpoch,
		period: testPeriod,
		radius: wgs84A + testAltitude,
	}, testPeriod.Minutes())
	if err != nil {
		t.Fatalf("NewOrbitModel: %v", err)
	}
	return m
}

func testObserver(t *testing.T, sensor model.SensorType, env model.SensorEnvelope) Observer {
	return Observer{ID: "mock-1", Name: "MOCK-1", Orbit: newTestOrbit(t), Sensor: sensor, Envelope: env}
}

var equatorStation = model.GroundStation{Name: "equator", Location: model.GeodeticPoint{}}

// nodeCrossing returns the k-th time the mock satellite passes over 0E.
func nodeCrossing(k int) time.Time {
	return testEpoch.Add(time.Duration(k) * testPeriod)
}

func squareTarget(name string, lon, lat, half float64) model.AreaTarget {
	return model.AreaTarget{
		Name: name,
		Vertices: []model.GeodeticPoint{
			{Longitude: lon - half, Latitude: lat - half},
			{Longitude: lon - half, Latitude: lat + half},
			{Longitude: lon + half, Latitude: lat + half},
			{Longitude: lon + half, Latitude: lat - half},
		},
	}
}

func assertOrdered(t *testing.T, passes []model.Pass) {
	t.Helper()
	for i, p := range passes {
		if !p.Start.Before(p.End) {
			t.Fatalf("pass %d: start %v not before end %v", i, p.Start, p.End)
		}
		if i > 0 && passes[i-1].End.After(p.Start) {
			t.Fatalf("pass %d overlaps previous: %v > %v", i, passes[i-1].End, p.Start)
		}
	}
}
