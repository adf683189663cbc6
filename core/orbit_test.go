package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/pass-planner/tle"
)

const (
	issLine1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issLine2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

func issSet(t *testing.T) tle.Set {
	t.Helper()
	set, err := tle.ParseLines("ISS (ZARYA)", issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}
	return set
}

func TestOrbitModelFromTLE(t *testing.T) {
	m, err := NewOrbitModelFromTLE(issSet(t))
	if err != nil {
		t.Fatalf("NewOrbitModelFromTLE: %v", err)
	}
	if math.Abs(m.OrbitalPeriod()-92.94) > 0.05 {
		t.Fatalf("OrbitalPeriod = %v, want ~92.94 min", m.OrbitalPeriod())
	}
	if m.IsGeosynchronous() {
		t.Fatalf("ISS is not geosynchronous")
	}

	at := time.Date(2021, 10, 2, 12, 0, 0, 0, time.UTC)
	eci, err := m.PositionECI(at)
	if err != nil {
		t.Fatalf("PositionECI: %v", err)
	}
	if r := eci.Norm(); r < 6600 || r > 6900 {
		t.Fatalf("ISS radius = %v km, want LEO", r)
	}

	ecf, err := m.PositionECF(at)
	if err != nil {
		t.Fatalf("PositionECF: %v", err)
	}
	if math.Abs(ecf.Norm()-eci.Norm()*kmToM) > 1e-3 {
		t.Fatalf("ECF radius %v m does not match ECI radius %v km", ecf.Norm(), eci.Norm())
	}

	geo, err := m.PositionGeodetic(at)
	if err != nil {
		t.Fatalf("PositionGeodetic: %v", err)
	}
	if math.Abs(geo.Latitude) > 51.7 {
		t.Fatalf("latitude %v exceeds inclination", geo.Latitude)
	}
	if geo.Height < 350000 || geo.Height > 450000 {
		t.Fatalf("height = %v m, want ISS altitude in metres", geo.Height)
	}
}

func TestOrbitModelIsIdempotent(t *testing.T) {
	m, err := NewOrbitModelFromTLE(issSet(t))
	if err != nil {
		t.Fatalf("NewOrbitModelFromTLE: %v", err)
	}
	at := time.Date(2021, 10, 3, 5, 6, 7, 0, time.UTC)
	a, _ := m.PositionECF(at)
	b, _ := m.PositionECF(at)
	if a != b {
		t.Fatalf("repeated query differs: %+v vs %+v", a, b)
	}
}

func TestOrbitModelState(t *testing.T) {
	m := newTestOrbit(t)
	at := nodeCrossing(1)

	eci, err := m.State(at, FrameECI)
	if err != nil || eci.Frame != FrameECI {
		t.Fatalf("State(ECI) = %+v, %v", eci, err)
	}
	ecf, err := m.State(at, FrameECF)
	if err != nil {
		t.Fatalf("State(ECF): %v", err)
	}
	approxVec(t, "ecf", ecf.Position, Vec3{X: wgs84A + testAltitude}, 1e-3)

	geo, err := m.State(at, FrameGeodetic)
	if err != nil {
		t.Fatalf("State(geodetic): %v", err)
	}
	if math.Abs(geo.Geodetic.Height-testAltitude) > 1e-3 || math.Abs(geo.Geodetic.Longitude) > 1e-9 {
		t.Fatalf("geodetic = %+v", geo.Geodetic)
	}
	if FrameGeodetic.String() != "geodetic" {
		t.Fatalf("frame name = %q", FrameGeodetic.String())
	}
}

func TestNewOrbitModelRejectsBadInput(t *testing.T) {
	if _, err := NewOrbitModel("x", nil, 90); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("nil propagator error = %v", err)
	}
	if _, err := NewOrbitModel("x", fixedPoint{}, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero period error = %v", err)
	}
	bad := issSet(t)
	bad.Line2 = bad.Line2[:60]
	if _, err := NewOrbitModelFromTLE(bad); !errors.Is(err, tle.ErrMalformed) {
		t.Fatalf("malformed TLE error = %v", err)
	}
}

func TestOrbitRegistryReusesAndRebuilds(t *testing.T) {
	r := NewOrbitRegistry()
	builds := 0
	r.build = func(set tle.Set) (*OrbitModel, error) {
		builds++
		return NewOrbitModel(set.Name, fixedPoint{}, set.PeriodMinutes())
	}

	set := issSet(t)
	a, err := r.Get("iss", set)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, _ := r.Get("iss", set)
	if a != b || builds != 1 {
		t.Fatalf("expected cached model, builds = %d", builds)
	}

	set.Line1 = set.Line1[:68] + "1"
	if c, _ := r.Get("iss", set); c == a || builds != 2 {
		t.Fatalf("changed TLE should rebuild, builds = %d", builds)
	}

	r.Invalidate("iss")
	if r.Len() != 0 {
		t.Fatalf("Len after Invalidate = %d", r.Len())
	}
}
