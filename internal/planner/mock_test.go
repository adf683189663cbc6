package planner

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/pass-planner/core"
	"github.com/signalsfoundry/pass-planner/kb"
	"github.com/signalsfoundry/pass-planner/model"
	"github.com/signalsfoundry/pass-planner/tle"
)

const (
	issLine1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issLine2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

// testEpoch is when the mock orbit crosses 0E on the equator.
var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const testPeriod = 90 * time.Minute

var wideEnvelope = model.SensorEnvelope{XHalfAngle: 5, YHalfAngle: 5}

// groundTrack is a 500 km circular equatorial orbit fixed in the Earth
// frame; it repeats over the same ground track every period.
type groundTrack struct{}

func (groundTrack) Propagate(t time.Time) (core.Vec3, core.Vec3, error) {
	theta := 2 * math.Pi * t.Sub(testEpoch).Seconds() / testPeriod.Seconds()
	r := 6378137.0 + 500000
	ecf := core.Vec3{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
	return core.ECFToECI(ecf, core.GMST(t)).Scale(1.0 / 1000), core.Vec3{}, nil
}

type failingPropagator struct{}

func (failingPropagator) Propagate(time.Time) (core.Vec3, core.Vec3, error) {
	return core.Vec3{}, core.Vec3{}, fmt.Errorf("%w: element set expired", core.ErrPropagation)
}

var errNoElements = errors.New("no elements")

// buildMock picks a mock propagator by satellite name so catalogue entries
// can carry real element sets while sweeps stay deterministic.
func buildMock(set tle.Set) (*core.OrbitModel, error) {
	switch set.Name {
	case "BROKEN":
		return nil, errNoElements
	case "FAILING":
		return core.NewOrbitModel(set.Name, failingPropagator{}, testPeriod.Minutes())
	case "GEOSAT":
		return core.NewOrbitModel(set.Name, groundTrack{}, 1436)
	default:
		return core.NewOrbitModel(set.Name, groundTrack{}, testPeriod.Minutes())
	}
}

func mockSatellite(id, name string, sensor model.SensorType) model.Satellite {
	return model.Satellite{
		ID:       id,
		Name:     name,
		Category: "imaging",
		Sensor:   sensor,
		Envelope: wideEnvelope,
		Line1:    issLine1,
		Line2:    issLine2,
	}
}

func newCatalog(t *testing.T, sats ...model.Satellite) *kb.Catalog {
	t.Helper()
	c := kb.NewCatalog()
	for _, s := range sats {
		if err := c.Add(s); err != nil {
			t.Fatalf("Add(%s): %v", s.ID, err)
		}
	}
	return c
}

func newTestPlanner(t *testing.T, sats ...model.Satellite) *Planner {
	t.Helper()
	return New(newCatalog(t, sats...), Options{
		Workers: 4,
		Orbits:  core.NewOrbitRegistryWith(buildMock),
	})
}

// nodeCrossing returns the k-th time the mock orbit passes over 0E.
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

func pointTarget(name string, lon, lat float64) model.AreaTarget {
	return model.AreaTarget{Name: name, Vertices: []model.GeodeticPoint{{Longitude: lon, Latitude: lat}}}
}

func dayRequest(targets ...model.AreaTarget) Request {
	return Request{
		Targets: targets,
		Start:   testEpoch.Add(-time.Minute),
		End:     testEpoch.Add(24*time.Hour - time.Minute),
	}
}
