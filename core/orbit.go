package core

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/pass-planner/model"
	"github.com/signalsfoundry/pass-planner/tle"
)

const (
	kmToM = 1000.0

	// earthRotationRate in rad/s.
	earthRotationRate = 7.292115146706979e-5

	// minOrbitRadiusKm rejects propagated states inside the Earth.
	minOrbitRadiusKm = 6356.0
)

// Propagator maps a timestamp to an inertial state. Position is ECI
// kilometres, velocity ECI kilometres per second.
type Propagator interface {
	Propagate(t time.Time) (pos, vel Vec3, err error)
}

// SGP4Propagator propagates a TLE with go-satellite.
type SGP4Propagator struct {
	sat satellite.Satellite
}

// NewSGP4Propagator initialises SGP4 from a parsed element set. The lines
// are validated by the tle package before they reach go-satellite.
func NewSGP4Propagator(set tle.Set) (*SGP4Propagator, error) {
	if _, err := tle.ParseLines(set.Name, set.Line1, set.Line2); err != nil {
		return nil, err
	}
	sat := satellite.TLEToSat(set.Line1, set.Line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: sgp4 init for %s: %s", ErrPropagation, set.Name, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat}, nil
}

// Propagate runs SGP4 at t, truncated to whole seconds.
func (p *SGP4Propagator) Propagate(t time.Time) (Vec3, Vec3, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	pos, vel := satellite.Propagate(p.sat, year, int(month), day, hour, min, sec)
	r := Vec3{X: pos.X, Y: pos.Y, Z: pos.Z}
	v := Vec3{X: vel.X, Y: vel.Y, Z: vel.Z}
	if !r.IsFinite() || !v.IsFinite() {
		return Vec3{}, Vec3{}, fmt.Errorf("%w: non-finite state at %s", ErrPropagation, t.Format(time.RFC3339))
	}
	if r.Norm() < minOrbitRadiusKm {
		return Vec3{}, Vec3{}, fmt.Errorf("%w: orbit decayed at %s", ErrPropagation, t.Format(time.RFC3339))
	}
	return r, v, nil
}

// CoordinateFrame tags the frame a StateVector is expressed in.
type CoordinateFrame int

const (
	FrameECI CoordinateFrame = iota
	FrameECF
	FrameGeodetic
)

func (f CoordinateFrame) String() string {
	switch f {
	case FrameECI:
		return "ECI"
	case FrameECF:
		return "ECF"
	case FrameGeodetic:
		return "geodetic"
	default:
		return fmt.Sprintf("frame(%d)", int(f))
	}
}

// StateVector is a position (and velocity, where defined) at a timestamp.
// ECI values are kilometres and km/s; ECF values are metres and m/s.
// Geodetic states carry only Geodetic.
type StateVector struct {
	Time     time.Time
	Frame    CoordinateFrame
	Position Vec3
	Velocity Vec3
	Geodetic model.GeodeticPoint
}

// OrbitModel couples a propagator with the frame conversions the sweeps
// need. It holds no mutable state, so queries at the same timestamp always
// return the same answer and a model may be shared between goroutines.
type OrbitModel struct {
	name          string
	prop          Propagator
	periodMinutes float64
}

// NewOrbitModel wraps any propagator. periodMinutes drives the elevation
// sweep's skip heuristic and the geosynchronous check.
func NewOrbitModel(name string, prop Propagator, periodMinutes float64) (*OrbitModel, error) {
	if prop == nil {
		return nil, fmt.Errorf("%w: nil propagator", ErrInvalidInput)
	}
	if periodMinutes <= 0 || !isFinite(periodMinutes) {
		return nil, fmt.Errorf("%w: orbital period %v", ErrInvalidInput, periodMinutes)
	}
	return &OrbitModel{name: name, prop: prop, periodMinutes: periodMinutes}, nil
}

// NewOrbitModelFromTLE builds an SGP4-backed model.
func NewOrbitModelFromTLE(set tle.Set) (*OrbitModel, error) {
	prop, err := NewSGP4Propagator(set)
	if err != nil {
		return nil, err
	}
	return NewOrbitModel(set.Name, prop, set.PeriodMinutes())
}

// Name returns the designator the model was built with.
func (o *OrbitModel) Name() string { return o.name }

// OrbitalPeriod returns the period in minutes.
func (o *OrbitModel) OrbitalPeriod() float64 { return o.periodMinutes }

// IsGeosynchronous reports whether the period is at least one sidereal day,
// within the tolerance used for catalogue classification.
func (o *OrbitModel) IsGeosynchronous() bool {
	return model.ClassifyPeriod(o.periodMinutes) == model.OrbitGeosynchronous
}

// PositionECI returns the inertial position in kilometres.
func (o *OrbitModel) PositionECI(t time.Time) (Vec3, error) {
	pos, _, err := o.prop.Propagate(t)
	return pos, err
}

// PositionECF returns the Earth-fixed position in metres.
func (o *OrbitModel) PositionECF(t time.Time) (Vec3, error) {
	pos, _, err := o.prop.Propagate(t)
	if err != nil {
		return Vec3{}, err
	}
	return ECIToECF(pos, GMST(t)).Scale(kmToM), nil
}

// PositionGeodetic returns the sub-satellite point, height in metres.
func (o *OrbitModel) PositionGeodetic(t time.Time) (model.GeodeticPoint, error) {
	ecf, err := o.PositionECF(t)
	if err != nil {
		return model.GeodeticPoint{}, err
	}
	return ECEFToGeodetic(ecf), nil
}

// State returns the full state at t in the requested frame.
func (o *OrbitModel) State(t time.Time, frame CoordinateFrame) (StateVector, error) {
	pos, vel, err := o.prop.Propagate(t)
	if err != nil {
		return StateVector{}, err
	}
	sv := StateVector{Time: t, Frame: frame}
	switch frame {
	case FrameECI:
		sv.Position, sv.Velocity = pos, vel
		return sv, nil
	case FrameECF, FrameGeodetic:
		gmst := GMST(t)
		r := ECIToECF(pos, gmst).Scale(kmToM)
		// v_ecf = R3(gmst) v_eci - w x r_ecf
		omega := Vec3{Z: earthRotationRate}
		v := ECIToECF(vel, gmst).Scale(kmToM).Sub(omega.Cross(r))
		if frame == FrameGeodetic {
			sv.Geodetic = ECEFToGeodetic(r)
			return sv, nil
		}
		sv.Position, sv.Velocity = r, v
		return sv, nil
	default:
		return StateVector{}, fmt.Errorf("%w: unknown frame %v", ErrInvalidInput, frame)
	}
}
