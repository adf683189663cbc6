package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/pass-planner/model"
)

// ValidatePoint checks that a geodetic point is finite and in range.
func ValidatePoint(p model.GeodeticPoint) error {
	if !isFinite(p.Longitude) || !isFinite(p.Latitude) || !isFinite(p.Height) {
		return fmt.Errorf("%w: non-finite coordinate %+v", ErrInvalidInput, p)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidInput, p.Longitude)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidInput, p.Latitude)
	}
	return nil
}

// ValidateStation checks a ground station location.
func ValidateStation(s model.GroundStation) error {
	if err := ValidatePoint(s.Location); err != nil {
		return fmt.Errorf("station %q: %w", s.Name, err)
	}
	return nil
}

// ValidateTarget checks a target's vertices. One vertex is a point target;
// two vertices describe neither a point nor an area and are rejected.
func ValidateTarget(t model.AreaTarget) error {
	switch n := len(t.Vertices); {
	case n == 0:
		return fmt.Errorf("%w: target %q has no vertices", ErrInvalidGeometry, t.Name)
	case n == 2:
		return fmt.Errorf("%w: target %q has 2 vertices, need 1 or at least 3", ErrInvalidGeometry, t.Name)
	}
	for i, v := range t.Vertices {
		if err := ValidatePoint(v); err != nil {
			return fmt.Errorf("target %q vertex %d: %w", t.Name, i, err)
		}
	}
	return nil
}

// ValidateTargets rejects an empty list and then each target in turn.
func ValidateTargets(targets []model.AreaTarget) error {
	if len(targets) == 0 {
		return fmt.Errorf("%w: no targets supplied", ErrInvalidInput)
	}
	for _, t := range targets {
		if err := ValidateTarget(t); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEnvelope checks that every angle is finite, non-negative and
// strictly below 90 degrees.
func ValidateEnvelope(e model.SensorEnvelope) error {
	angles := []struct {
		name string
		v    float64
	}{
		{"roll", e.Roll},
		{"side swing", e.SideSwing},
		{"x half angle", e.XHalfAngle},
		{"y half angle", e.YHalfAngle},
	}
	for _, a := range angles {
		if !isFinite(a.v) || a.v < 0 || a.v >= 90 {
			return fmt.Errorf("%w: sensor %s %v must be in [0, 90)", ErrInvalidInput, a.name, a.v)
		}
	}
	if math.Abs(e.SideSwing)+e.YHalfAngle >= 90 {
		return fmt.Errorf("%w: side swing plus half angle reaches the horizon", ErrInvalidInput)
	}
	return nil
}
