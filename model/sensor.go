package model

import (
	"fmt"
	"strings"
)

// SensorType is the payload family. It selects whether daylight gating
// applies: radar images at night, everything else does not.
type SensorType int

const (
	SensorOptical SensorType = iota
	SensorInfrared
	SensorRadar
)

func (s SensorType) String() string {
	switch s {
	case SensorOptical:
		return "optical"
	case SensorInfrared:
		return "infrared"
	case SensorRadar:
		return "radar"
	default:
		return fmt.Sprintf("sensor(%d)", int(s))
	}
}

// RequiresDaylight reports whether observations need the target to be lit.
func (s SensorType) RequiresDaylight() bool { return s != SensorRadar }

// ParseSensorType accepts the names produced by String plus "sar".
func ParseSensorType(s string) (SensorType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "optical", "eo":
		return SensorOptical, nil
	case "infrared", "ir":
		return SensorInfrared, nil
	case "radar", "sar":
		return SensorRadar, nil
	default:
		return 0, fmt.Errorf("unknown sensor type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s SensorType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SensorType) UnmarshalText(b []byte) error {
	v, err := ParseSensorType(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SensorEnvelope bounds where the sensor can look. All fields are degrees.
//
// A point is in view when |pitch| <= Roll + XHalfAngle and
// |side-swing| <= SideSwing + YHalfAngle. XHalfAngle and YHalfAngle also
// span the rectangular footprint projected for area targets.
type SensorEnvelope struct {
	Roll       float64 `json:"roll" yaml:"roll"`
	SideSwing  float64 `json:"side_swing" yaml:"side_swing"`
	XHalfAngle float64 `json:"x_half_angle" yaml:"x_half_angle"`
	YHalfAngle float64 `json:"y_half_angle" yaml:"y_half_angle"`
}

// DefaultEnvelope is a nadir-only sensor with a 10x10 degree field of view.
func DefaultEnvelope() SensorEnvelope {
	return SensorEnvelope{XHalfAngle: 5, YHalfAngle: 5}
}

// PitchLimit is the along-track bound in degrees.
func (e SensorEnvelope) PitchLimit() float64 { return e.Roll + e.XHalfAngle }

// SideLimit is the cross-track bound in degrees.
func (e SensorEnvelope) SideLimit() float64 { return e.SideSwing + e.YHalfAngle }
