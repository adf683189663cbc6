package model

import "strings"

// OrbitalType is the catalog's coarse orbit classification.
type OrbitalType string

const (
	OrbitUnknown        OrbitalType = ""
	OrbitLow            OrbitalType = "LEO"
	OrbitMedium         OrbitalType = "MEO"
	OrbitGeosynchronous OrbitalType = "GEO"
	OrbitHighlyElliptic OrbitalType = "HEO"
)

// Periods at or above this many minutes are treated as geosynchronous.
const geosyncPeriodMinutes = 1300.0

// ParseOrbitalType maps a catalog string onto an OrbitalType. Unknown values
// map to OrbitUnknown so the class can be derived from the period instead.
func ParseOrbitalType(s string) OrbitalType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LEO":
		return OrbitLow
	case "MEO":
		return OrbitMedium
	case "GEO", "GSO", "GEOSYNCHRONOUS", "GEOSTATIONARY":
		return OrbitGeosynchronous
	case "HEO":
		return OrbitHighlyElliptic
	default:
		return OrbitUnknown
	}
}

// ClassifyPeriod derives an orbit class from the orbital period in minutes.
func ClassifyPeriod(periodMinutes float64) OrbitalType {
	switch {
	case periodMinutes <= 0:
		return OrbitUnknown
	case periodMinutes >= geosyncPeriodMinutes:
		return OrbitGeosynchronous
	case periodMinutes >= 225:
		return OrbitMedium
	default:
		return OrbitLow
	}
}

// Satellite is one catalog entry: identity, orbital elements and the sensor
// it carries.
type Satellite struct {
	ID       string // catalog code, reported as the pass id
	Name     string
	NoradID  int
	Category string // mission type used by category filters

	Sensor   SensorType
	Envelope SensorEnvelope

	OrbitalType OrbitalType
	Tags        []string

	// TLE data lines; the name line is carried in Name.
	Line1 string
	Line2 string
}

// HasTag reports whether the satellite carries tag.
func (s Satellite) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with s.
func (s Satellite) Clone() Satellite {
	out := s
	if s.Tags != nil {
		out.Tags = append([]string(nil), s.Tags...)
	}
	return out
}
