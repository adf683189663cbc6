package core

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"

	"github.com/signalsfoundry/pass-planner/model"
)

// DaylightPolicy gates optical sensors. Resume returns (t, true) when
// imaging is allowed at t over where; otherwise it returns the start of the
// next allowed window and false.
type DaylightPolicy interface {
	Resume(t time.Time, where model.GeodeticPoint) (time.Time, bool)
}

// HourWindow allows imaging between StartHour:00 and EndHour:00 local time
// in Location. Outside the window the clock jumps to the next StartHour:00.
type HourWindow struct {
	Location  *time.Location
	StartHour int
	EndHour   int
}

// DefaultHourWindow is 09:00 to 19:00 in loc.
func DefaultHourWindow(loc *time.Location) HourWindow {
	return HourWindow{Location: loc, StartHour: 9, EndHour: 19}
}

// Resume implements DaylightPolicy. The target location is not consulted;
// the window is defined purely by wall-clock hours.
func (h HourWindow) Resume(t time.Time, _ model.GeodeticPoint) (time.Time, bool) {
	loc := h.Location
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	y, m, d := local.Date()
	switch hour := local.Hour(); {
	case hour >= h.EndHour:
		return time.Date(y, m, d+1, h.StartHour, 0, 0, 0, loc), false
	case hour < h.StartHour:
		return time.Date(y, m, d, h.StartHour, 0, 0, 0, loc), false
	default:
		return t, true
	}
}

// SunElevationPolicy allows imaging while the Sun is at least MinElevation
// degrees above the target's horizon.
type SunElevationPolicy struct {
	MinElevation float64
	// Step is the search resolution when looking for the next sunrise.
	Step time.Duration
}

// maxSunSearch bounds the forward search for the next allowed time. Polar
// night can exceed it; the caller then simply re-checks after the jump.
const maxSunSearch = 48 * time.Hour

// Resume implements DaylightPolicy.
func (p SunElevationPolicy) Resume(t time.Time, where model.GeodeticPoint) (time.Time, bool) {
	if SunElevation(t, where) >= p.MinElevation {
		return t, true
	}
	step := p.Step
	if step <= 0 {
		step = 5 * time.Minute
	}
	for next := t.Add(step); next.Sub(t) <= maxSunSearch; next = next.Add(step) {
		if SunElevation(next, where) >= p.MinElevation {
			return next, false
		}
	}
	return t.Add(maxSunSearch), false
}

// SunElevation returns the Sun's apparent elevation in degrees as seen from
// where at t.
func SunElevation(t time.Time, where model.GeodeticPoint) float64 {
	jd := julian.TimeToJD(t.UTC())
	ra, dec := solar.ApparentEquatorial(jd)
	gast := sidereal.Apparent(jd).Angle().Rad()

	lat := where.Latitude * degToRad
	hourAngle := gast + where.Longitude*degToRad - ra.Rad()

	sinEl := math.Sin(lat)*math.Sin(dec.Rad()) + math.Cos(lat)*math.Cos(dec.Rad())*math.Cos(hourAngle)
	return math.Asin(math.Max(-1, math.Min(1, sinEl))) * radToDeg
}
