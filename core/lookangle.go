package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/pass-planner/model"
)

// Topocentric is the east-north-up frame of a ground point.
type Topocentric struct {
	Site  model.GeodeticPoint
	ecef  Vec3
	frame Frame
}

// NewTopocentric precomputes the ECEF position and ENU frame of p so they
// can be reused across many satellite lookups.
func NewTopocentric(p model.GeodeticPoint) Topocentric {
	ecef := GeodeticToECEF(p)
	return Topocentric{Site: p, ecef: ecef, frame: ENUFrame(ecef)}
}

// ECEF returns the site position in metres.
func (tc Topocentric) ECEF() Vec3 { return tc.ecef }

// Local expresses an ECEF point (metres) in the site's ENU frame.
func (tc Topocentric) Local(p Vec3) Vec3 { return tc.frame.ToLocal(p) }

// Above reports whether p is above the site's local horizon plane.
func (tc Topocentric) Above(p Vec3) bool { return tc.Local(p).Z > 0 }

// LookAngles holds azimuth and elevation in degrees and slant range in metres.
type LookAngles struct {
	Azimuth   float64 // 0 = north, clockwise
	Elevation float64 // 0 = horizon, 90 = zenith
	Range     float64
}

// LookAngles computes azimuth, elevation and range from the site to an ECEF
// point in metres.
func (tc Topocentric) LookAngles(p Vec3) LookAngles {
	enu := tc.Local(p)
	r := enu.Norm()
	if r == 0 {
		return LookAngles{Elevation: 90}
	}
	az := math.Atan2(enu.X, enu.Y) * radToDeg
	if az < 0 {
		az += 360
	}
	return LookAngles{
		Azimuth:   az,
		Elevation: math.Asin(enu.Z/r) * radToDeg,
		Range:     r,
	}
}

// minAlongTrack is the smallest one-second displacement, in metres, from
// which a heading is derived.
const minAlongTrack = 1e-3

// TrackFrame is the satellite's ENU frame turned so that local x lies along
// the ground track.
type TrackFrame struct {
	Frame Frame
	// Last is the position one second earlier, in the unrotated ENU frame.
	Last Vec3
}

// NewTrackFrame builds the heading-aligned frame at pos from the position a
// moment earlier. Both are ECEF metres. It returns ErrNumericDegeneracy when
// the heading is undefined.
func NewTrackFrame(pos, prev Vec3) (TrackFrame, error) {
	if !pos.IsFinite() || !prev.IsFinite() {
		return TrackFrame{}, fmt.Errorf("%w: non-finite position", ErrNumericDegeneracy)
	}
	if pos.DistanceTo(prev) < minAlongTrack {
		return TrackFrame{}, fmt.Errorf("%w: zero along-track delta", ErrNumericDegeneracy)
	}
	enu := ENUFrame(pos)
	last := enu.ToLocal(prev)
	if last.X == 0 {
		return TrackFrame{}, fmt.Errorf("%w: heading undefined, along-track x is zero", ErrNumericDegeneracy)
	}
	heading := math.Atan(last.Y / last.X)
	if !isFinite(heading) {
		return TrackFrame{}, fmt.Errorf("%w: heading is not finite", ErrNumericDegeneracy)
	}
	return TrackFrame{Frame: enu.RotateZ(heading), Last: last}, nil
}

// SideSign is +1 when the previous position lies on the local +y side and
// -1 otherwise. It flips the reported side angle between ascending and
// descending tracks.
func (tf TrackFrame) SideSign() float64 {
	if tf.Last.Y > 0 {
		return 1
	}
	return -1
}

// PointingAngles returns the along-track pitch and across-track side angle,
// in degrees, at which the sensor must look to see ground point p.
func (tf TrackFrame) PointingAngles(p Vec3) (pitch, side float64, err error) {
	l := tf.Frame.ToLocal(p)
	pitch = math.Atan(l.X/l.Z) * radToDeg
	side = math.Atan(l.Y/l.Z) * radToDeg
	if !isFinite(pitch) || !isFinite(side) {
		return 0, 0, fmt.Errorf("%w: pointing angle is not finite", ErrNumericDegeneracy)
	}
	return pitch, side, nil
}
