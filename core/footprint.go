package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/pass-planner/geometry"
	"github.com/signalsfoundry/pass-planner/model"
)

// footprintDepth is the local -z distance of the corner rays' aim points.
const footprintDepth = 1000.0

// Footprint is the ground quadrilateral a sensor can reach, including its
// side swing, as longitude/latitude corners in degrees.
type Footprint [4]model.GeodeticPoint

// Polygon returns the footprint as planar lon/lat points.
func (f Footprint) Polygon() []geometry.Point {
	pts := make([]geometry.Point, len(f))
	for i, c := range f {
		pts[i] = geometry.Point{X: c.Longitude, Y: c.Latitude}
	}
	return pts
}

// ProjectFootprint casts the four corner rays of the sensor from the
// satellite onto the ellipsoid. The +y corners use the frame swung by
// +SideSwing about the track axis and the -y corners the frame swung by
// -SideSwing, so the quadrilateral covers the full reachable swath.
func ProjectFootprint(tf TrackFrame, env model.SensorEnvelope) (Footprint, error) {
	x := math.Tan(env.XHalfAngle*degToRad) * footprintDepth
	y := math.Tan(env.YHalfAngle*degToRad) * footprintDepth

	swing := env.SideSwing * degToRad
	t1 := tf.Frame.RotateX(swing)
	t2 := tf.Frame.RotateX(-swing)

	corners := []struct {
		frame Frame
		x, y  float64
	}{
		{t1, x, y},
		{t1, -x, y},
		{t2, -x, -y},
		{t2, x, -y},
	}

	var fp Footprint
	for i, c := range corners {
		origin := c.frame.Origin()
		aim := c.frame.ToFixed(Vec3{X: c.x, Y: c.y, Z: -footprintDepth})
		hit, ok := IntersectEllipsoid(origin, aim.Sub(origin))
		if !ok {
			return Footprint{}, fmt.Errorf("%w: footprint corner %d misses the ellipsoid", ErrNumericDegeneracy, i)
		}
		g := ECEFToGeodetic(hit)
		fp[i] = model.GeodeticPoint{Longitude: g.Longitude, Latitude: g.Latitude}
	}
	return fp, nil
}
