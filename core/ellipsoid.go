package core

import (
	"math"

	"github.com/signalsfoundry/pass-planner/model"
)

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (metres)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84B  = wgs84A * (1 - wgs84F) // semi-minor axis (metres)
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// GeodeticToECEF converts a geodetic point (degrees, metres) to ECEF metres.
func GeodeticToECEF(p model.GeodeticPoint) Vec3 {
	lat := p.Latitude * degToRad
	lon := p.Longitude * degToRad

	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Vec3{
		X: (n + p.Height) * cosLat * cosLon,
		Y: (n + p.Height) * cosLat * sinLon,
		Z: (n*(1-wgs84E2) + p.Height) * sinLat,
	}
}

// ECEFToGeodetic converts ECEF metres to a geodetic point using Bowring's
// iteration, which converges in a few steps for anything near the Earth.
func ECEFToGeodetic(v Vec3) model.GeodeticPoint {
	lon := math.Atan2(v.Y, v.X)
	p := math.Hypot(v.X, v.Y)

	lat := math.Atan2(v.Z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(v.Z+wgs84E2*n*sinLat, p)
	}

	sinLat, cosLat := math.Sincos(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var h float64
	if math.Abs(cosLat) > 1e-10 {
		h = p/cosLat - n
	} else {
		h = math.Abs(v.Z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return model.GeodeticPoint{
		Longitude: lon * radToDeg,
		Latitude:  lat * radToDeg,
		Height:    h,
	}
}

// SurfaceNormal returns the outward unit normal of the ellipsoid at an
// ECEF point on (or near) its surface.
func SurfaceNormal(v Vec3) Vec3 {
	return Vec3{
		X: v.X / (wgs84A * wgs84A),
		Y: v.Y / (wgs84A * wgs84A),
		Z: v.Z / (wgs84B * wgs84B),
	}.Unit()
}

// IntersectEllipsoid returns the first point where the ray from origin in
// direction dir meets the WGS-84 surface. ok is false when the ray misses or
// the intersection lies behind the origin.
func IntersectEllipsoid(origin, dir Vec3) (Vec3, bool) {
	// Scale to the unit sphere, solve |o + t d| = 1.
	o := Vec3{X: origin.X / wgs84A, Y: origin.Y / wgs84A, Z: origin.Z / wgs84B}
	d := Vec3{X: dir.X / wgs84A, Y: dir.Y / wgs84A, Z: dir.Z / wgs84B}

	a := d.Dot(d)
	if a == 0 {
		return Vec3{}, false
	}
	b := 2 * o.Dot(d)
	c := o.Dot(o) - 1

	disc := b*b - 4*a*c
	if disc < 0 {
		return Vec3{}, false
	}
	sq := math.Sqrt(disc)
	t0 := (-b - sq) / (2 * a)
	t1 := (-b + sq) / (2 * a)

	t := t0
	if t < 0 {
		t = t1
	}
	if t < 0 {
		return Vec3{}, false
	}
	return origin.Add(dir.Scale(t)), true
}
