package model

import "github.com/signalsfoundry/pass-planner/geometry"

// GeodeticPoint is a WGS-84 position: degrees for longitude and latitude,
// metres for height above the ellipsoid.
type GeodeticPoint struct {
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Height    float64 `json:"height" yaml:"height"`
}

// GroundStation is a single observation point.
type GroundStation struct {
	ID       string
	Name     string
	Location GeodeticPoint
}

// AreaTarget is a region of interest bounded by its vertices. Name only
// labels results.
type AreaTarget struct {
	ID       string
	Name     string
	Vertices []GeodeticPoint
}

// IsPoint reports whether the target degenerates to a single location.
func (a AreaTarget) IsPoint() bool { return len(a.Vertices) == 1 }

// Station returns the target as a ground station located at its first
// vertex.
func (a AreaTarget) Station() GroundStation {
	var loc GeodeticPoint
	if len(a.Vertices) > 0 {
		loc = a.Vertices[0]
	}
	return GroundStation{ID: a.ID, Name: a.Name, Location: loc}
}

// Polygon projects the vertices onto the longitude/latitude plane.
func (a AreaTarget) Polygon() []geometry.Point {
	pts := make([]geometry.Point, len(a.Vertices))
	for i, v := range a.Vertices {
		pts[i] = geometry.Point{X: v.Longitude, Y: v.Latitude}
	}
	return pts
}

// Centroid returns the vertex average. Good enough for sun and time-zone
// lookups over regional targets; it is not an area centroid.
func (a AreaTarget) Centroid() GeodeticPoint {
	var c GeodeticPoint
	if len(a.Vertices) == 0 {
		return c
	}
	for _, v := range a.Vertices {
		c.Longitude += v.Longitude
		c.Latitude += v.Latitude
		c.Height += v.Height
	}
	n := float64(len(a.Vertices))
	c.Longitude /= n
	c.Latitude /= n
	c.Height /= n
	return c
}
