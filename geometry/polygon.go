// Package geometry holds planar predicates over longitude/latitude point
// sets. Inputs are not projected: callers pass degrees and accept the
// distortion that comes with treating them as a plane.
package geometry

// Point is a planar point; X is longitude and Y is latitude when the
// polygon comes from geodetic data.
type Point struct {
	X, Y float64
}

// TriangleArea returns twice the signed area of the triangle (p, p1, p2).
// The sign tells on which side of the directed line p1->p2 the point p lies.
func TriangleArea(p, p1, p2 Point) float64 {
	return (p.X-p1.X)*(p2.Y-p1.Y) - (p.Y-p1.Y)*(p2.X-p1.X)
}

// edgeCrossesRay reports whether the horizontal ray from (x, y) towards +X
// crosses the directed edge (x1, y1)->(x2, y2).
//
// The edge is half-open in Y: an ascending edge owns its lower endpoint and
// counts a point lying exactly on it, a descending edge owns its lower
// endpoint too but excludes points lying on it. Horizontal edges never count.
func edgeCrossesRay(x, y, x1, y1, x2, y2 float64) bool {
	d := (y2-y1)*(x1-x) + (y-y1)*(x2-x1)
	if y2 > y1 {
		return y >= y1 && y < y2 && d >= 0
	}
	return y >= y2 && y < y1 && d < 0
}

// PointInPolygon runs the crossing-number test for (x, y).
//
// Edges are walked in order and the closing edge is evaluated from the first
// vertex to the last one, which fixes the tie-break for points lying exactly
// on that edge. For an axis-aligned square listed counter-clockwise from its
// lower-left corner, points on the bottom edge are inside and points on the
// top edge are outside.
func PointInPolygon(polygon []Point, x, y float64) bool {
	n := len(polygon)
	count := 0
	for i := 0; i < n; i++ {
		var a, b Point
		if i == n-1 {
			a, b = polygon[0], polygon[i]
		} else {
			a, b = polygon[i], polygon[i+1]
		}
		if edgeCrossesRay(x, y, a.X, a.Y, b.X, b.Y) {
			count++
		}
	}
	return count%2 == 1
}

// SegmentsIntersect reports whether segment p11-p12 properly crosses
// segment p21-p22. Touching endpoints, collinear overlap and segments whose
// bounding boxes only share an edge are all reported as non-intersecting.
func SegmentsIntersect(p11, p12, p21, p22 Point) bool {
	minX, maxX := ordered(p11.X, p12.X)
	minY, maxY := ordered(p11.Y, p12.Y)
	minX1, maxX1 := ordered(p21.X, p22.X)
	minY1, maxY1 := ordered(p21.Y, p22.Y)

	if maxX1 <= minX || minX1 >= maxX || maxY1 <= minY || minY1 >= maxY {
		return false
	}

	if !straddles(TriangleArea(p11, p21, p22), TriangleArea(p12, p21, p22)) {
		return false
	}
	return straddles(TriangleArea(p21, p11, p12), TriangleArea(p22, p11, p12))
}

// straddles is true when the two signed areas put the endpoints strictly on
// opposite sides of the other segment.
func straddles(area1, area2 float64) bool {
	if area1 == 0 || area2 == 0 {
		return false
	}
	if (area1 > 0 && area2 > 0) || (area1 < 0 && area2 < 0) {
		return false
	}
	return true
}

func ordered(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}

// LineInPolygon reports whether both endpoints are inside polygon and the
// segment crosses none of its edges.
func LineInPolygon(p1, p2 Point, polygon []Point) bool {
	if !PointInPolygon(polygon, p1.X, p1.Y) || !PointInPolygon(polygon, p2.X, p2.Y) {
		return false
	}
	n := len(polygon)
	for i := 0; i < n; i++ {
		a := polygon[i]
		b := polygon[(i+1)%n]
		if SegmentsIntersect(p1, p2, a, b) {
			return false
		}
	}
	return true
}

// PolylineInPolygon reports whether every consecutive segment of line lies
// inside polygon.
func PolylineInPolygon(line, polygon []Point) bool {
	for i := 0; i+1 < len(line); i++ {
		if !LineInPolygon(line[i], line[i+1], polygon) {
			return false
		}
	}
	return true
}

// PolygonInPolygon reports whether polygon a lies inside polygon b: every
// open edge of a via PolylineInPolygon plus an explicit check of the closing
// edge.
func PolygonInPolygon(a, b []Point) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return PolylineInPolygon(a, b) && LineInPolygon(a[0], a[len(a)-1], b)
}

// PolygonCrossPolygon is the footprint test: true when any edge of a crosses
// any edge of b, or when either polygon contains the other. It is symmetric
// in its arguments.
func PolygonCrossPolygon(a, b []Point) bool {
	na, nb := len(a), len(b)
	for i := 0; i < na; i++ {
		p1 := a[i]
		p2 := a[(i+1)%na]
		for j := 0; j < nb; j++ {
			if SegmentsIntersect(p1, p2, b[j], b[(j+1)%nb]) {
				return true
			}
		}
	}
	return PolygonInPolygon(a, b) || PolygonInPolygon(b, a)
}
