package core

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Frame is a right-handed local Cartesian frame embedded in ECEF. The
// columns of axes are the local x, y and z unit vectors expressed in ECEF.
type Frame struct {
	origin Vec3
	axes   *mat.Dense
}

// NewFrame builds a frame from an origin and three orthonormal axes.
func NewFrame(origin, x, y, z Vec3) Frame {
	return Frame{
		origin: origin,
		axes: mat.NewDense(3, 3, []float64{
			x.X, y.X, z.X,
			x.Y, y.Y, z.Y,
			x.Z, y.Z, z.Z,
		}),
	}
}

// ENUFrame returns the east-north-up frame at an ECEF point. Up is the
// ellipsoid normal; at the poles east is fixed to +Y.
func ENUFrame(origin Vec3) Frame {
	up := SurfaceNormal(origin)
	east := Vec3{X: -origin.Y, Y: origin.X}
	if east.Norm() < 1e-9 {
		east = Vec3{Y: 1}
	}
	east = east.Unit()
	north := up.Cross(east)
	return NewFrame(origin, east, north, up)
}

// Origin returns the frame origin in ECEF.
func (f Frame) Origin() Vec3 { return f.origin }

// Axis returns local axis i (0, 1 or 2) in ECEF.
func (f Frame) Axis(i int) Vec3 {
	return Vec3{X: f.axes.At(0, i), Y: f.axes.At(1, i), Z: f.axes.At(2, i)}
}

// ToLocal expresses an ECEF point in frame coordinates.
func (f Frame) ToLocal(p Vec3) Vec3 {
	d := p.Sub(f.origin)
	var out mat.VecDense
	out.MulVec(f.axes.T(), mat.NewVecDense(3, []float64{d.X, d.Y, d.Z}))
	return Vec3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// ToFixed maps frame coordinates back to ECEF.
func (f Frame) ToFixed(l Vec3) Vec3 {
	var out mat.VecDense
	out.MulVec(f.axes, mat.NewVecDense(3, []float64{l.X, l.Y, l.Z}))
	return f.origin.Add(Vec3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)})
}

// RotateZ returns the frame turned about its own z axis by angle radians.
func (f Frame) RotateZ(angle float64) Frame {
	s, c := math.Sincos(angle)
	return f.rotate(mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}))
}

// RotateX returns the frame turned about its own x axis by angle radians.
func (f Frame) RotateX(angle float64) Frame {
	s, c := math.Sincos(angle)
	return f.rotate(mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}))
}

func (f Frame) rotate(r *mat.Dense) Frame {
	var axes mat.Dense
	axes.Mul(f.axes, r)
	return Frame{origin: f.origin, axes: &axes}
}
