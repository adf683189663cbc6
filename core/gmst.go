package core

import (
	"time"

	"github.com/joshuaferrara/go-satellite"
)

// JulianDate converts t to a Julian Date, keeping sub-second precision.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	return jd + float64(t.Nanosecond())/1e9/86400.0
}

// GMST returns Greenwich mean sidereal time at t in radians.
func GMST(t time.Time) float64 {
	return satellite.ThetaG_JD(JulianDate(t))
}

// ECIToECF rotates an inertial vector into the Earth-fixed frame by the
// sidereal angle gmst. Units are preserved.
func ECIToECF(eci Vec3, gmst float64) Vec3 {
	r := satellite.ECIToECEF(satellite.Vector3{X: eci.X, Y: eci.Y, Z: eci.Z}, gmst)
	return Vec3{X: r.X, Y: r.Y, Z: r.Z}
}

// ECFToECI is the inverse of ECIToECF.
func ECFToECI(ecf Vec3, gmst float64) Vec3 {
	return ECIToECF(ecf, -gmst)
}
