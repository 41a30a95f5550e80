package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Spherical is a point in spherical coordinates around the +Y axis.
// Phi is the polar angle measured from +Y, Theta the azimuth around Y
// measured from +Z towards +X.
type Spherical struct {
	Radius float64
	Phi    float64
	Theta  float64
}

// SphericalFromVec3 converts an offset vector to spherical coordinates.
func SphericalFromVec3(v mgl64.Vec3) Spherical {
	r := v.Len()
	if r == 0 {
		return Spherical{}
	}
	return Spherical{
		Radius: r,
		Theta:  math.Atan2(v[0], v[2]),
		Phi:    math.Acos(mgl64.Clamp(v[1]/r, -1, 1)),
	}
}

// Vec3 converts back to a cartesian offset.
func (s Spherical) Vec3() mgl64.Vec3 {
	sinPhi := math.Sin(s.Phi)
	return mgl64.Vec3{
		s.Radius * sinPhi * math.Sin(s.Theta),
		s.Radius * math.Cos(s.Phi),
		s.Radius * sinPhi * math.Cos(s.Theta),
	}
}

// MakeSafe keeps Phi strictly inside (0, pi) so the view never aligns with the up axis.
func (s Spherical) MakeSafe() Spherical {
	const eps = 1e-6
	s.Phi = mgl64.Clamp(s.Phi, eps, math.Pi-eps)
	return s
}

// DirectionFromAngles converts an azimuth and elevation in degrees to a unit
// direction. Azimuth rotates around Y starting at +Z, elevation is measured up
// from the horizon.
func DirectionFromAngles(azimuthDeg, elevationDeg float64) mgl64.Vec3 {
	az := mgl64.DegToRad(azimuthDeg)
	el := mgl64.DegToRad(elevationDeg)
	return mgl64.Vec3{
		math.Cos(el) * math.Sin(az),
		math.Sin(el),
		math.Cos(el) * math.Cos(az),
	}
}
