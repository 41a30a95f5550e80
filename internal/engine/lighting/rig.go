// Package lighting describes the light rig, environment backdrop, and
// ground contact shadow a preview surface renders an asset with.
package lighting

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/modelview/pkg/math"
)

// AmbientLight lights every surface uniformly.
type AmbientLight struct {
	Color     color.RGBA
	Intensity float64
}

// DirectionalLight is a key light shining from Position towards the origin.
type DirectionalLight struct {
	Position      mgl64.Vec3
	Color         color.RGBA
	Intensity     float64
	CastShadow    bool
	ShadowMapSize int // texels per side
}

// Direction returns the unit vector pointing from the light towards the origin.
func (l DirectionalLight) Direction() mgl64.Vec3 {
	if l.Position.Len() == 0 {
		return mgl64.Vec3{0, -1, 0}
	}
	return l.Position.Mul(-1).Normalize()
}

// Rig is the fixed set of lights for a preview.
type Rig struct {
	Ambient AmbientLight
	Key     DirectionalLight
}

var white = color.RGBA{255, 255, 255, 255}

// DefaultRig returns a soft ambient fill and one shadow-casting key light
// above and in front of the asset.
func DefaultRig() Rig {
	return Rig{
		Ambient: AmbientLight{Color: white, Intensity: 0.45},
		Key: DirectionalLight{
			Position:      mgl64.Vec3{10, 10, 10},
			Color:         white,
			Intensity:     1,
			CastShadow:    true,
			ShadowMapSize: 2048,
		},
	}
}

// KeyFromAngles places the key light on a sphere of the given radius.
// Azimuth rotates around Y from +Z, elevation is measured up from the horizon.
func KeyFromAngles(azimuthDeg, elevationDeg, radius float64) DirectionalLight {
	l := DefaultRig().Key
	l.Position = math.DirectionFromAngles(azimuthDeg, elevationDeg).Mul(radius)
	return l
}

// WithShadows returns a copy of the rig with key light shadows on or off.
func (r Rig) WithShadows(on bool) Rig {
	r.Key.CastShadow = on
	return r
}

// Shade returns the lambert intensity of a surface with the given normal.
// The result is clamped to [0, 1].
func (r Rig) Shade(normal mgl64.Vec3) float64 {
	v := r.Ambient.Intensity
	if n := normal.Len(); n > 0 {
		d := normal.Mul(1 / n).Dot(r.Key.Direction().Mul(-1))
		if d > 0 {
			v += d * r.Key.Intensity
		}
	}
	return mgl64.Clamp(v, 0, 1)
}

// ContactShadows is a blurred shadow projected onto the ground plane
// under the asset.
type ContactShadows struct {
	Opacity float64
	Scale   float64 // ground plane size in world units
	Blur    float64
	Far     float64 // how far above the plane geometry still casts
	Color   color.RGBA
}

// DefaultContactShadows returns the soft ground shadow used by previews.
func DefaultContactShadows() ContactShadows {
	return ContactShadows{
		Opacity: 0.45,
		Scale:   12,
		Blur:    2,
		Far:     4,
		Color:   color.RGBA{0, 0, 0, 255},
	}
}

// Fit sizes the shadow plane to the footprint of bounds, never smaller
// than the default scale for unit-sized assets.
func (c ContactShadows) Fit(bounds math.Box3) ContactShadows {
	size := bounds.Size()
	footprint := max(size[0], size[2]) * 2
	if footprint > c.Scale {
		c.Scale = footprint
	}
	if h := size[1]; h > c.Far {
		c.Far = h
	}
	return c
}
