// Package math provides the bounding-volume and spherical-coordinate math
// used to frame 3D assets.
package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the smallest extent a bounding volume is allowed to have on any axis.
const Epsilon = 1e-6

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyBox3 returns an inverted box that any expansion replaces.
func EmptyBox3() Box3 {
	inf := math.Inf(1)
	return Box3{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// NewBox3 returns the box spanning a and b, regardless of argument order.
func NewBox3(a, b mgl64.Vec3) Box3 {
	box := EmptyBox3()
	box.ExpandByPoint(a)
	box.ExpandByPoint(b)
	return box
}

// IsEmpty reports whether the box encloses nothing (min > max on some axis).
func (b Box3) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// IsFinite reports whether every component is a finite number.
func (b Box3) IsFinite() bool {
	for i := 0; i < 3; i++ {
		if !finite(b.Min[i]) || !finite(b.Max[i]) {
			return false
		}
	}
	return true
}

// ExpandByPoint grows the box to include p.
func (b *Box3) ExpandByPoint(p mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
}

// Union grows the box to include other. Empty boxes are ignored.
func (b *Box3) Union(other Box3) {
	if other.IsEmpty() {
		return
	}
	b.ExpandByPoint(other.Min)
	b.ExpandByPoint(other.Max)
}

// Center returns (min+max)/2.
func (b Box3) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns max-min, the extent along each axis.
func (b Box3) Size() mgl64.Vec3 {
	if b.IsEmpty() {
		return mgl64.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// MaxDimension returns the largest extent, never less than Epsilon.
func (b Box3) MaxDimension() float64 {
	s := b.Size()
	d := math.Max(s[0], math.Max(s[1], s[2]))
	if !(d >= Epsilon) || math.IsInf(d, 0) {
		return Epsilon
	}
	return d
}

// Corners returns the eight corner points.
func (b Box3) Corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := range out {
		x, y, z := b.Min[0], b.Min[1], b.Min[2]
		if i&1 != 0 {
			x = b.Max[0]
		}
		if i&2 != 0 {
			y = b.Max[1]
		}
		if i&4 != 0 {
			z = b.Max[2]
		}
		out[i] = mgl64.Vec3{x, y, z}
	}
	return out
}

// Transform returns the axis-aligned box enclosing b after applying m.
func (b Box3) Transform(m mgl64.Mat4) Box3 {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox3()
	for _, c := range b.Corners() {
		out.ExpandByPoint(mgl64.TransformCoordinate(c, m))
	}
	return out
}

// Degenerate reports whether the box is empty, non-finite, or thinner than
// Epsilon along any axis.
func (b Box3) Degenerate() bool {
	if b.IsEmpty() || !b.IsFinite() {
		return true
	}
	s := b.Size()
	return s[0] < Epsilon || s[1] < Epsilon || s[2] < Epsilon
}

// Sanitize returns a finite box with at least Epsilon extent on every axis.
// Empty or non-finite boxes collapse to an Epsilon cube at the origin;
// flat boxes are padded symmetrically around their center.
func (b Box3) Sanitize() Box3 {
	if b.IsEmpty() || !b.IsFinite() {
		h := Epsilon / 2
		return Box3{Min: mgl64.Vec3{-h, -h, -h}, Max: mgl64.Vec3{h, h, h}}
	}
	out := b
	for i := 0; i < 3; i++ {
		if out.Max[i]-out.Min[i] < Epsilon {
			c := (out.Min[i] + out.Max[i]) / 2
			out.Min[i] = c - Epsilon/2
			out.Max[i] = c + Epsilon/2
		}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FiniteVec3 reports whether every component of v is finite.
func FiniteVec3(v mgl64.Vec3) bool {
	return finite(v[0]) && finite(v[1]) && finite(v[2])
}

// NearVec3 reports whether a and b differ by at most tol on every axis.
func NearVec3(a, b mgl64.Vec3, tol float64) bool {
	for i := 0; i < 3; i++ {
		if !(math.Abs(a[i]-b[i]) <= tol) {
			return false
		}
	}
	return true
}
