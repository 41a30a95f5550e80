// Package camera provides the perspective camera, the orbit navigation
// controller, and the fit computation that frames an asset.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// PerspectiveCamera is a pinhole camera looking at a target point.
type PerspectiveCamera struct {
	Position mgl64.Vec3
	Up       mgl64.Vec3
	FovY     float64 // vertical field of view, radians
	Aspect   float64 // width / height, 0 until the viewport is sized
	Near     float64
	Far      float64

	target mgl64.Vec3
}

// NewPerspectiveCamera creates a camera at (0, 0, 5) looking at the origin.
func NewPerspectiveCamera(fovY float64) *PerspectiveCamera {
	return &PerspectiveCamera{
		Position: mgl64.Vec3{0, 0, 5},
		Up:       mgl64.Vec3{0, 1, 0},
		FovY:     fovY,
		Near:     0.01,
		Far:      1000,
	}
}

// SetViewport derives the aspect ratio from a pixel size.
// A zero dimension leaves the camera unsized.
func (c *PerspectiveCamera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		c.Aspect = 0
		return
	}
	c.Aspect = float64(width) / float64(height)
}

// Sized reports whether fov and aspect allow projection.
func (c *PerspectiveCamera) Sized() bool {
	return c.Aspect > 0 && !gomath.IsInf(c.Aspect, 0) && c.FovY > 0 && c.FovY < gomath.Pi
}

// LookAt orients the camera towards target.
func (c *PerspectiveCamera) LookAt(target mgl64.Vec3) {
	c.target = target
}

// Target returns the point the camera looks at.
func (c *PerspectiveCamera) Target() mgl64.Vec3 {
	return c.target
}

// Forward returns the unit view direction.
func (c *PerspectiveCamera) Forward() mgl64.Vec3 {
	d := c.target.Sub(c.Position)
	if d.Len() == 0 {
		return mgl64.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// ViewMatrix returns the world-to-camera transform.
func (c *PerspectiveCamera) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.target, c.Up)
}

// ProjectionMatrix returns the perspective projection. An unsized camera
// projects with aspect 1.
func (c *PerspectiveCamera) ProjectionMatrix() mgl64.Mat4 {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	return mgl64.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// SetClipRange sets near/far for a camera orbiting at most maxDistance
// from its target.
func (c *PerspectiveCamera) SetClipRange(maxDistance float64) {
	if !(maxDistance > 0) || gomath.IsInf(maxDistance, 0) {
		return
	}
	c.Near = maxDistance / 4000
	c.Far = maxDistance * 2
}

// Project maps a world point to pixel coordinates (origin top-left).
// ok is false for points behind the camera.
func (c *PerspectiveCamera) Project(p mgl64.Vec3, width, height int) (x, y float64, ok bool) {
	clip := c.ProjectionMatrix().Mul4(c.ViewMatrix()).Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, false
	}
	ndcX := clip[0] / clip[3]
	ndcY := clip[1] / clip[3]
	x = (ndcX + 1) / 2 * float64(width)
	y = (1 - ndcY) / 2 * float64(height)
	return x, y, true
}
