package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/modelview/pkg/math"
)

// OrbitControls rotates and zooms a camera around a target point, within
// distance and polar-angle bounds.
type OrbitControls struct {
	Camera *PerspectiveCamera

	// Target is the point the camera orbits.
	Target mgl64.Vec3

	// Constraints
	MinDistance   float64
	MaxDistance   float64
	MinPolarAngle float64
	MaxPolarAngle float64

	// Behaviour
	EnableDamping   bool
	DampingFactor   float64
	EnablePan       bool
	EnableZoom      bool
	RotateSpeed     float64
	ZoomSpeed       float64
	AutoRotate      bool
	AutoRotateSpeed float64 // 2 is one orbit every 30s at 60 updates/s

	// Pixel size used to convert drag deltas to angles.
	ViewportHeight float64

	sphericalDelta math.Spherical
	scale          float64
	panOffset      mgl64.Vec3

	lastPosition mgl64.Vec3
	lastTarget   mgl64.Vec3
}

// NewOrbitControls creates damped controls for cam with unbounded distance.
func NewOrbitControls(cam *PerspectiveCamera) *OrbitControls {
	return &OrbitControls{
		Camera:          cam,
		MinDistance:     0,
		MaxDistance:     gomath.Inf(1),
		MinPolarAngle:   0,
		MaxPolarAngle:   gomath.Pi,
		EnableDamping:   true,
		DampingFactor:   0.08,
		EnableZoom:      true,
		RotateSpeed:     0.9,
		ZoomSpeed:       0.8,
		AutoRotateSpeed: 2,
		ViewportHeight:  1,
		scale:           1,
	}
}

// Reset drops the target, constraints, and pending motion and moves the
// camera back to its starting pose.
func (o *OrbitControls) Reset() {
	o.Target = mgl64.Vec3{}
	o.MinDistance, o.MaxDistance = 0, gomath.Inf(1)
	o.MinPolarAngle, o.MaxPolarAngle = 0, gomath.Pi
	o.sphericalDelta = math.Spherical{}
	o.scale = 1
	o.panOffset = mgl64.Vec3{}
	o.Camera.Position = mgl64.Vec3{0, 0, 5}
	o.Camera.LookAt(o.Target)
}

// Distance returns the current camera-to-target distance.
func (o *OrbitControls) Distance() float64 {
	return o.Camera.Position.Sub(o.Target).Len()
}

// PolarAngle returns the current angle between the up axis and the view offset.
func (o *OrbitControls) PolarAngle() float64 {
	return math.SphericalFromVec3(o.Camera.Position.Sub(o.Target)).Phi
}

// HandleDrag queues a rotation from a pointer drag in pixels.
func (o *OrbitControls) HandleDrag(deltaX, deltaY float64) {
	h := o.ViewportHeight
	if h <= 0 {
		h = 1
	}
	o.sphericalDelta.Theta -= 2 * gomath.Pi * deltaX / h * o.RotateSpeed
	o.sphericalDelta.Phi -= 2 * gomath.Pi * deltaY / h * o.RotateSpeed
}

// HandleZoom queues a dolly from a wheel delta; positive zooms in.
func (o *OrbitControls) HandleZoom(delta float64) {
	if !o.EnableZoom || delta == 0 {
		return
	}
	factor := gomath.Pow(0.95, o.ZoomSpeed*gomath.Abs(delta))
	if delta > 0 {
		o.scale *= factor
	} else {
		o.scale /= factor
	}
}

// HandlePan queues a target translation in camera-plane pixels.
func (o *OrbitControls) HandlePan(deltaX, deltaY float64) {
	if !o.EnablePan {
		return
	}
	h := o.ViewportHeight
	if h <= 0 {
		h = 1
	}
	dist := o.Distance() * gomath.Tan(o.Camera.FovY/2)
	fwd := o.Camera.Forward()
	right := fwd.Cross(o.Camera.Up).Normalize()
	up := right.Cross(fwd)
	o.panOffset = o.panOffset.
		Add(right.Mul(-2 * deltaX * dist / h)).
		Add(up.Mul(2 * deltaY * dist / h))
}

// Update applies queued input and constraints to the camera. It must be
// called after the bounds change so they take effect immediately. It
// returns true when the camera moved, which means another frame is needed.
func (o *OrbitControls) Update() bool {
	offset := o.Camera.Position.Sub(o.Target)
	s := math.SphericalFromVec3(offset)

	if o.AutoRotate {
		o.sphericalDelta.Theta -= 2 * gomath.Pi / 60 / 60 * o.AutoRotateSpeed
	}

	if o.EnableDamping {
		s.Theta += o.sphericalDelta.Theta * o.DampingFactor
		s.Phi += o.sphericalDelta.Phi * o.DampingFactor
	} else {
		s.Theta += o.sphericalDelta.Theta
		s.Phi += o.sphericalDelta.Phi
	}

	s.Phi = mgl64.Clamp(s.Phi, o.MinPolarAngle, o.MaxPolarAngle)
	s = s.MakeSafe()

	s.Radius *= o.scale
	s.Radius = gomath.Max(o.MinDistance, gomath.Min(o.MaxDistance, s.Radius))
	if s.Radius <= 0 {
		s.Radius = math.Epsilon
	}

	if o.EnableDamping {
		o.Target = o.Target.Add(o.panOffset.Mul(o.DampingFactor))
	} else {
		o.Target = o.Target.Add(o.panOffset)
	}

	o.Camera.Position = o.Target.Add(s.Vec3())
	o.Camera.LookAt(o.Target)

	if o.EnableDamping {
		o.sphericalDelta.Theta *= 1 - o.DampingFactor
		o.sphericalDelta.Phi *= 1 - o.DampingFactor
		o.panOffset = o.panOffset.Mul(1 - o.DampingFactor)
	} else {
		o.sphericalDelta = math.Spherical{}
		o.panOffset = mgl64.Vec3{}
	}
	o.scale = 1

	const eps = 1e-6
	moved := o.lastPosition.Sub(o.Camera.Position).LenSqr() > eps*eps ||
		o.lastTarget.Sub(o.Target).LenSqr() > eps*eps
	o.lastPosition = o.Camera.Position
	o.lastTarget = o.Target
	return moved
}

// Settled reports whether no damped motion is pending.
func (o *OrbitControls) Settled() bool {
	const eps = 1e-6
	return !o.AutoRotate &&
		gomath.Abs(o.sphericalDelta.Theta) < eps &&
		gomath.Abs(o.sphericalDelta.Phi) < eps &&
		o.panOffset.Len() < eps
}
