package camera

import (
	"errors"
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/modelview/pkg/math"
)

// ErrViewportNotReady means the fit cannot be computed yet, typically because
// the viewport has no size. Callers retry on a later frame.
var ErrViewportNotReady = errors.New("viewport not ready")

// Limits overrides the derived navigation bounds. Nil fields keep the default.
type Limits struct {
	MinDistance   *float64 `yaml:"min_distance,omitempty"`
	MaxDistance   *float64 `yaml:"max_distance,omitempty"`
	MinPolarAngle *float64 `yaml:"min_polar_angle,omitempty"`
	MaxPolarAngle *float64 `yaml:"max_polar_angle,omitempty"`
}

// FitConfig holds the framing constants.
type FitConfig struct {
	// Padding scales the tight fit distance to leave a margin.
	Padding float64 `yaml:"padding"`
	// Offset is the direction from the asset center to the camera.
	// It is normalized before use.
	Offset [3]float64 `yaml:"offset"`
	// MinDistanceFactor and MaxDistanceFactor multiply the largest extent.
	MinDistanceFactor float64 `yaml:"min_distance_factor"`
	MaxDistanceFactor float64 `yaml:"max_distance_factor"`
	MinPolarAngle     float64 `yaml:"min_polar_angle"`
	MaxPolarAngle     float64 `yaml:"max_polar_angle"`
}

// DefaultFitConfig frames from an elevated three-quarter view with 25% margin.
func DefaultFitConfig() FitConfig {
	return FitConfig{
		Padding:           1.25,
		Offset:            [3]float64{0.8, 0.5, 0.8},
		MinDistanceFactor: 0.3,
		MaxDistanceFactor: 4,
		MinPolarAngle:     0.3,
		MaxPolarAngle:     gomath.Pi - 0.2,
	}
}

// Plan is a computed camera pose plus navigation bounds.
type Plan struct {
	Position      mgl64.Vec3
	LookAt        mgl64.Vec3
	Distance      float64
	MinDistance   float64
	MaxDistance   float64
	MinPolarAngle float64
	MaxPolarAngle float64
}

// Fit computes the camera plan that shows bounds completely for a vertical
// field of view fov (radians) and aspect = width/height. Derived distance
// limits always admit the fitted distance; explicit Limits are used as given.
func Fit(bounds math.Box3, fov, aspect float64, cfg FitConfig, limits Limits) (Plan, error) {
	if !(fov > 0 && fov < gomath.Pi) || !(aspect > 0) || gomath.IsInf(aspect, 0) {
		return Plan{}, ErrViewportNotReady
	}

	bounds = bounds.Sanitize()
	maxDim := bounds.MaxDimension()
	center := bounds.Center()

	fitHeight := maxDim / (2 * gomath.Tan(fov/2))
	fitWidth := fitHeight / aspect
	distance := cfg.Padding * gomath.Max(fitHeight, fitWidth)

	dir := mgl64.Vec3(cfg.Offset)
	if dir.Len() == 0 {
		dir = mgl64.Vec3(DefaultFitConfig().Offset)
	}
	dir = dir.Normalize()

	plan := Plan{
		Position:      center.Add(dir.Mul(distance)),
		LookAt:        center,
		Distance:      distance,
		MinDistance:   gomath.Min(maxDim*cfg.MinDistanceFactor, distance),
		MaxDistance:   gomath.Max(maxDim*cfg.MaxDistanceFactor, distance),
		MinPolarAngle: cfg.MinPolarAngle,
		MaxPolarAngle: cfg.MaxPolarAngle,
	}
	if limits.MinDistance != nil {
		plan.MinDistance = *limits.MinDistance
	}
	if limits.MaxDistance != nil {
		plan.MaxDistance = *limits.MaxDistance
	}
	if limits.MinPolarAngle != nil {
		plan.MinPolarAngle = *limits.MinPolarAngle
	}
	if limits.MaxPolarAngle != nil {
		plan.MaxPolarAngle = *limits.MaxPolarAngle
	}

	if !(distance > 0) || gomath.IsInf(distance, 0) || !math.FiniteVec3(plan.Position) {
		return Plan{}, ErrViewportNotReady
	}
	return plan, nil
}

// Apply moves the camera and controller to the plan and forces one
// controller update so the new bounds are in effect.
func (p Plan) Apply(cam *PerspectiveCamera, controls *OrbitControls) {
	cam.Position = p.Position
	cam.LookAt(p.LookAt)
	cam.SetClipRange(gomath.Max(p.MaxDistance, p.Distance))

	if controls == nil {
		return
	}
	controls.Target = p.LookAt
	controls.MinDistance = p.MinDistance
	controls.MaxDistance = p.MaxDistance
	controls.MinPolarAngle = p.MinPolarAngle
	controls.MaxPolarAngle = p.MaxPolarAngle
	controls.Update()
}
