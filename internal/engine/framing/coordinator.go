// Package framing applies a computed camera plan to a viewer exactly once
// per asset instance.
package framing

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/engine/camera"
	"github.com/Faultbox/modelview/pkg/scene"
)

// State is the adjustment progress of one asset instance.
type State int

const (
	// Waiting means no plan has been applied yet.
	Waiting State = iota
	// Applied is terminal: the camera is never adjusted again.
	Applied
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Applied:
		return "applied"
	default:
		return "unknown"
	}
}

// Coordinator waits until an asset is loaded and the viewport is sized,
// then frames the camera around the asset and freezes.
type Coordinator struct {
	mu       sync.Mutex
	state    State
	plan     camera.Plan
	closed   bool
	cam      *camera.PerspectiveCamera
	controls *camera.OrbitControls
	cfg      camera.FitConfig
	limits   camera.Limits
	log      *zap.Logger
}

// New creates a coordinator in the Waiting state for one camera and
// controller pair. A nil logger disables logging.
func New(cam *camera.PerspectiveCamera, controls *camera.OrbitControls, cfg camera.FitConfig, limits camera.Limits, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		cam:      cam,
		controls: controls,
		cfg:      cfg,
		limits:   limits,
		log:      log,
	}
}

// Tick runs one render-loop step. root is nil while the asset is loading.
// It returns true only on the tick that applied the plan.
func (c *Coordinator) Tick(root *scene.Node) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state == Applied || root == nil {
		return false
	}

	bounds, err := scene.MeasureBounds(root)
	if err != nil {
		var dg *scene.DegenerateGeometryError
		if errors.As(err, &dg) {
			c.log.Debug("degenerate asset bounds",
				zap.String("root", root.ID),
				zap.Int("primitives", dg.Primitives),
				zap.Stringer("state", c.state))
		}
	}

	plan, err := camera.Fit(bounds, c.cam.FovY, c.cam.Aspect, c.cfg, c.limits)
	if err != nil {
		// Viewport not sized yet; retry next tick.
		return false
	}

	plan.Apply(c.cam, c.controls)
	c.plan = plan
	c.state = Applied

	c.log.Debug("camera framed",
		zap.String("root", root.ID),
		zap.Float64("distance", plan.Distance),
		zap.Float64("min_distance", plan.MinDistance),
		zap.Float64("max_distance", plan.MaxDistance))
	return true
}

// State returns the current adjustment state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Plan returns the applied plan, if any.
func (c *Coordinator) Plan() (camera.Plan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plan, c.state == Applied
}

// Close stops the coordinator; later ticks never touch the camera.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Closed reports whether Close was called.
func (c *Coordinator) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
