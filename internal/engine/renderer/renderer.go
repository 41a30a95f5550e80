// Package renderer drives a demand-driven render loop for one preview
// viewport and hands finished frames to a pluggable backend.
package renderer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/engine/camera"
	"github.com/Faultbox/modelview/internal/engine/lighting"
	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scene"
)

// Backend is the rendering runtime. Draw is only called from the
// goroutine running the surface's loop.
type Backend interface {
	Draw(f Frame) error
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(f Frame) error

func (fn BackendFunc) Draw(f Frame) error { return fn(f) }

// Frame is everything a backend needs to draw one image.
type Frame struct {
	Width, Height int
	Camera        camera.PerspectiveCamera
	Rig           lighting.Rig
	Environment   lighting.Preset
	Shadows       *lighting.ContactShadows // nil when disabled

	// View is nil while the asset is loading or failed.
	View   *scene.Decorated
	Bounds math.Box3

	// Overlay is drawn on top: a progress label or an error message.
	Overlay string
	Err     error
}

// Content is what the owner wants shown.
type Content struct {
	View    *scene.Decorated
	Bounds  math.Box3
	Overlay string
	Err     error
}

// Config holds surface configuration.
type Config struct {
	Width         int
	Height        int
	FovDegrees    float64
	Environment   lighting.Preset
	ShowShadows   bool
	FrameOnDemand bool

	AutoRotate      bool
	AutoRotateSpeed float64
}

// DefaultConfig returns the grid-card viewport settings.
func DefaultConfig() Config {
	return Config{
		Width:         320,
		Height:        240,
		FovDegrees:    35,
		Environment:   lighting.PresetStudio,
		ShowShadows:   true,
		FrameOnDemand: true,
	}
}

// Surface owns the camera, navigation controller, and lights of one
// viewport. Input handlers may be called from any goroutine.
type Surface struct {
	mu       sync.Mutex
	cfg      Config
	backend  Backend
	cam      *camera.PerspectiveCamera
	controls *camera.OrbitControls
	rig      lighting.Rig
	shadows  lighting.ContactShadows
	dirty    bool
	frames   int
	log      *zap.Logger
}

// NewSurface creates a surface drawing into backend.
func NewSurface(cfg Config, backend Backend, log *zap.Logger) (*Surface, error) {
	if backend == nil {
		return nil, fmt.Errorf("renderer: nil backend")
	}
	if !cfg.Environment.Valid() {
		return nil, fmt.Errorf("renderer: invalid environment preset %d", int(cfg.Environment))
	}
	if log == nil {
		log = zap.NewNop()
	}
	fov := cfg.FovDegrees
	if fov <= 0 {
		fov = DefaultConfig().FovDegrees
	}

	cam := camera.NewPerspectiveCamera(mgl64.DegToRad(fov))
	controls := camera.NewOrbitControls(cam)
	controls.EnablePan = false
	controls.AutoRotate = cfg.AutoRotate
	if cfg.AutoRotateSpeed > 0 {
		controls.AutoRotateSpeed = cfg.AutoRotateSpeed
	}

	s := &Surface{
		cfg:      cfg,
		backend:  backend,
		cam:      cam,
		controls: controls,
		rig:      lighting.DefaultRig().WithShadows(cfg.ShowShadows),
		shadows:  lighting.DefaultContactShadows(),
		dirty:    true,
		log:      log,
	}
	s.resize(cfg.Width, cfg.Height)
	return s, nil
}

// Update runs fn with exclusive access to the camera and controller.
func (s *Surface) Update(fn func(cam *camera.PerspectiveCamera, controls *camera.OrbitControls)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cam, s.controls)
}

// Camera returns a copy of the current camera.
func (s *Surface) Camera() camera.PerspectiveCamera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.cam
}

// Invalidate requests a redraw on the next step.
func (s *Surface) Invalidate() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Resize changes the viewport size in pixels and requests a redraw.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resize(width, height)
	s.dirty = true
}

func (s *Surface) resize(width, height int) {
	s.cfg.Width, s.cfg.Height = width, height
	s.cam.SetViewport(width, height)
	if height > 0 {
		s.controls.ViewportHeight = float64(height)
	}
}

// Size returns the viewport size in pixels.
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Width, s.cfg.Height
}

// HandleDrag rotates the camera by a pointer drag in pixels.
func (s *Surface) HandleDrag(dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.HandleDrag(dx, dy)
	s.dirty = true
}

// HandleZoom dollies the camera; positive zooms in.
func (s *Surface) HandleZoom(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.HandleZoom(delta)
	s.dirty = true
}

// Step advances the controller and draws c if a redraw is needed: after
// an invalidation, while damped motion continues, or on every step when
// FrameOnDemand is off. It reports whether a frame was drawn.
func (s *Surface) Step(c Content) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moving := s.controls.Update()
	if s.cfg.FrameOnDemand && !s.dirty && !moving {
		return false, nil
	}
	// Nothing to draw into until the viewport has a size.
	if s.cfg.Width <= 0 || s.cfg.Height <= 0 {
		return false, nil
	}

	f := Frame{
		Width:       s.cfg.Width,
		Height:      s.cfg.Height,
		Camera:      *s.cam,
		Rig:         s.rig,
		Environment: s.cfg.Environment,
		View:        c.View,
		Bounds:      c.Bounds,
		Overlay:     c.Overlay,
		Err:         c.Err,
	}
	if s.cfg.ShowShadows && c.View != nil {
		sh := s.shadows.Fit(c.Bounds)
		f.Shadows = &sh
	}

	s.dirty = false
	if err := s.backend.Draw(f); err != nil {
		// Retry on the next step.
		s.dirty = true
		return false, fmt.Errorf("drawing frame: %w", err)
	}
	s.frames++
	return true, nil
}

// Frames returns how many frames were drawn.
func (s *Surface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Run calls tick every interval until ctx is done or tick fails.
func (s *Surface) Run(ctx context.Context, interval time.Duration, tick func() error) error {
	if interval <= 0 {
		interval = time.Second / 60
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := tick(); err != nil {
				return err
			}
		}
	}
}
