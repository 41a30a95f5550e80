// Package viewer mounts preview instances: each one loads an asset,
// frames it once, and renders it on demand.
package viewer

import (
	"context"
	"errors"
	"fmt"
	gomath "math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/assets"
	"github.com/Faultbox/modelview/internal/engine/camera"
	"github.com/Faultbox/modelview/internal/engine/framing"
	"github.com/Faultbox/modelview/internal/engine/renderer"
	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scene"
)

// ErrorLabel is shown in place of an asset that failed to load.
const ErrorLabel = "Failed to load model"

// ErrUnmounted is returned by operations on an unmounted instance.
var ErrUnmounted = errors.New("viewer instance unmounted")

// Shell creates and tracks preview instances. Instances share the asset
// cache and nothing else.
type Shell struct {
	assets   *assets.Manager
	fit      camera.FitConfig
	decorate scene.DecorateOptions
	log      *zap.Logger

	mu        sync.Mutex
	instances map[string]*Instance
}

// NewShell creates a shell loading through m.
func NewShell(m *assets.Manager, fit camera.FitConfig, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		assets:    m,
		fit:       fit,
		decorate:  scene.DefaultDecorateOptions(),
		log:       log.Named("viewer"),
		instances: make(map[string]*Instance),
	}
}

// Mount creates an instance showing assetID through backend.
func (s *Shell) Mount(assetID string, cfg Config, backend renderer.Backend) (*Instance, error) {
	id := uuid.NewString()
	log := s.log.With(zap.String("instance", id))

	surface, err := renderer.NewSurface(cfg.surface(), backend, log)
	if err != nil {
		return nil, fmt.Errorf("creating surface: %w", err)
	}

	inst := &Instance{
		id:      id,
		shell:   s,
		cfg:     cfg,
		surface: surface,
		log:     log,
	}
	inst.reset(assetID)

	s.mu.Lock()
	s.instances[id] = inst
	s.mu.Unlock()

	log.Debug("mounted", zap.String("asset", inst.assetID))
	return inst, nil
}

// Unmount releases the instance's asset and stops all further camera
// adjustment. Unmounting twice is harmless.
func (s *Shell) Unmount(inst *Instance) {
	if inst == nil {
		return
	}
	inst.close()

	s.mu.Lock()
	delete(s.instances, inst.id)
	s.mu.Unlock()
}

// Instances returns the number of mounted instances.
func (s *Shell) Instances() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.instances)
}

// Close unmounts every instance.
func (s *Shell) Close() {
	s.mu.Lock()
	all := make([]*Instance, 0, len(s.instances))
	for _, inst := range s.instances {
		all = append(all, inst)
	}
	s.mu.Unlock()

	for _, inst := range all {
		s.Unmount(inst)
	}
}

// Instance is one mounted viewport. Tick is meant to be driven by a single
// render loop; the other methods are safe from any goroutine.
type Instance struct {
	id      string
	shell   *Shell
	cfg     Config
	surface *renderer.Surface
	log     *zap.Logger

	mu          sync.Mutex
	closed      bool
	assetID     string
	handle      *assets.Handle
	coord       *framing.Coordinator
	view        *scene.Decorated
	bounds      math.Box3
	degenerate  bool
	lastStatus  assets.Status
	lastPercent int
}

// ID returns the instance id.
func (i *Instance) ID() string { return i.id }

// Surface returns the render surface for input and resizing.
func (i *Instance) Surface() *renderer.Surface { return i.surface }

// reset swaps in a fresh load, coordinator, and decoration for assetID.
// Callers hold i.mu or own i exclusively.
func (i *Instance) reset(assetID string) {
	if i.handle != nil {
		i.handle.Release()
	}
	if i.coord != nil {
		i.coord.Close()
	}

	var cam *camera.PerspectiveCamera
	var controls *camera.OrbitControls
	i.surface.Update(func(c *camera.PerspectiveCamera, o *camera.OrbitControls) {
		o.Reset()
		cam, controls = c, o
	})

	i.handle = i.shell.assets.Load(assetID)
	i.assetID = i.handle.ID()
	i.coord = framing.New(cam, controls, i.shell.fit, i.cfg.Orbit, i.log)
	i.view = nil
	i.bounds = math.Box3{}
	i.degenerate = false
	i.lastStatus = assets.StatusPending
	i.lastPercent = -1
	i.surface.Invalidate()
}

// SetAsset switches the instance to another asset. The camera is framed
// again once the new asset loads.
func (i *Instance) SetAsset(assetID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrUnmounted
	}
	if assetID == i.assetID {
		return nil
	}
	i.log.Debug("asset changed", zap.String("from", i.assetID), zap.String("to", assetID))
	i.reset(assetID)
	return nil
}

// Remount recreates the instance state for the current asset, as if the
// viewport had been mounted again.
func (i *Instance) Remount() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrUnmounted
	}
	i.reset(i.assetID)
	return nil
}

// Tick runs one render-loop iteration and reports whether a frame was drawn.
func (i *Instance) Tick() (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return false, nil
	}

	status := i.handle.Status()
	if status != i.lastStatus {
		i.lastStatus = status
		i.surface.Invalidate()
	}

	var content renderer.Content
	switch status {
	case assets.StatusPending:
		p := i.handle.Progress()
		if pct := percent(p); pct != i.lastPercent {
			i.lastPercent = pct
			i.surface.Invalidate()
		}
		content.Overlay = renderer.ProgressLabel(p)

	case assets.StatusFailed:
		content.Overlay = ErrorLabel
		content.Err = i.handle.Err()

	case assets.StatusLoaded:
		root := i.handle.Root()
		if i.view == nil {
			opts := i.shell.decorate
			opts.Shadows = i.cfg.ShowShadows
			i.view = scene.Decorate(root, opts)
			var err error
			i.bounds, err = scene.MeasureBounds(root)
			i.degenerate = errors.Is(err, scene.ErrDegenerateGeometry)
		}
		// The coordinator moves the camera, so it runs under the surface lock.
		var applied bool
		i.surface.Update(func(*camera.PerspectiveCamera, *camera.OrbitControls) {
			applied = i.coord.Tick(root)
		})
		if applied {
			i.surface.Invalidate()
		}
		content.View = i.view
		content.Bounds = i.bounds
	}

	return i.surface.Step(content)
}

// Wait blocks until the current asset resolves or ctx ends.
func (i *Instance) Wait(ctx context.Context) error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return ErrUnmounted
	}
	h := i.handle
	i.mu.Unlock()

	select {
	case <-h.Done():
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run ticks the instance every interval until ctx ends. Draw failures are
// logged and retried.
func (i *Instance) Run(ctx context.Context, interval time.Duration) error {
	return i.surface.Run(ctx, interval, func() error {
		if _, err := i.Tick(); err != nil {
			i.log.Warn("frame failed", zap.Error(err))
		}
		return nil
	})
}

func (i *Instance) close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return
	}
	i.closed = true
	i.handle.Release()
	i.coord.Close()
	i.log.Debug("unmounted", zap.String("asset", i.assetID))
}

// Snapshot describes an instance at one point in time.
type Snapshot struct {
	ID      string
	AssetID string
	Status  assets.Status
	Percent int
	State   framing.State
	Plan    *camera.Plan
	Bounds  *math.Box3
	// Degenerate is set when Bounds had to be padded out of a flat or
	// empty scene.
	Degenerate bool
	Frames     int
	Err        error
	Unmounted  bool
}

// Snapshot returns the current instance state.
func (i *Instance) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()

	s := Snapshot{
		ID:        i.id,
		AssetID:   i.assetID,
		Status:    i.handle.Status(),
		Percent:   percent(i.handle.Progress()),
		State:     i.coord.State(),
		Frames:    i.surface.Frames(),
		Err:       i.handle.Err(),
		Unmounted: i.closed,
	}
	if plan, ok := i.coord.Plan(); ok {
		s.Plan = &plan
	}
	if i.view != nil {
		b := i.bounds
		s.Bounds = &b
		s.Degenerate = i.degenerate
	}
	return s
}

func percent(p float64) int {
	return int(gomath.Round(gomath.Max(0, gomath.Min(1, p)) * 100))
}
