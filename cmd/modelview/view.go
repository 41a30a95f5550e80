package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/modelview/internal/assets"
	"github.com/Faultbox/modelview/internal/engine/camera"
	"github.com/Faultbox/modelview/internal/engine/debug"
	"github.com/Faultbox/modelview/internal/engine/framing"
	"github.com/Faultbox/modelview/internal/engine/renderer"
	"github.com/Faultbox/modelview/internal/viewer"
	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scene"
)

// planReport is the YAML shape printed by frame and watch.
type planReport struct {
	Asset  string `yaml:"asset"`
	Bounds struct {
		Min    [3]float64 `yaml:"min"`
		Max    [3]float64 `yaml:"max"`
		Center [3]float64 `yaml:"center"`
		Size   [3]float64 `yaml:"size"`
	} `yaml:"bounds"`
	Camera struct {
		Position [3]float64 `yaml:"position"`
		LookAt   [3]float64 `yaml:"look_at"`
		Distance float64    `yaml:"distance"`
	} `yaml:"camera"`
	Limits struct {
		MinDistance   float64 `yaml:"min_distance"`
		MaxDistance   float64 `yaml:"max_distance"`
		MinPolarAngle float64 `yaml:"min_polar_angle"`
		MaxPolarAngle float64 `yaml:"max_polar_angle"`
	} `yaml:"limits"`
	Degenerate bool `yaml:"degenerate,omitempty"`
}

func newPlanReport(asset string, b math.Box3, p camera.Plan, degenerate bool) planReport {
	var r planReport
	r.Asset = asset
	r.Bounds.Min = b.Min
	r.Bounds.Max = b.Max
	r.Bounds.Center = b.Center()
	r.Bounds.Size = b.Size()
	r.Camera.Position = p.Position
	r.Camera.LookAt = p.LookAt
	r.Camera.Distance = p.Distance
	r.Limits.MinDistance = p.MinDistance
	r.Limits.MaxDistance = p.MaxDistance
	r.Limits.MinPolarAngle = p.MinPolarAngle
	r.Limits.MaxPolarAngle = p.MaxPolarAngle
	r.Degenerate = degenerate
	return r
}

func (a *app) writeReport(r planReport) error {
	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// cmdFrame loads one asset and prints the plan a viewport of the configured
// size would apply.
func (a *app) cmdFrame(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: modelview frame <asset>")
	}
	m := a.assets()
	defer m.Close()

	h := m.Load(args[0])
	defer h.Release()
	if err := m.Wait(ctx, h); err != nil {
		return err
	}

	bounds, err := scene.MeasureBounds(h.Root())
	degenerate := errors.Is(err, scene.ErrDegenerateGeometry)
	if err != nil && !degenerate {
		return err
	}

	v := a.cfg.Viewer
	aspect := float64(v.Width) / float64(v.Height)
	plan, err := camera.Fit(bounds, mgl64.DegToRad(v.Fov), aspect, a.cfg.Framing, v.Orbit)
	if err != nil {
		return fmt.Errorf("framing %s at %dx%d: %w", h.ID(), v.Width, v.Height, err)
	}
	return a.writeReport(newPlanReport(h.ID(), bounds, plan, degenerate))
}

// mount shows asset in a headless instance drawn by a rasterizer.
func (a *app) mount(m *assets.Manager, asset string) (*viewer.Shell, *viewer.Instance, *renderer.Rasterizer, error) {
	shell := viewer.NewShell(m, a.cfg.Framing, a.log)
	ras := renderer.NewRasterizer()
	inst, err := shell.Mount(asset, a.viewerConfig(), ras)
	if err != nil {
		return nil, nil, nil, err
	}
	return shell, inst, ras, nil
}

// settle waits for the instance's asset and ticks until framing is applied
// or the load failed.
func settle(ctx context.Context, inst *viewer.Instance) (viewer.Snapshot, error) {
	loadErr := inst.Wait(ctx)
	if errors.Is(loadErr, context.Canceled) || errors.Is(loadErr, context.DeadlineExceeded) {
		return inst.Snapshot(), loadErr
	}
	for range 8 {
		if _, err := inst.Tick(); err != nil {
			return inst.Snapshot(), err
		}
		if s := inst.Snapshot(); s.State == framing.Applied || s.Status == assets.StatusFailed {
			break
		}
	}
	return inst.Snapshot(), loadErr
}

func (a *app) cmdPreview(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: modelview preview <asset> [out.png]")
	}
	m := a.assets()
	defer m.Close()
	shell, inst, ras, err := a.mount(m, args[0])
	if err != nil {
		return err
	}
	defer shell.Close()

	snap, loadErr := settle(ctx, inst)
	if ras.Image() == nil {
		if loadErr != nil {
			return loadErr
		}
		return errors.New("nothing was drawn; check the viewer width and height")
	}

	var path string
	if len(args) > 1 {
		path = args[1]
		err = debug.SavePNG(path, ras.Image())
	} else {
		path, err = debug.NewScreenshotCapture(".", "preview").CaptureFromImage(ras.Image())
	}
	if err != nil {
		return err
	}

	a.log.Info("preview written",
		zap.String("asset", snap.AssetID),
		zap.String("file", path),
		zap.Stringer("state", snap.State),
		zap.Int("frames", snap.Frames))
	fmt.Fprintf(a.out, "Wrote %s\n", path)
	return loadErr
}

// frameInterval is the render loop period for an fps limit; zero means the
// default of 60.
func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Second / time.Duration(fps)
}

// cmdWatch re-frames a local file every time it is written. Editors often
// replace files in several steps, so events are debounced.
func (a *app) cmdWatch(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: modelview watch <file>")
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// Watch the directory: atomic saves replace the file's inode.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	m := a.assets()
	defer m.Close()
	shell, inst, _, err := a.mount(m, path)
	if err != nil {
		return err
	}
	defer shell.Close()

	// Keep the surface drawing between reloads, capped at the fps limit.
	ctx, cancel := context.WithCancel(ctx)
	var g errgroup.Group
	g.Go(func() error {
		return inst.Run(ctx, frameInterval(a.cfg.Viewer.FPSLimit))
	})
	defer func() {
		cancel()
		_ = g.Wait()
	}()

	report := func() {
		snap, err := settle(ctx, inst)
		if err != nil {
			a.log.Warn("reload failed", zap.String("file", path), zap.Error(err))
			return
		}
		if snap.Plan == nil || snap.Bounds == nil {
			return
		}
		if err := a.writeReport(newPlanReport(path, *snap.Bounds, *snap.Plan, snap.Degenerate)); err != nil {
			a.log.Warn("writing report", zap.Error(err))
		}
	}
	report()
	a.log.Info("watching", zap.String("file", path))

	const debounce = 150 * time.Millisecond
	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			m.Invalidate(path)
			if err := inst.Remount(); err != nil {
				return err
			}
			a.log.Debug("file changed, reframing", zap.String("file", path))
			report()
		}
	}
}
