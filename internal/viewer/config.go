package viewer

import (
	"github.com/Faultbox/modelview/internal/engine/camera"
	"github.com/Faultbox/modelview/internal/engine/lighting"
	"github.com/Faultbox/modelview/internal/engine/renderer"
)

// Config configures one mounted viewport.
type Config struct {
	Environment   lighting.Preset `yaml:"environment"`
	ShowShadows   bool            `yaml:"show_shadows"`
	Orbit         camera.Limits   `yaml:"orbit"`
	FrameOnDemand bool            `yaml:"frame_on_demand"`

	FovDegrees      float64 `yaml:"fov"`
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	AutoRotate      bool    `yaml:"auto_rotate"`
	AutoRotateSpeed float64 `yaml:"auto_rotate_speed"`
}

// DefaultConfig returns the catalog card viewport.
func DefaultConfig() Config {
	return Config{
		Environment:   lighting.PresetStudio,
		ShowShadows:   true,
		FrameOnDemand: true,
		FovDegrees:    35,
		Width:         320,
		Height:        240,
	}
}

// FullscreenConfig returns the slowly turning fullscreen viewport.
func FullscreenConfig() Config {
	c := DefaultConfig()
	c.FovDegrees = 45
	c.Width, c.Height = 1280, 720
	c.AutoRotate = true
	c.AutoRotateSpeed = 0.5
	return c
}

func (c Config) surface() renderer.Config {
	return renderer.Config{
		Width:           c.Width,
		Height:          c.Height,
		FovDegrees:      c.FovDegrees,
		Environment:     c.Environment,
		ShowShadows:     c.ShowShadows,
		FrameOnDemand:   c.FrameOnDemand,
		AutoRotate:      c.AutoRotate,
		AutoRotateSpeed: c.AutoRotateSpeed,
	}
}
