// Package config handles modelview configuration loading and management.
package config

import (
	"errors"
	"fmt"
	gomath "math"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/modelview/internal/engine/camera"
	"github.com/Faultbox/modelview/internal/engine/lighting"
)

// Config holds all modelview settings.
type Config struct {
	Viewer  ViewerConfig     `yaml:"viewer"`
	Framing camera.FitConfig `yaml:"framing"`
	Assets  AssetsConfig     `yaml:"assets"`
	Catalog CatalogConfig    `yaml:"catalog"`
	Logging LoggingConfig    `yaml:"logging"`
}

// ViewerConfig holds preview viewport settings.
type ViewerConfig struct {
	Width           int             `yaml:"width"`
	Height          int             `yaml:"height"`
	Fov             float64         `yaml:"fov"` // vertical, degrees
	Environment     lighting.Preset `yaml:"environment"`
	ShowShadows     bool            `yaml:"show_shadows"`
	FrameOnDemand   bool            `yaml:"frame_on_demand"`
	AutoRotate      bool            `yaml:"auto_rotate"`
	AutoRotateSpeed float64         `yaml:"auto_rotate_speed"`
	FPSLimit        int             `yaml:"fps_limit"`
	Orbit           camera.Limits   `yaml:"orbit"`
}

// AssetsConfig holds asset loading settings.
type AssetsConfig struct {
	Root               string        `yaml:"root"`          // base directory for relative paths
	DefaultAsset       string        `yaml:"default_asset"` // shown for entries without a file
	Timeout            time.Duration `yaml:"timeout"`
	PreloadConcurrency int           `yaml:"preload_concurrency"`
}

// CatalogConfig holds catalog service settings.
type CatalogConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxUploadMB int           `yaml:"max_upload_mb"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	JSON       bool   `yaml:"json"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Width:           640,
			Height:          480,
			Fov:             35,
			Environment:     lighting.PresetStudio,
			ShowShadows:     true,
			FrameOnDemand:   true,
			AutoRotate:      false,
			AutoRotateSpeed: 0.5,
			FPSLimit:        60,
		},
		Framing: camera.DefaultFitConfig(),
		Assets: AssetsConfig{
			Timeout:            60 * time.Second,
			PreloadConcurrency: 4,
		},
		Catalog: CatalogConfig{
			BaseURL:     "http://localhost:5000/api",
			Timeout:     30 * time.Second,
			MaxUploadMB: 100,
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	v := c.Viewer
	if v.Width < 0 || v.Height < 0 {
		errs = append(errs, fmt.Errorf("viewer: negative size %dx%d", v.Width, v.Height))
	}
	if !(v.Fov > 0 && v.Fov < 180) {
		errs = append(errs, fmt.Errorf("viewer: fov %v outside (0, 180)", v.Fov))
	}
	if !v.Environment.Valid() {
		errs = append(errs, fmt.Errorf("viewer: invalid environment %d", int(v.Environment)))
	}
	if v.FPSLimit < 0 {
		errs = append(errs, fmt.Errorf("viewer: negative fps limit"))
	}
	if o := v.Orbit; o.MinDistance != nil && o.MaxDistance != nil && *o.MinDistance > *o.MaxDistance {
		errs = append(errs, fmt.Errorf("viewer: orbit min_distance %v above max_distance %v", *o.MinDistance, *o.MaxDistance))
	}
	if o := v.Orbit; o.MinPolarAngle != nil && o.MaxPolarAngle != nil && *o.MinPolarAngle > *o.MaxPolarAngle {
		errs = append(errs, fmt.Errorf("viewer: orbit min_polar_angle above max_polar_angle"))
	}

	f := c.Framing
	if !(f.Padding > 0) {
		errs = append(errs, fmt.Errorf("framing: padding must be positive"))
	}
	if f.Offset == [3]float64{} {
		errs = append(errs, fmt.Errorf("framing: offset must be non-zero"))
	}
	if !(f.MinDistanceFactor > 0 && f.MinDistanceFactor < f.MaxDistanceFactor) {
		errs = append(errs, fmt.Errorf("framing: need 0 < min_distance_factor < max_distance_factor"))
	}
	if !(f.MinPolarAngle >= 0 && f.MinPolarAngle < f.MaxPolarAngle && f.MaxPolarAngle <= gomath.Pi) {
		errs = append(errs, fmt.Errorf("framing: need 0 <= min_polar_angle < max_polar_angle <= pi"))
	}

	if c.Assets.Timeout < 0 || c.Catalog.Timeout < 0 {
		errs = append(errs, fmt.Errorf("negative timeout"))
	}
	if c.Assets.PreloadConcurrency < 0 {
		errs = append(errs, fmt.Errorf("assets: negative preload_concurrency"))
	}
	if c.Catalog.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("catalog: max_upload_mb must be positive"))
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	return errors.Join(errs...)
}
