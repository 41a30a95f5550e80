package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Faultbox/modelview/internal/engine/lighting"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test viewer defaults
	if cfg.Viewer.Width != 640 || cfg.Viewer.Height != 480 {
		t.Errorf("expected 640x480, got %dx%d", cfg.Viewer.Width, cfg.Viewer.Height)
	}
	if cfg.Viewer.Fov != 35 {
		t.Errorf("expected fov 35, got %v", cfg.Viewer.Fov)
	}
	if cfg.Viewer.Environment != lighting.PresetStudio {
		t.Errorf("expected studio environment, got %v", cfg.Viewer.Environment)
	}
	if !cfg.Viewer.ShowShadows || !cfg.Viewer.FrameOnDemand {
		t.Error("expected shadows and frame-on-demand enabled by default")
	}

	// Test framing defaults
	if cfg.Framing.Padding != 1.25 {
		t.Errorf("expected padding 1.25, got %v", cfg.Framing.Padding)
	}

	// Test asset and catalog defaults
	if cfg.Assets.Timeout != 60*time.Second {
		t.Errorf("expected asset timeout 60s, got %v", cfg.Assets.Timeout)
	}
	if cfg.Assets.DefaultAsset != "" {
		t.Errorf("expected no default asset, got %q", cfg.Assets.DefaultAsset)
	}
	if cfg.Catalog.MaxUploadMB != 100 {
		t.Errorf("expected 100MB upload limit, got %d", cfg.Catalog.MaxUploadMB)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
viewer:
  width: 1920
  height: 1080
  fov: 45
  environment: sunset
  show_shadows: false
  auto_rotate: true
  orbit:
    min_distance: 2
    max_polar_angle: 1.5

framing:
  padding: 2.5

assets:
  root: /srv/models
  default_asset: placeholder.glb
  timeout: 5s

catalog:
  base_url: "https://models.example.com/api"

logging:
  level: "debug"
  log_file: "modelview.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Viewer.Width != 1920 || cfg.Viewer.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Viewer.Width, cfg.Viewer.Height)
	}
	if cfg.Viewer.Environment != lighting.PresetSunset {
		t.Errorf("expected sunset, got %v", cfg.Viewer.Environment)
	}
	if cfg.Viewer.ShowShadows {
		t.Error("expected shadows off")
	}
	if !cfg.Viewer.AutoRotate {
		t.Error("expected auto rotate on")
	}
	if o := cfg.Viewer.Orbit; o.MinDistance == nil || *o.MinDistance != 2 || o.MaxDistance != nil {
		t.Errorf("unexpected orbit limits %+v", o)
	}
	if o := cfg.Viewer.Orbit; o.MaxPolarAngle == nil || *o.MaxPolarAngle != 1.5 {
		t.Errorf("expected max polar angle 1.5, got %+v", o)
	}

	if cfg.Framing.Padding != 2.5 {
		t.Errorf("expected padding 2.5, got %v", cfg.Framing.Padding)
	}
	if cfg.Framing.MaxDistanceFactor != 4 {
		t.Errorf("unset framing field lost its default: %v", cfg.Framing.MaxDistanceFactor)
	}

	if cfg.Assets.Root != "/srv/models" || cfg.Assets.DefaultAsset != "placeholder.glb" {
		t.Errorf("unexpected assets config %+v", cfg.Assets)
	}
	if cfg.Assets.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Assets.Timeout)
	}
	if cfg.Catalog.BaseURL != "https://models.example.com/api" {
		t.Errorf("expected catalog url, got %s", cfg.Catalog.BaseURL)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "modelview.log" {
		t.Errorf("expected log file 'modelview.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
viewer:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileUnknownPreset(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("viewer:\n  environment: moon\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error for unknown environment preset")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/modelview.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	neg := -1.0
	big := 10.0
	small := 1.0

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative size", func(c *Config) { c.Viewer.Width = -1 }, "negative size"},
		{"fov", func(c *Config) { c.Viewer.Fov = 180 }, "fov"},
		{"preset", func(c *Config) { c.Viewer.Environment = lighting.Preset(42) }, "environment"},
		{"orbit distances", func(c *Config) {
			c.Viewer.Orbit.MinDistance = &big
			c.Viewer.Orbit.MaxDistance = &small
		}, "min_distance"},
		{"padding", func(c *Config) { c.Framing.Padding = 0 }, "padding"},
		{"offset", func(c *Config) { c.Framing.Offset = [3]float64{} }, "offset"},
		{"distance factors", func(c *Config) { c.Framing.MinDistanceFactor = 5 }, "min_distance_factor"},
		{"polar", func(c *Config) { c.Framing.MaxPolarAngle = math.Pi + 1 }, "polar"},
		{"polar negative", func(c *Config) { c.Framing.MinPolarAngle = neg }, "polar"},
		{"timeout", func(c *Config) { c.Assets.Timeout = -time.Second }, "timeout"},
		{"upload limit", func(c *Config) { c.Catalog.MaxUploadMB = 0 }, "max_upload_mb"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Keep the user's real config out of the way
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create modelview.yaml in current directory
	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("viewer:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find modelview.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "catalog flag",
			setup: func() {
				*flagCatalog = "http://catalog.local/api"
			},
			verify: func(cfg *Config) {
				if cfg.Catalog.BaseURL != "http://catalog.local/api" {
					t.Errorf("expected catalog url override, got %s", cfg.Catalog.BaseURL)
				}
			},
			teardown: func() {
				*flagCatalog = ""
			},
		},
		{
			name: "env flag",
			setup: func() {
				*flagEnv = "night"
			},
			verify: func(cfg *Config) {
				if cfg.Viewer.Environment != lighting.PresetNight {
					t.Errorf("expected night, got %v", cfg.Viewer.Environment)
				}
			},
			teardown: func() {
				*flagEnv = ""
			},
		},
		{
			name: "no-shadows flag",
			setup: func() {
				*flagNoShadows = true
			},
			verify: func(cfg *Config) {
				if cfg.Viewer.ShowShadows {
					t.Error("expected shadows off with no-shadows flag")
				}
			},
			teardown: func() {
				*flagNoShadows = false
			},
		},
		{
			name: "size and fov flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
				*flagFov = 50
			},
			verify: func(cfg *Config) {
				if cfg.Viewer.Width != 2560 || cfg.Viewer.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Viewer.Width, cfg.Viewer.Height)
				}
				if cfg.Viewer.Fov != 50 {
					t.Errorf("expected fov 50, got %v", cfg.Viewer.Fov)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
				*flagFov = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			tt.setup()
			defer tt.teardown()

			// Apply flags to default config
			cfg := Default()
			if err := applyFlags(cfg); err != nil {
				t.Fatalf("applyFlags: %v", err)
			}

			// Verify
			tt.verify(cfg)
		})
	}
}

func TestApplyFlagsBadPreset(t *testing.T) {
	*flagEnv = "moon"
	defer func() { *flagEnv = "" }()
	if err := applyFlags(Default()); err == nil {
		t.Error("expected error for unknown preset flag")
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
viewer:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	// Load config
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Viewer.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Viewer.Width)
	}

	// Height should be from file (900) since no flag override
	if cfg.Viewer.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Viewer.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("viewer:\n  fov: -3\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject invalid config")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Default()
	cfg.Viewer.Environment = lighting.PresetForest
	minDist := 0.5
	cfg.Viewer.Orbit.MinDistance = &minDist

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Viewer.Environment != lighting.PresetForest {
		t.Errorf("expected forest after reload, got %v", loaded.Viewer.Environment)
	}
	if loaded.Viewer.Orbit.MinDistance == nil || *loaded.Viewer.Orbit.MinDistance != 0.5 {
		t.Error("orbit override lost on reload")
	}

	cfg.Framing.Padding = 0
	if err := cfg.SaveTo(path); err == nil {
		t.Error("expected SaveTo to refuse an invalid config")
	}
}
