package config

import (
	"flag"

	"github.com/Faultbox/modelview/internal/engine/lighting"
)

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagCatalog   = flag.String("catalog", "", "Catalog service base URL")
	flagEnv       = flag.String("env", "", "Environment preset (studio, city, sunset, ...)")
	flagNoShadows = flag.Bool("no-shadows", false, "Disable shadows")
	flagWidth     = flag.Int("width", 0, "Viewport width")
	flagHeight    = flag.Int("height", 0, "Viewport height")
	flagFov       = flag.Float64("fov", 0, "Vertical field of view in degrees")
	flagLogFile   = flag.String("log-file", "", "Write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagCatalog != "" {
		cfg.Catalog.BaseURL = *flagCatalog
	}
	if *flagEnv != "" {
		p, err := lighting.ParsePreset(*flagEnv)
		if err != nil {
			return err
		}
		cfg.Viewer.Environment = p
	}
	if *flagNoShadows {
		cfg.Viewer.ShowShadows = false
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
	if *flagFov > 0 {
		cfg.Viewer.Fov = *flagFov
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	return nil
}
