// modelview is a CLI for the model catalog: it lists and publishes entries
// and renders framed previews of assets.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/assets"
	"github.com/Faultbox/modelview/internal/catalog"
	"github.com/Faultbox/modelview/internal/config"
	"github.com/Faultbox/modelview/internal/logger"
	"github.com/Faultbox/modelview/internal/viewer"
)

// app carries what every command needs.
type app struct {
	cfg *config.Config
	out io.Writer
	log *zap.Logger
}

func main() {
	// Parse CLI flags first
	config.ParseFlags()
	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		Console: true,
		JSON:    cfg.Logging.JSON,
		File: logger.FileConfig{
			Path:       cfg.Logging.LogFile,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   true,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, out: os.Stdout, log: logger.Log}
	if err := a.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "list", "ls":
		return a.cmdList(ctx, args)
	case "delete", "rm":
		return a.cmdDelete(ctx, args)
	case "upload":
		return a.cmdUpload(ctx, args)
	case "preload":
		return a.cmdPreload(ctx, args)
	case "frame":
		return a.cmdFrame(ctx, args)
	case "preview":
		return a.cmdPreview(ctx, args)
	case "watch":
		return a.cmdWatch(ctx, args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Println(`modelview - 3D model catalog and preview utility

Usage:
  modelview [flags] <command> [args]

Commands:
  list                          List catalog models
  delete <id>...                Delete catalog models
  upload <name> <file>          Upload a model file
  preload                       Fetch and decode every catalog model
  frame <asset>                 Print the camera plan that frames an asset
  preview <asset> [out.png]     Render a framed wireframe preview
  watch <file>                  Re-frame a local file whenever it changes

Flags:
  --config <file>   Config file (default ./modelview.yaml)
  --catalog <url>   Catalog API base URL
  --env <preset>    Environment preset
  --width, --height, --fov, --no-shadows, --debug, --log-file

Examples:
  modelview list
  modelview upload "Office chair" chair.glb
  modelview frame models/robot.obj
  modelview --env sunset preview https://cdn.example.com/chair.glb chair.png`)
}

func (a *app) catalog() *catalog.Client {
	c := catalog.NewClient(a.cfg.Catalog.BaseURL, a.cfg.Catalog.Timeout, a.log)
	c.MaxUploadSize = int64(a.cfg.Catalog.MaxUploadMB) << 20
	return c
}

func (a *app) assets() *assets.Manager {
	return assets.NewManager(assets.Options{
		DefaultAsset:       a.cfg.Assets.DefaultAsset,
		Source:             assets.NewRouter(a.cfg.Assets.Root, a.cfg.Assets.Timeout),
		Timeout:            a.cfg.Assets.Timeout,
		PreloadConcurrency: a.cfg.Assets.PreloadConcurrency,
		Logger:             a.log,
	})
}

func (a *app) viewerConfig() viewer.Config {
	v := a.cfg.Viewer
	return viewer.Config{
		Environment:     v.Environment,
		ShowShadows:     v.ShowShadows,
		Orbit:           v.Orbit,
		FrameOnDemand:   v.FrameOnDemand,
		FovDegrees:      v.Fov,
		Width:           v.Width,
		Height:          v.Height,
		AutoRotate:      v.AutoRotate,
		AutoRotateSpeed: v.AutoRotateSpeed,
	}
}
