// Package main is the entry point for the Lumen interactive viewer.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/lumen-render/lumen/internal/app"
	"github.com/lumen-render/lumen/internal/config"
	"github.com/lumen-render/lumen/internal/engine/camera"
	"github.com/lumen-render/lumen/internal/engine/scene"
	"github.com/lumen-render/lumen/internal/engine/session"
	"github.com/lumen-render/lumen/internal/logger"
	"github.com/lumen-render/lumen/pkg/formats"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Lumen ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	sc, cam, err := loadScene(cfg)
	if err != nil {
		logger.Error("failed to load scene", zap.Error(err))
		os.Exit(1)
	}

	a, err := app.New(app.Config{
		Title:      cfg.Display.Title,
		Fullscreen: cfg.Display.Fullscreen,
		VSync:      cfg.Display.VSync,
		Iterations: cfg.Render.Iterations,
		Session: session.Config{
			TraceDepth:    cfg.Render.TraceDepth,
			RouletteAfter: cfg.Render.RouletteAfter,
			DirectLight:   cfg.Render.DirectLight,
			Workers:       cfg.Render.Workers,
		},
		SnapshotDir:    cfg.Output.SnapshotDir,
		SnapshotPrefix: cfg.Output.SnapshotPrefix,
	}, sc, cam)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

// loadScene reads the scene description (the built-in one when no -scene
// flag is given), applies camera overrides from the config, and builds
// the scene and camera.
func loadScene(cfg *config.Config) (*scene.Scene, *camera.Camera, error) {
	var (
		sf      *formats.SceneFile
		baseDir string
		err     error
	)

	if path := config.ScenePath(); path != "" {
		sf, err = formats.ParseSceneFile(path)
		if err != nil {
			return nil, nil, err
		}
		baseDir = filepath.Dir(path)
		logger.Info("scene loaded", zap.String("path", path))
	} else {
		sf = formats.DefaultScene()
		baseDir = "."
		logger.Info("using built-in scene")
	}

	if cfg.Camera.Aperture >= 0 {
		sf.Camera.Aperture = cfg.Camera.Aperture
	}
	if cfg.Camera.FocalDistance >= 0 {
		sf.Camera.FocalDistance = cfg.Camera.FocalDistance
	}

	sc, err := scene.Build(sf, baseDir)
	if err != nil {
		return nil, nil, err
	}

	cam, err := camera.New(sf.Camera, cfg.Render.Width, cfg.Render.Height)
	if err != nil {
		return nil, nil, err
	}
	return sc, cam, nil
}
