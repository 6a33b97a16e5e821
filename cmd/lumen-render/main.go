// Package main is the headless batch renderer: it traces a fixed number
// of iterations and writes the final running average as a PNG.
package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/lumen-render/lumen/internal/config"
	"github.com/lumen-render/lumen/internal/engine/camera"
	"github.com/lumen-render/lumen/internal/engine/debug"
	"github.com/lumen-render/lumen/internal/engine/scene"
	"github.com/lumen-render/lumen/internal/engine/session"
	"github.com/lumen-render/lumen/internal/logger"
	"github.com/lumen-render/lumen/pkg/formats"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Render.Iterations <= 0 {
		logger.Error("headless rendering needs -iterations > 0")
		os.Exit(1)
	}

	sc, cam, err := loadScene(cfg)
	if err != nil {
		logger.Error("failed to load scene", zap.Error(err))
		os.Exit(1)
	}

	sess, err := session.Begin(sc, cam, session.Config{
		TraceDepth:    cfg.Render.TraceDepth,
		RouletteAfter: cfg.Render.RouletteAfter,
		DirectLight:   cfg.Render.DirectLight,
		Workers:       cfg.Render.Workers,
	})
	if err != nil {
		logger.Error("failed to begin session", zap.Error(err))
		os.Exit(1)
	}
	defer sess.End()

	start := time.Now()
	frame, err := render(cfg.Render.Iterations, sess)
	if err != nil {
		logger.Error("render failed", zap.Error(err))
		os.Exit(1)
	}

	path, err := save(cfg, frame)
	if err != nil {
		logger.Error("saving output failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("render finished",
		zap.Int("iterations", cfg.Render.Iterations),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("output", path),
	)
}

// render runs the requested iterations, logging progress every 10%.
func render(iterations int, sess *session.Session) (*image.RGBA, error) {
	progressEvery := iterations / 10
	if progressEvery < 1 {
		progressEvery = 1
	}

	var frame *image.RGBA
	for i := 1; i <= iterations; i++ {
		var err error
		frame, _, err = sess.RunIteration()
		if err != nil {
			return nil, err
		}

		if i%progressEvery == 0 || i == iterations {
			logger.Info("progress",
				zap.Int("iteration", i),
				zap.Int("total", iterations),
			)
		}
	}
	return frame, nil
}

// save writes the frame to the -out path, or to a timestamped snapshot
// when no path was given.
func save(cfg *config.Config, frame *image.RGBA) (string, error) {
	capture := debug.NewSnapshotCapture(cfg.Output.SnapshotDir, cfg.Output.SnapshotPrefix)

	if path := config.OutputPath(); path != "" {
		return path, capture.CaptureTo(frame, path)
	}
	return capture.Capture(frame)
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
