// Package app implements the interactive viewer: a window showing the
// progressive render as it converges, with keys for snapshots and for
// restarting the accumulation.
package app

import (
	"fmt"
	"image"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/lumen-render/lumen/internal/engine/camera"
	"github.com/lumen-render/lumen/internal/engine/debug"
	"github.com/lumen-render/lumen/internal/engine/display"
	"github.com/lumen-render/lumen/internal/engine/input"
	"github.com/lumen-render/lumen/internal/engine/scene"
	"github.com/lumen-render/lumen/internal/engine/session"
	"github.com/lumen-render/lumen/internal/engine/window"
	"github.com/lumen-render/lumen/internal/logger"
)

// Config holds viewer configuration.
type Config struct {
	Title      string
	Fullscreen bool
	VSync      bool

	// Iterations stops the loop after that many passes; 0 runs until
	// the window is closed.
	Iterations int

	Session session.Config

	SnapshotDir    string
	SnapshotPrefix string
}

// App owns the window, the display and the render session and drives the
// iteration loop.
type App struct {
	config  Config
	running bool

	window   *window.Window
	display  *display.Display
	input    *input.Input
	session  *session.Session
	snapshot *debug.SnapshotCapture

	// lastFrame is the most recently presented image, kept for snapshots.
	lastFrame *image.RGBA
}

// New creates the window and GL display sized to the camera resolution
// and begins a render session against the scene.
func New(cfg Config, sc *scene.Scene, cam *camera.Camera) (*App, error) {
	logger.Info("initializing viewer",
		zap.String("title", cfg.Title),
		zap.Int("width", cam.Width),
		zap.Int("height", cam.Height),
	)

	a := &App{
		config:   cfg,
		snapshot: debug.NewSnapshotCapture(cfg.SnapshotDir, cfg.SnapshotPrefix),
	}

	// Create window (this also creates the OpenGL context)
	var err error
	a.window, err = window.New(window.Config{
		Title:      cfg.Title,
		Width:      cam.Width,
		Height:     cam.Height,
		Fullscreen: cfg.Fullscreen,
		VSync:      cfg.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create display (AFTER window, since the GL context must exist)
	winW, winH := a.window.GetSize()
	a.display, err = display.New(cam.Width, cam.Height, winW, winH)
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create display: %w", err)
	}

	a.session, err = session.Begin(sc, cam, cfg.Session)
	if err != nil {
		a.display.Close()
		a.window.Close()
		return nil, fmt.Errorf("failed to begin session: %w", err)
	}

	a.input = input.New()
	return a, nil
}

// Run drives the viewer loop: poll input, trace one iteration, blit the
// running average, swap. The loop ends when the window closes, Escape is
// pressed, or the configured iteration cap is reached.
func (a *App) Run() error {
	a.running = true

	statsTimer := time.Now()
	logger.Info("starting render loop")

	for a.running {
		if a.input.Update() {
			a.running = false
			break
		}

		for _, event := range a.input.Events() {
			switch event.Type {
			case input.EventWindowResize:
				a.display.Resize(event.Width, event.Height)
			case input.EventKeyDown:
				a.handleKey(event.Key)
			}
		}
		if !a.running {
			break
		}

		frame, stats, err := a.session.RunIteration()
		if err != nil {
			return fmt.Errorf("iteration error: %w", err)
		}
		a.lastFrame = frame

		if err := a.display.Present(frame); err != nil {
			return fmt.Errorf("present error: %w", err)
		}
		a.window.SwapBuffers()

		iterations := a.session.Iterations()
		a.window.SetTitle(fmt.Sprintf("%s | %d iterations", a.config.Title, iterations))

		if time.Since(statsTimer) >= time.Second {
			logger.Debug("iteration stats",
				zap.Int("iteration", iterations),
				zap.Int("depths", stats.Depths),
				zap.Int("misses", stats.Misses),
				zap.Int("light_hits", stats.LightHits),
				zap.Int("scattered", stats.Scattered),
				zap.Int("roulette_kills", stats.RouletteKills),
				zap.Int("max_depth_flushed", stats.MaxDepthFlushed),
			)
			statsTimer = time.Now()
		}

		if a.config.Iterations > 0 && iterations >= a.config.Iterations {
			logger.Info("iteration cap reached", zap.Int("iterations", iterations))
			a.running = false
		}
	}

	// Keep the final accumulation before tearing the window down.
	a.saveSnapshot()
	return nil
}

// handleKey reacts to viewer key bindings: Escape quits, S saves a
// snapshot, R restarts the accumulation.
func (a *App) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		a.running = false
	case sdl.SCANCODE_S:
		a.saveSnapshot()
	case sdl.SCANCODE_R:
		a.session.Reset()
	}
}

// saveSnapshot writes the last presented frame as a PNG.
func (a *App) saveSnapshot() {
	if a.lastFrame == nil {
		return
	}

	path, err := a.snapshot.Capture(a.lastFrame)
	if err != nil {
		logger.Error("snapshot failed", zap.Error(err))
		return
	}
	logger.Info("snapshot saved",
		zap.String("path", path),
		zap.Int("iterations", a.session.Iterations()),
	)
}

// Close ends the session and tears down the display and window.
func (a *App) Close() {
	logger.Info("closing viewer")

	if a.session != nil {
		_ = a.session.End()
	}
	if a.display != nil {
		a.display.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
